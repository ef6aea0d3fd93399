package testkit

import (
	"encoding/csv"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"
)

// SalesGeneratorConfig configures the synthetic sales data generator
type SalesGeneratorConfig struct {
	Days          int       `json:"days"`
	BaseAmount    float64   `json:"base_amount"`
	TrendPerDay   float64   `json:"trend_per_day"`
	NoiseStdDev   float64   `json:"noise_std_dev"`
	AnomalyEvery  int       `json:"anomaly_every"`
	AnomalyFactor float64   `json:"anomaly_factor"`
	StartDate     time.Time `json:"start_date"`
	Seed          int64     `json:"seed"`
}

// DefaultSalesConfig returns sensible defaults for sales data generation
func DefaultSalesConfig() SalesGeneratorConfig {
	return SalesGeneratorConfig{
		Days:          120,
		BaseAmount:    5000,
		TrendPerDay:   12.5,
		NoiseStdDev:   150,
		AnomalyEvery:  0,
		AnomalyFactor: 4.0,
		StartDate:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Seed:          42,
	}
}

// SalesRecord is one generated daily sales row
type SalesRecord struct {
	Date    time.Time
	Amount  float64
	Units   int
	Channel string
	Region  string
}

// SalesDataGenerator generates deterministic synthetic sales data
type SalesDataGenerator struct {
	config SalesGeneratorConfig
	rng    *rand.Rand
}

var (
	channels = []string{"Online", "Retail", "Wholesale", "Partner"}
	regions  = []string{"North", "South", "East", "West"}
)

// NewSalesDataGenerator creates a new sales data generator
func NewSalesDataGenerator(config SalesGeneratorConfig) *SalesDataGenerator {
	return &SalesDataGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Generate produces one record per day following a linear trend with noise.
// When AnomalyEvery is positive every Nth day is scaled by AnomalyFactor so
// outlier detection has known positives to find.
func (g *SalesDataGenerator) Generate() []SalesRecord {
	records := make([]SalesRecord, 0, g.config.Days)
	for i := 0; i < g.config.Days; i++ {
		date := g.config.StartDate.AddDate(0, 0, i)
		amount := g.config.BaseAmount + g.config.TrendPerDay*float64(i) + g.rng.NormFloat64()*g.config.NoiseStdDev
		if g.config.AnomalyEvery > 0 && i > 0 && i%g.config.AnomalyEvery == 0 {
			amount *= g.config.AnomalyFactor
		}
		if amount < 0 {
			amount = 0
		}
		records = append(records, SalesRecord{
			Date:    date,
			Amount:  math.Round(amount*100) / 100,
			Units:   1 + g.rng.Intn(50),
			Channel: channels[g.rng.Intn(len(channels))],
			Region:  regions[g.rng.Intn(len(regions))],
		})
	}
	return records
}

// WriteCSV writes the generated records as a CSV dataset under dir and
// returns the file path.
func (g *SalesDataGenerator) WriteCSV(dir, name string) (string, error) {
	records := g.Generate()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"transaction_date", "sales_channel", "region", "units_sold", "total_amount"}); err != nil {
		return "", err
	}
	for _, rec := range records {
		row := []string{
			rec.Date.Format("2006-01-02"),
			rec.Channel,
			rec.Region,
			fmt.Sprintf("%d", rec.Units),
			fmt.Sprintf("%.2f", rec.Amount),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	return path, w.Error()
}
