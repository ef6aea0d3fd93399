package inference

import (
	"testing"
	"time"

	"vcfo/domain/table"
	"vcfo/internal/testkit"
)

func salesTable() *table.Table {
	return testkit.NewSalesDataGenerator(testkit.DefaultSalesConfig()).Table()
}

func TestInfer_SalesDataset(t *testing.T) {
	inf := Infer(salesTable())

	if inf.DateColumn != "transaction_date" {
		t.Errorf("expected transaction_date as date column, got %q", inf.DateColumn)
	}
	if inf.ValueColumn != "total_amount" {
		t.Errorf("expected total_amount as value column, got %q", inf.ValueColumn)
	}
}

func TestInfer_Idempotent(t *testing.T) {
	tbl := salesTable()
	first := Infer(tbl)
	second := Infer(tbl)

	if first != second {
		t.Errorf("inference not deterministic: %+v vs %+v", first, second)
	}
}

func TestInfer_YearColumnNotValue(t *testing.T) {
	// fiscal_year is numeric but an excluded time part; revenue should win.
	tbl := &table.Table{
		Columns: []table.Column{
			{Name: "revenue", Kind: table.KindNumeric},
			{Name: "fiscal_year", Kind: table.KindNumeric},
		},
	}
	for i := 0; i < 10; i++ {
		tbl.Rows = append(tbl.Rows, table.Row{
			"revenue":     table.NewNumericValue(float64(1000 + i)),
			"fiscal_year": table.NewNumericValue(2024),
		})
	}

	inf := Infer(tbl)
	if inf.ValueColumn != "revenue" {
		t.Errorf("expected revenue, got %q", inf.ValueColumn)
	}
}

func TestInfer_OnlyExcludedNumericColumns(t *testing.T) {
	tbl := &table.Table{
		Columns: []table.Column{
			{Name: "order_id", Kind: table.KindNumeric},
			{Name: "year", Kind: table.KindNumeric},
		},
	}
	for i := 0; i < 5; i++ {
		tbl.Rows = append(tbl.Rows, table.Row{
			"order_id": table.NewNumericValue(float64(i)),
			"year":     table.NewNumericValue(2024),
		})
	}

	inf := Infer(tbl)
	if inf.HasValue() {
		t.Errorf("expected no value column, got %q", inf.ValueColumn)
	}
}

func TestInfer_LastNumericColumnWins(t *testing.T) {
	tbl := testkit.NumericTable(
		[]string{"units", "price", "total"},
		[]float64{1, 2, 3},
		[]float64{10, 20, 30},
		[]float64{10, 40, 90},
	)

	inf := Infer(tbl)
	if inf.ValueColumn != "total" {
		t.Errorf("expected rightmost numeric column, got %q", inf.ValueColumn)
	}
}

func TestInferDate_NameBonusCrossesThreshold(t *testing.T) {
	// Half the values parse as dates: 0.5 alone misses the threshold, but a
	// date-hinted name adds the bonus and crosses it.
	build := func(name string) *table.Table {
		tbl := &table.Table{Columns: []table.Column{{Name: name, Kind: table.KindCategorical}}}
		for i := 0; i < 10; i++ {
			var v table.Value
			if i%2 == 0 {
				v = table.NewTimestampValue(time.Date(2024, 1, i+1, 0, 0, 0, 0, time.UTC))
			} else {
				v = table.NewStringValue("n/a")
			}
			tbl.Rows = append(tbl.Rows, table.Row{name: v})
		}
		return tbl
	}

	if got := Infer(build("notes")).DateColumn; got != "" {
		t.Errorf("unhinted half-parseable column should not qualify, got %q", got)
	}
	if got := Infer(build("ship_date")).DateColumn; got != "ship_date" {
		t.Errorf("hinted column should qualify via name bonus, got %q", got)
	}
}

func TestInferDate_NumericColumnSkipped(t *testing.T) {
	// A numeric column named like a date must never be chosen.
	tbl := &table.Table{
		Columns: []table.Column{{Name: "day", Kind: table.KindNumeric}},
	}
	for i := 0; i < 10; i++ {
		tbl.Rows = append(tbl.Rows, table.Row{"day": table.NewNumericValue(float64(i + 1))})
	}

	if inf := Infer(tbl); inf.HasDate() {
		t.Errorf("numeric column selected as date axis: %q", inf.DateColumn)
	}
}
