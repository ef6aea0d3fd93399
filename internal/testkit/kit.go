package testkit

import (
	"vcfo/domain/table"
)

// Table materializes the generated records as an in-memory typed table with
// the same shape the ingest reader would produce from the CSV export.
func (g *SalesDataGenerator) Table() *table.Table {
	records := g.Generate()
	tbl := &table.Table{
		Columns: []table.Column{
			{Name: "transaction_date", Kind: table.KindDatetime},
			{Name: "sales_channel", Kind: table.KindCategorical},
			{Name: "region", Kind: table.KindCategorical},
			{Name: "units_sold", Kind: table.KindNumeric},
			{Name: "total_amount", Kind: table.KindNumeric},
		},
		Rows: make([]table.Row, 0, len(records)),
	}
	for _, rec := range records {
		tbl.Rows = append(tbl.Rows, table.Row{
			"transaction_date": table.NewTimestampValue(rec.Date),
			"sales_channel":    table.NewStringValue(rec.Channel),
			"region":           table.NewStringValue(rec.Region),
			"units_sold":       table.NewNumericValue(float64(rec.Units)),
			"total_amount":     table.NewNumericValue(rec.Amount),
		})
	}
	return tbl
}

// NumericTable builds a small table from explicit column vectors. Columns are
// laid out in the order given; all columns must share the same length.
func NumericTable(names []string, cols ...[]float64) *table.Table {
	tbl := &table.Table{}
	for _, name := range names {
		tbl.Columns = append(tbl.Columns, table.Column{Name: name, Kind: table.KindNumeric})
	}
	if len(cols) == 0 {
		return tbl
	}
	for i := 0; i < len(cols[0]); i++ {
		row := table.Row{}
		for j, name := range names {
			row[name] = table.NewNumericValue(cols[j][i])
		}
		tbl.Rows = append(tbl.Rows, row)
	}
	return tbl
}

// DatedSeriesTable builds a table with one datetime column and one numeric
// column, one row per value, starting at start and advancing one day per row.
func DatedSeriesTable(dateCol, valueCol string, values []float64) *table.Table {
	g := NewSalesDataGenerator(DefaultSalesConfig())
	start := g.config.StartDate
	tbl := &table.Table{
		Columns: []table.Column{
			{Name: dateCol, Kind: table.KindDatetime},
			{Name: valueCol, Kind: table.KindNumeric},
		},
	}
	for i, v := range values {
		tbl.Rows = append(tbl.Rows, table.Row{
			dateCol:  table.NewTimestampValue(start.AddDate(0, 0, i)),
			valueCol: table.NewNumericValue(v),
		})
	}
	return tbl
}
