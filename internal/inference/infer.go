// Package inference guesses the date axis and primary metric of a dataset of
// unknown shape. The heuristics are best-effort: callers must tolerate an
// empty inference and degrade to descriptive messages.
package inference

import (
	"strings"

	"vcfo/adapters/ingest"
	"vcfo/domain/analysis"
	"vcfo/domain/table"
)

// Tunable scoring constants. Kept as named values so the threshold behavior
// can be tested independently of any dataset.
const (
	// SampleRows bounds how many rows are scanned when scoring date columns.
	SampleRows = 500
	// DateNameBonus is added to a column's parse rate when its name carries a
	// date-like hint.
	DateNameBonus = 0.3
	// DateScoreThreshold is the minimum combined score (parse rate + name
	// bonus) for a column to be accepted as the date axis. It keeps columns
	// that are only coincidentally date-parseable from beating a clear
	// non-date signal.
	DateScoreThreshold = 0.6
)

// dateNameHints mark columns whose name suggests a date axis.
var dateNameHints = []string{"date", "time", "day", "month"}

// valueNameExclusions mark numeric columns that are identifiers or time parts
// masquerading as metrics.
var valueNameExclusions = []string{"id", "year", "month"}

// Infer proposes a date column and a value column for the given table.
// Either member of the result may be empty. The function is pure: calling it
// twice on the same table returns identical results.
func Infer(tbl *table.Table) analysis.ColumnInference {
	return analysis.ColumnInference{
		DateColumn:  inferDateColumn(tbl),
		ValueColumn: inferValueColumn(tbl),
	}
}

func inferDateColumn(tbl *table.Table) string {
	bestCol := ""
	bestScore := 0.0

	for _, col := range tbl.Columns {
		// Numeric columns are skipped so numeric values are never mis-read
		// as dates.
		if col.Kind == table.KindNumeric {
			continue
		}
		score := dateParseRate(tbl, col.Name)
		if hasAnyHint(col.Name, dateNameHints) {
			score += DateNameBonus
		}
		if score > bestScore {
			bestScore = score
			bestCol = col.Name
		}
	}

	if bestCol != "" && bestScore >= DateScoreThreshold {
		return bestCol
	}
	return ""
}

// dateParseRate returns the fraction of sampled values that parse as a
// calendar date under the permissive, non-day-first parser.
func dateParseRate(tbl *table.Table, name string) float64 {
	sampled := 0
	parsed := 0
	for i, row := range tbl.Rows {
		if i >= SampleRows {
			break
		}
		sampled++
		v := row[name]
		if v.IsMissing {
			continue
		}
		if _, ok := v.Time(); ok {
			parsed++
			continue
		}
		if _, ok := ingest.TryParseTimestamp(v.String()); ok {
			parsed++
		}
	}
	if sampled == 0 {
		return 0
	}
	return float64(parsed) / float64(sampled)
}

func inferValueColumn(tbl *table.Table) string {
	// Last qualifying numeric column wins: in typical financial exports the
	// rightmost numeric column is the metric of interest (a running total or
	// price field added after leading attribute columns).
	best := ""
	for _, col := range tbl.Columns {
		if col.Kind != table.KindNumeric {
			continue
		}
		if hasAnyHint(col.Name, valueNameExclusions) {
			continue
		}
		best = col.Name
	}
	return best
}

func hasAnyHint(name string, hints []string) bool {
	lower := strings.ToLower(name)
	for _, h := range hints {
		if strings.Contains(lower, h) {
			return true
		}
	}
	return false
}
