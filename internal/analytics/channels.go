package analytics

import (
	"fmt"
	"sort"
	"strings"

	"vcfo/domain/analysis"
	"vcfo/domain/chart"
	"vcfo/domain/table"
)

const (
	topChannelCount = 5
	// Cardinality window for an acceptable grouping column.
	minCategoryCardinality = 2
	maxCategoryCardinality = 20
)

// TopSalesChannels aggregates the value column by a detected categorical
// column and ranks the top five categories by total.
func (e *Engine) TopSalesChannels(tbl *table.Table, valueCol string) (analysis.Outcome, error) {
	if valueCol == "" || !tbl.HasColumn(valueCol) {
		return analysis.Insufficient("Could not identify a numeric value column for sales."), nil
	}

	category := selectCategoryColumn(tbl)
	if category == "" {
		return analysis.Insufficient("No suitable categorical column found for channels."), nil
	}

	totals := make(map[string]float64)
	for _, row := range tbl.Rows {
		cat := row[category]
		if cat.IsMissing {
			continue
		}
		if v, ok := row[valueCol].Float(); ok {
			totals[cat.String()] += v
		}
	}
	if len(totals) == 0 {
		return analysis.Insufficient(fmt.Sprintf("Column '%s' holds no numeric values to aggregate.", valueCol)), nil
	}

	type entry struct {
		label string
		total float64
	}
	entries := make([]entry, 0, len(totals))
	for label, total := range totals {
		entries = append(entries, entry{label, total})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].total > entries[j].total })
	if len(entries) > topChannelCount {
		entries = entries[:topChannelCount]
	}

	ranking := chart.Ranking{
		Title:  "Top 5 Sales Channels",
		XLabel: valueCol,
		YLabel: category,
	}
	for _, en := range entries {
		ranking.Labels = append(ranking.Labels, en.label)
		ranking.Values = append(ranking.Values, en.total)
	}

	img, err := e.plots.HorizontalBars(ranking)
	if err != nil {
		return analysis.Outcome{}, err
	}
	return analysis.Ok(analysis.Result{
		Summary:      fmt.Sprintf("Top 5 '%s' by total %s.", category, valueCol),
		PrimaryImage: img,
	}), nil
}

// selectCategoryColumn picks the grouping column. A column whose name contains
// "channel" short-circuits the scan; otherwise the lowest-cardinality
// candidate within [2, 20] unique values wins. The name match deliberately
// overrides cardinality, matching the documented selection priority.
func selectCategoryColumn(tbl *table.Table) string {
	best := ""
	bestCard := 0
	for _, name := range tbl.CategoricalColumns() {
		unique := tbl.UniqueCount(name)
		if unique >= minCategoryCardinality && unique <= maxCategoryCardinality {
			if best == "" || unique < bestCard {
				best = name
				bestCard = unique
			}
		}
		if strings.Contains(strings.ToLower(name), "channel") {
			return name
		}
	}
	return best
}
