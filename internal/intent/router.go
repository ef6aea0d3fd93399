// Package intent classifies a free-text request into one of a closed set of
// analysis intents. Rule order is a hard contract: rules are evaluated
// top-to-bottom and the first match wins.
package intent

import "strings"

// Intent is the closed-set classification of a user request.
type Intent string

const (
	RateOfChange        Intent = "rate_of_change"
	LinearRelationships Intent = "linear_relationships"
	TopCategories       Intent = "top_categories"
	GenericChart        Intent = "generic_chart"
	Forecast            Intent = "forecast"
	Anomaly             Intent = "anomaly"
	FallbackQA          Intent = "fallback_qa"
)

// ChartKind identifies the chart family of a generic chart request.
type ChartKind string

const (
	ChartLine      ChartKind = "line"
	ChartBar       ChartKind = "bar"
	ChartPie       ChartKind = "pie"
	ChartArea      ChartKind = "area"
	ChartScatter   ChartKind = "scatter"
	ChartBox       ChartKind = "box"
	ChartHeatmap   ChartKind = "heatmap"
	ChartWaterfall ChartKind = "waterfall"
)

// rule pairs a keyword predicate with the intent it selects.
type rule struct {
	intent   Intent
	keywords []string
}

// rules is the fixed priority order. The forecast rule is a broad catch-all
// ("chart", "plot", "compare") and must stay below the more specific chart and
// relationship rules.
var rules = []rule{
	{RateOfChange, []string{"rate of change", "roc", "growth rate", "percentage change"}},
	{LinearRelationships, []string{"linear relation", "linear relationship", "correlation", "sub plots", "subplots"}},
	{TopCategories, []string{"top 5", "top five", "best sales channel", "top sales channel", "top channels"}},
	{GenericChart, []string{"line chart", "bar chart", "pie chart", "area chart", "scatter plot", "box plot", "heat map", "heatmap", "waterfall chart"}},
	{Forecast, []string{"forecast", "predict", "graph", "chart", "plot", "compare"}},
	{Anomaly, []string{"anomaly", "outlier"}},
}

// Classify returns exactly one intent for the request text.
func Classify(requestText string) Intent {
	prompt := strings.ToLower(requestText)
	for _, r := range rules {
		if containsAny(prompt, r.keywords) {
			return r.intent
		}
	}
	return FallbackQA
}

// ResolveChartKind maps a generic-chart prompt to a concrete chart family.
// Sub-substring priority within the branch: line, bar (unless stacked), pie,
// area, scatter, box, waterfall; heatmap is the branch default.
func ResolveChartKind(requestText string) ChartKind {
	prompt := strings.ToLower(requestText)
	switch {
	case strings.Contains(prompt, "line"):
		return ChartLine
	case strings.Contains(prompt, "bar") && !strings.Contains(prompt, "stacked"):
		return ChartBar
	case strings.Contains(prompt, "pie"):
		return ChartPie
	case strings.Contains(prompt, "area"):
		return ChartArea
	case strings.Contains(prompt, "scatter"):
		return ChartScatter
	case strings.Contains(prompt, "box"):
		return ChartBox
	case strings.Contains(prompt, "waterfall"):
		return ChartWaterfall
	default:
		return ChartHeatmap
	}
}

func containsAny(prompt string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(prompt, k) {
			return true
		}
	}
	return false
}
