package ingest

import (
	"math"
	"strconv"
	"strings"
	"time"

	"vcfo/domain/table"
)

// CoercionConfig defines the thresholds used when typing a column from a
// sample of its raw values.
type CoercionConfig struct {
	NumericThreshold   float64 // fraction of values that must parse as numbers
	TimestampThreshold float64 // fraction of values that must parse as timestamps
}

// DefaultCoercionConfig returns sensible defaults
func DefaultCoercionConfig() CoercionConfig {
	return CoercionConfig{
		NumericThreshold:   0.8,
		TimestampThreshold: 0.8,
	}
}

// TypeCoercer handles deterministic type coercion of raw cell strings.
type TypeCoercer struct {
	config CoercionConfig
}

// NewTypeCoercer creates a coercer with the given config
func NewTypeCoercer(config CoercionConfig) *TypeCoercer {
	return &TypeCoercer{config: config}
}

// CoerceValue converts one raw cell to a typed Value under a known column kind.
// Cells that do not fit the column kind degrade to string or missing.
func (c *TypeCoercer) CoerceValue(raw string, kind table.ColumnKind) table.Value {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return table.NewMissingValue()
	}

	switch kind {
	case table.KindNumeric:
		if f, ok := TryParseNumeric(raw); ok {
			return table.NewNumericValue(f)
		}
		return table.NewMissingValue()
	case table.KindDatetime:
		if t, ok := TryParseTimestamp(raw); ok {
			return table.NewTimestampValue(t)
		}
		return table.NewStringValue(raw)
	default:
		return table.NewStringValue(raw)
	}
}

// ClassifyColumn decides a column kind from a sample of raw values using the
// configured thresholds. Numeric wins over timestamp when both clear the bar;
// anything else is categorical.
func (c *TypeCoercer) ClassifyColumn(sample []string) table.ColumnKind {
	valid := 0
	numeric := 0
	timestamps := 0
	for _, raw := range sample {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		valid++
		if _, ok := TryParseNumeric(raw); ok {
			numeric++
		}
		if _, ok := TryParseTimestamp(raw); ok {
			timestamps++
		}
	}
	if valid == 0 {
		return table.KindCategorical
	}
	if float64(numeric)/float64(valid) >= c.config.NumericThreshold {
		return table.KindNumeric
	}
	if float64(timestamps)/float64(valid) >= c.config.TimestampThreshold {
		return table.KindDatetime
	}
	return table.KindCategorical
}

// TryParseNumeric attempts to parse as numeric with strict rules.
// Handles parentheses for negatives, thousands separators and currency symbols.
func TryParseNumeric(raw string) (float64, bool) {
	cleanVal := strings.TrimSpace(raw)
	if cleanVal == "" {
		return 0, false
	}

	// Parentheses for negative numbers: (123) -> -123
	isNegative := false
	if strings.HasPrefix(cleanVal, "(") && strings.HasSuffix(cleanVal, ")") {
		cleanVal = strings.TrimSuffix(strings.TrimPrefix(cleanVal, "("), ")")
		isNegative = true
	}

	for _, symbol := range []string{"$", "€", "£", "¥", "₹", "USD", "EUR", "GBP", "INR"} {
		cleanVal = strings.ReplaceAll(cleanVal, symbol, "")
	}
	cleanVal = strings.ReplaceAll(cleanVal, "%", "")
	cleanVal = strings.ReplaceAll(cleanVal, ",", "")
	cleanVal = strings.TrimSpace(cleanVal)

	if isNegative {
		cleanVal = "-" + cleanVal
	}

	val, err := strconv.ParseFloat(cleanVal, 64)
	if err != nil || math.IsInf(val, 0) || math.IsNaN(val) {
		return 0, false
	}
	return val, true
}

// timestampFormats are the permissive date layouts tried in order. Month-first
// layouts precede day-first ambiguity on purpose: the default parser rules are
// not day-first.
var timestampFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"2006/01/02",
	"01-02-2006",
	"02-Jan-2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2006-01",
}

// TryParseTimestamp attempts to parse a raw cell as a calendar date/timestamp.
// Bare numbers are rejected: small integers and serial values must not be read
// as epoch-like dates.
func TryParseTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if _, err := strconv.ParseFloat(raw, 64); err == nil {
		return time.Time{}, false
	}
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
