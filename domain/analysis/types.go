package analysis

// ColumnInference is the per-request guess at the date axis and primary metric.
// Either member may be empty when no suitable candidate was found. The pair is
// produced fresh per request and never mutated after being returned.
type ColumnInference struct {
	DateColumn  string `json:"date_column,omitempty"`
	ValueColumn string `json:"value_column,omitempty"`
}

// HasDate reports whether a date column was identified.
func (c ColumnInference) HasDate() bool { return c.DateColumn != "" }

// HasValue reports whether a value column was identified.
func (c ColumnInference) HasValue() bool { return c.ValueColumn != "" }

// Result carries the output of one analysis routine: a textual summary plus
// optional chart references. Constructed once, consumed by the dispatcher,
// never mutated.
type Result struct {
	Summary        string `json:"summary"`
	PrimaryImage   string `json:"primary_image,omitempty"`
	SecondaryImage string `json:"secondary_image,omitempty"`
}

// Outcome is the tagged return of every statistics routine: either a full
// Result or an explanation of why the routine could not run. "Could not find a
// suitable column" is not an error, it is the Insufficient case.
type Outcome struct {
	ok     bool
	result Result
	reason string
}

// Ok wraps a successful analysis result.
func Ok(r Result) Outcome {
	return Outcome{ok: true, result: r}
}

// Insufficient marks a gracefully degraded outcome with a human-readable reason.
func Insufficient(reason string) Outcome {
	return Outcome{ok: false, reason: reason}
}

// IsOk reports whether the routine produced a full result.
func (o Outcome) IsOk() bool { return o.ok }

// Result returns the analysis result for Ok outcomes.
func (o Outcome) Result() Result { return o.result }

// Reason returns the degradation reason for Insufficient outcomes.
func (o Outcome) Reason() string { return o.reason }

// Text returns user-facing text for either variant.
func (o Outcome) Text() string {
	if o.ok {
		return o.result.Summary
	}
	return o.reason
}

// ResponsePayload is the merged chat response returned by the dispatcher.
type ResponsePayload struct {
	Text           string `json:"response"`
	ImageURL       string `json:"image_url,omitempty"`
	SecondaryImage string `json:"secondary_image_url,omitempty"`
}
