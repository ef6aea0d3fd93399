// Package qa implements the bounded tabular question-answering agent. The
// agent grounds the model in a compact digest of the uploaded dataset and
// retries until the response carries the required answer marker, under both an
// iteration cap and a wall-clock cap.
package qa

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/montanaflynn/stats"

	"vcfo/adapters/ingest"
	"vcfo/domain/table"
	"vcfo/internal"
	"vcfo/ports"
)

// AnswerMarker is the literal marker the agent instruction requires the
// answer to start with.
const AnswerMarker = "Final Answer:"

// digestSampleRows bounds how many raw rows go into the model context.
const digestSampleRows = 12

// Agent answers free-form data questions against one dataset file.
type Agent struct {
	llm           ports.LLMClient
	model         string
	maxTokens     int
	maxIterations int
	maxExecution  time.Duration
	log           *internal.Logger
}

// NewAgent creates a bounded QA agent.
func NewAgent(llm ports.LLMClient, model string, maxTokens, maxIterations int, maxExecution time.Duration) *Agent {
	return &Agent{
		llm:           llm,
		model:         model,
		maxTokens:     maxTokens,
		maxIterations: maxIterations,
		maxExecution:  maxExecution,
		log:           internal.DefaultLogger,
	}
}

// Ask runs the instruction against the dataset. The returned text includes the
// answer marker when the model complied; cap breaches and transport failures
// come back as errors for the caller to convert to placeholder text.
func (a *Agent) Ask(ctx context.Context, instruction string, datasetPath string) (string, error) {
	tbl, err := ingest.NewDataReader(datasetPath).Read()
	if err != nil {
		return "", fmt.Errorf("failed to load dataset for QA: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, a.maxExecution)
	defer cancel()

	prompt := instruction + "\n\nDATASET DIGEST:\n" + BuildDigest(tbl)

	var lastOutput string
	for i := 0; i < a.maxIterations; i++ {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("qa agent execution cap exceeded after %d iterations: %w", i, err)
		}
		output, err := a.llm.ChatCompletion(ctx, a.model, prompt, a.maxTokens)
		if err != nil {
			return "", fmt.Errorf("qa agent call failed: %w", err)
		}
		if strings.Contains(output, AnswerMarker) {
			return output, nil
		}
		lastOutput = output
		a.log.Debug("qa agent iteration %d missing answer marker, retrying", i+1)
		prompt = instruction + "\n\nYour previous response did not start with \"" + AnswerMarker +
			"\". Respond again and begin the answer with that exact marker.\n\nDATASET DIGEST:\n" + BuildDigest(tbl)
	}

	if lastOutput != "" {
		// Out of iterations; surface what we have rather than failing hard.
		return lastOutput, nil
	}
	return "", fmt.Errorf("qa agent produced no output within %d iterations", a.maxIterations)
}

// BuildDigest summarizes a table for model grounding: schema, row count, a
// bounded sample and per-column aggregates.
func BuildDigest(tbl *table.Table) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Rows: %d\nColumns:\n", tbl.NumRows())
	for _, col := range tbl.Columns {
		fmt.Fprintf(&b, "  - %s (%s)", col.Name, col.Kind)
		if col.Kind == table.KindNumeric {
			values := tbl.FloatColumn(col.Name)
			if len(values) > 0 {
				sum, _ := stats.Sum(values)
				mean, _ := stats.Mean(values)
				min, _ := stats.Min(values)
				max, _ := stats.Max(values)
				fmt.Fprintf(&b, " sum=%.2f mean=%.2f min=%.2f max=%.2f", sum, mean, min, max)
			}
		}
		b.WriteString("\n")
	}

	b.WriteString("Sample rows:\n")
	names := tbl.ColumnNames()
	b.WriteString("  " + strings.Join(names, " | ") + "\n")
	for i, row := range tbl.Rows {
		if i >= digestSampleRows {
			break
		}
		cells := make([]string, len(names))
		for j, name := range names {
			cells[j] = row[name].String()
		}
		b.WriteString("  " + strings.Join(cells, " | ") + "\n")
	}
	return b.String()
}
