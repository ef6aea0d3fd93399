package qa

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vcfo/adapters/llm"
	"vcfo/internal/testkit"
)

func fixtureDataset(t *testing.T) string {
	t.Helper()
	gen := testkit.NewSalesDataGenerator(testkit.DefaultSalesConfig())
	path, err := gen.WriteCSV(t.TempDir(), "sales.csv")
	require.NoError(t, err)
	return path
}

func TestAgent_ReturnsMarkedAnswer(t *testing.T) {
	mock := &llm.MockClient{Response: "Final Answer: total sales were 640000."}
	agent := NewAgent(mock, "test-model", 512, 5, time.Minute)

	out, err := agent.Ask(context.Background(), "what were total sales?", fixtureDataset(t))
	require.NoError(t, err)
	assert.Contains(t, out, AnswerMarker)

	// One compliant response means exactly one model call.
	assert.Len(t, mock.Prompts, 1)
}

func TestAgent_GroundsPromptInDigest(t *testing.T) {
	mock := &llm.MockClient{Response: "Final Answer: ok"}
	agent := NewAgent(mock, "test-model", 512, 5, time.Minute)

	_, err := agent.Ask(context.Background(), "instruction text", fixtureDataset(t))
	require.NoError(t, err)

	prompt := mock.Prompts[0]
	assert.Contains(t, prompt, "instruction text")
	assert.Contains(t, prompt, "DATASET DIGEST:")
	assert.Contains(t, prompt, "total_amount")
	assert.Contains(t, prompt, "Rows: 120")
}

func TestAgent_IterationCapReturnsLastOutput(t *testing.T) {
	mock := &llm.MockClient{Response: "no marker here"}
	agent := NewAgent(mock, "test-model", 512, 3, time.Minute)

	out, err := agent.Ask(context.Background(), "question", fixtureDataset(t))
	require.NoError(t, err)
	assert.Equal(t, "no marker here", out)
	assert.Len(t, mock.Prompts, 3, "agent must stop at the iteration cap")
}

func TestAgent_ModelFailureSurfacesAsError(t *testing.T) {
	mock := &llm.MockClient{Error: context.DeadlineExceeded}
	agent := NewAgent(mock, "test-model", 512, 3, time.Minute)

	_, err := agent.Ask(context.Background(), "question", fixtureDataset(t))
	assert.Error(t, err)
}

func TestAgent_MissingDatasetFails(t *testing.T) {
	agent := NewAgent(&llm.MockClient{}, "test-model", 512, 3, time.Minute)
	_, err := agent.Ask(context.Background(), "question", "/does/not/exist.csv")
	assert.Error(t, err)
}

func TestBuildDigest_SummarizesColumns(t *testing.T) {
	tbl := testkit.NewSalesDataGenerator(testkit.DefaultSalesConfig()).Table()
	digest := BuildDigest(tbl)

	assert.Contains(t, digest, "Rows: 120")
	assert.Contains(t, digest, "transaction_date (datetime)")
	assert.Contains(t, digest, "total_amount (numeric)")
	assert.Contains(t, digest, "sum=")
	assert.Contains(t, digest, "mean=")

	// The raw sample is bounded, not the whole table.
	sampleLines := strings.Count(digest[strings.Index(digest, "Sample rows:"):], "\n")
	assert.Less(t, sampleLines, 20)
}
