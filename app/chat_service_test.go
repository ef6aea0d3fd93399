package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vcfo/domain/analysis"
	"vcfo/domain/chart"
	"vcfo/domain/core"
	"vcfo/domain/table"
	"vcfo/internal/analytics"
	"vcfo/internal/intent"
	"vcfo/internal/session"
	"vcfo/internal/testkit"
	"vcfo/ports"
)

// nopPlotter satisfies the engine without touching the filesystem.
type nopPlotter struct{}

func (nopPlotter) TimeSeriesWithOutliers(_, _ chart.Series, _, _, _ string) (string, error) {
	return "/static/anomalies.png", nil
}
func (nopPlotter) HistoryWithForecast(_, _ chart.Series, _, _, _ string) (string, error) {
	return "/static/forecast.png", nil
}
func (nopPlotter) RateOfChange(_ chart.Series, _ *chart.Series, _ string) (string, string, error) {
	return "", "/static/roc.png", nil
}
func (nopPlotter) SmallMultiples(_ []chart.PairOverlay) (string, error) {
	return "/static/relations.png", nil
}
func (nopPlotter) HorizontalBars(_ chart.Ranking) (string, error) {
	return "/static/channels.png", nil
}

type stubRenderer struct {
	kind intent.ChartKind
	err  error
}

func (s *stubRenderer) Render(_ context.Context, kind intent.ChartKind, _ *table.Table, _ analysis.ColumnInference) (string, string, error) {
	s.kind = kind
	if s.err != nil {
		return "", "", s.err
	}
	return "Generated " + string(kind) + " chart.", "/static/" + string(kind) + ".png", nil
}

type stubAdvisor struct {
	state   ports.AdvisorState
	answer  string
	err     error
	queries []string
}

func (s *stubAdvisor) State() ports.AdvisorState { return s.state }
func (s *stubAdvisor) Query(_ context.Context, text string) (string, error) {
	s.queries = append(s.queries, text)
	return s.answer, s.err
}

type stubQA struct {
	answer string
	err    error
	asked  []string
}

func (s *stubQA) Ask(_ context.Context, instruction, _ string) (string, error) {
	s.asked = append(s.asked, instruction)
	return s.answer, s.err
}

type fixture struct {
	svc      *ChatService
	session  core.SessionID
	advisor  *stubAdvisor
	qa       *stubQA
	renderer *stubRenderer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	gen := testkit.NewSalesDataGenerator(testkit.DefaultSalesConfig())
	path, err := gen.WriteCSV(t.TempDir(), "sales.csv")
	require.NoError(t, err)

	sessions := session.NewMemoryStore()
	sessionID := core.SessionID(core.NewID())
	require.NoError(t, sessions.SetDatasetPath(context.Background(), sessionID, path))

	advisor := &stubAdvisor{state: ports.AdvisorReady, answer: "Tighten discount policy."}
	dataQA := &stubQA{answer: "Final Answer: Revenue grew 12% month over month."}
	renderer := &stubRenderer{}
	engine := analytics.NewEngine(nopPlotter{}, t.TempDir())

	return &fixture{
		svc:      NewChatService(sessions, engine, renderer, advisor, dataQA, nil),
		session:  sessionID,
		advisor:  advisor,
		qa:       dataQA,
		renderer: renderer,
	}
}

func TestChat_EmptyPromptRejected(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Chat(context.Background(), f.session, "   ")
	assert.Error(t, err)
}

func TestChat_UnknownSessionRejected(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Chat(context.Background(), core.SessionID(core.NewID()), "forecast sales")
	assert.ErrorContains(t, err, "upload a file first")
}

func TestChat_RateOfChangeIntent(t *testing.T) {
	f := newFixture(t)

	payload, err := f.svc.Chat(context.Background(), f.session, "show me the rate of change")
	require.NoError(t, err)

	assert.Equal(t, "/static/roc.png", payload.ImageURL)
	assert.Contains(t, payload.Text, "rate of change")
	// Structured intents bypass both collaborators.
	assert.Empty(t, f.qa.asked)
	assert.Empty(t, f.advisor.queries)
}

func TestChat_ForecastIntent(t *testing.T) {
	f := newFixture(t)

	payload, err := f.svc.Chat(context.Background(), f.session, "predict my revenue")
	require.NoError(t, err)
	assert.Equal(t, "/static/forecast.png", payload.ImageURL)
	assert.Contains(t, payload.Text, "Forecast generated")
}

func TestChat_GenericChartWithExplanation(t *testing.T) {
	f := newFixture(t)

	payload, err := f.svc.Chat(context.Background(), f.session, "draw a pie chart")
	require.NoError(t, err)

	assert.Equal(t, intent.ChartPie, f.renderer.kind)
	assert.Equal(t, "/static/pie.png", payload.ImageURL)
	assert.Contains(t, payload.Text, "Generated pie chart.")
	assert.Contains(t, payload.Text, "Tighten discount policy.")

	require.Len(t, f.advisor.queries, 1)
	assert.Contains(t, f.advisor.queries[0], "pie")
	assert.Contains(t, f.advisor.queries[0], "total_amount")
}

func TestChat_GenericChartAdvisorFailureSwallowed(t *testing.T) {
	f := newFixture(t)
	f.advisor.err = errors.New("advisor broke")

	payload, err := f.svc.Chat(context.Background(), f.session, "draw a line chart")
	require.NoError(t, err)
	assert.Contains(t, payload.Text, "Generated line chart.")
	assert.NotContains(t, payload.Text, "advisor broke")
}

func TestChat_GenericChartRenderFailure(t *testing.T) {
	f := newFixture(t)
	f.renderer.err = errors.New("no gd")

	payload, err := f.svc.Chat(context.Background(), f.session, "draw a bar chart")
	require.NoError(t, err)
	assert.Contains(t, payload.Text, "Chart generator unavailable.")
	assert.Empty(t, payload.ImageURL)
}

func TestChat_FallbackMergesCollaborators(t *testing.T) {
	f := newFixture(t)

	payload, err := f.svc.Chat(context.Background(), f.session, "how can I improve my margins")
	require.NoError(t, err)

	// Three labeled sections in fixed order.
	analysisIdx := strings.Index(payload.Text, "Data Analysis:")
	adviceIdx := strings.Index(payload.Text, "Strategic Recommendations:")
	planIdx := strings.Index(payload.Text, "Action Plan:")
	require.True(t, analysisIdx >= 0 && adviceIdx >= 0 && planIdx >= 0, "missing section in %q", payload.Text)
	assert.True(t, analysisIdx < adviceIdx && adviceIdx < planIdx, "sections out of order")

	// The agent preamble marker is trimmed from the merged text.
	assert.NotContains(t, payload.Text, "Final Answer:")
	assert.Contains(t, payload.Text, "Revenue grew")
	assert.Contains(t, payload.Text, "Tighten discount policy.")
	assert.Empty(t, payload.ImageURL)

	// The advisor query carries the data context excerpt.
	require.Len(t, f.advisor.queries, 1)
	assert.Contains(t, f.advisor.queries[0], "Based on this data context:")
}

func TestChat_FallbackQAFailureDegrades(t *testing.T) {
	f := newFixture(t)
	f.qa.err = errors.New("model overloaded")

	payload, err := f.svc.Chat(context.Background(), f.session, "how are sales")
	require.NoError(t, err)
	assert.Contains(t, payload.Text, "Unable to analyze dataset")
	assert.Contains(t, payload.Text, "Tighten discount policy.")
}

func TestChat_FallbackAdvisorUnavailable(t *testing.T) {
	f := newFixture(t)
	f.advisor.state = ports.AdvisorUnavailable

	payload, err := f.svc.Chat(context.Background(), f.session, "how are sales")
	require.NoError(t, err)
	assert.Contains(t, payload.Text, "Revenue grew")
	assert.Contains(t, payload.Text, "Knowledge base unavailable")
}

func TestChat_FallbackWithoutCollaborators(t *testing.T) {
	f := newFixture(t)
	svc := NewChatService(f.svc.sessions, f.svc.engine, f.renderer, nil, nil, nil)

	payload, err := svc.Chat(context.Background(), f.session, "tell me something")
	require.NoError(t, err)
	assert.Contains(t, payload.Text, "Knowledge base unavailable")
}
