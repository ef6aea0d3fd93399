package app

import (
	"context"
	"fmt"
	"os"
	"strings"

	"vcfo/adapters/ingest"
	"vcfo/adapters/qa"
	"vcfo/domain/analysis"
	"vcfo/domain/core"
	"vcfo/domain/table"
	"vcfo/internal"
	"vcfo/internal/analytics"
	apperrors "vcfo/internal/errors"
	"vcfo/internal/format"
	"vcfo/internal/inference"
	"vcfo/internal/intent"
	"vcfo/ports"
)

// contextExcerptLen bounds how much QA output is fed back into the advisor
// query as grounding context.
const contextExcerptLen = 500

// actionPlanExcerptLen bounds the data excerpt quoted inside the action plan.
const actionPlanExcerptLen = 200

// dataInstructionTemplate shapes the QA agent request. The marker requirement
// lets the dispatcher strip agent preamble deterministically.
const dataInstructionTemplate = `Analyze the financial dataset to answer: '%s'

INSTRUCTIONS:
1. Extract relevant data points related to the user's question
2. Calculate key metrics (totals, averages, trends, etc.)
3. Provide specific numbers and insights from the dataset
4. For sales questions, include exact values and comparisons
5. For improvement questions, identify current performance metrics
6. Your response MUST start with "Final Answer:"
7. Be specific with numbers, dates, and amounts
8. Always base your answer on the actual data in the CSV file

User's question: %s`

// ChatService routes one chat request through column inference, intent
// classification and the matching analysis routine, then merges collaborator
// output into a single response. Collaborator failures degrade to placeholder
// text; only missing input or unreadable datasets surface as errors.
type ChatService struct {
	sessions ports.SessionStore
	engine   *analytics.Engine
	renderer ports.ChartRenderer
	advisor  ports.DocumentAdvisor
	dataQA   ports.TabularQA
	log      *internal.Logger
}

// NewChatService wires the dispatcher.
func NewChatService(
	sessions ports.SessionStore,
	engine *analytics.Engine,
	renderer ports.ChartRenderer,
	advisor ports.DocumentAdvisor,
	dataQA ports.TabularQA,
	log *internal.Logger,
) *ChatService {
	if log == nil {
		log = internal.DefaultLogger
	}
	return &ChatService{
		sessions: sessions,
		engine:   engine,
		renderer: renderer,
		advisor:  advisor,
		dataQA:   dataQA,
		log:      log,
	}
}

// Chat handles one prompt for one session and returns the formatted response.
func (s *ChatService) Chat(ctx context.Context, session core.SessionID, prompt string) (analysis.ResponsePayload, error) {
	var payload analysis.ResponsePayload

	if strings.TrimSpace(prompt) == "" {
		return payload, apperrors.InvalidInput("No prompt provided.")
	}

	datasetPath, err := s.sessions.DatasetPath(ctx, session)
	if err != nil {
		return payload, apperrors.InvalidInput("Dataset not found. Please upload a file first.")
	}
	if _, err := os.Stat(datasetPath); err != nil {
		return payload, apperrors.InvalidInput("Dataset not found. Please upload a file first.")
	}

	tbl, err := ingest.NewDataReader(datasetPath).Read()
	if err != nil {
		return payload, apperrors.DatasetError("could not read uploaded dataset", err)
	}

	cols := inference.Infer(tbl)
	requestIntent := intent.Classify(prompt)
	s.log.Info("chat request intent=%s date_col=%q value_col=%q", requestIntent, cols.DateColumn, cols.ValueColumn)

	switch requestIntent {
	case intent.RateOfChange:
		outcome, err := s.engine.RateOfChange(tbl, cols.DateColumn, cols.ValueColumn, true)
		if err != nil {
			return payload, err
		}
		payload = outcomePayload(outcome)

	case intent.LinearRelationships:
		outcome, err := s.engine.LinearRelationships(tbl)
		if err != nil {
			return payload, err
		}
		payload = outcomePayload(outcome)

	case intent.TopCategories:
		outcome, err := s.engine.TopSalesChannels(tbl, cols.ValueColumn)
		if err != nil {
			return payload, err
		}
		payload = outcomePayload(outcome)

	case intent.GenericChart:
		payload = s.genericChart(ctx, prompt, tbl, cols)

	case intent.Forecast:
		outcome, err := s.engine.PredictTimeseries(tbl, cols.DateColumn, cols.ValueColumn, analytics.DefaultForecastHorizon)
		if err != nil {
			return payload, err
		}
		payload = outcomePayload(outcome)

	case intent.Anomaly:
		outcome, err := s.engine.DetectAnomalies(tbl, cols.DateColumn, cols.ValueColumn)
		if err != nil {
			return payload, err
		}
		payload = outcomePayload(outcome)

	default:
		payload.Text = s.answerWithCollaborators(ctx, prompt, datasetPath)
	}

	payload.Text = format.Response(payload.Text)
	return payload, nil
}

// genericChart renders the requested chart kind and, when the advisor is
// ready, appends a strategy explanation. Advisor failures are swallowed; the
// chart result stands on its own.
func (s *ChatService) genericChart(ctx context.Context, prompt string, tbl *table.Table, cols analysis.ColumnInference) analysis.ResponsePayload {
	kind := intent.ResolveChartKind(prompt)

	msg, imageURL, err := s.renderer.Render(ctx, kind, tbl, cols)
	if err != nil {
		s.log.Warn("chart render failed for kind=%s: %v", kind, err)
		return analysis.ResponsePayload{Text: "Chart generator unavailable."}
	}

	text := msg
	if s.advisor != nil && s.advisor.State() == ports.AdvisorReady {
		focus := cols.ValueColumn
		if focus == "" {
			focus = "key metrics"
		}
		query := fmt.Sprintf("Explain the insights from a %s derived from the uploaded dataset focusing on %s. Provide CFO-level guidance.", kind, focus)
		if explanation, err := s.advisor.Query(ctx, query); err == nil && explanation != "" {
			text = strings.TrimSpace(msg + "\n\n" + explanation)
		} else if err != nil {
			s.log.Warn("advisor explanation failed: %v", err)
		}
	}

	return analysis.ResponsePayload{Text: text, ImageURL: imageURL}
}

// answerWithCollaborators runs the fallback path: data insights from the QA
// agent first, strategy from the advisor second, then a merged response.
// Either collaborator failing yields placeholder text instead of an error.
func (s *ChatService) answerWithCollaborators(ctx context.Context, prompt, datasetPath string) string {
	dataInsights := s.dataInsights(ctx, prompt, datasetPath)
	strategicAdvice := s.strategicAdvice(ctx, prompt, dataInsights)

	switch {
	case dataInsights != "" && strategicAdvice != "":
		excerpt := truncate(dataInsights, actionPlanExcerptLen)
		return fmt.Sprintf(`<b>📊 Data Analysis:</b>
%s

<b>💡 Strategic Recommendations:</b>
%s

<b>🎯 Action Plan:</b>
Based on your data showing %s..., I recommend focusing on the strategic insights above to drive improvement.`, dataInsights, strategicAdvice, excerpt)

	case dataInsights != "":
		return fmt.Sprintf("<b>📊 Analysis Results:</b>\n%s", dataInsights)

	case strategicAdvice != "":
		return fmt.Sprintf("<b>💡 Strategic Advice:</b>\n%s", strategicAdvice)

	default:
		return "I need more context to provide a helpful analysis. Could you please be more specific about what you'd like to know?"
	}
}

// dataInsights asks the QA agent and trims everything before the answer
// marker. A failed agent run becomes explanatory text, not an error.
func (s *ChatService) dataInsights(ctx context.Context, prompt, datasetPath string) string {
	if s.dataQA == nil {
		return ""
	}
	instruction := fmt.Sprintf(dataInstructionTemplate, prompt, prompt)
	output, err := s.dataQA.Ask(ctx, instruction, datasetPath)
	if err != nil {
		s.log.Warn("data analysis failed: %v", err)
		return fmt.Sprintf("Unable to analyze dataset: %v", err)
	}
	if idx := strings.LastIndex(output, qa.AnswerMarker); idx >= 0 {
		output = output[idx+len(qa.AnswerMarker):]
	}
	return strings.TrimSpace(output)
}

// strategicAdvice queries the advisor with the prompt plus a bounded excerpt
// of the data insights as grounding context.
func (s *ChatService) strategicAdvice(ctx context.Context, prompt, dataInsights string) string {
	if s.advisor == nil || s.advisor.State() != ports.AdvisorReady {
		return "Knowledge base unavailable - strategic advice not available."
	}

	query := prompt
	if dataInsights != "" {
		query += fmt.Sprintf("\n\nBased on this data context: %s...", truncate(dataInsights, contextExcerptLen))
	}

	advice, err := s.advisor.Query(ctx, query)
	if err != nil {
		s.log.Warn("knowledge base query failed: %v", err)
		return "Unable to retrieve strategic advice from knowledge base."
	}
	return strings.TrimSpace(advice)
}

// truncate shortens text to at most n runes.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// outcomePayload converts a routine outcome to the wire payload. Insufficient
// outcomes carry only their reason text.
func outcomePayload(o analysis.Outcome) analysis.ResponsePayload {
	if !o.IsOk() {
		return analysis.ResponsePayload{Text: o.Reason()}
	}
	r := o.Result()
	return analysis.ResponsePayload{
		Text:           r.Summary,
		ImageURL:       r.PrimaryImage,
		SecondaryImage: r.SecondaryImage,
	}
}
