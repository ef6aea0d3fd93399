package advisor

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"vcfo/internal"
	"vcfo/ports"
)

const retrieveTopK = 4

// Service is the process-lifetime document advisor. It is built once at
// startup and shared across requests; all state transitions happen under the
// mutex and Query never panics.
type Service struct {
	mu      sync.RWMutex
	state   ports.AdvisorState
	reason  string
	index   *Index
	llm     ports.LLMClient
	model   string
	maxTok  int
	idxPath string
	corpus  string
	log     *internal.Logger
}

// NewService returns an uninitialized advisor. Call Initialize before the
// first Query; a failed Initialize leaves the service unavailable rather
// than erroring the caller.
func NewService(llm ports.LLMClient, model string, maxTokens int, corpusDir, indexPath string, log *internal.Logger) *Service {
	if log == nil {
		log = internal.DefaultLogger
	}
	return &Service{
		state:   ports.AdvisorUninitialized,
		llm:     llm,
		model:   model,
		maxTok:  maxTokens,
		idxPath: indexPath,
		corpus:  corpusDir,
		log:     log,
	}
}

// Initialize loads the persisted index or builds it from the corpus
// directory. rebuild forces a fresh build even when a saved index exists.
func (s *Service) Initialize(rebuild bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !rebuild {
		if idx, err := LoadIndex(s.idxPath); err == nil {
			s.index = idx
			s.state = ports.AdvisorReady
			s.log.Info("advisor index loaded from %s (%d chunks)", s.idxPath, len(idx.Records))
			return nil
		}
	}

	if _, err := os.Stat(s.corpus); err != nil {
		s.state = ports.AdvisorUnavailable
		s.reason = fmt.Sprintf("knowledge base directory %s not accessible", s.corpus)
		s.log.Warn("advisor unavailable: %s", s.reason)
		return nil
	}

	idx, err := BuildIndex(s.corpus)
	if err != nil {
		s.state = ports.AdvisorUnavailable
		s.reason = fmt.Sprintf("index build failed: %v", err)
		s.log.Warn("advisor unavailable: %s", s.reason)
		return nil
	}
	if err := idx.Save(s.idxPath); err != nil {
		s.log.Warn("could not persist advisor index: %v", err)
	}
	s.index = idx
	s.state = ports.AdvisorReady
	s.log.Info("advisor index built from %s (%d chunks)", s.corpus, len(idx.Records))
	return nil
}

// State reports the advisor lifecycle.
func (s *Service) State() ports.AdvisorState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Query retrieves the most similar corpus chunks and asks the model for an
// answer grounded on them.
func (s *Service) Query(ctx context.Context, text string) (string, error) {
	s.mu.RLock()
	state, reason, idx := s.state, s.reason, s.index
	s.mu.RUnlock()

	switch state {
	case ports.AdvisorReady:
	case ports.AdvisorUninitialized:
		return "", fmt.Errorf("advisor not initialized")
	default:
		return "", fmt.Errorf("advisor unavailable: %s", reason)
	}

	records := idx.Search(text, retrieveTopK)
	if len(records) == 0 {
		return "I could not find relevant material in the knowledge base for that question.", nil
	}

	var sb strings.Builder
	sb.WriteString("You are a strategic financial advisor. Answer the question using only the reference material below. Be concise and actionable.\n\n")
	for i, rec := range records {
		fmt.Fprintf(&sb, "Reference %d (%s):\n%s\n\n", i+1, rec.DocName, rec.Text)
	}
	sb.WriteString("Question: ")
	sb.WriteString(text)

	answer, err := s.llm.ChatCompletion(ctx, s.model, sb.String(), s.maxTok)
	if err != nil {
		return "", fmt.Errorf("advisor completion: %w", err)
	}
	return strings.TrimSpace(answer), nil
}
