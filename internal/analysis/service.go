// Package analysis turns an incident into an analysis: a model-written
// assessment plus typed recommended actions derived from runbook
// resolution steps.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/opsdeck/opsdeck/internal/actions"
	"github.com/opsdeck/opsdeck/internal/domain"
	"github.com/opsdeck/opsdeck/internal/kb"
	"github.com/opsdeck/opsdeck/internal/pkg/ctxlog"
)

// ErrAnalysisFailed indicates the knowledge base or model runtime was
// unavailable while analyzing.
var ErrAnalysisFailed = errors.New("incident analysis failed")

const analysisSystemPrompt = `You are a senior platform engineer writing an incident assessment. ` +
	`Using the incident details and runbook context provided, explain the likely ` +
	`root cause and the reasoning behind the recommended resolution steps. Be ` +
	`concrete and concise; do not invent metrics that are not in the context.`

// KnowledgeBase is the retrieval surface the analyzer needs.
type KnowledgeBase interface {
	Search(ctx context.Context, query string, k int) ([]kb.ScoredChunk, error)
	DocumentContent(ctx context.Context, documentID string) (string, error)
}

// Completer generates text from a prompt.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Service analyzes incidents.
type Service struct {
	kb        KnowledgeBase
	completer Completer
	registry  *actions.Registry
	topK      int
}

// NewService creates an analysis service.
func NewService(knowledge KnowledgeBase, completer Completer, registry *actions.Registry, topK int) *Service {
	if topK <= 0 {
		topK = 4
	}
	return &Service{
		kb:        knowledge,
		completer: completer,
		registry:  registry,
		topK:      topK,
	}
}

// Analyze builds the full analysis for an incident: retrieves relevant
// runbooks, derives recommended actions from their resolution steps and
// asks the model for the written assessment. An empty knowledge base
// falls back to the default plan for the component class.
func (s *Service) Analyze(ctx context.Context, inc *domain.Incident) (*domain.Analysis, error) {
	log := ctxlog.FromContext(ctx)

	chunks, err := s.kb.Search(ctx, inc.Title+" "+inc.Component, s.topK)
	if err != nil {
		return nil, fmt.Errorf("%w: search knowledge base: %s", ErrAnalysisFailed, err)
	}

	articles := articleRefs(chunks)
	steps := s.resolutionSteps(ctx, chunks, inc.Component)
	recommended := mapSteps(steps, inc.Component, s.registry)

	text, err := s.completer.Complete(ctx, analysisSystemPrompt, buildAnalysisPrompt(inc, chunks, steps))
	if err != nil {
		return nil, fmt.Errorf("%w: generate assessment: %s", ErrAnalysisFailed, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty assessment from model", ErrAnalysisFailed)
	}

	log.Info("incident analyzed",
		"incident_id", inc.ID,
		"kb_articles", len(articles),
		"recommended_actions", len(recommended),
	)

	return &domain.Analysis{
		Summary:            summarize(inc),
		Text:               text,
		RecommendedActions: recommended,
		KBArticles:         articles,
		AutomationLevel:    automationLevel(recommended),
	}, nil
}

// resolutionSteps extracts steps from the most relevant runbook, falling
// back to the component default plan when retrieval comes up empty or
// the document has no resolution section.
func (s *Service) resolutionSteps(ctx context.Context, chunks []kb.ScoredChunk, component string) []string {
	if len(chunks) == 0 {
		return defaultSteps(component)
	}

	content, err := s.kb.DocumentContent(ctx, chunks[0].DocumentID)
	if err != nil {
		ctxlog.FromContext(ctx).Warn("load runbook content failed",
			"document_id", chunks[0].DocumentID,
			"error", err,
		)
		return defaultSteps(component)
	}

	steps := extractResolutionSteps(content)
	if len(steps) == 0 {
		return defaultSteps(component)
	}
	return steps
}

func summarize(inc *domain.Incident) string {
	return fmt.Sprintf("%s affecting %s - %s severity",
		inc.Title, inc.Component, strings.ToUpper(string(inc.Severity)))
}

func buildAnalysisPrompt(inc *domain.Incident, chunks []kb.ScoredChunk, steps []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Incident: %s\n", inc.Title)
	fmt.Fprintf(&b, "Component: %s\n", inc.Component)
	if inc.AffectedService != "" {
		fmt.Fprintf(&b, "Affected service: %s\n", inc.AffectedService)
	}
	fmt.Fprintf(&b, "Severity: %s\n", inc.Severity)
	fmt.Fprintf(&b, "Description: %s\n\n", inc.Description)

	if len(chunks) > 0 {
		b.WriteString("Runbook context:\n\n")
		for _, c := range chunks {
			fmt.Fprintf(&b, "%s:\n%s\n\n", c.DocTitle, c.Content)
		}
	}

	b.WriteString("Planned resolution steps:\n")
	for _, step := range steps {
		fmt.Fprintf(&b, "- %s\n", step)
	}
	return b.String()
}

// articleRefs deduplicates retrieved chunks into document references,
// preserving retrieval order.
func articleRefs(chunks []kb.ScoredChunk) []domain.KBArticleRef {
	seen := make(map[string]bool, len(chunks))
	refs := make([]domain.KBArticleRef, 0, len(chunks))
	for _, c := range chunks {
		if seen[c.DocumentID] {
			continue
		}
		seen[c.DocumentID] = true
		refs = append(refs, domain.KBArticleRef{ID: c.DocumentID, Title: c.DocTitle})
	}
	return refs
}
