package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/opsdeck/opsdeck/internal/actions"
	"github.com/opsdeck/opsdeck/internal/domain"
	"github.com/opsdeck/opsdeck/internal/kb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockKnowledgeBase implements KnowledgeBase for testing.
type mockKnowledgeBase struct {
	chunks     []kb.ScoredChunk
	searchErr  error
	content    string
	contentErr error
}

func (m *mockKnowledgeBase) Search(_ context.Context, _ string, _ int) ([]kb.ScoredChunk, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.chunks, nil
}

func (m *mockKnowledgeBase) DocumentContent(_ context.Context, _ string) (string, error) {
	if m.contentErr != nil {
		return "", m.contentErr
	}
	return m.content, nil
}

// mockCompleter implements Completer for testing.
type mockCompleter struct {
	response   string
	err        error
	lastUser   string
	lastSystem string
}

func (m *mockCompleter) Complete(_ context.Context, systemPrompt, userPrompt string) (string, error) {
	m.lastSystem = systemPrompt
	m.lastUser = userPrompt
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func testIncident() *domain.Incident {
	return &domain.Incident{
		ID:          "inc-1",
		Title:       "Connection pool exhausted",
		Description: "Timeouts on every request.",
		Component:   "database",
		Severity:    domain.IncidentSeverityHigh,
		Status:      domain.IncidentStatusAnalyzing,
	}
}

const runbookContent = `# Pool Runbook

## Resolution Steps

### Restart the database service

### Check long-running queries
`

func TestAnalyze_WithRunbook(t *testing.T) {
	knowledge := &mockKnowledgeBase{
		chunks: []kb.ScoredChunk{
			{Chunk: kb.Chunk{DocumentID: "doc-1", DocTitle: "Pool Runbook", Content: "pool text"}, Score: 0.9},
			{Chunk: kb.Chunk{DocumentID: "doc-1", DocTitle: "Pool Runbook", Content: "more pool text"}, Score: 0.7},
		},
		content: runbookContent,
	}
	completer := &mockCompleter{response: "The pool is exhausted because of leaked connections."}

	service := NewService(knowledge, completer, actions.NewRegistry(), 4)
	analysis, err := service.Analyze(context.Background(), testIncident())
	require.NoError(t, err)

	assert.Equal(t, "Connection pool exhausted affecting database - HIGH severity", analysis.Summary)
	assert.Equal(t, "The pool is exhausted because of leaked connections.", analysis.Text)

	// Two chunks from the same document collapse into one reference.
	require.Len(t, analysis.KBArticles, 1)
	assert.Equal(t, "doc-1", analysis.KBArticles[0].ID)

	require.Len(t, analysis.RecommendedActions, 2)
	assert.Equal(t, "restart-service", analysis.RecommendedActions[0].ID)
	assert.Equal(t, "run-diagnostics", analysis.RecommendedActions[1].ID)
	assert.Equal(t, domain.AutomationSemi, analysis.AutomationLevel)

	// The runbook context must reach the model.
	assert.Contains(t, completer.lastUser, "pool text")
	assert.Contains(t, completer.lastUser, "Restart the database service")
}

func TestAnalyze_EmptyKnowledgeBaseFallsBackToDefaults(t *testing.T) {
	knowledge := &mockKnowledgeBase{}
	completer := &mockCompleter{response: "Assessment without runbooks."}

	service := NewService(knowledge, completer, actions.NewRegistry(), 4)
	analysis, err := service.Analyze(context.Background(), testIncident())
	require.NoError(t, err)

	assert.Empty(t, analysis.KBArticles)
	assert.Len(t, analysis.RecommendedActions, len(defaultSteps("database")))
}

func TestAnalyze_RunbookWithoutStepsFallsBackToDefaults(t *testing.T) {
	knowledge := &mockKnowledgeBase{
		chunks:  []kb.ScoredChunk{{Chunk: kb.Chunk{DocumentID: "doc-1", DocTitle: "Notes"}, Score: 0.5}},
		content: "# Notes\n\nNo structured steps here.",
	}
	completer := &mockCompleter{response: "Assessment."}

	service := NewService(knowledge, completer, actions.NewRegistry(), 4)
	analysis, err := service.Analyze(context.Background(), testIncident())
	require.NoError(t, err)

	assert.Len(t, analysis.RecommendedActions, len(defaultSteps("database")))
}

func TestAnalyze_SearchFailure(t *testing.T) {
	knowledge := &mockKnowledgeBase{searchErr: errors.New("runtime unreachable")}
	service := NewService(knowledge, &mockCompleter{}, actions.NewRegistry(), 4)

	_, err := service.Analyze(context.Background(), testIncident())
	assert.ErrorIs(t, err, ErrAnalysisFailed)
}

func TestAnalyze_CompletionFailure(t *testing.T) {
	knowledge := &mockKnowledgeBase{}
	completer := &mockCompleter{err: errors.New("model timeout")}
	service := NewService(knowledge, completer, actions.NewRegistry(), 4)

	_, err := service.Analyze(context.Background(), testIncident())
	assert.ErrorIs(t, err, ErrAnalysisFailed)
}

func TestAnalyze_EmptyCompletionFails(t *testing.T) {
	knowledge := &mockKnowledgeBase{}
	completer := &mockCompleter{response: "   \n"}
	service := NewService(knowledge, completer, actions.NewRegistry(), 4)

	_, err := service.Analyze(context.Background(), testIncident())
	assert.ErrorIs(t, err, ErrAnalysisFailed)
}
