//go:build integration

package integration

import (
	"net/http"
	"testing"

	"github.com/opsdeck/opsdeck/internal/domain"
	"github.com/opsdeck/opsdeck/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type queryEnvelope struct {
	Data domain.QueryResult `json:"data"`
}

type ingestEnvelope struct {
	Data struct {
		ID     string `json:"id"`
		Title  string `json:"title"`
		Chunks int    `json:"chunks"`
	} `json:"data"`
}

const poolRunbook = `# Database Connection Pool Runbook

## Symptoms

Applications report connection timeouts, pool usage stays above 90 percent
and new connections are refused.

## Resolution Steps

### Restart the database service

Restart postgresql to clear stuck connections.

### Review slow queries

Check pg_stat_activity for long running transactions holding connections.
`

func TestAssistantQueryFlow(t *testing.T) {
	client := newTestClient(t)

	resp, err := client.POST("/api/v1/documents", map[string]any{
		"title":     "Database Connection Pool Runbook",
		"source":    "runbooks/database-pool.md",
		"component": "database",
		"content":   poolRunbook,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var ingested ingestEnvelope
	testutil.DecodeJSON(t, resp, &ingested)
	assert.NotEmpty(t, ingested.Data.ID)
	assert.Equal(t, "Database Connection Pool Runbook", ingested.Data.Title)
	assert.GreaterOrEqual(t, ingested.Data.Chunks, 1)

	question := map[string]any{
		"query":         "How do I fix database connection pool timeouts?",
		"force_refresh": true,
	}

	resp, err = client.POST("/api/v1/query", question)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var first queryEnvelope
	testutil.DecodeJSON(t, resp, &first)

	assert.NotEmpty(t, first.Data.Result)
	assert.NotEmpty(t, first.Data.HTML)
	assert.False(t, first.Data.Cached)

	require.NotEmpty(t, first.Data.Sources, "query sharing runbook vocabulary must retrieve it")
	found := false
	for _, src := range first.Data.Sources {
		if src.Title == "Database Connection Pool Runbook" {
			found = true
			assert.Greater(t, src.Score, 0.0)
		}
	}
	assert.True(t, found)

	// The canned answer carries a restart command, which must resolve to
	// the allow-listed restart action.
	require.NotEmpty(t, first.Data.CommandBlocks)
	block := first.Data.CommandBlocks[0]
	assert.Equal(t, "sudo systemctl restart postgresql", block.Command)
	assert.Equal(t, "bash", block.Language)
	assert.True(t, block.Executable)
	assert.Equal(t, "restart-service", block.ActionID)
}

func TestAssistantAnswerCache(t *testing.T) {
	client := newTestClient(t)

	resp0, err := client.POST("/api/v1/documents", map[string]any{
		"title":   "Queue Depth Runbook",
		"content": "## Symptoms\n\nQueue depth keeps growing while consumers lag.\n\n## Resolution Steps\n\n### Check consumer lag\n\nList queues and inspect consumer counts.",
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp0.StatusCode)
	_ = resp0.Body.Close()

	question := map[string]any{
		"query": "What should I check when queue depth keeps growing?",
	}

	resp, err := client.POST("/api/v1/query", question)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var first queryEnvelope
	testutil.DecodeJSON(t, resp, &first)
	assert.False(t, first.Data.Cached)

	callsAfterFirst := llmServer.ChatCalls()

	resp, err = client.POST("/api/v1/query", question)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var second queryEnvelope
	testutil.DecodeJSON(t, resp, &second)
	assert.True(t, second.Data.Cached)
	assert.Equal(t, first.Data.Result, second.Data.Result)
	assert.Equal(t, callsAfterFirst, llmServer.ChatCalls(), "cached answer must not call the model")

	// force_refresh bypasses the cache.
	question["force_refresh"] = true
	resp, err = client.POST("/api/v1/query", question)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var third queryEnvelope
	testutil.DecodeJSON(t, resp, &third)
	assert.False(t, third.Data.Cached)
	assert.Greater(t, llmServer.ChatCalls(), callsAfterFirst)
}

func TestIngestDocumentValidation(t *testing.T) {
	client := newTestClientWithoutValidation()
	client.SetT(t)

	resp, err := client.POST("/api/v1/documents", map[string]any{
		"title": "No content",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()

	resp, err = client.POST("/api/v1/query", map[string]any{
		"query": "",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()
}
