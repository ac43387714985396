package analysis

import (
	"testing"

	"github.com/opsdeck/opsdeck/internal/actions"
	"github.com/opsdeck/opsdeck/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyStep(t *testing.T) {
	tests := []struct {
		step string
		want domain.ActionType
	}{
		{"Restart the API Gateway service", domain.ActionTypeRestart},
		{"Reboot the primary node", domain.ActionTypeRestart},
		{"Scale up consumers", domain.ActionTypeScale},
		{"Add instances to the pool", domain.ActionTypeScale},
		{"Increase capacity of the worker fleet", domain.ActionTypeScale},
		{"Adjust connection pool size", domain.ActionTypeUpdateConfig},
		{"Configure rate limiting", domain.ActionTypeUpdateConfig},
		{"Set connection timeouts", domain.ActionTypeUpdateConfig},
		{"Check database connection pool", domain.ActionTypeDiagnostic},
		{"Review recent configuration changes", domain.ActionTypeDiagnostic},
		{"Monitor for improvement", domain.ActionTypeDiagnostic},
		{"Identify long-running queries", domain.ActionTypeDiagnostic},
		{"Escalate to the on-call DBA", domain.ActionTypeOther},
	}

	for _, tt := range tests {
		t.Run(tt.step, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyStep(tt.step))
		})
	}
}

func TestStepParams(t *testing.T) {
	t.Run("scale amount from step text", func(t *testing.T) {
		params := stepParams("scale consumers 4 instances", domain.ActionTypeScale, "message-queue")
		assert.Equal(t, map[string]any{"amount": 4}, params)
	})

	t.Run("scale default amount", func(t *testing.T) {
		params := stepParams("scale up the service", domain.ActionTypeScale, "api-gateway")
		assert.Equal(t, map[string]any{"amount": 2}, params)
	})

	t.Run("database pool size", func(t *testing.T) {
		params := stepParams("Adjust connection pool to 350", domain.ActionTypeUpdateConfig, "database")
		require.NotNil(t, params)
		assert.Equal(t, map[string]any{"max_connections": 350}, params["config"])
	})

	t.Run("database pool default", func(t *testing.T) {
		params := stepParams("Adjust the connection pool", domain.ActionTypeUpdateConfig, "database")
		require.NotNil(t, params)
		assert.Equal(t, map[string]any{"max_connections": 300}, params["config"])
	})

	t.Run("gateway rate limit", func(t *testing.T) {
		params := stepParams("Set rate limit to 1500 req/s", domain.ActionTypeUpdateConfig, "api-gateway")
		require.NotNil(t, params)
		assert.Equal(t, map[string]any{"rate_limit": 1500}, params["config"])
	})

	t.Run("no params for diagnostics", func(t *testing.T) {
		assert.Nil(t, stepParams("Check queue depth", domain.ActionTypeDiagnostic, "message-queue"))
	})
}

func TestMapSteps_AssignsRegistryIDs(t *testing.T) {
	registry := actions.NewRegistry()

	result := mapSteps([]string{
		"Restart the database service",
		"Escalate to the vendor",
	}, "database", registry)

	require.Len(t, result, 2)

	assert.Equal(t, "restart-service", result[0].ID)
	assert.Equal(t, domain.ActionTypeRestart, result[0].Type)
	assert.True(t, result[0].RequiresApproval)

	// Steps without an allow-listed type keep a synthetic ID and are
	// advisory only.
	assert.Equal(t, "step-2", result[1].ID)
	assert.Equal(t, domain.ActionTypeOther, result[1].Type)
	assert.False(t, result[1].RequiresApproval)
}

func TestAutomationLevel(t *testing.T) {
	approval := domain.IncidentAction{RequiresApproval: true}
	auto := domain.IncidentAction{RequiresApproval: false}

	assert.Equal(t, domain.AutomationManual, automationLevel(nil))
	assert.Equal(t, domain.AutomationFull, automationLevel([]domain.IncidentAction{auto, auto}))
	assert.Equal(t, domain.AutomationManual, automationLevel([]domain.IncidentAction{approval, approval}))
	assert.Equal(t, domain.AutomationSemi, automationLevel([]domain.IncidentAction{approval, auto}))
}

func TestExtractResolutionSteps(t *testing.T) {
	content := `# Database Runbook

## Symptoms

Pool exhaustion.

## Resolution Steps

### Check database connection pool

Look at pg_stat_activity.

### Restart the database service

Clears stuck connections.

## Escalation

Call the DBA.

### Not a step
`

	steps := extractResolutionSteps(content)
	assert.Equal(t, []string{
		"Check database connection pool",
		"Restart the database service",
	}, steps)
}

func TestExtractResolutionSteps_NoSection(t *testing.T) {
	assert.Empty(t, extractResolutionSteps("# Runbook\n\nJust prose, no steps."))
}

func TestDefaultSteps_KnownComponents(t *testing.T) {
	assert.Len(t, defaultSteps("api-gateway"), 5)
	assert.Contains(t, defaultSteps("database")[2], "connection pool")
	assert.Contains(t, defaultSteps("message-queue")[2], "consumers")
	assert.Contains(t, defaultSteps("something-else")[0], "component health")
}
