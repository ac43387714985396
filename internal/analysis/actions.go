package analysis

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/opsdeck/opsdeck/internal/actions"
	"github.com/opsdeck/opsdeck/internal/domain"
)

var (
	scaleAmountRe = regexp.MustCompile(`scale\s+\w+\s+(\d+)`)
	numberRe      = regexp.MustCompile(`(\d+)`)
	rateLimitRe   = regexp.MustCompile(`(\d+)\s*r(eq)?`)
)

// classifyStep maps a textual resolution step to an action type by
// keyword. Restart wins over scale wins over config wins over
// diagnostic; anything else is "other".
func classifyStep(step string) domain.ActionType {
	s := strings.ToLower(step)

	switch {
	case strings.Contains(s, "restart") || strings.Contains(s, "reboot"):
		return domain.ActionTypeRestart
	case strings.Contains(s, "scale") || strings.Contains(s, "add instance") || strings.Contains(s, "increase capacity"):
		return domain.ActionTypeScale
	case strings.Contains(s, "adjust") || strings.Contains(s, "configure") ||
		strings.Contains(s, "set") || strings.Contains(s, "update config"):
		return domain.ActionTypeUpdateConfig
	}

	for _, word := range []string{"check", "review", "analyze", "monitor", "identify"} {
		if strings.Contains(s, word) {
			return domain.ActionTypeDiagnostic
		}
	}
	return domain.ActionTypeOther
}

// stepParams extracts action parameters from the step text. Scale steps
// carry an instance amount, config steps carry the configuration delta
// relevant to the component class.
func stepParams(step string, actionType domain.ActionType, component string) map[string]any {
	s := strings.ToLower(step)

	switch actionType {
	case domain.ActionTypeScale:
		if m := scaleAmountRe.FindStringSubmatch(s); m != nil {
			if amount, err := strconv.Atoi(m[1]); err == nil {
				return map[string]any{"amount": amount}
			}
		}
		return map[string]any{"amount": 2}

	case domain.ActionTypeUpdateConfig:
		if component == "database" && strings.Contains(s, "connection pool") {
			value := 300
			if m := numberRe.FindStringSubmatch(s); m != nil {
				if v, err := strconv.Atoi(m[1]); err == nil {
					value = v
				}
			}
			return map[string]any{"config": map[string]any{"max_connections": value}}
		}
		if component == "api-gateway" && strings.Contains(s, "rate limit") {
			value := 2000
			if m := rateLimitRe.FindStringSubmatch(s); m != nil {
				if v, err := strconv.Atoi(m[1]); err == nil {
					value = v
				}
			}
			return map[string]any{"config": map[string]any{"rate_limit": value}}
		}
	}
	return nil
}

// mapSteps converts resolution steps into recommended actions. Steps
// that classify to an allow-listed type carry the registry action ID so
// they can be executed; "other" steps are advisory only.
func mapSteps(steps []string, component string, registry *actions.Registry) []domain.IncidentAction {
	result := make([]domain.IncidentAction, 0, len(steps))
	for i, step := range steps {
		actionType := classifyStep(step)

		action := domain.IncidentAction{
			ID:               fmt.Sprintf("step-%d", i+1),
			Type:             actionType,
			Title:            step,
			Description:      step,
			RequiresApproval: actionType.IsRemediation(),
			Params:           stepParams(step, actionType, component),
		}
		if def, ok := registry.ByType(actionType); ok {
			action.ID = def.ID
			action.RequiresApproval = def.RequiresApproval
		}
		result = append(result, action)
	}
	return result
}

// automationLevel reports how much of the plan can run unattended.
func automationLevel(recommended []domain.IncidentAction) domain.AutomationLevel {
	if len(recommended) == 0 {
		return domain.AutomationManual
	}

	approvals := 0
	for _, a := range recommended {
		if a.RequiresApproval {
			approvals++
		}
	}
	switch approvals {
	case 0:
		return domain.AutomationFull
	case len(recommended):
		return domain.AutomationManual
	default:
		return domain.AutomationSemi
	}
}

// extractResolutionSteps pulls the "### " step headers out of a
// runbook's "## Resolution Steps" section.
func extractResolutionSteps(content string) []string {
	var steps []string
	inSection := false

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)

		if strings.Contains(trimmed, "## Resolution Steps") {
			inSection = true
			continue
		}
		if inSection && strings.HasPrefix(trimmed, "##") && !strings.HasPrefix(trimmed, "###") {
			break
		}
		if inSection && strings.HasPrefix(trimmed, "### ") {
			steps = append(steps, strings.TrimPrefix(trimmed, "### "))
		}
	}
	return steps
}

// defaultSteps returns a generic plan when no runbook covers the
// incident.
func defaultSteps(component string) []string {
	switch component {
	case "api-gateway":
		return []string{
			"1. Check API Gateway metrics",
			"2. Review recent configuration changes",
			"3. Restart API Gateway service",
			"4. Scale API Gateway resources if needed",
			"5. Implement rate limiting",
		}
	case "database":
		return []string{
			"1. Check database connection pool",
			"2. Identify long-running queries",
			"3. Adjust connection pool size",
			"4. Set connection timeouts",
			"5. Monitor for improvement",
		}
	case "message-queue":
		return []string{
			"1. Check queue depth and consumer lag",
			"2. Identify bottlenecks in processing",
			"3. Scale up consumers",
			"4. Optimize message processing",
			"5. Monitor for improvement",
		}
	default:
		return []string{
			"1. Check component health",
			"2. Review logs for errors",
			"3. Restart service if needed",
			"4. Adjust resource allocation",
			"5. Monitor for improvement",
		}
	}
}
