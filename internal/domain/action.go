package domain

// ActionType classifies a recommended action.
type ActionType string

// Action types. Diagnostic actions are read-only; the rest mutate the
// target service and require operator approval.
const (
	ActionTypeDiagnostic   ActionType = "diagnostic"
	ActionTypeRestart      ActionType = "restart"
	ActionTypeScale        ActionType = "scale"
	ActionTypeUpdateConfig ActionType = "update_config"
	ActionTypeOther        ActionType = "other"
)

// IsRemediation reports whether the action changes service state.
func (t ActionType) IsRemediation() bool {
	return t == ActionTypeRestart || t == ActionTypeScale || t == ActionTypeUpdateConfig
}

// IncidentAction is a recommended action produced by incident analysis.
// Actions are ephemeral: each analyze call produces a fresh set and they
// are not persisted independently of the analysis response.
type IncidentAction struct {
	ID               string         `json:"id"`
	Type             ActionType     `json:"type"`
	Title            string         `json:"title"`
	Description      string         `json:"description"`
	RequiresApproval bool           `json:"requires_approval"`
	Params           map[string]any `json:"params,omitempty"`
}

// ActionResult is the outcome of executing an action. Executor failures
// are reported through Success=false rather than an error so the caller
// decides how to treat them.
type ActionResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// AutomationLevel describes how much of an analysis can run unattended.
type AutomationLevel string

// Automation levels.
const (
	AutomationManual AutomationLevel = "manual"
	AutomationSemi   AutomationLevel = "semi-automated"
	AutomationFull   AutomationLevel = "fully-automated"
)

// Analysis is the result of analyzing an incident.
type Analysis struct {
	Summary            string           `json:"incident_summary"`
	Text               string           `json:"analysis"`
	RecommendedActions []IncidentAction `json:"recommended_actions"`
	KBArticles         []KBArticleRef   `json:"kb_articles"`
	AutomationLevel    AutomationLevel  `json:"automation_level"`
}

// KBArticleRef points at a knowledge-base article used during analysis.
type KBArticleRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}
