// Package actions implements the allow-listed action registry and the
// executor that applies actions to managed services. Only registry
// entries are executable; arbitrary command text is never run.
package actions

import (
	"errors"
	"regexp"
	"strings"

	"github.com/opsdeck/opsdeck/internal/domain"
)

// Registry errors.
var (
	ErrActionNotAllowed = errors.New("action not allowed")
)

// Definition is an allow-listed executable action. CommandPattern, when
// set, matches command text from assistant answers so code blocks can be
// linked back to the definition.
type Definition struct {
	ID               string
	Type             domain.ActionType
	Title            string
	Description      string
	RequiresApproval bool
	CommandPattern   *regexp.Regexp
}

// Registry holds the allow-listed action definitions.
type Registry struct {
	defs []Definition
	byID map[string]*Definition
}

// NewRegistry creates a registry with the built-in definitions.
func NewRegistry() *Registry {
	return newRegistry(builtinDefinitions())
}

func newRegistry(defs []Definition) *Registry {
	r := &Registry{
		defs: defs,
		byID: make(map[string]*Definition, len(defs)),
	}
	for i := range r.defs {
		r.byID[r.defs[i].ID] = &r.defs[i]
	}
	return r
}

// Get returns the definition for an action ID.
func (r *Registry) Get(id string) (*Definition, bool) {
	def, ok := r.byID[id]
	return def, ok
}

// ByType returns the first definition of the given type.
func (r *Registry) ByType(t domain.ActionType) (*Definition, bool) {
	for i := range r.defs {
		if r.defs[i].Type == t {
			return &r.defs[i], true
		}
	}
	return nil, false
}

// List returns all definitions.
func (r *Registry) List() []Definition {
	out := make([]Definition, len(r.defs))
	copy(out, r.defs)
	return out
}

// MatchCommand resolves command text to a definition. Multi-line blocks
// match if any non-comment line matches a pattern; commands that resolve
// to nothing stay non-executable.
func (r *Registry) MatchCommand(command string) (*Definition, bool) {
	for _, line := range strings.Split(command, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		for i := range r.defs {
			p := r.defs[i].CommandPattern
			if p != nil && p.MatchString(line) {
				return &r.defs[i], true
			}
		}
	}
	return nil, false
}

// builtinDefinitions returns the default allow list. Patterns cover the
// command styles that appear in the bundled runbooks.
func builtinDefinitions() []Definition {
	return []Definition{
		{
			ID:               "restart-service",
			Type:             domain.ActionTypeRestart,
			Title:            "Restart service",
			Description:      "Restart the affected service",
			RequiresApproval: true,
			CommandPattern:   regexp.MustCompile(`^(sudo\s+)?(systemctl|service)\s+restart\b|^kubectl\s+rollout\s+restart\b`),
		},
		{
			ID:               "scale-service",
			Type:             domain.ActionTypeScale,
			Title:            "Scale service",
			Description:      "Change the number of service instances",
			RequiresApproval: true,
			CommandPattern:   regexp.MustCompile(`^kubectl\s+scale\b|^docker-compose\s+scale\b`),
		},
		{
			ID:               "update-config",
			Type:             domain.ActionTypeUpdateConfig,
			Title:            "Update configuration",
			Description:      "Apply a configuration change to the service",
			RequiresApproval: true,
			CommandPattern:   regexp.MustCompile(`^rabbitmqctl\s+set_policy\b`),
		},
		{
			ID:               "run-diagnostics",
			Type:             domain.ActionTypeDiagnostic,
			Title:            "Run diagnostics",
			Description:      "Collect service status, metrics and recent logs",
			RequiresApproval: false,
			CommandPattern:   regexp.MustCompile(`^(sudo\s+)?(top|ps|free|netstat|tail|grep|rabbitmqctl\s+list_queues|kafka-consumer-groups\.sh)\b`),
		},
	}
}
