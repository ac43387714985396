package assistant

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/opsdeck/opsdeck/internal/actions"
	"github.com/opsdeck/opsdeck/internal/domain"
	"github.com/russross/blackfriday/v2"
)

// Renderer converts markdown answers to sanitized HTML and extracts
// fenced code blocks. A block becomes executable only when its command
// resolves to an allow-listed registry action; everything else stays
// plain display text.
type Renderer struct {
	policy   *bluemonday.Policy
	registry *actions.Registry
}

// NewRenderer creates a renderer bound to the action registry.
func NewRenderer(registry *actions.Registry) *Renderer {
	return &Renderer{
		policy:   bluemonday.UGCPolicy(),
		registry: registry,
	}
}

// Render returns the sanitized HTML of the answer and its command blocks.
func (r *Renderer) Render(answer string) (string, []domain.CommandBlock) {
	parser := blackfriday.New(blackfriday.WithExtensions(blackfriday.CommonExtensions))
	root := parser.Parse([]byte(answer))

	var blocks []domain.CommandBlock
	root.Walk(func(node *blackfriday.Node, entering bool) blackfriday.WalkStatus {
		if !entering || node.Type != blackfriday.CodeBlock {
			return blackfriday.GoToNext
		}

		block := domain.CommandBlock{
			Command:  strings.TrimSpace(string(node.Literal)),
			Language: string(node.CodeBlockData.Info),
		}
		if def, ok := r.registry.MatchCommand(block.Command); ok {
			block.Executable = true
			block.ActionID = def.ID
			block.Description = def.Title
		}
		blocks = append(blocks, block)
		return blackfriday.GoToNext
	})

	rendered := blackfriday.Run([]byte(answer), blackfriday.WithExtensions(blackfriday.CommonExtensions))
	return string(r.policy.SanitizeBytes(rendered)), blocks
}
