package domain

// SourceDocument is a retrieved knowledge-base reference returned with a
// chat answer.
type SourceDocument struct {
	Source string  `json:"source"`
	Title  string  `json:"title"`
	Score  float64 `json:"score"`
}

// CommandBlock is a fenced code block extracted from an assistant answer.
// Executable is set only when the command resolved to an allow-listed
// action; free text inside a tagged block is never executable on its own.
type CommandBlock struct {
	Command     string `json:"command"`
	Language    string `json:"language"`
	Executable  bool   `json:"executable"`
	ActionID    string `json:"action_id,omitempty"`
	Description string `json:"description,omitempty"`
}

// QueryResult is the assistant response for a single query.
type QueryResult struct {
	Result        string           `json:"result"`
	HTML          string           `json:"html,omitempty"`
	Sources       []SourceDocument `json:"sources"`
	CommandBlocks []CommandBlock   `json:"command_blocks,omitempty"`
	Cached        bool             `json:"cached,omitempty"`
}
