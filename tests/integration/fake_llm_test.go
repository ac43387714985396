//go:build integration

package integration

import (
	"encoding/json"
	"hash/fnv"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"
)

// defaultChatAnswer is what the fake runtime returns for every chat
// completion. It carries a fenced command block matching the restart
// allow-list entry so command extraction can be exercised end to end.
const defaultChatAnswer = "Based on the runbook, the connection pool is exhausted. " +
	"Restart the database service to clear stuck connections:\n\n" +
	"```bash\nsudo systemctl restart postgresql\n```\n\n" +
	"Then watch pool usage for the next few minutes."

// fakeLLMServer is an OpenAI-compatible stub. Chat completions return a
// canned answer; embeddings are deterministic bag-of-words vectors so
// queries sharing words with a document actually retrieve it.
type fakeLLMServer struct {
	srv *httptest.Server

	mu        sync.Mutex
	answer    string
	chatCalls int
}

func newFakeLLMServer() *fakeLLMServer {
	f := &fakeLLMServer{answer: defaultChatAnswer}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/chat/completions", f.handleChat)
	mux.HandleFunc("/v1/embeddings", f.handleEmbeddings)
	f.srv = httptest.NewServer(mux)

	return f
}

func (f *fakeLLMServer) URL() string { return f.srv.URL + "/v1" }

func (f *fakeLLMServer) Close() { f.srv.Close() }

// SetAnswer replaces the canned chat answer for subsequent calls.
func (f *fakeLLMServer) SetAnswer(answer string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answer = answer
}

// ChatCalls returns the number of chat completion requests served.
func (f *fakeLLMServer) ChatCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.chatCalls
}

func (f *fakeLLMServer) handleChat(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.chatCalls++
	answer := f.answer
	f.mu.Unlock()

	resp := map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": time.Now().Unix(),
		"model":   "test-model",
		"choices": []map[string]any{
			{
				"index": 0,
				"message": map[string]any{
					"role":    "assistant",
					"content": answer,
				},
				"finish_reason": "stop",
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (f *fakeLLMServer) handleEmbeddings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Input json.RawMessage `json:"input"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var inputs []string
	if err := json.Unmarshal(req.Input, &inputs); err != nil {
		// Single-string form
		var single string
		if err := json.Unmarshal(req.Input, &single); err != nil {
			http.Error(w, "unsupported input", http.StatusBadRequest)
			return
		}
		inputs = []string{single}
	}

	data := make([]map[string]any, len(inputs))
	for i, text := range inputs {
		data[i] = map[string]any{
			"object":    "embedding",
			"index":     i,
			"embedding": wordVector(text),
		}
	}

	resp := map[string]any{
		"object": "list",
		"model":  "test-embed",
		"data":   data,
		"usage":  map[string]any{"prompt_tokens": 0, "total_tokens": 0},
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// wordVector hashes each word into one of 64 buckets. Texts sharing
// vocabulary get positive cosine similarity, which is all retrieval
// needs here.
func wordVector(text string) []float64 {
	vec := make([]float64, 64)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,:;!?()[]`\"'")
		if word == "" {
			continue
		}
		h := fnv.New32a()
		_, _ = h.Write([]byte(word))
		vec[h.Sum32()%64]++
	}
	return vec
}
