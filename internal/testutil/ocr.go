package testutil

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/ollama/ollama/api"
)

// FakeReader returns a fixed answer and records the requested paths.
type FakeReader struct {
	Text string
	Err  error

	mu    sync.Mutex
	paths []string
}

// ReadPlate implements ocr.Reader.
func (f *FakeReader) ReadPlate(ctx context.Context, imagePath string) (string, error) {
	f.mu.Lock()
	f.paths = append(f.paths, imagePath)
	f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return f.Text, f.Err
}

// Paths returns the image paths seen so far.
func (f *FakeReader) Paths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.paths...)
}

// NewFakeOllama starts a server answering /api/chat with content. A status
// other than 200 is returned without a body.
func NewFakeOllama(content string, status int) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(api.ChatResponse{
			Model:   "moondream",
			Message: api.Message{Role: "assistant", Content: content},
			Done:    true,
		})
	}))
}
