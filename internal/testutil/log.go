package testutil

import (
	"context"
	"log/slog"
	"sync"
)

// RecordHandler is a slog.Handler that keeps every record in memory.
type RecordHandler struct {
	mu      *sync.Mutex
	records *[]slog.Record
	attrs   []slog.Attr
}

// NewCaptureLogger returns a debug level logger and the handler holding its records.
func NewCaptureLogger() (*slog.Logger, *RecordHandler) {
	h := &RecordHandler{mu: &sync.Mutex{}, records: &[]slog.Record{}}
	return slog.New(h), h
}

func (h *RecordHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *RecordHandler) Handle(_ context.Context, r slog.Record) error {
	r = r.Clone()
	r.AddAttrs(h.attrs...)
	h.mu.Lock()
	defer h.mu.Unlock()
	*h.records = append(*h.records, r)
	return nil
}

func (h *RecordHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &RecordHandler{mu: h.mu, records: h.records, attrs: append(append([]slog.Attr(nil), h.attrs...), attrs...)}
}

// WithGroup is not needed by the code under test; groups are flattened.
func (h *RecordHandler) WithGroup(string) slog.Handler { return h }

// Records returns a copy of the captured records.
func (h *RecordHandler) Records() []slog.Record {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]slog.Record(nil), *h.records...)
}

// Find returns the first record with the given message.
func (h *RecordHandler) Find(msg string) (slog.Record, bool) {
	for _, r := range h.Records() {
		if r.Message == msg {
			return r, true
		}
	}
	return slog.Record{}, false
}

// Attr returns the value of key in r.
func Attr(r slog.Record, key string) (slog.Value, bool) {
	var out slog.Value
	found := false
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == key {
			out, found = a.Value, true
			return false
		}
		return true
	})
	return out, found
}
