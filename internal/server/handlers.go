package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/MeKo-Tech/placa/internal/pipeline"
	"github.com/MeKo-Tech/placa/internal/version"
)

// healthHandler returns server health status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := HealthResponse{
		Status:  "healthy",
		Version: version.String(),
		Time:    time.Now().UTC().Format(time.RFC3339),
		OCR:     s.pipeline != nil && s.pipeline.HasReader(),
	}
	s.writeJSON(w, http.StatusOK, response)
}

// statusForError maps a pipeline failure onto an HTTP status.
func statusForError(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	}
	switch pipeline.KindOf(err) {
	case pipeline.ReadFailure:
		return http.StatusBadRequest
	case pipeline.NoRegionFound, pipeline.DegenerateRectification:
		return http.StatusUnprocessableEntity
	case pipeline.OcrUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// writeErrorResponse writes a JSON error response.
func (s *Server) writeErrorResponse(w http.ResponseWriter, r *http.Request, message string, statusCode int, err error) {
	response := PlateResponse{
		Success:   false,
		RequestID: requestID(r.Context()),
		Error:     message,
	}
	if k := pipeline.KindOf(err); k != 0 {
		response.FailureKind = k.String()
	}
	s.writeJSON(w, statusCode, response)
}
