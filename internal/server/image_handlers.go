package server

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/placa/internal/batch"
	"github.com/MeKo-Tech/placa/internal/pipeline"
)

// plateImageHandler reads the plate of an uploaded image.
func (s *Server) plateImageHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := s.maxUploadMB * 1024 * 1024
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(limit); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "too large") {
			s.writeErrorResponse(w, r, "File too large", http.StatusRequestEntityTooLarge, nil)
		} else {
			s.writeErrorResponse(w, r, "Failed to parse form data", http.StatusBadRequest, nil)
		}
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		s.writeErrorResponse(w, r, "No image file provided", http.StatusBadRequest, nil)
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeErrorResponse(w, r, "Failed to read image data", http.StatusInternalServerError, nil)
		return
	}
	uploadSizeBytes.Observe(float64(len(data)))

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		s.writeErrorResponse(w, r, "Invalid image format", http.StatusBadRequest, nil)
		return
	}

	if s.pipeline == nil {
		s.writeErrorResponse(w, r, "Plate pipeline not initialized", http.StatusServiceUnavailable, nil)
		return
	}

	id := requestID(r.Context())
	res, err := s.process(r.Context(), img, id, header.Filename)
	if err != nil {
		plateRequestsTotal.WithLabelValues("http", "error").Inc()
		s.writeErrorResponse(w, r, fmt.Sprintf("Plate processing failed: %v", err), statusForError(err), err)
		return
	}
	plateRequestsTotal.WithLabelValues("http", "success").Inc()

	format := r.FormValue("format")
	if format == "" {
		format = r.URL.Query().Get("format")
	}
	switch format {
	case batch.FormatText, batch.FormatCSV:
		out, err := batch.FormatRows([]batch.Row{batch.NewRow(pipeline.Outcome{Path: res.File, Result: res})}, format)
		if err != nil {
			http.Error(w, fmt.Sprintf("formatting failed: %v", err), http.StatusInternalServerError)
			return
		}
		if format == batch.FormatCSV {
			w.Header().Set("Content-Type", "text/csv")
		} else {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		}
		_, _ = io.WriteString(w, out)
	default:
		s.writeJSON(w, http.StatusOK, PlateResponse{Success: true, RequestID: id, Result: res})
	}
}

// process runs the pipeline under the request timeout. Output files are
// prefixed with the request ID so concurrent uploads of the same name do
// not collide.
func (s *Server) process(ctx context.Context, img image.Image, id, filename string) (*pipeline.Result, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	name := filepath.Base(filename)
	if name == "." || name == string(filepath.Separator) || name == "" {
		name = "upload.jpg"
	}
	return s.pipeline.ProcessImage(ctx, img, id+"_"+name)
}
