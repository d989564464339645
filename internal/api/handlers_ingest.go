package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dgallion1/blackout/internal/dom"
	"github.com/dgallion1/blackout/internal/parser"
	"github.com/dgallion1/blackout/internal/redact"
)

// handleCreateDocument accepts a multipart upload (field "file") or a raw
// body whose Content-Type selects the parser, and opens a session for it.
func (s *Server) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	var (
		filename string
		data     []byte
	)
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
			return
		}
		defer r.MultipartForm.RemoveAll()

		file, header, err := r.FormFile("file")
		if err != nil {
			jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()
		filename = sanitizeFilename(header.Filename)

		data, err = io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
		if err != nil {
			jsonError(w, "failed to read file", http.StatusInternalServerError)
			return
		}
	} else {
		var ok bool
		filename, ok = filenameForMediaType(mediaType, r.URL.Query().Get("filename"))
		if !ok {
			jsonError(w, fmt.Sprintf("unsupported content type: %q", mediaType), http.StatusUnsupportedMediaType)
			return
		}
		var err error
		data, err = io.ReadAll(io.LimitReader(r.Body, s.cfg.MaxUploadBytes+1))
		if err != nil {
			jsonError(w, "failed to read body", http.StatusBadRequest)
			return
		}
	}

	if !parser.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	sess, err := s.open(filename, data)
	if err != nil {
		s.writeOpenError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{
		"document_id": sess.ID,
		"filename":    sess.Filename,
		"status":      sess.Ping().Status,
		"commands":    fmt.Sprintf("/api/documents/%s/commands", sess.ID),
	})
}

func (s *Server) handleBatchCreate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes*10+10*1024*1024)

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		jsonError(w, "at least one file is required", http.StatusBadRequest)
		return
	}

	results := make([]map[string]any, len(files))
	var (
		inputs []parser.Input
		slots  []int
	)
	for i, fh := range files {
		filename := sanitizeFilename(fh.Filename)
		results[i] = map[string]any{"filename": filename}
		if !parser.IsSupportedExtension(filename) {
			results[i]["error"] = fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename))
			continue
		}

		f, err := fh.Open()
		if err != nil {
			results[i]["error"] = "failed to open file"
			continue
		}
		data, err := io.ReadAll(io.LimitReader(f, s.cfg.MaxUploadBytes+1))
		f.Close()
		if err != nil || int64(len(data)) > s.cfg.MaxUploadBytes {
			results[i]["error"] = "file too large or read error"
			continue
		}
		inputs = append(inputs, parser.Input{Filename: filename, Data: data})
		slots = append(slots, i)
	}

	for j, out := range parser.ParseAll(r.Context(), inputs, s.parseOpts, s.cfg.BatchConcurrency) {
		res := results[slots[j]]
		if out.Err != nil {
			res["error"] = out.Err.Error()
			continue
		}
		sess, err := s.register(out.Doc, out.Filename, len(inputs[j].Data))
		if err != nil {
			res["error"] = err.Error()
			continue
		}
		res["document_id"] = sess.ID
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{"documents": results})
}

var errParse = errors.New("parse document")

// open parses data and registers a session for it.
func (s *Server) open(filename string, data []byte) (*redact.Session, error) {
	p, err := parser.ForFile(filename, s.parseOpts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errParse, err)
	}
	doc, err := p.Parse(bytes.NewReader(data), filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errParse, err)
	}
	return s.register(doc, filename, len(data))
}

func (s *Server) register(doc *dom.Document, filename string, size int) (*redact.Session, error) {
	sess, err := s.sessions.Create(doc, filename)
	if err != nil {
		return nil, err
	}
	s.log.Info("document opened", "document_id", sess.ID, "filename", filename, "bytes", size, "spans", countSpans(doc))
	return sess, nil
}

func (s *Server) writeOpenError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, redact.ErrStoreFull):
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
	case errors.Is(err, errParse):
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		jsonError(w, err.Error(), http.StatusInternalServerError)
	}
}

func countSpans(doc *dom.Document) int {
	return len(doc.QueryByClass(dom.RedactedClass))
}

// filenameForMediaType picks a parser-selecting filename for a raw body. An
// explicit name wins when it has a supported extension.
func filenameForMediaType(mediaType, name string) (string, bool) {
	if name != "" && parser.IsSupportedExtension(name) {
		return sanitizeFilename(name), true
	}
	base := "document"
	if name != "" {
		base = strings.TrimSuffix(sanitizeFilename(name), filepath.Ext(name))
	}
	switch mediaType {
	case "text/html", "application/xhtml+xml":
		return base + ".html", true
	case "text/markdown", "text/x-markdown":
		return base + ".md", true
	case "text/plain", "":
		return base + ".txt", true
	case "text/csv":
		return base + ".csv", true
	case "application/pdf":
		return base + ".pdf", true
	case "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return base + ".docx", true
	}
	return "", false
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	// Remove any path separators that might have survived.
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
