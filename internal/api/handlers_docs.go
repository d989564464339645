package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dgallion1/blackout/internal/dom"
	"github.com/dgallion1/blackout/internal/export"
	"github.com/dgallion1/blackout/internal/redact"
	"github.com/go-chi/chi/v5"
)

// maxCommandBytes bounds a command message body.
const maxCommandBytes = 64 << 10

func (s *Server) session(w http.ResponseWriter, r *http.Request) *redact.Session {
	docID := chi.URLParam(r, "docID")
	sess := s.sessions.Get(docID)
	if sess == nil {
		jsonError(w, "document not found", http.StatusNotFound)
	}
	return sess
}

// handleGetDocument renders the document in the requested format. HTML
// keeps the redaction spans; markdown and text mask redacted words.
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var body []byte
	err = sess.View(func(doc *dom.Document) error {
		switch format {
		case export.FormatMarkdown:
			md, err := export.Markdown(doc)
			body = []byte(md)
			return err
		case export.FormatText:
			var buf bytes.Buffer
			err := export.WriteText(&buf, doc, export.TextOptions{})
			body = buf.Bytes()
			return err
		default:
			body = []byte(export.HTML(doc))
			return nil
		}
	})
	if err != nil {
		jsonError(w, "render failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Write(body)
}

// handleDeleteDocument drops the session and its history.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	if !s.sessions.Delete(docID) {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}
	s.log.Info("document closed", "document_id", docID)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"deleted": docID})
}

// handleCommand runs one command message against the document.
func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}
	var req redact.Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCommandBytes)).Decode(&req); err != nil {
		jsonError(w, "invalid command: "+err.Error(), http.StatusBadRequest)
		return
	}

	start := time.Now()
	resp, err := sess.Dispatch(req)
	s.commands.Record(req.Action, time.Since(start), err != nil)
	status := http.StatusOK
	switch {
	case err == nil:
	case errors.Is(err, redact.ErrInactive):
		status = http.StatusConflict
	case errors.Is(err, redact.ErrSpanNotFound), errors.Is(err, dom.ErrTextNotFound):
		status = http.StatusNotFound
	default:
		status = http.StatusBadRequest
	}
	if err != nil {
		s.log.Debug("command failed", "document_id", sess.ID, "action", req.Action, "error", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sess.HistoryStatus())
}
