package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/blackout/internal/config"
	"github.com/dgallion1/blackout/internal/policy"
	"github.com/dgallion1/blackout/internal/redact"
)

const testKey = "secret"

func newTestServer(t *testing.T, maxSessions int) *httptest.Server {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Config{
		APIKey:         testKey,
		MaxUploadBytes: 1 << 20,
		MaxSessions:    maxSessions,
		SessionTTL:     time.Hour,
		HistoryLimit:   50,
		SanitizeHTML:   true,
		Defaults:       policy.DefaultSettings(),
	}
	store := redact.NewStore(cfg.SessionTTL, cfg.MaxSessions, redact.Options{
		HistoryLimit: cfg.HistoryLimit,
		Seed:         1,
		Defaults:     cfg.Defaults,
		Logger:       log,
	})
	srv := httptest.NewServer(NewServer(store, log, cfg))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, contentType string, body io.Reader) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+testKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func create(t *testing.T, base, html string) string {
	t.Helper()
	resp := do(t, http.MethodPost, base+"/api/documents", "text/html", strings.NewReader(html))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var out struct {
		DocumentID string `json:"document_id"`
	}
	decode(t, resp, &out)
	if out.DocumentID == "" {
		t.Fatal("expected document id")
	}
	return out.DocumentID
}

func command(t *testing.T, base, id string, req map[string]any) (int, redact.Response) {
	t.Helper()
	b, _ := json.Marshal(req)
	resp := do(t, http.MethodPost, base+"/api/documents/"+id+"/commands", "application/json", bytes.NewReader(b))
	var out redact.Response
	decode(t, resp, &out)
	return resp.StatusCode, out
}

func fetch(t *testing.T, base, id, format string) string {
	t.Helper()
	resp := do(t, http.MethodGet, base+"/api/documents/"+id+"?format="+format, "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("fetch: status %d", resp.StatusCode)
	}
	b, _ := io.ReadAll(resp.Body)
	return string(b)
}

func TestHealth_NoAuth(t *testing.T) {
	srv := newTestServer(t, 10)
	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestAuthRequired(t *testing.T) {
	srv := newTestServer(t, 10)
	resp, err := http.Post(srv.URL+"/api/documents", "text/html", strings.NewReader("<p>x</p>"))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", resp.StatusCode)
	}
}

func TestRoundTrip(t *testing.T) {
	srv := newTestServer(t, 10)
	id := create(t, srv.URL, "<p>alpha beta gamma delta</p><script>evil()</script>")

	original := fetch(t, srv.URL, id, "html")
	if strings.Contains(original, "evil") {
		t.Errorf("expected sanitized document, got %s", original)
	}

	code, resp := command(t, srv.URL, id, map[string]any{"action": "redactAll"})
	if code != http.StatusOK || !resp.Success || resp.Redacted != 4 {
		t.Fatalf("unexpected redactAll %d %+v", code, resp)
	}
	redacted := fetch(t, srv.URL, id, "html")

	_, resp = command(t, srv.URL, id, map[string]any{"action": "undo"})
	if !resp.Success || !resp.CanRedo {
		t.Fatalf("unexpected undo %+v", resp)
	}
	if got := fetch(t, srv.URL, id, "html"); got != original {
		t.Errorf("undo did not restore original:\n got %s\nwant %s", got, original)
	}

	_, resp = command(t, srv.URL, id, map[string]any{"action": "redo"})
	if !resp.Success {
		t.Fatalf("unexpected redo %+v", resp)
	}
	if got := fetch(t, srv.URL, id, "html"); got != redacted {
		t.Errorf("redo not exact:\n got %s\nwant %s", got, redacted)
	}

	if text := fetch(t, srv.URL, id, "text"); text != "█████ ████ █████ █████\n" {
		t.Errorf("unexpected text export %q", text)
	}

	hresp := do(t, http.MethodGet, srv.URL+"/api/documents/"+id+"/history", "", nil)
	var st struct {
		UndoCount int `json:"undoCount"`
	}
	decode(t, hresp, &st)
	if st.UndoCount != 1 {
		t.Errorf("expected undo depth 1, got %d", st.UndoCount)
	}
}

func TestCommand_SelectionNeedsMode(t *testing.T) {
	srv := newTestServer(t, 10)
	id := create(t, srv.URL, "<p>The Quick brown Fox</p>")

	code, resp := command(t, srv.URL, id, map[string]any{"action": "redactSelection", "text": "brown Fox"})
	if code != http.StatusConflict || resp.Success {
		t.Fatalf("expected 409, got %d %+v", code, resp)
	}

	command(t, srv.URL, id, map[string]any{"action": "toggleRedaction", "enabled": true})
	code, resp = command(t, srv.URL, id, map[string]any{"action": "redactSelection", "text": "brown Fox"})
	if code != http.StatusOK || resp.Redacted != 1 {
		t.Fatalf("unexpected selection %d %+v", code, resp)
	}
	if got := fetch(t, srv.URL, id, "html"); !strings.Contains(got, `<span class="blackout-redacted">brown Fox</span>`) {
		t.Errorf("expected selection wrapped, got %s", got)
	}

	code, _ = command(t, srv.URL, id, map[string]any{"action": "nope"})
	if code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown action, got %d", code)
	}
}

func TestMultipartUploadAndDelete(t *testing.T) {
	srv := newTestServer(t, 10)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, _ := mw.CreateFormFile("file", "notes.md")
	fw.Write([]byte("# Notes\n\nSome text here.\n"))
	mw.Close()

	resp := do(t, http.MethodPost, srv.URL+"/api/documents", mw.FormDataContentType(), &body)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var out struct {
		DocumentID string `json:"document_id"`
		Filename   string `json:"filename"`
	}
	decode(t, resp, &out)
	if out.Filename != "notes.md" {
		t.Errorf("unexpected filename %q", out.Filename)
	}
	if md := fetch(t, srv.URL, out.DocumentID, "markdown"); !strings.Contains(md, "# Notes") {
		t.Errorf("unexpected markdown %q", md)
	}

	del := do(t, http.MethodDelete, srv.URL+"/api/documents/"+out.DocumentID, "", nil)
	if del.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", del.StatusCode)
	}
	gone := do(t, http.MethodGet, srv.URL+"/api/documents/"+out.DocumentID, "", nil)
	if gone.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", gone.StatusCode)
	}
}

func TestCreate_Rejections(t *testing.T) {
	srv := newTestServer(t, 1)

	resp := do(t, http.MethodPost, srv.URL+"/api/documents", "image/png", strings.NewReader("x"))
	if resp.StatusCode != http.StatusUnsupportedMediaType {
		t.Errorf("expected 415, got %d", resp.StatusCode)
	}

	create(t, srv.URL, "<p>one</p>")
	resp = do(t, http.MethodPost, srv.URL+"/api/documents", "text/html", strings.NewReader("<p>two</p>"))
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503 when full, got %d", resp.StatusCode)
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"../../etc/passwd": "passwd",
		"report.pdf":       "report.pdf",
		"":                 "unnamed",
	}
	for in, want := range cases {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBatchCreate(t *testing.T) {
	srv := newTestServer(t, 10)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, f := range []struct{ name, content string }{
		{"a.txt", "alpha"},
		{"b.exe", "nope"},
		{"c.md", "# C\n\ngamma"},
	} {
		fw, _ := mw.CreateFormFile("files", f.name)
		fw.Write([]byte(f.content))
	}
	mw.Close()

	resp := do(t, http.MethodPost, srv.URL+"/api/documents/batch", mw.FormDataContentType(), &body)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var out struct {
		Documents []struct {
			Filename   string `json:"filename"`
			DocumentID string `json:"document_id"`
			Error      string `json:"error"`
		} `json:"documents"`
	}
	decode(t, resp, &out)
	if len(out.Documents) != 3 {
		t.Fatalf("expected 3 results, got %+v", out.Documents)
	}
	if out.Documents[0].Filename != "a.txt" || out.Documents[0].DocumentID == "" {
		t.Errorf("unexpected first result %+v", out.Documents[0])
	}
	if out.Documents[1].Error == "" || out.Documents[1].DocumentID != "" {
		t.Errorf("expected unsupported file error, got %+v", out.Documents[1])
	}
	if out.Documents[2].DocumentID == "" {
		t.Errorf("unexpected third result %+v", out.Documents[2])
	}
}

func TestStats_CountsCommands(t *testing.T) {
	srv := newTestServer(t, 10)
	id := create(t, srv.URL, "<p>one two</p>")
	command(t, srv.URL, id, map[string]any{"action": "redactAll"})
	command(t, srv.URL, id, map[string]any{"action": "redactSelection", "text": "one"})

	resp := do(t, http.MethodGet, srv.URL+"/api/stats", "", nil)
	var out struct {
		Sessions int `json:"sessions"`
		Commands map[string]struct {
			Count  int `json:"count"`
			Errors int `json:"errors"`
		} `json:"commands"`
	}
	decode(t, resp, &out)
	if out.Sessions != 1 {
		t.Errorf("expected 1 session, got %d", out.Sessions)
	}
	if c := out.Commands["redactAll"]; c.Count != 1 || c.Errors != 0 {
		t.Errorf("unexpected redactAll stats %+v", c)
	}
	if c := out.Commands["redactSelection"]; c.Count != 1 || c.Errors != 1 {
		t.Errorf("expected one failed selection, got %+v", c)
	}
}
