package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/livetechno/livetechno/pkg/converter"
	"github.com/livetechno/livetechno/pkg/store"
	"github.com/livetechno/livetechno/pkg/studio"
)

const project = `{
  "meta": {"bpm": 128, "ppq": 480},
  "machines": [{"id": "behringer.rd9", "instanceId": "rd9-1", "midiChannel": 10}],
  "patterns": [{"targetMachine": "rd9-1", "lengthSteps": 16, "steps": [{"t": 0, "note": 36, "vel": 100, "duration": 0.25}]}]
}`

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	return newRouterWithStatic(t, "")
}

func newRouterWithStatic(t *testing.T, staticDir string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	projects, err := store.NewProjectStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	activity, err := store.OpenActivityLog(filepath.Join(dir, store.DatabaseFile))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = activity.Close() })

	return NewRouter(studio.New(projects, activity, studio.Options{}), staticDir)
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	r := newRouter(t)

	for _, path := range []string{"/health", "/api/v1/health"} {
		w := do(r, http.MethodGet, path, "")
		if w.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want %d", path, w.Code, http.StatusOK)
		}
		if !strings.Contains(w.Body.String(), "healthy") {
			t.Errorf("GET %s body = %s", path, w.Body.String())
		}
	}
}

func TestHealthReportsKey(t *testing.T) {
	r := newRouter(t)

	keyConfigured := func() bool {
		var resp struct {
			APIKeyConfigured bool `json:"apiKeyConfigured"`
		}
		w := do(r, http.MethodGet, "/api/v1/health", "")
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		return resp.APIKeyConfigured
	}

	if keyConfigured() {
		t.Error("apiKeyConfigured = true before a key was validated")
	}
	do(r, http.MethodPost, "/api/v1/auth/validate", `{"apiKey":"sk-test"}`)
	if !keyConfigured() {
		t.Error("apiKeyConfigured = false after a valid key")
	}
}

func TestStaticFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>studio</h1>"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log('studio')"), 0644); err != nil {
		t.Fatal(err)
	}
	r := newRouterWithStatic(t, dir)

	tests := []struct {
		path string
		want int
		body string
	}{
		{"/", http.StatusOK, "<h1>studio</h1>"},
		{"/app.js", http.StatusOK, "console.log"},
		{"/missing.js", http.StatusNotFound, ""},
		{"/api/v1/health", http.StatusOK, "healthy"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := do(r, http.MethodGet, tt.path, "")
			if w.Code != tt.want {
				t.Errorf("GET %s = %d, want %d", tt.path, w.Code, tt.want)
			}
			if !strings.Contains(w.Body.String(), tt.body) {
				t.Errorf("GET %s body = %q, want %q", tt.path, w.Body.String(), tt.body)
			}
		})
	}
}

func TestNoStaticDir(t *testing.T) {
	r := newRouter(t)

	if w := do(r, http.MethodGet, "/", ""); w.Code != http.StatusNotFound {
		t.Errorf("GET / = %d, want %d without a static dir", w.Code, http.StatusNotFound)
	}
}

func TestCORSHeaders(t *testing.T) {
	r := newRouter(t)

	w := do(r, http.MethodOptions, "/api/v1/midi/export", "")
	if w.Code != http.StatusNoContent {
		t.Errorf("OPTIONS = %d, want %d", w.Code, http.StatusNoContent)
	}
	tests := map[string]string{
		"Access-Control-Allow-Origin":  "*",
		"Cross-Origin-Opener-Policy":   "same-origin",
		"Cross-Origin-Embedder-Policy": "require-corp",
	}
	for header, want := range tests {
		if got := w.Header().Get(header); got != want {
			t.Errorf("%s = %q, want %q", header, got, want)
		}
	}
}

func TestListMachines(t *testing.T) {
	r := newRouter(t)

	w := do(r, http.MethodGet, "/api/v1/machines", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /api/v1/machines = %d", w.Code)
	}
	var resp struct {
		Machines []struct {
			ID string `json:"id"`
		} `json:"machines"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Machines) != 2 {
		t.Errorf("machines = %d, want 2", len(resp.Machines))
	}
}

func TestExportMIDI(t *testing.T) {
	r := newRouter(t)

	w := do(r, http.MethodPost, "/api/v1/midi/export", `{"projectState":`+project+`}`)
	if w.Code != http.StatusOK {
		t.Fatalf("POST /api/v1/midi/export = %d: %s", w.Code, w.Body.String())
	}
	if got := w.Header().Get("Content-Type"); got != "audio/midi" {
		t.Errorf("Content-Type = %q, want audio/midi", got)
	}
	if got := w.Header().Get("Content-Disposition"); !strings.Contains(got, ExportFilename) {
		t.Errorf("Content-Disposition = %q", got)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte(converter.HeaderChunk)) {
		t.Errorf("body does not start with %s", converter.HeaderChunk)
	}
}

func TestExportMIDIErrors(t *testing.T) {
	r := newRouter(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"missing projectState", `{}`, http.StatusBadRequest},
		{"malformed json", `{"projectState":`, http.StatusBadRequest},
		{"schema violation", `{"projectState":{"meta":{"bpm":0,"ppq":480},"machines":[],"patterns":[]}}`, http.StatusBadRequest},
		{"bad channel", `{"projectState":{"meta":{"bpm":120,"ppq":96},"machines":[{"id":"x","instanceId":"x1","midiChannel":0}],"patterns":[]}}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodPost, "/api/v1/midi/export", tt.body)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", w.Code, tt.want, w.Body.String())
			}
			if !strings.Contains(w.Body.String(), `"error"`) {
				t.Errorf("body = %s, want an error field", w.Body.String())
			}
		})
	}
}

func TestExportMIDITooLarge(t *testing.T) {
	r := newRouter(t)

	body := `{"projectState":{"meta":{"name":"` + strings.Repeat("x", maxBody) + `"}}}`
	w := do(r, http.MethodPost, "/api/v1/midi/export", body)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want %d", w.Code, http.StatusRequestEntityTooLarge)
	}
}

func TestProjectSaveLoad(t *testing.T) {
	r := newRouter(t)

	w := do(r, http.MethodGet, "/api/v1/project/load", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("load before save = %d, want %d", w.Code, http.StatusNotFound)
	}

	w = do(r, http.MethodPost, "/api/v1/project/save", `{"projectState":`+project+`}`)
	if w.Code != http.StatusOK {
		t.Fatalf("save = %d: %s", w.Code, w.Body.String())
	}

	w = do(r, http.MethodGet, "/api/v1/project/load", "")
	if w.Code != http.StatusOK {
		t.Fatalf("load = %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		ProjectState converter.Project `json:"projectState"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.ProjectState.Meta.BPM != 128 || len(resp.ProjectState.Machines) != 1 {
		t.Errorf("loaded project = %+v", resp.ProjectState)
	}
}

func TestValidateKey(t *testing.T) {
	r := newRouter(t)

	tests := []struct {
		body string
		want int
	}{
		{`{"apiKey":""}`, http.StatusBadRequest},
		{`{"apiKey":"not-a-key"}`, http.StatusUnauthorized},
		{`{"apiKey":"sk-test"}`, http.StatusOK},
	}
	for _, tt := range tests {
		w := do(r, http.MethodPost, "/api/v1/auth/validate", tt.body)
		if w.Code != tt.want {
			t.Errorf("validate %s = %d, want %d", tt.body, w.Code, tt.want)
		}
	}
}

func TestGenerateWithoutKey(t *testing.T) {
	r := newRouter(t)

	w := do(r, http.MethodPost, "/api/v1/gpt", `{"prompt":"acid line"}`)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("POST /api/v1/gpt = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestListActivity(t *testing.T) {
	r := newRouter(t)

	do(r, http.MethodGet, "/api/v1/machines", "")
	w := do(r, http.MethodGet, "/api/v1/activity", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /api/v1/activity = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), studio.ActionMachines) {
		t.Errorf("activity = %s, want %s", w.Body.String(), studio.ActionMachines)
	}
}
