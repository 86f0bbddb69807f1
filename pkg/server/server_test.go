package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/ovecast/ovecast/pkg/asset"
	"github.com/ovecast/ovecast/pkg/canvas"
	"github.com/ovecast/ovecast/pkg/config"
	"github.com/ovecast/ovecast/pkg/content"
	"github.com/ovecast/ovecast/pkg/pipeline"
)

func testServer(t *testing.T, opts Options) (*Server, string) {
	t.Helper()
	dir := t.TempDir()
	opts.Dir = dir
	if opts.Mode == "" {
		opts.Mode = config.ModeDevelopment
	}
	opts.Background = true
	store, err := asset.NewStore(dir, "http://localhost:8000")
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	logger := log.New(io.Discard)
	client := canvas.NewClient("http://localhost:8080", config.ModeDevelopment, logger)
	runner := pipeline.NewRunner(client, store, logger)
	return New(runner, opts, logger), dir
}

func postJSON(t *testing.T, ts *httptest.Server, path string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	resp, err := http.Post(ts.URL+path, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

func TestModeEndpoint(t *testing.T) {
	srv, _ := testServer(t, Options{Mode: config.ModeDevelopment})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/mode")
	if err != nil {
		t.Fatalf("GET /mode: %v", err)
	}
	defer resp.Body.Close()
	var got map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["mode"] != "development" {
		t.Errorf("mode = %q, want development", got["mode"])
	}
}

func TestControlFlow(t *testing.T) {
	srv, dir := testServer(t, Options{})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp := postJSON(t, ts, "/config", map[string]any{
		"id":   "nb-1",
		"data": map[string]any{"space": "LocalNine", "rows": 2, "cols": 2},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST /config status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	cell := 1
	resp = postJSON(t, ts, "/tee", map[string]any{
		"id":   "nb-1",
		"data": map[string]any{"cell_no": cell},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST /tee status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = postJSON(t, ts, "/output", map[string]any{
		"id":      "nb-1",
		"cell_no": cell,
		"data": []map[string]any{
			{"idx": 0, "type": string(content.HTML), "data": "<p>hello</p>"},
		},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST /output status = %d", resp.StatusCode)
	}
	var urls []struct {
		Index int    `json:"idx"`
		URL   string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&urls); err != nil {
		t.Fatalf("decode /output response: %v", err)
	}
	resp.Body.Close()
	if len(urls) != 1 || !strings.Contains(urls[0].URL, "control.html?oveSectionId=") {
		t.Errorf("control urls = %v", urls)
	}
	if _, err := os.Stat(filepath.Join(dir, "cell-1-0.html")); err != nil {
		t.Errorf("asset not written: %v", err)
	}
}

func TestOutputWithoutPlacement(t *testing.T) {
	srv, _ := testServer(t, Options{})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp := postJSON(t, ts, "/config", map[string]any{
		"id":   "nb-1",
		"data": map[string]any{"space": "LocalNine", "rows": 2, "cols": 2},
	})
	resp.Body.Close()

	resp = postJSON(t, ts, "/output", map[string]any{
		"id": "nb-1", "cell_no": 9,
		"data": []map[string]any{{"idx": 0, "type": "html", "data": "<p>x</p>"}},
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("POST /output without tee status = %d, want 404", resp.StatusCode)
	}
}

func TestUnknownSession(t *testing.T) {
	srv, _ := testServer(t, Options{})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp := postJSON(t, ts, "/tee", map[string]any{"id": "nope", "data": map[string]any{"cell_no": 1}})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("POST /tee unknown session status = %d, want 404", resp.StatusCode)
	}
}

func TestControllerSuppressesPerOutputURLs(t *testing.T) {
	srv, dir := testServer(t, Options{})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	postJSON(t, ts, "/config", map[string]any{
		"id":   "nb-1",
		"data": map[string]any{"space": "LocalNine", "rows": 2, "cols": 2},
	}).Body.Close()
	postJSON(t, ts, "/controller", map[string]any{"id": "nb-1"}).Body.Close()
	postJSON(t, ts, "/tee", map[string]any{"id": "nb-1", "data": map[string]any{"cell_no": 1}}).Body.Close()

	resp := postJSON(t, ts, "/output", map[string]any{
		"id": "nb-1", "cell_no": 1,
		"data": []map[string]any{{"idx": 0, "type": "html", "data": "<p>x</p>"}},
	})
	var urls []any
	if err := json.NewDecoder(resp.Body).Decode(&urls); err != nil {
		t.Fatalf("decode: %v", err)
	}
	resp.Body.Close()
	if len(urls) != 0 {
		t.Errorf("multi-controller session returned %d control urls, want 0", len(urls))
	}
	if _, err := os.Stat(filepath.Join(dir, "controller.html")); err != nil {
		t.Errorf("controller.html not emitted: %v", err)
	}
}

func TestBasicAuth(t *testing.T) {
	srv, _ := testServer(t, Options{Username: "user", Password: "secret"})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/mode")
	if err != nil {
		t.Fatalf("GET /mode: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("unauthenticated status = %d, want 401", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/mode", nil)
	req.SetBasicAuth("user", "secret")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /mode with auth: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("authenticated status = %d, want 200", resp.StatusCode)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := testServer(t, Options{})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/mode", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("OPTIONS: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("preflight status = %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func writeAsset(t *testing.T, dir, name string, data []byte) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestFileServeFull(t *testing.T) {
	srv, dir := testServer(t, Options{})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()
	writeAsset(t, dir, "cell-1-0.html", []byte("<p>hello</p>"))

	resp, err := http.Get(ts.URL + "/cell-1-0.html")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "<p>hello</p>" {
		t.Errorf("body = %q", body)
	}
}

func TestFileServeRange(t *testing.T) {
	srv, dir := testServer(t, Options{})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()
	data := make([]byte, 500)
	for i := range data {
		data[i] = byte(i)
	}
	writeAsset(t, dir, "clip.mp4", data)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantRange  string
		wantLen    int
	}{
		{"bounded", "bytes=0-99", http.StatusPartialContent, "bytes 0-99/500", 100},
		{"open ended", "bytes=450-", http.StatusPartialContent, "bytes 450-499/500", 50},
		{"end past size", "bytes=490-9999", http.StatusPartialContent, "bytes 490-499/500", 10},
		{"malformed", "bytes=abc", http.StatusOK, "", 500},
		{"missing", "", http.StatusOK, "", 500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, ts.URL+"/clip.mp4", nil)
			if tt.header != "" {
				req.Header.Set("Range", tt.header)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("GET: %v", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if got := resp.Header.Get("Content-Range"); got != tt.wantRange {
				t.Errorf("Content-Range = %q, want %q", got, tt.wantRange)
			}
			body, _ := io.ReadAll(resp.Body)
			if len(body) != tt.wantLen {
				t.Errorf("body length = %d, want %d", len(body), tt.wantLen)
			}
		})
	}
}

func TestFileServeRangeContent(t *testing.T) {
	srv, dir := testServer(t, Options{})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()
	writeAsset(t, dir, "clip.mp4", []byte("0123456789"))

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/clip.mp4", nil)
	req.Header.Set("Range", "bytes=3-6")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "3456" {
		t.Errorf("range body = %q, want 3456", body)
	}
}

func TestFileServeRangeUnsatisfiable(t *testing.T) {
	srv, dir := testServer(t, Options{})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()
	writeAsset(t, dir, "clip.mp4", []byte("0123456789"))

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/clip.mp4", nil)
	req.Header.Set("Range", "bytes=100-")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusRequestedRangeNotSatisfiable {
		t.Errorf("status = %d, want 416", resp.StatusCode)
	}
}

func TestFileServeHead(t *testing.T) {
	srv, dir := testServer(t, Options{})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()
	writeAsset(t, dir, "clip.mp4", []byte("0123456789"))

	resp, err := http.Head(ts.URL + "/clip.mp4")
	if err != nil {
		t.Fatalf("HEAD: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if len(body) != 0 {
		t.Errorf("HEAD returned %d body bytes", len(body))
	}
}

func TestFileServeIndexAndRedirect(t *testing.T) {
	srv, dir := testServer(t, Options{})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()
	if err := os.Mkdir(filepath.Join(dir, "docs"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeAsset(t, dir, filepath.Join("docs", "index.html"), []byte("<h1>docs</h1>"))

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	resp, err := client.Get(ts.URL + "/docs")
	if err != nil {
		t.Fatalf("GET /docs: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMovedPermanently {
		t.Fatalf("GET /docs status = %d, want 301", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/docs/" {
		t.Errorf("Location = %q", loc)
	}

	full, err := http.Get(ts.URL + "/docs/")
	if err != nil {
		t.Fatalf("GET /docs/: %v", err)
	}
	defer full.Body.Close()
	body, _ := io.ReadAll(full.Body)
	if string(body) != "<h1>docs</h1>" {
		t.Errorf("index body = %q", body)
	}
}

func TestFileServeListing(t *testing.T) {
	srv, dir := testServer(t, Options{})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()
	writeAsset(t, dir, "cell-1-0.html", []byte("x"))
	writeAsset(t, dir, "cell-2-0.html", []byte("y"))

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	for _, name := range []string{"cell-1-0.html", "cell-2-0.html"} {
		if !strings.Contains(string(body), name) {
			t.Errorf("listing missing %s", name)
		}
	}
}

func TestFileServeEscapesRoot(t *testing.T) {
	srv, dir := testServer(t, Options{})
	f := &files{dir: dir}
	for _, p := range []string{"/../secret", "/a/../../secret", "/./../secret"} {
		got := f.resolve(p)
		if !strings.HasPrefix(got, dir) {
			t.Errorf("resolve(%q) = %q escapes the root", p, got)
		}
	}
	_ = srv

	writeAsset(t, dir, "ok.txt", []byte("fine"))
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()
	resp, err := http.Get(fmt.Sprintf("%s/%%2e%%2e/ok.txt", ts.URL))
	if err != nil {
		t.Fatalf("GET traversal: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode == http.StatusInternalServerError {
		t.Errorf("traversal request caused server error")
	}
}
