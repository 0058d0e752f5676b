package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hazyhaar/scribe/editor"
)

func runScribe(t *testing.T, dir, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errb bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errb)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--recent-db", filepath.Join(dir, "scribe.db")}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestWriteThenOpen_Text(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")

	if _, err := runScribe(t, dir, "line one\r\nline two\n", "write", path); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "line one\r\nline two\n" {
		t.Fatalf("on disk = %q", data)
	}

	out, err := runScribe(t, dir, "", "open", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	var opened struct {
		Format  string `json:"format"`
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal([]byte(out), &opened); err != nil {
		t.Fatalf("open output %q: %v", out, err)
	}
	if opened.Format != "txt" || opened.Title != "line one" || opened.Content != "line one\r\nline two\n" {
		t.Fatalf("opened = %+v", opened)
	}
}

func TestWriteThenExport_Docx(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.docx")
	src := filepath.Join(dir, "body.html")
	if err := os.WriteFile(src, []byte("<h1>Report</h1><p><strong>bold</strong> text</p>"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := runScribe(t, dir, "", "write", path, "--from", src); err != nil {
		t.Fatalf("write: %v", err)
	}
	out, err := runScribe(t, dir, "", "export", path)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(out, "# Report") || !strings.Contains(out, "**bold**") {
		t.Fatalf("markdown = %q", out)
	}
}

func TestCreate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "draft.txt")
	if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := runScribe(t, dir, "", "create", path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if strings.TrimSpace(out) != path {
		t.Fatalf("printed %q, want %q", out, path)
	}
	if data, _ := os.ReadFile(path); len(data) != 0 {
		t.Fatalf("not truncated: %q", data)
	}
}

func TestCreateThenExport_Docx(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "new.docx")

	if _, err := runScribe(t, dir, "", "create", path); err != nil {
		t.Fatalf("create: %v", err)
	}
	out, err := runScribe(t, dir, "", "export", path)
	if err != nil {
		t.Fatalf("export of a new document: %v", err)
	}
	if strings.TrimSpace(out) != "" {
		t.Fatalf("markdown = %q, want empty", out)
	}
}

func TestOpen_Missing(t *testing.T) {
	dir := t.TempDir()
	if _, err := runScribe(t, dir, "", "open", filepath.Join(dir, "nope.txt")); err == nil {
		t.Fatal("expected error")
	}
}

func TestRecent(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.txt", "b.txt"} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(name), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := runScribe(t, dir, "", "open", path); err != nil {
			t.Fatalf("open %s: %v", name, err)
		}
	}

	out, err := runScribe(t, dir, "", "recent", "--limit", "1")
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	var entries []struct {
		Path string `json:"path"`
	}
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || filepath.Base(entries[0].Path) != "b.txt" {
		t.Fatalf("entries = %+v", entries)
	}

	if _, err := runScribe(t, dir, "", "recent", "--clear"); err != nil {
		t.Fatalf("recent --clear: %v", err)
	}
	out, err = runScribe(t, dir, "", "recent")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != "[]" {
		t.Fatalf("after clear = %q", out)
	}
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("recent_limit: -1\nhttp_addr: nope\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := runScribe(t, dir, "", "--config", bad, "recent"); err == nil {
		t.Fatal("expected config error")
	}
}

func TestParseLevel(t *testing.T) {
	for _, s := range []string{"debug", "info", "warn", "error", ""} {
		if _, err := parseLevel(s); err != nil {
			t.Errorf("parseLevel(%q): %v", s, err)
		}
	}
	if _, err := parseLevel("loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestHTTPHandler(t *testing.T) {
	ed, err := editor.New(editor.Config{RecentDB: filepath.Join(t.TempDir(), "scribe.db")}, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer ed.Close(context.Background())

	srv := httptest.NewServer(newHTTPHandler(ed))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health = %d", resp.StatusCode)
	}

	resp, err = http.Post(srv.URL+"/intents/docpipe_detect", "application/json", strings.NewReader(`{"path":"a.docx"}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["format"] != "docx" {
		t.Fatalf("detect = %v", body)
	}
}

func TestHTTPHandler_SecurityHeaders(t *testing.T) {
	ed, err := editor.New(editor.Config{RecentDB: filepath.Join(t.TempDir(), "scribe.db")}, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer ed.Close(context.Background())

	rec := httptest.NewRecorder()
	newHTTPHandler(ed).ServeHTTP(rec, httptest.NewRequest(http.MethodHead, "/document", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("HEAD /document = %d", rec.Code)
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatal("security headers missing")
	}
}

func TestRootFlag(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "work")
	if err := os.Mkdir(root, 0o755); err != nil {
		t.Fatal(err)
	}
	outside := filepath.Join(dir, "outside.txt")
	if err := os.WriteFile(outside, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := runScribe(t, dir, "", "--root", root, "open", outside); err == nil {
		t.Fatal("expected error opening outside root")
	}
	if _, err := runScribe(t, dir, "hi", "--root", root, "write", "inside.txt"); err != nil {
		t.Fatalf("write inside root: %v", err)
	}
	if data, _ := os.ReadFile(filepath.Join(root, "inside.txt")); string(data) != "hi" {
		t.Fatalf("inside.txt = %q", data)
	}
}
