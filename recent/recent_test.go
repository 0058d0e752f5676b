package recent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/scribe/connectivity"
	"github.com/hazyhaar/scribe/dbopen"
	"github.com/hazyhaar/scribe/docpipe"
	"github.com/hazyhaar/scribe/session"
)

var _ session.Recents = (*Store)(nil)

func fakeClock() func() time.Time {
	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	n := 0
	return func() time.Time {
		n++
		return t0.Add(time.Duration(n) * time.Minute)
	}
}

func newTestStore(t *testing.T, limit int) *Store {
	t.Helper()
	s, err := New(dbopen.OpenMemory(t), Config{Limit: limit, Now: fakeClock()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func paths(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Path
	}
	return out
}

func TestAdd_List(t *testing.T) {
	s := newTestStore(t, 10)
	ctx := context.Background()

	for _, p := range []string{"/a.txt", "/b.docx", "/c.txt"} {
		if err := s.Add(ctx, p); err != nil {
			t.Fatalf("Add(%s): %v", p, err)
		}
	}

	entries, err := s.List(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	got := fmt.Sprint(paths(entries))
	if got != "[/c.txt /b.docx /a.txt]" {
		t.Fatalf("order = %s", got)
	}
	if entries[1].Format != docpipe.FormatRich || entries[0].Format != docpipe.FormatText {
		t.Fatalf("formats: %s, %s", entries[0].Format, entries[1].Format)
	}
	if want := time.Date(2026, 3, 1, 9, 3, 0, 0, time.UTC); !entries[0].OpenedAt.Equal(want) {
		t.Fatalf("opened_at = %v, want %v", entries[0].OpenedAt, want)
	}
}

func TestAdd_ReopenMovesToFront(t *testing.T) {
	s := newTestStore(t, 10)
	ctx := context.Background()

	for _, p := range []string{"/a.txt", "/b.txt", "/a.txt"} {
		if err := s.Add(ctx, p); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := s.List(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("len = %d, want 2", len(entries))
	}
	if entries[0].Path != "/a.txt" || entries[0].OpenCount != 2 {
		t.Fatalf("front = %+v", entries[0])
	}
	if entries[1].OpenCount != 1 {
		t.Fatalf("b count = %d", entries[1].OpenCount)
	}
}

func TestAdd_SameInstant(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s, err := New(dbopen.OpenMemory(t), Config{Now: func() time.Time { return fixed }})
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	for _, p := range []string{"/x", "/y", "/z", "/x"} {
		if err := s.Add(ctx, p); err != nil {
			t.Fatal(err)
		}
	}
	entries, err := s.List(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if got := fmt.Sprint(paths(entries)); got != "[/x /z /y]" {
		t.Fatalf("order = %s", got)
	}
}

func TestAdd_Prunes(t *testing.T) {
	s := newTestStore(t, 3)
	ctx := context.Background()

	for i := range 5 {
		if err := s.Add(ctx, fmt.Sprintf("/doc%d.txt", i)); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := s.List(ctx, 100)
	if err != nil {
		t.Fatal(err)
	}
	if got := fmt.Sprint(paths(entries)); got != "[/doc4.txt /doc3.txt /doc2.txt]" {
		t.Fatalf("kept = %s", got)
	}
}

func TestAdd_EmptyPath(t *testing.T) {
	s := newTestStore(t, 10)
	if err := s.Add(context.Background(), ""); !errors.Is(err, ErrEmptyPath) {
		t.Fatalf("err = %v, want ErrEmptyPath", err)
	}
}

func TestAdd_CancelledContext(t *testing.T) {
	s := newTestStore(t, 10)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Add(ctx, "/a.txt"); err == nil {
		t.Fatal("expected error on cancelled context")
	}
}

func TestList_Limit(t *testing.T) {
	s := newTestStore(t, 10)
	ctx := context.Background()
	for i := range 4 {
		if err := s.Add(ctx, fmt.Sprintf("/%d.txt", i)); err != nil {
			t.Fatal(err)
		}
	}
	entries, err := s.List(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if got := fmt.Sprint(paths(entries)); got != "[/3.txt /2.txt]" {
		t.Fatalf("limited = %s", got)
	}
}

func TestList_EmptyIsNotNil(t *testing.T) {
	s := newTestStore(t, 10)
	entries, err := s.List(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if entries == nil || len(entries) != 0 {
		t.Fatalf("entries = %#v", entries)
	}
}

func TestRemove(t *testing.T) {
	s := newTestStore(t, 10)
	ctx := context.Background()
	s.Add(ctx, "/a.txt")
	s.Add(ctx, "/b.txt")

	if err := s.Remove(ctx, "/a.txt"); err != nil {
		t.Fatal(err)
	}
	if err := s.Remove(ctx, "/missing.txt"); err != nil {
		t.Fatalf("remove unknown: %v", err)
	}
	entries, _ := s.List(ctx, 0)
	if got := fmt.Sprint(paths(entries)); got != "[/b.txt]" {
		t.Fatalf("after remove = %s", got)
	}
}

func TestClear(t *testing.T) {
	s := newTestStore(t, 10)
	ctx := context.Background()
	s.Add(ctx, "/a.txt")
	s.Add(ctx, "/b.txt")

	if err := s.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	entries, _ := s.List(ctx, 0)
	if len(entries) != 0 {
		t.Fatalf("after clear: %v", paths(entries))
	}
}

func TestOpen_Persists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "scribe.db")
	ctx := context.Background()

	s, err := Open(path, Config{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Add(ctx, "/notes.txt"); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s, err = Open(path, Config{})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	entries, err := s.List(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Path != "/notes.txt" {
		t.Fatalf("entries = %+v", entries)
	}
	if s.Limit() != 10 {
		t.Fatalf("default limit = %d", s.Limit())
	}
}

// --- transports ---

func TestConnectivity_ListClear(t *testing.T) {
	s := newTestStore(t, 10)
	ctx := context.Background()
	s.Add(ctx, "/a.txt")
	s.Add(ctx, "/b.docx")

	router := connectivity.New()
	s.RegisterConnectivity(router)

	out, err := router.Call(ctx, IntentList, []byte(`{"limit":1}`))
	if err != nil {
		t.Fatalf("Call(%s): %v", IntentList, err)
	}
	var resp struct {
		Entries []Entry `json:"entries"`
	}
	if err := json.Unmarshal(out, &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Entries) != 1 || resp.Entries[0].Path != "/b.docx" || resp.Entries[0].Format != docpipe.FormatRich {
		t.Fatalf("entries = %+v", resp.Entries)
	}

	if _, err := router.Call(ctx, IntentList, []byte(`{"limit":"x"}`)); err == nil {
		t.Fatal("expected decode error")
	}

	if _, err := router.Call(ctx, IntentClear, nil); err != nil {
		t.Fatalf("Call(%s): %v", IntentClear, err)
	}
	out, err = router.Call(ctx, IntentList, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(out, &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Entries) != 0 {
		t.Fatalf("after clear: %+v", resp.Entries)
	}
}

func TestMCP_ListClear(t *testing.T) {
	s := newTestStore(t, 10)
	ctx := context.Background()
	s.Add(ctx, "/a.txt")

	impl := &mcp.Implementation{Name: "recent-test", Version: "0.1.0"}
	srv := mcp.NewServer(impl, nil)
	s.RegisterMCP(srv)
	serverT, clientT := mcp.NewInMemoryTransports()
	go func() { _ = srv.Run(ctx, serverT) }()
	cs, err := mcp.NewClient(impl, nil).Connect(ctx, clientT, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	defer cs.Close()

	res, err := cs.CallTool(ctx, &mcp.CallToolParams{Name: IntentList, Arguments: map[string]any{}})
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("tool error: %v", res.GetError())
	}
	var resp struct {
		Entries []Entry `json:"entries"`
	}
	if err := json.Unmarshal([]byte(res.Content[0].(*mcp.TextContent).Text), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Entries) != 1 || resp.Entries[0].Path != "/a.txt" {
		t.Fatalf("entries = %+v", resp.Entries)
	}

	res, err = cs.CallTool(ctx, &mcp.CallToolParams{Name: IntentClear, Arguments: map[string]any{}})
	if err != nil || res.IsError {
		t.Fatalf("clear: %v %v", err, res)
	}
	entries, _ := s.List(ctx, 0)
	if len(entries) != 0 {
		t.Fatalf("after clear: %v", paths(entries))
	}
}
