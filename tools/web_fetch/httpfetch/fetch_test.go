package httpfetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestExecStripsMarkupAndCollapsesWhitespace(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><head><title>T</title></head><body>
			<article><p>Paris   is<br>the capital<script>evil()</script> of France.</p></article>
		</body></html>`))
	}))
	defer srv.Close()

	f := &Fetch{Timeout: 5 * time.Second, MaxChars: 4000}
	text, err := f.Exec(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Exec failed: %v", err)
	}
	if strings.ContainsAny(text, "<>") {
		t.Fatalf("markup leaked into output: %q", text)
	}
	if strings.Contains(text, "evil()") {
		t.Fatalf("script content leaked: %q", text)
	}
	if strings.Contains(text, "  ") {
		t.Fatalf("whitespace not collapsed: %q", text)
	}
	if !strings.Contains(text, "Paris is") || !strings.Contains(text, "of France") {
		t.Fatalf("expected page text, got %q", text)
	}
}

func TestExecTruncatesToBudget(t *testing.T) {
	long := strings.Repeat("word ", 2000)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body><article><p>" + long + "</p></article></body></html>"))
	}))
	defer srv.Close()

	f := &Fetch{Timeout: 5 * time.Second, MaxChars: 100}
	text, err := f.Exec(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Exec failed: %v", err)
	}
	if len([]rune(text)) > 101 { // budget plus ellipsis
		t.Fatalf("text not truncated: %d runes", len([]rune(text)))
	}
	if !strings.HasSuffix(text, "…") {
		t.Fatalf("expected ellipsis marker, got %q", text[len(text)-10:])
	}
}

func TestExecRejectsBadInput(t *testing.T) {
	f := &Fetch{Timeout: time.Second, MaxChars: 100}
	if _, err := f.Exec(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty url")
	}
	if _, err := f.Exec(context.Background(), "ftp://example.com/x"); err == nil {
		t.Fatal("expected error for non-http scheme")
	}
}

func TestExecNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	f := &Fetch{Timeout: time.Second, MaxChars: 100}
	if _, err := f.Exec(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error for 404 response")
	}
}
