package assetlib_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	assetlib "github.com/goliatone/go-asset-library"
	"github.com/goliatone/go-asset-library/internal/di"
	"github.com/goliatone/go-asset-library/pkg/interfaces"
)

func snippetServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/asset-library/api/v2/tags/":
			_ = json.NewEncoder(w).Encode(map[string]any{"objects": []any{}})
		case "/asset-library/api/v2/snippets/":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"objects": []map[string]any{
					{"id": 1, "name": "short", "contents": "Hi there", "date_created": "2024-01-02T03:04:05Z", "date_modified": "2024-01-02T03:04:05Z"},
					{"id": 2, "name": "long", "contents": "A much longer snippet body", "date_created": "2024-01-02T03:04:05Z", "date_modified": "2024-01-02T03:04:05Z"},
				},
				"meta": map[string]any{"page": 1, "num_pages": 1},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func snippetConfig(origin string) assetlib.Config {
	cfg := assetlib.DefaultConfig()
	cfg.Origin = origin
	cfg.Kinds = assetlib.KindsConfig{Snippets: true}
	cfg.Browse.Debounce = 0
	return cfg
}

func TestPickSnippetRespectsMaxLength(t *testing.T) {
	srv := snippetServer(t)
	mod, err := assetlib.New(snippetConfig(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer mod.Close()

	var selected []interfaces.AssetSelection
	picker, err := mod.PickSnippet(context.Background(), func(sel interfaces.AssetSelection) {
		selected = append(selected, sel)
	}, 10)
	if err != nil {
		t.Fatalf("PickSnippet: %v", err)
	}

	snap := picker.Browser.Snapshot()
	if len(snap.Assets) != 2 {
		t.Fatalf("expected two snippets, got %d", len(snap.Assets))
	}
	if !picker.Strategy.IsFit(snap.Assets[0]) || picker.Strategy.IsFit(snap.Assets[1]) {
		t.Fatalf("unexpected fit results for max length 10")
	}

	if err := picker.Browser.Select(context.Background(), snap.Assets[0]); err != nil {
		t.Fatalf("select short: %v", err)
	}
	if len(selected) != 1 || selected[0].Content != "Hi there" || selected[0].AssetID != 1 {
		t.Fatalf("unexpected selection %+v", selected)
	}
	if err := picker.Browser.Select(context.Background(), snap.Assets[1]); err == nil {
		t.Fatalf("expected error selecting an unfit snippet")
	}
	if len(selected) != 1 {
		t.Fatalf("unfit snippet must not reach the callback")
	}
}

func TestMissingPickerIsLoggedAndInert(t *testing.T) {
	srv := snippetServer(t)
	rec := &errorRecorder{}
	mod, err := assetlib.New(snippetConfig(srv.URL), di.WithLoggerProvider(rec))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer mod.Close()

	if mod.Images() != nil {
		t.Fatalf("expected nil image picker")
	}
	if _, err := mod.PickFile(context.Background(), nil); !errors.Is(err, assetlib.ErrPickerUnavailable) {
		t.Fatalf("expected ErrPickerUnavailable, got %v", err)
	}
	if got := rec.count("assets.picker.unavailable"); got != 2 {
		t.Fatalf("expected two unavailable diagnostics, got %d", got)
	}
}

type errorRecorder struct {
	mu     sync.Mutex
	errors []string
}

func (r *errorRecorder) GetLogger(string) interfaces.Logger { return &errorLogger{rec: r} }

func (r *errorRecorder) count(msg string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, entry := range r.errors {
		if entry == msg {
			n++
		}
	}
	return n
}

type errorLogger struct{ rec *errorRecorder }

func (l *errorLogger) Trace(string, ...any) {}
func (l *errorLogger) Debug(string, ...any) {}
func (l *errorLogger) Info(string, ...any)  {}
func (l *errorLogger) Warn(string, ...any)  {}
func (l *errorLogger) Error(msg string, _ ...any) {
	l.rec.mu.Lock()
	l.rec.errors = append(l.rec.errors, msg)
	l.rec.mu.Unlock()
}
func (l *errorLogger) Fatal(string, ...any)                         {}
func (l *errorLogger) WithFields(map[string]any) interfaces.Logger  { return l }
func (l *errorLogger) WithContext(context.Context) interfaces.Logger { return l }
