package gologger

import (
	"context"
	"maps"
	"testing"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-asset-library/internal/logging"
)

type recorder struct {
	levels   []string
	fields   []map[string]any
	contexts []context.Context
}

var (
	_ glog.Logger       = (*recorder)(nil)
	_ glog.FieldsLogger = (*recorder)(nil)
)

func (r *recorder) Trace(string, ...any) { r.levels = append(r.levels, "trace") }
func (r *recorder) Debug(string, ...any) { r.levels = append(r.levels, "debug") }
func (r *recorder) Info(string, ...any)  { r.levels = append(r.levels, "info") }
func (r *recorder) Warn(string, ...any)  { r.levels = append(r.levels, "warn") }
func (r *recorder) Error(string, ...any) { r.levels = append(r.levels, "error") }
func (r *recorder) Fatal(string, ...any) { r.levels = append(r.levels, "fatal") }

func (r *recorder) WithContext(ctx context.Context) glog.Logger {
	r.contexts = append(r.contexts, ctx)
	return r
}

func (r *recorder) WithFields(fields map[string]any) glog.Logger {
	r.fields = append(r.fields, maps.Clone(fields))
	return r
}

func TestProviderFormats(t *testing.T) {
	for _, format := range []string{"", "json", "console", "pretty", " JSON "} {
		p, err := NewProvider(Config{Level: "debug", Format: format, Focus: []string{" assets.browse ", ""}})
		if err != nil {
			t.Fatalf("format %q: %v", format, err)
		}
		if p.GetLogger("assets.browse") == nil || p.GetLogger("") == nil {
			t.Fatalf("format %q: expected loggers", format)
		}
	}
	if _, err := NewProvider(Config{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNilProviderHandsOutNoOp(t *testing.T) {
	var p *Provider
	p.GetLogger("assets.editor").Info("editor.command.applied")
}

func TestWithContextLiftsCommandFields(t *testing.T) {
	rec := &recorder{}
	logger := wrap(rec)

	ctx := logging.ContextWithFields(context.Background(), map[string]any{
		"command":    "assets.images.transform",
		"asset_kind": "images",
	})
	logger.WithContext(ctx).Info("assetapi.request.completed")

	if len(rec.contexts) != 1 || rec.contexts[0] != ctx {
		t.Fatalf("expected ctx to reach go-logger, got %#v", rec.contexts)
	}
	if len(rec.fields) != 1 || rec.fields[0]["asset_kind"] != "images" || rec.fields[0]["command"] != "assets.images.transform" {
		t.Fatalf("expected command fields lifted from ctx, got %v", rec.fields)
	}
	if len(rec.levels) != 1 || rec.levels[0] != "info" {
		t.Fatalf("unexpected levels: %v", rec.levels)
	}
}

func TestWithContextWithoutFieldsOnlyBinds(t *testing.T) {
	rec := &recorder{}
	wrap(rec).WithContext(context.Background()).Warn("browse.refresh.failed")

	if len(rec.fields) != 0 {
		t.Fatalf("expected no fields, got %v", rec.fields)
	}
	if len(rec.levels) != 1 || rec.levels[0] != "warn" {
		t.Fatalf("unexpected levels: %v", rec.levels)
	}
}

func TestWithFieldsClonesInput(t *testing.T) {
	rec := &recorder{}
	fields := map[string]any{"asset_kind": "images"}
	logging.WithFields(wrap(rec), fields).Debug("browse.refresh.start")
	fields["asset_kind"] = "files"

	if len(rec.fields) != 1 || rec.fields[0]["asset_kind"] != "images" {
		t.Fatalf("expected fields to be cloned, got %v", rec.fields)
	}
}

func TestLevelFor(t *testing.T) {
	cases := map[string]string{
		"trace":   glog.Trace,
		"DEBUG":   glog.Debug,
		" info ":  glog.Info,
		"warning": glog.Warn,
		"error":   glog.Error,
		"fatal":   glog.Fatal,
		"verbose": "",
	}
	for in, want := range cases {
		if got := levelFor(in); got != want {
			t.Fatalf("levelFor(%q) = %q, want %q", in, got, want)
		}
	}
}
