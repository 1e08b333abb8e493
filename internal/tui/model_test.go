package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/goliatone/go-asset-library/internal/assetapi"
	"github.com/goliatone/go-asset-library/internal/browse"
	"github.com/goliatone/go-asset-library/internal/strategy"
	"github.com/goliatone/go-asset-library/pkg/interfaces"
)

type listEndpoints struct{}

func (listEndpoints) List(kind assetapi.Kind, query string) (string, error) {
	return "https://example.com/api/" + string(kind) + "/?" + query, nil
}

type catalog struct {
	assets []assetapi.Asset
}

func (c *catalog) ListAssets(context.Context, string) (*assetapi.ListResponse, error) {
	return &assetapi.ListResponse{
		Objects: c.assets,
		Meta:    assetapi.ListMeta{Page: 1, NumPages: 1},
	}, nil
}

func (c *catalog) ListTags(context.Context) ([]assetapi.Tag, error) {
	return []assetapi.Tag{{ID: 1, Name: "promo"}}, nil
}

func newSnippetModel(t *testing.T, maxLength int) (*Model, *[]interfaces.AssetSelection) {
	t.Helper()
	snippet := strategy.NewSnippet(strategy.Options{Endpoints: listEndpoints{}})
	snippet.SetMaxLength(maxLength)
	var selected []interfaces.AssetSelection
	snippet.SetCallback(func(sel interfaces.AssetSelection) { selected = append(selected, sel) })

	service := &catalog{assets: []assetapi.Asset{
		{ID: 1, Name: "greeting", Contents: "Hello"},
		{ID: 2, Name: "legal", Contents: "A very long disclaimer"},
	}}
	ctrl := browse.NewController(snippet, service, browse.WithDebounce(0))
	t.Cleanup(ctrl.Close)

	m := New(context.Background(), ctrl)
	msg := m.prepare()()
	if done, ok := msg.(prepareDoneMsg); !ok || done.err != nil {
		t.Fatalf("prepare failed: %#v", msg)
	}
	m.Update(snapshotMsg{snap: ctrl.Snapshot()})
	return m, &selected
}

func runCmd(t *testing.T, m *Model, cmd tea.Cmd) tea.Cmd {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	_, next := m.Update(cmd())
	return next
}

func TestModelSelectsFittingSnippet(t *testing.T) {
	m, selected := newSnippetModel(t, 10)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	next := runCmd(t, m, cmd)
	if next == nil {
		t.Fatal("expected quit after selection")
	}
	if _, ok := next().(tea.QuitMsg); !ok {
		t.Fatal("expected tea.Quit command")
	}

	asset, ok := m.Chosen()
	if !ok || asset.ID != 1 {
		t.Fatalf("unexpected chosen asset %+v", asset)
	}
	if len(*selected) != 1 || (*selected)[0].Content != "Hello" {
		t.Fatalf("unexpected callback payload %+v", *selected)
	}
}

func TestModelRejectsUnfitSnippet(t *testing.T) {
	m, selected := newSnippetModel(t, 10)

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	if m.cursor != 1 {
		t.Fatalf("expected cursor on second row, got %d", m.cursor)
	}
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	runCmd(t, m, cmd)

	if _, ok := m.Chosen(); ok {
		t.Fatal("unfit snippet must not be chosen")
	}
	if len(*selected) != 0 {
		t.Fatal("callback must not run for unfit snippets")
	}
	if !strings.Contains(m.View(), "legal is too long") {
		t.Fatalf("expected fit error in view:\n%s", m.View())
	}
}

func TestModelCursorStaysInBounds(t *testing.T) {
	m, _ := newSnippetModel(t, 0)
	for range 5 {
		m.Update(tea.KeyMsg{Type: tea.KeyDown})
	}
	if m.cursor != 1 {
		t.Fatalf("expected cursor clamped to last row, got %d", m.cursor)
	}
	for range 5 {
		m.Update(tea.KeyMsg{Type: tea.KeyUp})
	}
	if m.cursor != 0 {
		t.Fatalf("expected cursor clamped to first row, got %d", m.cursor)
	}
}

func TestModelViewRendersAssetsAndHelp(t *testing.T) {
	m, _ := newSnippetModel(t, 0)
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("v")})
	m.Update(snapshotMsg{snap: m.browser.Snapshot()})

	view := m.View()
	for _, want := range []string{"Snippets library", "greeting", "legal", "select"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
	if m.snap.ViewStyle != browse.ViewList {
		t.Fatalf("expected list view after toggle, got %s", m.snap.ViewStyle)
	}
}

func TestModelSearchAppliesFilter(t *testing.T) {
	m, _ := newSnippetModel(t, 0)
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/")})
	if m.mode != modeSearch {
		t.Fatal("expected search mode")
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("hi")})
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if m.mode != modeList {
		t.Fatal("expected list mode after enter")
	}
	if got := m.browser.Snapshot().Filter.Search; got != "hi" {
		t.Fatalf("expected search filter applied, got %q", got)
	}
}

func TestNextSortCycles(t *testing.T) {
	if got := nextSort("name"); got != "newest_first" {
		t.Fatalf("unexpected next sort %q", got)
	}
	if got := nextSort("oldest_first"); got != "name" {
		t.Fatalf("unexpected wrap %q", got)
	}
	if got := nextSort("bogus"); got != "name" {
		t.Fatalf("unexpected fallback %q", got)
	}
}
