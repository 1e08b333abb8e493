package browse_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-asset-library/internal/assetapi"
	"github.com/goliatone/go-asset-library/internal/browse"
)

func TestControllerScenarioAPaginatesResults(t *testing.T) {
	service := &fakeService{respond: func(string) (*assetapi.ListResponse, error) {
		return assetsPage(20, 1, 3), nil
	}}
	clock := &manualClock{}
	ctrl := newImageController(service, clock)

	if err := ctrl.SetSearch("logo"); err != nil {
		t.Fatalf("SetSearch: %v", err)
	}
	if err := ctrl.Prepare(context.Background()); err != nil {
		t.Fatalf("Prepare: %v", err)
	}

	snap := ctrl.Snapshot()
	if snap.NumPages != 3 {
		t.Fatalf("expected 3 pages, got %d", snap.NumPages)
	}
	if len(snap.PageRange) != 3 || snap.PageRange[0] != 1 || snap.PageRange[2] != 3 {
		t.Fatalf("unexpected page range %v", snap.PageRange)
	}
	if ctrl.NoAssets() || snap.Loading {
		t.Fatalf("expected assets to be shown, got %+v", snap)
	}
	if snap.Status != browse.StatusNormal {
		t.Fatalf("expected normal status after prepare, got %s", snap.Status)
	}

	calls := service.calls()
	if len(calls) != 1 {
		t.Fatalf("expected one immediate fetch, got %v", calls)
	}
	if got := queryOf(calls[0]); got != "extension=PNG%2CJPG&search=logo&sort_by=name&page=1&limit=20" {
		t.Fatalf("unexpected query %q", got)
	}
}

func TestControllerScenarioBEmptyResult(t *testing.T) {
	service := &fakeService{respond: func(string) (*assetapi.ListResponse, error) {
		return assetsPage(0, 1, 0), nil
	}}
	ctrl := newImageController(service, &manualClock{})

	if err := ctrl.Prepare(context.Background()); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	snap := ctrl.Snapshot()
	if !ctrl.NoAssets() || snap.NumPages != 0 || len(snap.PageRange) != 0 {
		t.Fatalf("expected empty result, got %+v", snap)
	}
}

func TestControllerNoAssetsFalseWhileLoading(t *testing.T) {
	ctrl := newImageController(&fakeService{}, &manualClock{})
	if ctrl.NoAssets() {
		t.Fatal("a session that has not loaded yet must not report no assets")
	}
}

func TestControllerDebounceCoalescesMutations(t *testing.T) {
	service := &fakeService{respond: func(string) (*assetapi.ListResponse, error) {
		return assetsPage(1, 1, 1), nil
	}}
	clock := &manualClock{}
	ctrl := newImageController(service, clock)
	if err := ctrl.Prepare(context.Background()); err != nil {
		t.Fatalf("Prepare: %v", err)
	}

	for _, search := range []string{"l", "lo", "log", "logo"} {
		if err := ctrl.SetSearch(search); err != nil {
			t.Fatalf("SetSearch: %v", err)
		}
	}
	if err := ctrl.SetSort("newest_first"); err != nil {
		t.Fatalf("SetSort: %v", err)
	}
	if !ctrl.Snapshot().Loading {
		t.Fatal("expected loading while a fetch is pending")
	}
	if fired := clock.Fire(); fired != 1 {
		t.Fatalf("expected a single debounced fetch, fired %d", fired)
	}

	calls := service.calls()
	if len(calls) != 2 {
		t.Fatalf("expected initial + one coalesced fetch, got %v", calls)
	}
	if got := queryOf(calls[1]); !strings.Contains(got, "search=logo") || !strings.Contains(got, "sort_by=newest_first") {
		t.Fatalf("coalesced fetch should use the final state, got %q", got)
	}
}

func TestControllerMutationsBeforePrepareDoNotFetch(t *testing.T) {
	service := &fakeService{}
	clock := &manualClock{}
	ctrl := newImageController(service, clock)

	_ = ctrl.SetSearch("logo")
	_ = ctrl.SetTag("3")
	if clock.Pending() != 0 || len(service.calls()) != 0 {
		t.Fatalf("expected no fetch before prepare, pending=%d calls=%v", clock.Pending(), service.calls())
	}
}

func TestControllerSetPageBounds(t *testing.T) {
	service := &fakeService{respond: func(url string) (*assetapi.ListResponse, error) {
		page := 1
		if strings.Contains(url, "page=2") {
			page = 2
		}
		return assetsPage(20, page, 3), nil
	}}
	clock := &manualClock{}
	ctrl := newImageController(service, clock)
	if err := ctrl.Prepare(context.Background()); err != nil {
		t.Fatalf("Prepare: %v", err)
	}

	for _, page := range []int{0, -1, 4, 1} {
		if ctrl.SetPage(page) {
			t.Fatalf("SetPage(%d) should be ignored", page)
		}
	}
	snap := ctrl.Snapshot()
	if snap.Filter.Page != 1 || snap.Loading || clock.Pending() != 0 {
		t.Fatalf("ignored SetPage must not change state, got %+v pending=%d", snap, clock.Pending())
	}

	if !ctrl.SetPage(2) {
		t.Fatal("SetPage(2) should be accepted")
	}
	if !ctrl.Snapshot().Loading {
		t.Fatal("expected optimistic loading after SetPage")
	}
	clock.Fire()
	calls := service.calls()
	if got := queryOf(calls[len(calls)-1]); !strings.Contains(got, "page=2") {
		t.Fatalf("expected page 2 fetch, got %q", got)
	}
	if ctrl.Snapshot().Filter.Page != 2 {
		t.Fatalf("expected page 2, got %d", ctrl.Snapshot().Filter.Page)
	}

	if !ctrl.IncPage() {
		t.Fatal("IncPage should move to page 3")
	}
	if ctrl.Snapshot().Filter.Page != 3 {
		t.Fatalf("expected page 3, got %d", ctrl.Snapshot().Filter.Page)
	}
	if ctrl.IncPage() {
		t.Fatal("IncPage beyond the last page should be ignored")
	}
	if !ctrl.DecPage() || ctrl.Snapshot().Filter.Page != 2 {
		t.Fatalf("DecPage should move back to page 2, got %d", ctrl.Snapshot().Filter.Page)
	}
}

func TestControllerFilterChangeResetsPage(t *testing.T) {
	service := &fakeService{respond: func(url string) (*assetapi.ListResponse, error) {
		if strings.Contains(url, "page=2") {
			return assetsPage(5, 2, 2), nil
		}
		return assetsPage(20, 1, 2), nil
	}}
	clock := &manualClock{}
	ctrl := newImageController(service, clock)
	_ = ctrl.Prepare(context.Background())
	ctrl.SetPage(2)
	clock.Fire()

	if err := ctrl.SetTag("7"); err != nil {
		t.Fatalf("SetTag: %v", err)
	}
	if got := ctrl.Snapshot().Filter.Page; got != 1 {
		t.Fatalf("expected filter change to reset page, got %d", got)
	}

	keep := newImageController(service, &manualClock{}, browse.WithResetPageOnFilterChange(false))
	_ = keep.Prepare(context.Background())
	keep.SetPage(2)
	_ = keep.Refresh(context.Background())
	_ = keep.SetTag("7")
	if got := keep.Snapshot().Filter.Page; got != 2 {
		t.Fatalf("expected page to be kept when reset is disabled, got %d", got)
	}
}

func TestControllerRejectsUnknownFilterValues(t *testing.T) {
	ctrl := newImageController(&fakeService{}, &manualClock{})
	cases := []struct {
		field browse.Field
		value string
	}{
		{browse.FieldSort, "size"},
		{browse.FieldSource, "inbox"},
		{browse.FieldLimit, "500"},
		{browse.FieldPage, "abc"},
		{browse.Field("color"), "red"},
	}
	for _, tc := range cases {
		err := ctrl.SetFilter(tc.field, tc.value)
		if err == nil || !goerrors.IsCategory(err, goerrors.CategoryValidation) {
			t.Fatalf("SetFilter(%s, %q): expected validation error, got %v", tc.field, tc.value, err)
		}
	}
	if err := ctrl.SetViewStyle("table"); err == nil {
		t.Fatal("expected invalid view style to be rejected")
	}
	if err := ctrl.SetViewStyle(browse.ViewList); err != nil || ctrl.Snapshot().ViewStyle != browse.ViewList {
		t.Fatalf("expected list view, got %v", err)
	}
}

func TestControllerFetchFailureKeepsPreviousResults(t *testing.T) {
	fail := false
	service := &fakeService{respond: func(string) (*assetapi.ListResponse, error) {
		if fail {
			return nil, errors.New("502")
		}
		return assetsPage(20, 1, 3), nil
	}}
	ctrl := newImageController(service, &manualClock{})
	_ = ctrl.Prepare(context.Background())

	ctrl.SetStatus(browse.StatusUploading)
	fail = true
	if err := ctrl.Refresh(context.Background()); err == nil {
		t.Fatal("expected refresh error")
	}
	snap := ctrl.Snapshot()
	if snap.Error != "Can't fetch list of assets from server" {
		t.Fatalf("unexpected error message %q", snap.Error)
	}
	if len(snap.Assets) != 20 || snap.NumPages != 3 {
		t.Fatalf("expected previous results to remain, got %d assets", len(snap.Assets))
	}
	if snap.Loading || snap.Status != browse.StatusNormal {
		t.Fatalf("expected loading cleared and normal status, got %+v", snap)
	}

	fail = false
	if err := ctrl.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if ctrl.Snapshot().Error != "" {
		t.Fatal("a successful refresh should clear the fetch error")
	}
}

func TestControllerPrepareFetchesTagsOnce(t *testing.T) {
	service := &fakeService{tags: []assetapi.Tag{{ID: 1, Name: "summer"}}}
	clock := &manualClock{}
	ctrl := newImageController(service, clock)

	for i := 0; i < 3; i++ {
		if err := ctrl.Prepare(context.Background()); err != nil {
			t.Fatalf("Prepare #%d: %v", i, err)
		}
	}
	if service.tagCalls != 1 {
		t.Fatalf("expected tags to be fetched once, got %d", service.tagCalls)
	}
	if got := ctrl.Snapshot().Tags; len(got) != 1 || got[0].Name != "summer" {
		t.Fatalf("unexpected tags %v", got)
	}
	if len(service.calls()) != 3 {
		t.Fatalf("expected every prepare to refresh, got %d fetches", len(service.calls()))
	}

	_ = ctrl.SetSearch("x")
	if clock.Pending() != 1 {
		t.Fatalf("repeated prepare must not double-subscribe, pending=%d", clock.Pending())
	}
}

func TestControllerTagFailureReportsError(t *testing.T) {
	service := &fakeService{tagsErr: errors.New("timeout")}
	ctrl := newImageController(service, &manualClock{})

	if err := ctrl.Prepare(context.Background()); err == nil {
		t.Fatal("expected tag error from prepare")
	}
	if got := ctrl.Snapshot().Error; got != "Can't fetch list of tags from server" {
		t.Fatalf("unexpected error %q", got)
	}

	service.tagsErr = nil
	_ = ctrl.Prepare(context.Background())
	if service.tagCalls != 2 {
		t.Fatalf("expected a failed tag fetch to be retried on the next prepare, got %d calls", service.tagCalls)
	}
}

func TestControllerDropsStaleResponses(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once
	service := &fakeService{respond: func(url string) (*assetapi.ListResponse, error) {
		if strings.Contains(url, "search=slow") {
			once.Do(func() { close(started) })
			<-release
			return assetsPage(1, 1, 1), nil
		}
		return assetsPage(3, 1, 1), nil
	}}
	ctrl := newImageController(service, &manualClock{})

	_ = ctrl.SetSearch("slow")
	slowDone := make(chan error, 1)
	go func() { slowDone <- ctrl.Refresh(context.Background()) }()
	<-started

	_ = ctrl.SetSearch("fast")
	if err := ctrl.Refresh(context.Background()); err != nil {
		t.Fatalf("fast refresh: %v", err)
	}
	close(release)

	if err := <-slowDone; !errors.Is(err, browse.ErrStaleResponse) {
		t.Fatalf("expected stale response error, got %v", err)
	}
	snap := ctrl.Snapshot()
	if len(snap.Assets) != 3 || snap.Filter.Search != "fast" {
		t.Fatalf("stale response must not overwrite newer results, got %d assets", len(snap.Assets))
	}
}

func TestControllerClampsPageWhenPagesShrink(t *testing.T) {
	shrink := false
	service := &fakeService{respond: func(url string) (*assetapi.ListResponse, error) {
		if shrink {
			return assetsPage(0, 3, 2), nil
		}
		page := 1
		if strings.Contains(url, "page=3") {
			page = 3
		}
		return assetsPage(20, page, 3), nil
	}}
	clock := &manualClock{}
	ctrl := newImageController(service, clock)
	_ = ctrl.Prepare(context.Background())
	ctrl.SetPage(3)
	clock.Fire()

	shrink = true
	if err := ctrl.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	snap := ctrl.Snapshot()
	if snap.Filter.Page != 2 {
		t.Fatalf("expected page clamped to 2, got %d", snap.Filter.Page)
	}
	if clock.Pending() != 1 {
		t.Fatal("expected a refetch of the clamped page to be scheduled")
	}
}

func TestControllerReportErrorResetsUploadingStatus(t *testing.T) {
	ctrl := newImageController(&fakeService{}, &manualClock{})
	ctrl.SetStatus(browse.StatusUploading)

	var seen []browse.Snapshot
	unsubscribe := ctrl.Subscribe(func(s browse.Snapshot) { seen = append(seen, s) })
	ctrl.ReportError("Oops, can't upload the file")
	unsubscribe()
	ctrl.ClearError()

	if len(seen) != 1 {
		t.Fatalf("expected one notification before unsubscribe, got %d", len(seen))
	}
	if seen[0].Error != "Oops, can't upload the file" || seen[0].Status != browse.StatusNormal {
		t.Fatalf("unexpected snapshot %+v", seen[0])
	}
	if ctrl.Snapshot().Error != "" {
		t.Fatal("expected ClearError to remove the message")
	}
}

func TestControllerSelectChecksFit(t *testing.T) {
	ctrl := newImageController(&fakeService{}, &manualClock{})
	var reported []string
	ctrl.Subscribe(func(s browse.Snapshot) {
		if s.Error != "" {
			reported = append(reported, s.Error)
		}
	})

	err := ctrl.Select(context.Background(), assetapi.Asset{ID: 1, SelectURL: "/x/"})
	if err == nil {
		t.Fatal("expected selection without a selector to fail")
	}
	if len(reported) != 1 || reported[0] != "Can't select image" {
		t.Fatalf("expected strategy error to surface through the controller, got %v", reported)
	}
}
