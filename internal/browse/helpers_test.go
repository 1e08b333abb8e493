package browse_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-asset-library/internal/assetapi"
	"github.com/goliatone/go-asset-library/internal/browse"
	"github.com/goliatone/go-asset-library/internal/strategy"
)

type manualTimer struct {
	fn      func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

type manualClock struct {
	mu     sync.Mutex
	timers []*manualTimer
	delays []time.Duration
}

func (m *manualClock) AfterFunc(d time.Duration, f func()) browse.Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	timer := &manualTimer{fn: f}
	m.timers = append(m.timers, timer)
	m.delays = append(m.delays, d)
	return timer
}

// Pending counts armed timers.
func (m *manualClock) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, t := range m.timers {
		if !t.stopped && !t.fired {
			count++
		}
	}
	return count
}

// Fire runs every armed timer and returns how many ran.
func (m *manualClock) Fire() int {
	m.mu.Lock()
	var due []*manualTimer
	for _, t := range m.timers {
		if !t.stopped && !t.fired {
			t.fired = true
			due = append(due, t)
		}
	}
	m.mu.Unlock()
	for _, t := range due {
		t.fn()
	}
	return len(due)
}

type stubEndpoints struct{}

func (stubEndpoints) List(kind assetapi.Kind, query string) (string, error) {
	return "https://example.com/api/" + string(kind) + "/?" + query, nil
}

type fakeService struct {
	mu       sync.Mutex
	urls     []string
	tagCalls int
	respond  func(url string) (*assetapi.ListResponse, error)
	tags     []assetapi.Tag
	tagsErr  error
}

func (f *fakeService) ListAssets(_ context.Context, url string) (*assetapi.ListResponse, error) {
	f.mu.Lock()
	f.urls = append(f.urls, url)
	respond := f.respond
	f.mu.Unlock()
	if respond == nil {
		return &assetapi.ListResponse{}, nil
	}
	return respond(url)
}

func (f *fakeService) ListTags(context.Context) ([]assetapi.Tag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tagCalls++
	return f.tags, f.tagsErr
}

func (f *fakeService) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.urls...)
}

func assetsPage(count, page, numPages int) *assetapi.ListResponse {
	objects := make([]assetapi.Asset, count)
	for i := range objects {
		objects[i] = assetapi.Asset{ID: int64(i + 1), Name: fmt.Sprintf("asset-%d", i+1)}
	}
	return &assetapi.ListResponse{
		Objects: objects,
		Meta:    assetapi.ListMeta{Page: page, NumPages: numPages},
	}
}

func newImageController(service *fakeService, clock *manualClock, opts ...browse.Option) *browse.Controller {
	img := strategy.NewImage(strategy.Options{
		Endpoints:         stubEndpoints{},
		AllowedExtensions: []string{"PNG", "JPG"},
	})
	base := []browse.Option{browse.WithAfterFunc(clock.AfterFunc)}
	return browse.NewController(img, service, append(base, opts...)...)
}

func queryOf(url string) string {
	if idx := strings.Index(url, "?"); idx >= 0 {
		return url[idx+1:]
	}
	return ""
}
