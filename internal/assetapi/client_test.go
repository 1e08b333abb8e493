package assetapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-asset-library/internal/assetapi"
)

type capturedRequest struct {
	Method    string
	Path      string
	RawQuery  string
	Form      map[string]string
	CSRF      string
	RequestID string
	FileName  string
	FileBody  string
}

type fakeAPI struct {
	t        *testing.T
	mu       sync.Mutex
	requests []capturedRequest
	handlers map[string]http.HandlerFunc
}

func newFakeAPI(t *testing.T) (*fakeAPI, *httptest.Server) {
	t.Helper()
	api := &fakeAPI{t: t, handlers: map[string]http.HandlerFunc{}}
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)
	return api, server
}

func (f *fakeAPI) handle(path string, handler http.HandlerFunc) {
	f.handlers[strings.TrimRight(path, "/")] = handler
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	captured := capturedRequest{
		Method:    r.Method,
		Path:      r.URL.Path,
		RawQuery:  r.URL.RawQuery,
		CSRF:      r.Header.Get("X-CSRFToken"),
		RequestID: r.Header.Get("X-Request-ID"),
		Form:      map[string]string{},
	}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(1 << 20); err == nil {
			for key, values := range r.MultipartForm.Value {
				captured.Form[key] = values[0]
			}
			if files := r.MultipartForm.File["file"]; len(files) > 0 {
				captured.FileName = files[0].Filename
				fh, _ := files[0].Open()
				data, _ := io.ReadAll(fh)
				fh.Close()
				captured.FileBody = string(data)
			}
		}
	} else if r.Method == http.MethodPost {
		if err := r.ParseForm(); err == nil {
			for key := range r.PostForm {
				captured.Form[key] = r.PostForm.Get(key)
			}
		}
	}

	f.mu.Lock()
	f.requests = append(f.requests, captured)
	f.mu.Unlock()

	handler, ok := f.handlers[strings.TrimRight(r.URL.Path, "/")]
	if !ok {
		http.NotFound(w, r)
		return
	}
	handler(w, r)
}

func (f *fakeAPI) last() capturedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		f.t.Fatalf("no requests captured")
	}
	return f.requests[len(f.requests)-1]
}

func writeJSON(payload any) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func newClient(t *testing.T, server *httptest.Server) *assetapi.Client {
	t.Helper()
	endpoints, err := assetapi.NewEndpoints(server.URL, "/asset-library/api/v2/", "")
	if err != nil {
		t.Fatalf("NewEndpoints: %v", err)
	}
	client, err := assetapi.NewClient(endpoints,
		assetapi.WithHTTPClient(server.Client()),
		assetapi.WithRequestIDFunc(func() string { return "req-1" }),
	)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestEndpointsBuildKindAndTagURLs(t *testing.T) {
	endpoints, err := assetapi.NewEndpoints("https://example.com", "/asset-library/api/v2/", "https://editor.example.com/api")
	if err != nil {
		t.Fatalf("NewEndpoints: %v", err)
	}

	list, err := endpoints.List(assetapi.KindImages, "source=personal&page=2")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if want := "https://example.com/asset-library/api/v2/images/?source=personal&page=2"; list != want {
		t.Fatalf("expected %q, got %q", want, list)
	}

	tags, err := endpoints.Tags()
	if err != nil {
		t.Fatalf("Tags: %v", err)
	}
	if want := "https://example.com/asset-library/api/v2/tags/"; tags != want {
		t.Fatalf("expected %q, got %q", want, tags)
	}

	transform, err := endpoints.Transformations()
	if err != nil {
		t.Fatalf("Transformations: %v", err)
	}
	if want := "https://editor.example.com/api/images/transformations/"; transform != want {
		t.Fatalf("expected %q, got %q", want, transform)
	}

	resolved, err := endpoints.Resolve("/asset-library/api/v2/images/12/")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if want := "https://example.com/asset-library/api/v2/images/12/"; resolved != want {
		t.Fatalf("expected %q, got %q", want, resolved)
	}
}

func TestNewEndpointsRequiresOriginForRelativeRoots(t *testing.T) {
	if _, err := assetapi.NewEndpoints("", "/asset-library/api/v2/", ""); !errors.Is(err, assetapi.ErrInvalidEndpoint) {
		t.Fatalf("expected ErrInvalidEndpoint, got %v", err)
	}
}

func TestClientListAssetsDecodesPageAndMeta(t *testing.T) {
	api, server := newFakeAPI(t)
	api.handle("/asset-library/api/v2/images/", writeJSON(map[string]any{
		"objects": []map[string]any{
			{"id": 7, "name": "hero.png", "width": 800, "height": 600, "date_created": "2024-03-14T15:09:26.535897", "select_url": "/asset-library/api/v2/images/7/"},
		},
		"meta": map[string]any{"page": 2, "limit": 20, "num_pages": 5, "extensions": []string{"PNG"}},
	}))
	client := newClient(t, server)

	listURL, err := client.Endpoints().List(assetapi.KindImages, "page=2")
	if err != nil {
		t.Fatalf("List url: %v", err)
	}
	resp, err := client.ListAssets(context.Background(), listURL)
	if err != nil {
		t.Fatalf("ListAssets: %v", err)
	}
	if len(resp.Objects) != 1 || resp.Objects[0].ID != 7 || resp.Objects[0].Width != 800 {
		t.Fatalf("unexpected objects: %+v", resp.Objects)
	}
	if resp.Objects[0].DateCreated.Year() != 2024 {
		t.Fatalf("expected zone-less timestamp to decode, got %v", resp.Objects[0].DateCreated)
	}
	if resp.Meta.NumPages != 5 || resp.Meta.Page != 2 {
		t.Fatalf("unexpected meta: %+v", resp.Meta)
	}
	if len(resp.Meta.Extensions) != 1 || resp.Meta.Extensions[0] != "PNG" {
		t.Fatalf("expected extensions to decode, got %v", resp.Meta.Extensions)
	}

	req := api.last()
	if req.RawQuery != "page=2" {
		t.Fatalf("expected query to pass through, got %q", req.RawQuery)
	}
	if req.RequestID != "req-1" {
		t.Fatalf("expected request id header, got %q", req.RequestID)
	}
}

func TestClientListTags(t *testing.T) {
	api, server := newFakeAPI(t)
	api.handle("/asset-library/api/v2/tags/", writeJSON(map[string]any{
		"objects": []map[string]any{{"id": 1, "name": "summer"}, {"id": 2, "name": "winter"}},
	}))
	client := newClient(t, server)

	tags, err := client.ListTags(context.Background())
	if err != nil {
		t.Fatalf("ListTags: %v", err)
	}
	if len(tags) != 2 || tags[1].Name != "winter" {
		t.Fatalf("unexpected tags: %+v", tags)
	}
}

func TestClientSelectAssetPostsDestinationWithCSRF(t *testing.T) {
	api, server := newFakeAPI(t)
	api.handle("/asset-library/api/v2/images/7/", writeJSON(map[string]any{
		"campaign_copy": "/media/images/12/3/hero.png",
	}))
	client := newClient(t, server)
	if err := client.SeedCSRFToken(server.URL, "token-abc"); err != nil {
		t.Fatalf("SeedCSRFToken: %v", err)
	}

	result, err := client.SelectAsset(context.Background(), "/asset-library/api/v2/images/7/", "/media/images/12/3/")
	if err != nil {
		t.Fatalf("SelectAsset: %v", err)
	}
	if result.CampaignCopy != "/media/images/12/3/hero.png" {
		t.Fatalf("unexpected copy: %q", result.CampaignCopy)
	}

	req := api.last()
	if req.Method != http.MethodPost {
		t.Fatalf("expected POST, got %s", req.Method)
	}
	if req.Form["destination"] != "/media/images/12/3/" {
		t.Fatalf("expected destination form field, got %v", req.Form)
	}
	if req.CSRF != "token-abc" {
		t.Fatalf("expected csrf header, got %q", req.CSRF)
	}
}

func TestClientUploadSendsMultipartFile(t *testing.T) {
	api, server := newFakeAPI(t)
	api.handle("/asset-library/api/v2/files/", writeJSON(map[string]any{
		"object":        map[string]any{"id": 9, "name": "brief.pdf", "extension": "PDF"},
		"campaign_copy": "/media/files/12/3/brief.pdf",
	}))
	client := newClient(t, server)

	result, err := client.Upload(context.Background(), assetapi.KindFiles, "/media/files/12/3/", assetapi.UploadFile{
		Name:   "docs/brief.pdf",
		Reader: strings.NewReader("%PDF-1.4"),
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if result.Object.ID != 9 || result.CampaignCopy != "/media/files/12/3/brief.pdf" {
		t.Fatalf("unexpected upload result: %+v", result)
	}

	req := api.last()
	if req.FileName != "brief.pdf" || req.FileBody != "%PDF-1.4" {
		t.Fatalf("unexpected file part: %q %q", req.FileName, req.FileBody)
	}
	if req.Form["destination"] != "/media/files/12/3/" {
		t.Fatalf("expected destination field, got %v", req.Form)
	}
}

func TestClientTransformSendsOperationParams(t *testing.T) {
	api, server := newFakeAPI(t)
	api.handle("/asset-library/api/v2/images/transformations/", writeJSON(map[string]any{
		"src": "/media/tmp/hero-crop.png", "width": 400, "height": 300,
	}))
	client := newClient(t, server)

	result, err := client.Transform(context.Background(), assetapi.TransformRequest{
		Src:            "/media/images/12/3/hero.png",
		Transformation: "crop",
		Params:         map[string]string{"x1": "10", "y1": "20", "x2": "410", "y2": "320"},
	})
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if result.Src != "/media/tmp/hero-crop.png" || result.Width != 400 || result.Height != 300 {
		t.Fatalf("unexpected transform result: %+v", result)
	}

	req := api.last()
	if req.Form["transformation"] != "crop" || req.Form["x2"] != "410" || req.Form["src"] != "/media/images/12/3/hero.png" {
		t.Fatalf("unexpected transform form: %v", req.Form)
	}
}

func TestClientWrapsStatusErrors(t *testing.T) {
	api, server := newFakeAPI(t)
	api.handle("/asset-library/api/v2/images/transformations/", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "image too small", http.StatusBadRequest)
	})
	client := newClient(t, server)

	_, err := client.Transform(context.Background(), assetapi.TransformRequest{Src: "a.png", Transformation: "grayscale"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryExternal) {
		t.Fatalf("expected external category, got %v", err)
	}
	var statusErr *assetapi.StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != http.StatusBadRequest {
		t.Fatalf("expected StatusError with 400, got %v", err)
	}
	if got := strings.TrimSpace(assetapi.ResponseText(err)); got != "image too small" {
		t.Fatalf("unexpected response text %q", got)
	}
}

func TestClientWrapsDecodeErrors(t *testing.T) {
	api, server := newFakeAPI(t)
	api.handle("/asset-library/api/v2/tags/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>"))
	})
	client := newClient(t, server)

	if _, err := client.ListTags(context.Background()); !goerrors.IsCategory(err, goerrors.CategoryExternal) {
		t.Fatalf("expected external decode error, got %v", err)
	}
}
