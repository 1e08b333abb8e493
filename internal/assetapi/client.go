package assetapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/publicsuffix"

	"github.com/goliatone/go-asset-library/internal/logging"
	"github.com/goliatone/go-asset-library/pkg/interfaces"
)

const (
	tracerName = "github.com/goliatone/go-asset-library/internal/assetapi"

	defaultCSRFCookie = "csrftoken"
	defaultCSRFHeader = "X-CSRFToken"
	requestIDHeader   = "X-Request-ID"

	maxResponseBytes = 8 << 20
)

// UploadFile is a single file handed to Upload.
type UploadFile struct {
	Name   string
	Reader io.Reader
}

// TransformRequest describes an image transformation. Params carries the
// operation arguments, e.g. x1..y2 for crop or angle for rotate.
type TransformRequest struct {
	Src            string
	Transformation string
	Params         map[string]string
}

// Client talks to the asset library and transformation APIs.
type Client struct {
	endpoints  *Endpoints
	http       *http.Client
	csrfCookie string
	csrfHeader string
	logger     interfaces.Logger
	tracer     trace.Tracer
	requestID  func() string
}

// ClientOption customises a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the HTTP client. A cookie jar is attached when the
// client has none.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			clone := *hc
			c.http = &clone
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.http.Timeout = timeout
		}
	}
}

// WithCSRF names the cookie carrying the CSRF token and the header it is
// echoed in on unsafe requests.
func WithCSRF(cookieName, headerName string) ClientOption {
	return func(c *Client) {
		if strings.TrimSpace(cookieName) != "" {
			c.csrfCookie = strings.TrimSpace(cookieName)
		}
		if strings.TrimSpace(headerName) != "" {
			c.csrfHeader = strings.TrimSpace(headerName)
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(logger interfaces.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTracer overrides the tracer used for request spans.
func WithTracer(tracer trace.Tracer) ClientOption {
	return func(c *Client) {
		if tracer != nil {
			c.tracer = tracer
		}
	}
}

// WithRequestIDFunc overrides request id generation.
func WithRequestIDFunc(fn func() string) ClientOption {
	return func(c *Client) {
		if fn != nil {
			c.requestID = fn
		}
	}
}

// NewClient constructs a Client bound to endpoints.
func NewClient(endpoints *Endpoints, opts ...ClientOption) (*Client, error) {
	if endpoints == nil {
		return nil, wrapEndpoint(fmt.Errorf("endpoints are nil"), "client")
	}
	c := &Client{
		endpoints:  endpoints,
		http:       &http.Client{Timeout: 30 * time.Second},
		csrfCookie: defaultCSRFCookie,
		csrfHeader: defaultCSRFHeader,
		logger:     logging.APILogger(nil),
		tracer:     otel.Tracer(tracerName),
		requestID:  func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.http.Jar == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("assetapi: cookie jar: %w", err)
		}
		c.http.Jar = jar
	}
	return c, nil
}

// Endpoints exposes the URL builder the client was created with.
func (c *Client) Endpoints() *Endpoints {
	return c.endpoints
}

// SetCookies stores cookies for rawURL in the client's jar.
func (c *Client) SetCookies(rawURL string, cookies ...*http.Cookie) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return wrapEndpoint(err, "cookies")
	}
	c.http.Jar.SetCookies(u, cookies)
	return nil
}

// SeedCSRFToken stores token under the CSRF cookie name for rawURL.
func (c *Client) SeedCSRFToken(rawURL, token string) error {
	if strings.TrimSpace(token) == "" {
		return nil
	}
	return c.SetCookies(rawURL, &http.Cookie{Name: c.csrfCookie, Value: token, Path: "/"})
}

// ListAssets fetches one page of assets from a URL built by a picker strategy.
func (c *Client) ListAssets(ctx context.Context, listURL string) (*ListResponse, error) {
	var out ListResponse
	if err := c.do(ctx, "assets.list", http.MethodGet, listURL, nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListTags fetches every tag.
func (c *Client) ListTags(ctx context.Context) ([]Tag, error) {
	tagsURL, err := c.endpoints.Tags()
	if err != nil {
		return nil, err
	}
	var out tagList
	if err := c.do(ctx, "assets.tags", http.MethodGet, tagsURL, nil, "", &out); err != nil {
		return nil, err
	}
	return out.Objects, nil
}

// SelectAsset asks the server to copy an asset into destination.
func (c *Client) SelectAsset(ctx context.Context, selectURL, destination string) (*SelectResult, error) {
	target, err := c.endpoints.Resolve(selectURL)
	if err != nil {
		return nil, err
	}
	form := url.Values{}
	form.Set("destination", destination)

	var out SelectResult
	if err := c.do(ctx, "assets.select", http.MethodPost, target, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Upload posts a single file to the kind collection and copies it into destination.
func (c *Client) Upload(ctx context.Context, kind Kind, destination string, file UploadFile) (*UploadResult, error) {
	uploadURL, err := c.endpoints.Upload(kind)
	if err != nil {
		return nil, err
	}
	if file.Reader == nil {
		return nil, wrapEndpoint(fmt.Errorf("upload %q has no content", file.Name), "upload")
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if destination != "" {
		if err := writer.WriteField("destination", destination); err != nil {
			return nil, wrapTransport(err, "assets.upload")
		}
	}
	part, err := writer.CreateFormFile("file", path.Base(file.Name))
	if err != nil {
		return nil, wrapTransport(err, "assets.upload")
	}
	if _, err := io.Copy(part, file.Reader); err != nil {
		return nil, wrapTransport(err, "assets.upload")
	}
	if err := writer.Close(); err != nil {
		return nil, wrapTransport(err, "assets.upload")
	}

	var out UploadResult
	if err := c.do(ctx, "assets.upload", http.MethodPost, uploadURL, &body, writer.FormDataContentType(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Transform asks the transformation service to apply req to an image.
func (c *Client) Transform(ctx context.Context, req TransformRequest) (*TransformResult, error) {
	transformURL, err := c.endpoints.Transformations()
	if err != nil {
		return nil, err
	}
	form := url.Values{}
	for key, value := range req.Params {
		form.Set(key, value)
	}
	form.Set("transformation", req.Transformation)
	form.Set("src", req.Src)

	var out TransformResult
	if err := c.do(ctx, "images.transform", http.MethodPost, transformURL, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, op, method, rawURL string, body io.Reader, contentType string, out any) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	requestID := c.requestID()
	ctx, span := c.tracer.Start(ctx, op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.full", rawURL),
			attribute.String("asset.request_id", requestID),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	logger := logging.WithFields(c.logger.WithContext(ctx), map[string]any{
		"operation":  op,
		"method":     method,
		"url":        rawURL,
		"request_id": requestID,
	})

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return wrapTransport(err, op)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set(requestIDHeader, requestID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if method != http.MethodGet && method != http.MethodHead {
		if token := c.csrfToken(req.URL); token != "" {
			req.Header.Set(c.csrfHeader, token)
		}
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		logger.Warn("assetapi.request.failed", "error", err)
		return wrapTransport(err, op)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return wrapTransport(err, op)
	}
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := &StatusError{Method: method, URL: rawURL, Code: resp.StatusCode, Body: string(payload)}
		logger.Warn("assetapi.request.status", "status", resp.StatusCode, "duration", time.Since(started))
		return wrapStatus(statusErr, op)
	}

	logger.Debug("assetapi.request.completed", "status", resp.StatusCode, "duration", time.Since(started))
	if out == nil || len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return wrapDecode(err, op)
	}
	return nil
}

func (c *Client) csrfToken(u *url.URL) string {
	if c.http.Jar == nil || u == nil {
		return ""
	}
	for _, cookie := range c.http.Jar.Cookies(u) {
		if cookie.Name == c.csrfCookie {
			return cookie.Value
		}
	}
	return ""
}
