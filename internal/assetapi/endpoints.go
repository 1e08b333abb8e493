package assetapi

import (
	"fmt"
	"net/url"
	"strings"

	urlkit "github.com/goliatone/go-urlkit"
)

const (
	libraryGroup = "library"
	editorGroup  = "editor"

	routeKind            = "kind"
	routeTags            = "tags"
	routeTransformations = "transformations"
)

// Endpoints builds asset API URLs from the configured roots.
type Endpoints struct {
	manager *urlkit.RouteManager
	origin  *url.URL
}

// NewEndpoints resolves assetRoot and apiBase against origin and registers
// the asset API routes. apiBase falls back to assetRoot when empty.
func NewEndpoints(origin, assetRoot, apiBase string) (*Endpoints, error) {
	base, err := parseOrigin(origin)
	if err != nil && (!isAbsolute(assetRoot) || (apiBase != "" && !isAbsolute(apiBase))) {
		return nil, wrapEndpoint(err, "origin")
	}
	if strings.TrimSpace(apiBase) == "" {
		apiBase = assetRoot
	}

	libraryHost, libraryPath, err := splitRoot(base, assetRoot)
	if err != nil {
		return nil, wrapEndpoint(err, "asset api root")
	}
	editorHost, editorPath, err := splitRoot(base, apiBase)
	if err != nil {
		return nil, wrapEndpoint(err, "api base root")
	}
	if base == nil {
		base, _ = url.Parse(libraryHost)
	}

	manager := urlkit.NewRouteManager(&urlkit.Config{
		Groups: []urlkit.GroupConfig{
			{
				Name:    libraryGroup,
				BaseURL: libraryHost,
				Paths: map[string]string{
					routeKind: libraryPath + "/:kind/",
					routeTags: libraryPath + "/tags/",
				},
			},
			{
				Name:    editorGroup,
				BaseURL: editorHost,
				Paths: map[string]string{
					routeTransformations: editorPath + "/images/transformations/",
				},
			},
		},
	})

	return &Endpoints{manager: manager, origin: base}, nil
}

// List returns the listing URL for kind with query appended verbatim, so the
// canonical key order of the query survives.
func (e *Endpoints) List(kind Kind, query string) (string, error) {
	u, err := e.build(libraryGroup, routeKind, map[string]any{"kind": kind.String()})
	if err != nil {
		return "", err
	}
	if query != "" {
		u += "?" + query
	}
	return u, nil
}

// Upload returns the upload URL for kind.
func (e *Endpoints) Upload(kind Kind) (string, error) {
	return e.build(libraryGroup, routeKind, map[string]any{"kind": kind.String()})
}

// Tags returns the tag listing URL.
func (e *Endpoints) Tags() (string, error) {
	return e.build(libraryGroup, routeTags, nil)
}

// Transformations returns the image transformation URL.
func (e *Endpoints) Transformations() (string, error) {
	return e.build(editorGroup, routeTransformations, nil)
}

// Resolve turns a server-issued reference, such as an asset select URL, into
// an absolute URL.
func (e *Endpoints) Resolve(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", wrapEndpoint(fmt.Errorf("empty reference"), "resolve")
	}
	parsed, err := url.Parse(ref)
	if err != nil {
		return "", wrapEndpoint(err, "resolve")
	}
	if parsed.IsAbs() || e.origin == nil {
		return parsed.String(), nil
	}
	return e.origin.ResolveReference(parsed).String(), nil
}

func (e *Endpoints) build(groupName, route string, params map[string]any) (out string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = wrapEndpoint(fmt.Errorf("urlkit panic: %v", rec), groupName+"."+route)
		}
	}()
	builder := e.manager.Group(groupName).Builder(route)
	for key, value := range params {
		builder.WithParam(key, value)
	}
	out, err = builder.Build()
	if err != nil {
		return "", wrapEndpoint(err, groupName+"."+route)
	}
	if !strings.HasSuffix(out, "/") {
		out += "/"
	}
	return out, nil
}

func parseOrigin(origin string) (*url.URL, error) {
	origin = strings.TrimSpace(origin)
	if origin == "" {
		return nil, fmt.Errorf("origin is empty")
	}
	u, err := url.Parse(origin)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("origin %q is not absolute", origin)
	}
	return &url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/"}, nil
}

func isAbsolute(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	return err == nil && u.Scheme != "" && u.Host != ""
}

// splitRoot returns the scheme+host and the slash-trimmed path of root.
func splitRoot(origin *url.URL, root string) (string, string, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return "", "", fmt.Errorf("root is empty")
	}
	u, err := url.Parse(root)
	if err != nil {
		return "", "", err
	}
	if !u.IsAbs() {
		if origin == nil {
			return "", "", fmt.Errorf("relative root %q needs an origin", root)
		}
		u = origin.ResolveReference(u)
	}
	host := u.Scheme + "://" + u.Host
	path := strings.TrimRight(u.Path, "/")
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return host, path, nil
}
