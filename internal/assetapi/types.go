package assetapi

import (
	"strconv"
	"strings"
	"time"
)

// Kind is the URL namespace of an asset type.
type Kind string

const (
	KindSnippets Kind = "snippets"
	KindImages   Kind = "images"
	KindFiles    Kind = "files"
)

// Valid reports whether k is one of the known asset kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindSnippets, KindImages, KindFiles:
		return true
	default:
		return false
	}
}

func (k Kind) String() string { return string(k) }

// Asset is a selectable catalog item. Assets are immutable once fetched.
type Asset struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	URL          string    `json:"url,omitempty"`
	Thumbnail    string    `json:"thumbnail,omitempty"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	Filename     string    `json:"filename,omitempty"`
	Extension    string    `json:"extension,omitempty"`
	Size         int64     `json:"size,omitempty"`
	Width        int       `json:"width,omitempty"`
	Height       int       `json:"height,omitempty"`
	Contents     string    `json:"contents,omitempty"`
	Length       int       `json:"length,omitempty"`
	Tags         []int64   `json:"tags,omitempty"`
	SelectURL    string    `json:"select_url,omitempty"`
	DateCreated  Timestamp `json:"date_created"`
	DateModified Timestamp `json:"date_modified"`
}

// Preview returns the best thumbnail reference for the asset.
func (a Asset) Preview() string {
	switch {
	case a.Thumbnail != "":
		return a.Thumbnail
	case a.ThumbnailURL != "":
		return a.ThumbnailURL
	default:
		return a.URL
	}
}

// TextLength returns the snippet length, computing it from the contents when
// the server did not report one.
func (a Asset) TextLength() int {
	if a.Length > 0 {
		return a.Length
	}
	return len([]rune(a.Contents))
}

// Tag is a flat catalog label.
type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ListMeta is the pagination envelope of a listing response. Extensions is
// nil when the server did not report the used extensions.
type ListMeta struct {
	Page       int      `json:"page"`
	Limit      int      `json:"limit,omitempty"`
	NumPages   int      `json:"num_pages"`
	Extensions []string `json:"extensions,omitempty"`
}

// ListResponse is the body of GET <assetRoot>/{kind}/.
type ListResponse struct {
	Objects []Asset  `json:"objects"`
	Meta    ListMeta `json:"meta"`
}

type tagList struct {
	Objects []Tag `json:"objects"`
}

// SelectResult is the body returned after a selection copy.
type SelectResult struct {
	CampaignCopy string `json:"campaign_copy"`
	Width        int    `json:"width,omitempty"`
	Height       int    `json:"height,omitempty"`
}

// UploadResult is the body returned after an upload.
type UploadResult struct {
	Object       Asset  `json:"object"`
	CampaignCopy string `json:"campaign_copy"`
}

// TransformResult is the body returned by the transformation service.
type TransformResult struct {
	Src    string `json:"src"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Timestamp decodes the datetime formats emitted by the asset API, which may
// omit the zone offset.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON accepts RFC 3339 and zone-less ISO 8601 strings.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" || raw == `""` {
		t.Time = time.Time{}
		return nil
	}
	value, err := strconv.Unquote(raw)
	if err != nil {
		return err
	}
	var lastErr error
	for _, layout := range timestampLayouts {
		parsed, err := time.Parse(layout, value)
		if err == nil {
			t.Time = parsed
			return nil
		}
		lastErr = err
	}
	return lastErr
}

// MarshalJSON renders the timestamp as RFC 3339.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(strconv.Quote(t.Time.Format(time.RFC3339Nano))), nil
}
