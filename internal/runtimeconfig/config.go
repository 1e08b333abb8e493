package runtimeconfig

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-asset-library/internal/util"
)

var (
	ErrAssetAPIRootRequired   = errors.New("assets config: asset api root is required")
	ErrOriginInvalid          = errors.New("assets config: origin must be an absolute http(s) url")
	ErrDestinationRequired    = errors.New("assets config: destination is required when image or file pickers are enabled")
	ErrDestinationInvalid     = errors.New("assets config: destination is invalid")
	ErrPageSizeInvalid        = errors.New("assets config: page size must be between 1 and 100")
	ErrDebounceInvalid        = errors.New("assets config: debounce must be zero or positive")
	ErrDefaultSortInvalid     = errors.New("assets config: default sort is invalid")
	ErrCropMinSizeInvalid     = errors.New("assets config: crop minimum size must be zero or positive")
	ErrCSRFCookieRequired     = errors.New("assets config: csrf cookie name is required")
	ErrLoggingProviderUnknown = errors.New("assets config: logging provider is invalid")
	ErrLoggingLevelInvalid    = errors.New("assets config: logging level is invalid")
	ErrLoggingFormatInvalid   = errors.New("assets config: logging format is invalid")
)

// MaxPageSize mirrors the server side cap on list page sizes.
const MaxPageSize = 100

// Sort keys understood by the asset listing endpoints.
const (
	SortName        = "name"
	SortNewestFirst = "newest_first"
	SortOldestFirst = "oldest_first"
)

// DefaultImageExtensions lists the image formats accepted by default.
var DefaultImageExtensions = []string{
	"BMP", "GIF", "IM", "JPEG", "JPG", "MSP", "PCX", "PNG",
	"PPM", "SPIDER", "TIF", "TIFF", "XBM",
}

// DefaultFileExtensions lists the file formats accepted by default.
var DefaultFileExtensions = []string{
	"DOC", "RTF", "PDF", "CSV", "XLS", "ZIP", "EPS", "JPEG",
}

// Config aggregates endpoint, picker and editor settings for the asset library.
type Config struct {
	// Origin resolves relative API roots and server-issued select URLs.
	Origin string `yaml:"origin" env:"ORIGIN"`
	// AssetAPIRoot is the base URL of the asset listing/tagging/upload API.
	AssetAPIRoot string `yaml:"asset_api_root" env:"ASSET_API_ROOT"`
	// APIBaseRoot is the base URL of the transformation API. Defaults to AssetAPIRoot.
	APIBaseRoot string `yaml:"api_base_root" env:"API_BASE_ROOT"`
	// Destination is the campaign path selected assets are copied into.
	Destination string `yaml:"destination" env:"DESTINATION"`
	// MediaURL is stripped from Destination before its format is checked.
	MediaURL string `yaml:"media_url" env:"MEDIA_URL"`

	AllowedImageExtensions []string `yaml:"allowed_image_extensions" env:"ALLOWED_IMAGE_EXTENSIONS" envSeparator:","`
	AllowedFileExtensions  []string `yaml:"allowed_file_extensions" env:"ALLOWED_FILE_EXTENSIONS" envSeparator:","`

	Kinds   KindsConfig   `yaml:"kinds" envPrefix:"KINDS_"`
	CSRF    CSRFConfig    `yaml:"csrf" envPrefix:"CSRF_"`
	Browse  BrowseConfig  `yaml:"browse" envPrefix:"BROWSE_"`
	Editor  EditorConfig  `yaml:"editor" envPrefix:"EDITOR_"`
	HTTP    HTTPConfig    `yaml:"http" envPrefix:"HTTP_"`
	Logging LoggingConfig `yaml:"logging" envPrefix:"LOGGING_"`
}

// KindsConfig toggles the pickers the host has mount points for.
type KindsConfig struct {
	Snippets bool `yaml:"snippets" env:"SNIPPETS"`
	Images   bool `yaml:"images" env:"IMAGES"`
	Files    bool `yaml:"files" env:"FILES"`
}

// CSRFConfig names the cookie carrying the CSRF token and the header it is echoed in.
type CSRFConfig struct {
	CookieName string `yaml:"cookie_name" env:"COOKIE_NAME"`
	HeaderName string `yaml:"header_name" env:"HEADER_NAME"`
	// Token seeds the cookie jar for hosts without a browser session.
	Token string `yaml:"token,omitempty" env:"TOKEN"`
}

// BrowseConfig captures catalog browsing behaviour.
type BrowseConfig struct {
	Debounce                time.Duration `yaml:"debounce" env:"DEBOUNCE"`
	PageSize                int           `yaml:"page_size" env:"PAGE_SIZE"`
	DefaultSort             string        `yaml:"default_sort" env:"DEFAULT_SORT"`
	ResetPageOnFilterChange bool          `yaml:"reset_page_on_filter_change" env:"RESET_PAGE_ON_FILTER_CHANGE"`
}

// EditorConfig captures image editor behaviour.
type EditorConfig struct {
	// CropMinWidth and CropMinHeight gate crop eligibility. Zero disables the gate.
	CropMinWidth    int  `yaml:"crop_min_width" env:"CROP_MIN_WIDTH"`
	CropMinHeight   int  `yaml:"crop_min_height" env:"CROP_MIN_HEIGHT"`
	EnableLiveProof bool `yaml:"enable_live_proof" env:"ENABLE_LIVE_PROOF"`
	EnableRemove    bool `yaml:"enable_remove" env:"ENABLE_REMOVE"`
}

// HTTPConfig captures transport settings for the asset API client.
type HTTPConfig struct {
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string   `yaml:"provider" env:"PROVIDER"`
	Level     string   `yaml:"level" env:"LEVEL"`
	Format    string   `yaml:"format" env:"FORMAT"`
	AddSource bool     `yaml:"add_source" env:"ADD_SOURCE"`
	Focus     []string `yaml:"focus" env:"FOCUS" envSeparator:","`
}

// DefaultConfig returns the defaults the asset library ships with.
func DefaultConfig() Config {
	return Config{
		Origin:                 "http://localhost:8000",
		AssetAPIRoot:           "/asset-library/api/v2/",
		MediaURL:               "/media/",
		AllowedImageExtensions: append([]string(nil), DefaultImageExtensions...),
		AllowedFileExtensions:  append([]string(nil), DefaultFileExtensions...),
		Kinds: KindsConfig{
			Images: true,
		},
		CSRF: CSRFConfig{
			CookieName: "csrftoken",
			HeaderName: "X-CSRFToken",
		},
		Browse: BrowseConfig{
			Debounce:                500 * time.Millisecond,
			PageSize:                20,
			DefaultSort:             SortName,
			ResetPageOnFilterChange: true,
		},
		HTTP: HTTPConfig{
			Timeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
		},
	}
}

// APIBase returns the transformation API root, always ending with a slash.
func (cfg Config) APIBase() string {
	return withTrailingSlash(util.FirstNonBlank(cfg.APIBaseRoot, cfg.AssetAPIRoot))
}

// AssetRoot returns the asset API root, always ending with a slash.
func (cfg Config) AssetRoot() string {
	return withTrailingSlash(strings.TrimSpace(cfg.AssetAPIRoot))
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	if strings.TrimSpace(cfg.AssetAPIRoot) == "" {
		return ErrAssetAPIRootRequired
	}
	if !isAbsoluteURL(cfg.AssetAPIRoot) || (cfg.APIBaseRoot != "" && !isAbsoluteURL(cfg.APIBaseRoot)) {
		if !isAbsoluteURL(cfg.Origin) {
			return fmt.Errorf("%w: %q", ErrOriginInvalid, cfg.Origin)
		}
	}
	if cfg.Kinds.Images || cfg.Kinds.Files {
		if strings.TrimSpace(cfg.Destination) == "" {
			return ErrDestinationRequired
		}
		if err := ValidateDestination(cfg.Destination, cfg.MediaURL); err != nil {
			return fmt.Errorf("%w: %v", ErrDestinationInvalid, err)
		}
	}
	if strings.TrimSpace(cfg.CSRF.CookieName) == "" {
		return ErrCSRFCookieRequired
	}
	if cfg.Browse.PageSize < 1 || cfg.Browse.PageSize > MaxPageSize {
		return fmt.Errorf("%w: %d", ErrPageSizeInvalid, cfg.Browse.PageSize)
	}
	if cfg.Browse.Debounce < 0 {
		return ErrDebounceInvalid
	}
	if !IsSortKey(cfg.Browse.DefaultSort) {
		return fmt.Errorf("%w: %s", ErrDefaultSortInvalid, cfg.Browse.DefaultSort)
	}
	if cfg.Editor.CropMinWidth < 0 || cfg.Editor.CropMinHeight < 0 {
		return ErrCropMinSizeInvalid
	}
	provider := strings.ToLower(strings.TrimSpace(cfg.Logging.Provider))
	if !isSupportedProvider(provider) {
		return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
	}
	if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
		return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
	}
	if provider == "gologger" {
		if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
			return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
		}
	}
	return nil
}

var destinationPattern = regexp.MustCompile(`^[^/]+/\d+/[^/]+$`)

// ValidateDestination checks that a campaign destination, once the media URL
// prefix is removed, has the /<asset_type>/<template_id>/<draft_id>/ shape and
// does not escape the media root.
func ValidateDestination(destination, mediaURL string) error {
	trimmed := strings.TrimSpace(destination)
	if mediaURL != "" {
		trimmed = strings.TrimPrefix(trimmed, mediaURL)
	}
	trimmed = strings.Trim(trimmed, "/")
	return validation.Validate(trimmed,
		validation.Required,
		validation.By(noTraversal),
		validation.Match(destinationPattern).Error("must look like /<asset_type>/<template_id>/<draft_id>/"),
	)
}

func noTraversal(value any) error {
	s, _ := value.(string)
	for _, part := range strings.Split(s, "/") {
		if part == ".." || part == "." {
			return validation.NewError("assets.config.destination_traversal", "must not contain relative segments")
		}
	}
	return nil
}

// IsSortKey reports whether key is one of the listing sort options.
func IsSortKey(key string) bool {
	switch key {
	case SortName, SortNewestFirst, SortOldestFirst:
		return true
	default:
		return false
	}
}

func withTrailingSlash(value string) string {
	if value == "" || strings.HasSuffix(value, "/") {
		return value
	}
	return value + "/"
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "console", "gologger":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}

func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
