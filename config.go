package assetlib

import "github.com/goliatone/go-asset-library/internal/runtimeconfig"

var (
	ErrAssetAPIRootRequired   = runtimeconfig.ErrAssetAPIRootRequired
	ErrOriginInvalid          = runtimeconfig.ErrOriginInvalid
	ErrDestinationRequired    = runtimeconfig.ErrDestinationRequired
	ErrDestinationInvalid     = runtimeconfig.ErrDestinationInvalid
	ErrPageSizeInvalid        = runtimeconfig.ErrPageSizeInvalid
	ErrDebounceInvalid        = runtimeconfig.ErrDebounceInvalid
	ErrDefaultSortInvalid     = runtimeconfig.ErrDefaultSortInvalid
	ErrCropMinSizeInvalid     = runtimeconfig.ErrCropMinSizeInvalid
	ErrCSRFCookieRequired     = runtimeconfig.ErrCSRFCookieRequired
	ErrLoggingProviderUnknown = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid    = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid   = runtimeconfig.ErrLoggingFormatInvalid
)

type (
	Config        = runtimeconfig.Config
	KindsConfig   = runtimeconfig.KindsConfig
	CSRFConfig    = runtimeconfig.CSRFConfig
	BrowseConfig  = runtimeconfig.BrowseConfig
	EditorConfig  = runtimeconfig.EditorConfig
	HTTPConfig    = runtimeconfig.HTTPConfig
	LoggingConfig = runtimeconfig.LoggingConfig
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}

// LoadConfig reads a YAML file on top of the defaults and applies
// ASSETLIB_* environment overrides.
func LoadConfig(path string) (Config, error) {
	cfg, err := runtimeconfig.Load(path)
	if err != nil {
		return cfg, err
	}
	if err := runtimeconfig.ApplyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
