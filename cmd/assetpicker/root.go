package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	assetlib "github.com/goliatone/go-asset-library"
	"github.com/goliatone/go-asset-library/internal/assetapi"
	"github.com/goliatone/go-asset-library/internal/di"
	"github.com/goliatone/go-asset-library/pkg/interfaces"
)

// app carries the state shared by every subcommand.
type app struct {
	out    io.Writer
	errOut io.Writer

	configPath  string
	origin      string
	apiRoot     string
	destination string
	csrfToken   string
	logProvider string
	logLevel    string

	cfg    assetlib.Config
	module *assetlib.Module
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}

	root := &cobra.Command{
		Use:   "assetpicker",
		Short: "Browse, pick, upload and edit assets from an asset library API",
		Long: styleTitle.Render("assetpicker") + " - asset library client\n\n" +
			"Lists and selects snippets, images and files from the asset library,\n" +
			"uploads new assets and applies image transformations.",
		SilenceUsage:      true,
		PersistentPreRunE: a.loadConfig,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "assetpicker.yaml", "config file (YAML)")
	flags.StringVar(&a.origin, "origin", "", "origin used to resolve relative API roots")
	flags.StringVar(&a.apiRoot, "api-root", "", "asset API root")
	flags.StringVarP(&a.destination, "destination", "d", "", "campaign destination path")
	flags.StringVar(&a.csrfToken, "csrf-token", "", "CSRF token sent with write requests")
	flags.StringVar(&a.logProvider, "log-provider", "", "logging provider (console, gologger)")
	flags.StringVar(&a.logLevel, "log-level", "", "logging level")

	root.AddCommand(
		newTagsCmd(a),
		newBrowseCmd(a),
		newPickCmd(a),
		newUploadCmd(a),
		newEditCmd(a),
		newInteractiveCmd(a),
		newConfigCmd(a),
	)
	return root
}

func (a *app) loadConfig(cmd *cobra.Command, _ []string) error {
	cfg, err := assetlib.LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	if a.origin != "" {
		cfg.Origin = a.origin
	}
	if a.apiRoot != "" {
		cfg.AssetAPIRoot = a.apiRoot
	}
	if a.destination != "" {
		cfg.Destination = a.destination
	}
	if a.csrfToken != "" {
		cfg.CSRF.Token = a.csrfToken
	}
	if a.logProvider != "" {
		cfg.Logging.Provider = a.logProvider
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	a.cfg = cfg
	return nil
}

// open builds the module with only the given kinds enabled, so a command
// needs a destination only when it selects images or files.
func (a *app) open(kinds ...assetapi.Kind) (*assetlib.Module, error) {
	if a.module != nil {
		return a.module, nil
	}
	cfg := a.cfg
	cfg.Kinds = assetlib.KindsConfig{}
	for _, kind := range kinds {
		switch kind {
		case assetapi.KindSnippets:
			cfg.Kinds.Snippets = true
		case assetapi.KindImages:
			cfg.Kinds.Images = true
		case assetapi.KindFiles:
			cfg.Kinds.Files = true
		}
	}
	module, err := assetlib.New(cfg,
		di.WithNotifier(interfaces.NotifierFunc(a.notify)),
	)
	if err != nil {
		return nil, err
	}
	a.module = module
	return module, nil
}

func (a *app) close() {
	if a.module != nil {
		a.module.Close()
		a.module = nil
	}
}

func (a *app) notify(level interfaces.NotificationLevel, message string) {
	style := styleInfo
	switch level {
	case interfaces.NotificationError:
		style = styleError
	case interfaces.NotificationWarning:
		style = styleWarning
	}
	fmt.Fprintln(a.errOut, style.Render(message))
}

func (a *app) picker(kind assetapi.Kind) (*assetlib.Picker, error) {
	module, err := a.open(kind)
	if err != nil {
		return nil, err
	}
	var picker *assetlib.Picker
	switch kind {
	case assetapi.KindSnippets:
		picker = module.Snippets()
	case assetapi.KindImages:
		picker = module.Images()
	case assetapi.KindFiles:
		picker = module.Files()
	}
	if picker == nil {
		return nil, assetlib.ErrPickerUnavailable
	}
	return picker, nil
}

func parseKind(raw string) (assetapi.Kind, error) {
	kind := assetapi.Kind(strings.ToLower(strings.TrimSpace(raw)))
	if !kind.Valid() {
		return "", fmt.Errorf("unknown asset kind %q (use snippets, images or files)", raw)
	}
	return kind, nil
}

var kindArgs = []string{"snippets", "images", "files"}
