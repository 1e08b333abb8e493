package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/atotto/clipboard"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	assetlib "github.com/goliatone/go-asset-library"
	"github.com/goliatone/go-asset-library/internal/assetapi"
	"github.com/goliatone/go-asset-library/internal/browse"
	"github.com/goliatone/go-asset-library/internal/strategy"
	"github.com/goliatone/go-asset-library/pkg/interfaces"
)

type filterFlags struct {
	source    string
	tag       string
	extension string
	search    string
	sort      string
	limit     int
	page      int
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.source, "source", "", "listing source (personal, global)")
	cmd.Flags().StringVar(&f.tag, "tag", "", "tag id filter")
	cmd.Flags().StringVar(&f.extension, "extension", "", "extension filter")
	cmd.Flags().StringVarP(&f.search, "search", "s", "", "search text")
	cmd.Flags().StringVar(&f.sort, "sort", "", "sort order (name, newest_first, oldest_first)")
	cmd.Flags().IntVar(&f.limit, "limit", 0, "page size")
	cmd.Flags().IntVarP(&f.page, "page", "p", 1, "page number")
}

// apply sets the filters before the first fetch so Prepare loads them at once.
func (f *filterFlags) apply(ctrl *browse.Controller) error {
	for field, value := range map[browse.Field]string{
		browse.FieldSource:    f.source,
		browse.FieldTag:       f.tag,
		browse.FieldExtension: f.extension,
		browse.FieldSearch:    f.search,
		browse.FieldSort:      f.sort,
	} {
		if value == "" {
			continue
		}
		if err := ctrl.SetFilter(field, value); err != nil {
			return err
		}
	}
	if f.limit > 0 {
		if err := ctrl.SetLimit(f.limit); err != nil {
			return err
		}
	}
	return nil
}

// load fetches the requested page.
func (f *filterFlags) load(cmd *cobra.Command, picker *assetlib.Picker) (browse.Snapshot, error) {
	ctx := cmd.Context()
	if err := f.apply(picker.Browser); err != nil {
		return browse.Snapshot{}, err
	}
	if err := picker.Browser.Prepare(ctx); err != nil {
		return picker.Browser.Snapshot(), err
	}
	if f.page > 1 {
		if !picker.Browser.SetPage(f.page) {
			return picker.Browser.Snapshot(), fmt.Errorf("page %d out of range (1-%d)", f.page, picker.Browser.Snapshot().NumPages)
		}
		if err := picker.Browser.Refresh(ctx); err != nil {
			return picker.Browser.Snapshot(), err
		}
	}
	snap := picker.Browser.Snapshot()
	if snap.Error != "" {
		return snap, fmt.Errorf("%s", snap.Error)
	}
	return snap, nil
}

func newTagsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tags",
		Short: "List asset tags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			module, err := a.open()
			if err != nil {
				return err
			}
			defer a.close()

			tags, err := module.Container().Client().ListTags(cmd.Context())
			if err != nil {
				return err
			}
			if len(tags) == 0 {
				fmt.Fprintln(a.out, styleMuted.Render("No tags found."))
				return nil
			}
			w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, styleHeader.Render("ID")+"\t"+styleHeader.Render("NAME"))
			for _, tag := range tags {
				fmt.Fprintf(w, "%d\t%s\n", tag.ID, tag.Name)
			}
			return w.Flush()
		},
	}
}

func newBrowseCmd(a *app) *cobra.Command {
	var (
		filters filterFlags
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:       "browse <kind>",
		Short:     "List one page of snippets, images or files",
		Args:      cobra.ExactArgs(1),
		ValidArgs: kindArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKind(args[0])
			if err != nil {
				return err
			}
			picker, err := a.picker(kind)
			if err != nil {
				return err
			}
			defer a.close()

			snap, err := filters.load(cmd, picker)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(a.out)
				enc.SetIndent("", "  ")
				return enc.Encode(snap.Assets)
			}
			return printAssets(a, snap, picker.Strategy)
		},
	}
	filters.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print assets as JSON")
	return cmd
}

func printAssets(a *app, snap browse.Snapshot, strat strategy.Strategy) error {
	if snap.NoAssets() {
		fmt.Fprintln(a.out, styleMuted.Render("No assets found."))
		return nil
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join([]string{
		styleHeader.Render("ID"), styleHeader.Render("NAME"), styleHeader.Render("DETAILS"), styleHeader.Render("MODIFIED"),
	}, "\t"))
	for _, asset := range snap.Assets {
		name := asset.Name
		if !strat.IsFit(asset) {
			name = styleMuted.Render(name + " (too long)")
		}
		modified := ""
		if !asset.DateModified.IsZero() {
			modified = humanize.Time(asset.DateModified.Time)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", asset.ID, name, details(asset), modified)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(a.out, styleMuted.Render(fmt.Sprintf("page %d of %d", snap.Filter.Page, max(snap.NumPages, 1))))
	if len(snap.Extensions) > 0 {
		fmt.Fprintln(a.out, styleMuted.Render("extensions: "+strings.Join(snap.Extensions, ", ")))
	}
	return nil
}

func details(asset assetapi.Asset) string {
	var parts []string
	if asset.Extension != "" {
		parts = append(parts, strings.ToUpper(asset.Extension))
	}
	if asset.Width > 0 && asset.Height > 0 {
		parts = append(parts, fmt.Sprintf("%dx%d", asset.Width, asset.Height))
	}
	if asset.Size > 0 {
		parts = append(parts, humanize.Bytes(uint64(asset.Size)))
	}
	if asset.Contents != "" {
		parts = append(parts, humanize.Comma(int64(asset.TextLength()))+" chars")
	}
	return strings.Join(parts, " ")
}

func newPickCmd(a *app) *cobra.Command {
	var (
		filters   filterFlags
		maxLength int
		copyOut   bool
	)
	cmd := &cobra.Command{
		Use:       "pick <kind> <asset-id>",
		Short:     "Select an asset and print the campaign copy or snippet contents",
		Args:      cobra.ExactArgs(2),
		ValidArgs: kindArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKind(args[0])
			if err != nil {
				return err
			}
			id, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid asset id %q: %w", args[1], err)
			}
			picker, err := a.picker(kind)
			if err != nil {
				return err
			}
			defer a.close()

			if setter, ok := picker.Strategy.(strategy.MaxLengthSetter); ok {
				setter.SetMaxLength(maxLength)
			}
			var selection *interfaces.AssetSelection
			picker.Strategy.SetCallback(func(sel interfaces.AssetSelection) {
				selection = &sel
			})

			snap, err := filters.load(cmd, picker)
			if err != nil {
				return err
			}
			asset, ok := findAsset(snap.Assets, id)
			if !ok {
				return fmt.Errorf("asset %d not found on page %d", id, snap.Filter.Page)
			}
			if err := picker.Browser.Select(cmd.Context(), asset); err != nil {
				return err
			}
			if selection == nil {
				return fmt.Errorf("asset %d was not selected", id)
			}
			return a.printSelection(*selection, copyOut)
		},
	}
	filters.register(cmd)
	cmd.Flags().IntVar(&maxLength, "max-length", 0, "maximum snippet length (0 = unlimited)")
	cmd.Flags().BoolVar(&copyOut, "copy", false, "copy the result to the clipboard")
	return cmd
}

func (a *app) printSelection(sel interfaces.AssetSelection, copyOut bool) error {
	fmt.Fprintln(a.out, sel.Content)
	if sel.Width > 0 && sel.Height > 0 {
		fmt.Fprintln(a.out, styleMuted.Render(fmt.Sprintf("%dx%d", sel.Width, sel.Height)))
	}
	if copyOut {
		if err := clipboard.WriteAll(sel.Content); err != nil {
			return fmt.Errorf("copy to clipboard: %w", err)
		}
		fmt.Fprintln(a.errOut, styleSuccess.Render("Copied to clipboard"))
	}
	return nil
}

func findAsset(assets []assetapi.Asset, id int64) (assetapi.Asset, bool) {
	for _, asset := range assets {
		if asset.ID == id {
			return asset, true
		}
	}
	return assetapi.Asset{}, false
}
