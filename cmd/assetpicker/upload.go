package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-asset-library/internal/assetapi"
	"github.com/goliatone/go-asset-library/internal/upload"
	"github.com/goliatone/go-asset-library/pkg/interfaces"
)

func newUploadCmd(a *app) *cobra.Command {
	var copyOut bool
	cmd := &cobra.Command{
		Use:       "upload <images|files> <path>",
		Short:     "Upload a file and copy it into the destination",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"images", "files"},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKind(args[0])
			if err != nil {
				return err
			}
			if kind == assetapi.KindSnippets {
				return upload.ErrUnsupportedKind
			}
			path := args[1]
			info, err := os.Stat(path)
			if err != nil {
				return err
			}

			picker, err := a.picker(kind)
			if err != nil {
				return err
			}
			defer a.close()

			name := filepath.Base(path)
			if err := picker.Upload.Validate(name); err != nil {
				return err
			}
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			var selection *interfaces.AssetSelection
			picker.Strategy.SetCallback(func(sel interfaces.AssetSelection) {
				selection = &sel
			})

			fmt.Fprintln(a.errOut, styleMuted.Render(fmt.Sprintf("Uploading %s (%s)...", name, humanize.Bytes(uint64(info.Size())))))
			if err := picker.Upload.Add(cmd.Context(), upload.File{Name: name, Reader: f}); err != nil {
				if msg := picker.Browser.Snapshot().Error; msg != "" {
					return fmt.Errorf("%s: %w", msg, err)
				}
				return err
			}
			if selection == nil {
				return fmt.Errorf("upload of %s returned no asset", name)
			}
			fmt.Fprintln(a.errOut, styleSuccess.Render(fmt.Sprintf("Uploaded %s as asset %d", name, selection.AssetID)))
			return a.printSelection(*selection, copyOut)
		},
	}
	cmd.Flags().BoolVar(&copyOut, "copy", false, "copy the result to the clipboard")
	return cmd
}
