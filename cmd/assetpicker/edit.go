package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	assetlib "github.com/goliatone/go-asset-library"
	"github.com/goliatone/go-asset-library/pkg/interfaces"
)

func newEditCmd(a *app) *cobra.Command {
	var (
		width     int
		height    int
		crop      string
		grayscale bool
		rotate    int
	)
	cmd := &cobra.Command{
		Use:   "edit <src>",
		Short: "Apply image transformations (crop, grayscale, rotate) in order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if crop == "" && !grayscale && !cmd.Flags().Changed("rotate") {
				return errors.New("nothing to do: pass --crop, --grayscale or --rotate")
			}
			var rect *interfaces.CropRect
			if crop != "" {
				parsed, err := parseCrop(crop)
				if err != nil {
					return err
				}
				rect = &parsed
			}

			module, err := a.open()
			if err != nil {
				return err
			}
			defer a.close()

			ctx := cmd.Context()
			ed := module.NewImageEditor(args[0], width, height, assetlib.EditorOptions{})

			if rect != nil {
				if !ed.Croppable() {
					return fmt.Errorf("image %dx%d is below the minimum crop size", width, height)
				}
				if err := ed.Crop(ctx); err != nil {
					return err
				}
				if err := ed.SelectCrop(*rect); err != nil {
					return err
				}
				if err := ed.Apply(ctx); err != nil {
					return err
				}
			}
			if grayscale {
				if err := ed.Grayscale(ctx); err != nil {
					return err
				}
				if err := ed.Apply(ctx); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("rotate") {
				if err := ed.Rotate(ctx, rotate); err != nil {
					return err
				}
			}

			state := ed.State()
			fmt.Fprintln(a.out, state.Src)
			fmt.Fprintln(a.out, styleMuted.Render(fmt.Sprintf("%dx%d", state.Width, state.Height)))
			return nil
		},
	}
	cmd.Flags().IntVar(&width, "width", 0, "true image width")
	cmd.Flags().IntVar(&height, "height", 0, "true image height")
	cmd.Flags().StringVar(&crop, "crop", "", "crop rectangle x1,y1,x2,y2 in image pixels")
	cmd.Flags().BoolVar(&grayscale, "grayscale", false, "convert to grayscale")
	cmd.Flags().IntVar(&rotate, "rotate", 0, "rotate by degrees")
	return cmd
}

func parseCrop(raw string) (interfaces.CropRect, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return interfaces.CropRect{}, fmt.Errorf("invalid crop %q: want x1,y1,x2,y2", raw)
	}
	values := make([]float64, 4)
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return interfaces.CropRect{}, fmt.Errorf("invalid crop %q: %w", raw, err)
		}
		values[i] = v
	}
	return interfaces.CropRect{X1: values[0], Y1: values[1], X2: values[2], Y2: values[3]}, nil
}
