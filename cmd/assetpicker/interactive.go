package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-asset-library/internal/strategy"
	"github.com/goliatone/go-asset-library/internal/tui"
	"github.com/goliatone/go-asset-library/pkg/interfaces"
)

func newInteractiveCmd(a *app) *cobra.Command {
	var (
		maxLength int
		copyOut   bool
	)
	cmd := &cobra.Command{
		Use:       "interactive <kind>",
		Aliases:   []string{"ui"},
		Short:     "Browse and pick an asset interactively",
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

			if setter, ok := picker.Strategy.(strategy.MaxLengthSetter); ok {
				setter.SetMaxLength(maxLength)
			}
			var selection *interfaces.AssetSelection
			picker.Strategy.SetCallback(func(sel interfaces.AssetSelection) {
				selection = &sel
			})

			model := tui.New(cmd.Context(), picker.Browser)
			if _, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run(); err != nil {
				return err
			}
			if selection == nil {
				fmt.Fprintln(a.errOut, styleMuted.Render("Nothing selected."))
				return nil
			}
			return a.printSelection(*selection, copyOut)
		},
	}
	cmd.Flags().IntVar(&maxLength, "max-length", 0, "maximum snippet length (0 = unlimited)")
	cmd.Flags().BoolVar(&copyOut, "copy", false, "copy the result to the clipboard")
	return cmd
}
