package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/jeanpaul/cookbook/internal/discovery"
	"github.com/jeanpaul/cookbook/internal/tui"
)

// runInteractive loops over the main menu until the operator quits. The
// collection is loaded once and saved after every change.
func runInteractive(ctx context.Context) error {
	f, st, err := openCollection()
	if err != nil {
		return err
	}

	fmt.Print(tui.BannerStyle.Render(tui.Banner))
	fmt.Println()

	for {
		action, err := tui.RunMenu(fmt.Sprintf("%d items in %s", st.Len(), f.Path()))
		if err != nil {
			return err
		}

		switch action {
		case tui.ActionQuit:
			return nil

		case tui.ActionScanAll, tui.ActionScanSelected:
			var names []string
			if action == tui.ActionScanSelected {
				names, err = tui.RunPicker(st.Items())
				if err != nil {
					return err
				}
				if len(names) == 0 {
					fmt.Println(tui.HelpStyle.Render("  nothing selected"))
					continue
				}
			}
			rep, err := tui.RunScan(ctx, func(ctx context.Context, observe discovery.Observer) (discovery.Report, error) {
				return scanAndSave(ctx, f, st, names, cfg.Scan.Passes, observe)
			})
			if err != nil {
				fmt.Println(tui.ErrorStyle.Render(describeScanError(err)))
				continue
			}
			fmt.Print(tui.RenderReport(rep))

		case tui.ActionAdd:
			name, emoji, ok, err := tui.RunAddForm()
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			it, added, err := addItem(f, st, name, emoji)
			if errors.Is(err, errEmptyName) {
				fmt.Println(tui.HelpStyle.Render("  " + err.Error()))
				continue
			}
			if err != nil {
				return err
			}
			if !added {
				fmt.Println(tui.HelpStyle.Render(fmt.Sprintf("  %q is already in the collection", it.Name)))
				continue
			}
			fmt.Println(tui.BannerStyle.Render("  ✓ added " + it.String()))

		case tui.ActionView:
			fmt.Print(tui.RenderCollection(st))

		case tui.ActionHelp:
			out, err := tui.RenderHelp("", 80)
			if err != nil {
				return err
			}
			fmt.Print(out)
		}
	}
}
