package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeanpaul/cookbook/internal/export"
	"github.com/jeanpaul/cookbook/internal/health"
	"github.com/jeanpaul/cookbook/internal/recipe"
	"github.com/jeanpaul/cookbook/internal/tui"
)

var scanPasses int

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Combine every known item with every other",
	Long: `Combines every pair of known items, each item with itself included.
Items found in one pass are combined in the next, until a pass finds nothing
new or --passes passes have run. The collection is saved after every pass.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, st, err := openCollection()
		if err != nil {
			return err
		}
		passes := cfg.Scan.Passes
		if cmd.Flags().Changed("passes") {
			if scanPasses < 0 {
				return fmt.Errorf("--passes must not be negative")
			}
			passes = scanPasses
		}
		rep, err := scanAndSave(cmd.Context(), f, st, nil, passes, tui.PrintProgress(cmd.OutOrStdout()))
		if err != nil {
			return errors.New(describeScanError(err))
		}
		fmt.Fprint(cmd.OutOrStdout(), tui.RenderReport(rep))
		return nil
	},
}

var craftCmd = &cobra.Command{
	Use:   "craft <item> [item...]",
	Short: "Combine only the given items with each other",
	Long: `Combines every pair drawn from the given items, each item with itself
included. Pairs already recorded anywhere in the collection are skipped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, st, err := openCollection()
		if err != nil {
			return err
		}
		rep, err := scanAndSave(cmd.Context(), f, st, args, 0, tui.PrintProgress(cmd.OutOrStdout()))
		if err != nil {
			return errors.New(describeScanError(err))
		}
		fmt.Fprint(cmd.OutOrStdout(), tui.RenderReport(rep))
		return nil
	},
}

var addCmd = &cobra.Command{
	Use:   "add <name> [emoji]",
	Short: "Add an item you already own",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, st, err := openCollection()
		if err != nil {
			return err
		}
		emoji := ""
		if len(args) == 2 {
			emoji = args[1]
		}
		it, added, err := addItem(f, st, args[0], emoji)
		if err != nil {
			return err
		}
		if !added {
			fmt.Fprintln(cmd.OutOrStdout(), tui.HelpStyle.Render(fmt.Sprintf("%q is already in the collection", it.Name)))
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), tui.BannerStyle.Render("✓ added "+it.String()))
		return nil
	},
}

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "List the collection",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, st, err := openCollection()
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), tui.RenderCollection(st))
		return nil
	},
}

var recipeCmd = &cobra.Command{
	Use:   "recipe <item>",
	Short: "Show how to craft an item from the base items",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, st, err := openCollection()
		if err != nil {
			return err
		}
		steps, err := recipe.Plan(st, args[0])
		if err != nil {
			return err
		}
		if len(steps) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), tui.HelpStyle.Render(args[0]+" is a base item"))
			return nil
		}
		fmt.Fprint(cmd.OutOrStdout(), recipe.Render(steps))
		return nil
	},
}

func init() {
	scanCmd.Flags().IntVar(&scanPasses, "passes", 0, "Stop after this many passes (0 repeats until a pass finds nothing; default scan.passes)")
}

var exportCmd = &cobra.Command{
	Use:   "export <database>",
	Short: "Write the collection to a SQLite database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, st, err := openCollection()
		if err != nil {
			return err
		}
		n, err := export.WriteSQLite(cmd.Context(), args[0], st)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tui.BannerStyle.Render(fmt.Sprintf("✓ %d items, %d recipes, %d exhausted pairs → %s", n.Items, n.Recipes, n.Exhausted, args[0])))
		return nil
	},
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the game is reachable and the collection loads",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, tui.BannerStyle.Render("  Health Check"))
		fmt.Fprintln(out)

		healthy := true

		fmt.Fprintf(out, "  %s %s ... ", tui.SpinnerStyle.Render("●"), tui.ItemStyle.Render("oracle"))
		status := health.Check(cmd.Context(), cfg.Oracle.BaseURL, cfg.Oracle.Referer)
		switch {
		case !status.Reachable:
			healthy = false
			fmt.Fprintln(out, tui.ErrorStyle.Render("✗ "+status.Error))
		case status.Blocked:
			healthy = false
			fmt.Fprintln(out, tui.ErrorStyle.Render("✗ "+status.Error))
		case status.Error != "":
			fmt.Fprintln(out, tui.WarnStyle.Render("! "+status.Error))
		default:
			fmt.Fprintf(out, "%s %s\n", tui.BannerStyle.Render("✓ OK"), tui.HelpStyle.Render(status.Latency.Round(time.Millisecond).String()))
		}

		fmt.Fprintf(out, "  %s %s ... ", tui.SpinnerStyle.Render("●"), tui.ItemStyle.Render("collection"))
		cs := health.CheckCollection(cfg.Collection.Path, cfg.Collection.DecompressRatio)
		switch {
		case cs.Error != "":
			healthy = false
			fmt.Fprintln(out, tui.ErrorStyle.Render("✗ "+cs.Error))
		case !cs.Exists:
			fmt.Fprintln(out, tui.HelpStyle.Render("- "+cs.Path+" not found, the first scan creates it"))
		default:
			fmt.Fprintf(out, "%s %s\n", tui.BannerStyle.Render(fmt.Sprintf("✓ %d items", cs.Items)),
				tui.HelpStyle.Render(fmt.Sprintf("(%d exhausted pairs, %d bytes)", cs.Exhausted, cs.Size)))
		}

		fmt.Fprintln(out)
		if !healthy {
			return errors.New("some checks failed")
		}
		fmt.Fprintln(out, tui.BannerStyle.Render("  All checks passed."))
		return nil
	},
}
