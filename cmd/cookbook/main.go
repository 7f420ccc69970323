package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeanpaul/cookbook/internal/codec"
	"github.com/jeanpaul/cookbook/internal/config"
	"github.com/jeanpaul/cookbook/internal/discovery"
	"github.com/jeanpaul/cookbook/internal/item"
	"github.com/jeanpaul/cookbook/internal/logging"
	"github.com/jeanpaul/cookbook/internal/oracle"
	"github.com/jeanpaul/cookbook/internal/store"
	"github.com/jeanpaul/cookbook/internal/tui"
)

var (
	// Global flags
	verbose        bool
	configPath     string
	collectionPath string

	cfg    *config.Config
	logger *zap.Logger
)

var errEmptyName = errors.New("an item name is required")

var rootCmd = &cobra.Command{
	Use:   "cookbook",
	Short: "Discover Infinite Craft combinations",
	Long: `cookbook asks the Infinite Craft oracle what pairs of known items make,
records every recipe it learns and saves the collection to disk.

Run without arguments for the interactive menu.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if collectionPath != "" {
			cfg.Collection.Path = collectionPath
		}

		// The menu owns the terminal, so logs go to a file next to the
		// collection instead.
		if !cmd.HasParent() { // the root command; comparing to rootCmd here would be an init cycle
			logger, err = logging.Quiet(cfg.Collection.Path + ".log")
		} else {
			logger, err = logging.New(verbose)
		}
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractive(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ./config.yaml or ~/.config/cookbook/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&collectionPath, "collection", "c", "", "Collection file (overrides collection.path)")

	rootCmd.AddCommand(scanCmd, craftCmd, addCmd, viewCmd, recipeCmd, exportCmd, doctorCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fatal("%s", err)
	}
}

func fatal(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, tui.ErrorStyle.Render("error: "+msg))
	os.Exit(1)
}

func collectionFile() *codec.File {
	return codec.NewFile(codec.New(cfg.Collection.Level, logger), cfg.Collection.Path, cfg.Collection.DecompressRatio)
}

// openCollection loads the collection, seeding a fresh one when the file
// does not exist yet.
func openCollection() (*codec.File, *store.Store, error) {
	f := collectionFile()
	st, _, err := f.OpenOrSeed()
	if err != nil {
		return nil, nil, err
	}
	return f, st, nil
}

func newEngine(st *store.Store, f *codec.File, observe discovery.Observer) (*discovery.Engine, error) {
	policy, err := cfg.Scan.Policy.Policy()
	if err != nil {
		return nil, err
	}
	client := oracle.NewClient(oracle.Options{
		BaseURL:   cfg.Oracle.BaseURL,
		Referer:   cfg.Oracle.Referer,
		UserAgent: cfg.Oracle.UserAgent,
		Timeout:   cfg.Oracle.Timeout,
		Logger:    logger,
	})
	return discovery.New(st, client, discovery.Options{
		Cooldown:        cfg.Scan.Cooldown,
		SnapshotEvery:   cfg.Scan.SnapshotEvery,
		RememberNothing: cfg.Scan.RememberNothing,
		Policy:          policy,
		Saver:           f,
		Observer:        observe,
		Logger:          logger,
	}), nil
}

// scanAndSave scans names and saves the collection when the scan finishes.
// A nil names scans every item, pass after pass (see scan.passes), saving
// after each one. An aborted scan has already written its own snapshot.
func scanAndSave(ctx context.Context, f *codec.File, st *store.Store, names []string, passes int, observe discovery.Observer) (discovery.Report, error) {
	eng, err := newEngine(st, f, observe)
	if err != nil {
		return discovery.Report{}, err
	}

	if names == nil {
		return eng.ScanPasses(ctx, passes, func(discovery.Report) error {
			return f.Save(st)
		})
	}

	rep, err := eng.Scan(ctx, names)
	if err != nil {
		return rep, err
	}
	if err := f.Save(st); err != nil {
		return rep, err
	}
	return rep, nil
}

// addItem adds an operator-supplied item and saves the collection. Names are
// trimmed; an empty one is refused.
func addItem(f *codec.File, st *store.Store, name, emoji string) (item.Item, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return item.Item{}, false, errEmptyName
	}
	if !st.Add(name, strings.TrimSpace(emoji)) {
		it, _ := st.Get(name)
		return it, false, nil
	}
	if err := f.Save(st); err != nil {
		return item.Item{}, false, err
	}
	it, _ := st.Get(name)
	return it, true, nil
}

// describeScanError turns a scan failure into operator-facing lines.
func describeScanError(err error) string {
	var serr *discovery.ScanError
	if !errors.As(err, &serr) {
		return err.Error()
	}
	msg := fmt.Sprintf("scan stopped after %d completed pairs at %s: %v", serr.Completed, serr.Pair, serr.Cause)
	if f := serr.Failure(); f != nil {
		switch f.Kind {
		case oracle.Forbidden:
			msg += "\nthe game is refusing requests; wait a while before scanning again"
		case oracle.RateLimited:
			msg += "\nthe game is rate limiting; raise scan.cooldown or wait before scanning again"
		case oracle.MalformedResponse:
			msg += "\nthe game's reply format may have changed"
		}
	}
	if serr.SnapshotErr != nil {
		msg += fmt.Sprintf("\nprogress could NOT be saved: %v", serr.SnapshotErr)
	} else {
		msg += "\nprogress up to the failing pair was saved"
	}
	return msg
}
