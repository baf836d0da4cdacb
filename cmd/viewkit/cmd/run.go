package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/go-drift/viewkit/cmd/viewkit/internal/scenario"
	"github.com/go-drift/viewkit/cmd/viewkit/internal/watch"
	"github.com/go-drift/viewkit/pkg/errors"
)

var runCmd = &cobra.Command{
	Use:   "run [scenario.yaml...]",
	Short: "Run lifecycle scenarios and print their event logs",
	Long: `Run one or more lifecycle scenarios. Without arguments every scenario in
the project's scenario directory is run. A scenario with an expect list
fails when its event log differs.

Examples:
  viewkit run                          # Run every scenario
  viewkit run scenarios/insert.yaml    # Run one scenario
  viewkit run --watch                  # Re-run scenarios as they change`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolP("watch", "w", false, "Re-run scenarios when they change")
	runCmd.Flags().Duration("debounce", 200*time.Millisecond, "Delay before re-running after a change")
	bindFlags(runCmd.Flags(), "watch", "debounce")
}

func runRun(cmd *cobra.Command, args []string) error {
	paths, err := scenarioPaths(args)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	var failed int
	for _, path := range paths {
		if err := runScenario(cmd.Context(), path, out); err != nil {
			failed++
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
		}
	}

	if !viper.GetBool("watch") {
		if failed > 0 {
			return fmt.Errorf("%d of %d scenarios failed", failed, len(paths))
		}
		return nil
	}
	return watchScenarios(cmd, paths)
}

// scenarioPaths returns args, or the scenario files of the project.
func scenarioPaths(args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	dir := project.ScenarioDir
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading scenario directory: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if !e.IsDir() && watch.YAMLFilter(e.Name()) {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no scenarios in %s", dir)
	}
	return paths, nil
}

func runScenario(ctx context.Context, path string, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	sc, err := scenario.Load(path)
	if err != nil {
		return err
	}
	sess, err := scenario.NewSession(sc, scenario.WithLogger(logger))
	if err != nil {
		return err
	}
	rep, runErr := sess.Run(ctx)
	if rep != nil {
		if _, err := rep.WriteTo(out); err != nil {
			return err
		}
	}
	if runErr != nil {
		return runErr
	}
	return rep.Verify(sc.Expect)
}

func watchScenarios(cmd *cobra.Command, paths []string) error {
	w, err := watch.New(viper.GetDuration("debounce"), logger, watch.YAMLFilter)
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer w.Close()

	watched := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		watched[abs] = true
		if err := w.Add(filepath.Dir(abs)); err != nil {
			return fmt.Errorf("failed to watch %s: %w", p, err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("watching scenarios", slog.Int("count", len(watched)))
	err = w.Run(ctx, func(changed []string) {
		for _, p := range changed {
			if !watched[p] {
				continue
			}
			logger.Info("scenario changed", slog.String("path", p))
			if err := runScenario(ctx, p, cmd.OutOrStdout()); err != nil {
				errors.Report(&errors.ViewError{Op: "viewkit.run", Kind: errors.KindConfig, Err: fmt.Errorf("%s: %w", p, err)})
			}
		}
	})
	if ctx.Err() != nil {
		return nil
	}
	return err
}
