package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/go-drift/viewkit/cmd/viewkit/internal/scenario"
	"github.com/go-drift/viewkit/pkg/debug"
	"github.com/go-drift/viewkit/pkg/renderer"
)

var serveCmd = &cobra.Command{
	Use:   "serve <scenario.yaml>",
	Short: "Run a scenario behind the debug server",
	Long: `Start the debug server, run a scenario, and keep serving its view tree
and lifecycle trace until interrupted.

Endpoints:
  /health       liveness
  /view-tree    views with state and children
  /lifecycle    recent lifecycle events (?view=ID&limit=N)
  /events       websocket stream of lifecycle events

Examples:
  viewkit serve scenarios/insert.yaml
  viewkit serve scenarios/insert.yaml --port 0 --trace-size 2048`,
	Args: cobra.ExactArgs(1),
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 0, "Port to serve on (default from viewkit.yaml debug.port)")
	serveCmd.Flags().Int("trace-size", 512, "Number of lifecycle events kept for /lifecycle")
	serveCmd.Flags().Duration("wait", 0, "Delay before running the scenario, to let clients connect")
	bindFlags(serveCmd.Flags(), "port", "trace-size", "wait")
}

func runServe(cmd *cobra.Command, args []string) error {
	sc, err := scenario.Load(args[0])
	if err != nil {
		return err
	}

	var (
		mu  sync.Mutex
		srv *debug.Server
	)
	sess, err := scenario.NewSession(sc,
		scenario.WithLogger(logger),
		scenario.WithLock(&mu),
		scenario.WithObserver(func(n renderer.Notification) { srv.Observe(n) }),
	)
	if err != nil {
		return err
	}
	srv = debug.NewServer(sess.Registry(),
		debug.WithLock(&mu),
		debug.WithLogger(logger),
		debug.WithTrace(debug.NewTrace(viper.GetInt("trace-size"))),
	)

	port, err := srv.Start(viper.GetInt("port"))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "debug server: http://localhost:%d\n", port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Stop(shutdownCtx); err != nil {
			logger.Warn("debug server shutdown", slog.Any("error", err))
		}
	}()

	if wait := viper.GetDuration("wait"); wait > 0 {
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return nil
		}
	}

	rep, runErr := sess.Run(ctx)
	if rep != nil {
		if _, err := rep.WriteTo(cmd.OutOrStdout()); err != nil {
			return err
		}
	}
	if runErr != nil {
		logger.Error("scenario failed", slog.Any("error", runErr))
	} else if err := rep.Verify(sc.Expect); err != nil {
		logger.Warn("scenario expectations", slog.Any("error", err))
	}

	logger.Info("serving until interrupted")
	<-ctx.Done()
	return nil
}
