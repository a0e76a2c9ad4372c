package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Tom21-xd/Uceva-sub002/internal/config"
	logpkg "github.com/Tom21-xd/Uceva-sub002/internal/logger"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root, cleanup := rootCmd()
	defer cleanup()
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}

// rootCmd builds the command tree. cleanup releases what PersistentPreRunE
// opened and must run whether or not the command succeeded.
func rootCmd() (*cobra.Command, func()) {
	var a *app
	cleanup := func() {
		if a == nil {
			return
		}
		a.Close()
		_ = a.logger.Sync()
		a = nil
	}
	root := &cobra.Command{
		Use:          "dengue-client",
		Short:        "Client for the dengue surveillance backend",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			log, err := logpkg.NewLogger(cfg.Log.Level, cfg.Log.Format, "dengue-client")
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			a, err = newApp(cmd.Context(), cfg, log)
			if err != nil {
				log.Error("Failed to start client", zap.Error(err))
				return err
			}
			switch cmd.Name() {
			case "login", "logout":
			default:
				a.refreshExpiredToken(cmd.Context(), time.Now())
			}
			return nil
		},
	}

	// commands receive the app lazily: it only exists after PersistentPreRunE
	get := func() *app { return a }
	root.AddCommand(
		loginCmd(get),
		logoutCmd(get),
		whoamiCmd(get),
		casesCmd(get),
		caseCmd(get),
		importCmd(get),
		permissionsCmd(get),
		quizCmd(get),
		notificationsCmd(get),
		rethusCmd(get),
	)
	return root, cleanup
}
