package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"bossnotifier/internal/app"
	"bossnotifier/internal/overlay"
)

const stopTimeout = 5 * time.Second

func newRunCommand(configFlag *string) *cobra.Command {
	var noInput bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Watch the raid feed and show boss alerts",
		Long: "Watch the raid feed and show boss alerts.\n\n" +
			"Type the replay key (default 0) and press Enter to show the last alert again.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := app.Options{ConfigPath: *configFlag, Output: os.Stdout}
			if !noInput && overlay.IsTerminal(os.Stdin.Fd()) {
				opts.Input = os.Stdin
			}
			return runApp(cmd.Context(), opts)
		},
	}
	cmd.Flags().BoolVar(&noInput, "no-input", false, "Do not read the replay key from stdin")
	return cmd
}

func runApp(ctx context.Context, opts app.Options) error {
	if ctx == nil {
		ctx = context.Background()
	}
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	a, err := app.New(opts)
	if err != nil {
		return err
	}
	if err := a.Start(ctx); err != nil {
		_ = a.Stop(context.Background(), app.StopFatalError)
		return err
	}

	reason := app.StopAppStop
	select {
	case sig := <-sigs:
		reason = app.StopSIGTERM
		if sig == syscall.SIGINT {
			reason = app.StopSIGINT
		}
	case <-a.Done():
		if a.Err() != nil {
			reason = app.StopFatalError
		}
	case <-ctx.Done():
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	if err := a.Stop(stopCtx, reason); err != nil {
		return err
	}
	return a.Err()
}
