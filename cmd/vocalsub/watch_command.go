package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"vocalsub/internal/config"
	"vocalsub/internal/logging"
	"vocalsub/internal/pipeline"
	"vocalsub/internal/watch"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var dir string
	var polling bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Generate subtitles for videos dropped into the inbox directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			inbox := strings.TrimSpace(dir)
			if inbox == "" {
				inbox = cfg.Watch.InboxDir
			}
			if inbox == "" {
				return fmt.Errorf("no inbox directory: pass --dir or set watch.inbox_dir")
			}
			if inbox, err = config.ExpandPath(inbox); err != nil {
				return fmt.Errorf("resolve inbox: %w", err)
			}
			if err := cfg.ValidatePipeline(); err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := runPreflight(runCtx, cfg); err != nil {
				return err
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}
			orch, err := pipeline.NewFromConfig(cfg, logger)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			process := func(ctx context.Context, path string) error {
				fmt.Fprintf(out, "processing %s\n", path)
				output, err := orch.Run(ctx, path, printProgress(out))
				if err != nil {
					return err
				}
				logger.Info("inbox video processed",
					logging.String(logging.FieldEventType, "watch_processed"),
					logging.String("video", path),
					logging.String("output", output),
				)
				return nil
			}

			watcher := watch.New(watch.Options{
				Dir:          inbox,
				Extensions:   cfg.Watch.Extensions,
				Settle:       time.Duration(cfg.Watch.SettleSeconds) * time.Second,
				ForcePolling: polling,
				Logger:       logger,
			}, process)
			fmt.Fprintf(out, "Watching %s\n", inbox)
			return watcher.Run(runCtx)
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Inbox directory (default from config watch.inbox_dir)")
	cmd.Flags().BoolVar(&polling, "poll", false, "Poll the directory instead of using filesystem notifications")
	return cmd
}
