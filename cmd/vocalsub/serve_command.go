package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"vocalsub/internal/api"
	"vocalsub/internal/config"
	"vocalsub/internal/logging"
	"vocalsub/internal/pipeline"
	"vocalsub/internal/session"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string
	var exportDir string

	cmd := &cobra.Command{
		Use:   "serve [file.srt]",
		Short: "Run the HTTP editing server",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}

			sess := session.New()
			if len(args) == 1 {
				if sess, err = session.Open(args[0]); err != nil {
					return err
				}
			}

			opts := api.Options{
				Session:   sess,
				Hub:       api.NewProgressHub(0),
				Logger:    logger,
				ExportDir: strings.TrimSpace(exportDir),
			}
			if runner := newServeRunner(cfg, logger); runner != nil {
				opts.Runner = runner
			}

			address := strings.TrimSpace(bind)
			if address == "" {
				address = cfg.API.Bind
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			server := api.New(opts)
			if err := server.Start(runCtx, address); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Editing server listening on http://%s\n", server.Addr())
			if path := sess.Path(); path != "" {
				fmt.Fprintf(out, "Loaded %s\n", path)
			}

			<-runCtx.Done()
			server.Stop()
			return nil
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (default from config api.bind)")
	cmd.Flags().StringVar(&exportDir, "export-dir", "", "Directory for edited exports (default: next to the source)")
	return cmd
}

// newServeRunner returns nil when the pipeline cannot run with cfg; the
// server then answers run requests with 503 and editing still works.
func newServeRunner(cfg *config.Config, logger *slog.Logger) *pipeline.Orchestrator {
	if err := cfg.ValidatePipeline(); err != nil {
		logging.WarnWithContext(logger, "pipeline runs disabled", "runs_disabled",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "set diarization.hf_token to enable runs"),
			logging.String(logging.FieldImpact, "POST /api/runs answers 503"),
		)
		return nil
	}
	orch, err := pipeline.NewFromConfig(cfg, logger)
	if err != nil {
		logger.Warn("pipeline runs disabled", logging.Error(err))
		return nil
	}
	return orch
}
