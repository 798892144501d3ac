package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"vocalsub/internal/config"
	"vocalsub/internal/pipeline"
	"vocalsub/internal/preflight"
	"vocalsub/internal/services"
)

type generateOptions struct {
	language      string
	speakers      int
	outputDir     string
	noRefine      bool
	skipPreflight bool
}

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var opts generateOptions

	cmd := &cobra.Command{
		Use:   "generate <video>",
		Short: "Generate speaker-attributed subtitles for a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			video, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve video path: %w", err)
			}
			if info, err := os.Stat(video); err != nil || info.IsDir() {
				return services.Wrap(services.ErrNotFound, "", "generate", "video file", fmt.Errorf("%s is not a readable file", video))
			}

			runCfg, err := opts.apply(cmd, cfg)
			if err != nil {
				return err
			}
			if err := runCfg.ValidatePipeline(); err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			if !opts.skipPreflight {
				if err := runPreflight(runCtx, runCfg); err != nil {
					return err
				}
			}

			logger, err := ctx.logger()
			if err != nil {
				return err
			}
			orch, err := pipeline.NewFromConfig(runCfg, logger)
			if err != nil {
				return err
			}
			output, err := orch.Run(runCtx, video, printProgress(out))
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Subtitles written to %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.language, "language", "l", "", "Language code, or \"auto\" to detect (default from config)")
	cmd.Flags().IntVarP(&opts.speakers, "speakers", "n", 0, "Expected number of speakers; 0 detects automatically (default from config)")
	cmd.Flags().StringVarP(&opts.outputDir, "output-dir", "o", "", "Directory for the subtitle file (default: next to the video)")
	cmd.Flags().BoolVar(&opts.noRefine, "no-refine", false, "Skip LLM text refinement even when enabled in config")
	cmd.Flags().BoolVar(&opts.skipPreflight, "skip-preflight", false, "Skip dependency and credential checks")
	return cmd
}

// apply returns a copy of cfg with command-line overrides applied.
func (o generateOptions) apply(cmd *cobra.Command, cfg *config.Config) (*config.Config, error) {
	runCfg := *cfg
	if lang := strings.TrimSpace(o.language); lang != "" {
		runCfg.Transcription.Language = strings.ToLower(lang)
	}
	if cmd.Flags().Changed("speakers") {
		if o.speakers < 0 {
			return nil, services.Wrap(services.ErrValidation, "", "generate", "speakers", fmt.Errorf("must be zero or positive, got %d", o.speakers))
		}
		runCfg.Diarization.NumSpeakers = o.speakers
	}
	if dir := strings.TrimSpace(o.outputDir); dir != "" {
		expanded, err := config.ExpandPath(dir)
		if err != nil {
			return nil, fmt.Errorf("resolve output dir: %w", err)
		}
		if err := os.MkdirAll(expanded, 0o755); err != nil {
			return nil, fmt.Errorf("create output dir: %w", err)
		}
		runCfg.Paths.OutputDir = expanded
	}
	if o.noRefine {
		runCfg.Refinement.Enabled = false
	}
	if err := runCfg.Validate(); err != nil {
		return nil, err
	}
	return &runCfg, nil
}

func runPreflight(ctx context.Context, cfg *config.Config) error {
	return preflight.Summarize(preflight.RunAll(ctx, cfg))
}

func printProgress(out io.Writer) pipeline.ProgressFunc {
	return func(p pipeline.Progress) {
		fmt.Fprintln(out, p.Message)
	}
}
