package pipeline

import (
	"log/slog"

	"vocalsub/internal/config"
	"vocalsub/internal/media/audio"
	"vocalsub/internal/refine"
	"vocalsub/internal/services/demucs"
	"vocalsub/internal/services/llm"
	"vocalsub/internal/services/pyannote"
	"vocalsub/internal/services/whisperx"
)

// NewFromConfig wires the production collaborators described by cfg.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) (*Orchestrator, error) {
	deps := Collaborators{
		Audio: audio.NewExtractor(cfg.FFmpegBinary(), cfg.FFprobeBinary()),
		Separator: demucs.NewService(demucs.Config{
			Model:       cfg.Separation.Model,
			SampleRate:  cfg.Separation.SampleRate,
			CUDAEnabled: cfg.Transcription.CUDAEnabled,
			CacheDir:    cfg.Paths.HFCacheDir,
			UVXBinary:   cfg.UVXBinary(),
		}),
		Diarizer: pyannote.NewService(pyannote.Config{
			Model:       cfg.Diarization.Model,
			HFToken:     cfg.Diarization.HFToken,
			CacheDir:    cfg.Paths.HFCacheDir,
			CUDAEnabled: cfg.Transcription.CUDAEnabled,
			UVXBinary:   cfg.UVXBinary(),
		}),
		Transcriber: whisperx.NewService(whisperx.Config{
			Model:       cfg.Transcription.Model,
			CUDAEnabled: cfg.Transcription.CUDAEnabled,
			VADMethod:   cfg.Transcription.VADMethod,
			HFToken:     cfg.Diarization.HFToken,
			CacheDir:    cfg.Paths.HFCacheDir,
			UVXBinary:   cfg.UVXBinary(),
		}),
	}
	if cfg.Refinement.Enabled {
		deps.Refiner = refine.NewClientRefiner(llm.Config(cfg.RefinementLLM()))
	}
	return New(deps, Options{
		WorkDir:     cfg.Paths.WorkDir,
		OutputDir:   cfg.Paths.OutputDir,
		Language:    cfg.Transcription.Language,
		NumSpeakers: cfg.Diarization.NumSpeakers,
	}, logger)
}
