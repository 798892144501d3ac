package config

const (
	defaultConfigPath            = "~/.config/vocalsub/config.toml"
	defaultWorkDir               = "~/.local/share/vocalsub/work"
	defaultLogDir                = "~/.local/share/vocalsub/logs"
	defaultHFCacheDir            = "~/.cache/huggingface"
	defaultTranscriptionModel    = "large-v3"
	defaultTranscriptionLanguage = "auto"
	defaultVADMethod             = "silero"
	defaultDiarizationModel      = "pyannote/speaker-diarization-3.1"
	defaultSeparationModel       = "htdemucs"
	defaultSeparationSampleRate  = 44100
	defaultRefinementBaseURL     = "https://api.deepseek.com/chat/completions"
	defaultRefinementModel       = "deepseek-chat"
	defaultRefinementTemperature = 0.2
	defaultRefinementTimeout     = 120
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultWatchSettleSeconds    = 5
	defaultAPIBind               = "127.0.0.1:7860"
)

var defaultWatchExtensions = []string{".mp4", ".mkv", ".mov", ".avi", ".webm"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:    defaultWorkDir,
			LogDir:     defaultLogDir,
			HFCacheDir: defaultHFCacheDir,
		},
		Transcription: Transcription{
			Model:     defaultTranscriptionModel,
			Language:  defaultTranscriptionLanguage,
			VADMethod: defaultVADMethod,
		},
		Diarization: Diarization{
			Model: defaultDiarizationModel,
		},
		Separation: Separation{
			Model:      defaultSeparationModel,
			SampleRate: defaultSeparationSampleRate,
		},
		Refinement: Refinement{
			BaseURL:        defaultRefinementBaseURL,
			Model:          defaultRefinementModel,
			Temperature:    defaultRefinementTemperature,
			TimeoutSeconds: defaultRefinementTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Watch: Watch{
			Extensions:    append([]string(nil), defaultWatchExtensions...),
			SettleSeconds: defaultWatchSettleSeconds,
		},
		API: API{
			Bind: defaultAPIBind,
		},
	}
}
