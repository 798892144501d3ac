package whisperx

import "strconv"

const (
	// DefaultModel is used when Config.Model is empty.
	DefaultModel = "large-v3"
	// VADSilero and VADPyannote are the supported voice activity detectors.
	VADSilero   = "silero"
	VADPyannote = "pyannote"

	uvxCommand   = "uvx"
	cudaIndexURL = "https://download.pytorch.org/whl/cu128"
	pypiIndexURL = "https://pypi.org/simple"
)

// Config captures runtime settings for WhisperX operations.
type Config struct {
	Model       string
	CUDAEnabled bool
	// VADMethod is VADSilero (default) or VADPyannote. Pyannote VAD needs HFToken.
	VADMethod string
	HFToken   string
	// CacheDir is exported as HF_HOME so model downloads are shared.
	CacheDir  string
	UVXBinary string
	Tuning    Tuning
}

// Tuning holds decoding options. Zero fields take the defaults, which favour
// sentence-sized segments on CPU.
type Tuning struct {
	BatchSize   int
	ChunkSize   int
	BeamSize    int
	VADOnset    float64
	VADOffset   float64
	Temperature float64
}

var defaultTuning = Tuning{
	BatchSize: 4,
	ChunkSize: 15,
	BeamSize:  5,
	VADOnset:  0.08,
	VADOffset: 0.07,
}

func (t Tuning) withDefaults() Tuning {
	if t.BatchSize <= 0 {
		t.BatchSize = defaultTuning.BatchSize
	}
	if t.ChunkSize <= 0 {
		t.ChunkSize = defaultTuning.ChunkSize
	}
	if t.BeamSize <= 0 {
		t.BeamSize = defaultTuning.BeamSize
	}
	if t.VADOnset <= 0 {
		t.VADOnset = defaultTuning.VADOnset
	}
	if t.VADOffset <= 0 {
		t.VADOffset = defaultTuning.VADOffset
	}
	if t.Temperature < 0 {
		t.Temperature = 0
	}
	return t
}

func (t Tuning) args() []string {
	return []string{
		"--batch_size", strconv.Itoa(t.BatchSize),
		"--chunk_size", strconv.Itoa(t.ChunkSize),
		"--beam_size", strconv.Itoa(t.BeamSize),
		"--vad_onset", formatFloat(t.VADOnset),
		"--vad_offset", formatFloat(t.VADOffset),
		"--temperature", formatFloat(t.Temperature),
	}
}

func (c Config) vadMethod() string {
	if c.VADMethod == VADPyannote {
		return VADPyannote
	}
	return VADSilero
}

// deviceArgs selects CUDA or a float32 CPU run.
func (c Config) deviceArgs() []string {
	if c.CUDAEnabled {
		return []string{"--device", "cuda"}
	}
	return []string{"--device", "cpu", "--compute_type", "float32"}
}

// indexArgs points uvx at the CUDA wheel index when GPU support is wanted.
func (c Config) indexArgs() []string {
	if c.CUDAEnabled {
		return []string{"--index-url", cudaIndexURL, "--extra-index-url", pypiIndexURL}
	}
	return []string{"--index-url", pypiIndexURL}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
