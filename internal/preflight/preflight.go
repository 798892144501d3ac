package preflight

import (
	"context"
	"fmt"
	"strings"

	"vocalsub/internal/config"
)

// MinFreeBytes is the scratch space a typical run needs for extracted and
// separated audio of a feature-length video.
const MinFreeBytes = 4 << 30

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}

// Summarize joins failed checks into one error message, or returns nil.
func Summarize(results []Result) error {
	failed := Failed(results)
	if len(failed) == 0 {
		return nil
	}
	parts := make([]string, 0, len(failed))
	for _, r := range failed {
		parts = append(parts, fmt.Sprintf("%s: %s", r.Name, r.Detail))
	}
	return fmt.Errorf("preflight failed: %s", strings.Join(parts, "; "))
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results, CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir))
	if cfg.Paths.OutputDir != "" {
		results = append(results, CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir))
	}
	results = append(results, CheckScratchSpace(cfg.Paths.WorkDir, MinFreeBytes))
	for _, status := range CheckSystemDeps(cfg) {
		result := Result{Name: status.Name, Passed: status.Available, Detail: status.Detail}
		if result.Passed {
			result.Detail = status.Path
		}
		results = append(results, result)
	}
	results = append(results, CheckHuggingFaceToken(cfg.Diarization.HFToken))
	if cfg.Refinement.Enabled {
		results = append(results, CheckLLM(ctx, "Refinement LLM", cfg.RefinementLLM()))
	}
	return results
}
