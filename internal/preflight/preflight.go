package preflight

import (
	"context"
	"fmt"
	"strings"

	"reel/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name    string
	Passed  bool
	Detail  string
	Version string
}

// RunAll executes the storage and tool checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	results := []Result{
		CheckDirectoryAccess("Storage root", cfg.Paths.StorageRoot),
		CheckDirectoryAccess("Footage root", cfg.FootageRoot()),
		CheckDirectoryAccess("Preview directory", cfg.PreviewDir()),
	}
	for _, status := range CheckSystemDeps(ctx, cfg) {
		result := Result{Name: status.Name, Passed: status.Available, Detail: status.Detail, Version: status.Version}
		if result.Passed {
			result.Detail = status.Command
		}
		results = append(results, result)
	}
	return results
}

// FirstFailure returns an error describing the failed checks, or nil.
func FirstFailure(results []Result) error {
	var failed []string
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, fmt.Sprintf("%s: %s", r.Name, r.Detail))
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return fmt.Errorf("preflight failed: %s", strings.Join(failed, "; "))
}
