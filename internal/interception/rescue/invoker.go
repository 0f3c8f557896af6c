// Package rescue hands a seized device to the toolkit's rescue script and
// checks that the script and its firmware are in place before interception starts.
package rescue

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/vietddude/pacman/internal/core/domain"
	"github.com/vietddude/pacman/internal/infra/process"
)

// Invoker runs the rescue script with the recovery mode as its only argument.
type Invoker struct {
	script string
	runner process.Runner
	log    *slog.Logger
}

// NewInvoker creates an invoker for the script at path.
func NewInvoker(path string, runner process.Runner, log *slog.Logger) *Invoker {
	if log == nil {
		log = slog.Default()
	}
	return &Invoker{script: path, runner: runner, log: log}
}

// Invoke marks the script executable and runs it to completion. The
// script's exit status is logged but not returned; only a launch failure is.
func (i *Invoker) Invoke(ctx context.Context, mode domain.RecoveryMode) error {
	if err := os.Chmod(i.script, 0o755); err != nil {
		i.log.Debug("Could not mark rescue script executable", "path", i.script, "error", err)
	}

	i.log.Info("Starting rescue procedure", "script", i.script, "mode", mode)
	code, err := i.runner.Run(ctx, []string{i.script, string(mode)})
	if err != nil {
		return fmt.Errorf("run rescue script: %w", err)
	}
	if code != 0 {
		i.log.Warn("Rescue script exited with non-zero status", "status", code, "mode", mode)
		return nil
	}
	i.log.Info("Rescue procedure finished", "mode", mode)
	return nil
}
