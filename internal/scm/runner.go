package scm

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Runner executes checkout configs.
type Runner interface {
	Checkout(ctx context.Context, cfg *CheckoutConfig) error
}

// GitRunner implements Runner using the git binary.
type GitRunner struct{}

// NewGitRunner returns a new GitRunner.
func NewGitRunner() *GitRunner {
	return &GitRunner{}
}

// Checkout wipes the workspace when requested, then runs the config's plan.
// `git init` is idempotent, so an existing workspace is reused when Wipe is
// off. Each command gets the config's timeout.
func (r *GitRunner) Checkout(ctx context.Context, cfg *CheckoutConfig) error {
	if cfg.Wipe {
		if err := wipeDir(cfg.Dir); err != nil {
			return fmt.Errorf("wipe workspace: %w", err)
		}
	}
	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return fmt.Errorf("create workspace: %w", err)
	}

	for i, args := range cfg.Plan() {
		// init takes the directory as an argument; everything else runs
		// inside it
		if i > 0 {
			args = append([]string{"-C", cfg.Dir}, args...)
		}
		if _, err := gitCmd(ctx, cfg.Timeout, args...); err != nil {
			return err
		}
	}
	return nil
}

// wipeDir removes the contents of dir without removing dir itself, so a
// workspace that is a mount point survives.
func wipeDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

func gitCmd(ctx context.Context, timeout time.Duration, args ...string) (string, error) {
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	log.Debug().Strs("args", args).Msg("run git")
	out, err := exec.CommandContext(cctx, "git", args...).Output()
	if err != nil {
		if cctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("git %s: timed out after %s", strings.Join(args, " "), timeout)
		}
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", fmt.Errorf("git %s: %s", strings.Join(args, " "), strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	return strings.TrimSpace(string(out)), nil
}
