// Package scm turns a Gerrit connection and trigger event into git
// commands that materialize the patchset in a workspace.
package scm

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cihelpers/gerritci/internal/gerrit"
	"github.com/cihelpers/gerritci/internal/trigger"
)

// CheckoutOptions enumerates every tunable of a checkout. There are no
// hidden option keys; unset fields take the defaults below.
type CheckoutOptions struct {
	Dir         string
	Branch      string
	Refspec     string
	LocalBranch string
	Merge       bool
	Wipe        bool
	Depth       int
	Timeout     time.Duration
}

// DefaultCheckoutOptions returns the option defaults: current directory,
// full history, 20 minute per-command timeout.
func DefaultCheckoutOptions() CheckoutOptions {
	return CheckoutOptions{
		Dir:     ".",
		Timeout: 20 * time.Minute,
	}
}

// CheckoutConfig is a fully-resolved checkout: everything needed to run,
// nothing read from the environment past this point.
type CheckoutConfig struct {
	URL         string
	Refspec     string
	Branch      string
	Dir         string
	LocalBranch string
	Merge       bool
	Wipe        bool
	Depth       int
	Timeout     time.Duration
}

// BuildCheckoutConfig resolves a config from the connection, the trigger
// event, and explicit options. Options win over event values. Every missing
// required field is named in one error.
func BuildCheckoutConfig(conn *gerrit.Connection, ev *trigger.Event, opts CheckoutOptions) (*CheckoutConfig, error) {
	cfg := &CheckoutConfig{
		Refspec:     opts.Refspec,
		Branch:      opts.Branch,
		Dir:         opts.Dir,
		LocalBranch: opts.LocalBranch,
		Merge:       opts.Merge,
		Wipe:        opts.Wipe,
		Depth:       opts.Depth,
		Timeout:     opts.Timeout,
	}

	if conn != nil {
		cfg.URL = conn.String()
	}
	if ev != nil {
		if cfg.Refspec == "" {
			cfg.Refspec = ev.Refspec
		}
		if cfg.Branch == "" {
			cfg.Branch = ev.Branch
		}
	}
	if cfg.Dir == "" {
		cfg.Dir = "."
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultCheckoutOptions().Timeout
	}

	var missing []string
	if cfg.URL == "" {
		missing = append(missing, "url")
	}
	if cfg.Refspec == "" {
		missing = append(missing, "refspec")
	}
	if cfg.Merge && cfg.Branch == "" {
		missing = append(missing, "branch (required with merge)")
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("checkout config incomplete, missing: %s", strings.Join(missing, ", "))
	}
	return cfg, nil
}

// Plan returns the git commands a checkout will run, in order, as argv
// slices without the leading "git". Wipe is not a git command and is
// handled separately by the runner.
func (c *CheckoutConfig) Plan() [][]string {
	var plan [][]string

	plan = append(plan, []string{"init", "--quiet", c.Dir})

	fetch := []string{"fetch"}
	if c.Depth > 0 {
		fetch = append(fetch, fmt.Sprintf("--depth=%d", c.Depth))
	}
	fetch = append(fetch, c.URL, c.Refspec)
	plan = append(plan, fetch)

	if c.Merge {
		plan = append(plan,
			[]string{"checkout", "-f", c.Branch},
			[]string{"merge", "--no-edit", "FETCH_HEAD"},
		)
		return plan
	}

	if c.LocalBranch != "" {
		plan = append(plan, []string{"checkout", "-B", c.LocalBranch, "FETCH_HEAD"})
	} else {
		plan = append(plan, []string{"checkout", "-f", "FETCH_HEAD"})
	}
	return plan
}
