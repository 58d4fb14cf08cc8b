package gerrit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/cihelpers/gerritci/internal/sshx"
)

// Querier looks up change metadata on a Gerrit server.
type Querier interface {
	QueryChange(ref string) (*Change, error)
}

// CommandRunner executes a single remote command. *sshx.Transport satisfies it.
type CommandRunner interface {
	RunCommand(command string) (*sshx.Command, error)
}

// SSHQuerier implements Querier over Gerrit's SSH command interface.
type SSHQuerier struct {
	runner CommandRunner
}

// NewSSHQuerier returns a Querier that runs `gerrit query` over the given
// transport.
func NewSSHQuerier(runner CommandRunner) *SSHQuerier {
	return &SSHQuerier{runner: runner}
}

// QueryChange fetches one change with its current patchset and all
// approvals. ref is anything `gerrit query` accepts as a change reference:
// a change number, a Change-Id, or a commit SHA.
func (q *SSHQuerier) QueryChange(ref string) (*Change, error) {
	if err := validateRef(ref); err != nil {
		return nil, err
	}

	cmd := "gerrit query --format=JSON --current-patch-set --all-approvals " + ref
	res, err := q.runner.RunCommand(cmd)
	if err != nil {
		detail := ""
		if res != nil && res.Stderr != nil {
			detail = strings.TrimSpace(res.Stderr.String())
		}
		if detail != "" {
			return nil, fmt.Errorf("gerrit query: %s", detail)
		}
		return nil, fmt.Errorf("gerrit query: %w", err)
	}

	return DecodeQueryOutput(res.Stdout.String())
}

// validateRef rejects refs that could smuggle extra words into the remote
// command line. Gerrit change references never contain whitespace or quotes.
func validateRef(ref string) error {
	if ref == "" {
		return fmt.Errorf("change reference is blank")
	}
	if strings.ContainsAny(ref, " \t\n\r'\"`$;|&") {
		return fmt.Errorf("change reference contains invalid characters: %q", ref)
	}
	return nil
}

// DecodeQueryOutput parses the line-delimited JSON produced by
// `gerrit query --format=JSON`. Gerrit terminates the output with a
// `type:stats` row; rows of `type:error` carry a server-side message.
func DecodeQueryOutput(out string) (*Change, error) {
	scanner := bufio.NewScanner(strings.NewReader(out))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var row struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal([]byte(line), &row); err != nil {
			return nil, fmt.Errorf("parse query output: %w", err)
		}

		switch row.Type {
		case "error":
			return nil, fmt.Errorf("gerrit query: %s", row.Message)
		case "stats":
			log.Debug().Msg("gerrit query returned no change rows")
			return nil, fmt.Errorf("no change matched the query")
		}

		var change Change
		if err := json.Unmarshal([]byte(line), &change); err != nil {
			return nil, fmt.Errorf("parse change row: %w", err)
		}
		return &change, nil
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read query output: %w", err)
	}
	return nil, fmt.Errorf("empty query output")
}
