package sshx

import (
	"bytes"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/ssh"
)

// Command holds the result of one remote command execution.
type Command struct {
	Command    string
	Stdout     *bytes.Buffer
	Stderr     *bytes.Buffer
	ExitStatus int
	Duration   time.Duration

	transport *Transport
}

// Exec runs the command over a fresh session, re-establishing the
// connection once if the existing one has gone away.
func (c *Command) Exec(command string) (*Command, error) {
	c.Command = command
	c.Stdout = &bytes.Buffer{}
	c.Stderr = &bytes.Buffer{}

	if c.transport == nil || c.transport.SSHClient == nil {
		return nil, errors.New("ssh session not established")
	}

	session, err := c.transport.SSHClient.NewSession()
	if err != nil {
		log.Debug().Msg("could not open new session, try to re-establish connection")
		if err := c.transport.Reconnect(); err != nil {
			return nil, err
		}

		session, err = c.transport.SSHClient.NewSession()
		if err != nil {
			return nil, err
		}
	}
	defer session.Close()

	session.Stdout = c.Stdout
	session.Stderr = c.Stderr

	start := time.Now()
	err = session.Run(c.Command)
	c.Duration = time.Since(start)
	if err != nil {
		var e *ssh.ExitError
		if errors.As(err, &e) {
			c.ExitStatus = e.ExitStatus()
		}
		return c, err
	}
	return c, nil
}
