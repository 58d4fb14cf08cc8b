package sshx

import (
	"strconv"
	"strings"

	"github.com/kevinburke/ssh_config"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// DefaultPort is Gerrit's standard SSH listener port.
const DefaultPort = "29418"

// Endpoint describes an SSH connection target.
type Endpoint struct {
	Host           string
	Port           string
	User           string
	PrivateKeyPath string
	Password       string
	KnownHostsPath string
	// Insecure accepts any host key instead of checking known_hosts.
	Insecure bool
}

// IntPort returns the port as an integer.
func (e *Endpoint) IntPort() (int, error) {
	return strconv.Atoi(e.Port)
}

// Addr returns the host:port dial address.
func (e *Endpoint) Addr() string {
	return e.Host + ":" + e.Port
}

// ReadSSHConfig fills in user, port, and identity file from ~/.ssh/config
// when the endpoint leaves them blank. Optional step; parse failures leave
// the endpoint untouched.
func ReadSSHConfig(endpoint *Endpoint) *Endpoint {
	if len(endpoint.User) == 0 {
		endpoint.User = ssh_config.Get(endpoint.Host, "User")
	}

	if len(endpoint.Port) == 0 {
		endpoint.Port = ssh_config.Get(endpoint.Host, "Port")
	}

	if len(endpoint.PrivateKeyPath) == 0 {
		entry := ssh_config.Get(endpoint.Host, "IdentityFile")
		// the lib returns its built-in default when the host has no entry,
		// so only trust values that differ from it
		if ssh_config.Default("IdentityFile") != entry {
			expanded, err := homedir.Expand(entry)
			if err == nil {
				log.Debug().Str("key", expanded).Str("host", endpoint.Host).Msg("read ssh identity key from ssh config")
				endpoint.PrivateKeyPath = expanded
			}
		}
	}

	return endpoint
}

// DefaultEndpoint applies defaults for fields still blank after config
// resolution: Gerrit's SSH port.
func DefaultEndpoint(endpoint *Endpoint) *Endpoint {
	p, err := endpoint.IntPort()
	if endpoint.Port == "" || (err == nil && p <= 0) {
		endpoint.Port = DefaultPort
	}
	return endpoint
}

// VerifyEndpoint checks that the endpoint is dialable, reporting every bad
// field in one error.
func VerifyEndpoint(endpoint *Endpoint) error {
	var bad []string
	if endpoint.Host == "" {
		bad = append(bad, "host is blank")
	}
	if endpoint.User == "" {
		bad = append(bad, "user is blank")
	}
	if _, err := endpoint.IntPort(); err != nil {
		bad = append(bad, "port is not a valid number: "+endpoint.Port)
	}
	if len(bad) > 0 {
		return errors.New("invalid ssh endpoint: " + strings.Join(bad, "; "))
	}
	return nil
}
