package sshx

import (
	"net"
	"os"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
)

const dialTimeout = 10 * time.Second

// New resolves the endpoint against ~/.ssh/config, applies defaults,
// verifies it, and establishes the SSH connection.
func New(endpoint *Endpoint) (*Transport, error) {
	endpoint = ReadSSHConfig(endpoint)
	endpoint = DefaultEndpoint(endpoint)

	if err := VerifyEndpoint(endpoint); err != nil {
		return nil, err
	}

	conn, err := sshClientConnection(endpoint)
	if err != nil {
		return nil, err
	}

	log.Debug().Str("host", endpoint.Host).Str("port", endpoint.Port).Msg("ssh session established")
	return &Transport{Endpoint: endpoint, SSHClient: conn}, nil
}

// Transport is an established SSH connection that can run remote commands.
type Transport struct {
	Endpoint  *Endpoint
	SSHClient *ssh.Client
}

// RunCommand executes a single remote command.
func (t *Transport) RunCommand(command string) (*Command, error) {
	log.Debug().Str("command", command).Msg("run ssh command")
	c := &Command{transport: t}
	return c.Exec(command)
}

// Reconnect re-dials the endpoint, replacing the dead client.
func (t *Transport) Reconnect() error {
	if t.SSHClient != nil {
		_ = t.SSHClient.Close()
	}
	conn, err := sshClientConnection(t.Endpoint)
	if err != nil {
		return err
	}
	t.SSHClient = conn
	return nil
}

// Close closes the underlying connection.
func (t *Transport) Close() {
	if t.SSHClient != nil {
		t.SSHClient.Close()
	}
}

func sshClientConnection(endpoint *Endpoint) (*ssh.Client, error) {
	auths, err := authMethods(endpoint)
	if err != nil {
		return nil, err
	}
	if len(auths) == 0 {
		return nil, errors.New("no ssh authentication method available (key, agent, or password)")
	}

	hostkey, err := hostKeyCallback(endpoint)
	if err != nil {
		return nil, err
	}

	config := &ssh.ClientConfig{
		User:            endpoint.User,
		Auth:            auths,
		HostKeyCallback: hostkey,
		Timeout:         dialTimeout,
	}
	conn, err := ssh.Dial("tcp", endpoint.Addr(), config)
	if err != nil {
		return nil, errors.Wrap(err, "dial "+endpoint.Addr())
	}
	return conn, nil
}

// authMethods assembles the available authentication methods: private key
// file, ssh-agent, then password. All available methods are offered.
func authMethods(endpoint *Endpoint) ([]ssh.AuthMethod, error) {
	var auths []ssh.AuthMethod

	if endpoint.PrivateKeyPath != "" {
		pem, err := os.ReadFile(endpoint.PrivateKeyPath)
		if err != nil {
			return nil, errors.Wrap(err, "read private key "+endpoint.PrivateKeyPath)
		}
		signer, err := ssh.ParsePrivateKey(pem)
		if err != nil {
			return nil, errors.Wrap(err, "parse private key "+endpoint.PrivateKeyPath)
		}
		auths = append(auths, ssh.PublicKeys(signer))
	}

	if sock := os.Getenv("SSH_AUTH_SOCK"); sock != "" {
		conn, err := net.Dial("unix", sock)
		if err != nil {
			log.Debug().Err(err).Msg("ssh agent socket present but not dialable")
		} else {
			auths = append(auths, ssh.PublicKeysCallback(agent.NewClient(conn).Signers))
		}
	}

	if endpoint.Password != "" {
		auths = append(auths, ssh.Password(endpoint.Password))
	}

	return auths, nil
}

func hostKeyCallback(endpoint *Endpoint) (ssh.HostKeyCallback, error) {
	if endpoint.Insecure {
		log.Warn().Str("host", endpoint.Host).Msg("host key verification disabled")
		return ssh.InsecureIgnoreHostKey(), nil
	}

	path := endpoint.KnownHostsPath
	if path == "" {
		expanded, err := homedir.Expand("~/.ssh/known_hosts")
		if err != nil {
			return nil, errors.Wrap(err, "resolve known_hosts path")
		}
		path = expanded
	}

	cb, err := knownhosts.New(path)
	if err != nil {
		return nil, errors.Wrap(err, "load known_hosts "+path)
	}
	return cb, nil
}
