package cmd

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cihelpers/gerritci/internal/trigger"
)

func TestGerritEndpoint_FlagWinsOverConfig(t *testing.T) {
	testEnv(t)
	viper.Set("gerrit.host", "config-host")
	viper.Set("gerrit.user", "config-user")

	ep := gerritEndpoint("flag-host", "", "")
	assert.Equal(t, "flag-host", ep.Host)
	assert.Equal(t, "config-user", ep.User)
	assert.Equal(t, "29418", ep.Port)
}

func TestGerritEndpoint_TriggerEnvFallback(t *testing.T) {
	testEnv(t)
	t.Setenv("GERRIT_HOST", "env-host")
	t.Setenv("GERRIT_PORT", "2222")

	ep := gerritEndpoint("", "", "jenkins")
	assert.Equal(t, "env-host", ep.Host)
	assert.Equal(t, "2222", ep.Port)
	assert.Equal(t, "jenkins", ep.User)
}

func TestCheckoutConnection_FromURL(t *testing.T) {
	testEnv(t)
	checkoutURL = "ssh://jenkins@review.example.com:29418/gerritci"
	t.Cleanup(func() { checkoutURL = "" })

	conn, err := checkoutConnection(&trigger.Event{})
	require.NoError(t, err)
	assert.Equal(t, "review.example.com", conn.Host)
	assert.Equal(t, "gerritci", conn.Project)
}

func TestCheckoutConnection_BadURL(t *testing.T) {
	testEnv(t)
	checkoutURL = "not-a-url"
	t.Cleanup(func() { checkoutURL = "" })

	_, err := checkoutConnection(&trigger.Event{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot parse connection string")
}

func TestCheckoutConnection_ReportsMissingPieces(t *testing.T) {
	testEnv(t)

	_, err := checkoutConnection(&trigger.Event{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user")
	assert.Contains(t, err.Error(), "host")
	assert.Contains(t, err.Error(), "project")
}

func TestCheckoutConnection_AssembledFromEventAndConfig(t *testing.T) {
	testEnv(t)
	viper.Set("gerrit.user", "jenkins")

	ev := &trigger.Event{
		Scheme:  "ssh",
		Host:    "review.example.com",
		Port:    "29418",
		Project: "tools/ci",
	}
	t.Setenv("GERRIT_HOST", ev.Host)
	t.Setenv("GERRIT_PORT", ev.Port)

	conn, err := checkoutConnection(ev)
	require.NoError(t, err)
	assert.Equal(t, "ssh://jenkins@review.example.com:29418/tools/ci", conn.String())
}
