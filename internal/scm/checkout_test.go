package scm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cihelpers/gerritci/internal/gerrit"
	"github.com/cihelpers/gerritci/internal/trigger"
)

func testConnection() *gerrit.Connection {
	return &gerrit.Connection{
		Scheme:  "ssh",
		User:    "jenkins",
		Host:    "review.example.com",
		Port:    "29418",
		Project: "tools/ci",
	}
}

func testEvent() *trigger.Event {
	return &trigger.Event{
		Refspec: "refs/changes/21/4221/3",
		Branch:  "master",
	}
}

func TestBuildCheckoutConfig(t *testing.T) {
	cfg, err := BuildCheckoutConfig(testConnection(), testEvent(), DefaultCheckoutOptions())
	require.NoError(t, err)

	assert.Equal(t, "ssh://jenkins@review.example.com:29418/tools/ci", cfg.URL)
	assert.Equal(t, "refs/changes/21/4221/3", cfg.Refspec)
	assert.Equal(t, "master", cfg.Branch)
	assert.Equal(t, ".", cfg.Dir)
	assert.Equal(t, 20*time.Minute, cfg.Timeout)
}

func TestBuildCheckoutConfig_OptionsWinOverEvent(t *testing.T) {
	opts := DefaultCheckoutOptions()
	opts.Refspec = "refs/changes/05/4305/1"
	opts.Branch = "release"

	cfg, err := BuildCheckoutConfig(testConnection(), testEvent(), opts)
	require.NoError(t, err)
	assert.Equal(t, "refs/changes/05/4305/1", cfg.Refspec)
	assert.Equal(t, "release", cfg.Branch)
}

func TestBuildCheckoutConfig_ReportsEveryMissingField(t *testing.T) {
	_, err := BuildCheckoutConfig(nil, nil, CheckoutOptions{Merge: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "url")
	assert.Contains(t, err.Error(), "refspec")
	assert.Contains(t, err.Error(), "branch (required with merge)")
}

func TestPlan_FetchAndCheckout(t *testing.T) {
	cfg, err := BuildCheckoutConfig(testConnection(), testEvent(), DefaultCheckoutOptions())
	require.NoError(t, err)

	plan := cfg.Plan()
	require.Len(t, plan, 3)
	assert.Equal(t, []string{"init", "--quiet", "."}, plan[0])
	assert.Equal(t, []string{"fetch", "ssh://jenkins@review.example.com:29418/tools/ci", "refs/changes/21/4221/3"}, plan[1])
	assert.Equal(t, []string{"checkout", "-f", "FETCH_HEAD"}, plan[2])
}

func TestPlan_Depth(t *testing.T) {
	opts := DefaultCheckoutOptions()
	opts.Depth = 1

	cfg, err := BuildCheckoutConfig(testConnection(), testEvent(), opts)
	require.NoError(t, err)

	plan := cfg.Plan()
	assert.Equal(t, "--depth=1", plan[1][1])
}

func TestPlan_LocalBranch(t *testing.T) {
	opts := DefaultCheckoutOptions()
	opts.LocalBranch = "change-4221"

	cfg, err := BuildCheckoutConfig(testConnection(), testEvent(), opts)
	require.NoError(t, err)

	plan := cfg.Plan()
	assert.Equal(t, []string{"checkout", "-B", "change-4221", "FETCH_HEAD"}, plan[len(plan)-1])
}

func TestPlan_Merge(t *testing.T) {
	opts := DefaultCheckoutOptions()
	opts.Merge = true

	cfg, err := BuildCheckoutConfig(testConnection(), testEvent(), opts)
	require.NoError(t, err)

	plan := cfg.Plan()
	require.Len(t, plan, 4)
	assert.Equal(t, []string{"checkout", "-f", "master"}, plan[2])
	assert.Equal(t, []string{"merge", "--no-edit", "FETCH_HEAD"}, plan[3])
}
