package scm

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// initSourceRepo creates a git repo with one commit published under a
// Gerrit-style change ref.
func initSourceRepo(t *testing.T, dir string) {
	t.Helper()
	cmds := [][]string{
		{"git", "-C", dir, "init"},
		{"git", "-C", dir, "config", "user.email", "test@test.com"},
		{"git", "-C", dir, "config", "user.name", "Test"},
	}
	for _, args := range cmds {
		require.NoError(t, exec.Command(args[0], args[1:]...).Run())
	}

	require.NoError(t, os.WriteFile(filepath.Join(dir, "hello.txt"), []byte("hello\n"), 0644))
	require.NoError(t, exec.Command("git", "-C", dir, "add", ".").Run())
	require.NoError(t, exec.Command("git", "-C", dir, "commit", "-m", "initial").Run())
	require.NoError(t, exec.Command("git", "-C", dir, "update-ref", "refs/changes/21/4221/3", "HEAD").Run())
}

func TestCheckout_FetchesChangeRef(t *testing.T) {
	src := t.TempDir()
	initSourceRepo(t, src)
	work := t.TempDir()

	cfg := &CheckoutConfig{
		URL:     src,
		Refspec: "refs/changes/21/4221/3",
		Dir:     work,
		Timeout: time.Minute,
	}

	err := NewGitRunner().Checkout(context.Background(), cfg)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(work, "hello.txt"))
	assert.NoError(t, err, "checked-out tree should contain the change's file")
}

func TestCheckout_WipeClearsWorkspace(t *testing.T) {
	src := t.TempDir()
	initSourceRepo(t, src)
	work := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(work, "stale.txt"), []byte("old"), 0644))

	cfg := &CheckoutConfig{
		URL:     src,
		Refspec: "refs/changes/21/4221/3",
		Dir:     work,
		Wipe:    true,
		Timeout: time.Minute,
	}

	err := NewGitRunner().Checkout(context.Background(), cfg)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(work, "stale.txt"))
	assert.True(t, os.IsNotExist(err), "wipe should remove pre-existing files")
}

func TestWipeDir_MissingDirIsFine(t *testing.T) {
	assert.NoError(t, wipeDir(filepath.Join(t.TempDir(), "does-not-exist")))
}
