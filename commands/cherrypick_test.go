package commands

import (
	"strings"
	"testing"

	"github.com/mndrix/vcrebase/testutil"
	"github.com/stretchr/testify/require"
)

func TestCherryPickApplied(t *testing.T) {
	repo := testutil.NewGitTestRepo(t)

	repo.WriteFile("base.txt", "base\n")
	repo.CommitAll("Base commit")

	repo.CreateBranch("feature")
	repo.WriteFile("feature.txt", "feature\n")
	repo.CommitAll("Add feature")
	hash := repo.GetShortHash()

	repo.CheckoutBranch("main")

	output, err := runCmd(t, repo.Dir, "cherry-pick", "pick", hash)
	require.NoError(t, err, "output: %s", output)
	require.Contains(t, output, "Cherry-picked as")
	require.True(t, repo.FileExists("feature.txt"))
}

func TestCherryPickConflict(t *testing.T) {
	repo := testutil.NewGitTestRepo(t)

	repo.WriteFile("shared.txt", "base\n")
	repo.CommitAll("Base commit")

	repo.CreateBranch("feature")
	repo.WriteFile("shared.txt", "feature change\n")
	repo.CommitAll("Change on feature")
	hash := repo.GetShortHash()

	repo.CheckoutBranch("main")
	repo.WriteFile("shared.txt", "main change\n")
	repo.CommitAll("Change on main")

	output, err := runCmd(t, repo.Dir, "cherry-pick", "pick", hash)
	require.NoError(t, err, "output: %s", output)
	require.Contains(t, output, "paused due to conflicts")

	require.True(t, repo.FileExists(".git/CHERRY_PICK_HEAD"))

	repo.WriteFile("shared.txt", "resolved\n")
	repo.Git("add", "shared.txt")

	output, err = runCmd(t, repo.Dir, "cherry-pick", "continue")
	require.NoError(t, err, "output: %s", output)
	require.Contains(t, output, "Cherry-picked as")
}

func TestCherryPickAbort(t *testing.T) {
	repo := testutil.NewGitTestRepo(t)

	repo.WriteFile("shared.txt", "base\n")
	repo.CommitAll("Base commit")

	repo.CreateBranch("feature")
	repo.WriteFile("shared.txt", "feature change\n")
	repo.CommitAll("Change on feature")
	hash := repo.GetShortHash()

	repo.CheckoutBranch("main")
	repo.WriteFile("shared.txt", "main change\n")
	repo.CommitAll("Change on main")

	output, err := runCmd(t, repo.Dir, "cherry-pick", "pick", hash)
	require.NoError(t, err, "output: %s", output)
	require.Contains(t, output, "paused due to conflicts")

	output, err = runCmd(t, repo.Dir, "cherry-pick", "abort")
	require.NoError(t, err, "output: %s", output)
	require.Contains(t, strings.ToLower(output), "aborted")

	require.False(t, repo.FileExists(".git/CHERRY_PICK_HEAD"))
	require.Equal(t, "main change\n", repo.ReadFile("shared.txt"))
}
