package git_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mndrix/vcrebase/git"
	"github.com/mndrix/vcrebase/testutil"
)

func currentBranch(repo *testutil.GitTestRepo) string {
	return strings.TrimSpace(repo.Git("symbolic-ref", "--short", "HEAD"))
}

func TestBranches_ListCreateDeleteCheckout(t *testing.T) {
	repo := testutil.NewGitTestRepo(t)
	repo.WriteFile("file.txt", "base\n")
	repo.CommitAll("I")
	trunk := currentBranch(repo)

	branches := git.NewBranches(git.NewRunner(repo.Dir))
	ctx := context.Background()

	err := branches.Create(ctx, "feature", "")
	require.NoError(t, err)

	names, err := branches.List(ctx)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{trunk, "feature"}, names)

	err = branches.Checkout(ctx, "feature")
	require.NoError(t, err)

	name, detached, err := branches.Current(ctx)
	require.NoError(t, err)
	require.False(t, detached)
	require.Equal(t, "feature", name)

	err = branches.Checkout(ctx, trunk)
	require.NoError(t, err)

	err = branches.Delete(ctx, "feature", false)
	require.NoError(t, err)

	names, err = branches.List(ctx)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{trunk}, names)
}

func TestBranches_CurrentDetached(t *testing.T) {
	repo := testutil.NewGitTestRepo(t)
	repo.WriteFile("file.txt", "base\n")
	repo.CommitAll("I")

	repo.Git("checkout", "--detach", "HEAD")

	branches := git.NewBranches(git.NewRunner(repo.Dir))

	_, detached, err := branches.Current(context.Background())
	require.NoError(t, err)
	require.True(t, detached)
}
