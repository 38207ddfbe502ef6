package merge_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mndrix/vcrebase/git"
	"github.com/mndrix/vcrebase/merge"
	"github.com/mndrix/vcrebase/testutil"
)

func rev(repo *testutil.GitTestRepo, ref string) string {
	return strings.TrimSpace(repo.Git("rev-parse", ref))
}

func currentBranch(repo *testutil.GitTestRepo) string {
	return strings.TrimSpace(repo.Git("symbolic-ref", "--short", "HEAD"))
}

func TestMerge_FastForward(t *testing.T) {
	repo := testutil.NewGitTestRepo(t)
	repo.WriteFile("file.txt", "base\n")
	repo.CommitAll("I")
	trunk := currentBranch(repo)

	repo.Git("checkout", "-b", "f")
	repo.WriteFile("feature.txt", "feature\n")
	repo.CommitAll("B")
	hashB := rev(repo, "HEAD")

	repo.Git("checkout", trunk)

	merger := merge.New(git.NewRunner(repo.Dir))

	outcome, newHash, err := merger.Merge(context.Background(), "f", merge.FFAuto)
	require.NoError(t, err)
	require.Equal(t, merge.Merged, outcome)
	require.Equal(t, hashB, newHash)
}

func TestMerge_NothingToMerge(t *testing.T) {
	repo := testutil.NewGitTestRepo(t)
	repo.WriteFile("file.txt", "base\n")
	repo.CommitAll("I")

	repo.Git("branch", "f")

	merger := merge.New(git.NewRunner(repo.Dir))

	outcome, _, err := merger.Merge(context.Background(), "f", merge.FFAuto)
	require.NoError(t, err)
	require.Equal(t, merge.NothingToMerge, outcome)
}

func TestMerge_DivergedFFOnly(t *testing.T) {
	repo := testutil.NewGitTestRepo(t)
	repo.WriteFile("file.txt", "base\n")
	repo.CommitAll("I")
	trunk := currentBranch(repo)

	repo.Git("checkout", "-b", "f")
	repo.WriteFile("feature.txt", "feature\n")
	repo.CommitAll("B")

	repo.Git("checkout", trunk)
	repo.WriteFile("main.txt", "main\n")
	repo.CommitAll("A")

	merger := merge.New(git.NewRunner(repo.Dir))

	outcome, _, err := merger.Merge(context.Background(), "f", merge.FFOnly)
	require.NoError(t, err)
	require.Equal(t, merge.DivergedFFOnly, outcome)
}

func TestMerge_ConflictThenContinue(t *testing.T) {
	repo := testutil.NewGitTestRepo(t)
	repo.WriteFile("file.txt", "Base\n")
	repo.CommitAll("I")
	trunk := currentBranch(repo)

	repo.Git("checkout", "-b", "f")
	repo.WriteFile("file.txt", "Feature\n")
	repo.CommitAll("B")

	repo.Git("checkout", trunk)
	repo.WriteFile("file.txt", "Main\n")
	repo.CommitAll("A")

	merger := merge.New(git.NewRunner(repo.Dir))
	ctx := context.Background()

	outcome, _, err := merger.Merge(ctx, "f", merge.FFAuto)
	require.NoError(t, err)
	require.Equal(t, merge.Conflict, outcome)

	inProgress, err := merger.IsInProgress(ctx)
	require.NoError(t, err)
	require.True(t, inProgress)

	repo.WriteFile("file.txt", "Resolved\n")
	repo.Git("add", "file.txt")

	outcome, newHash, err := merger.Continue(ctx)
	require.NoError(t, err)
	require.Equal(t, merge.Merged, outcome)
	require.NotEmpty(t, newHash)

	inProgress, err = merger.IsInProgress(ctx)
	require.NoError(t, err)
	require.False(t, inProgress)
}

func TestMerge_Abort(t *testing.T) {
	repo := testutil.NewGitTestRepo(t)
	repo.WriteFile("file.txt", "Base\n")
	repo.CommitAll("I")
	trunk := currentBranch(repo)

	repo.Git("checkout", "-b", "f")
	repo.WriteFile("file.txt", "Feature\n")
	repo.CommitAll("B")

	repo.Git("checkout", trunk)
	repo.WriteFile("file.txt", "Main\n")
	repo.CommitAll("A")
	headBefore := rev(repo, "HEAD")

	merger := merge.New(git.NewRunner(repo.Dir))
	ctx := context.Background()

	outcome, _, err := merger.Merge(ctx, "f", merge.FFAuto)
	require.NoError(t, err)
	require.Equal(t, merge.Conflict, outcome)

	err = merger.Abort(ctx)
	require.NoError(t, err)

	inProgress, err := merger.IsInProgress(ctx)
	require.NoError(t, err)
	require.False(t, inProgress)

	require.Equal(t, headBefore, rev(repo, "HEAD"))
	require.Equal(t, "Main\n", repo.ReadFile("file.txt"))
}

func TestMerge_NoMergeInProgress(t *testing.T) {
	repo := testutil.NewGitTestRepo(t)
	repo.WriteFile("file.txt", "Base\n")
	repo.CommitAll("I")

	merger := merge.New(git.NewRunner(repo.Dir))
	ctx := context.Background()

	_, _, err := merger.Continue(ctx)
	require.ErrorIs(t, err, merge.ErrNoMergeInProgress)

	err = merger.Abort(ctx)
	require.ErrorIs(t, err, merge.ErrNoMergeInProgress)
}
