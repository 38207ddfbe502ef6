package git_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mndrix/vcrebase/git"
	"github.com/mndrix/vcrebase/testutil"
)

func TestIndex_StatusStageUnstage(t *testing.T) {
	repo := testutil.NewGitTestRepo(t)
	repo.WriteFile("file.txt", "base\n")
	repo.CommitAll("I")

	repo.WriteFile("file.txt", "changed\n")
	repo.WriteFile("new.txt", "new\n")

	index := git.NewIndex(git.NewRunner(repo.Dir))
	ctx := context.Background()

	status, err := index.Status(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"file.txt"}, status.UnstagedFiles)
	require.Equal(t, []string{"new.txt"}, status.UntrackedFiles)
	require.Empty(t, status.StagedFiles)

	err = index.Stage(ctx, "file.txt", "new.txt")
	require.NoError(t, err)

	status, err = index.Status(ctx)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"file.txt", "new.txt"}, status.StagedFiles)
	require.Empty(t, status.UnstagedFiles)
	require.Empty(t, status.UntrackedFiles)

	err = index.Unstage(ctx, "file.txt")
	require.NoError(t, err)

	status, err = index.Status(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"new.txt"}, status.StagedFiles)
	require.Equal(t, []string{"file.txt"}, status.UnstagedFiles)
}
