package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// branchListOutput is the JSON output for branch list.
type branchListOutput struct {
	Current  string   `json:"current,omitempty"`
	Detached bool     `json:"detached,omitempty"`
	Branches []string `json:"branches"`
}

// NewBranchCmd creates the branch parent command.
func NewBranchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "branch",
		Short: "List, create, and delete branches",
	}

	cmd.AddCommand(newBranchListCmd())
	cmd.AddCommand(newBranchCreateCmd())
	cmd.AddCommand(newBranchDeleteCmd())

	return cmd
}

func newBranchListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List local branches",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBranchList(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

func newBranchCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create NAME [START_POINT]",
		Short: "Create a branch",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			startPoint := "HEAD"
			if len(args) > 1 {
				startPoint = args[1]
			}

			return runBranchCreate(cmd.Context(), cmd.OutOrStdout(), args[0], startPoint)
		},
	}
}

func newBranchDeleteCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a branch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBranchDelete(cmd.Context(), cmd.OutOrStdout(), args[0], force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "delete even if not merged")

	return cmd
}

func runBranchList(ctx context.Context, w io.Writer) error {
	cfg := getConfig(ctx)
	repo := openRepo(cfg)

	branches, err := repo.Branches.List(ctx)
	if err != nil {
		return err
	}

	current, detached, err := repo.Branches.Current(ctx)
	if err != nil {
		return err
	}

	if cfg.JSONOut {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		return enc.Encode(branchListOutput{
			Current:  current,
			Detached: detached,
			Branches: branches,
		})
	}

	for _, name := range branches {
		marker := "  "
		if !detached && name == current {
			marker = "* "
		}

		fmt.Fprintf(w, "%s%s\n", marker, name)
	}

	return nil
}

func runBranchCreate(ctx context.Context, w io.Writer, name, startPoint string) error {
	cfg := getConfig(ctx)
	repo := openRepo(cfg)

	if err := repo.Branches.Create(ctx, name, startPoint); err != nil {
		return err
	}

	fmt.Fprintf(w, "Created branch %s at %s.\n", name, startPoint)

	return nil
}

func runBranchDelete(ctx context.Context, w io.Writer, name string, force bool) error {
	cfg := getConfig(ctx)
	repo := openRepo(cfg)

	if err := repo.Branches.Delete(ctx, name, force); err != nil {
		return err
	}

	fmt.Fprintf(w, "Deleted branch %s.\n", name)

	return nil
}
