package commands

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/7flash/argilla/internal/database"
	"github.com/7flash/argilla/internal/models"
	"github.com/7flash/argilla/internal/validation"
	"github.com/spf13/cobra"
)

// workspaceStore is the subset of the workspace repository the commands need
type workspaceStore interface {
	Create(ctx context.Context, workspace *models.Workspace) error
	GetByName(ctx context.Context, name string) (*models.Workspace, error)
}

// ensureWorkspace returns the named workspace, creating it when missing
func ensureWorkspace(ctx context.Context, store workspaceStore, name string) (*models.Workspace, error) {
	if !validation.IsResourceName(name) {
		return nil, fmt.Errorf("invalid workspace name %q: use lowercase letters, digits, '-' and '_'", name)
	}

	workspace, err := store.GetByName(ctx, name)
	if err == nil {
		return workspace, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	workspace = &models.Workspace{Name: name}
	if err := store.Create(ctx, workspace); err != nil {
		return nil, err
	}
	return workspace, nil
}

// NewWorkspacesCmd creates the workspaces command with create and add-user subcommands
func NewWorkspacesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workspaces",
		Short: "Manage workspaces",
		Long:  "Create workspaces and grant users access to them",
	}
	cmd.AddCommand(newWorkspacesCreateCmd())
	cmd.AddCommand(newWorkspacesAddUserCmd())
	return cmd
}

func newWorkspacesCreateCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !validation.IsResourceName(name) {
				return fmt.Errorf("--name is required and may contain only lowercase letters, digits, '-' and '_'")
			}

			db, closeDB, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB()

			workspace := &models.Workspace{Name: name}
			err = database.NewWorkspaceRepository(db).Create(context.Background(), workspace)
			if errors.Is(err, database.ErrDuplicate) {
				return fmt.Errorf("workspace %q already exists", name)
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Workspace %s created with id %s\n", workspace.Name, workspace.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Workspace name (required)")

	return cmd
}

func newWorkspacesAddUserCmd() *cobra.Command {
	var workspaceName, username string

	cmd := &cobra.Command{
		Use:   "add-user",
		Short: "Add a user to a workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			if workspaceName == "" || username == "" {
				return fmt.Errorf("--workspace and --username are required")
			}

			db, closeDB, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB()

			ctx := context.Background()
			workspaces := database.NewWorkspaceRepository(db)
			workspace, err := workspaces.GetByName(ctx, workspaceName)
			if err != nil {
				return err
			}
			user, err := database.NewUserRepository(db).GetByUsername(ctx, username)
			if err != nil {
				return err
			}
			if err := workspaces.AddUser(ctx, workspace.ID, user.ID); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "User %s added to workspace %s\n", user.Username, workspace.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&workspaceName, "workspace", "", "Workspace name (required)")
	cmd.Flags().StringVar(&username, "username", "", "Username (required)")

	return cmd
}
