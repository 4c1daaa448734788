package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/7flash/argilla/internal/auth"
	"github.com/7flash/argilla/internal/database"
	"github.com/7flash/argilla/internal/models"
	"github.com/7flash/argilla/internal/validation"
	"github.com/spf13/cobra"
)

// userCreate holds the flags of "users create"
type userCreate struct {
	Username  string `json:"username" validate:"required,resource_name"`
	Password  string `json:"password" validate:"required,min=8,max=100"`
	Role      string `json:"role" validate:"required,oneof=admin annotator"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Workspace string `json:"workspace"`
}

func (u userCreate) validate() error {
	if err := validation.Validate.Struct(u); err != nil {
		return errors.New(validation.Message(err))
	}
	return nil
}

// user builds the model with a hashed password and a fresh API key
func (u userCreate) user() (*models.User, error) {
	hash, err := auth.HashPassword(u.Password)
	if err != nil {
		return nil, err
	}
	apiKey, err := auth.GenerateAPIKey()
	if err != nil {
		return nil, err
	}

	user := &models.User{
		FirstName:    u.FirstName,
		Username:     u.Username,
		Role:         models.UserRole(u.Role),
		APIKey:       apiKey,
		PasswordHash: hash,
	}
	if user.FirstName == "" {
		user.FirstName = u.Username
	}
	if u.LastName != "" {
		lastName := u.LastName
		user.LastName = &lastName
	}
	return user, nil
}

// NewUsersCmd creates the users command with create, list and rotate-api-key subcommands
func NewUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage users",
		Long:  "Create users, list them, or rotate their API keys",
	}
	cmd.AddCommand(newUsersCreateCmd())
	cmd.AddCommand(newUsersListCmd())
	cmd.AddCommand(newUsersRotateAPIKeyCmd())
	return cmd
}

func newUsersCreateCmd() *cobra.Command {
	var input userCreate

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		Long:  "Create a user with a bcrypt-hashed password and print its API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := input.validate(); err != nil {
				return err
			}
			user, err := input.user()
			if err != nil {
				return err
			}

			db, closeDB, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB()

			ctx := context.Background()
			err = database.NewUserRepository(db).Create(ctx, user)
			if errors.Is(err, database.ErrDuplicate) {
				return fmt.Errorf("user %q already exists", input.Username)
			}
			if err != nil {
				return err
			}
			if input.Workspace != "" {
				workspaces := database.NewWorkspaceRepository(db)
				workspace, err := ensureWorkspace(ctx, workspaces, input.Workspace)
				if err != nil {
					return err
				}
				if err := workspaces.AddUser(ctx, workspace.ID, user.ID); err != nil {
					return err
				}
				user.WorkspaceIDs = append(user.WorkspaceIDs, workspace.ID)
			}

			printUser(cmd.OutOrStdout(), user)
			return nil
		},
	}

	cmd.Flags().StringVar(&input.Username, "username", "", "Username (required)")
	cmd.Flags().StringVar(&input.Password, "password", "", "Password, 8 to 100 characters (required)")
	cmd.Flags().StringVar(&input.Role, "role", string(models.UserRoleAnnotator), "Role: admin or annotator")
	cmd.Flags().StringVar(&input.FirstName, "first-name", "", "First name (defaults to the username)")
	cmd.Flags().StringVar(&input.LastName, "last-name", "", "Last name")
	cmd.Flags().StringVar(&input.Workspace, "workspace", "", "Workspace to add the user to, created if missing")

	return cmd
}

func newUsersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, closeDB, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB()

			users, err := database.NewUserRepository(db).List(context.Background())
			if err != nil {
				return err
			}
			if len(users) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No users found")
				return nil
			}
			writeUsers(cmd.OutOrStdout(), users)
			return nil
		},
	}
}

func newUsersRotateAPIKeyCmd() *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "rotate-api-key",
		Short: "Replace a user's API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" {
				return fmt.Errorf("--username is required")
			}

			db, closeDB, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB()

			ctx := context.Background()
			repo := database.NewUserRepository(db)
			user, err := repo.GetByUsername(ctx, username)
			if err != nil {
				return err
			}
			apiKey, err := auth.GenerateAPIKey()
			if err != nil {
				return err
			}
			if err := repo.UpdateAPIKey(ctx, user.ID, apiKey); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "New API key for %s: %s\n", user.Username, apiKey)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Username (required)")

	return cmd
}

func printUser(w io.Writer, user *models.User) {
	fmt.Fprintln(w, "User created:")
	fmt.Fprintf(w, "  ID: %s\n", user.ID)
	fmt.Fprintf(w, "  Username: %s\n", user.Username)
	fmt.Fprintf(w, "  Role: %s\n", user.Role)
	fmt.Fprintf(w, "  API key: %s\n", user.APIKey)
}

func writeUsers(w io.Writer, users []*models.User) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "USERNAME\tROLE\tWORKSPACES\tID")
	for _, u := range users {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", u.Username, u.Role, len(u.WorkspaceIDs), u.ID)
	}
	_ = tw.Flush()
}
