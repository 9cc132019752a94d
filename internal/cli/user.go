package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/genefit/genefit-link/internal/models"
	"github.com/genefit/genefit-link/internal/session"
)

// newUserCmd creates the 'user' command group.
func newUserCmd() *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage the local user profile (create, load, show, update, logout)",
		Long: `Commands for the GeneFit user profile.

The current profile is kept in the local session so that later commands
(dna upload, dashboard show, ...) know whose data to use.`,
	}

	userCmd.AddCommand(newUserCreateCmd())
	userCmd.AddCommand(newUserLoadCmd())
	userCmd.AddCommand(newUserShowCmd())
	userCmd.AddCommand(newUserUpdateCmd())
	userCmd.AddCommand(newUserLogoutCmd())

	return userCmd
}

// profileFlags collects the optional profile fields shared by create and update.
type profileFlags struct {
	age    int
	gender string
	height float64
	weight float64
}

func (p *profileFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&p.age, "age", 0, "Age in years")
	cmd.Flags().StringVar(&p.gender, "gender", "", "Gender: male, female or other")
	cmd.Flags().Float64Var(&p.height, "height", 0, "Height in cm")
	cmd.Flags().Float64Var(&p.weight, "weight", 0, "Weight in kg")
}

// apply copies the flags the user actually set.
func (p *profileFlags) apply(cmd *cobra.Command, age **int, gender **string, height, weight **float64) {
	if cmd.Flags().Changed("age") {
		v := p.age
		*age = &v
	}
	if cmd.Flags().Changed("gender") {
		v := p.gender
		*gender = &v
	}
	if cmd.Flags().Changed("height") {
		v := p.height
		*height = &v
	}
	if cmd.Flags().Changed("weight") {
		v := p.weight
		*weight = &v
	}
}

func newUserCreateCmd() *cobra.Command {
	var name, email string
	var profile profileFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a profile and make it the current user",
		Long: `Create a GeneFit user profile and store it in the local session.

Example:
  genefit user create --name "Ada Lovelace" --email ada@example.com --age 36 --gender female`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := GetLogger()
			ctx := GetContext()

			in := models.UserCreate{Name: name, Email: email}
			profile.apply(cmd, &in.Age, &in.Gender, &in.Height, &in.Weight)

			apiClient, err := getAPIClient()
			if err != nil {
				return err
			}
			user, err := apiClient.CreateUser(ctx, in)
			if err != nil {
				return fmt.Errorf("failed to create user: %w", err)
			}

			store, release, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer release()
			if err := session.Save(ctx, store, user); err != nil {
				return err
			}

			logger.Info().Str("user_id", user.ID).Msg("User created")
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Profile created for %s (id %s)\n", user.Name, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Full name (required)")
	cmd.Flags().StringVar(&email, "email", "", "Email address (required)")
	profile.register(cmd)
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("email")

	return cmd
}

func newUserLoadCmd() *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load an existing profile by id and make it the current user",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := GetContext()

			apiClient, err := getAPIClient()
			if err != nil {
				return err
			}
			user, err := apiClient.GetUser(ctx, userID)
			if err != nil {
				return fmt.Errorf("failed to load user: %w", err)
			}

			store, release, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer release()
			if err := session.Save(ctx, store, user); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Loaded profile %s (%s)\n", user.Name, user.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "id", "", "User id (required)")
	cmd.MarkFlagRequired("id")

	return cmd
}

func newUserShowCmd() *cobra.Command {
	var output string
	var refresh bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the current profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkOutputFormat(output); err != nil {
				return err
			}
			ctx := GetContext()

			user, err := requireUser(ctx)
			if err != nil {
				return err
			}

			if refresh {
				apiClient, err := getAPIClient()
				if err != nil {
					return err
				}
				fresh, err := apiClient.GetUser(ctx, user.ID)
				if err != nil {
					return fmt.Errorf("failed to refresh user: %w", err)
				}
				user = fresh

				store, release, err := openSession(ctx)
				if err != nil {
					return err
				}
				defer release()
				if err := session.Save(ctx, store, user); err != nil {
					return err
				}
			}

			return writeOutput(cmd.OutOrStdout(), output, user, func(w io.Writer) { renderUser(w, user) })
		},
	}

	addOutputFlag(cmd, &output)
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Fetch the profile from the server and update the session")

	return cmd
}

func newUserUpdateCmd() *cobra.Command {
	var name string
	var profile profileFlags

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update fields of the current profile",
		Long: `Update the current profile. Only the flags you pass are changed.

Example:
  genefit user update --weight 68.5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := GetContext()

			var in models.UserUpdate
			if cmd.Flags().Changed("name") {
				in.Name = &name
			}
			profile.apply(cmd, &in.Age, &in.Gender, &in.Height, &in.Weight)

			user, err := requireUser(ctx)
			if err != nil {
				return err
			}
			apiClient, err := getAPIClient()
			if err != nil {
				return err
			}
			updated, err := apiClient.UpdateUser(ctx, user.ID, in)
			if err != nil {
				return fmt.Errorf("failed to update user: %w", err)
			}

			store, release, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer release()
			if err := session.Save(ctx, store, updated); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "✓ Profile updated")
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Full name")
	profile.register(cmd)

	return cmd
}

func newUserLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the current profile on this machine",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := GetContext()
			store, release, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer release()
			if err := session.Clear(ctx, store); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✓ Logged out")
			return nil
		},
	}
}
