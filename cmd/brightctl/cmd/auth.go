package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/good-yellow-bee/brightminds/internal/client"
	"github.com/good-yellow-bee/brightminds/internal/models"
)

var (
	authEmail string
	authName  string
	authRole  string
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Sign in, sign out and manage your profile",
	Long: `Commands for the signed-in session.

The session token is kept in the session file (see --session) with
owner-only permissions. Passwords are always prompted, never passed as flags.

Examples:
  brightctl auth register --name "Ms Rivera" --email rivera@example.com --role teacher
  brightctl auth login --email rivera@example.com
  brightctl auth whoami
  brightctl auth logout`,
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the session",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		password, err := promptPassword("Password: ")
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}

		user, err := c.Login(cmd.Context(), authEmail, password)
		if err != nil {
			return err
		}
		fmt.Printf("Signed in as %s (%s).\n", user.Name, user.Role)
		return nil
	},
}

var authRegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and sign in",
	Long: `Create a teacher or parent account.

Password requirements:
  - Minimum 8 characters
  - At least 1 letter and 1 digit`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		password, err := promptPassword("Choose a password: ")
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		confirm, err := promptPassword("Confirm password: ")
		if err != nil {
			return fmt.Errorf("read password confirmation: %w", err)
		}
		if password != confirm {
			return fmt.Errorf("passwords do not match")
		}

		user, err := c.Register(cmd.Context(), client.RegisterInput{
			Name:     authName,
			Email:    authEmail,
			Password: password,
			Role:     authRole,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Account created. Signed in as %s (%s).\n", user.Name, user.Role)
		fmt.Println("Accept the beta terms with 'brightctl beta accept' before working with records.")
		return nil
	},
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		c.Logout()
		fmt.Println("Signed out.")
		return nil
	},
}

var authWhoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := signedInClient()
		if err != nil {
			return err
		}
		user, err := c.Me(cmd.Context())
		if err != nil {
			return err
		}
		return printProfile(user)
	},
}

var authUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Change your name or email",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := signedInClient()
		if err != nil {
			return err
		}

		var in client.UpdateMeInput
		if cmd.Flags().Changed("name") {
			in.Name = &authName
		}
		if cmd.Flags().Changed("email") {
			in.Email = &authEmail
		}
		if in.Name == nil && in.Email == nil {
			return fmt.Errorf("nothing to update, pass --name or --email")
		}

		user, err := c.UpdateMe(cmd.Context(), in)
		if err != nil {
			return err
		}
		return printProfile(user)
	},
}

func printProfile(u *models.UserProfile) error {
	if isJSON() {
		return printJSON(u)
	}
	fmt.Printf("  ID:    %s\n", u.ID)
	fmt.Printf("  Name:  %s\n", u.Name)
	fmt.Printf("  Email: %s\n", u.Email)
	fmt.Printf("  Role:  %s\n", u.Role)
	return nil
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authLoginCmd, authRegisterCmd, authLogoutCmd, authWhoamiCmd, authUpdateCmd)

	authLoginCmd.Flags().StringVar(&authEmail, "email", "", "account email (required)")
	authLoginCmd.MarkFlagRequired("email")

	authRegisterCmd.Flags().StringVar(&authName, "name", "", "display name (required)")
	authRegisterCmd.Flags().StringVar(&authEmail, "email", "", "account email (required)")
	authRegisterCmd.Flags().StringVar(&authRole, "role", "teacher", "role: teacher or parent")
	authRegisterCmd.MarkFlagRequired("name")
	authRegisterCmd.MarkFlagRequired("email")

	authUpdateCmd.Flags().StringVar(&authName, "name", "", "new display name")
	authUpdateCmd.Flags().StringVar(&authEmail, "email", "", "new email")
}
