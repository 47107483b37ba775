package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/good-yellow-bee/brightminds/internal/api/auth"
	"github.com/good-yellow-bee/brightminds/internal/models"
	"github.com/good-yellow-bee/brightminds/internal/storage"
	"github.com/good-yellow-bee/brightminds/internal/validate"
)

var (
	userDBType string
	userDSN    string
	userName   string
	userEmail  string
	userRole   string
)

// userCmd represents the user command group
var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Database-level user management",
	Long: `Commands for managing BrightMinds accounts directly in the database.

These commands bypass the API and are intended for operators on the server
host, for example to create the first superadmin. The database is selected
with --db-type and --dsn, defaulting to DB_TYPE, MONGO_URI and SQLITE_PATH.

Examples:
  # Create a superadmin
  brightctl user create --name Admin --email admin@example.com --role superadmin

  # List accounts in a SQLite database
  brightctl user list --db-type sqlite --dsn data/brightminds.db`,
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a user",
	Long: `Create a user in the database.

The password is prompted interactively to keep it out of shell history.

Password requirements:
  - Minimum 8 characters
  - At least 1 letter and 1 digit

Available roles:
  - superadmin: can list users and triage feedback
  - teacher: manages student projects
  - parent: manages child profiles`,
	RunE: func(cmd *cobra.Command, args []string) error {
		email := models.NormalizeEmail(userEmail)
		if !validate.Var(email, "required,email") {
			return fmt.Errorf("invalid email: %s", userEmail)
		}
		name := strings.TrimSpace(userName)
		if name == "" {
			return fmt.Errorf("--name must not be blank")
		}
		if !models.ValidRole(userRole) {
			return fmt.Errorf("invalid role %q", userRole)
		}
		role := models.ParseRole(userRole)

		password, err := promptPassword("Enter password: ")
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		if err := auth.ValidatePassword(password); err != nil {
			return fmt.Errorf("invalid password: %w", err)
		}
		confirmPassword, err := promptPassword("Confirm password: ")
		if err != nil {
			return fmt.Errorf("read password confirmation: %w", err)
		}
		if password != confirmPassword {
			return fmt.Errorf("passwords do not match")
		}

		store, err := openDatabase()
		if err != nil {
			return err
		}
		defer store.Close()

		hash, err := auth.HashPassword(password, 0)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		user := models.NewUser(name, email, role)
		user.PasswordHash = hash

		if err := store.Users().Create(context.Background(), user); err != nil {
			if errors.Is(err, storage.ErrDuplicateEmail) {
				return fmt.Errorf("email '%s' already exists", email)
			}
			return fmt.Errorf("create user: %w", err)
		}

		fmt.Printf("\nUser created successfully:\n")
		fmt.Printf("  ID:    %s\n", user.ID.Hex())
		fmt.Printf("  Name:  %s\n", user.Name)
		fmt.Printf("  Email: %s\n", user.Email)
		fmt.Printf("  Role:  %s\n", user.Role)
		return nil
	},
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openDatabase()
		if err != nil {
			return err
		}
		defer store.Close()

		users, total, err := store.Users().List(context.Background(),
			storage.UserFilter{Role: models.Role(userRole)},
			storage.Page{Number: 1, Limit: 1000})
		if err != nil {
			return fmt.Errorf("list users: %w", err)
		}
		if len(users) == 0 {
			fmt.Println("No users found.")
			return nil
		}

		fmt.Printf("\n%-24s  %-24s  %-30s  %-10s  %s\n",
			"ID", "NAME", "EMAIL", "ROLE", "CREATED")
		fmt.Println(strings.Repeat("-", 110))
		for _, u := range users {
			fmt.Printf("%-24s  %-24s  %-30s  %-10s  %s\n",
				u.ID.Hex(),
				truncate(u.Name, 24),
				truncate(u.Email, 30),
				u.Role,
				u.CreatedAt.Format("2006-01-02 15:04:05"),
			)
		}
		fmt.Printf("\nTotal: %d user(s)\n", total)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userCreateCmd, userListCmd)

	dbType := os.Getenv("DB_TYPE")
	if dbType == "" {
		dbType = storage.BackendMongo
	}
	userCmd.PersistentFlags().StringVar(&userDBType, "db-type", dbType, "storage backend: mongo or sqlite")
	userCmd.PersistentFlags().StringVar(&userDSN, "dsn", "", "MongoDB URI or SQLite path (default from MONGO_URI / SQLITE_PATH)")

	userCreateCmd.Flags().StringVar(&userName, "name", "", "display name (required)")
	userCreateCmd.Flags().StringVar(&userEmail, "email", "", "email (required)")
	userCreateCmd.Flags().StringVar(&userRole, "role", string(models.RoleSuperAdmin), "role: superadmin, teacher or parent")
	userCreateCmd.MarkFlagRequired("name")
	userCreateCmd.MarkFlagRequired("email")

	userListCmd.Flags().StringVar(&userRole, "role", "", "only this role")
}

// databaseDSN resolves the connection string for the selected backend.
func databaseDSN() string {
	if userDSN != "" {
		return userDSN
	}
	if userDBType == storage.BackendSQLite {
		if v := os.Getenv("SQLITE_PATH"); v != "" {
			return v
		}
		return "data/brightminds.db"
	}
	if v := os.Getenv("MONGO_URI"); v != "" {
		return v
	}
	return "mongodb://127.0.0.1:27017/brightminds"
}

// openDatabase opens and migrates the configured store.
func openDatabase() (storage.Storage, error) {
	dsn := databaseDSN()
	if userDBType == storage.BackendSQLite {
		if _, err := os.Stat(dsn); os.IsNotExist(err) {
			return nil, fmt.Errorf("database file not found: %s", dsn)
		}
	}

	store, err := storage.New(userDBType, dsn)
	if err != nil {
		return nil, err
	}
	if err := storage.OpenAndMigrate(store); err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	PrintVerbose("Connected to %s storage", userDBType)
	return store, nil
}

// promptPassword prompts for a password without echoing to the terminal.
func promptPassword(prompt string) (string, error) {
	fmt.Print(prompt)

	fd := int(syscall.Stdin)
	if term.IsTerminal(fd) {
		passwordBytes, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", err
		}
		return string(passwordBytes), nil
	}

	// piped input
	reader := bufio.NewReader(os.Stdin)
	password, err := reader.ReadString('\n')
	if err != nil && password == "" {
		return "", err
	}
	return strings.TrimSpace(password), nil
}
