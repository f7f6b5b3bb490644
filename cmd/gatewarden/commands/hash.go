package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gatewarden/gatewarden/internal/cli/prompt"
	"github.com/gatewarden/gatewarden/pkg/auth"
)

var hashCmd = &cobra.Command{
	Use:   "hash",
	Short: "Generate a bcrypt password hash",
	Long: `Generate a bcrypt hash for one of the built-in account passwords.

The hash is printed to stdout and is safe to store in the configuration
file or an environment variable. The password itself is never stored.

Examples:
  gatewarden hash`,
	RunE: runHash,
}

func runHash(cmd *cobra.Command, args []string) error {
	password, err := prompt.PasswordWithConfirmation("Password", "Confirm password", 8)
	if err != nil {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	fmt.Println(hash)
	fmt.Println("\nExport it for the account it belongs to, e.g.:")
	fmt.Printf("  export GATEWARDEN_AUTH_LOCAL_ADMIN_PASSWORD_HASH='%s'\n", hash)

	return nil
}
