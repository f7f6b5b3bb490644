package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gatewarden/gatewarden/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Initialize a sample gatewarden configuration file.

By default, the configuration file is created at $XDG_CONFIG_HOME/gatewarden/config.yaml.
Use --config to specify a custom path.

Examples:
  # Initialize with default location
  gatewarden init

  # Initialize with custom path
  gatewarden init --config /etc/gatewarden/config.yaml

  # Force overwrite existing config
  gatewarden init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	configFile := GetConfigFile()

	var configPath string
	var err error

	if configFile != "" {
		// Use custom path
		err = config.InitConfigToPath(configFile, initForce)
		configPath = configFile
	} else {
		// Use default path
		configPath, err = config.InitConfig(initForce)
	}

	if err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	fmt.Printf("Configuration file created at: %s\n", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Edit the configuration file to customize your setup")
	fmt.Println("  2. Generate bcrypt hashes for the built-in accounts:")
	fmt.Println("       gatewarden hash")
	fmt.Println("  3. Export the secrets (never store them in the file):")
	fmt.Println("       export GATEWARDEN_AUTH_LOCAL_ADMIN_PASSWORD_HASH='...'")
	fmt.Println("       export GATEWARDEN_AUTH_LOCAL_MODERATOR_PASSWORD_HASH='...'")
	fmt.Println("       export GATEWARDEN_AUTH_LOCAL_VIEWER_PASSWORD_HASH='...'")
	fmt.Println("       export GATEWARDEN_AUTH_SESSION_SECRET=$(openssl rand -hex 32)")
	fmt.Println("  4. Start the server with: gatewarden serve")
	fmt.Printf("     Or specify custom config: gatewarden serve --config %s\n", configPath)

	return nil
}
