package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dyluth/chalk/internal/printer"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter chalk.yml in the current directory",
	Args:  cobra.NoArgs,
	RunE:  runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

const starterConfig = `# Chalk configuration
cache_path: file:///var/cache/chalk
ttl: 1h

redis:
  addr: localhost:6379

# Uncomment to enable remote storage schemes:
# storage:
#   s3:
#     endpoint: s3.amazonaws.com
#     access_key: ""
#     secret_key: ""
#     use_ssl: true
#   sftp:
#     addr: sftp.example.com:22
#     user: chalk
#     password: ""

retry:
  max_attempts: 3
  initial_interval: 500ms

evictor:
  max_age: 1h
`

func runInit(cmd *cobra.Command, args []string) error {
	const path = "chalk.yml"

	if _, err := os.Stat(path); err == nil {
		return printer.Errorf("%s already exists, refusing to overwrite", path)
	}

	if err := os.WriteFile(path, []byte(starterConfig), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	printer.Success("created %s\n", path)
	return nil
}
