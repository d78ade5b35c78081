package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "wizbi",
	Short: "Tenant environment provisioning service",
	Long: `wizbi provisions complete tenant environments: a GCP project with its
billing, IAM, registries and runtime services, and a GitHub repository
instantiated from a template and wired for keyless deployments.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
