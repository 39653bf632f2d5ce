// Command vqdash compares an original video with compressed versions of it,
// either interactively or as a batch metrics run.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const AppVersion = "1.0.0"

// rootEnv holds the flags shared by every subcommand.
type rootEnv struct {
	configPath string
	logLevel   string
	logJSON    bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	env := &rootEnv{}
	root := &cobra.Command{
		Use:           "vqdash",
		Short:         "Video quality dashboard: PSNR, SSIM and difference heatmaps",
		Version:       AppVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&env.configPath, "config", "", "path to a TOML config file")
	root.PersistentFlags().StringVar(&env.logLevel, "log-level", "", "debug|info|warn|error (overrides config)")
	root.PersistentFlags().BoolVar(&env.logJSON, "log-json", false, "log JSON lines instead of console output")

	root.AddCommand(newDashboardCmd(env))
	root.AddCommand(newMetricsCmd(env))
	return root
}
