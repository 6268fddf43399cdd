// Package cmd implements the CLI commands for amulwatch.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "amulwatch",
	Short: "Watch shop.amul.com product availability",
	Long: "amulwatch polls shop.amul.com for a set of tracked products, diffs the\n" +
		"results against the last run's snapshots, and alerts via Telegram or\n" +
		"email when something changes. One invocation is one poll cycle; run it\n" +
		"from cron or a CI schedule.",
}

func init() {
	cobra.OnInitialize(initEnv)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")

	rootCmd.AddCommand(runCommand())
	rootCmd.AddCommand(resolveCommand())
	rootCmd.AddCommand(stateCommand())
	rootCmd.AddCommand(versionCommand())
}

func initEnv() {
	viper.SetEnvPrefix("AMULWATCH")
	viper.AutomaticEnv()

	// FORCE_ALERT=1 is honored for compatibility with older cron
	// setups that predate the flag.
	cobra.CheckErr(viper.BindEnv("force", "AMULWATCH_FORCE", "FORCE_ALERT"))
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
