package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rkhanna/amulwatch/internal/config"
	"github.com/rkhanna/amulwatch/internal/region"
)

func resolveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve [pincode]",
		Short: "Resolve a pincode through the local region rules",
		Long: "Evaluates the configured resolution chain (exact, longest prefix,\n" +
			"range, override, default) for a pincode without touching the network.\n" +
			"With no argument, resolves the configured region.pincode.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			pin := cfg.Region.Pincode
			if len(args) == 1 {
				pin = args[0]
			}

			code, ok := region.New(cfg.Region).Resolve(pin)
			if !ok {
				fmt.Printf("%s: no local rule, server-side resolution would be used\n", pin)
				return nil
			}
			fmt.Printf("%s: %s\n", pin, code)
			return nil
		},
	}
}
