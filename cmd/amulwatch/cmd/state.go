package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/rkhanna/amulwatch/internal/config"
	"github.com/rkhanna/amulwatch/internal/store"
)

func stateCommand() *cobra.Command {
	var asJSON bool
	c := &cobra.Command{
		Use:   "state",
		Short: "Show tracked snapshots and alert history",
		RunE: func(cc *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			st, err := store.NewJSONFile(cfg.State.Path).Load(cc.Context())
			if err != nil {
				return fmt.Errorf("loading state: %w", err)
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(st)
			}

			aliases := make([]string, 0, len(st.Tracked))
			for alias := range st.Tracked {
				aliases = append(aliases, alias)
			}
			sort.Strings(aliases)

			for _, alias := range aliases {
				snap := st.Tracked[alias]
				fmt.Printf("%s:", alias)
				if snap.Available != nil {
					fmt.Printf(" available=%v", *snap.Available)
				}
				if snap.Inventory != nil {
					fmt.Printf(" inventory=%d", *snap.Inventory)
				}
				if snap.Price != nil {
					fmt.Printf(" price=%.2f", *snap.Price)
				}
				fmt.Printf(" checked=%s\n", snap.CheckedAt.Format("2006-01-02 15:04:05"))
			}
			fmt.Printf("history entries: %d\n", len(st.History))
			return nil
		},
	}
	c.Flags().BoolVar(&asJSON, "json", false, "dump the raw state document")
	return c
}
