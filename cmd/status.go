package cmd

import (
	"fmt"

	"github.com/nextserve/oralvis-sync/pkg/config"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and local store status",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		fmt.Println("=== OralVis Sync Status ===")
		fmt.Println()
		printConfig(cfg)
		fmt.Println()

		if !cfg.Configured() {
			fmt.Println("Storage is not configured. Run:")
			fmt.Println("  oralvis configure --endpoint <host:port> --access-key <id> --secret-key <key> --bucket <name> --user-id <id> --token <token>")
			return nil
		}

		db, err := openStore(cfg)
		if err != nil {
			return fmt.Errorf("failed to open local store: %w", err)
		}
		defer db.Close()

		count, err := db.Count()
		if err != nil {
			return fmt.Errorf("failed to count sessions: %w", err)
		}

		fmt.Printf("Local store: %s\n", db.Path())
		fmt.Printf("Local sessions: %d\n", count)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
