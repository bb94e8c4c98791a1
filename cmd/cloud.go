package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/nextserve/oralvis-sync/pkg/config"
	"github.com/spf13/cobra"
)

var cloudCmd = &cobra.Command{
	Use:   "cloud",
	Short: "Browse sessions in cloud storage",
}

var cloudListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions stored in the cloud",
	Long: `Lists every session in the user's remote namespace by reading each
session's metadata blob. Sessions with unreadable metadata are skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		engine, user, err := openEngine(cfg)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		sessions := engine.ListRemoteSessions(ctx, user)
		if len(sessions) == 0 {
			fmt.Println("No cloud sessions found")
			return nil
		}

		for _, s := range sessions {
			created := time.UnixMilli(s.CreatedAt).Format("2006-01-02 15:04")
			fmt.Printf("%s  %s  %s (age %s)\n", s.SessionID, created, s.Name, s.Age)
		}
		fmt.Printf("\n%d cloud session(s)\n", len(sessions))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(cloudCmd)
	cloudCmd.AddCommand(cloudListCmd)
}
