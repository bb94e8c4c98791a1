package cmd

import (
	"fmt"
	"time"

	"github.com/nextserve/oralvis-sync/pkg/config"
	"github.com/nextserve/oralvis-sync/pkg/models"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List local sessions",
	Long:  `Lists sessions in the local store, newest first. Use --search to filter by session id or patient name.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		search, _ := cmd.Flags().GetString("search")

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		db, err := openStore(cfg)
		if err != nil {
			return fmt.Errorf("failed to open local store: %w", err)
		}
		defer db.Close()

		var sessions []models.SessionRecord
		if search != "" {
			sessions, err = db.Search(search)
		} else {
			sessions, err = db.GetAll()
		}
		if err != nil {
			return fmt.Errorf("failed to list sessions: %w", err)
		}

		if len(sessions) == 0 {
			fmt.Println("No sessions found")
			return nil
		}

		for _, s := range sessions {
			fmt.Println(formatSession(s))
		}
		fmt.Printf("\n%d session(s)\n", len(sessions))

		return nil
	},
}

func formatSession(s models.SessionRecord) string {
	created := time.UnixMilli(s.CreatedAt).Format("2006-01-02 15:04")
	state := "local"
	if s.Uploaded {
		state = "uploaded"
	}
	return fmt.Sprintf("%s  %s  %-8s  %s (age %s)", s.SessionID, created, state, s.Name, s.Age)
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().String("search", "", "Filter by session id or patient name substring")
}
