package cmd

import (
	"fmt"
	"os"

	"github.com/nextserve/oralvis-sync/pkg/config"
	"github.com/nextserve/oralvis-sync/pkg/logger"
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a session record from the local store",
	Long: `Removes a session's record. Local image files are kept unless
--purge-images is given, and the cloud copy is never touched: a previously
uploaded session can still be listed with 'oralvis cloud list' and pulled
again.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.Init()
		defer logger.Close()

		sessionID := args[0]
		purgeImages, _ := cmd.Flags().GetBool("purge-images")

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		db, err := openStore(cfg)
		if err != nil {
			return fmt.Errorf("failed to open local store: %w", err)
		}
		defer db.Close()

		rec, err := db.GetByID(sessionID)
		if err != nil {
			return fmt.Errorf("failed to look up session: %w", err)
		}
		if rec == nil {
			return fmt.Errorf("session %s not found", sessionID)
		}

		if err := db.Delete(sessionID); err != nil {
			return fmt.Errorf("failed to delete session: %w", err)
		}
		logger.Info("Deleted session record: id=%s", sessionID)

		if purgeImages {
			cache, err := openCache(cfg)
			if err != nil {
				return err
			}
			dir := cache.Dir(sessionID)
			if err := os.RemoveAll(dir); err != nil {
				return fmt.Errorf("record deleted but failed to remove images: %w", err)
			}
			logger.Info("Removed local images: dir=%s", dir)
		}

		fmt.Printf("Deleted session %s\n", sessionID)
		if !purgeImages {
			fmt.Println("Local image files were kept.")
		}
		if rec.Uploaded {
			fmt.Println("The cloud copy was kept.")
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)

	deleteCmd.Flags().Bool("purge-images", false, "Also remove the session's local image directory")
}
