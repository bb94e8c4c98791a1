package cmd

import (
	"fmt"
	"os"

	"github.com/nextserve/oralvis-sync/pkg/archive"
	"github.com/nextserve/oralvis-sync/pkg/config"
	"github.com/nextserve/oralvis-sync/pkg/logger"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export <session-id>",
	Short: "Export a session to a compressed archive",
	Long: `Writes a session's metadata and local images to a zstd-compressed tar
archive, suitable for handing off outside the sync system.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.Init()
		defer logger.Close()

		sessionID := args[0]
		output, _ := cmd.Flags().GetString("output")
		if output == "" {
			output = sessionID + ".tar.zst"
		}

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

		cache, err := openCache(cfg)
		if err != nil {
			return err
		}
		images, err := cache.ListImages(sessionID)
		if err != nil {
			return fmt.Errorf("failed to list images: %w", err)
		}

		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create archive: %w", err)
		}
		defer f.Close()

		if err := archive.Export(f, *rec, images); err != nil {
			os.Remove(output)
			return fmt.Errorf("failed to write archive: %w", err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("failed to finalize archive: %w", err)
		}

		logger.Info("Exported session: id=%s images=%d output=%s", sessionID, len(images), output)

		fmt.Println("=== Session Exported ===")
		fmt.Println()
		fmt.Printf("Session: %s (%s)\n", rec.SessionID, rec.Name)
		fmt.Printf("Images: %d\n", len(images))
		fmt.Printf("Archive: %s\n", output)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringP("output", "o", "", "Archive path (default <session-id>.tar.zst)")
}
