package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/nextserve/oralvis-sync/pkg/config"
	"github.com/nextserve/oralvis-sync/pkg/logger"
	"github.com/spf13/cobra"
)

var pullCmd = &cobra.Command{
	Use:   "pull <session-id>",
	Short: "Fetch a session's images from the cloud",
	Long: `Resolves a session's images for local use. When the local image directory
already has images it is used as-is; only a fully empty or missing directory
triggers a download from the cloud.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.Init()
		defer logger.Close()

		sessionID := args[0]

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		engine, user, err := openEngine(cfg)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		images, err := engine.ResolveImages(ctx, user, sessionID)
		if err != nil {
			return fmt.Errorf("failed to resolve images: %w", err)
		}

		fmt.Printf("=== Session %s ===\n", sessionID)
		fmt.Println()
		for _, img := range images {
			fmt.Printf("  %s\n", filepath.Base(img))
		}
		fmt.Println()
		fmt.Printf("%d image(s) in %s\n", len(images), filepath.Dir(images[0]))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(pullCmd)
}
