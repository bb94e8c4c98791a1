package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/nextserve/oralvis-sync/pkg/config"
	"github.com/nextserve/oralvis-sync/pkg/logger"
	"github.com/nextserve/oralvis-sync/pkg/models"
	"github.com/spf13/cobra"
)

const sessionIDPrefix = "OVH"

var saveCmd = &cobra.Command{
	Use:   "save",
	Short: "Create a session from captured images",
	Long: `Creates a new session record in the local store and copies the given
images into its local image directory. The session is not uploaded until
'oralvis upload' is run for it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.Init()
		defer logger.Close()

		name, _ := cmd.Flags().GetString("name")
		age, _ := cmd.Flags().GetString("age")
		imagesDir, _ := cmd.Flags().GetString("images")

		if name == "" {
			return fmt.Errorf("--name is required")
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

		cache, err := openCache(cfg)
		if err != nil {
			return err
		}

		rec := models.SessionRecord{
			SessionID: models.NewSessionID(sessionIDPrefix),
			Name:      name,
			Age:       age,
			CreatedAt: time.Now().UnixMilli(),
		}

		logger.Info("Creating session: id=%s name=%s", rec.SessionID, rec.Name)

		saved := 0
		if imagesDir != "" {
			entries, err := os.ReadDir(imagesDir)
			if err != nil {
				return fmt.Errorf("failed to read images directory: %w", err)
			}
			var names []string
			for _, entry := range entries {
				if entry.IsDir() {
					continue
				}
				switch strings.ToLower(filepath.Ext(entry.Name())) {
				case ".jpg", ".jpeg", ".png":
					names = append(names, entry.Name())
				}
			}
			sort.Strings(names)

			for _, n := range names {
				src := filepath.Join(imagesDir, n)
				dst, err := cache.SaveCapture(rec.SessionID, src)
				if err != nil {
					return fmt.Errorf("failed to import %s: %w", n, err)
				}
				logger.Debug("Imported image: src=%s dst=%s", src, dst)
				saved++
			}
		}

		if err := db.Upsert(rec); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}

		fmt.Println("=== Session Created ===")
		fmt.Println()
		fmt.Printf("Session ID: %s\n", rec.SessionID)
		fmt.Printf("Name: %s\n", rec.Name)
		if rec.Age != "" {
			fmt.Printf("Age: %s\n", rec.Age)
		}
		fmt.Printf("Images: %d\n", saved)
		fmt.Println()
		fmt.Printf("Upload it with: oralvis upload %s\n", rec.SessionID)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(saveCmd)

	saveCmd.Flags().String("name", "", "Patient name (required)")
	saveCmd.Flags().String("age", "", "Patient age")
	saveCmd.Flags().String("images", "", "Directory of images to import into the session")
}
