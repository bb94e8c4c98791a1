package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/nextserve/oralvis-sync/pkg/config"
	"github.com/nextserve/oralvis-sync/pkg/logger"
	"github.com/nextserve/oralvis-sync/pkg/task"
	"github.com/spf13/cobra"
)

var uploadCmd = &cobra.Command{
	Use:   "upload <session-id>",
	Short: "Upload a session to cloud storage",
	Long: `Uploads a session's metadata and images to the configured bucket through
the background task runner and reports progress. Ctrl-C cancels the upload
between blob operations.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.Init()
		defer logger.Close()

		sessionID := args[0]

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

		engine, user, err := openEngine(cfg)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		runner := task.NewRunner(engine, db, cache)
		runner.Start(ctx, task.DefaultWorkers)

		t, err := runner.Enqueue(user, sessionID)
		if err != nil {
			return fmt.Errorf("failed to queue upload: %w", err)
		}

		fmt.Printf("Uploading %s...\n", sessionID)

		// Cancel the task, not just our context, so the final status is
		// reported as cancelled rather than abandoned mid-flight.
		go func() {
			<-ctx.Done()
			t.Cancel()
		}()

		status := watchTask(t)

		switch status.Phase {
		case task.PhaseSucceeded:
			fmt.Println("\n=== Upload Complete ===")
			fmt.Printf("Session %s is now in the cloud.\n", sessionID)
			return nil
		case task.PhaseFailed:
			fmt.Println()
			return fmt.Errorf("upload failed (%s): %s", status.Reason, status.Message)
		default:
			return fmt.Errorf("upload ended in unexpected state %s", status.Phase)
		}
	},
}

// watchTask prints progress transitions until the task finishes.
func watchTask(t *task.Task) task.Status {
	lastPercent := -1
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-t.Done():
			return t.Snapshot()
		case <-ticker.C:
			s := t.Snapshot()
			if s.Phase == task.PhaseRunning && s.Percent != lastPercent {
				fmt.Printf("  [%3d%%] %s\n", s.Percent, s.Message)
				lastPercent = s.Percent
			}
		}
	}
}

func init() {
	rootCmd.AddCommand(uploadCmd)
}
