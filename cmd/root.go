package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "oralvis",
	Short: "Sync photo-documentation sessions with cloud storage",
	Long: `OralVis Sync keeps locally captured photo-documentation sessions in a
SQLite store and synchronizes them with an S3-compatible bucket: upload
sessions in the background, browse what is in the cloud, and pull images
back down when the local copy is gone.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
