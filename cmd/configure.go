package cmd

import (
	"fmt"

	"github.com/nextserve/oralvis-sync/pkg/config"
	"github.com/spf13/cobra"
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Configure storage endpoint and identity",
	Long:  `Set the S3-compatible endpoint, bucket, credentials, and user identity used for session sync.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		endpoint, _ := cmd.Flags().GetString("endpoint")
		accessKey, _ := cmd.Flags().GetString("access-key")
		secretKey, _ := cmd.Flags().GetString("secret-key")
		bucket, _ := cmd.Flags().GetString("bucket")
		userID, _ := cmd.Flags().GetString("user-id")
		token, _ := cmd.Flags().GetString("token")
		dataDir, _ := cmd.Flags().GetString("data-dir")
		ssl, _ := cmd.Flags().GetBool("ssl")
		noSSL, _ := cmd.Flags().GetBool("no-ssl")

		// Get current config
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		// Update fields
		if endpoint != "" {
			cfg.Endpoint = endpoint
		}
		if accessKey != "" {
			cfg.AccessKeyID = accessKey
		}
		if secretKey != "" {
			cfg.SecretAccessKey = secretKey
		}
		if bucket != "" {
			cfg.Bucket = bucket
		}
		if userID != "" {
			cfg.UserID = userID
		}
		if token != "" {
			cfg.Token = token
		}
		if dataDir != "" {
			cfg.DataDir = dataDir
		}
		if ssl {
			cfg.UseSSL = true
		}
		if noSSL {
			cfg.UseSSL = false
		}

		// Save config
		if err := config.Save(cfg); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		fmt.Println("=== Configuration Updated ===")
		fmt.Println()
		printConfig(cfg)

		return nil
	},
}

func printConfig(cfg *config.Config) {
	fmt.Printf("Endpoint: %s\n", valueOrUnset(cfg.Endpoint))
	fmt.Printf("Bucket: %s\n", valueOrUnset(cfg.Bucket))
	fmt.Printf("SSL: %v\n", cfg.UseSSL)
	fmt.Printf("User ID: %s\n", valueOrUnset(cfg.UserID))
	if cfg.SecretAccessKey != "" {
		fmt.Println("Credentials: (set)")
	} else {
		fmt.Println("Credentials: (not set)")
	}
	if cfg.DataDir != "" {
		fmt.Printf("Data dir: %s\n", cfg.DataDir)
	}
}

func valueOrUnset(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}

func init() {
	rootCmd.AddCommand(configureCmd)

	configureCmd.Flags().String("endpoint", "", "S3-compatible endpoint (e.g., storage.example.com:9000)")
	configureCmd.Flags().String("access-key", "", "Access key ID")
	configureCmd.Flags().String("secret-key", "", "Secret access key")
	configureCmd.Flags().String("bucket", "", "Bucket holding session data")
	configureCmd.Flags().String("user-id", "", "User id owning the remote session namespace")
	configureCmd.Flags().String("token", "", "Auth token for the user")
	configureCmd.Flags().String("data-dir", "", "Local data directory (default ~/.oralvis/data)")
	configureCmd.Flags().Bool("ssl", false, "Use TLS to reach the endpoint")
	configureCmd.Flags().Bool("no-ssl", false, "Disable TLS")
}
