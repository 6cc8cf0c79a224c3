package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"massiliafm/config"
	"massiliafm/storage"
)

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "Test the MinIO connection",
	Long:  `Connect to MinIO and make sure the station bucket exists.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		fmt.Printf("MinIO: %s, bucket: %s\n", cfg.MinioEndpoint, cfg.MinioBucket)

		if err := storage.InitMinio(cfg); err != nil {
			log.Fatalf("failed to initialize MinIO: %v", err)
		}
		fmt.Println("Bucket ready.")
	},
}

func init() {
	rootCmd.AddCommand(minioCmd)
}
