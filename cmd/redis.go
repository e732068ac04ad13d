package cmd

import (
	"log"

	"echofm/config"
	"echofm/db"

	"github.com/spf13/cobra"
)

var redisCmd = &cobra.Command{
	Use:   "redis",
	Short: "Check Redis connectivity",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()

		client, err := db.ConnectRedis(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer client.Close()

		if err := db.PingRedis(client); err != nil {
			log.Fatalf("Redis check failed: %v", err)
		}
		log.Println("Redis connection OK.")
	},
}

func init() {
	rootCmd.AddCommand(redisCmd)
}
