package cmd

import (
	"log"

	"echofm/config"
	"echofm/db"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations",
	Long:  `Create or update the EchoFM MySQL schema and exit.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()

		if err := db.MigrateSchema(cfg); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		log.Println("Migration completed.")
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
