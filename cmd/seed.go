/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/soliton-oj/adminserver/config"
	"github.com/soliton-oj/adminserver/internal/db"
	"github.com/soliton-oj/adminserver/internal/seed"
	"github.com/soliton-oj/adminserver/internal/server"
	"github.com/soliton-oj/adminserver/internal/store"
	"github.com/spf13/cobra"
)

// seedCmd represents the seed command
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the default admin and sample questions",
	Long: `Creates the default admin account (SEED_ADMIN_EMAIL, SEED_ADMIN_PASSWORD,
SEED_ADMIN_NAME) and three sample questions. Safe to run repeatedly: the
admin's name and password are refreshed and existing samples are left alone.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		logger := server.NewLogger(cfg.LogLevel)

		dbConn, err := db.Open(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer dbConn.Close()

		seeder := seed.NewSeeder(
			store.NewAdminRepository(dbConn),
			store.NewQuestionRepository(dbConn),
			cfg.Auth.BcryptCost,
			logger,
		)
		result, err := seeder.Run(cmd.Context(), cfg.Seed)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "admin login: %s\nquestions created: %d, already present: %d\n",
			result.Admin.Email, len(result.CreatedQuestions), len(result.SkippedQuestions))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
