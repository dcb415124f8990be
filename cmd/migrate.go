/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/viajesoeste/apiserver/config"
	"github.com/viajesoeste/apiserver/internal/db"
)

// migrateCmd represents the migrate command.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long:  `Run the Postgres schema migrations used when STORE_DRIVER=postgres.`,
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigration(0)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the most recent migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigration(-1)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
}

func runMigration(steps int) error {
	cfg := config.LoadConfig()
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}

	version, err := db.Migrate(cfg.Database, steps)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"database": cfg.Database.DBName,
		"version":  version,
	}).Info("schema migrated")
	return nil
}
