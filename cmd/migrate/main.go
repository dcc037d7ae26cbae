package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/noah-isme/backoffice-api/internal/database"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	settings := viper.New()
	settings.SetEnvPrefix("BACKOFFICE")
	settings.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	settings.AutomaticEnv()

	var migrator *database.Migrator

	cmd := &cobra.Command{
		Use:           "migrate",
		Short:         "Manage the backoffice database schema",
		SilenceErrors: true,
		SilenceUsage:  true,

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

			db, err := database.ConnectPostgres(settings.GetString("database.url"))
			if err != nil {
				return err
			}
			if settings.GetBool("database.auto_migrate") {
				if err := database.AutoMigrate(db); err != nil {
					return err
				}
			}

			migrator, err = database.NewMigrator(db, logger)
			return err
		},
	}

	cmd.PersistentFlags().String("database-url", "", "postgres DSN (default $BACKOFFICE_DATABASE_URL)")
	cmd.PersistentFlags().Bool("auto-migrate", true, "sync the gorm models before running SQL migrations")
	_ = settings.BindPFlag("database.url", cmd.PersistentFlags().Lookup("database-url"))
	_ = settings.BindPFlag("database.auto_migrate", cmd.PersistentFlags().Lookup("auto-migrate"))

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply every pending migration",
			RunE: func(cmd *cobra.Command, args []string) error {
				return migrator.Up(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the latest migration",
			RunE: func(cmd *cobra.Command, args []string) error {
				return migrator.Down(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "List migrations and whether they are applied",
			RunE: func(cmd *cobra.Command, args []string) error {
				return printStatus(cmd.Context(), cmd, migrator)
			},
		},
	)

	return cmd
}

func printStatus(ctx context.Context, cmd *cobra.Command, migrator *database.Migrator) error {
	states, err := migrator.Status(ctx)
	if err != nil {
		return err
	}
	for _, state := range states {
		mark := "pending"
		if state.Applied {
			mark = "applied"
		}
		cmd.Printf("%05d  %-8s %s\n", state.Version, mark, state.Path)
	}
	return nil
}
