package cmd

import (
	"errors"
	"os"

	"github.com/ArnaudCalmettes/histonorm/models"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Perform automatic journal database migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return migrateDB()
	},
}

func migrateDB() error {
	path := viper.GetString("journal")
	if path == "" {
		return errors.New("no journal database given (use --journal)")
	}
	db, err := models.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()

	log := newLogger(os.Stderr)
	log.Info().Str("component", "journal").Str("db", path).Msg("journal is up to date")
	return nil
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
