package main

import (
	"github.com/spf13/cobra"

	mongodb "github.com/gestaoprojetos/workflow-system/internal/infrastructure/db/mongo"
)

var indexesCmd = &cobra.Command{
	Use:   "indexes",
	Short: "Create the MongoDB indexes",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, log, err := setup(ctx)
		if err != nil {
			return err
		}
		client, db, err := connectMongo(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() { _ = client.Disconnect(ctx) }()

		if err := mongodb.EnsureIndexes(ctx, db); err != nil {
			return err
		}
		log.Info().Str("database", cfg.Mongo.Database).Msg("indexes created")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(indexesCmd)
}
