package main

import (
	"context"
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/ukydev/carclub/internal/db"
	"github.com/ukydev/carclub/internal/fleet"
	"github.com/ukydev/carclub/internal/models"
)

func newGenerateCmd() *cobra.Command {
	var (
		size      int
		pretty    bool
		fromMongo string
		database  string
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Print the generated fleet as JSON",
		Long: "Print the generated fleet as JSON. With --from-mongo the snapshot " +
			"last exported by serve is printed instead.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if size < 0 {
				return fmt.Errorf("size must not be negative: %d", size)
			}

			var vehicles []models.Vehicle
			if fromMongo != "" {
				ctx := context.Background()
				client, err := db.ConnectMongo(ctx, fromMongo)
				if err != nil {
					return err
				}
				defer func() {
					if err := client.Disconnect(ctx); err != nil {
						log.WithError(err).Warn("Failed to disconnect from MongoDB")
					}
				}()
				coll := &db.MongoFleetCollection{Collection: client.Database(database).Collection("vehicles")}
				if vehicles, err = db.LoadFleet(ctx, coll); err != nil {
					return err
				}
			} else {
				vehicles = fleet.Generate(size)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			if pretty {
				enc.SetIndent("", "  ")
			}
			return enc.Encode(vehicles)
		},
	}
	cmd.Flags().IntVar(&size, "size", 500, "number of vehicles")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "indent the output")
	cmd.Flags().StringVar(&fromMongo, "from-mongo", "", "MongoDB URI to read the exported snapshot from")
	cmd.Flags().StringVar(&database, "mongo-db", "carclub", "database holding the snapshot")
	return cmd
}
