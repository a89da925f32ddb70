package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/ukydev/carclub/internal/config"
)

func newRootCmd(v *viper.Viper) *cobra.Command {
	root := &cobra.Command{
		Use:   "carclub",
		Short: "Car club marketplace service",
		Long:  "carclub serves a synthetic car rental fleet with filter, sort, postcode search, map and mock booking endpoints.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.LoadDotEnv()
		},
		SilenceUsage: true,
	}
	root.AddCommand(newServeCmd(v), newGenerateCmd())
	return root
}

func main() {
	if err := newRootCmd(viper.New()).Execute(); err != nil {
		log.WithError(err).Error("carclub exited")
		os.Exit(1)
	}
}
