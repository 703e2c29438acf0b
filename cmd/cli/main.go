package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/fedstack/tensordb"
	"github.com/fedstack/tensordb/cli"
	"github.com/fedstack/tensordb/pkg/sdk"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "tensordb-cli",
		Short: "TensorDB CLI",
		Long:  `TensorDB CLI is a command line interface for operating the tensor store coordinator.`,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			cfg := tensordb.DefaultConfig()
			if configPath != "" {
				if _, err := os.Stat(configPath); err == nil {
					loaded, err := tensordb.LoadConfig(configPath)
					if err != nil {
						log.Fatal(err)
					}
					cfg = *loaded
				}
			}

			s := sdk.NewSDK(sdk.Config{
				CoordinatorURL:  cfg.Coordinator.URL,
				TLSVerification: cfg.Coordinator.TLSVerification,
			})
			cli.SetSDK(s)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.toml", "path to the TOML config file")

	rootCmd.AddCommand(cli.NewTensorsCmd())
	rootCmd.AddCommand(cli.NewHealthCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
