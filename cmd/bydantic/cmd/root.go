package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/khusmann/bydantic/pkg/config"
)

type contextKey string

const framingKey contextKey = "framing"

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "bydantic",
	Short: "bydantic - bitfield packet framing tools",
	Long: `bydantic works with framed binary packet streams: it can frame raw
packets into a stream, split a stream back into packets, and inspect the
result. The framing profile (delimiter, escape byte, escape map) comes from
a YAML config file and defaults to KISS framing.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		cfg := config.DefaultConfig()
		if configPath != "" {
			loaded, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			cfg = loaded
		}
		cmd.SetContext(context.WithValue(cmd.Context(), framingKey, cfg.Framing.Build()))
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a YAML config file (default: built-in KISS framing)")
}
