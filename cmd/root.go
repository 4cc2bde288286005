package cmd

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	configPath string
	envFile    string
	rootCmd    = &cobra.Command{
		Use:   "bridge",
		Short: "Lending bridge to ZetaChain",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if envFile == "" {
				return nil
			}
			if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("failed to load %s: %w", envFile, err)
			}
			return nil
		},
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&configPath,
		"config",
		".",
		"Directory containing config.json",
	)
	rootCmd.PersistentFlags().StringVar(
		&envFile,
		"env",
		"",
		"Extra dotenv file loaded before the configuration",
	)
	viper.BindPFlag("config_path", rootCmd.PersistentFlags().Lookup("config"))
	rootCmd.AddCommand(serveCmd, encodeCmd, decodeCmd)
}
