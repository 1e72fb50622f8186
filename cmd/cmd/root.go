package cmd

import (
	"github.com/spf13/cobra"
)

const AppName = "exifedit"

func Execute() error {
	rootCmd := &cobra.Command{
		Use:   AppName,
		Short: AppName + " - image metadata inspection and editing tool",
	}

	rootCmd.PersistentFlags().String("log-level", "WARN", "Minimum log level (DEBUG, INFO, WARN, ERROR)")

	rootCmd.AddCommand(DefineDumpCommand())
	rootCmd.AddCommand(DefineSetCommand())
	rootCmd.AddCommand(DefineStripCommand())
	rootCmd.AddCommand(DefineThumbCommand())

	return rootCmd.Execute()
}
