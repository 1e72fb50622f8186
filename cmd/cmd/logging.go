package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/imgmeta/exifedit/internal/logger"
)

func newCommandLogger(cmd *cobra.Command) *logger.Logger {
	level, _ := cmd.Flags().GetString("log-level")
	return logger.New(os.Stderr, logger.ParseLevel(level))
}
