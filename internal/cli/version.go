package cli

import (
	"github.com/spf13/cobra"
)

// Version 构建时通过 -ldflags 覆盖
var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the bookqa version",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("bookqa %s\n", Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
