package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Commit and Date are set at build time via -ldflags -X; Version lives in root.go.
var (
	Commit string
	Date   string
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("xremap %s\n", Version)
		fmt.Printf("commit: %s\n", Commit)
		fmt.Printf("built: %s\n", Date)
	},
}
