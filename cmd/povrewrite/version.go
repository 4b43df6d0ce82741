package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/povrewrite"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of povrewrite",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("povrewrite version %s\n", strings.TrimSpace(povrewrite.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
