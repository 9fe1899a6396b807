package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/powchain/ledgerd/common"
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display ledgerd version",
	Long:  `Display ledgerd version.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("ledgerd version", common.Version)
	},
}
