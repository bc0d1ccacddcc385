package procscope

import (
	"fmt"

	"github.com/sarv/procscope/pkg/version"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVarP(&versionVerbose, "verbose", "v", false, "include VCS information")
}

var versionVerbose bool
var versionCmd = &cobra.Command{
	Use:   "version [-v]",
	Short: "Show the version of procscope",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("procscope %s", version.GetMore(versionVerbose))
	},
}
