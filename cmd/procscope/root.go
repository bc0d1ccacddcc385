package procscope

import (
	"github.com/sarv/procscope/internal/procscope"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func init() {
	// windows only
	cobra.MousetrapHelpText = ""

	rootCmd.PersistentFlags().BoolVar(&Debug, "debug", false, "debug")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config dir")
	rootCmd.PersistentPreRun = initLog
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Err(err).Msg("command execution failed")
	}
}

var configPath string

var rootCmd = &cobra.Command{
	Use:     "procscope",
	Short:   "procscope",
	Long:    `procscope`,
	Example: `procscope`,
	Args:    cobra.MinimumNArgs(0),
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PreRun: initTuiLog,
	Run:    Root,
}

func Root(cmd *cobra.Command, args []string) {
	m := procscope.New()
	if err := m.Run(configPath); err != nil {
		log.Err(err).Msg("failed to run procscope instance")
	}
}
