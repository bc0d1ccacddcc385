package procscope

import (
	"github.com/sarv/procscope/internal/procscope"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(serverCmd)
	serverCmd.Flags().StringVarP(&serverAddr, "addr", "a", "", "server address")
	serverCmd.Flags().StringSliceVarP(&serverTargets, "target", "t", nil, "watch target, e.g. chrome / contains:chrome / pid:1234 / tree:pid:1234")
	serverCmd.Flags().StringVarP(&serverInterval, "interval", "i", "", "sampling interval, e.g. 500ms")
}

var (
	serverAddr     string
	serverTargets  []string
	serverInterval string
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start headless HTTP server",
	Run: func(cmd *cobra.Command, args []string) {
		cmdConf := map[string]any{}
		if serverAddr != "" {
			cmdConf["http_addr"] = serverAddr
		}
		if len(serverTargets) != 0 {
			cmdConf["targets"] = serverTargets
		}
		if serverInterval != "" {
			cmdConf["interval"] = serverInterval
		}

		m := procscope.New()
		if err := m.CommandServer(configPath, cmdConf); err != nil {
			log.Err(err).Msg("failed to start server")
			return
		}
	},
}
