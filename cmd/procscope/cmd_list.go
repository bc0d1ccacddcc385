package procscope

import (
	"context"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/sarv/procscope/internal/monitor"
	"github.com/sarv/procscope/pkg/util"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringVarP(&listFilter, "filter", "f", "", "only show processes whose name contains this substring")
}

var listFilter string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List processes (one-shot enumeration)",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		table, err := monitor.NewSystemReader().ReadTable(ctx)
		if err != nil {
			log.Err(err).Msg("failed to read process table")
			return
		}

		filter := monitor.Target{Kind: monitor.MatchContains, Name: listFilter}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "PID\tPPID\tNAME\tCPU%\tMEM")
		for _, pid := range sortedPIDs(table) {
			row := table.Rows[pid]
			if listFilter != "" && !filter.Matches(row.Name, row.PID) {
				continue
			}
			fmt.Fprintf(w, "%d\t%d\t%s\t%.1f\t%s\n",
				row.PID, row.PPID, row.Name, row.CPUPercent, util.ByteCountSI(int64(row.MemoryRSS)))
		}
		w.Flush()
	},
}

func sortedPIDs(table *monitor.Table) []int32 {
	pids := make([]int32, 0, len(table.Rows))
	for pid := range table.Rows {
		pids = append(pids, pid)
	}
	sort.Slice(pids, func(i, j int) bool { return pids[i] < pids[j] })
	return pids
}
