package cli

import (
	"github.com/spf13/cobra"

	"github.com/rcliao/agent-chat/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show memory store statistics",
		Run:   runStats,
	}

	RootCmd.AddCommand(cmd)
}

func runStats(cmd *cobra.Command, args []string) {
	s, err := openStore(cmd)
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	stats, err := store.StatsOf(cmd.Context(), s)
	if err != nil {
		exitErr("stats", err)
	}

	printJSON(stats)
}
