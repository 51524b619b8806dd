package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/agent-chat/internal/compose"
)

func init() {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Score memories against a query",
		Long:  "Rank stored memories against the query with the configured retrieval strategy, without replying or recording anything.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runSearch,
	}

	cmd.Flags().String("strategy", "", "Retrieval strategy override: overlap or tfidf")
	cmd.Flags().IntP("limit", "l", 20, "Max results")

	RootCmd.AddCommand(cmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	strategy, _ := cmd.Flags().GetString("strategy")
	limit, _ := cmd.Flags().GetInt("limit")
	query := strings.Join(args, " ")

	s, err := openStore(cmd)
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	eng, err := newEngine(s, strategy, nil)
	if err != nil {
		exitErr("create engine", err)
	}

	results, err := eng.Recall(cmd.Context(), query, limit)
	if err != nil {
		exitErr("search", err)
	}

	if formatFlag == "text" {
		for _, r := range results {
			fmt.Printf("%6.3f  %s\n", r.Score, compose.Bullet(r.Entry))
		}
		return
	}
	printJSON(results)
}

