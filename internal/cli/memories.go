package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/agent-chat/internal/model"
	"github.com/rcliao/agent-chat/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "memories",
		Short: "List stored memories",
		Long:  "List memories newest first. Filter by role with -r and by end user with --owner.",
		Run:   runMemories,
	}

	cmd.Flags().StringP("role", "r", "", "Filter by role: user, assistant or meta")
	cmd.Flags().String("owner", "", "Filter by end-user ID")
	cmd.Flags().IntP("limit", "l", 200, "Max results")

	RootCmd.AddCommand(cmd)
}

func runMemories(cmd *cobra.Command, args []string) {
	role, _ := cmd.Flags().GetString("role")
	owner, _ := cmd.Flags().GetString("owner")
	limit, _ := cmd.Flags().GetInt("limit")

	if role != "" && !model.ValidRoles[model.Role(role)] {
		exitErr("invalid role", fmt.Errorf("%q is not one of user, assistant, meta", role))
	}

	s, err := openStore(cmd)
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	memories, err := store.List(cmd.Context(), s, store.ListParams{
		Role:    model.Role(role),
		OwnerID: owner,
		Limit:   limit,
	})
	if err != nil {
		exitErr("list", err)
	}

	if formatFlag == "text" {
		for _, m := range memories {
			fmt.Printf("%s  %-9s  %s\n", m.Time().Format("2006-01-02 15:04:05"), m.Role, m.Summary)
		}
		return
	}
	printJSON(memories)
}
