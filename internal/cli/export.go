package cli

import (
	"github.com/spf13/cobra"

	"github.com/rcliao/agent-chat/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export memories as JSON",
		Long:  "Export every retained memory as a JSON array, oldest first. The output can be fed back to import.",
		Run:   runExport,
	}

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	s, err := openStore(cmd)
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	memories, err := store.ExportAll(cmd.Context(), s)
	if err != nil {
		exitErr("export", err)
	}

	printJSON(memories)
}
