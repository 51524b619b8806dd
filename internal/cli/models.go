package cli

import (
	"github.com/spf13/cobra"

	"github.com/rcliao/agent-chat/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List selectable models",
		Run:   runModels,
	}

	RootCmd.AddCommand(cmd)
}

func runModels(cmd *cobra.Command, args []string) {
	printJSON(struct {
		Provider         string            `json:"provider"`
		PremiumAvailable bool              `json:"premium_available"`
		DefaultModel     string            `json:"default_model"`
		Models           []model.ModelInfo `json:"models"`
	}{
		Provider:         cfg.Assistant.Backend,
		PremiumAvailable: cfg.Assistant.PremiumAvailable,
		DefaultModel:     cfg.Assistant.DefaultModel,
		Models:           cfg.Assistant.Models,
	})
}
