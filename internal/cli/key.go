package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rcliao/agent-chat/internal/access"
)

func init() {
	keyCmd := &cobra.Command{
		Use:   "key",
		Short: "Print the current access key",
		Run:   runKey,
	}

	verifyCmd := &cobra.Command{
		Use:   "verify-key <key>",
		Short: "Check an access key against the current window",
		Args:  cobra.ExactArgs(1),
		Run:   runVerifyKey,
	}

	RootCmd.AddCommand(keyCmd, verifyCmd)
}

func keyer() access.Keyer {
	return access.Keyer{
		Prefix: cfg.Access.Prefix,
		Secret: cfg.Access.Secret,
		Window: cfg.Access.Window,
	}
}

func runKey(cmd *cobra.Command, args []string) {
	now := time.Now()
	k := keyer()
	if formatFlag == "text" {
		fmt.Println(k.Key(now))
		return
	}
	printJSON(map[string]any{
		"key":        k.Key(now),
		"expires_at": k.Expires(now).UTC().Format(time.RFC3339),
	})
}

func runVerifyKey(cmd *cobra.Command, args []string) {
	valid := keyer().Verify(args[0], time.Now())
	printJSON(map[string]bool{"valid": valid})
	if !valid {
		logger.Debug("access key rejected")
	}
}
