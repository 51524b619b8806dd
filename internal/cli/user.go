package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rcliao/agent-chat/internal/guard"
	"github.com/rcliao/agent-chat/internal/store"
)

func init() {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage end-user admin and ban flags",
	}

	adminCmd := &cobra.Command{
		Use:   "admin <uid>",
		Short: "Grant or revoke admin",
		Args:  cobra.ExactArgs(1),
		Run:   runUserAdmin,
	}
	adminCmd.Flags().Bool("revoke", false, "Revoke admin instead of granting it")
	adminCmd.Flags().String("email", "", "Email to record on the user")

	banCmd := &cobra.Command{
		Use:   "ban <uid>",
		Short: "Ban a user, permanently or for a duration",
		Args:  cobra.ExactArgs(1),
		Run:   runUserBan,
	}
	banCmd.Flags().Duration("for", 0, "Ban duration (default: until lifted)")
	banCmd.Flags().String("reason", "", "Ban reason")

	unbanCmd := &cobra.Command{
		Use:   "unban <uid>",
		Short: "Lift every ban and reactivate a user",
		Args:  cobra.ExactArgs(1),
		Run:   runUserUnban,
	}

	checkCmd := &cobra.Command{
		Use:   "check <uid>",
		Short: "Report whether a user is currently blocked",
		Args:  cobra.ExactArgs(1),
		Run:   runUserCheck,
	}

	userCmd.AddCommand(adminCmd, banCmd, unbanCmd, checkCmd)
	RootCmd.AddCommand(userCmd)
}

func updateUser(cmd *cobra.Command, uid string, fn func(*guard.User)) *guard.User {
	s, err := openSQLite(cmd)
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	u, err := s.UpdateUser(cmd.Context(), uid, fn)
	if err != nil {
		exitErr("update user", err)
	}
	return u
}

func runUserAdmin(cmd *cobra.Command, args []string) {
	revoke, _ := cmd.Flags().GetBool("revoke")
	email, _ := cmd.Flags().GetString("email")

	u := updateUser(cmd, args[0], func(u *guard.User) {
		u.Admin = !revoke
		if email != "" {
			u.Email = email
		}
	})
	printJSON(u)
}

func runUserBan(cmd *cobra.Command, args []string) {
	dur, _ := cmd.Flags().GetDuration("for")
	reason, _ := cmd.Flags().GetString("reason")
	if dur < 0 {
		exitErr("invalid duration", fmt.Errorf("--for must not be negative"))
	}

	now := time.Now().UTC()
	u := updateUser(cmd, args[0], func(u *guard.User) {
		ban := guard.Ban{Start: &now, Reason: reason}
		if dur > 0 {
			end := now.Add(dur)
			ban.End = &end
		} else {
			u.Banned = true
		}
		u.Bans = append(u.Bans, ban)
		u.ReactivatedAt = nil
	})
	logger.Info("user banned", "uid", u.UID, "until", banEnd(dur, now))
	printJSON(u)
}

func banEnd(dur time.Duration, now time.Time) string {
	if dur == 0 {
		return "lifted"
	}
	return now.Add(dur).Format(time.RFC3339)
}

func runUserUnban(cmd *cobra.Command, args []string) {
	now := time.Now().UTC()
	u := updateUser(cmd, args[0], func(u *guard.User) {
		*u = guard.Reactivate(*u, now)
	})
	logger.Info("user reactivated", "uid", u.UID)
	printJSON(u)
}

func runUserCheck(cmd *cobra.Command, args []string) {
	s, err := openSQLite(cmd)
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	u, err := s.GetUser(cmd.Context(), args[0])
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		exitErr("get user", err)
	}
	blocked := u != nil && guard.Blocked(*u, time.Now())

	printJSON(struct {
		UID     string      `json:"uid"`
		Blocked bool        `json:"blocked"`
		User    *guard.User `json:"user,omitempty"`
	}{args[0], blocked, u})
}
