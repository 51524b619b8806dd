package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/rcliao/agent-chat/internal/engine"
	"github.com/rcliao/agent-chat/internal/guard"
	"github.com/rcliao/agent-chat/internal/metrics"
	"github.com/rcliao/agent-chat/internal/retrieval"
	"github.com/rcliao/agent-chat/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Reply to one message",
		Long:  "Compose a reply to a message and remember the exchange. The message comes from the arguments, or from stdin when none are given. With --messages, stdin is read as a JSON array of {role, content} chat history.",
		Run:   runChat,
	}

	cmd.Flags().StringP("model", "m", "", "Model ID (default: assistant.default_model)")
	cmd.Flags().StringP("system", "s", "", "System prompt shown in the reply header")
	cmd.Flags().String("owner", "", "End-user ID recorded on the memories")
	cmd.Flags().Float64("temperature", 0.7, "Sampling temperature (recorded only)")
	cmd.Flags().String("strategy", "", "Retrieval strategy override: overlap or tfidf")
	cmd.Flags().Int64("seed", 0, "Seed for the related-thought sentence (default: time-based)")
	cmd.Flags().Bool("messages", false, "Read a JSON chat history from stdin")
	cmd.Flags().Bool("metrics", false, "Print Prometheus metrics to stderr after replying")

	RootCmd.AddCommand(cmd)
}

func runChat(cmd *cobra.Command, args []string) {
	modelID, _ := cmd.Flags().GetString("model")
	system, _ := cmd.Flags().GetString("system")
	owner, _ := cmd.Flags().GetString("owner")
	temperature, _ := cmd.Flags().GetFloat64("temperature")
	strategy, _ := cmd.Flags().GetString("strategy")
	seed, _ := cmd.Flags().GetInt64("seed")
	fromHistory, _ := cmd.Flags().GetBool("messages")
	showMetrics, _ := cmd.Flags().GetBool("metrics")

	req := engine.Request{
		System:      system,
		ModelID:     modelID,
		Temperature: temperature,
		OwnerID:     owner,
		Rand:        newRand(seed),
	}

	switch {
	case fromHistory:
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			exitErr("read stdin", err)
		}
		if err := json.Unmarshal(data, &req.Messages); err != nil {
			exitErr("parse messages", err)
		}
	case len(args) > 0:
		req.Text = strings.Join(args, " ")
	default:
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			exitErr("read stdin", err)
		}
		req.Text = string(data)
	}

	s, err := openStore(cmd)
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	if err := checkOwner(cmd.Context(), s, owner); err != nil {
		exitErr("check user", err)
	}

	reg := prometheus.NewRegistry()
	eng, err := newEngine(s, strategy, metrics.New(reg))
	if err != nil {
		exitErr("create engine", err)
	}

	res, err := eng.Reply(cmd.Context(), req)
	if err != nil {
		exitErr("reply", err)
	}
	if res.Err != nil {
		logger.Warn("reply degraded", "err", res.Err)
	}

	printResult(res)

	if showMetrics {
		if err := writeMetrics(reg, os.Stderr); err != nil {
			exitErr("write metrics", err)
		}
	}
}

func newEngine(s store.Store, strategy string, m *metrics.Metrics) (*engine.Engine, error) {
	opts, err := engine.OptionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	if strategy != "" {
		st, err := retrieval.ParseStrategy(strategy)
		if err != nil {
			return nil, err
		}
		opts.Policy.Strategy = st
		opts.Policy.Floor = nil
	}
	return engine.New(s, opts, logger, m)
}

func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// checkOwner refuses service to blocked users. Only the SQLite store keeps
// user records; other stores skip the check.
func checkOwner(ctx context.Context, s store.Store, uid string) error {
	sq, ok := s.(*store.SQLiteStore)
	if uid == "" || !ok {
		return nil
	}
	u, err := sq.GetUser(ctx, uid)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if guard.Blocked(*u, time.Now()) {
		return fmt.Errorf("user %s is banned", uid)
	}
	return nil
}

func printResult(res *engine.Result) {
	if formatFlag == "text" {
		fmt.Println(res.Reply)
		return
	}
	out := struct {
		*engine.Result
		Error string `json:"error,omitempty"`
	}{Result: res}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}
	printJSON(out)
}

func writeMetrics(g prometheus.Gatherer, w io.Writer) error {
	mfs, err := g.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range mfs {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}

