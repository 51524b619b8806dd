package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rcliao/agent-chat/internal/config"
	"github.com/rcliao/agent-chat/internal/engine"
	"github.com/rcliao/agent-chat/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Chat interactively",
		Long:  "Read messages line by line from stdin and reply to each, keeping the conversation history. The config file is watched and reloaded while the session runs. Type /quit or send EOF to end.",
		Run:   runSession,
	}

	cmd.Flags().StringP("model", "m", "", "Model ID (default: assistant.default_model)")
	cmd.Flags().StringP("system", "s", "", "System prompt shown in the reply header")
	cmd.Flags().String("owner", "", "End-user ID (default: a new session UUID)")
	cmd.Flags().Int64("seed", 0, "Seed for related-thought sentences (default: time-based)")
	cmd.Flags().Bool("no-watch", false, "Do not reload the config file on change")

	RootCmd.AddCommand(cmd)
}

func runSession(cmd *cobra.Command, args []string) {
	modelID, _ := cmd.Flags().GetString("model")
	system, _ := cmd.Flags().GetString("system")
	owner, _ := cmd.Flags().GetString("owner")
	seed, _ := cmd.Flags().GetInt64("seed")
	noWatch, _ := cmd.Flags().GetBool("no-watch")

	sessionID := uuid.NewString()
	if owner == "" {
		owner = sessionID
	}

	s, err := openStore(cmd)
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	if err := checkOwner(cmd.Context(), s, owner); err != nil {
		exitErr("check user", err)
	}

	eng, err := newEngine(s, "", nil)
	if err != nil {
		exitErr("create engine", err)
	}
	if _, err := eng.ResolveModel(modelID); err != nil {
		exitErr("select model", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	log := logger.With("session", sessionID)
	log.Info("session started", "owner", owner, "driver", cfg.Store.Driver)

	g, ctx := errgroup.WithContext(ctx)
	path := getConfigPath()
	if _, err := os.Stat(path); err != nil {
		noWatch = true
	}
	if !noWatch {
		g.Go(func() error {
			return config.Watch(ctx, path, log, func(c config.Config) {
				opts, err := engine.OptionsFromConfig(c)
				if err == nil {
					err = eng.SetOptions(opts)
				}
				if err != nil {
					log.Warn("config reload not applied", "err", err)
				}
			})
		})
	}

	g.Go(func() error {
		defer stop()
		sess := &chatSession{
			eng:    eng,
			log:    log,
			rand:   newRand(seed),
			system: system,
			model:  modelID,
			owner:  owner,
		}
		return sess.run(ctx, os.Stdin, os.Stdout)
	})

	if err := g.Wait(); err != nil {
		exitErr("session", err)
	}
	log.Info("session ended")
}

type chatSession struct {
	eng     *engine.Engine
	log     *slog.Logger
	rand    *rand.Rand
	system  string
	model   string
	owner   string
	history []model.Message
}

// run reads one message per line from r and writes each reply to w.
func (c *chatSession) run(ctx context.Context, r io.Reader, w io.Writer) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	fmt.Fprint(w, "> ")
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			line = strings.TrimSpace(line)
			if line == "/quit" || line == "/exit" {
				return nil
			}
			if line == "" {
				fmt.Fprint(w, "> ")
				continue
			}
			reply, err := c.turn(ctx, line)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s\n\n> ", reply)
		}
	}
}

func (c *chatSession) turn(ctx context.Context, text string) (string, error) {
	c.history = append(c.history, model.Message{Role: string(model.RoleUser), Content: text})
	res, err := c.eng.Reply(ctx, engine.Request{
		Messages: c.history,
		System:   c.system,
		ModelID:  c.model,
		OwnerID:  c.owner,
		Rand:     c.rand,
	})
	if err != nil {
		return "", err
	}
	if res.Err != nil {
		c.log.Warn("reply degraded", "err", res.Err)
	}
	c.history = append(c.history, model.Message{Role: string(model.RoleAssistant), Content: res.Reply})
	return res.Reply, nil
}
