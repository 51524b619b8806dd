// Package engine runs one reply cycle: classify the user text, retrieve
// relevant memories from the store, compose the reply and record the
// exchange.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/rcliao/agent-chat/internal/compose"
	"github.com/rcliao/agent-chat/internal/config"
	"github.com/rcliao/agent-chat/internal/keywords"
	"github.com/rcliao/agent-chat/internal/metrics"
	"github.com/rcliao/agent-chat/internal/model"
	"github.com/rcliao/agent-chat/internal/retrieval"
	"github.com/rcliao/agent-chat/internal/store"
)

// ErrUnknownModel is returned for a request naming a model outside the
// registry.
var ErrUnknownModel = errors.New("unknown model")

// Options are the runtime-swappable engine settings.
type Options struct {
	Policy       retrieval.Policy
	// ScanLimit caps the entries read for scoring; zero reads them all.
	ScanLimit    int
	RecordMeta   bool
	Markov       bool
	Assistant    string
	Backend      string
	Location     *time.Location
	DefaultModel string
	Models       []model.ModelInfo
}

// OptionsFromConfig extracts engine options from a loaded config.
func OptionsFromConfig(cfg config.Config) (Options, error) {
	var loc *time.Location
	if cfg.Assistant.Location != "" {
		l, err := time.LoadLocation(cfg.Assistant.Location)
		if err != nil {
			return Options{}, fmt.Errorf("load location: %w", err)
		}
		loc = l
	}
	return Options{
		Policy:       cfg.Retrieval.Policy,
		ScanLimit:    cfg.Retrieval.ScanLimit,
		RecordMeta:   cfg.Retrieval.RecordMeta,
		Markov:       cfg.Retrieval.Markov,
		Assistant:    cfg.Assistant.Name,
		Backend:      cfg.Assistant.Backend,
		Location:     loc,
		DefaultModel: cfg.Assistant.DefaultModel,
		Models:       cfg.Assistant.Models,
	}, nil
}

// Request is one chat turn.
type Request struct {
	// Messages is the chat history; the last user message is the input.
	Messages []model.Message
	// Text is used as the input when Messages holds no user message.
	Text        string
	System      string
	ModelID     string
	Temperature float64
	OwnerID     string
	// Rand drives the Markov sentence; nil means a fixed seed.
	Rand *rand.Rand
}

// Result is the outcome of a reply cycle.
type Result struct {
	Reply    string             `json:"reply"`
	Intent   compose.Intent     `json:"intent"`
	Keywords []string           `json:"keywords"`
	Memories []retrieval.Scored `json:"memories"`
	// Err joins retrieval and append failures. The reply is still valid.
	Err error `json:"-"`
}

// Engine composes replies against a memory store.
type Engine struct {
	store   store.Store
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	mu     sync.RWMutex
	opts   Options
	scorer retrieval.Scorer
}

// New creates an engine. logger and m may be nil.
func New(s store.Store, opts Options, logger *slog.Logger, m *metrics.Metrics) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{store: s, logger: logger, metrics: m, now: time.Now}
	if err := e.SetOptions(opts); err != nil {
		return nil, err
	}
	return e, nil
}

// SetOptions swaps the engine options. In-flight replies keep the options
// they started with.
func (e *Engine) SetOptions(opts Options) error {
	opts.Policy = opts.Policy.WithDefaults()
	if opts.ScanLimit < 0 {
		opts.ScanLimit = 0
	}
	if len(opts.Models) == 0 {
		opts.Models = model.DefaultModels
	}
	if opts.DefaultModel == "" {
		opts.DefaultModel = opts.Models[0].ID
	}
	scorer, err := retrieval.New(opts.Policy)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.opts = opts
	e.scorer = scorer
	return nil
}

// Options returns the current options.
func (e *Engine) Options() Options {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.opts
}

func (e *Engine) snapshot() (Options, retrieval.Scorer) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.opts, e.scorer
}

// ResolveModel returns the registry entry for id, or the default model when
// id is empty.
func (e *Engine) ResolveModel(id string) (model.ModelInfo, error) {
	opts := e.Options()
	return resolveModel(opts, id)
}

func resolveModel(opts Options, id string) (model.ModelInfo, error) {
	if id == "" {
		id = opts.DefaultModel
	}
	m, ok := model.FindModel(opts.Models, id)
	if !ok {
		return model.ModelInfo{}, fmt.Errorf("%w %q", ErrUnknownModel, id)
	}
	return m, nil
}

// Reply runs one reply cycle. The only hard error is an unknown model;
// store failures degrade the reply and are reported in Result.Err.
func (e *Engine) Reply(ctx context.Context, req Request) (*Result, error) {
	opts, scorer := e.snapshot()

	mdl, err := resolveModel(opts, req.ModelID)
	if err != nil {
		return nil, err
	}

	text := model.LastUserText(req.Messages)
	if text == "" {
		text = strings.TrimSpace(req.Text)
	}
	now := e.now()
	intent := compose.Classify(text)
	kw := keywords.Extract(text)

	res := &Result{Intent: intent, Keywords: kw}
	var errs []error

	// Retrieval reads a snapshot taken before this turn's appends so the
	// user's own message is never returned as context.
	var scored []retrieval.Scored
	if intent.NeedsRetrieval() {
		entries, err := e.store.ListRecent(ctx, opts.ScanLimit)
		if err != nil {
			e.logger.Warn("memory retrieval failed, replying without context", "err", err)
			e.metrics.RetrievalFailed()
			errs = append(errs, fmt.Errorf("list memories: %w", err))
		} else {
			scored = scorer.Score(retrieval.Query{Text: text, Keywords: kw}, entries, opts.Policy.Limit)
		}
	}
	res.Memories = retrieval.AboveFloor(scored, *opts.Policy.Floor)
	if res.Memories == nil {
		res.Memories = []retrieval.Scored{}
	}

	res.Reply = compose.Compose(text, scored, compose.Context{
		Assistant: opts.Assistant,
		Backend:   opts.Backend,
		ModelID:   mdl.ID,
		System:    req.System,
		Now:       now,
		Location:  opts.Location,
		Keywords:  kw,
		Floor:     *opts.Policy.Floor,
		Markov:    opts.Markov && opts.Policy.Strategy == retrieval.StrategyTFIDF,
		Rand:      req.Rand,
	})

	if text != "" {
		errs = append(errs, e.record(ctx, opts, text, kw, res.Reply, req.OwnerID, now)...)
	}

	res.Err = errors.Join(errs...)
	e.metrics.Reply(string(intent), len(res.Memories))
	e.logger.Debug("reply composed",
		"intent", intent,
		"model", mdl.ID,
		"temperature", req.Temperature,
		"keywords", kw,
		"scored", len(scored),
		"trusted", len(res.Memories),
	)
	return res, nil
}

// Recall scores the stored memories against text without composing a reply
// or recording anything. Unlike Reply, store failures are returned. limit
// overrides the policy limit when positive.
func (e *Engine) Recall(ctx context.Context, text string, limit int) ([]retrieval.Scored, error) {
	opts, scorer := e.snapshot()
	if limit <= 0 {
		limit = opts.Policy.Limit
	}
	entries, err := e.store.ListRecent(ctx, opts.ScanLimit)
	if err != nil {
		return nil, fmt.Errorf("list memories: %w", err)
	}
	scored := scorer.Score(retrieval.Query{Text: text, Keywords: keywords.Extract(text)}, entries, limit)
	if scored == nil {
		scored = []retrieval.Scored{}
	}
	return scored, nil
}

// record appends the user message, the optional meta keyword entry and the
// reply, in that order. Every append is attempted even after a failure.
func (e *Engine) record(ctx context.Context, opts Options, text string, kw []string, reply, owner string, now time.Time) []error {
	entries := []model.MemoryEntry{model.NewEntry(model.RoleUser, text, owner, now)}
	if opts.RecordMeta && len(kw) > 0 {
		entries = append(entries, model.NewEntry(model.RoleMeta, MetaText(text, kw), owner, now))
	}
	entries = append(entries, model.NewEntry(model.RoleAssistant, reply, owner, now))

	var errs []error
	for _, m := range entries {
		if _, err := e.store.Append(ctx, m); err != nil {
			e.logger.Warn("memory append failed", "role", m.Role, "err", err)
			e.metrics.AppendFailed()
			errs = append(errs, fmt.Errorf("append %s memory: %w", m.Role, err))
			continue
		}
		e.metrics.Appended(string(m.Role))
	}
	return errs
}

// MetaText renders the meta entry recorded alongside a user message.
func MetaText(text string, kw []string) string {
	return "keywords:" + strings.Join(kw, ", ") + " - from: " + model.Truncate(text, model.SummaryLen)
}
