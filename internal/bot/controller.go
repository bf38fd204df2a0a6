package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/KlimSani4/hydrocalc/internal/calculator"
	"github.com/KlimSani4/hydrocalc/internal/logger"

	"golang.org/x/sync/semaphore"
)

// Update is one inbound event from a chat participant: either a text message
// or a button press (CallbackID set).
type Update struct {
	ParticipantID int64
	ChatID        int64
	Text          string
	CallbackID    string
	CallbackData  string
}

func (u Update) IsCallback() bool {
	return u.CallbackID != ""
}

// Transport delivers messages to the chat platform.
type Transport interface {
	Send(ctx context.Context, msg OutgoingMessage) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
}

type Controller struct {
	log         *logger.Logger
	transport   Transport
	remote      Calculator
	remoteSlots *semaphore.Weighted
	fallback    Calculator
	sessions    SessionStore
	history     HistoryStore
	now         func() time.Time
}

type Option func(*Controller)

// WithRemoteLimit caps concurrent remote calculations at n. A dialogue that
// finds every slot taken computes locally instead of waiting.
func WithRemoteLimit(n int64) Option {
	return func(c *Controller) {
		if n > 0 {
			c.remoteSlots = semaphore.NewWeighted(n)
		}
	}
}

func NewController(log *logger.Logger, transport Transport, remote Calculator, sessions SessionStore, history HistoryStore, opts ...Option) *Controller {
	c := &Controller{
		log:       log.With("component", "DialogueController"),
		transport: transport,
		remote:    remote,
		fallback:  LocalCalculator{},
		sessions:  sessions,
		history:   history,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Handle processes a single update. Updates from different participants may
// be handled concurrently.
func (c *Controller) Handle(ctx context.Context, u Update) error {
	if u.IsCallback() {
		return c.handleCallback(ctx, u)
	}
	if cmd, ok := command(u.Text); ok {
		return c.handleCommand(ctx, u, cmd)
	}
	session, ok := c.sessions.Get(u.ParticipantID)
	if !ok {
		return c.reply(ctx, u.ChatID, idleHint, nil)
	}
	return c.advance(ctx, u, session, TextInput(u.Text))
}

func (c *Controller) handleCallback(ctx context.Context, u Update) error {
	if err := c.transport.AnswerCallback(ctx, u.CallbackID, ""); err != nil {
		c.log.Warn("answer callback failed", "participant", u.ParticipantID, "error", err)
	}
	in, ok := ParseChoice(u.CallbackData)
	if !ok {
		return nil
	}
	session, ok := c.sessions.Get(u.ParticipantID)
	if !ok {
		return nil
	}
	return c.advance(ctx, u, session, in)
}

func (c *Controller) handleCommand(ctx context.Context, u Update, cmd string) error {
	switch cmd {
	case "start", "help":
		return c.reply(ctx, u.ChatID, helpText, nil)
	case "calculate":
		session := NewSession()
		c.sessions.Put(u.ParticipantID, session)
		text, kb := question(session.State)
		return c.reply(ctx, u.ChatID, text, kb)
	case "cancel":
		if _, ok := c.sessions.Get(u.ParticipantID); !ok {
			return c.reply(ctx, u.ChatID, nothingToStop, nil)
		}
		c.sessions.Delete(u.ParticipantID)
		return c.reply(ctx, u.ChatID, cancelledText, nil)
	case "history":
		return c.reply(ctx, u.ChatID, formatHistory(c.history.Recent(u.ParticipantID)), nil)
	}
	return c.reply(ctx, u.ChatID, helpText, nil)
}

func (c *Controller) advance(ctx context.Context, u Update, session Session, in Input) error {
	next, effect := Step(session, in)
	switch effect.Kind {
	case EffectPrompt:
		c.sessions.Put(u.ParticipantID, next)
		text, kb := question(next.State)
		return c.reply(ctx, u.ChatID, text, kb)
	case EffectReprompt:
		text, kb := question(session.State)
		return c.reply(ctx, u.ChatID, rejectText(effect.Reason)+"\n\n"+text, kb)
	case EffectCompute:
		c.sessions.Delete(u.ParticipantID)
		return c.finish(ctx, u, effect.Request)
	}
	return nil
}

func (c *Controller) finish(ctx context.Context, u Update, req calculator.Request) error {
	if err := c.reply(ctx, u.ChatID, calculatingMsg, nil); err != nil {
		c.log.Warn("send progress message failed", "participant", u.ParticipantID, "error", err)
	}

	res, local, err := c.compute(ctx, req)
	if err != nil {
		return fmt.Errorf("calculate for participant %d: %w", u.ParticipantID, err)
	}
	c.history.Append(u.ParticipantID, HistoryEntry{
		Request:     req,
		TotalWater:  res.TotalWater,
		TotalPeople: res.TotalPeople,
		Local:       local,
		At:          c.now(),
	})
	return c.reply(ctx, u.ChatID, formatResult(req, res, local), nil)
}

// compute asks the remote engine and falls back to the local formula when
// it is unavailable.
func (c *Controller) compute(ctx context.Context, req calculator.Request) (calculator.Result, bool, error) {
	res, err := c.computeRemote(ctx, req)
	if err == nil {
		return res, false, nil
	}
	if c.remote != nil {
		c.log.Warn("remote calculation unavailable, using local formula", "error", err)
	}
	res, err = c.fallback.Calculate(ctx, req)
	return res, true, err
}

var errRemoteBusy = errors.New("all remote calculation slots are busy")

func (c *Controller) computeRemote(ctx context.Context, req calculator.Request) (calculator.Result, error) {
	if c.remote == nil {
		return calculator.Result{}, ErrUpstreamUnavailable
	}
	if c.remoteSlots != nil {
		if !c.remoteSlots.TryAcquire(1) {
			return calculator.Result{}, errRemoteBusy
		}
		defer c.remoteSlots.Release(1)
	}
	return c.remote.Calculate(ctx, req)
}

func (c *Controller) reply(ctx context.Context, chatID int64, text string, kb [][]Button) error {
	return c.transport.Send(ctx, OutgoingMessage{ChatID: chatID, Text: text, Keyboard: kb})
}

// command extracts "calculate" from "/calculate" or "/calculate@SomeBot args".
func command(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", false
	}
	name := strings.Fields(text[1:])
	if len(name) == 0 {
		return "", false
	}
	cmd, _, _ := strings.Cut(name[0], "@")
	return strings.ToLower(cmd), true
}
