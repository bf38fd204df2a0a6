package bot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/KlimSani4/hydrocalc/internal/calculator"
	"github.com/KlimSani4/hydrocalc/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingTransport struct {
	mu       sync.Mutex
	sent     []OutgoingMessage
	answered []string
}

func (r *recordingTransport) Send(_ context.Context, msg OutgoingMessage) error {
	r.mu.Lock()
	r.sent = append(r.sent, msg)
	r.mu.Unlock()
	return nil
}

func (r *recordingTransport) AnswerCallback(_ context.Context, callbackID, _ string) error {
	r.mu.Lock()
	r.answered = append(r.answered, callbackID)
	r.mu.Unlock()
	return nil
}

func (r *recordingTransport) messages() []OutgoingMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]OutgoingMessage(nil), r.sent...)
}

func (r *recordingTransport) last(t *testing.T) OutgoingMessage {
	t.Helper()
	msgs := r.messages()
	require.NotEmpty(t, msgs)
	return msgs[len(msgs)-1]
}

// calcServer mimics POST /api/v1/calculate with the shared formula.
func calcServer(t *testing.T, status int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/api/v1/calculate" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		var req calculator.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusUnprocessableEntity)
			return
		}
		res, err := calculator.Calculate(req)
		if err != nil {
			w.WriteHeader(http.StatusUnprocessableEntity)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(res)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

type controllerEnv struct {
	ctrl      *Controller
	transport *recordingTransport
	sessions  *MemorySessionStore
	history   *MemoryHistoryStore
}

func newControllerEnv(remote Calculator) *controllerEnv {
	env := &controllerEnv{
		transport: &recordingTransport{},
		sessions:  NewMemorySessionStore(),
		history:   NewMemoryHistoryStore(DefaultHistorySize),
	}
	env.ctrl = NewController(logger.Nop(), env.transport, remote, env.sessions, env.history)
	env.ctrl.now = func() time.Time { return time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC) }
	return env
}

func text(participant int64, s string) Update {
	return Update{ParticipantID: participant, ChatID: participant, Text: s}
}

func press(participant int64, data string) Update {
	return Update{ParticipantID: participant, ChatID: participant, CallbackID: "cb-" + data, CallbackData: data}
}

// runDialogue walks one participant through a full calculation.
func runDialogue(t *testing.T, ctrl *Controller, participant int64, counts [4]string, season, activity string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, ctrl.Handle(ctx, text(participant, "/calculate")))
	for _, n := range counts {
		require.NoError(t, ctrl.Handle(ctx, text(participant, n)))
	}
	require.NoError(t, ctrl.Handle(ctx, press(participant, "season:"+season)))
	require.NoError(t, ctrl.Handle(ctx, press(participant, "activity:"+activity)))
}

func TestController_FullDialogueUsesRemote(t *testing.T) {
	srv, calls := calcServer(t, http.StatusOK)
	env := newControllerEnv(NewRemoteCalculator(srv.URL, 2*time.Second))

	runDialogue(t, env.ctrl, 7, [4]string{"10", "10", "10", "5"}, "warm", "trip")

	assert.Equal(t, int32(1), calls.Load())
	_, ok := env.sessions.Get(7)
	assert.False(t, ok, "session ends after the result")

	result := env.transport.last(t).Text
	assert.Contains(t, result, "174.85")
	assert.Contains(t, result, "35")
	assert.NotContains(t, result, "локальный")

	entries := env.history.Recent(7)
	require.Len(t, entries, 1)
	assert.Equal(t, 174.85, entries[0].TotalWater)
	assert.Equal(t, 35, entries[0].TotalPeople)
	assert.False(t, entries[0].Local)

	env.transport.mu.Lock()
	assert.Equal(t, []string{"cb-season:warm", "cb-activity:trip"}, env.transport.answered)
	env.transport.mu.Unlock()
}

func TestController_QuestionsCarryKeyboards(t *testing.T) {
	env := newControllerEnv(LocalCalculator{})
	ctx := context.Background()

	require.NoError(t, env.ctrl.Handle(ctx, text(1, "/calculate")))
	assert.Empty(t, env.transport.last(t).Keyboard)

	for i := 0; i < 4; i++ {
		require.NoError(t, env.ctrl.Handle(ctx, text(1, "1")))
	}
	kb := env.transport.last(t).Keyboard
	require.Len(t, kb, 1)
	require.Len(t, kb[0], 2)
	assert.Equal(t, "season:cold", kb[0][0].Data)
	assert.Equal(t, "season:warm", kb[0][1].Data)

	require.NoError(t, env.ctrl.Handle(ctx, press(1, "season:cold")))
	kb = env.transport.last(t).Keyboard
	require.Len(t, kb, 3)
	assert.Equal(t, "activity:normal", kb[0][0].Data)
	assert.Equal(t, "activity:sport", kb[1][0].Data)
	assert.Equal(t, "activity:trip", kb[2][0].Data)
}

func TestController_FallsBackToLocal(t *testing.T) {
	down := httptest.NewServer(http.NotFoundHandler())
	downURL := down.URL
	down.Close()

	failing, _ := calcServer(t, http.StatusInternalServerError)

	for name, remote := range map[string]Calculator{
		"unreachable":  NewRemoteCalculator(downURL, time.Second),
		"server error": NewRemoteCalculator(failing.URL, time.Second),
		"no remote":    nil,
	} {
		t.Run(name, func(t *testing.T) {
			env := newControllerEnv(remote)
			runDialogue(t, env.ctrl, 3, [4]string{"10", "5", "3", "2"}, "cold", "normal")

			result := env.transport.last(t).Text
			assert.Contains(t, result, "36.20")
			assert.Contains(t, result, "локальный")

			entries := env.history.Recent(3)
			require.Len(t, entries, 1)
			assert.True(t, entries[0].Local)
			assert.Equal(t, 36.2, entries[0].TotalWater)
		})
	}
}

func TestController_RejectsBadNumberAndKeepsState(t *testing.T) {
	env := newControllerEnv(LocalCalculator{})
	ctx := context.Background()

	require.NoError(t, env.ctrl.Handle(ctx, text(1, "/calculate")))
	require.NoError(t, env.ctrl.Handle(ctx, text(1, "десять")))

	assert.True(t, strings.HasPrefix(env.transport.last(t).Text, notANumberMsg))
	s, ok := env.sessions.Get(1)
	require.True(t, ok)
	assert.Equal(t, StateCollectingJunior, s.State)

	require.NoError(t, env.ctrl.Handle(ctx, text(1, "-3")))
	s, _ = env.sessions.Get(1)
	assert.Equal(t, StateCollectingJunior, s.State)

	require.NoError(t, env.ctrl.Handle(ctx, text(1, "5000000")))
	assert.True(t, strings.HasPrefix(env.transport.last(t).Text, tooLargeMsg))
	s, _ = env.sessions.Get(1)
	assert.Equal(t, StateCollectingJunior, s.State)

	require.NoError(t, env.ctrl.Handle(ctx, text(1, "4")))
	s, _ = env.sessions.Get(1)
	assert.Equal(t, StateCollectingMiddle, s.State)
	assert.Equal(t, 4, s.Request.JuniorCount)
}

func TestController_TextInsteadOfButton(t *testing.T) {
	env := newControllerEnv(LocalCalculator{})
	ctx := context.Background()

	require.NoError(t, env.ctrl.Handle(ctx, text(1, "/calculate")))
	for i := 0; i < 4; i++ {
		require.NoError(t, env.ctrl.Handle(ctx, text(1, "0")))
	}
	require.NoError(t, env.ctrl.Handle(ctx, text(1, "warm")))

	last := env.transport.last(t)
	assert.True(t, strings.HasPrefix(last.Text, useButtonsMsg))
	assert.NotEmpty(t, last.Keyboard)
	s, _ := env.sessions.Get(1)
	assert.Equal(t, StateCollectingSeason, s.State)
}

func TestController_StaleButtonIsIgnored(t *testing.T) {
	env := newControllerEnv(LocalCalculator{})
	ctx := context.Background()

	require.NoError(t, env.ctrl.Handle(ctx, press(1, "season:cold")))
	assert.Empty(t, env.transport.messages())

	env.transport.mu.Lock()
	assert.Equal(t, []string{"cb-season:cold"}, env.transport.answered, "callbacks are always acknowledged")
	env.transport.mu.Unlock()
}

func TestController_Commands(t *testing.T) {
	env := newControllerEnv(LocalCalculator{})
	ctx := context.Background()

	require.NoError(t, env.ctrl.Handle(ctx, text(1, "/start")))
	assert.Equal(t, helpText, env.transport.last(t).Text)

	require.NoError(t, env.ctrl.Handle(ctx, text(1, "/help@HydroCalcBot")))
	assert.Equal(t, helpText, env.transport.last(t).Text)

	require.NoError(t, env.ctrl.Handle(ctx, text(1, "hello")))
	assert.Equal(t, idleHint, env.transport.last(t).Text)

	require.NoError(t, env.ctrl.Handle(ctx, text(1, "/cancel")))
	assert.Equal(t, nothingToStop, env.transport.last(t).Text)

	require.NoError(t, env.ctrl.Handle(ctx, text(1, "/calculate")))
	require.NoError(t, env.ctrl.Handle(ctx, text(1, "/cancel")))
	assert.Equal(t, cancelledText, env.transport.last(t).Text)
	_, ok := env.sessions.Get(1)
	assert.False(t, ok)

	require.NoError(t, env.ctrl.Handle(ctx, text(1, "/history")))
	assert.Contains(t, env.transport.last(t).Text, "У вас пока нет сохранённых расчётов")

	require.NoError(t, env.ctrl.Handle(ctx, text(1, "/unknown")))
	assert.Equal(t, helpText, env.transport.last(t).Text)
}

func TestController_RestartDiscardsSession(t *testing.T) {
	env := newControllerEnv(LocalCalculator{})
	ctx := context.Background()

	require.NoError(t, env.ctrl.Handle(ctx, text(1, "/calculate")))
	require.NoError(t, env.ctrl.Handle(ctx, text(1, "9")))
	require.NoError(t, env.ctrl.Handle(ctx, text(1, "/calculate")))

	s, ok := env.sessions.Get(1)
	require.True(t, ok)
	assert.Equal(t, StateCollectingJunior, s.State)
	assert.Zero(t, s.Request.JuniorCount)
}

func TestController_HistoryKeepsFiveNewestFirst(t *testing.T) {
	env := newControllerEnv(LocalCalculator{})
	for i := 1; i <= 6; i++ {
		runDialogue(t, env.ctrl, 1, [4]string{"0", "0", "0", strconv.Itoa(10 + i)}, "cold", "normal")
	}

	entries := env.history.Recent(1)
	require.Len(t, entries, 5)
	assert.Equal(t, 16, entries[0].TotalPeople)
	assert.Equal(t, 12, entries[4].TotalPeople)

	require.NoError(t, env.ctrl.Handle(context.Background(), text(1, "/history")))
	out := env.transport.last(t).Text
	assert.Contains(t, out, "<b>1.</b>")
	assert.Contains(t, out, "<b>5.</b>")
	assert.NotContains(t, out, "<b>6.</b>")
	assert.Less(t, strings.Index(out, "16 чел."), strings.Index(out, "12 чел."))

	assert.Empty(t, env.history.Recent(2))
}

func TestCommand(t *testing.T) {
	cases := map[string]string{
		"/calculate":          "calculate",
		"  /History  ":        "history",
		"/start@HydroCalcBot": "start",
		"/cancel now please":  "cancel",
	}
	for in, want := range cases {
		got, ok := command(in)
		require.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	for _, in := range []string{"", "calculate", "/", "/   "} {
		_, ok := command(in)
		assert.False(t, ok, in)
	}
}
