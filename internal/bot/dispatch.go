package bot

import (
	"context"
	"sync"

	"github.com/KlimSani4/hydrocalc/internal/logger"

	"golang.org/x/sync/errgroup"
)

// Handler processes one update.
type Handler interface {
	Handle(ctx context.Context, u Update) error
}

// Dispatch feeds updates to h until updates is closed or ctx is done.
// Updates of one participant are handled in arrival order, one at a time;
// different participants run in parallel and the receive loop never waits
// for a busy handler. Handler errors are logged and never stop the loop.
func Dispatch(ctx context.Context, log *logger.Logger, updates <-chan Update, h Handler) error {
	var g errgroup.Group
	queues := newParticipantQueues()

	defer g.Wait()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case u, ok := <-updates:
			if !ok {
				return g.Wait()
			}
			if !queues.push(u) {
				continue
			}
			g.Go(func() error {
				for next, ok := u, true; ok; next, ok = queues.pop(u.ParticipantID) {
					if err := h.Handle(ctx, next); err != nil {
						log.Error("handle update failed",
							"participant", next.ParticipantID,
							"chat", next.ChatID,
							"error", err,
						)
					}
				}
				return nil
			})
		}
	}
}

// participantQueues holds updates waiting behind a running handler. A key is
// present exactly while a goroutine is draining that participant.
type participantQueues struct {
	mu      sync.Mutex
	pending map[int64][]Update
}

func newParticipantQueues() *participantQueues {
	return &participantQueues{pending: make(map[int64][]Update)}
}

// push reports whether the caller must start a drain goroutine for u. When
// one is already running, u is queued behind it.
func (q *participantQueues) push(u Update) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if waiting, running := q.pending[u.ParticipantID]; running {
		q.pending[u.ParticipantID] = append(waiting, u)
		return false
	}
	q.pending[u.ParticipantID] = nil
	return true
}

// pop returns the next queued update, or releases the participant when the
// queue is empty.
func (q *participantQueues) pop(participantID int64) (Update, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	waiting := q.pending[participantID]
	if len(waiting) == 0 {
		delete(q.pending, participantID)
		return Update{}, false
	}
	next := waiting[0]
	q.pending[participantID] = waiting[1:]
	return next, true
}
