// Package game implements the authoritative room state machine. Each Room runs
// a single goroutine that applies commands one at a time, so two players, or a
// player and a timer, can never mutate the same room concurrently.
package game

import (
	"context"
	"fmt"
	"sync"
	"time"

	"wordrush/internal/config"
	"wordrush/internal/content"
	"wordrush/internal/logger"
	"wordrush/internal/model"
	"wordrush/internal/scoring"
	"wordrush/internal/timer"

	"github.com/rs/zerolog"
)

const inboxSize = 256

// Broadcaster delivers a room's events to the connection bound to a session token
type Broadcaster interface {
	SendTo(token string, msg *model.Message)
}

// Observer is told about room changes. Calls are made from the room goroutine
// and must not call back into the room while blocking on it.
type Observer interface {
	RoomChanged(summary model.RoomSummary)
	RoomEvent(event model.RoomEvent)
	GameFinished(result model.GameResult)
}

// Options configure a new Room
type Options struct {
	Code        string
	Rules       config.GameConfig
	Settings    model.Settings
	Policy      scoring.Policy
	Content     content.Source
	Clock       timer.Clock
	Broadcaster Broadcaster
	Observer    Observer
}

// Room is one game instance
type Room struct {
	code    string
	rules   config.GameConfig
	policy  scoring.Policy
	content content.Source
	sched   *timer.Scheduler
	out     Broadcaster
	obs     Observer
	log     zerolog.Logger

	inbox     chan func()
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	// Everything below is owned by the run goroutine.
	state        model.GameState
	settings     model.Settings
	players      []*player
	round        *round
	cumulative   map[string]float64
	history      []model.RoundRecord
	usedLetters  []string
	results      *model.RoundResultsPayload
	gameOver     *model.GameOverPayload
	roundTimer   *timer.Handle
	scoringTimer *timer.Handle
	epoch        uint64
	emptySince   time.Time
}

// NewRoom creates a room in LOBBY and starts its goroutine
func NewRoom(opts Options) *Room {
	if opts.Policy == nil {
		opts.Policy = scoring.Nearest
	}
	if opts.Content == nil {
		opts.Content = content.DefaultDeck()
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	r := &Room{
		code:       opts.Code,
		rules:      opts.Rules,
		policy:     opts.Policy,
		content:    opts.Content,
		sched:      timer.NewScheduler(opts.Clock),
		out:        opts.Broadcaster,
		obs:        opts.Observer,
		log:        logger.With("room", opts.Code),
		inbox:      make(chan func(), inboxSize),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
		state:      model.StateLobby,
		settings:   config.Clamp(opts.Settings),
		cumulative: make(map[string]float64),
	}
	r.emptySince = r.sched.Now()
	go r.run()
	return r
}

// Code returns the room code
func (r *Room) Code() string { return r.code }

// Done is closed once the room goroutine has exited
func (r *Room) Done() <-chan struct{} { return r.done }

// Close stops the room without waiting for it. Pending timers are cancelled
// and later commands fail with ROOM_CLOSED.
func (r *Room) Close() {
	r.closeOnce.Do(func() { close(r.quit) })
}

// Sync waits until every command queued before it has been applied
func (r *Room) Sync(ctx context.Context) error {
	return r.do(ctx, func() error { return nil })
}

func (r *Room) run() {
	defer close(r.done)
	for {
		select {
		case cmd := <-r.inbox:
			cmd()
			r.obs.RoomChanged(r.summary())
		case <-r.quit:
			r.roundTimer.Cancel()
			r.scoringTimer.Cancel()
			return
		}
	}
}

// do runs fn on the room goroutine and waits for its result. ctx bounds only
// the wait for a queue slot: a queued command always runs, so once queued
// do waits for it to finish or for the room to stop.
func (r *Room) do(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	errc := make(chan error, 1)
	cmd := func() { errc <- r.safely(fn) }

	select {
	case r.inbox <- cmd:
	case <-r.quit:
		return model.ErrRoomClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-errc:
		return err
	case <-r.done:
		select {
		case err := <-errc:
			return err
		default:
			return model.ErrRoomClosed
		}
	}
}

// enqueue queues fn without waiting; used by timers
func (r *Room) enqueue(fn func()) {
	cmd := func() {
		_ = r.safely(func() error {
			fn()
			return nil
		})
	}
	select {
	case r.inbox <- cmd:
	case <-r.quit:
	}
}

func (r *Room) safely(fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error().Str("panic", fmt.Sprint(rec)).Msg("room command panicked")
			err = model.ErrInternal
		}
	}()
	return fn()
}

// schedule starts a countdown whose expiry runs fn on the room goroutine,
// provided no transition has happened since it was armed
func (r *Room) schedule(d time.Duration, fn func()) *timer.Handle {
	epoch := r.epoch
	return r.sched.Schedule(d, func() {
		r.enqueue(func() {
			if epoch != r.epoch {
				return
			}
			fn()
		})
	})
}

// advance invalidates every timer armed before it
func (r *Room) advance(state model.GameState) {
	r.epoch++
	r.roundTimer.Cancel()
	r.scoringTimer.Cancel()
	r.roundTimer = nil
	r.scoringTimer = nil
	r.state = state
}

func (r *Room) summary() model.RoomSummary {
	s := model.RoomSummary{
		Code:           r.code,
		State:          r.state,
		PlayerCount:    len(r.players),
		ConnectedCount: r.connectedCount(),
		MaxPlayers:     r.rules.MaxPlayers,
		EmptySince:     r.emptySince,
	}
	if h := r.host(); h != nil {
		s.HostName = h.name
	}
	return s
}

func (r *Room) event(t model.RoomEventType, data map[string]interface{}) {
	r.obs.RoomEvent(model.RoomEvent{
		Type:     t,
		RoomCode: r.code,
		At:       r.sched.Now(),
		Data:     data,
	})
}

type nopObserver struct{}

func (nopObserver) RoomChanged(model.RoomSummary) {}
func (nopObserver) RoomEvent(model.RoomEvent)     {}
func (nopObserver) GameFinished(model.GameResult) {}
