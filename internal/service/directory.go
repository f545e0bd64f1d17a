package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"wordrush/internal/config"
	"wordrush/internal/content"
	"wordrush/internal/game"
	"wordrush/internal/model"
	"wordrush/internal/scoring"
	"wordrush/internal/timer"

	"github.com/rs/zerolog/log"
)

const codeChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Sink receives room events and finished games for reporting
type Sink interface {
	RoomEvent(event model.RoomEvent)
	GameFinished(result model.GameResult)
}

// DirectoryOptions configure a Directory
type DirectoryOptions struct {
	Rules       config.GameConfig
	Policy      scoring.Policy
	Content     content.Source
	Clock       timer.Clock
	Broadcaster game.Broadcaster
	Sink        Sink
}

type listing struct {
	room    *game.Room
	summary model.RoomSummary
}

// Directory tracks every live room. Its lock covers only its own map; it
// never waits on a room while holding it.
type Directory struct {
	mu    sync.RWMutex
	rooms map[string]*listing

	rules   config.GameConfig
	policy  scoring.Policy
	content content.Source
	clock   timer.Clock
	out     game.Broadcaster
	sink    Sink

	hookMu   sync.RWMutex
	onChange func()
	onRemove []func(code string)
}

// NewDirectory creates an empty directory
func NewDirectory(opts DirectoryOptions) *Directory {
	if opts.Clock == nil {
		opts.Clock = timer.System
	}
	return &Directory{
		rooms:   make(map[string]*listing),
		rules:   opts.Rules,
		policy:  opts.Policy,
		content: opts.Content,
		clock:   opts.Clock,
		out:     opts.Broadcaster,
		sink:    opts.Sink,
	}
}

// OnChange registers fn to be called whenever the joinable listing changes
func (d *Directory) OnChange(fn func()) {
	d.hookMu.Lock()
	defer d.hookMu.Unlock()
	d.onChange = fn
}

// OnRemove registers fn to be called after a room is removed
func (d *Directory) OnRemove(fn func(code string)) {
	d.hookMu.Lock()
	defer d.hookMu.Unlock()
	d.onRemove = append(d.onRemove, fn)
}

// Create opens a new room in LOBBY
func (d *Directory) Create(precise *bool) (*game.Room, error) {
	settings := d.rules.Defaults
	if precise != nil {
		settings.PreciseScoring = *precise
	}

	d.mu.Lock()
	code, err := d.generateRoomCode()
	if err != nil {
		d.mu.Unlock()
		return nil, fmt.Errorf("failed to generate room code: %w", err)
	}
	room := game.NewRoom(game.Options{
		Code:        code,
		Rules:       d.rules,
		Settings:    settings,
		Policy:      d.policy,
		Content:     d.content,
		Clock:       d.clock,
		Broadcaster: d.out,
		Observer:    &roomObserver{dir: d, code: code},
	})
	d.rooms[code] = &listing{
		room: room,
		summary: model.RoomSummary{
			Code:       code,
			State:      model.StateLobby,
			MaxPlayers: d.rules.MaxPlayers,
			EmptySince: d.clock.Now(),
		},
	}
	d.mu.Unlock()

	log.Info().Str("room", code).Msg("room created")
	d.emit(model.RoomEvent{Type: model.EventRoomCreated, RoomCode: code, At: d.clock.Now()})
	return room, nil
}

// Get finds a room by code, case-insensitively
func (d *Directory) Get(code string) (*game.Room, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	l, ok := d.rooms[normalizeCode(code)]
	if !ok {
		return nil, false
	}
	return l.room, true
}

// List returns the joinable rooms, oldest code first
func (d *Directory) List() []model.GameListing {
	d.mu.RLock()
	out := make([]model.GameListing, 0, len(d.rooms))
	for _, l := range d.rooms {
		s := l.summary
		if !s.Joinable() {
			continue
		}
		out = append(out, model.GameListing{
			Code:        s.Code,
			HostName:    s.HostName,
			PlayerCount: s.PlayerCount,
			MaxPlayers:  s.MaxPlayers,
		})
	}
	d.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Len counts live rooms
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.rooms)
}

// Remove deletes a room and stops it
func (d *Directory) Remove(code, reason string) bool {
	d.mu.Lock()
	l, ok := d.rooms[code]
	if ok {
		delete(d.rooms, code)
	}
	d.mu.Unlock()
	if !ok {
		return false
	}

	l.room.Close()
	log.Info().Str("room", code).Str("reason", reason).Msg("room removed")
	d.emit(model.RoomEvent{
		Type:     model.EventRoomDeleted,
		RoomCode: code,
		At:       d.clock.Now(),
		Data:     map[string]interface{}{"reason": reason},
	})

	d.hookMu.RLock()
	hooks := d.onRemove
	d.hookMu.RUnlock()
	for _, fn := range hooks {
		fn(code)
	}
	if l.summary.Joinable() {
		d.changed()
	}
	return true
}

// Sweep removes rooms nobody has been connected to for the idle grace period
func (d *Directory) Sweep(now time.Time) int {
	var stale []string
	d.mu.RLock()
	for code, l := range d.rooms {
		s := l.summary
		if s.ConnectedCount == 0 && !s.EmptySince.IsZero() && now.Sub(s.EmptySince) >= d.rules.RoomIdleGrace {
			stale = append(stale, code)
		}
	}
	d.mu.RUnlock()

	for _, code := range stale {
		d.Remove(code, "idle")
	}
	return len(stale)
}

// Run sweeps on the configured interval until ctx is done
func (d *Directory) Run(ctx context.Context) {
	ticker := time.NewTicker(d.rules.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := d.Sweep(d.clock.Now()); n > 0 {
				log.Info().Int("removed", n).Msg("swept idle rooms")
			}
		}
	}
}

// Close stops every room
func (d *Directory) Close() {
	d.mu.Lock()
	rooms := d.rooms
	d.rooms = make(map[string]*listing)
	d.mu.Unlock()
	for _, l := range rooms {
		l.room.Close()
	}
}

// update stores a room's latest summary. A room with no players left is removed.
func (d *Directory) update(s model.RoomSummary) {
	d.mu.Lock()
	l, ok := d.rooms[s.Code]
	if !ok {
		d.mu.Unlock()
		return
	}
	prev := l.summary
	l.summary = s
	d.mu.Unlock()

	if s.PlayerCount == 0 {
		d.Remove(s.Code, "empty")
		return
	}
	if listingChanged(prev, s) {
		d.changed()
	}
}

func (d *Directory) changed() {
	d.hookMu.RLock()
	fn := d.onChange
	d.hookMu.RUnlock()
	if fn != nil {
		fn()
	}
}

func (d *Directory) emit(e model.RoomEvent) {
	if d.sink != nil {
		d.sink.RoomEvent(e)
	}
}

func listingChanged(prev, next model.RoomSummary) bool {
	if prev.Joinable() != next.Joinable() {
		return true
	}
	return next.Joinable() && (prev.PlayerCount != next.PlayerCount || prev.HostName != next.HostName)
}

// generateRoomCode must be called with mu held
func (d *Directory) generateRoomCode() (string, error) {
	codeLen := d.rules.RoomCodeLength

	for attempts := 0; attempts < 10; attempts++ {
		b := make([]byte, codeLen)
		if _, err := rand.Read(b); err != nil {
			return "", err
		}

		code := make([]byte, codeLen)
		for i := range code {
			code[i] = codeChars[int(b[i])%len(codeChars)]
		}
		codeStr := string(code)

		if _, exists := d.rooms[codeStr]; !exists {
			return codeStr, nil
		}
	}

	return "", fmt.Errorf("no free code after 10 attempts")
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// roomObserver routes one room's notifications back to the directory
type roomObserver struct {
	dir  *Directory
	code string
}

func (o *roomObserver) RoomChanged(s model.RoomSummary) { o.dir.update(s) }

func (o *roomObserver) RoomEvent(e model.RoomEvent) { o.dir.emit(e) }

func (o *roomObserver) GameFinished(res model.GameResult) {
	if o.dir.sink != nil {
		o.dir.sink.GameFinished(res)
	}
}
