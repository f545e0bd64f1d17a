package game

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"wordrush/internal/config"
	"wordrush/internal/model"
	"wordrush/internal/timer"

	"github.com/stretchr/testify/require"
)

// --- Broadcaster ---

type sent struct {
	token string
	msg   *model.Message
}

type recorder struct {
	mu   sync.Mutex
	msgs []sent
}

func (r *recorder) SendTo(token string, msg *model.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, sent{token: token, msg: msg})
}

// types lists the message types delivered to token, in order
func (r *recorder) types(token string) []model.MessageType {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.MessageType
	for _, s := range r.msgs {
		if s.token == token {
			out = append(out, s.msg.Type)
		}
	}
	return out
}

func (r *recorder) count(token string, t model.MessageType) int {
	n := 0
	for _, got := range r.types(token) {
		if got == t {
			n++
		}
	}
	return n
}

// last returns the most recent message of type t sent to token
func (r *recorder) last(token string, t model.MessageType) *model.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.msgs) - 1; i >= 0; i-- {
		if r.msgs[i].token == token && r.msgs[i].msg.Type == t {
			return r.msgs[i].msg
		}
	}
	return nil
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = nil
}

// --- Observer ---

type observer struct {
	mu        sync.Mutex
	summaries []model.RoomSummary
	events    []model.RoomEvent
	results   []model.GameResult
}

func (o *observer) RoomChanged(s model.RoomSummary) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.summaries = append(o.summaries, s)
}

func (o *observer) RoomEvent(e model.RoomEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, e)
}

func (o *observer) GameFinished(res model.GameResult) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.results = append(o.results, res)
}

func (o *observer) eventTypes() []model.RoomEventType {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []model.RoomEventType
	for _, e := range o.events {
		out = append(out, e.Type)
	}
	return out
}

// --- Content ---

type fixedSource struct {
	categories []string
}

func (s fixedSource) Letter(used []string) string {
	letters := "ABCDEFG"
	return string(letters[len(used)%len(letters)])
}

func (s fixedSource) Categories(n int) []string {
	if n > len(s.categories) {
		n = len(s.categories)
	}
	return s.categories[:n]
}

// --- Fixture ---

type fixture struct {
	t     *testing.T
	ctx   context.Context
	room  *Room
	clock *timer.FakeClock
	out   *recorder
	obs   *observer
}

func newFixture(t *testing.T, tweak ...func(*Options)) *fixture {
	t.Helper()
	rules := config.DefaultGame()
	rules.CategoriesPerRound = 2

	clock := timer.NewFakeClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	f := &fixture{
		t:     t,
		ctx:   context.Background(),
		clock: clock,
		out:   &recorder{},
		obs:   &observer{},
	}
	opts := Options{
		Code:        "ABCD",
		Rules:       rules,
		Settings:    rules.Defaults,
		Content:     fixedSource{categories: []string{"Animal", "City"}},
		Clock:       clock,
		Broadcaster: f.out,
		Observer:    f.obs,
	}
	for _, fn := range tweak {
		fn(&opts)
	}
	f.room = NewRoom(opts)
	t.Cleanup(f.room.Close)
	return f
}

func tok(id string) string { return "tok-" + id }

func cid(id string) string { return "conn-" + id }

func (f *fixture) join(ids ...string) {
	f.t.Helper()
	for _, id := range ids {
		require.NoError(f.t, f.room.Join(f.ctx, JoinRequest{PlayerID: id, Name: "name-" + id, Token: tok(id), ConnID: cid(id)}))
	}
}

func (f *fixture) sync() {
	f.t.Helper()
	require.NoError(f.t, f.room.Sync(f.ctx))
}

// advance moves the fake clock and waits for any timer commands to apply
func (f *fixture) advance(d time.Duration) {
	f.t.Helper()
	f.clock.Advance(d)
	f.sync()
}

func (f *fixture) state() model.GameState {
	f.t.Helper()
	s, err := f.room.Summary(f.ctx)
	require.NoError(f.t, err)
	return s.State
}

// hosts returns the ids of every player flagged as host
func (f *fixture) hosts() []string {
	f.t.Helper()
	players, err := f.room.Players(f.ctx)
	require.NoError(f.t, err)
	var out []string
	for _, p := range players {
		if p.IsHost {
			out = append(out, p.ID)
		}
	}
	return out
}

// startPlaying seats the players and starts the first round
func (f *fixture) startPlaying(ids ...string) {
	f.t.Helper()
	f.join(ids...)
	require.NoError(f.t, f.room.Start(f.ctx, ids[0], model.SettingsUpdate{}))
}

// toScoring plays a round where every player answers
func (f *fixture) toScoring(ids ...string) {
	f.t.Helper()
	f.startPlaying(ids...)
	for _, id := range ids {
		require.NoError(f.t, f.room.SubmitAnswers(f.ctx, id, map[string]string{"Animal": "a-" + id, "City": "c-" + id}))
	}
	require.Equal(f.t, model.StateScoring, f.state())
}

// scoreAll has every player rate every other answer the same
func (f *fixture) scoreAll(rating int, ids ...string) {
	f.t.Helper()
	for _, rater := range ids {
		scores := map[string]map[string]int{"Animal": {}, "City": {}}
		for _, target := range ids {
			scores["Animal"][target] = rating
			scores["City"][target] = rating
		}
		require.NoError(f.t, f.room.SubmitScores(f.ctx, rater, scores))
	}
}

func decode[T any](t *testing.T, msg *model.Message) T {
	t.Helper()
	require.NotNil(t, msg)
	var v T
	require.NoError(t, json.Unmarshal(msg.Payload, &v))
	return v
}
