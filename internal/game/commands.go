package game

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"wordrush/internal/config"
	"wordrush/internal/model"
	"wordrush/internal/scoring"
)

// MaxAnswerLength caps a single answer, in runes
const MaxAnswerLength = 64

// JoinRequest seats a new player
type JoinRequest struct {
	PlayerID string
	Name     string
	Token    string
	ConnID   string
}

// Join seats a player in the lobby. The first player becomes host.
func (r *Room) Join(ctx context.Context, req JoinRequest) error {
	return r.do(ctx, func() error {
		if r.state != model.StateLobby {
			return model.ErrRoomNotJoinable
		}
		if len(r.players) >= r.rules.MaxPlayers {
			return model.ErrRoomFull
		}
		if r.find(req.PlayerID) != nil {
			return model.ErrAlreadyInRoom
		}

		p := &player{
			id:        req.PlayerID,
			name:      req.Name,
			token:     req.Token,
			conn:      req.ConnID,
			connected: true,
			isHost:    len(r.players) == 0,
		}
		r.players = append(r.players, p)
		r.emptySince = time.Time{}

		r.log.Info().Str("player", p.id).Str("name", p.name).Bool("host", p.isHost).Msg("player joined")
		r.event(model.EventPlayerJoined, map[string]interface{}{
			"player_id": p.id,
			"name":      p.name,
		})
		r.sendTo(p, r.lobbyUpdate(p, true))
		r.broadcast(r.lobbyUpdate(nil, false), p.id)
		return nil
	})
}

// UpdateSettings changes room settings; host only, lobby only
func (r *Room) UpdateSettings(ctx context.Context, playerID string, u model.SettingsUpdate) error {
	return r.do(ctx, func() error {
		if _, err := r.hostMember(playerID); err != nil {
			return err
		}
		if r.state != model.StateLobby {
			return model.WrongState("settings can only change in the lobby")
		}
		r.settings = config.Apply(r.settings, u)
		r.broadcast(r.lobbyUpdate(nil, false), "")
		return nil
	})
}

// Start begins the first round, applying any settings given first
func (r *Room) Start(ctx context.Context, playerID string, u model.SettingsUpdate) error {
	return r.do(ctx, func() error {
		if _, err := r.hostMember(playerID); err != nil {
			return err
		}
		if r.state != model.StateLobby {
			return model.WrongState("game already started")
		}
		if r.connectedCount() < r.rules.MinPlayers {
			return model.ErrNotEnoughPlayers
		}
		if !u.Empty() {
			r.settings = config.Apply(r.settings, u)
		}
		r.startRound()
		return nil
	})
}

// SubmitAnswers records a player's answers for the current round. Only the
// first submission counts.
func (r *Room) SubmitAnswers(ctx context.Context, playerID string, answers map[string]string) error {
	return r.do(ctx, func() error {
		p, err := r.member(playerID)
		if err != nil {
			return err
		}
		if r.state != model.StatePlaying {
			return model.WrongState("round is not running")
		}
		if p.submittedAnswers {
			return model.ErrAlreadySubmitted
		}

		clean := make(map[string]string, len(r.round.categories))
		for cat, text := range answers {
			if !r.round.hasCategory(cat) {
				continue
			}
			clean[cat] = trimAnswer(text)
		}
		r.round.answers[p.id] = clean
		p.submittedAnswers = true
		r.log.Debug().Str("player", p.id).Int("answers", len(clean)).Msg("answers submitted")

		if r.allAnswered() {
			r.endRound(model.EndAllSubmitted)
			return nil
		}
		r.rush(p)
		return nil
	})
}

// SubmitScores records a player's ratings of the others' answers, keyed
// category -> rated player -> rating. Self-ratings and unknown keys are dropped.
func (r *Room) SubmitScores(ctx context.Context, playerID string, scores map[string]map[string]int) error {
	return r.do(ctx, func() error {
		p, err := r.member(playerID)
		if err != nil {
			return err
		}
		if r.state != model.StateScoring {
			return model.WrongState("scoring is not open")
		}
		if p.submittedScores {
			return model.ErrAlreadySubmitted
		}
		for _, byPlayer := range scores {
			for _, rating := range byPlayer {
				if rating < scoring.MinRating || rating > scoring.MaxRating {
					return model.Invalid("ratings must be 0, 1 or 2")
				}
			}
		}

		for cat, byPlayer := range scores {
			if !r.round.hasCategory(cat) {
				continue
			}
			for target, rating := range byPlayer {
				if target == p.id || r.find(target) == nil {
					continue
				}
				if r.round.ratings[target] == nil {
					r.round.ratings[target] = make(map[string]map[string]int)
				}
				if r.round.ratings[target][cat] == nil {
					r.round.ratings[target][cat] = make(map[string]int)
				}
				r.round.ratings[target][cat][p.id] = rating
			}
		}
		p.submittedScores = true

		r.broadcast(model.NewMessage(model.MsgScoringUpdate, model.ScoringUpdatePayload{
			PlayerID:       p.id,
			SubmittedCount: r.scoredCount(),
			ConnectedCount: r.connectedCount(),
		}), "")

		if r.allScored() {
			r.finishScoring(false)
		}
		return nil
	})
}

// NextRound starts the following round from the results screen
func (r *Room) NextRound(ctx context.Context, playerID string) error {
	return r.do(ctx, func() error {
		if _, err := r.hostMember(playerID); err != nil {
			return err
		}
		if r.state != model.StateRoundResults {
			return model.WrongState("round results are not showing")
		}
		if r.round.number >= r.rules.RoundTotal {
			return model.ErrFinalRound
		}
		if r.connectedCount() < r.rules.MinPlayers {
			return model.ErrNotEnoughPlayers
		}
		r.startRound()
		return nil
	})
}

// EndGame moves to the final results
func (r *Room) EndGame(ctx context.Context, playerID string) error {
	return r.do(ctx, func() error {
		if _, err := r.hostMember(playerID); err != nil {
			return err
		}
		if r.state != model.StateRoundResults {
			return model.WrongState("the game can only end from round results")
		}
		r.finishGame()
		return nil
	})
}

// Leave removes a player for good
func (r *Room) Leave(ctx context.Context, playerID string) error {
	return r.do(ctx, func() error {
		p, err := r.member(playerID)
		if err != nil {
			return err
		}
		r.remove(p.id)
		delete(r.cumulative, p.id)
		if r.round != nil && r.state == model.StatePlaying {
			delete(r.round.answers, p.id)
			delete(r.round.ratings, p.id)
		}
		r.log.Info().Str("player", p.id).Msg("player left")
		r.event(model.EventPlayerLeft, map[string]interface{}{
			"player_id":   p.id,
			"intentional": true,
		})
		if len(r.players) == 0 {
			r.emptySince = r.sched.Now()
			r.advance(r.state)
			return nil
		}

		r.departed(p, true)
		r.broadcast(r.lobbyUpdate(nil, false), "")
		return nil
	})
}

// Disconnect marks a player's connection as gone; the seat is kept. A
// disconnect from a connection the player has since replaced is ignored.
func (r *Room) Disconnect(ctx context.Context, playerID, connID string) error {
	return r.do(ctx, func() error {
		p, err := r.member(playerID)
		if err != nil {
			return err
		}
		if !p.connected || p.conn != connID {
			return nil
		}
		p.connected = false
		r.log.Info().Str("player", p.id).Msg("player disconnected")
		r.departed(p, false)
		return nil
	})
}

// departed tells the room a player went away, moves the host role if needed
// and lets the round advance if the player was the last one outstanding
func (r *Room) departed(p *player, intentional bool) {
	if r.connectedCount() == 0 {
		r.emptySince = r.sched.Now()
	}
	r.broadcast(model.NewMessage(model.MsgPlayerDisconnected, model.PlayerDisconnectedPayload{
		PlayerID:          p.id,
		PlayerName:        p.name,
		LeftIntentionally: intentional,
		ConnectedCount:    r.connectedCount(),
		SubmittedCount:    r.progressCount(),
	}), p.id)
	r.announceHost()
	r.checkProgress()
}

// Reconnect binds a returning player back into the room and sends them a
// snapshot of the current state
func (r *Room) Reconnect(ctx context.Context, playerID, connID string) error {
	return r.do(ctx, func() error {
		p := r.find(playerID)
		if p == nil {
			return model.ErrSessionExpired
		}
		returning := !p.connected
		p.connected = true
		p.conn = connID
		r.emptySince = time.Time{}

		if returning {
			r.log.Info().Str("player", p.id).Msg("player reconnected")
			r.broadcast(model.NewMessage(model.MsgPlayerReconnected, model.PlayerReconnectedPayload{
				PlayerID:       p.id,
				PlayerName:     p.name,
				ConnectedCount: r.connectedCount(),
				SubmittedCount: r.progressCount(),
			}), p.id)
			r.announceHost()
		}
		r.sendTo(p, model.NewMessage(model.MsgReconnected, r.snapshot(p)))
		return nil
	})
}

func (r *Room) announceHost() {
	h := r.migrateHost()
	if h == nil {
		return
	}
	r.log.Info().Str("player", h.id).Msg("host changed")
	r.broadcast(model.NewMessage(model.MsgHostChanged, model.HostChangedPayload{
		NewHostID:   h.id,
		NewHostName: h.name,
	}), "")
}

// progressCount is the submission count relevant to the current state
func (r *Room) progressCount() int {
	switch r.state {
	case model.StatePlaying:
		return r.answeredCount()
	case model.StateScoring:
		return r.scoredCount()
	}
	return 0
}

func trimAnswer(s string) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= MaxAnswerLength {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:MaxAnswerLength]))
}
