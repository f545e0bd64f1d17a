package game

import (
	"context"

	"wordrush/internal/model"
	"wordrush/internal/timer"
)

// lobbyUpdate builds LOBBY_UPDATE. When self is set the copy carries that
// player's identity, and the token too if withToken.
func (r *Room) lobbyUpdate(self *player, withToken bool) *model.Message {
	pl := model.LobbyUpdatePayload{
		RoomCode:   r.code,
		GameState:  r.state,
		Players:    r.playerInfos(),
		Settings:   r.settings,
		RoundTotal: r.rules.RoundTotal,
		MaxPlayers: r.rules.MaxPlayers,
	}
	if self != nil {
		isHost := self.isHost
		pl.IsHost = &isHost
		pl.PlayerID = self.id
		if withToken {
			pl.SessionToken = self.token
		}
	}
	return model.NewMessage(model.MsgLobbyUpdate, pl)
}

// snapshot is the RECONNECTED payload for p, shaped by the current state
func (r *Room) snapshot(p *player) model.ReconnectedPayload {
	s := model.ReconnectedPayload{
		RoomCode:     r.code,
		GameState:    r.state,
		PlayerID:     p.id,
		IsHost:       p.isHost,
		SessionToken: p.token,
		Players:      r.playerInfos(),
		Settings:     r.settings,
		RoundTotal:   r.rules.RoundTotal,
		MaxPlayers:   r.rules.MaxPlayers,
	}

	switch r.state {
	case model.StatePlaying:
		v := r.round.view(nil)
		s.Round = &v
		s.RemainingSeconds = timer.Seconds(r.roundTimer.Remaining())
		s.HasSubmitted = p.submittedAnswers
		if mine, ok := r.round.answers[p.id]; ok {
			s.MyAnswers = copyAnswers(mine)
		}
		s.SubmittedCount = r.answeredCount()
		s.ConnectedCount = r.connectedCount()
	case model.StateScoring:
		v := r.round.view(r.fullAnswers())
		s.Round = &v
		s.ScoresSubmitted = p.submittedScores
		s.ScoringRemainingSeconds = timer.Seconds(r.scoringTimer.Remaining())
		s.SubmittedCount = r.scoredCount()
		s.ConnectedCount = r.connectedCount()
	case model.StateRoundResults:
		s.Results = r.results
	case model.StateFinalResults:
		s.GameOver = r.gameOver
	}
	return s
}

func copyAnswers(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// Summary returns the room's current directory summary
func (r *Room) Summary(ctx context.Context) (model.RoomSummary, error) {
	var s model.RoomSummary
	err := r.do(ctx, func() error {
		s = r.summary()
		return nil
	})
	return s, err
}

// Players returns the seated players in join order
func (r *Room) Players(ctx context.Context) ([]model.PlayerInfo, error) {
	var out []model.PlayerInfo
	err := r.do(ctx, func() error {
		out = r.playerInfos()
		return nil
	})
	return out, err
}
