package game

import (
	"context"
	"strings"
	"testing"
	"time"

	"wordrush/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoin(t *testing.T) {
	f := newFixture(t)
	f.join("A", "B")

	own := decode[model.LobbyUpdatePayload](t, f.out.last(tok("B"), model.MsgLobbyUpdate))
	assert.Equal(t, "B", own.PlayerID)
	assert.Equal(t, tok("B"), own.SessionToken)
	require.NotNil(t, own.IsHost)
	assert.False(t, *own.IsHost)
	assert.Len(t, own.Players, 2)

	others := decode[model.LobbyUpdatePayload](t, f.out.last(tok("A"), model.MsgLobbyUpdate))
	assert.Empty(t, others.SessionToken, "broadcast copies never carry a token")
	assert.Empty(t, others.PlayerID)
	assert.Nil(t, others.IsHost)

	assert.Equal(t, []string{"A"}, f.hosts())
}

func TestJoin_Rejections(t *testing.T) {
	t.Run("room full", func(t *testing.T) {
		f := newFixture(t)
		f.join("A", "B", "C", "D", "E")
		err := f.room.Join(f.ctx, JoinRequest{PlayerID: "F", Name: "F", Token: tok("F")})
		assert.ErrorIs(t, err, model.ErrRoomFull)
	})

	t.Run("game in progress", func(t *testing.T) {
		f := newFixture(t)
		f.startPlaying("A", "B")
		err := f.room.Join(f.ctx, JoinRequest{PlayerID: "C", Name: "C", Token: tok("C")})
		assert.ErrorIs(t, err, model.ErrRoomNotJoinable)
	})

	t.Run("duplicate player", func(t *testing.T) {
		f := newFixture(t)
		f.join("A")
		err := f.room.Join(f.ctx, JoinRequest{PlayerID: "A", Name: "A", Token: tok("A")})
		assert.ErrorIs(t, err, model.ErrAlreadyInRoom)
	})
}

func TestStart(t *testing.T) {
	tests := []struct {
		name    string
		players []string
		caller  string
		wantErr error
	}{
		{"non-host", []string{"A", "B"}, "B", model.ErrNotHost},
		{"stranger", []string{"A", "B"}, "Z", model.ErrNotInRoom},
		{"alone", []string{"A"}, "A", model.ErrNotEnoughPlayers},
		{"ok", []string{"A", "B"}, "A", nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.join(tc.players...)
			err := f.room.Start(f.ctx, tc.caller, model.SettingsUpdate{})
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.Equal(t, model.StateLobby, f.state())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, model.StatePlaying, f.state())
			for _, id := range tc.players {
				start := decode[model.RoundStartPayload](t, f.out.last(tok(id), model.MsgRoundStart))
				assert.Equal(t, 1, start.RoundNumber)
				assert.Equal(t, 3, start.RoundTotal)
				assert.Equal(t, []string{"Animal", "City"}, start.Categories)
				assert.Equal(t, 60, start.DurationSeconds)
				assert.Equal(t, 2, start.ConnectedCount)
			}
		})
	}
}

func TestStart_NeedsConnectedPlayers(t *testing.T) {
	f := newFixture(t)
	f.join("A", "B")
	require.NoError(t, f.room.Disconnect(f.ctx, "B", cid("B")))
	assert.ErrorIs(t, f.room.Start(f.ctx, "A", model.SettingsUpdate{}), model.ErrNotEnoughPlayers)
}

func TestStart_AppliesSettings(t *testing.T) {
	f := newFixture(t)
	f.join("A", "B")
	rush, duration := 1, 30
	require.NoError(t, f.room.Start(f.ctx, "A", model.SettingsUpdate{RushSeconds: &rush, RoundDurationSeconds: &duration}))

	start := decode[model.RoundStartPayload](t, f.out.last(tok("B"), model.MsgRoundStart))
	assert.Equal(t, 30, start.DurationSeconds)
	assert.Equal(t, 5, start.RushSeconds, "rush is clamped to the minimum")
}

func TestUpdateSettings(t *testing.T) {
	f := newFixture(t)
	f.join("A", "B")
	precise, timeout := true, 9999

	assert.ErrorIs(t, f.room.UpdateSettings(f.ctx, "B", model.SettingsUpdate{PreciseScoring: &precise}), model.ErrNotHost)

	require.NoError(t, f.room.UpdateSettings(f.ctx, "A", model.SettingsUpdate{PreciseScoring: &precise, ScoringTimeoutSeconds: &timeout}))
	lobby := decode[model.LobbyUpdatePayload](t, f.out.last(tok("B"), model.MsgLobbyUpdate))
	assert.True(t, lobby.Settings.PreciseScoring)
	assert.Equal(t, 600, lobby.Settings.ScoringTimeoutSeconds)

	require.NoError(t, f.room.Start(f.ctx, "A", model.SettingsUpdate{}))
	assert.ErrorIs(t, f.room.UpdateSettings(f.ctx, "A", model.SettingsUpdate{PreciseScoring: &precise}), model.ErrWrongState)
}

func TestRush(t *testing.T) {
	f := newFixture(t)
	f.startPlaying("A", "B")

	f.advance(3 * time.Second)
	require.NoError(t, f.room.SubmitAnswers(f.ctx, "A", map[string]string{"Animal": "Ant"}))

	rush := decode[model.OpponentSubmittedPayload](t, f.out.last(tok("B"), model.MsgOpponentSubmitted))
	assert.Equal(t, "A", rush.OpponentID)
	assert.Equal(t, 5, rush.RushSeconds)
	assert.Equal(t, 5, rush.RemainingSeconds)
	assert.Equal(t, 1, rush.SubmittedCount)
	assert.Equal(t, 2, rush.ConnectedCount)
	assert.Nil(t, f.out.last(tok("A"), model.MsgOpponentSubmitted), "the submitter is not told about itself")

	f.advance(time.Second)
	require.NoError(t, f.room.SubmitAnswers(f.ctx, "B", map[string]string{"Animal": "Bear"}))

	assert.Equal(t, model.StateScoring, f.state(), "both submitted: no waiting for the rush window")
	ended := decode[model.RoundEndedPayload](t, f.out.last(tok("A"), model.MsgRoundEnded))
	assert.Equal(t, model.EndAllSubmitted, ended.Reason)

	// the superseded round timer must not end the round again
	f.advance(time.Minute)
	assert.Equal(t, 1, f.out.count(tok("A"), model.MsgRoundEnded))
}

func TestRush_TimesOut(t *testing.T) {
	f := newFixture(t)
	f.startPlaying("A", "B")

	f.advance(3 * time.Second)
	require.NoError(t, f.room.SubmitAnswers(f.ctx, "A", map[string]string{"Animal": "Ant"}))

	f.advance(4 * time.Second)
	assert.Equal(t, model.StatePlaying, f.state())
	f.advance(time.Second)
	assert.Equal(t, model.StateScoring, f.state())

	ended := decode[model.RoundEndedPayload](t, f.out.last(tok("B"), model.MsgRoundEnded))
	assert.Equal(t, model.EndTimeout, ended.Reason)
	assert.Equal(t, map[string]string{"Animal": "", "City": ""}, ended.Round.Answers["B"], "non-submitters get blanks")
	assert.Equal(t, "Ant", ended.Round.Answers["A"]["Animal"])
}

func TestRush_NeverExtends(t *testing.T) {
	f := newFixture(t)
	f.startPlaying("A", "B", "C")

	f.advance(57 * time.Second)
	require.NoError(t, f.room.SubmitAnswers(f.ctx, "A", nil))
	rush := decode[model.OpponentSubmittedPayload](t, f.out.last(tok("B"), model.MsgOpponentSubmitted))
	assert.Equal(t, 3, rush.RemainingSeconds)

	f.advance(3 * time.Second)
	assert.Equal(t, model.StateScoring, f.state())
}

func TestSubmitAnswers_Idempotent(t *testing.T) {
	f := newFixture(t)
	f.startPlaying("A", "B", "C")

	require.NoError(t, f.room.SubmitAnswers(f.ctx, "A", map[string]string{"Animal": "Ant"}))
	err := f.room.SubmitAnswers(f.ctx, "A", map[string]string{"Animal": "Ape"})
	assert.ErrorIs(t, err, model.ErrAlreadySubmitted)

	require.NoError(t, f.room.SubmitAnswers(f.ctx, "B", nil))
	rush := decode[model.OpponentSubmittedPayload](t, f.out.last(tok("C"), model.MsgOpponentSubmitted))
	assert.Equal(t, 2, rush.SubmittedCount)
	assert.Equal(t, model.StatePlaying, f.state())
}

func TestSubmitAnswers_Sanitized(t *testing.T) {
	f := newFixture(t)
	f.startPlaying("A", "B")

	long := strings.Repeat("x", 100)
	require.NoError(t, f.room.SubmitAnswers(f.ctx, "A", map[string]string{
		"Animal":  "  Ant  ",
		"City":    long,
		"Unknown": "ignored",
	}))
	require.NoError(t, f.room.SubmitAnswers(f.ctx, "B", nil))

	ended := decode[model.RoundEndedPayload](t, f.out.last(tok("A"), model.MsgRoundEnded))
	assert.Equal(t, "Ant", ended.Round.Answers["A"]["Animal"])
	assert.Len(t, ended.Round.Answers["A"]["City"], MaxAnswerLength)
	assert.NotContains(t, ended.Round.Answers["A"], "Unknown")
}

func TestSubmitAnswers_WrongState(t *testing.T) {
	f := newFixture(t)
	f.join("A", "B")
	assert.ErrorIs(t, f.room.SubmitAnswers(f.ctx, "A", nil), model.ErrWrongState)
	assert.ErrorIs(t, f.room.SubmitScores(f.ctx, "A", nil), model.ErrWrongState)
}

func TestDisconnect_SatisfiesAllSubmitted(t *testing.T) {
	f := newFixture(t)
	f.startPlaying("A", "B")

	require.NoError(t, f.room.SubmitAnswers(f.ctx, "A", nil))
	require.NoError(t, f.room.Disconnect(f.ctx, "B", cid("B")))

	assert.Equal(t, model.StateScoring, f.state())
	ended := decode[model.RoundEndedPayload](t, f.out.last(tok("A"), model.MsgRoundEnded))
	assert.Equal(t, model.EndPlayersLeft, ended.Reason)

	gone := decode[model.PlayerDisconnectedPayload](t, f.out.last(tok("A"), model.MsgPlayerDisconnected))
	assert.Equal(t, "B", gone.PlayerID)
	assert.False(t, gone.LeftIntentionally)
	assert.Equal(t, 1, gone.ConnectedCount)
}

func TestNobodyConnected_TimersStillAdvance(t *testing.T) {
	f := newFixture(t)
	f.startPlaying("A", "B")
	require.NoError(t, f.room.Disconnect(f.ctx, "A", cid("A")))
	require.NoError(t, f.room.Disconnect(f.ctx, "B", cid("B")))
	assert.Equal(t, model.StatePlaying, f.state())

	f.advance(60 * time.Second)
	assert.Equal(t, model.StateScoring, f.state())
	f.advance(60 * time.Second)
	assert.Equal(t, model.StateRoundResults, f.state())
}

func TestScoring_NonRespondingRater(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.Settings.PreciseScoring = true })
	f.toScoring("A", "B", "C")

	require.NoError(t, f.room.SubmitScores(f.ctx, "A", map[string]map[string]int{"Animal": {"B": 2}}))
	require.NoError(t, f.room.SubmitScores(f.ctx, "C", map[string]map[string]int{"Animal": {"B": 0}}))
	assert.Equal(t, model.StateScoring, f.state())

	update := decode[model.ScoringUpdatePayload](t, f.out.last(tok("B"), model.MsgScoringUpdate))
	assert.Equal(t, "C", update.PlayerID)
	assert.Equal(t, 2, update.SubmittedCount)

	f.advance(60 * time.Second)

	timeout := decode[model.ScoringTimeoutPayload](t, f.out.last(tok("A"), model.MsgScoringTimeout))
	assert.Equal(t, []string{"B"}, timeout.MissingPlayerIDs)

	types := f.out.types(tok("A"))
	require.GreaterOrEqual(t, len(types), 2)
	assert.Equal(t, []model.MessageType{model.MsgScoringTimeout, model.MsgRoundResults}, types[len(types)-2:])

	res := decode[model.RoundResultsPayload](t, f.out.last(tok("A"), model.MsgRoundResults))
	assert.True(t, res.Timeout)
	assert.InDelta(t, 1.0, res.RoundScores["B"]["Animal"], 1e-9)
	assert.InDelta(t, 1.0, res.RoundTotals["B"], 1e-9)
	_, rated := res.RoundScores["A"]["Animal"]
	assert.False(t, rated, "nobody rated A's answer")
	assert.Equal(t, []string{"B"}, res.RoundWinner.PlayerIDs)
	assert.False(t, res.RoundWinner.Tied)
}

func TestScoring_RejectsBadRatings(t *testing.T) {
	f := newFixture(t)
	f.toScoring("A", "B")

	err := f.room.SubmitScores(f.ctx, "A", map[string]map[string]int{"Animal": {"B": 3}})
	assert.ErrorIs(t, err, model.Invalid(""))
	require.NoError(t, f.room.SubmitScores(f.ctx, "A", map[string]map[string]int{"Animal": {"B": 2, "A": 2, "ghost": 1}}))
	assert.ErrorIs(t, f.room.SubmitScores(f.ctx, "A", nil), model.ErrAlreadySubmitted)

	require.NoError(t, f.room.SubmitScores(f.ctx, "B", nil))
	res := decode[model.RoundResultsPayload](t, f.out.last(tok("A"), model.MsgRoundResults))
	assert.False(t, res.Timeout)
	assert.Equal(t, 2.0, res.RoundTotals["B"])
	assert.Equal(t, 0.0, res.RoundTotals["A"], "self-ratings do not count")
}

func TestFullGame(t *testing.T) {
	f := newFixture(t)
	ids := []string{"A", "B"}
	f.toScoring(ids...)

	for n := 1; n <= 3; n++ {
		f.scoreAll(1, ids...)
		res := decode[model.RoundResultsPayload](t, f.out.last(tok("A"), model.MsgRoundResults))
		assert.Equal(t, n, res.RoundNumber)
		assert.Equal(t, n == 3, res.IsFinalRound)
		assert.Equal(t, float64(2*n), res.CumulativeScores["A"])
		assert.True(t, res.Leader.Tied)

		assert.ErrorIs(t, f.room.NextRound(f.ctx, "B"), model.ErrNotHost)
		if n == 3 {
			break
		}
		require.NoError(t, f.room.NextRound(f.ctx, "A"))
		start := decode[model.RoundStartPayload](t, f.out.last(tok("B"), model.MsgRoundStart))
		assert.Equal(t, n+1, start.RoundNumber)
		for _, id := range ids {
			require.NoError(t, f.room.SubmitAnswers(f.ctx, id, map[string]string{"Animal": "x", "City": "y"}))
		}
	}

	assert.ErrorIs(t, f.room.NextRound(f.ctx, "A"), model.ErrFinalRound)
	require.NoError(t, f.room.EndGame(f.ctx, "A"))
	assert.Equal(t, model.StateFinalResults, f.state())

	over := decode[model.GameOverPayload](t, f.out.last(tok("B"), model.MsgGameOver))
	assert.Equal(t, map[string]float64{"A": 6, "B": 6}, over.FinalScores)
	assert.Len(t, over.History, 3)
	assert.True(t, over.Leader.Tied)
	assert.ElementsMatch(t, ids, over.Leader.PlayerIDs)

	require.Len(t, f.obs.results, 1)
	assert.Equal(t, "ABCD", f.obs.results[0].RoomCode)
	assert.Len(t, f.obs.results[0].Players, 2)

	s, err := f.room.Summary(f.ctx)
	require.NoError(t, err)
	assert.False(t, s.Joinable(), "finished games are never listed")

	assert.Contains(t, f.obs.eventTypes(), model.EventGameOver)
	assert.ErrorIs(t, f.room.EndGame(f.ctx, "A"), model.ErrWrongState)
}

func TestEndGame_EarlyFromResults(t *testing.T) {
	f := newFixture(t)
	f.toScoring("A", "B")
	assert.ErrorIs(t, f.room.EndGame(f.ctx, "A"), model.ErrWrongState)

	f.scoreAll(2, "A", "B")
	require.NoError(t, f.room.EndGame(f.ctx, "A"))
	over := decode[model.GameOverPayload](t, f.out.last(tok("A"), model.MsgGameOver))
	assert.Len(t, over.History, 1)
}

func TestHostMigration(t *testing.T) {
	f := newFixture(t)
	f.join("A", "B", "C")

	require.NoError(t, f.room.Disconnect(f.ctx, "A", cid("A")))
	changed := decode[model.HostChangedPayload](t, f.out.last(tok("B"), model.MsgHostChanged))
	assert.Equal(t, "B", changed.NewHostID)
	assert.Equal(t, []string{"B"}, f.hosts())

	require.NoError(t, f.room.Reconnect(f.ctx, "A", cid("A")))
	assert.Equal(t, []string{"B"}, f.hosts(), "a returning host does not take the role back")

	require.NoError(t, f.room.Leave(f.ctx, "B"))
	assert.Equal(t, []string{"A"}, f.hosts())
}

func TestHostMigration_NobodyConnected(t *testing.T) {
	f := newFixture(t)
	f.join("A", "B")

	require.NoError(t, f.room.Disconnect(f.ctx, "B", cid("B")))
	require.NoError(t, f.room.Disconnect(f.ctx, "A", cid("A")))
	assert.Equal(t, []string{"A"}, f.hosts(), "the seat keeps its host")

	require.NoError(t, f.room.Reconnect(f.ctx, "B", cid("B")))
	assert.Equal(t, []string{"B"}, f.hosts(), "first player back takes over from a disconnected host")
}

func TestHostInvariant(t *testing.T) {
	f := newFixture(t)
	f.join("A", "B", "C", "D")

	steps := []func() error{
		func() error { return f.room.Disconnect(f.ctx, "A", cid("A")) },
		func() error { return f.room.Leave(f.ctx, "B") },
		func() error { return f.room.Disconnect(f.ctx, "C", cid("C")) },
		func() error { return f.room.Reconnect(f.ctx, "A", cid("A")) },
		func() error { return f.room.Disconnect(f.ctx, "D", cid("D")) },
		func() error { return f.room.Leave(f.ctx, "A") },
		func() error { return f.room.Reconnect(f.ctx, "C", cid("C")) },
	}
	for i, step := range steps {
		require.NoError(t, step(), "step %d", i)
		assert.Len(t, f.hosts(), 1, "step %d", i)
	}
}

func TestReconnect_Playing(t *testing.T) {
	f := newFixture(t)
	f.startPlaying("A", "B")
	f.advance(10 * time.Second)

	// B typed answers but never submitted them
	require.NoError(t, f.room.Disconnect(f.ctx, "B", cid("B")))
	require.NoError(t, f.room.Reconnect(f.ctx, "B", cid("B")))

	snap := decode[model.ReconnectedPayload](t, f.out.last(tok("B"), model.MsgReconnected))
	assert.Equal(t, model.StatePlaying, snap.GameState)
	assert.Equal(t, "B", snap.PlayerID)
	assert.Equal(t, tok("B"), snap.SessionToken)
	assert.False(t, snap.IsHost)
	require.NotNil(t, snap.Round)
	assert.Equal(t, []string{"Animal", "City"}, snap.Round.Categories)
	assert.Empty(t, snap.Round.Answers, "other players' answers stay hidden while playing")
	assert.Empty(t, snap.MyAnswers)
	assert.False(t, snap.HasSubmitted)
	assert.Equal(t, 50, snap.RemainingSeconds)
	assert.Equal(t, 2, snap.ConnectedCount)

	back := decode[model.PlayerReconnectedPayload](t, f.out.last(tok("A"), model.MsgPlayerReconnected))
	assert.Equal(t, "B", back.PlayerID)
	assert.Equal(t, 2, back.ConnectedCount)
}

func TestReconnect_KeepsSubmittedAnswers(t *testing.T) {
	f := newFixture(t)
	f.startPlaying("A", "B", "C")
	require.NoError(t, f.room.SubmitAnswers(f.ctx, "B", map[string]string{"Animal": "Bear"}))
	require.NoError(t, f.room.Disconnect(f.ctx, "B", cid("B")))
	require.NoError(t, f.room.Reconnect(f.ctx, "B", cid("B")))

	snap := decode[model.ReconnectedPayload](t, f.out.last(tok("B"), model.MsgReconnected))
	assert.Equal(t, map[string]string{"Animal": "Bear"}, snap.MyAnswers)
	assert.True(t, snap.HasSubmitted)
	assert.Equal(t, 5, snap.RemainingSeconds)
}

func TestReconnect_Scoring(t *testing.T) {
	f := newFixture(t)
	f.toScoring("A", "B", "C")
	require.NoError(t, f.room.SubmitScores(f.ctx, "A", nil))
	f.advance(20 * time.Second)
	require.NoError(t, f.room.Disconnect(f.ctx, "A", cid("A")))
	require.NoError(t, f.room.Reconnect(f.ctx, "A", cid("A")))

	snap := decode[model.ReconnectedPayload](t, f.out.last(tok("A"), model.MsgReconnected))
	assert.Equal(t, model.StateScoring, snap.GameState)
	assert.True(t, snap.ScoresSubmitted)
	assert.Equal(t, 40, snap.ScoringRemainingSeconds)
	require.NotNil(t, snap.Round)
	assert.Equal(t, "a-B", snap.Round.Answers["B"]["Animal"])
}

func TestReconnect_ResultsAndGameOver(t *testing.T) {
	f := newFixture(t)
	f.toScoring("A", "B")
	f.scoreAll(1, "A", "B")

	require.NoError(t, f.room.Reconnect(f.ctx, "B", cid("B")))
	snap := decode[model.ReconnectedPayload](t, f.out.last(tok("B"), model.MsgReconnected))
	require.NotNil(t, snap.Results)
	assert.Equal(t, 1, snap.Results.RoundNumber)

	require.NoError(t, f.room.EndGame(f.ctx, "A"))
	require.NoError(t, f.room.Reconnect(f.ctx, "B", cid("B")))
	snap = decode[model.ReconnectedPayload](t, f.out.last(tok("B"), model.MsgReconnected))
	require.NotNil(t, snap.GameOver)
	assert.Len(t, snap.GameOver.History, 1)
}

func TestReconnect_UnknownPlayer(t *testing.T) {
	f := newFixture(t)
	f.join("A")
	assert.ErrorIs(t, f.room.Reconnect(f.ctx, "ghost", cid("ghost")), model.ErrSessionExpired)
}

func TestLeave(t *testing.T) {
	f := newFixture(t)
	f.startPlaying("A", "B", "C")
	require.NoError(t, f.room.SubmitAnswers(f.ctx, "B", map[string]string{"Animal": "Bear"}))
	require.NoError(t, f.room.SubmitAnswers(f.ctx, "C", nil))

	require.NoError(t, f.room.Leave(f.ctx, "A"))

	gone := decode[model.PlayerDisconnectedPayload](t, f.out.last(tok("B"), model.MsgPlayerDisconnected))
	assert.True(t, gone.LeftIntentionally)
	assert.Equal(t, "B", decode[model.HostChangedPayload](t, f.out.last(tok("C"), model.MsgHostChanged)).NewHostID)

	// A was the only one still answering
	assert.Equal(t, model.StateScoring, f.state())
	ended := decode[model.RoundEndedPayload](t, f.out.last(tok("B"), model.MsgRoundEnded))
	assert.NotContains(t, ended.Round.Answers, "A")
	assert.ErrorIs(t, f.room.Leave(f.ctx, "A"), model.ErrNotInRoom)
}

func TestLeave_LastPlayerEmptiesRoom(t *testing.T) {
	f := newFixture(t)
	f.join("A")
	require.NoError(t, f.room.Leave(f.ctx, "A"))

	s, err := f.room.Summary(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, s.PlayerCount)
	assert.False(t, s.EmptySince.IsZero())
}

func TestSummary_EmptySince(t *testing.T) {
	f := newFixture(t)
	f.join("A", "B")
	s, _ := f.room.Summary(f.ctx)
	assert.True(t, s.EmptySince.IsZero())
	assert.True(t, s.Joinable())
	assert.Equal(t, "name-A", s.HostName)

	require.NoError(t, f.room.Disconnect(f.ctx, "A", cid("A")))
	require.NoError(t, f.room.Disconnect(f.ctx, "B", cid("B")))
	s, _ = f.room.Summary(f.ctx)
	assert.Equal(t, f.clock.Now(), s.EmptySince)
	assert.Equal(t, 2, s.PlayerCount)
	assert.Equal(t, 0, s.ConnectedCount)
}

func TestClose(t *testing.T) {
	f := newFixture(t)
	f.startPlaying("A", "B")
	f.room.Close()
	<-f.room.Done()

	assert.ErrorIs(t, f.room.SubmitAnswers(f.ctx, "A", nil), model.ErrRoomClosed)
	f.clock.Advance(time.Hour)
	assert.Equal(t, 0, f.clock.Pending())
}

func TestDo_ContextCancelled(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, f.room.Sync(ctx), context.Canceled)
}

func TestDo_QueuedCommandOutlivesContext(t *testing.T) {
	f := newFixture(t)
	release := make(chan struct{})
	f.room.enqueue(func() { <-release })

	ctx, cancel := context.WithCancel(f.ctx)
	defer cancel()
	errc := make(chan error, 1)
	go func() {
		errc <- f.room.Join(ctx, JoinRequest{PlayerID: "A", Name: "A", Token: tok("A"), ConnID: cid("A")})
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-errc:
		t.Fatalf("join returned %v before it was applied", err)
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case err := <-errc:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("join never finished")
	}
	players, err := f.room.Players(f.ctx)
	require.NoError(t, err)
	require.Len(t, players, 1)
	assert.True(t, players[0].IsConnected)
}

func TestDisconnect_FromReplacedConnectionIgnored(t *testing.T) {
	f := newFixture(t)
	f.join("A", "B")

	// B rejoins on a new connection before the old one's disconnect lands
	require.NoError(t, f.room.Reconnect(f.ctx, "B", "conn-B2"))
	require.NoError(t, f.room.Disconnect(f.ctx, "B", cid("B")))

	players, err := f.room.Players(f.ctx)
	require.NoError(t, err)
	assert.True(t, players[1].IsConnected)
	assert.Nil(t, f.out.last(tok("A"), model.MsgPlayerDisconnected))

	require.NoError(t, f.room.Disconnect(f.ctx, "B", "conn-B2"))
	players, err = f.room.Players(f.ctx)
	require.NoError(t, err)
	assert.False(t, players[1].IsConnected)
	assert.NotNil(t, f.out.last(tok("A"), model.MsgPlayerDisconnected))
}

func TestPanicIsReportedAsInternal(t *testing.T) {
	f := newFixture(t)
	err := f.room.do(f.ctx, func() error { panic("boom") })
	assert.ErrorIs(t, err, model.ErrInternal)
	f.sync()
}

func TestEvents(t *testing.T) {
	f := newFixture(t)
	f.toScoring("A", "B")
	f.scoreAll(1, "A", "B")

	assert.Equal(t, []model.RoomEventType{
		model.EventPlayerJoined,
		model.EventPlayerJoined,
		model.EventRoundStarted,
		model.EventRoundEnded,
		model.EventRoundResults,
	}, f.obs.eventTypes())
}
