package game

import (
	"time"

	"wordrush/internal/model"
	"wordrush/internal/scoring"
	"wordrush/internal/timer"
)

type round struct {
	number     int
	letter     string
	categories []string
	// answers is player -> category -> text, submitted answers only
	answers map[string]map[string]string
	// ratings is rated player -> category -> rater -> rating
	ratings map[string]map[string]map[string]int
}

func (rd *round) hasCategory(cat string) bool {
	for _, c := range rd.categories {
		if c == cat {
			return true
		}
	}
	return false
}

func (rd *round) view(withAnswers map[string]map[string]string) model.RoundView {
	cats := make([]string, len(rd.categories))
	copy(cats, rd.categories)
	return model.RoundView{
		RoundNumber: rd.number,
		Letter:      rd.letter,
		Categories:  cats,
		Answers:     withAnswers,
	}
}

// fullAnswers lists an answer for every player and category, blank where
// nothing was submitted
func (r *Room) fullAnswers() map[string]map[string]string {
	out := make(map[string]map[string]string, len(r.players))
	for _, p := range r.players {
		row := make(map[string]string, len(r.round.categories))
		for _, cat := range r.round.categories {
			row[cat] = r.round.answers[p.id][cat]
		}
		out[p.id] = row
	}
	return out
}

func (r *Room) startRound() {
	r.advance(model.StatePlaying)

	letter := r.content.Letter(r.usedLetters)
	r.usedLetters = append(r.usedLetters, letter)
	r.round = &round{
		number:     len(r.history) + 1,
		letter:     letter,
		categories: r.content.Categories(r.rules.CategoriesPerRound),
		answers:    make(map[string]map[string]string),
		ratings:    make(map[string]map[string]map[string]int),
	}
	r.results = nil
	for _, p := range r.players {
		p.submittedAnswers = false
		p.submittedScores = false
	}

	duration := time.Duration(r.settings.RoundDurationSeconds) * time.Second
	r.roundTimer = r.schedule(duration, func() {
		r.log.Info().Int("round", r.round.number).Msg("round timer expired")
		r.endRound(model.EndTimeout)
	})

	r.broadcast(model.NewMessage(model.MsgRoundStart, model.RoundStartPayload{
		RoundNumber:     r.round.number,
		RoundTotal:      r.rules.RoundTotal,
		Letter:          r.round.letter,
		Categories:      r.round.categories,
		DurationSeconds: r.settings.RoundDurationSeconds,
		RushSeconds:     r.settings.RushSeconds,
		ConnectedCount:  r.connectedCount(),
		PlayerCount:     len(r.players),
		ServerTime:      r.sched.Now().UnixMilli(),
	}), "")

	r.log.Info().Int("round", r.round.number).Str("letter", letter).Msg("round started")
	r.event(model.EventRoundStarted, map[string]interface{}{
		"round":      r.round.number,
		"letter":     letter,
		"categories": r.round.categories,
	})
}

// rush pulls the round deadline down to the rush window
func (r *Room) rush(submitter *player) {
	rush := time.Duration(r.settings.RushSeconds) * time.Second
	if r.roundTimer.Shorten(rush) {
		r.log.Debug().Str("player", submitter.id).Msg("rush started")
	}
	r.broadcast(model.NewMessage(model.MsgOpponentSubmitted, model.OpponentSubmittedPayload{
		OpponentID:       submitter.id,
		OpponentName:     submitter.name,
		RushSeconds:      r.settings.RushSeconds,
		RemainingSeconds: timer.Seconds(r.roundTimer.Remaining()),
		SubmittedCount:   r.answeredCount(),
		ConnectedCount:   r.connectedCount(),
	}), submitter.id)
}

func (r *Room) endRound(reason string) {
	r.advance(model.StateScoring)
	for _, p := range r.players {
		p.submittedScores = false
	}

	r.broadcast(model.NewMessage(model.MsgRoundEnded, model.RoundEndedPayload{
		Round:          r.round.view(r.fullAnswers()),
		Players:        r.playerInfos(),
		ScoringSeconds: r.settings.ScoringTimeoutSeconds,
		Reason:         reason,
	}), "")

	if r.settings.ScoringTimeoutSeconds > 0 {
		d := time.Duration(r.settings.ScoringTimeoutSeconds) * time.Second
		r.scoringTimer = r.schedule(d, r.scoringExpired)
	}

	r.log.Info().Int("round", r.round.number).Str("reason", reason).Msg("round ended")
	r.event(model.EventRoundEnded, map[string]interface{}{
		"round":  r.round.number,
		"reason": reason,
	})
}

func (r *Room) scoringExpired() {
	missing := []string{}
	for _, p := range r.players {
		if !p.submittedScores {
			missing = append(missing, p.id)
		}
	}
	r.log.Info().Int("round", r.round.number).Strs("missing", missing).Msg("scoring timed out")
	r.broadcast(model.NewMessage(model.MsgScoringTimeout, model.ScoringTimeoutPayload{
		MissingPlayerIDs: missing,
	}), "")
	r.finishScoring(true)
}

func (r *Room) finishScoring(timedOut bool) {
	r.advance(model.StateRoundResults)

	order := r.playerIDs()
	outcome := scoring.Score(scoring.Round{
		Players:    order,
		Categories: r.round.categories,
		Answers:    r.round.answers,
		Ratings:    r.round.ratings,
	}, r.settings.PreciseScoring, r.policy)
	r.cumulative = scoring.Accumulate(r.cumulative, outcome.Totals)

	r.history = append(r.history, model.RoundRecord{
		RoundNumber: r.round.number,
		Letter:      r.round.letter,
		Categories:  r.round.categories,
		Answers:     r.fullAnswers(),
		Scores:      outcome.Scores,
		Totals:      outcome.Totals,
		TimedOut:    timedOut,
	})

	r.results = &model.RoundResultsPayload{
		RoundNumber:      r.round.number,
		RoundScores:      outcome.Scores,
		RoundTotals:      outcome.Totals,
		CumulativeScores: r.cumulativeCopy(),
		IsFinalRound:     r.round.number >= r.rules.RoundTotal,
		Timeout:          timedOut,
		RoundWinner:      scoring.Top(outcome.Totals, order),
		Leader:           scoring.Top(r.cumulative, order),
	}
	r.broadcast(model.NewMessage(model.MsgRoundResults, r.results), "")

	r.log.Info().Int("round", r.round.number).Bool("timeout", timedOut).Msg("round scored")
	r.event(model.EventRoundResults, map[string]interface{}{
		"round":   r.round.number,
		"totals":  outcome.Totals,
		"timeout": timedOut,
	})
}

func (r *Room) finishGame() {
	r.advance(model.StateFinalResults)

	order := r.playerIDs()
	r.gameOver = &model.GameOverPayload{
		FinalScores: r.cumulativeCopy(),
		History:     r.history,
		Leader:      scoring.Top(r.cumulative, order),
	}
	r.broadcast(model.NewMessage(model.MsgGameOver, r.gameOver), "")

	result := model.GameResult{
		RoomCode:   r.code,
		History:    r.history,
		Leader:     r.gameOver.Leader,
		Settings:   r.settings,
		FinishedAt: r.sched.Now(),
	}
	for _, p := range r.players {
		result.Players = append(result.Players, model.ResultPlayer{
			ID:    p.id,
			Name:  p.name,
			Score: r.cumulative[p.id],
		})
	}
	r.obs.GameFinished(result)

	r.log.Info().Strs("leader", r.gameOver.Leader.PlayerIDs).Msg("game over")
	r.event(model.EventGameOver, map[string]interface{}{
		"final_scores": r.gameOver.FinalScores,
		"rounds":       len(r.history),
	})
}

func (r *Room) cumulativeCopy() map[string]float64 {
	out := make(map[string]float64, len(r.players))
	for _, p := range r.players {
		out[p.id] = r.cumulative[p.id]
	}
	return out
}

// checkProgress advances the round if the players still connected have all
// submitted. Called after anything that changes who is connected.
func (r *Room) checkProgress() {
	switch r.state {
	case model.StatePlaying:
		if r.allAnswered() {
			r.endRound(model.EndPlayersLeft)
		}
	case model.StateScoring:
		if r.allScored() {
			r.finishScoring(false)
		}
	}
}
