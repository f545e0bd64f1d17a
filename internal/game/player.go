package game

import "wordrush/internal/model"

type player struct {
	id        string
	name      string
	token     string
	isHost    bool
	connected bool
	// conn is the id of the connection the player last arrived on
	conn string

	submittedAnswers bool
	submittedScores  bool
}

func (r *Room) find(id string) *player {
	for _, p := range r.players {
		if p.id == id {
			return p
		}
	}
	return nil
}

// member returns the player or NOT_IN_ROOM
func (r *Room) member(id string) (*player, error) {
	p := r.find(id)
	if p == nil {
		return nil, model.ErrNotInRoom
	}
	return p, nil
}

// hostMember is member restricted to the host
func (r *Room) hostMember(id string) (*player, error) {
	p, err := r.member(id)
	if err != nil {
		return nil, err
	}
	if !p.isHost {
		return nil, model.ErrNotHost
	}
	return p, nil
}

func (r *Room) host() *player {
	for _, p := range r.players {
		if p.isHost {
			return p
		}
	}
	return nil
}

func (r *Room) connectedCount() int {
	n := 0
	for _, p := range r.players {
		if p.connected {
			n++
		}
	}
	return n
}

func (r *Room) answeredCount() int {
	n := 0
	for _, p := range r.players {
		if p.connected && p.submittedAnswers {
			n++
		}
	}
	return n
}

func (r *Room) scoredCount() int {
	n := 0
	for _, p := range r.players {
		if p.connected && p.submittedScores {
			n++
		}
	}
	return n
}

// allAnswered is false for a room with nobody connected; only the round
// timer can end such a round.
func (r *Room) allAnswered() bool {
	c := r.connectedCount()
	return c > 0 && r.answeredCount() == c
}

func (r *Room) allScored() bool {
	c := r.connectedCount()
	return c > 0 && r.scoredCount() == c
}

// migrateHost hands the host role to the oldest connected player when the
// current host is gone or disconnected. It returns the new host, or nil if
// the role did not move.
func (r *Room) migrateHost() *player {
	h := r.host()
	if h != nil && h.connected {
		return nil
	}
	var next *player
	for _, p := range r.players {
		if p.connected {
			next = p
			break
		}
	}
	if next == nil {
		// nobody connected: keep the seat, or the first remaining player
		if h == nil && len(r.players) > 0 {
			r.players[0].isHost = true
			return r.players[0]
		}
		return nil
	}
	if h != nil {
		h.isHost = false
	}
	next.isHost = true
	return next
}

func (r *Room) remove(id string) {
	for i, p := range r.players {
		if p.id == id {
			r.players = append(r.players[:i], r.players[i+1:]...)
			return
		}
	}
}

func (r *Room) playerInfos() []model.PlayerInfo {
	out := make([]model.PlayerInfo, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, model.PlayerInfo{
			ID:                  p.id,
			Name:                p.name,
			Score:               r.cumulative[p.id],
			IsHost:              p.isHost,
			IsConnected:         p.connected,
			HasSubmittedAnswers: p.submittedAnswers,
			HasSubmittedScores:  p.submittedScores,
		})
	}
	return out
}

func (r *Room) playerIDs() []string {
	ids := make([]string, len(r.players))
	for i, p := range r.players {
		ids[i] = p.id
	}
	return ids
}

func (r *Room) sendTo(p *player, msg *model.Message) {
	if p.connected {
		r.out.SendTo(p.token, msg)
	}
}

// broadcast sends msg to every connected player except the one named
func (r *Room) broadcast(msg *model.Message, except string) {
	for _, p := range r.players {
		if p.id != except {
			r.sendTo(p, msg)
		}
	}
}
