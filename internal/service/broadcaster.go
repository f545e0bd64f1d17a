package service

import (
	"wordrush/internal/model"
	"wordrush/internal/session"

	"github.com/rs/zerolog/log"
)

// SessionBroadcaster delivers room events to whichever connection a session
// token is currently bound to. Events for disconnected players are dropped.
type SessionBroadcaster struct {
	sessions *session.Registry
}

// NewSessionBroadcaster creates a broadcaster over the registry
func NewSessionBroadcaster(sessions *session.Registry) *SessionBroadcaster {
	return &SessionBroadcaster{sessions: sessions}
}

func (b *SessionBroadcaster) SendTo(token string, msg *model.Message) {
	conn := b.sessions.ConnFor(token)
	if conn == nil {
		return
	}
	if err := conn.Send(msg); err != nil {
		log.Debug().Err(err).Str("conn", conn.ID()).Str("type", string(msg.Type)).Msg("dropped outbound message")
	}
}
