// Package session maps session tokens to the player they identify and the
// single connection currently speaking for that player.
package session

import (
	"errors"
	"sync"

	"wordrush/internal/model"
)

var (
	ErrTokenExists  = errors.New("session token already registered")
	ErrUnknownToken = errors.New("unknown session token")
)

// Conn is a live client connection
type Conn interface {
	ID() string
	Send(msg *model.Message) error
	Close(reason string)
}

// Entry is one registered session
type Entry struct {
	Token    string
	RoomCode string
	PlayerID string
	// Conn is nil while the player is disconnected
	Conn Conn
}

// Registry is the process-wide token table. The room owns the player; the
// registry only points at it.
type Registry struct {
	mu      sync.RWMutex
	byToken map[string]*Entry
	byConn  map[string]string // conn id -> token
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		byToken: make(map[string]*Entry),
		byConn:  make(map[string]string),
	}
}

// Register adds a session bound to conn, which may be nil
func (r *Registry) Register(token, roomCode, playerID string, conn Conn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byToken[token]; ok {
		return ErrTokenExists
	}
	r.byToken[token] = &Entry{Token: token, RoomCode: roomCode, PlayerID: playerID}
	if conn != nil {
		r.attachLocked(token, conn)
	}
	return nil
}

// Lookup returns a copy of the session for token
func (r *Registry) Lookup(token string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byToken[token]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// ForConn returns the session conn currently speaks for
func (r *Registry) ForConn(connID string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	token, ok := r.byConn[connID]
	if !ok {
		return Entry{}, false
	}
	return *r.byToken[token], true
}

// ConnFor returns the connection bound to token, or nil
func (r *Registry) ConnFor(token string) Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.byToken[token]; ok {
		return e.Conn
	}
	return nil
}

// Bind points token at conn. If another connection was bound it is detached
// and returned so the caller can tell it it was replaced.
func (r *Registry) Bind(token string, conn Conn) (Conn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byToken[token]
	if !ok {
		return nil, ErrUnknownToken
	}
	prev := e.Conn
	if prev != nil && prev.ID() == conn.ID() {
		return nil, nil
	}
	if prev != nil {
		delete(r.byConn, prev.ID())
	}
	r.attachLocked(token, conn)
	return prev, nil
}

// Unbind detaches conn from its session. It does nothing, and returns false,
// if conn is not the connection currently bound, so a replaced connection
// closing late cannot disconnect its successor.
func (r *Registry) Unbind(conn Conn) (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.byConn[conn.ID()]
	if !ok {
		return Entry{}, false
	}
	delete(r.byConn, conn.ID())
	e := r.byToken[token]
	e.Conn = nil
	return *e, true
}

// Remove invalidates a token
func (r *Registry) Remove(token string) (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byToken[token]
	if !ok {
		return Entry{}, false
	}
	delete(r.byToken, token)
	if e.Conn != nil {
		delete(r.byConn, e.Conn.ID())
	}
	return *e, true
}

// RemoveRoom invalidates every token belonging to a room
func (r *Registry) RemoveRoom(roomCode string) []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed []Entry
	for token, e := range r.byToken {
		if e.RoomCode != roomCode {
			continue
		}
		delete(r.byToken, token)
		if e.Conn != nil {
			delete(r.byConn, e.Conn.ID())
		}
		removed = append(removed, *e)
	}
	return removed
}

// Len counts registered sessions
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byToken)
}

// attachLocked binds conn to token, first releasing any session conn held
func (r *Registry) attachLocked(token string, conn Conn) {
	if old, ok := r.byConn[conn.ID()]; ok && old != token {
		if e, ok := r.byToken[old]; ok {
			e.Conn = nil
		}
	}
	r.byConn[conn.ID()] = token
	r.byToken[token].Conn = conn
}
