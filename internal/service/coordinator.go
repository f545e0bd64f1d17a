package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"wordrush/internal/game"
	"wordrush/internal/model"
	"wordrush/internal/session"

	"github.com/rs/zerolog/log"
)

const (
	// MaxNameLength caps a display name, in runes
	MaxNameLength  = 24
	commandTimeout = 5 * time.Second
	hijackMessage  = "Session opened in another tab"
)

type handler func(ctx context.Context, conn session.Conn, payload json.RawMessage) error

// Coordinator connects transport events to rooms and sessions. The transport
// calls Connect, Handle and Disconnect; rooms reply through the registry.
type Coordinator struct {
	dir      *Directory
	sessions *session.Registry
	auth     *AuthService
	handlers map[model.MessageType]handler

	mu    sync.RWMutex
	conns map[string]session.Conn
}

// NewCoordinator wires a coordinator to the directory and registry
func NewCoordinator(dir *Directory, sessions *session.Registry, auth *AuthService) *Coordinator {
	c := &Coordinator{
		dir:      dir,
		sessions: sessions,
		auth:     auth,
		conns:    make(map[string]session.Conn),
	}
	c.handlers = map[model.MessageType]handler{
		model.MsgJoinGame:       c.handleJoin,
		model.MsgRejoinGame:     c.handleRejoin,
		model.MsgGetGames:       c.handleGetGames,
		model.MsgStartGame:      c.handleStart,
		model.MsgUpdateSettings: c.handleUpdateSettings,
		model.MsgSubmitAnswers:  c.handleSubmitAnswers,
		model.MsgSubmitScores:   c.handleSubmitScores,
		model.MsgNextRound:      c.handleNextRound,
		model.MsgEndGame:        c.handleEndGame,
		model.MsgLeaveGame:      c.handleLeave,
	}
	dir.OnChange(c.broadcastGames)
	dir.OnRemove(func(code string) {
		sessions.RemoveRoom(code)
	})
	return c
}

// Connect registers a newly opened connection
func (c *Coordinator) Connect(conn session.Conn) {
	c.mu.Lock()
	c.conns[conn.ID()] = conn
	c.mu.Unlock()
	log.Debug().Str("conn", conn.ID()).Msg("connection opened")
}

// Disconnect handles a closed connection. The player keeps their seat.
func (c *Coordinator) Disconnect(conn session.Conn) {
	c.mu.Lock()
	delete(c.conns, conn.ID())
	c.mu.Unlock()

	entry, ok := c.sessions.Unbind(conn)
	if !ok {
		return
	}
	room, ok := c.dir.Get(entry.RoomCode)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	if err := room.Disconnect(ctx, entry.PlayerID, conn.ID()); err != nil && !errors.Is(err, model.ErrRoomClosed) {
		log.Warn().Err(err).Str("room", entry.RoomCode).Str("player", entry.PlayerID).Msg("disconnect")
	}
}

// Handle decodes one inbound frame and dispatches it. Failures are reported
// to this connection only.
func (c *Coordinator) Handle(ctx context.Context, conn session.Conn, data []byte) {
	var msg model.Message
	if err := json.Unmarshal(data, &msg); err != nil || msg.Type == "" {
		c.reply(conn, model.ErrorMessage(model.ErrInvalidMessage))
		return
	}
	h, ok := c.handlers[msg.Type]
	if !ok {
		c.reply(conn, model.ErrorMessage(model.NewError(model.CodeUnknownType, fmt.Sprintf("unknown message type %q", msg.Type))))
		return
	}

	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()
	if err := c.dispatch(ctx, h, conn, msg.Payload); err != nil {
		ge := model.AsGameError(err)
		if ge.Code == model.CodeInternal {
			log.Error().Err(err).Str("conn", conn.ID()).Str("type", string(msg.Type)).Msg("command failed")
		}
		c.reply(conn, model.ErrorMessage(ge))
	}
}

func (c *Coordinator) dispatch(ctx context.Context, h handler, conn session.Conn, payload json.RawMessage) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("handler panic: %v", rec)
		}
	}()
	return h(ctx, conn, payload)
}

// Rooms exposes the directory to the REST layer
func (c *Coordinator) Rooms() *Directory { return c.dir }

func (c *Coordinator) reply(conn session.Conn, msg *model.Message) {
	if err := conn.Send(msg); err != nil {
		log.Debug().Err(err).Str("conn", conn.ID()).Msg("reply dropped")
	}
}

// broadcastGames pushes the listing to every connection not seated in a room
func (c *Coordinator) broadcastGames() {
	msg := c.gamesList()
	c.mu.RLock()
	conns := make([]session.Conn, 0, len(c.conns))
	for _, conn := range c.conns {
		conns = append(conns, conn)
	}
	c.mu.RUnlock()

	for _, conn := range conns {
		if _, bound := c.sessions.ForConn(conn.ID()); !bound {
			c.reply(conn, msg)
		}
	}
}

func (c *Coordinator) gamesList() *model.Message {
	return model.NewMessage(model.MsgGamesList, model.GamesListPayload{Games: c.dir.List()})
}

// seat resolves the room and session the connection speaks for
func (c *Coordinator) seat(conn session.Conn) (*game.Room, session.Entry, error) {
	entry, ok := c.sessions.ForConn(conn.ID())
	if !ok {
		return nil, session.Entry{}, model.ErrNotInRoom
	}
	room, ok := c.dir.Get(entry.RoomCode)
	if !ok {
		c.sessions.Remove(entry.Token)
		return nil, session.Entry{}, model.ErrRoomNotFound
	}
	return room, entry, nil
}

func decode(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return model.Invalid("malformed payload")
	}
	return nil
}

func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if n := utf8.RuneCountInString(name); n == 0 || n > MaxNameLength {
		return "", model.Invalid(fmt.Sprintf("player_name must be 1 to %d characters", MaxNameLength))
	}
	return name, nil
}

func (c *Coordinator) handleJoin(ctx context.Context, conn session.Conn, payload json.RawMessage) error {
	var p model.JoinGamePayload
	if err := decode(payload, &p); err != nil {
		return err
	}
	name, err := cleanName(p.PlayerName)
	if err != nil {
		return err
	}
	if _, bound := c.sessions.ForConn(conn.ID()); bound {
		return model.ErrAlreadyInRoom
	}

	var room *game.Room
	if strings.TrimSpace(p.RoomCode) == "" {
		if room, err = c.dir.Create(p.PreciseScoring); err != nil {
			return err
		}
	} else {
		var ok bool
		if room, ok = c.dir.Get(p.RoomCode); !ok {
			return model.ErrRoomNotFound
		}
	}

	playerID := c.auth.NewPlayerID()
	token, err := c.auth.IssueSessionToken(room.Code(), playerID)
	if err != nil {
		return fmt.Errorf("issue session token: %w", err)
	}
	if err := c.sessions.Register(token, room.Code(), playerID, conn); err != nil {
		return fmt.Errorf("register session: %w", err)
	}
	if err := room.Join(ctx, game.JoinRequest{PlayerID: playerID, Name: name, Token: token, ConnID: conn.ID()}); err != nil {
		c.sessions.Remove(token)
		return err
	}
	log.Info().Str("conn", conn.ID()).Str("room", room.Code()).Str("player", playerID).Msg("joined")
	return nil
}

func (c *Coordinator) handleRejoin(ctx context.Context, conn session.Conn, payload json.RawMessage) error {
	var p model.RejoinGamePayload
	if err := decode(payload, &p); err != nil {
		return err
	}
	if p.SessionToken == "" {
		return model.Invalid("session_token is required")
	}
	claims, err := c.auth.ValidateSessionToken(p.SessionToken)
	if err != nil {
		return model.ErrSessionExpired
	}
	entry, ok := c.sessions.Lookup(p.SessionToken)
	if !ok || entry.RoomCode != claims.RoomCode || entry.PlayerID != claims.PlayerID {
		return model.ErrSessionExpired
	}
	if current, bound := c.sessions.ForConn(conn.ID()); bound && current.Token != p.SessionToken {
		return model.ErrAlreadyInRoom
	}
	room, ok := c.dir.Get(entry.RoomCode)
	if !ok {
		c.sessions.Remove(p.SessionToken)
		return model.ErrSessionExpired
	}

	prev, err := c.sessions.Bind(p.SessionToken, conn)
	if err != nil {
		return model.ErrSessionExpired
	}
	if prev != nil {
		log.Info().Str("room", entry.RoomCode).Str("player", entry.PlayerID).Str("old_conn", prev.ID()).Str("conn", conn.ID()).Msg("session hijacked")
		c.reply(prev, model.NewMessage(model.MsgSessionHijacked, model.SessionHijackedPayload{Message: hijackMessage}))
		prev.Close("session opened elsewhere")
	}

	if err := room.Reconnect(ctx, entry.PlayerID, conn.ID()); err != nil {
		if errors.Is(err, model.ErrSessionExpired) {
			c.sessions.Remove(p.SessionToken)
		} else {
			c.sessions.Unbind(conn)
		}
		return err
	}
	log.Info().Str("conn", conn.ID()).Str("room", entry.RoomCode).Str("player", entry.PlayerID).Msg("rejoined")
	return nil
}

func (c *Coordinator) handleGetGames(ctx context.Context, conn session.Conn, payload json.RawMessage) error {
	c.reply(conn, c.gamesList())
	return nil
}

func (c *Coordinator) handleStart(ctx context.Context, conn session.Conn, payload json.RawMessage) error {
	var u model.SettingsUpdate
	if err := decode(payload, &u); err != nil {
		return err
	}
	room, entry, err := c.seat(conn)
	if err != nil {
		return err
	}
	return room.Start(ctx, entry.PlayerID, u)
}

func (c *Coordinator) handleUpdateSettings(ctx context.Context, conn session.Conn, payload json.RawMessage) error {
	var u model.SettingsUpdate
	if err := decode(payload, &u); err != nil {
		return err
	}
	room, entry, err := c.seat(conn)
	if err != nil {
		return err
	}
	return room.UpdateSettings(ctx, entry.PlayerID, u)
}

func (c *Coordinator) handleSubmitAnswers(ctx context.Context, conn session.Conn, payload json.RawMessage) error {
	var p model.SubmitAnswersPayload
	if err := decode(payload, &p); err != nil {
		return err
	}
	room, entry, err := c.seat(conn)
	if err != nil {
		return err
	}
	return room.SubmitAnswers(ctx, entry.PlayerID, p.Answers)
}

func (c *Coordinator) handleSubmitScores(ctx context.Context, conn session.Conn, payload json.RawMessage) error {
	var p model.SubmitScoresPayload
	if err := decode(payload, &p); err != nil {
		return err
	}
	room, entry, err := c.seat(conn)
	if err != nil {
		return err
	}
	return room.SubmitScores(ctx, entry.PlayerID, p.Scores)
}

func (c *Coordinator) handleNextRound(ctx context.Context, conn session.Conn, payload json.RawMessage) error {
	room, entry, err := c.seat(conn)
	if err != nil {
		return err
	}
	return room.NextRound(ctx, entry.PlayerID)
}

func (c *Coordinator) handleEndGame(ctx context.Context, conn session.Conn, payload json.RawMessage) error {
	room, entry, err := c.seat(conn)
	if err != nil {
		return err
	}
	return room.EndGame(ctx, entry.PlayerID)
}

func (c *Coordinator) handleLeave(ctx context.Context, conn session.Conn, payload json.RawMessage) error {
	room, entry, err := c.seat(conn)
	if err != nil {
		return err
	}
	err = room.Leave(ctx, entry.PlayerID)
	c.sessions.Remove(entry.Token)
	if err != nil && !errors.Is(err, model.ErrNotInRoom) && !errors.Is(err, model.ErrRoomClosed) {
		return err
	}
	log.Info().Str("conn", conn.ID()).Str("room", entry.RoomCode).Str("player", entry.PlayerID).Msg("left")
	c.reply(conn, c.gamesList())
	return nil
}
