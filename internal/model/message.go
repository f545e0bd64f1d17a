package model

import "encoding/json"

// MessageType defines the type of a WebSocket message
type MessageType string

// Client -> server commands
const (
	MsgJoinGame       MessageType = "JOIN_GAME"
	MsgRejoinGame     MessageType = "REJOIN_GAME"
	MsgGetGames       MessageType = "GET_GAMES"
	MsgStartGame      MessageType = "START_GAME"
	MsgUpdateSettings MessageType = "UPDATE_SETTINGS"
	MsgSubmitAnswers  MessageType = "SUBMIT_ANSWERS"
	MsgSubmitScores   MessageType = "SUBMIT_SCORES"
	MsgNextRound      MessageType = "NEXT_ROUND"
	MsgEndGame        MessageType = "END_GAME"
	MsgLeaveGame      MessageType = "LEAVE_GAME"
)

// Server -> client events
const (
	MsgLobbyUpdate        MessageType = "LOBBY_UPDATE"
	MsgGamesList          MessageType = "GAMES_LIST"
	MsgRoundStart         MessageType = "ROUND_START"
	MsgOpponentSubmitted  MessageType = "OPPONENT_SUBMITTED"
	MsgRoundEnded         MessageType = "ROUND_ENDED"
	MsgScoringUpdate      MessageType = "SCORING_UPDATE"
	MsgScoringTimeout     MessageType = "SCORING_TIMEOUT"
	MsgRoundResults       MessageType = "ROUND_RESULTS"
	MsgGameOver           MessageType = "GAME_OVER"
	MsgReconnected        MessageType = "RECONNECTED"
	MsgPlayerDisconnected MessageType = "PLAYER_DISCONNECTED"
	MsgPlayerReconnected  MessageType = "PLAYER_RECONNECTED"
	MsgHostChanged        MessageType = "HOST_CHANGED"
	MsgSessionHijacked    MessageType = "SESSION_HIJACKED"
	MsgError              MessageType = "ERROR"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewMessage marshals payload into an envelope of the given type.
// Payload types are plain structs and maps, so marshalling cannot fail in practice;
// a failure yields an envelope with an empty payload.
func NewMessage(msgType MessageType, payload interface{}) *Message {
	msg := &Message{Type: msgType}
	if payload == nil {
		return msg
	}
	data, err := json.Marshal(payload)
	if err == nil {
		msg.Payload = data
	}
	return msg
}

// ErrorMessage builds an ERROR envelope from a domain error
func ErrorMessage(err *GameError) *Message {
	return NewMessage(MsgError, ErrorPayload{Message: err.Message, Code: err.Code})
}
