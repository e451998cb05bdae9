package session

import (
	"net/http"
	"time"

	"github.com/hangoutx/hangoutx-server/internal/types"
)

// ServerEvent is the server-to-client event envelope.
type ServerEvent struct {
	BaseMessage
	Response *Response          `json:"response,omitempty"`
	Delta    *StateDelta        `json:"delta,omitempty"`
	Snapshot *Snapshot          `json:"snapshot,omitempty"`
	Joined   *ParticipantJoined `json:"participant_joined,omitempty"`
	Left     *ParticipantLeft   `json:"participant_left,omitempty"`
	skip     *Conn
}

// Response acknowledges or rejects the command with the matching Id. It
// is only ever delivered to the issuing connection.
type Response struct {
	ResponseCode int    `json:"response_code"`
	Error        string `json:"error,omitempty"`
	Data         any    `json:"data,omitempty"`
}

// StateDelta is one accepted mutation of session state, broadcast to all
// attached connections. Exactly one payload field is set per Kind.
type StateDelta struct {
	Kind     string             `json:"kind"`
	Media    *types.MediaState  `json:"media,omitempty"`
	Chat     *types.ChatMessage `json:"chat,omitempty"`
	Poll     *types.Poll        `json:"poll,omitempty"`
	Game     *types.GameState   `json:"game,omitempty"`
	Reaction *ReactionEvent     `json:"reaction,omitempty"`
}

const (
	DeltaMedia    = "media"
	DeltaChat     = "chat"
	DeltaPoll     = "poll"
	DeltaGame     = "game"
	DeltaReaction = "reaction"
)

// ReactionEvent is ephemeral: it is fanned out and never stored.
type ReactionEvent struct {
	UserId   int    `json:"user_id"`
	Username string `json:"username"`
	Emoji    string `json:"emoji"`
}

// Snapshot is the full session state sent to a connection right after a
// successful handshake.
type Snapshot struct {
	RoomCode     string              `json:"room_code"`
	RoomName     string              `json:"room_name"`
	Mode         types.Mode          `json:"mode"`
	HostId       int                 `json:"host_id"`
	Participants []RosterEntry       `json:"participants"`
	Media        types.MediaState    `json:"media"`
	ChatLog      []types.ChatMessage `json:"chat_log"`
	Poll         *types.Poll         `json:"poll,omitempty"`
	Game         *types.GameState    `json:"game,omitempty"`
}

type RosterEntry struct {
	UserId   int    `json:"user_id"`
	Username string `json:"username"`
	Online   bool   `json:"online"`
}

type ParticipantJoined struct {
	UserId   int    `json:"user_id"`
	Username string `json:"username"`
}

type ParticipantLeft struct {
	UserId   int    `json:"user_id"`
	Username string `json:"username"`
}

func NoErrOK(id int, data any) *ServerEvent {
	return &ServerEvent{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusOK,
			Data:         data,
		},
	}
}

func NoErrAccepted(id int) *ServerEvent {
	return &ServerEvent{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusAccepted,
		},
	}
}

// ErrRejected maps a policy or state-machine rejection to a response for
// the issuing connection.
func ErrRejected(id int, rej *Rejection) *ServerEvent {
	code := http.StatusForbidden
	switch rej.Reason {
	case ReasonAlreadyVoted:
		code = http.StatusConflict
	case ReasonIllegalMove, ReasonGameNotReady:
		code = http.StatusUnprocessableEntity
	case ReasonInvalidMessage:
		code = http.StatusBadRequest
	}

	return &ServerEvent{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: code,
			Error:        rej.Reason,
		},
	}
}

func ErrInvalidMessage(id int) *ServerEvent {
	return ErrRejected(id, reject(ReasonInvalidMessage, "invalid message format"))
}

func ErrServiceUnavailable(id int) *ServerEvent {
	return &ServerEvent{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusServiceUnavailable,
			Error:        "service unavailable",
		},
	}
}

func Now() time.Time {
	return time.Now().UTC().Round(time.Millisecond)
}
