package session

import "errors"

var (
	// ErrRoomNotFound is returned on handshake when the room code is
	// unknown, the backing room record has expired, or a guest tries to
	// attach before the host has brought the session up.
	ErrRoomNotFound = errors.New("room not found")

	// ErrUnauthorized is returned on handshake when the caller's token
	// does not resolve to a participant identity.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrSessionClosed is returned when attaching to a session that is
	// already unloading.
	ErrSessionClosed = errors.New("session closed")

	// ErrIllegalMove is returned by a mode's Rules implementation when a
	// move payload is structurally invalid for its board.
	ErrIllegalMove = errors.New("illegal move")
)

// Rejection reason codes returned to the issuing connection. Rejections
// never mutate state and are never broadcast.
const (
	ReasonNotHost        = "not_host"
	ReasonWrongMode      = "wrong_mode"
	ReasonNotYourTurn    = "not_your_turn"
	ReasonAlreadyVoted   = "already_voted"
	ReasonIllegalMove    = "illegal_move"
	ReasonGameNotReady   = "game_not_ready"
	ReasonInvalidMessage = "invalid_message"
)

type Rejection struct {
	Reason  string
	Message string
}

func (r *Rejection) Error() string {
	return r.Reason + ": " + r.Message
}

func reject(reason, message string) *Rejection {
	return &Rejection{Reason: reason, Message: message}
}
