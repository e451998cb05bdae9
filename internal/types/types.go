package types

import (
	"time"
)

// Mode is the activity a room is created for. It is fixed for the
// lifetime of the room.
type Mode string

const (
	ModeMusic  Mode = "MUSIC"
	ModeMovie  Mode = "MOVIE"
	ModeChat   Mode = "CHAT"
	ModeVoting Mode = "VOTING"
	ModeLudo   Mode = "LUDO"
	ModeChess  Mode = "CHESS"
)

// ValidMode reports whether m is one of the six supported room modes.
func ValidMode(m Mode) bool {
	switch m {
	case ModeMusic, ModeMovie, ModeChat, ModeVoting, ModeLudo, ModeChess:
		return true
	}
	return false
}

type User struct {
	Id           int       `json:"id"`
	Username     string    `json:"username"`
	EmailAddress string    `json:"email_address,omitempty"`
	Password     string    `json:"-"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
	UpdatedAt    time.Time `json:"updated_at,omitempty"`
}

type Room struct {
	Id           int       `json:"id"`
	Code         string    `json:"code"`
	Name         string    `json:"name"`
	Mode         Mode      `json:"mode"`
	HostId       int       `json:"host_id"`
	Participants []User    `json:"participants,omitempty"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"`
}

// MediaState is the host-authoritative playback state. Guests derive the
// live position from (Position, UpdatedAt, Playing); they never advance
// it on their own authority.
type MediaState struct {
	Title     string    `json:"title"`
	Artist    string    `json:"artist,omitempty"`
	Thumbnail string    `json:"thumbnail,omitempty"`
	Duration  float64   `json:"duration"`
	Playing   bool      `json:"playing"`
	Position  float64   `json:"position"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ChatMessage struct {
	Id        string    `json:"id"`
	UserId    int       `json:"user_id"`
	Username  string    `json:"username"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

type PollOption struct {
	Id    int    `json:"id"`
	Text  string `json:"text"`
	Votes int    `json:"votes"`
}

type Poll struct {
	Id       string       `json:"id"`
	Question string       `json:"question"`
	Options  []PollOption `json:"options"`
}

// GameState is the board snapshot a mode's rule set maintains. Board is
// opaque to the session core; the core only enforces whose turn it is.
type GameState struct {
	Mode    Mode           `json:"mode"`
	TurnId  int            `json:"turn_id"`
	Players []int          `json:"players"`
	Board   map[string]any `json:"board,omitempty"`
}
