package session

import (
	"encoding/json"
	"time"
)

// CommandKind identifies the variant set in a ClientMessage.
type CommandKind string

const (
	KindPlay     CommandKind = "play"
	KindPause    CommandKind = "pause"
	KindSeek     CommandKind = "seek"
	KindSetMedia CommandKind = "set_media"
	KindChat     CommandKind = "chat"
	KindNewPoll  CommandKind = "new_poll"
	KindVote     CommandKind = "vote"
	KindMove     CommandKind = "move"
	KindReaction CommandKind = "reaction"
	KindUnknown  CommandKind = "unknown"
)

type BaseMessage struct {
	Id        int       `json:"id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ClientMessage is the client-to-server command envelope. Exactly one of
// the variant fields is set.
type ClientMessage struct {
	BaseMessage
	Play     *Play     `json:"play,omitempty"`
	Pause    *Pause    `json:"pause,omitempty"`
	Seek     *Seek     `json:"seek,omitempty"`
	SetMedia *SetMedia `json:"set_media,omitempty"`
	Chat     *Chat     `json:"chat,omitempty"`
	NewPoll  *NewPoll  `json:"new_poll,omitempty"`
	Vote     *Vote     `json:"vote,omitempty"`
	Move     *Move     `json:"move,omitempty"`
	Reaction *Reaction `json:"reaction,omitempty"`
	UserId   int       `json:"-"`
	conn     *Conn
}

type Play struct{}

type Pause struct{}

type Seek struct {
	Position float64 `json:"position"`
}

type SetMedia struct {
	Title     string  `json:"title"`
	Artist    string  `json:"artist,omitempty"`
	Thumbnail string  `json:"thumbnail,omitempty"`
	Duration  float64 `json:"duration"`
}

type Chat struct {
	Text string `json:"text"`
}

type NewPoll struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

type Vote struct {
	OptionId int `json:"option_id"`
}

type Move struct {
	Data json.RawMessage `json:"data"`
}

type Reaction struct {
	Emoji string `json:"emoji"`
}

// Kind returns the variant tag of the message, or KindUnknown if no
// variant field is set.
func (m *ClientMessage) Kind() CommandKind {
	switch {
	case m.Play != nil:
		return KindPlay
	case m.Pause != nil:
		return KindPause
	case m.Seek != nil:
		return KindSeek
	case m.SetMedia != nil:
		return KindSetMedia
	case m.Chat != nil:
		return KindChat
	case m.NewPoll != nil:
		return KindNewPoll
	case m.Vote != nil:
		return KindVote
	case m.Move != nil:
		return KindMove
	case m.Reaction != nil:
		return KindReaction
	}
	return KindUnknown
}
