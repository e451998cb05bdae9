package session

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hangoutx/hangoutx-server/internal/types"
)

// chatLogCap bounds the in-memory chat log. The oldest entry is evicted
// once the cap is reached; evicted entries are not recoverable.
const chatLogCap = 500

// sessionState holds the canonical mutable state of one session. It is
// owned exclusively by the session's run loop, so none of its methods
// take locks.
type sessionState struct {
	media   types.MediaState
	chatLog []types.ChatMessage
	poll    *types.Poll
	voted   map[int]struct{}
	game    *types.GameState
}

func newSessionState() *sessionState {
	return &sessionState{}
}

// syncedPosition reconstructs the playback position at now from the last
// stored (position, timestamp, playing) triple. The position never moves
// backward except on an explicit seek.
func (st *sessionState) syncedPosition(now time.Time) float64 {
	pos := st.media.Position
	if st.media.Playing {
		pos += now.Sub(st.media.UpdatedAt).Seconds()
	}
	if st.media.Duration > 0 && pos > st.media.Duration {
		pos = st.media.Duration
	}
	return pos
}

// mediaSnapshot returns the media state with the position synced to now,
// for inclusion in handshake snapshots.
func (st *sessionState) mediaSnapshot(now time.Time) types.MediaState {
	m := st.media
	m.Position = st.syncedPosition(now)
	m.UpdatedAt = now
	return m
}

func (st *sessionState) applyPlay(now time.Time) *StateDelta {
	st.media.Position = st.syncedPosition(now)
	st.media.Playing = true
	st.media.UpdatedAt = now
	return st.mediaDelta()
}

func (st *sessionState) applyPause(now time.Time) *StateDelta {
	st.media.Position = st.syncedPosition(now)
	st.media.Playing = false
	st.media.UpdatedAt = now
	return st.mediaDelta()
}

func (st *sessionState) applySeek(position float64, now time.Time) *StateDelta {
	if position < 0 {
		position = 0
	}
	if st.media.Duration > 0 && position > st.media.Duration {
		position = st.media.Duration
	}
	st.media.Position = position
	st.media.UpdatedAt = now
	return st.mediaDelta()
}

func (st *sessionState) applySetMedia(m *SetMedia, now time.Time) *StateDelta {
	st.media = types.MediaState{
		Title:     m.Title,
		Artist:    m.Artist,
		Thumbnail: m.Thumbnail,
		Duration:  m.Duration,
		UpdatedAt: now,
	}
	return st.mediaDelta()
}

func (st *sessionState) mediaDelta() *StateDelta {
	media := st.media
	return &StateDelta{Kind: DeltaMedia, Media: &media}
}

// appendChat appends a message, evicting the oldest entry once the log
// is full.
func (st *sessionState) appendChat(userId int, username, text string, now time.Time) *StateDelta {
	msg := types.ChatMessage{
		Id:        uuid.NewString(),
		UserId:    userId,
		Username:  username,
		Text:      text,
		Timestamp: now,
	}

	st.chatLog = append(st.chatLog, msg)
	if len(st.chatLog) > chatLogCap {
		st.chatLog = st.chatLog[len(st.chatLog)-chatLogCap:]
	}

	return &StateDelta{Kind: DeltaChat, Chat: &msg}
}

// newPoll replaces the active poll. All tallies start at zero and the
// voted set is cleared.
func (st *sessionState) newPoll(question string, options []string) (*StateDelta, *Rejection) {
	if question == "" || len(options) < 2 {
		return nil, reject(ReasonInvalidMessage, "a poll needs a question and at least two options")
	}

	poll := &types.Poll{
		Id:       uuid.NewString(),
		Question: question,
	}
	for i, opt := range options {
		poll.Options = append(poll.Options, types.PollOption{Id: i, Text: opt})
	}

	st.poll = poll
	st.voted = make(map[int]struct{})

	return st.pollDelta(), nil
}

// castVote records a single vote per participant per poll.
func (st *sessionState) castVote(userId, optionId int) (*StateDelta, *Rejection) {
	if st.poll == nil {
		return nil, reject(ReasonInvalidMessage, "no active poll")
	}
	if optionId < 0 || optionId >= len(st.poll.Options) {
		return nil, reject(ReasonInvalidMessage, fmt.Sprintf("no option with id %d", optionId))
	}
	if _, ok := st.voted[userId]; ok {
		return nil, reject(ReasonAlreadyVoted, "participant already voted in this poll")
	}

	st.poll.Options[optionId].Votes++
	st.voted[userId] = struct{}{}

	return st.pollDelta(), nil
}

func (st *sessionState) pollDelta() *StateDelta {
	poll := *st.poll
	poll.Options = append([]types.PollOption(nil), st.poll.Options...)
	return &StateDelta{Kind: DeltaPoll, Poll: &poll}
}
