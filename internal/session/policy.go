package session

import (
	"github.com/hangoutx/hangoutx-server/internal/types"
)

// commandPolicy gates a command kind before it reaches the state
// machine: who may issue it, and in which room modes it is meaningful.
type commandPolicy struct {
	hostOnly bool
	// modes is the set of modes the command is tagged for; empty means
	// any mode.
	modes []types.Mode
}

var policyTable = map[CommandKind]commandPolicy{
	KindPlay:     {hostOnly: true, modes: []types.Mode{types.ModeMovie, types.ModeMusic}},
	KindPause:    {hostOnly: true, modes: []types.Mode{types.ModeMovie, types.ModeMusic}},
	KindSeek:     {hostOnly: true, modes: []types.Mode{types.ModeMovie, types.ModeMusic}},
	KindSetMedia: {hostOnly: true, modes: []types.Mode{types.ModeMovie, types.ModeMusic}},
	KindNewPoll:  {hostOnly: true, modes: []types.Mode{types.ModeVoting}},
	KindVote:     {modes: []types.Mode{types.ModeVoting}},
	KindMove:     {modes: []types.Mode{types.ModeLudo, types.ModeChess}},
	KindChat:     {},
	KindReaction: {},
}

// checkPolicy returns nil if the participant may issue the command in
// the given mode, or the rejection to send back.
func checkPolicy(kind CommandKind, userId, hostId int, mode types.Mode) *Rejection {
	policy, ok := policyTable[kind]
	if !ok {
		return reject(ReasonInvalidMessage, "unknown command")
	}

	if policy.hostOnly && userId != hostId {
		return reject(ReasonNotHost, "command is restricted to the host")
	}

	if len(policy.modes) > 0 {
		allowed := false
		for _, m := range policy.modes {
			if m == mode {
				allowed = true
				break
			}
		}
		if !allowed {
			return reject(ReasonWrongMode, "command does not apply to this room's mode")
		}
	}

	return nil
}
