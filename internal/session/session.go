package session

import (
	"log"
	"time"

	"github.com/hangoutx/hangoutx-server/internal/stats"
	"github.com/hangoutx/hangoutx-server/internal/types"
	"github.com/jonboulle/clockwork"
)

// graceTimeout is how long an empty session is kept alive to tolerate
// brief reconnects before it is unloaded.
const graceTimeout = 60 * time.Second

type participant struct {
	id       int
	username string
}

type attachReq struct {
	conn  *Conn
	reply chan struct{}
}

type exitReq struct {
	done chan struct{}
}

// Session owns the canonical state of one room. All mutation happens on
// its run loop, so commands for the same room are applied strictly one
// at a time in arrival order.
type Session struct {
	code      string
	roomId    int
	name      string
	mode      types.Mode
	hostId    int
	expiresAt time.Time

	reg   *Registry
	log   *log.Logger
	stats stats.StatsProvider
	clock clockwork.Clock
	rules Rules

	attachChan chan *attachReq
	detachChan chan *Conn
	cmdChan    chan *ClientMessage
	exit       chan exitReq
	done       chan struct{}

	// the fields below are owned by the run loop
	conns      map[*Conn]struct{}
	userConns  map[int]map[*Conn]struct{}
	roster     []participant
	state      *sessionState
	graceTimer clockwork.Timer
}

func newSession(room roomInfo, reg *Registry, logger *log.Logger, sp stats.StatsProvider, clock clockwork.Clock) *Session {
	s := &Session{
		code:       room.Code,
		roomId:     room.Id,
		name:       room.Name,
		mode:       room.Mode,
		hostId:     room.HostId,
		expiresAt:  room.ExpiresAt,
		reg:        reg,
		log:        logger,
		stats:      sp,
		clock:      clock,
		attachChan: make(chan *attachReq, 64),
		detachChan: make(chan *Conn, 64),
		cmdChan:    make(chan *ClientMessage, 256),
		exit:       make(chan exitReq),
		done:       make(chan struct{}),
		conns:      make(map[*Conn]struct{}),
		userConns:  make(map[int]map[*Conn]struct{}),
		state:      newSessionState(),
	}

	if rules, ok := RulesFor(s.mode); ok {
		s.rules = rules
	}

	return s
}

func (s *Session) Code() string     { return s.code }
func (s *Session) Mode() types.Mode { return s.mode }
func (s *Session) HostId() int      { return s.hostId }

// now is the timestamp source for every event the session emits; it
// follows the injected clock so fake-clock tests see consistent times.
func (s *Session) now() time.Time {
	return s.clock.Now().UTC().Round(time.Millisecond)
}

func (s *Session) run() {
	s.log.Printf("starting session %q (%s)", s.code, s.mode)
	// runs from birth so a session whose creator never attaches still
	// unloads; stopped again on first attach
	s.graceTimer = s.clock.NewTimer(graceTimeout)
	expiry := s.clock.NewTimer(s.expiresAt.Sub(s.clock.Now()))
	defer expiry.Stop()

	for {
		select {
		case req := <-s.attachChan:
			s.handleAttach(req)
		case c := <-s.detachChan:
			s.handleDetach(c)
		case msg := <-s.cmdChan:
			s.handleCommand(msg)
		case <-s.graceTimer.Chan():
			if s.graceFired() {
				return
			}
		case <-expiry.Chan():
			s.log.Printf("room %q expired, unloading session", s.code)
			s.reg.drop(s)
			s.shutdown()
			return
		case e := <-s.exit:
			s.shutdown()
			if e.done != nil {
				close(e.done)
			}
			return
		}
	}
}

// graceFired handles a grace-timer fire. Stop does not drain a timer
// that has already fired, so a fire queued in the same select round as
// a winning attach can still be delivered; with live connections it is
// stale and ignored (the timer is re-armed on the next empty detach).
// Reports whether the session unloaded.
func (s *Session) graceFired() bool {
	if len(s.conns) > 0 {
		return false
	}

	s.log.Printf("session %q empty past grace period, unloading", s.code)
	s.reg.drop(s)
	s.shutdown()
	return true
}

// shutdown closes the done gate first so new attaches and commands fail
// fast, then releases every connection.
func (s *Session) shutdown() {
	close(s.done)
	for c := range s.conns {
		c.close()
		s.stats.Decr(stats.ActiveConnections)
	}
	s.stats.Decr(stats.ActiveSessions)
}

// Attach registers a connection with the session. The state snapshot is
// queued as the connection's first event before Attach returns, so no
// broadcast can precede it.
func (s *Session) Attach(c *Conn) error {
	req := &attachReq{conn: c, reply: make(chan struct{})}

	select {
	case s.attachChan <- req:
	case <-s.done:
		return ErrSessionClosed
	}

	select {
	case <-req.reply:
		return nil
	case <-s.done:
		return ErrSessionClosed
	}
}

// Detach deregisters a connection. Safe to call after the session has
// unloaded.
func (s *Session) Detach(c *Conn) {
	select {
	case s.detachChan <- c:
	case <-s.done:
	}
}

// Submit queues a command for serial processing. A false return means
// the session is gone or its queue is full.
func (s *Session) Submit(msg *ClientMessage) bool {
	select {
	case <-s.done:
		return false
	default:
	}

	select {
	case s.cmdChan <- msg:
		return true
	default:
		return false
	}
}

func (s *Session) handleAttach(req *attachReq) {
	s.graceTimer.Stop()

	c := req.conn
	s.conns[c] = struct{}{}
	cameOnline := s.userConns[c.user.Id] == nil
	if cameOnline {
		s.userConns[c.user.Id] = make(map[*Conn]struct{})
	}
	s.userConns[c.user.Id][c] = struct{}{}

	if !s.inRoster(c.user.Id) {
		s.roster = append(s.roster, participant{id: c.user.Id, username: c.user.Username})
	}

	s.stats.Incr(stats.ActiveConnections)

	// queued on the loop goroutine so no later broadcast can outrun it
	c.queueEvent(&ServerEvent{
		BaseMessage: BaseMessage{Timestamp: s.now()},
		Snapshot:    s.snapshot(),
	})
	close(req.reply)

	if cameOnline {
		s.broadcast(&ServerEvent{
			BaseMessage: BaseMessage{Timestamp: s.now()},
			Joined:      &ParticipantJoined{UserId: c.user.Id, Username: c.user.Username},
			skip:        c,
		})
	}
}

func (s *Session) handleDetach(c *Conn) {
	if _, ok := s.conns[c]; !ok {
		return
	}

	s.removeConn(c)

	if s.userConns[c.user.Id] == nil {
		s.broadcast(&ServerEvent{
			BaseMessage: BaseMessage{Timestamp: s.now()},
			Left:        &ParticipantLeft{UserId: c.user.Id, Username: c.user.Username},
		})
	}

	if len(s.conns) == 0 {
		s.log.Printf("no connections in %q, starting grace timer", s.code)
		s.graceTimer.Reset(graceTimeout)
	}
}

func (s *Session) removeConn(c *Conn) {
	delete(s.conns, c)
	if userConns, ok := s.userConns[c.user.Id]; ok {
		delete(userConns, c)
		if len(userConns) == 0 {
			delete(s.userConns, c.user.Id)
		}
	}
	s.stats.Decr(stats.ActiveConnections)
}

func (s *Session) inRoster(userId int) bool {
	for _, p := range s.roster {
		if p.id == userId {
			return true
		}
	}
	return false
}

func (s *Session) handleCommand(msg *ClientMessage) {
	kind := msg.Kind()

	if rej := checkPolicy(kind, msg.UserId, s.hostId, s.mode); rej != nil {
		s.rejectCommand(msg, rej)
		return
	}

	var delta *StateDelta
	var rej *Rejection
	now := s.now()

	switch kind {
	case KindPlay:
		delta = s.state.applyPlay(now)
	case KindPause:
		delta = s.state.applyPause(now)
	case KindSeek:
		delta = s.state.applySeek(msg.Seek.Position, now)
	case KindSetMedia:
		delta = s.state.applySetMedia(msg.SetMedia, now)
	case KindChat:
		delta = s.state.appendChat(msg.UserId, msg.conn.user.Username, msg.Chat.Text, now)
	case KindNewPoll:
		delta, rej = s.state.newPoll(msg.NewPoll.Question, msg.NewPoll.Options)
	case KindVote:
		delta, rej = s.state.castVote(msg.UserId, msg.Vote.OptionId)
	case KindMove:
		delta, rej = s.applyMove(msg)
	case KindReaction:
		// ephemeral: fanned out, never stored
		delta = &StateDelta{Kind: DeltaReaction, Reaction: &ReactionEvent{
			UserId:   msg.UserId,
			Username: msg.conn.user.Username,
			Emoji:    msg.Reaction.Emoji,
		}}
	}

	if rej != nil {
		s.rejectCommand(msg, rej)
		return
	}

	ack := NoErrAccepted(msg.Id)
	ack.Timestamp = now
	msg.conn.queueEvent(ack)
	s.stats.Incr(stats.CommandsAccepted)

	ev := &ServerEvent{
		BaseMessage: BaseMessage{Timestamp: now},
		Delta:       delta,
	}
	if kind == KindReaction {
		// the originator already rendered the reaction locally
		ev.skip = msg.conn
	}
	s.broadcast(ev)
}

func (s *Session) rejectCommand(msg *ClientMessage, rej *Rejection) {
	s.log.Printf("rejected %s from user %d in %q: %s", msg.Kind(), msg.UserId, s.code, rej.Reason)
	ev := ErrRejected(msg.Id, rej)
	ev.Timestamp = s.now()
	msg.conn.queueEvent(ev)
	s.stats.Incr(stats.CommandsRejected)
}

func (s *Session) applyMove(msg *ClientMessage) (*StateDelta, *Rejection) {
	if s.state.game == nil {
		if len(s.roster) < s.rules.MinPlayers() {
			return nil, reject(ReasonGameNotReady, "not enough participants to start the game")
		}

		n := len(s.roster)
		if n > s.rules.MaxPlayers() {
			n = s.rules.MaxPlayers()
		}
		players := make([]int, n)
		for i := 0; i < n; i++ {
			players[i] = s.roster[i].id
		}
		s.state.game = s.rules.Start(players)
	}

	if s.state.game.TurnId != msg.UserId {
		return nil, reject(ReasonNotYourTurn, "it is not this participant's turn")
	}

	next, err := s.rules.ApplyMove(s.state.game, msg.UserId, msg.Move.Data)
	if err != nil {
		return nil, reject(ReasonIllegalMove, err.Error())
	}

	s.state.game = next
	game := *next
	return &StateDelta{Kind: DeltaGame, Game: &game}, nil
}

// broadcast fans an event out to every attached connection except the
// optional originator. Delivery is best-effort per connection: a slow or
// dead consumer is detached, never allowed to stall the others.
func (s *Session) broadcast(ev *ServerEvent) {
	var dead []*Conn
	for c := range s.conns {
		if c == ev.skip {
			continue
		}

		if !c.queueEvent(ev) {
			dead = append(dead, c)
		}
	}

	for _, c := range dead {
		s.log.Printf("detaching slow connection for user %d from %q", c.user.Id, s.code)
		s.stats.Incr(stats.EventsDropped)
		s.handleDetach(c)
		c.close()
	}
}

func (s *Session) snapshot() *Snapshot {
	snap := &Snapshot{
		RoomCode: s.code,
		RoomName: s.name,
		Mode:     s.mode,
		HostId:   s.hostId,
		Media:    s.state.mediaSnapshot(s.now()),
		ChatLog:  append([]types.ChatMessage(nil), s.state.chatLog...),
	}

	for _, p := range s.roster {
		snap.Participants = append(snap.Participants, RosterEntry{
			UserId:   p.id,
			Username: p.username,
			Online:   s.userConns[p.id] != nil,
		})
	}

	if s.state.poll != nil {
		d := s.state.pollDelta()
		snap.Poll = d.Poll
	}
	if s.state.game != nil {
		game := *s.state.game
		snap.Game = &game
	}

	return snap
}
