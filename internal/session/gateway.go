package session

import (
	"database/sql"
	"errors"
	"log"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/hangoutx/hangoutx-server/internal/database"
	"github.com/hangoutx/hangoutx-server/internal/types"
)

// Gateway admits authenticated participants into live sessions. The
// caller is responsible for resolving the participant identity from its
// auth token; room codes are resolved against the room directory here.
type Gateway struct {
	reg *Registry
	db  database.Repository
	log *log.Logger
}

func NewGateway(reg *Registry, db database.Repository, logger *log.Logger) *Gateway {
	return &Gateway{
		reg: reg,
		db:  db,
		log: logger,
	}
}

// NormalizeCode uppercases a room code; codes are case-insensitive on
// the wire and stored uppercase.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Resolve maps a room code and an authenticated participant to the
// session to attach to. The host's join brings the session up; guests
// need a live session and get RoomNotFound otherwise. Expired or unknown
// codes fail before any connection is attached.
func (g *Gateway) Resolve(code string, user types.User) (*Session, error) {
	code = NormalizeCode(code)

	room, err := g.db.GetRoomByCode(code)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			g.log.Println("room lookup:", err)
		}
		return nil, ErrRoomNotFound
	}

	info := roomInfo{
		Id:        room.Id,
		Code:      room.Code,
		Name:      room.Name,
		Mode:      types.Mode(room.Mode),
		HostId:    room.HostId,
		ExpiresAt: room.ExpiresAt,
	}

	var s *Session
	if user.Id == room.HostId {
		s = g.reg.getOrCreate(info)
	} else {
		live, ok := g.reg.get(code)
		if !ok {
			return nil, ErrRoomNotFound
		}
		s = live
	}

	// keep the directory's participant list in step with the roster;
	// idempotent for returning participants
	if err := g.db.AddParticipant(room.Id, user.Id); err != nil {
		g.log.Println("add participant:", err)
	}

	return s, nil
}

// Serve binds an upgraded websocket to the session and starts the
// connection's pumps. The session queues the state snapshot as the
// connection's first event during Attach.
func (g *Gateway) Serve(s *Session, ws *websocket.Conn, user types.User) error {
	c := newConn(ws, s, user, g.log)

	if err := s.Attach(c); err != nil {
		return err
	}

	go c.Write()
	go c.Read()

	return nil
}
