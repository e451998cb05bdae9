package database

import (
	"database/sql"
	"time"
)

// roomLifetime matches the 24h TTL on room records; lookups treat rooms
// past their expires_at as gone even before the reaper deletes them.
const roomLifetime = 24 * time.Hour

func (db *PgRepository) CreateAccount(params CreateAccountParams) (User, error) {
	res := db.conn.QueryRow(
		"INSERT INTO accounts (username, email, password_hash, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $4, $4) RETURNING id, username, email, created_at, updated_at",
		params.Username,
		params.EmailAddress,
		params.PasswordHash,
		time.Now().UTC(),
	)

	var u User
	err := res.Scan(
		&u.Id,
		&u.Username,
		&u.EmailAddress,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	return u, err
}

func (db *PgRepository) GetAccountById(accountId int) (User, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, email, created_at, updated_at FROM accounts "+
			"WHERE id = $1 LIMIT 1",
		accountId,
	)

	var u User
	err := row.Scan(
		&u.Id,
		&u.Username,
		&u.EmailAddress,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	return u, err
}

func (db *PgRepository) GetAccountByEmail(email string) (User, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, email, password_hash, created_at, updated_at FROM accounts "+
			"WHERE email = $1 LIMIT 1",
		email,
	)

	var u User
	err := row.Scan(
		&u.Id,
		&u.Username,
		&u.EmailAddress,
		&u.PasswordHash,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	return u, err
}

func (db *PgRepository) CreateRoom(params CreateRoomParams) (Room, error) {
	now := time.Now().UTC()
	res := db.conn.QueryRow(
		"INSERT INTO rooms (code, name, mode, host_id, created_at, expires_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, code, name, mode, host_id, created_at, expires_at",
		params.Code,
		params.Name,
		params.Mode,
		params.HostId,
		now,
		now.Add(roomLifetime),
	)

	var r Room
	err := res.Scan(
		&r.Id,
		&r.Code,
		&r.Name,
		&r.Mode,
		&r.HostId,
		&r.CreatedAt,
		&r.ExpiresAt,
	)

	return r, err
}

func (db *PgRepository) GetRoomByCode(code string) (Room, error) {
	row := db.conn.QueryRow(
		"SELECT id, code, name, mode, host_id, created_at, expires_at FROM rooms "+
			"WHERE code = $1 AND expires_at > $2 LIMIT 1",
		code,
		time.Now().UTC(),
	)

	var r Room
	err := row.Scan(
		&r.Id,
		&r.Code,
		&r.Name,
		&r.Mode,
		&r.HostId,
		&r.CreatedAt,
		&r.ExpiresAt,
	)

	return r, err
}

func (db *PgRepository) GetRoomWithParticipants(roomId int) (*Room, error) {
	query := `
		SELECT
				r.id,
				r.code,
				r.name,
				r.mode,
				r.host_id,
				r.created_at,
				r.expires_at,
				p.id,
				p.account_id,
				a.username,
				p.joined_at
		FROM rooms r
		LEFT JOIN room_participants p ON p.room_id = r.id
		LEFT JOIN accounts a ON a.id = p.account_id
		WHERE r.id = $1
		ORDER BY p.joined_at ASC`

	rows, err := db.conn.Query(query, roomId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var room *Room
	for rows.Next() {
		var r Room
		var pId, pAccountId sql.NullInt64
		var pUsername sql.NullString
		var pJoinedAt sql.NullTime
		if err := rows.Scan(
			&r.Id,
			&r.Code,
			&r.Name,
			&r.Mode,
			&r.HostId,
			&r.CreatedAt,
			&r.ExpiresAt,
			&pId,
			&pAccountId,
			&pUsername,
			&pJoinedAt,
		); err != nil {
			return nil, err
		}

		if room == nil {
			room = &r
		}
		if pId.Valid {
			room.Participants = append(room.Participants, Participant{
				Id:        int(pId.Int64),
				RoomId:    room.Id,
				AccountId: int(pAccountId.Int64),
				Username:  pUsername.String,
				JoinedAt:  pJoinedAt.Time,
			})
		}
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return room, nil
}

func (db *PgRepository) AddParticipant(roomId, accountId int) error {
	_, err := db.conn.Exec(
		"INSERT INTO room_participants (room_id, account_id, joined_at) "+
			"VALUES ($1, $2, $3) ON CONFLICT (room_id, account_id) DO NOTHING",
		roomId,
		accountId,
		time.Now().UTC(),
	)

	return err
}

func (db *PgRepository) IsParticipant(roomId, accountId int) bool {
	var exists bool
	err := db.conn.QueryRow(
		"SELECT EXISTS (SELECT 1 FROM room_participants WHERE room_id = $1 AND account_id = $2)",
		roomId,
		accountId,
	).Scan(&exists)

	return err == nil && exists
}

func (db *PgRepository) DeleteExpiredRooms() (int, error) {
	res, err := db.conn.Exec(
		"DELETE FROM rooms WHERE expires_at <= $1",
		time.Now().UTC(),
	)
	if err != nil {
		return 0, err
	}

	n, err := res.RowsAffected()
	return int(n), err
}
