package database

import "time"

type User struct {
	Id           int
	Username     string
	EmailAddress string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Room struct {
	Id           int
	Code         string
	Name         string
	Mode         string
	HostId       int
	CreatedAt    time.Time
	ExpiresAt    time.Time
	Participants []Participant
}

type Participant struct {
	Id        int
	RoomId    int
	AccountId int
	Username  string
	JoinedAt  time.Time
}

type CreateAccountParams struct {
	Username     string
	EmailAddress string
	PasswordHash string
}

type CreateRoomParams struct {
	Code   string
	Name   string
	Mode   string
	HostId int
}
