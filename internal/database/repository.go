package database

type Repository interface {
	Ping() error
	CreateAccount(params CreateAccountParams) (User, error)
	GetAccountById(accountId int) (User, error)
	GetAccountByEmail(email string) (User, error)
	CreateRoom(params CreateRoomParams) (Room, error)
	GetRoomByCode(code string) (Room, error)
	GetRoomWithParticipants(roomId int) (*Room, error)
	AddParticipant(roomId, accountId int) error
	IsParticipant(roomId, accountId int) bool
	DeleteExpiredRooms() (int, error)
}
