package room

import "errors"

var (
	ErrRoomNotFound      = errors.New("room_not_found")
	ErrRoomFull          = errors.New("room_full")
	ErrNotEnoughPlayers  = errors.New("not_enough_players")
	ErrAlreadyInProgress = errors.New("already_in_progress")
	ErrNotHost           = errors.New("not_host")
)
