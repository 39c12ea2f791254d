package ws

// Inbound messages, discriminated by the "type" field.

type CreateRoomMessage struct {
	Type  string `json:"type"`
	Name  string `json:"name"`
	BuyIn int64  `json:"buy_in"`
}

type JoinRoomMessage struct {
	Type   string `json:"type"`
	RoomID string `json:"room_id"`
	Name   string `json:"name"`
	BuyIn  int64  `json:"buy_in"`
}

type LeaveRoomMessage struct {
	Type   string `json:"type"`
	RoomID string `json:"room_id"`
}

type StartHandMessage struct {
	Type     string `json:"type"`
	RoomID   string `json:"room_id"`
	BuyIn    int64  `json:"buy_in"`
	BigBlind int64  `json:"big_blind"`
}

type ActionMessage struct {
	Type   string `json:"type"`
	RoomID string `json:"room_id"`
	Action string `json:"action"`
	Amount int64  `json:"amount"`
}

// Outbound messages.

// Welcome tells a fresh connection the identity it plays under.
type Welcome struct {
	Type     string `json:"type"`
	PlayerID string `json:"player_id"`
}

// Result is the synchronous acknowledgement for every inbound request.
// Error carries the snake_case code from the error taxonomy.
type Result struct {
	Type     string `json:"type"`
	Op       string `json:"op"`
	Ok       bool   `json:"ok"`
	Error    string `json:"error,omitempty"`
	RoomID   string `json:"room_id,omitempty"`
	PlayerID string `json:"player_id,omitempty"`
}
