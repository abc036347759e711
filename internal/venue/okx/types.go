package okx

// booksData is one depth book payload as delivered by both the REST books
// endpoint and the books WebSocket channel. Levels are [price, size, ...]
// string tuples; OKX appends extra fields that normalization ignores.
// Ts is a unix-millisecond timestamp encoded as a decimal string.
type booksData struct {
	Bids [][]string `json:"bids"`
	Asks [][]string `json:"asks"`
	Ts   string     `json:"ts"`
}

// booksResponse is the REST /api/v5/market/books response envelope.
type booksResponse struct {
	Code string      `json:"code"`
	Msg  string      `json:"msg"`
	Data []booksData `json:"data"`
}

// wsArg identifies a WebSocket channel subscription.
type wsArg struct {
	Channel string `json:"channel"`
	InstID  string `json:"instId"`
}

// wsCommand is the subscribe/unsubscribe command frame.
type wsCommand struct {
	Op   string  `json:"op"`
	Args []wsArg `json:"args"`
}

// wsMessage is the inbound frame envelope. Event is set on acknowledgments
// and errors; data frames carry Action ("snapshot" or "update") and Data.
type wsMessage struct {
	Event  string      `json:"event,omitempty"`
	Arg    wsArg       `json:"arg,omitempty"`
	Action string      `json:"action,omitempty"`
	Data   []booksData `json:"data,omitempty"`
	Msg    string      `json:"msg,omitempty"`
}
