package bybit

// orderbookResult is the depth payload shared by the REST orderbook endpoint
// and the WebSocket orderbook topic: b/a are [price, size] string pairs.
type orderbookResult struct {
	Symbol string     `json:"s"`
	Bids   [][]string `json:"b"`
	Asks   [][]string `json:"a"`
	Ts     int64      `json:"ts,omitempty"` // unix milliseconds, REST only
}

// restResponse is the REST /v5/market/orderbook envelope. Bybit signals API
// errors with a non-zero retCode inside a 200 response.
type restResponse struct {
	RetCode int             `json:"retCode"`
	RetMsg  string          `json:"retMsg"`
	Result  orderbookResult `json:"result"`
	Time    int64           `json:"time"`
}

// wsCommand is the subscribe/ping command frame.
type wsCommand struct {
	Op   string   `json:"op"`
	Args []string `json:"args,omitempty"`
}

// wsMessage is the inbound frame envelope. Op is set on command responses
// (subscribe acks, pongs); data frames carry Topic, Type and Data.
type wsMessage struct {
	Op      string          `json:"op,omitempty"`
	Success *bool           `json:"success,omitempty"`
	Topic   string          `json:"topic,omitempty"`
	Type    string          `json:"type,omitempty"`
	Ts      int64           `json:"ts,omitempty"` // unix milliseconds
	Data    orderbookResult `json:"data,omitempty"`
}
