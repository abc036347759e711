package binance

import "encoding/json"

// depthSnapshot is the REST /api/v3/depth response.
type depthSnapshot struct {
	LastUpdateID int64      `json:"lastUpdateId"`
	Bids         [][]string `json:"bids"`
	Asks         [][]string `json:"asks"`
}

// wsEnvelope distinguishes subscription acknowledgments from data frames. An
// ack carries an "id" matching the subscribe command and no event type.
type wsEnvelope struct {
	ID     *int64          `json:"id,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Event  string          `json:"e,omitempty"`
}

// depthUpdate is a diff-depth stream event.
type depthUpdate struct {
	Event     string     `json:"e"`
	EventTime int64      `json:"E"` // unix milliseconds
	Symbol    string     `json:"s"`
	Bids      [][]string `json:"b"`
	Asks      [][]string `json:"a"`
}

// wsCommand is the subscribe/unsubscribe command frame.
type wsCommand struct {
	Method string   `json:"method"`
	Params []string `json:"params"`
	ID     int64    `json:"id"`
}
