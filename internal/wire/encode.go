package wire

import "encoding/json"

// outbound is the {a, p, t} shape of a frame sent over the socket. The
// timestamp is the clock-offset-corrected send time in milliseconds.
type outbound struct {
	Action  string `json:"a"`
	Payload string `json:"p"`
	Time    int64  `json:"t"`
}

// Encode builds an outbound frame. Marshalling the payload as a JSON
// string gives strict escaping of embedded quotes; earlier protocol
// revisions substituted HTML entities by hand, which corrupted
// round-trips and is deliberately not done here.
func Encode(action, payload string, timestamp int64) ([]byte, error) {
	return json.Marshal(outbound{Action: action, Payload: payload, Time: timestamp})
}
