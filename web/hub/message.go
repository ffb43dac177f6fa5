// Package hub fans JSON envelopes out to websocket clients from a single
// owner goroutine.
package hub

import "encoding/json"

// Message is one encoded envelope, written to clients as a text frame.
type Message []byte

// Envelope tags a payload with its kind so one socket can carry several
// message shapes.
type Envelope struct {
	Kind string `json:"kind"`
	Data any    `json:"data"`
}

// EncodeEnvelope marshals kind and payload into a Message.
func EncodeEnvelope(kind string, payload any) (Message, error) {
	data, err := json.Marshal(Envelope{Kind: kind, Data: payload})
	if err != nil {
		return nil, err
	}
	return Message(data), nil
}
