package relay

import "encoding/json"

// Inbound events, client -> server.
const (
	EventSendMessage   = "sendMessage"
	EventDeleteMessage = "deleteMessage"
)

// Outbound events, server -> client.
const (
	EventPreviousMessages = "previousMessages" // unicast on join
	EventReceivedMessage  = "receivedMessage"  // broadcast after create
	EventRemovedMessage   = "removedMessage"   // broadcast after delete
)

// Envelope is the frame exchanged over a connection.
type Envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Inbound is an envelope whose payload is decoded by the matching handler.
type Inbound struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// DeletePayload accepts {"id": "..."} as well as a bare JSON string. The id
// is kept byte for byte so the broadcast matches what the client sent.
type DeletePayload struct {
	ID string `json:"id"`
}

func (p *DeletePayload) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		p.ID = id
		return nil
	}

	type plain DeletePayload
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	p.ID = v.ID
	return nil
}
