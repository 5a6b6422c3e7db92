package syncproto

import (
	"encoding/json"
	"fmt"

	"gihan9a/draftsync/pkg/chunk"
)

// Event names carried in Message.Event
const (
	EventInit      = "init"      // server -> client, data is the baseline text
	EventSyncText  = "syncText"  // client -> server, data is an entry array
	EventSyncEnd   = "syncEnd"   // server -> client, data is Finished
	EventSyncError = "syncError" // server -> client, data is an error message
)

// Finished is the completion marker sent with syncEnd
const Finished = "finished"

// Message is one frame on the sync channel
type Message struct {
	Event string          `json:"event"`           // Event is one of the Event* names
	Data  json.RawMessage `json:"data,omitempty"` // Data is the event payload, encoded as JSON
}

// NewMessage encodes data as the payload of an event
func NewMessage(event string, data interface{}) (Message, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Message{}, fmt.Errorf("error encoding %s payload: %w", event, err)
	}
	return Message{Event: event, Data: raw}, nil
}

// Decode unmarshals the payload into v
func (m Message) Decode(v interface{}) error {
	if len(m.Data) == 0 {
		return fmt.Errorf("%s message has no data", m.Event)
	}
	if err := json.Unmarshal(m.Data, v); err != nil {
		return fmt.Errorf("error decoding %s payload: %w", m.Event, err)
	}
	return nil
}

// Init builds the message announcing the baseline to a new client
func Init(baseline string) Message {
	return stringMessage(EventInit, baseline)
}

// SyncEnd builds the acknowledgment for a persisted syncText
func SyncEnd() Message {
	return stringMessage(EventSyncEnd, Finished)
}

// SyncError builds the failure acknowledgment
func SyncError(err error) Message {
	return stringMessage(EventSyncError, err.Error())
}

// SyncText builds the client message carrying entries
func SyncText(entries []chunk.Entry) (Message, error) {
	return NewMessage(EventSyncText, Entries(entries))
}

func stringMessage(event, text string) Message {
	// Marshalling a string cannot fail.
	raw, _ := json.Marshal(text)
	return Message{Event: event, Data: raw}
}
