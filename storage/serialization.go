package storage

import (
	"encoding/json"
	"fmt"

	"github.com/poiesic/askdocs/core"
)

// Conversation-store values are encoded as JSON. Records are small and
// written once per chat turn, so codec throughput is irrelevant next to
// inference latency; JSON keeps the stored bytes inspectable with the
// badger CLI tooling.

// MarshalConversation serializes a Conversation to bytes.
func MarshalConversation(c *core.Conversation) ([]byte, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("%w: conversation: %v", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalConversation deserializes a Conversation from bytes.
func UnmarshalConversation(data []byte) (*core.Conversation, error) {
	var c core.Conversation
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: conversation: %v", ErrSerializationFailed, err)
	}
	return &c, nil
}

// MarshalMessage serializes a Message to bytes.
func MarshalMessage(m *core.Message) ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("%w: message: %v", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalMessage deserializes a Message from bytes.
func UnmarshalMessage(data []byte) (*core.Message, error) {
	var m core.Message
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: message: %v", ErrSerializationFailed, err)
	}
	return &m, nil
}

// MarshalInteraction serializes an Interaction to bytes.
func MarshalInteraction(rec *core.Interaction) ([]byte, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("%w: interaction: %v", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalInteraction deserializes an Interaction from bytes.
func UnmarshalInteraction(data []byte) (*core.Interaction, error) {
	var rec core.Interaction
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: interaction: %v", ErrSerializationFailed, err)
	}
	return &rec, nil
}
