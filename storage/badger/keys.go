package badger

import (
	"encoding/binary"
	"fmt"
	"time"
)

// Key prefixes for different data types
const (
	conversationPrefix = "conv"
	messagePrefix      = "msg"
	messageIDSeq       = "msgseq"
	interactionPrefix  = "intr"
	interactionIDSeq   = "intrseq"
)

// makeConversationKey generates a key for a conversation by token.
func makeConversationKey(token string) []byte {
	return []byte(fmt.Sprintf("%s:%s", conversationPrefix, token))
}

// makeMessageKey generates a composite key for a conversation message.
// Format: prefix:token:seq
func makeMessageKey(token string, seq uint64) []byte {
	prefix := fmt.Sprintf("%s:%s:", messagePrefix, token)
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], seq)
	return buf
}

// makeMessagePrefix generates the iteration prefix for one conversation's
// message stream.
func makeMessagePrefix(token string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", messagePrefix, token))
}

// makeInteractionKey generates a composite key for the interaction log.
// Format: prefix:timestamp:id
func makeInteractionKey(timestamp time.Time, id uint64) []byte {
	prefix := interactionPrefix + ":"
	buf := make([]byte, len(prefix)+16)
	offset := copy(buf, prefix)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(timestamp.UnixMicro()))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], id)
	return buf
}
