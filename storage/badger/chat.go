// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package badger

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/askdocs/core"
	"github.com/poiesic/askdocs/storage"
)

// ChatStore implements storage.ChatStore for BadgerDB.
type ChatStore struct {
	backend *Backend
	msgSeq  *badger.Sequence
	intrSeq *badger.Sequence
}

var _ storage.ChatStore = (*ChatStore)(nil)

// NewChatStore creates a new ChatStore on the given backend.
func NewChatStore(backend *Backend) (*ChatStore, error) {
	msgSeq, err := backend.GetSequence(messageIDSeq)
	if err != nil {
		return nil, err
	}
	intrSeq, err := backend.GetSequence(interactionIDSeq)
	if err != nil {
		msgSeq.Release()
		return nil, err
	}

	return &ChatStore{
		backend: backend,
		msgSeq:  msgSeq,
		intrSeq: intrSeq,
	}, nil
}

// Close releases the ID sequences. The backend itself is owned by the
// caller and closed separately.
func (s *ChatStore) Close() error {
	err := s.msgSeq.Release()
	if err2 := s.intrSeq.Release(); err == nil {
		err = err2
	}
	return err
}

// nextSeq draws the next non-zero value from a sequence.
// BadgerDB sequences can return 0 on first call, so we skip it.
func nextSeq(seq *badger.Sequence) (uint64, error) {
	n, err := seq.Next()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		n, err = seq.Next()
		if err != nil {
			return 0, err
		}
	}
	return n, nil
}

// UpsertConversation creates the conversation if it doesn't exist and bumps
// its last-active timestamp either way.
func (s *ChatStore) UpsertConversation(ctx context.Context, token string) (*core.Conversation, error) {
	if token == "" {
		return nil, core.ErrEmptyToken
	}

	var conv *core.Conversation
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		key := makeConversationKey(token)
		now := time.Now().UTC()

		item, err := tx.Get(key)
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
			conv = &core.Conversation{Token: token, CreatedAt: now, LastActiveAt: now}
		case err != nil:
			return err
		default:
			if err := item.Value(func(val []byte) error {
				conv, err = storage.UnmarshalConversation(val)
				return err
			}); err != nil {
				return err
			}
			conv.LastActiveAt = now
		}

		value, err := storage.MarshalConversation(conv)
		if err != nil {
			return err
		}
		if err := tx.Set(key, value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return conv, nil
}

// AppendMessage appends a message to a conversation's stream.
func (s *ChatStore) AppendMessage(ctx context.Context, token string, role core.Role, content string) (*core.Message, error) {
	if token == "" {
		return nil, core.ErrEmptyToken
	}
	if err := core.ValidateRole(role); err != nil {
		return nil, err
	}
	if content == "" {
		return nil, core.ErrEmptyContent
	}

	seq, err := nextSeq(s.msgSeq)
	if err != nil {
		return nil, err
	}

	msg := &core.Message{
		Seq:               seq,
		ConversationToken: token,
		Role:              role,
		Content:           content,
		CreatedAt:         time.Now().UTC(),
	}

	err = s.backend.WithTx(func(tx *badger.Txn) error {
		value, err := storage.MarshalMessage(msg)
		if err != nil {
			return err
		}
		if err := tx.Set(makeMessageKey(token, seq), value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// RecentMessages retrieves the newest limit messages in chronological order.
// Sequence values are monotone per process, so the message prefix iterates
// in append order.
func (s *ChatStore) RecentMessages(ctx context.Context, token string, limit int) ([]*core.Message, error) {
	if token == "" {
		return nil, core.ErrEmptyToken
	}
	if limit <= 0 {
		return nil, nil
	}

	var newestFirst []*core.Message
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		prefix := makeMessagePrefix(token)

		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.Reverse = true
		iter := tx.NewIterator(opts)
		defer iter.Close()

		// Reverse iteration starts past the last key of the prefix range.
		seek := append(append([]byte{}, prefix...), 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff)
		for iter.Seek(seek); iter.ValidForPrefix(prefix) && len(newestFirst) < limit; iter.Next() {
			var msg *core.Message
			err := iter.Item().Value(func(val []byte) error {
				var err error
				msg, err = storage.UnmarshalMessage(val)
				return err
			})
			if err != nil {
				return err
			}
			newestFirst = append(newestFirst, msg)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	// Flip to chronological order.
	out := make([]*core.Message, len(newestFirst))
	for i, msg := range newestFirst {
		out[len(newestFirst)-1-i] = msg
	}
	return out, nil
}

// AppendInteraction appends one record to the interaction log.
func (s *ChatStore) AppendInteraction(ctx context.Context, rec *core.Interaction) error {
	if err := core.ValidateInteraction(rec); err != nil {
		return err
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	id, err := nextSeq(s.intrSeq)
	if err != nil {
		return err
	}

	return s.backend.WithTx(func(tx *badger.Txn) error {
		value, err := storage.MarshalInteraction(rec)
		if err != nil {
			return err
		}
		if err := tx.Set(makeInteractionKey(rec.CreatedAt, id), value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}
