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


package core

import "fmt"

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - Filename must not be empty
//   - ContentHash must not be empty
//
// NOT validated:
//   - Id (0 is valid before the store assigns one)
//   - Timestamps (set by the ingestion engine)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("document is nil")
	}
	if doc.Filename == "" {
		return ErrEmptyFilename
	}
	if doc.ContentHash == "" {
		return ErrEmptyContentHash
	}
	return nil
}

// ValidateChunkSet validates that a chunk set forms one complete document
// generation: ordinals contiguous from 0 and no blank chunk text.
func ValidateChunkSet(chunks []Chunk) error {
	for i := range chunks {
		if chunks[i].Index != i {
			return fmt.Errorf("%w: index %d at position %d", ErrChunkIndexGap, chunks[i].Index, i)
		}
		if chunks[i].Text == "" {
			return fmt.Errorf("%w: chunk %d", ErrEmptyContent, i)
		}
	}
	return nil
}

// ValidateRole validates that a Role has a recognized value.
func ValidateRole(role Role) error {
	if role != RoleUser && role != RoleAssistant {
		return fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	return nil
}

// ValidateJobStatus validates that a JobStatus has a recognized value.
func ValidateJobStatus(status JobStatus) error {
	switch status {
	case JobRunning, JobSuccess, JobError:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidJobStatus, status)
}

// ValidateInteraction validates an Interaction log record.
// Sources may be empty: short-circuit replies log without retrieval.
func ValidateInteraction(rec *Interaction) error {
	if rec == nil {
		return fmt.Errorf("interaction is nil")
	}
	if rec.ConversationToken == "" {
		return ErrEmptyToken
	}
	if rec.AssistantText == "" {
		return fmt.Errorf("%w: assistant text", ErrEmptyContent)
	}
	return nil
}
