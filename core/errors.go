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

import "errors"

// Domain validation errors
var (
	// ErrEmptyFilename indicates a document or job record without a filename.
	ErrEmptyFilename = errors.New("filename cannot be empty")

	// ErrEmptyContentHash indicates a document record without a content hash.
	ErrEmptyContentHash = errors.New("content hash cannot be empty")

	// ErrEmptyContent indicates a message with no text content.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrEmptyToken indicates a conversation record without a token.
	ErrEmptyToken = errors.New("conversation token cannot be empty")

	// ErrInvalidRole indicates an unrecognized message role value.
	ErrInvalidRole = errors.New("invalid message role")

	// ErrInvalidJobStatus indicates an unrecognized ingestion job status.
	ErrInvalidJobStatus = errors.New("invalid ingestion job status")

	// ErrChunkIndexGap indicates chunk ordinals that are not contiguous from 0.
	ErrChunkIndexGap = errors.New("chunk indices must be contiguous from 0")
)
