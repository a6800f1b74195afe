package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/poiesic/askdocs/ai"
	"github.com/poiesic/askdocs/chat"
	"github.com/poiesic/askdocs/core"
)

// chatRequest is the wire form of one user message.
type chatRequest struct {
	Token   string `json:"token,omitempty"`
	Message string `json:"message"`
}

// chatResponse is the wire form of one assistant reply.
type chatResponse struct {
	Token        string           `json:"token"`
	Reply        string           `json:"reply"`
	Sources      []core.SourceRef `json:"sources,omitempty"`
	FinishReason string           `json:"finish_reason"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.metrics.Snapshot())
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeChatRequest(w, r)
	if !ok {
		return
	}

	resp, err := s.chat.Respond(r.Context(), req)
	if err != nil {
		s.metrics.RecordError()
		s.logger.Error("chat turn failed", "error", err)
		writeError(w, http.StatusInternalServerError, "chat turn failed")
		return
	}

	s.metrics.RecordTurn()
	writeJSON(w, http.StatusOK, chatResponse{
		Token:        resp.ConversationToken,
		Reply:        resp.Reply,
		Sources:      resp.Sources,
		FinishReason: string(resp.FinishReason),
	})
}

// handleChatStream relays tokens as Server-Sent Events: one "token" event
// per fragment, then a final "done" event carrying the full reply envelope.
func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeChatRequest(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	onToken := func(ctx context.Context, token string) error {
		if err := writeSSE(w, "token", token); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	resp, err := s.chat.RespondStream(r.Context(), req, onToken)
	if err != nil {
		s.metrics.RecordError()
		s.logger.Error("stream turn failed", "error", err)
		writeSSE(w, "error", "chat turn failed")
		flusher.Flush()
		return
	}

	s.metrics.RecordStream()
	if resp.FinishReason == ai.FinishInterrupted {
		s.metrics.RecordInterrupted()
	}

	writeSSE(w, "done", chatResponse{
		Token:        resp.ConversationToken,
		Reply:        resp.Reply,
		Sources:      resp.Sources,
		FinishReason: string(resp.FinishReason),
	})
	flusher.Flush()
}

// ingestResponse reports one per-file ingestion outcome.
type ingestResponse struct {
	Filename   string `json:"filename"`
	Status     string `json:"status"`
	ChunkCount int    `json:"chunk_count,omitempty"`
	Error      string `json:"error,omitempty"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	s.metrics.RecordIngest()

	results, err := s.ingestor.IngestAll(r.Context())

	out := make([]ingestResponse, 0, len(results))
	for _, res := range results {
		item := ingestResponse{
			Filename:   res.Filename,
			Status:     string(res.Status),
			ChunkCount: res.ChunkCount,
		}
		if res.Err != nil {
			item.Error = res.Err.Error()
		}
		out = append(out, item)
	}

	status := http.StatusOK
	if err != nil {
		// Partial failure: successes stay committed, so report the detail
		// rather than a bare 500.
		s.metrics.RecordError()
		status = http.StatusMultiStatus
	}
	writeJSON(w, status, map[string]any{"results": out})
}

func (s *Server) decodeChatRequest(w http.ResponseWriter, r *http.Request) (chat.Request, bool) {
	var in chatRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return chat.Request{}, false
	}
	if in.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return chat.Request{}, false
	}

	return chat.Request{
		ConversationToken: in.Token,
		Text:              in.Message,
		RemoteAddr:        r.RemoteAddr,
		UserAgent:         r.UserAgent(),
	}, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeSSE emits one Server-Sent Event. The payload is JSON-encoded so
// tokens containing newlines cannot break the event framing.
func writeSSE(w http.ResponseWriter, event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}
