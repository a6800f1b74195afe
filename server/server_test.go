package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/askdocs/ai"
	"github.com/poiesic/askdocs/chat"
	"github.com/poiesic/askdocs/core"
	"github.com/poiesic/askdocs/ingestion"
)

// stubChat is a function-field test double for ChatService.
type stubChat struct {
	RespondFunc       func(ctx context.Context, req chat.Request) (*chat.Response, error)
	RespondStreamFunc func(ctx context.Context, req chat.Request, onToken ai.TokenFunc) (*chat.Response, error)
}

func (s *stubChat) Respond(ctx context.Context, req chat.Request) (*chat.Response, error) {
	if s.RespondFunc != nil {
		return s.RespondFunc(ctx, req)
	}
	return &chat.Response{ConversationToken: "tok", Reply: "stub reply", FinishReason: ai.FinishStop}, nil
}

func (s *stubChat) RespondStream(ctx context.Context, req chat.Request, onToken ai.TokenFunc) (*chat.Response, error) {
	if s.RespondStreamFunc != nil {
		return s.RespondStreamFunc(ctx, req, onToken)
	}
	onToken(ctx, "stub reply")
	return &chat.Response{ConversationToken: "tok", Reply: "stub reply", FinishReason: ai.FinishStop}, nil
}

// stubIngestor is a function-field test double for Ingestor.
type stubIngestor struct {
	IngestAllFunc func(ctx context.Context) ([]*ingestion.Result, error)
}

func (s *stubIngestor) IngestAll(ctx context.Context) ([]*ingestion.Result, error) {
	if s.IngestAllFunc != nil {
		return s.IngestAllFunc(ctx)
	}
	return nil, nil
}

func newTestServer(chatSvc ChatService, ingestor Ingestor) *Server {
	if chatSvc == nil {
		chatSvc = &stubChat{}
	}
	if ingestor == nil {
		ingestor = &stubIngestor{}
	}
	return New(":0", chatSvc, ingestor, nil)
}

func postJSON(t *testing.T, handler http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleChat(t *testing.T) {
	var seen chat.Request
	srv := newTestServer(&stubChat{
		RespondFunc: func(ctx context.Context, req chat.Request) (*chat.Response, error) {
			seen = req
			return &chat.Response{
				ConversationToken: "tok-1",
				Reply:             "the warranty is two years",
				Sources:           []core.SourceRef{{Filename: "warranty.pdf", ChunkIndex: 0, Score: 0.8}},
				FinishReason:      ai.FinishStop,
			}, nil
		},
	}, nil)

	rec := postJSON(t, srv.Handler(), "/api/chat", `{"message":"what is the warranty?"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var out chatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "tok-1", out.Token)
	assert.Equal(t, "the warranty is two years", out.Reply)
	require.Len(t, out.Sources, 1)
	assert.Equal(t, "stop", out.FinishReason)

	assert.Equal(t, "what is the warranty?", seen.Text)
	assert.NotEmpty(t, seen.RemoteAddr)
	assert.Equal(t, int64(1), srv.Metrics().Snapshot().Turns)
}

func TestHandleChatBadRequests(t *testing.T) {
	srv := newTestServer(nil, nil)

	rec := postJSON(t, srv.Handler(), "/api/chat", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, srv.Handler(), "/api/chat", `{"message":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleChatFailure(t *testing.T) {
	srv := newTestServer(&stubChat{
		RespondFunc: func(ctx context.Context, req chat.Request) (*chat.Response, error) {
			return nil, errors.New("store broken")
		},
	}, nil)

	rec := postJSON(t, srv.Handler(), "/api/chat", `{"message":"hi there?"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, int64(1), srv.Metrics().Snapshot().Errors)
}

func TestHandleChatStream(t *testing.T) {
	srv := newTestServer(&stubChat{
		RespondStreamFunc: func(ctx context.Context, req chat.Request, onToken ai.TokenFunc) (*chat.Response, error) {
			onToken(ctx, "hello ")
			onToken(ctx, "world")
			return &chat.Response{ConversationToken: "tok", Reply: "hello world", FinishReason: ai.FinishStop}, nil
		},
	}, nil)

	rec := postJSON(t, srv.Handler(), "/api/chat/stream", `{"message":"say hello world"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, `event: token`)
	assert.Contains(t, body, `"hello "`)
	assert.Contains(t, body, `event: done`)
	assert.Contains(t, body, `"reply":"hello world"`)
	assert.Equal(t, int64(1), srv.Metrics().Snapshot().Streams)
}

func TestHandleChatStreamInterrupted(t *testing.T) {
	srv := newTestServer(&stubChat{
		RespondStreamFunc: func(ctx context.Context, req chat.Request, onToken ai.TokenFunc) (*chat.Response, error) {
			onToken(ctx, "partial")
			return &chat.Response{ConversationToken: "tok", Reply: "partial", FinishReason: ai.FinishInterrupted}, nil
		},
	}, nil)

	rec := postJSON(t, srv.Handler(), "/api/chat/stream", `{"message":"long question here"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"finish_reason":"interrupted"`)
	assert.Equal(t, int64(1), srv.Metrics().Snapshot().Interrupted)
}

func TestHandleIngest(t *testing.T) {
	srv := newTestServer(nil, &stubIngestor{
		IngestAllFunc: func(ctx context.Context) ([]*ingestion.Result, error) {
			return []*ingestion.Result{
				{Filename: "a.pdf", Status: ingestion.StatusIndexed, ChunkCount: 12},
				{Filename: "b.pdf", Status: ingestion.StatusSkipped},
			}, nil
		},
	})

	rec := postJSON(t, srv.Handler(), "/api/ingest", ``)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"a.pdf"`)
	assert.Contains(t, rec.Body.String(), `"indexed"`)
	assert.Equal(t, int64(1), srv.Metrics().Snapshot().Ingests)
}

func TestHandleIngestPartialFailure(t *testing.T) {
	srv := newTestServer(nil, &stubIngestor{
		IngestAllFunc: func(ctx context.Context) ([]*ingestion.Result, error) {
			return []*ingestion.Result{
				{Filename: "good.pdf", Status: ingestion.StatusIndexed, ChunkCount: 3},
				{Filename: "bad.pdf", Status: ingestion.StatusError, Err: errors.New("no extractable text")},
			}, ingestion.ErrPartialIngestion
		},
	})

	rec := postJSON(t, srv.Handler(), "/api/ingest", ``)
	assert.Equal(t, http.StatusMultiStatus, rec.Code)
	assert.Contains(t, rec.Body.String(), "no extractable text")
}

func TestHealthAndStatus(t *testing.T) {
	srv := newTestServer(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/status", nil)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var snap MetricsSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Zero(t, snap.Turns)
}
