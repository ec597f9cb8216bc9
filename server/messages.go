package server

import (
	"encoding/json"
	"time"
)

// SessionInfo summarizes one session.
type SessionInfo struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Messages  int       `json:"messages"`
	Files     []string  `json:"files,omitempty"`
}

// CreateSessionRequest and CreateSessionResponse carry CreateSession.
type CreateSessionRequest struct{}

type CreateSessionResponse struct {
	Session SessionInfo `json:"session"`
}

// ListSessionsRequest and ListSessionsResponse carry ListSessions.
type ListSessionsRequest struct{}

type ListSessionsResponse struct {
	Sessions []SessionInfo `json:"sessions"`
	Current  string        `json:"current"`
}

// SelectSessionRequest names the session to make current.
type SelectSessionRequest struct {
	SessionID string `json:"session_id"`
}

type SelectSessionResponse struct{}

// UploadRequest adds a document to a session. An empty SessionID targets the
// current session.
type UploadRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Name      string `json:"name"`
	Data      []byte `json:"data"`
}

// UploadResponse lists the session's files and its chunk count after the
// upload.
type UploadResponse struct {
	Files  []string `json:"files"`
	Chunks int      `json:"chunks"`
}

// ClearKnowledgeRequest targets a session; empty means the current one.
type ClearKnowledgeRequest struct {
	SessionID string `json:"session_id,omitempty"`
}

type ClearKnowledgeResponse struct{}

// ExportTranscriptRequest targets a session; empty means the current one.
type ExportTranscriptRequest struct {
	SessionID string `json:"session_id,omitempty"`
}

// ExportTranscriptResponse holds the transcript as a JSON array.
type ExportTranscriptResponse struct {
	Transcript json.RawMessage `json:"transcript"`
}

// SendRequest posts a prompt. An empty SessionID targets the current session.
type SendRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Prompt    string `json:"prompt"`
}

// SendResponse is one message of the Send stream: a text fragment, or the
// final message with Done set carrying the full text.
type SendResponse struct {
	Fragment string `json:"fragment,omitempty"`
	Done     bool   `json:"done,omitempty"`
	Text     string `json:"text,omitempty"`
	Artifact string `json:"artifact,omitempty"`
	Error    string `json:"error,omitempty"`
}
