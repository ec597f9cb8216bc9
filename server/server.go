// Package server exposes the kernel over Connect RPC using a JSON codec.
package server

import (
	"context"
	"errors"
	"net/http"

	"connectrpc.com/connect"

	"github.com/tailored-agentic-units/insight/index"
	"github.com/tailored-agentic-units/insight/kernel"
	"github.com/tailored-agentic-units/insight/session"
)

// ServiceName is the fully-qualified Connect service name.
const ServiceName = "insight.v1.InsightService"

// Procedure paths.
const (
	CreateSessionProcedure    = "/" + ServiceName + "/CreateSession"
	ListSessionsProcedure     = "/" + ServiceName + "/ListSessions"
	SelectSessionProcedure    = "/" + ServiceName + "/SelectSession"
	UploadProcedure           = "/" + ServiceName + "/Upload"
	ClearKnowledgeProcedure   = "/" + ServiceName + "/ClearKnowledge"
	ExportTranscriptProcedure = "/" + ServiceName + "/ExportTranscript"
	SendProcedure             = "/" + ServiceName + "/Send"
)

// Assistant is the part of *kernel.Kernel the server drives.
type Assistant interface {
	Store() *session.Store
	NewSession() *session.Session
	Select(id string) error
	SendTo(ctx context.Context, sessionID, prompt string) *kernel.Reply
	UploadTo(ctx context.Context, sessionID, name string, data []byte) error
	ClearKnowledge(sessionID string) error
	Export(sessionID string) ([]byte, error)
}

// Server implements the InsightService procedures.
type Server struct {
	assistant Assistant
}

// New creates a Server over a.
func New(a Assistant) *Server {
	return &Server{assistant: a}
}

// Handler returns the path prefix and handler serving every procedure.
func (s *Server) Handler(opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(CreateSessionProcedure, connect.NewUnaryHandler(CreateSessionProcedure, s.CreateSession, opts...))
	mux.Handle(ListSessionsProcedure, connect.NewUnaryHandler(ListSessionsProcedure, s.ListSessions, opts...))
	mux.Handle(SelectSessionProcedure, connect.NewUnaryHandler(SelectSessionProcedure, s.SelectSession, opts...))
	mux.Handle(UploadProcedure, connect.NewUnaryHandler(UploadProcedure, s.Upload, opts...))
	mux.Handle(ClearKnowledgeProcedure, connect.NewUnaryHandler(ClearKnowledgeProcedure, s.ClearKnowledge, opts...))
	mux.Handle(ExportTranscriptProcedure, connect.NewUnaryHandler(ExportTranscriptProcedure, s.ExportTranscript, opts...))
	mux.Handle(SendProcedure, connect.NewServerStreamHandler(SendProcedure, s.Send, opts...))
	return "/" + ServiceName + "/", mux
}

// CreateSession starts a new session with the welcome message and makes it
// current.
func (s *Server) CreateSession(_ context.Context, _ *connect.Request[CreateSessionRequest]) (*connect.Response[CreateSessionResponse], error) {
	sess := s.assistant.NewSession()
	return connect.NewResponse(&CreateSessionResponse{Session: info(sess)}), nil
}

// ListSessions returns every session, newest first, and the current ID.
func (s *Server) ListSessions(_ context.Context, _ *connect.Request[ListSessionsRequest]) (*connect.Response[ListSessionsResponse], error) {
	store := s.assistant.Store()
	resp := &ListSessionsResponse{}
	for _, id := range store.List() {
		sess, err := store.Get(id)
		if err != nil {
			continue
		}
		resp.Sessions = append(resp.Sessions, info(sess))
	}
	if cur := store.Current(); cur != nil {
		resp.Current = cur.ID()
	}
	return connect.NewResponse(resp), nil
}

// SelectSession makes a session current. An unknown ID yields CodeNotFound.
func (s *Server) SelectSession(_ context.Context, req *connect.Request[SelectSessionRequest]) (*connect.Response[SelectSessionResponse], error) {
	if err := s.assistant.Select(req.Msg.SessionID); err != nil {
		return nil, toConnect(err)
	}
	return connect.NewResponse(&SelectSessionResponse{}), nil
}

// Upload indexes a PDF, DOCX or TXT document into a session. Unsupported or
// empty documents yield CodeInvalidArgument.
func (s *Server) Upload(ctx context.Context, req *connect.Request[UploadRequest]) (*connect.Response[UploadResponse], error) {
	id, err := s.target(req.Msg.SessionID)
	if err != nil {
		return nil, err
	}
	if err := s.assistant.UploadTo(ctx, id, req.Msg.Name, req.Msg.Data); err != nil {
		return nil, toConnect(err)
	}

	sess, err := s.assistant.Store().Get(id)
	if err != nil {
		return nil, toConnect(err)
	}
	return connect.NewResponse(&UploadResponse{
		Files:  sess.Files(),
		Chunks: sess.Index().Len(),
	}), nil
}

// ClearKnowledge drops a session's index and uploaded file lists.
func (s *Server) ClearKnowledge(_ context.Context, req *connect.Request[ClearKnowledgeRequest]) (*connect.Response[ClearKnowledgeResponse], error) {
	id, err := s.target(req.Msg.SessionID)
	if err != nil {
		return nil, err
	}
	if err := s.assistant.ClearKnowledge(id); err != nil {
		return nil, toConnect(err)
	}
	return connect.NewResponse(&ClearKnowledgeResponse{}), nil
}

// ExportTranscript returns a session's transcript as a JSON array of
// messages.
func (s *Server) ExportTranscript(_ context.Context, req *connect.Request[ExportTranscriptRequest]) (*connect.Response[ExportTranscriptResponse], error) {
	id, err := s.target(req.Msg.SessionID)
	if err != nil {
		return nil, err
	}
	data, err := s.assistant.Export(id)
	if err != nil {
		return nil, toConnect(err)
	}
	return connect.NewResponse(&ExportTranscriptResponse{Transcript: data}), nil
}

// Send streams the reply fragments, then a final message with Done set.
func (s *Server) Send(ctx context.Context, req *connect.Request[SendRequest], stream *connect.ServerStream[SendResponse]) error {
	id, err := s.target(req.Msg.SessionID)
	if err != nil {
		return err
	}

	reply := s.assistant.SendTo(ctx, id, req.Msg.Prompt)
	defer reply.Close()

	for reply.Next() {
		if err := stream.Send(&SendResponse{Fragment: reply.Fragment()}); err != nil {
			return err
		}
	}

	text := reply.Text()
	if text == "" && reply.Err() != nil {
		return toConnect(reply.Err())
	}

	final := &SendResponse{Done: true, Text: text, Artifact: reply.Artifact()}
	if err := reply.Err(); err != nil {
		final.Error = err.Error()
	}
	return stream.Send(final)
}

func (s *Server) target(id string) (string, error) {
	if id != "" {
		return id, nil
	}
	cur := s.assistant.Store().Current()
	if cur == nil {
		return "", connect.NewError(connect.CodeFailedPrecondition, kernel.ErrNoSession)
	}
	return cur.ID(), nil
}

func info(sess *session.Session) SessionInfo {
	return SessionInfo{
		ID:        sess.ID(),
		CreatedAt: sess.CreatedAt(),
		Messages:  sess.Len(),
		Files:     sess.Files(),
	}
}

func toConnect(err error) error {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, index.ErrUnsupportedFormat),
		errors.Is(err, index.ErrEmptyDocument),
		errors.Is(err, kernel.ErrEmptyPrompt):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}
