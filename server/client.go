package server

import (
	"context"
	"strings"

	"connectrpc.com/connect"
)

// Client calls an InsightService.
type Client struct {
	createSession    *connect.Client[CreateSessionRequest, CreateSessionResponse]
	listSessions     *connect.Client[ListSessionsRequest, ListSessionsResponse]
	selectSession    *connect.Client[SelectSessionRequest, SelectSessionResponse]
	upload           *connect.Client[UploadRequest, UploadResponse]
	clearKnowledge   *connect.Client[ClearKnowledgeRequest, ClearKnowledgeResponse]
	exportTranscript *connect.Client[ExportTranscriptRequest, ExportTranscriptResponse]
	send             *connect.Client[SendRequest, SendResponse]
}

// NewClient creates a Client for the service at baseURL.
func NewClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)

	return &Client{
		createSession:    connect.NewClient[CreateSessionRequest, CreateSessionResponse](httpClient, baseURL+CreateSessionProcedure, opts...),
		listSessions:     connect.NewClient[ListSessionsRequest, ListSessionsResponse](httpClient, baseURL+ListSessionsProcedure, opts...),
		selectSession:    connect.NewClient[SelectSessionRequest, SelectSessionResponse](httpClient, baseURL+SelectSessionProcedure, opts...),
		upload:           connect.NewClient[UploadRequest, UploadResponse](httpClient, baseURL+UploadProcedure, opts...),
		clearKnowledge:   connect.NewClient[ClearKnowledgeRequest, ClearKnowledgeResponse](httpClient, baseURL+ClearKnowledgeProcedure, opts...),
		exportTranscript: connect.NewClient[ExportTranscriptRequest, ExportTranscriptResponse](httpClient, baseURL+ExportTranscriptProcedure, opts...),
		send:             connect.NewClient[SendRequest, SendResponse](httpClient, baseURL+SendProcedure, opts...),
	}
}

// CreateSession starts a new current session.
func (c *Client) CreateSession(ctx context.Context) (*CreateSessionResponse, error) {
	resp, err := c.createSession.CallUnary(ctx, connect.NewRequest(&CreateSessionRequest{}))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

// ListSessions lists every session and the current ID.
func (c *Client) ListSessions(ctx context.Context) (*ListSessionsResponse, error) {
	resp, err := c.listSessions.CallUnary(ctx, connect.NewRequest(&ListSessionsRequest{}))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

// SelectSession makes the session with id current.
func (c *Client) SelectSession(ctx context.Context, id string) error {
	_, err := c.selectSession.CallUnary(ctx, connect.NewRequest(&SelectSessionRequest{SessionID: id}))
	return err
}

// Upload indexes a document into a session.
func (c *Client) Upload(ctx context.Context, req *UploadRequest) (*UploadResponse, error) {
	resp, err := c.upload.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

// ClearKnowledge drops a session's indexed documents. An empty id targets
// the current session.
func (c *Client) ClearKnowledge(ctx context.Context, id string) error {
	_, err := c.clearKnowledge.CallUnary(ctx, connect.NewRequest(&ClearKnowledgeRequest{SessionID: id}))
	return err
}

// ExportTranscript fetches a session's transcript. An empty id targets the
// current session.
func (c *Client) ExportTranscript(ctx context.Context, id string) (*ExportTranscriptResponse, error) {
	resp, err := c.exportTranscript.CallUnary(ctx, connect.NewRequest(&ExportTranscriptRequest{SessionID: id}))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

// Send posts a prompt and calls onFragment for every streamed fragment. It
// returns the final message.
func (c *Client) Send(ctx context.Context, req *SendRequest, onFragment func(string)) (*SendResponse, error) {
	stream, err := c.send.CallServerStream(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	var final *SendResponse
	for stream.Receive() {
		msg := stream.Msg()
		if msg.Done {
			final = msg
			continue
		}
		if onFragment != nil {
			onFragment(msg.Fragment)
		}
	}
	if err := stream.Err(); err != nil {
		return nil, err
	}
	if final == nil {
		return nil, connect.NewError(connect.CodeDataLoss, errMissingFinal)
	}
	return final, nil
}
