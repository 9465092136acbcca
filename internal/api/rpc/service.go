// Package rpc exposes the assistant as a Connect service,
// asha.v1.AssistantService, using JSON-encoded messages.
package rpc

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/spherical-ai/asha/internal/bias"
	"github.com/spherical-ai/asha/internal/chat"
	"github.com/spherical-ai/asha/internal/domain"
	"github.com/spherical-ai/asha/internal/observability"
)

const ServiceName = "asha.v1.AssistantService"

const (
	ChatProcedure           = "/" + ServiceName + "/Chat"
	ClassifyIntentProcedure = "/" + ServiceName + "/ClassifyIntent"
	DetectBiasProcedure     = "/" + ServiceName + "/DetectBias"
)

// ChatRequest represents the Chat request message.
type ChatRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Text      string `json:"text"`
}

// ChatResponse represents the Chat response message.
type ChatResponse struct {
	SessionID  string             `json:"session_id"`
	MessageID  string             `json:"message_id"`
	Intent     string             `json:"intent"`
	Text       string             `json:"text"`
	Attachment *domain.Attachment `json:"attachment,omitempty"`
	HasBias    bool               `json:"has_bias"`
	Warnings   []string           `json:"warnings,omitempty"`
}

type ClassifyIntentRequest struct {
	Text string `json:"text"`
}

type ClassifyIntentResponse struct {
	Intent string `json:"intent"`
}

type DetectBiasRequest struct {
	Text string `json:"text"`
}

type DetectBiasResponse struct {
	HasBias       bool          `json:"has_bias"`
	CorrectedText string        `json:"corrected_text"`
	Details       []bias.Detail `json:"details"`
}

// Service implements asha.v1.AssistantService.
type Service struct {
	logger    *observability.Logger
	assistant *chat.Assistant
}

func NewService(logger *observability.Logger, assistant *chat.Assistant) *Service {
	return &Service{
		logger:    observability.OrNop(logger),
		assistant: assistant,
	}
}

// Chat runs one message through the full pipeline.
func (s *Service) Chat(ctx context.Context, req *connect.Request[ChatRequest]) (*connect.Response[ChatResponse], error) {
	if strings.TrimSpace(req.Msg.Text) == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("text is required"))
	}

	resp, err := s.assistant.Process(ctx, chat.Message{SessionID: req.Msg.SessionID, Text: req.Msg.Text})
	if err != nil {
		s.logger.WithContext(ctx).Error().Err(err).Str("procedure", ChatProcedure).Msg("Chat failed")
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&ChatResponse{
		SessionID:  resp.SessionID,
		MessageID:  resp.MessageID,
		Intent:     string(resp.Intent),
		Text:       resp.Reply.Text,
		Attachment: resp.Reply.Attachment,
		HasBias:    resp.Bias.HasBias,
		Warnings:   resp.Warnings,
	}), nil
}

func (s *Service) ClassifyIntent(_ context.Context, req *connect.Request[ClassifyIntentRequest]) (*connect.Response[ClassifyIntentResponse], error) {
	intent := s.assistant.Pipeline().ClassifyIntent(req.Msg.Text)
	return connect.NewResponse(&ClassifyIntentResponse{Intent: string(intent)}), nil
}

func (s *Service) DetectBias(_ context.Context, req *connect.Request[DetectBiasRequest]) (*connect.Response[DetectBiasResponse], error) {
	res := s.assistant.Pipeline().DetectBias(req.Msg.Text)
	return connect.NewResponse(&DetectBiasResponse{
		HasBias:       res.HasBias,
		CorrectedText: res.CorrectedText,
		Details:       res.Details,
	}), nil
}

// NewHandler returns the mount path and handler for the service.
func NewHandler(svc *Service, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(ChatProcedure, connect.NewUnaryHandler(ChatProcedure, svc.Chat, opts...))
	mux.Handle(ClassifyIntentProcedure, connect.NewUnaryHandler(ClassifyIntentProcedure, svc.ClassifyIntent, opts...))
	mux.Handle(DetectBiasProcedure, connect.NewUnaryHandler(DetectBiasProcedure, svc.DetectBias, opts...))
	return "/" + ServiceName + "/", mux
}

// Client calls asha.v1.AssistantService.
type Client struct {
	chat     *connect.Client[ChatRequest, ChatResponse]
	classify *connect.Client[ClassifyIntentRequest, ClassifyIntentResponse]
	bias     *connect.Client[DetectBiasRequest, DetectBiasResponse]
}

// NewClient builds a client for the server at baseURL.
func NewClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)
	return &Client{
		chat:     connect.NewClient[ChatRequest, ChatResponse](httpClient, baseURL+ChatProcedure, opts...),
		classify: connect.NewClient[ClassifyIntentRequest, ClassifyIntentResponse](httpClient, baseURL+ClassifyIntentProcedure, opts...),
		bias:     connect.NewClient[DetectBiasRequest, DetectBiasResponse](httpClient, baseURL+DetectBiasProcedure, opts...),
	}
}

func (c *Client) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	resp, err := c.chat.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

func (c *Client) ClassifyIntent(ctx context.Context, req *ClassifyIntentRequest) (*ClassifyIntentResponse, error) {
	resp, err := c.classify.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

func (c *Client) DetectBias(ctx context.Context, req *DetectBiasRequest) (*DetectBiasResponse, error) {
	resp, err := c.bias.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

// toConnectError maps domain error types onto Connect codes.
func toConnectError(err error) error {
	if errors.Is(err, context.Canceled) {
		return connect.NewError(connect.CodeCanceled, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	}
	switch domain.TypeOf(err) {
	case domain.ErrorTypeValidation:
		return connect.NewError(connect.CodeInvalidArgument, err)
	case domain.ErrorTypeNotFound:
		return connect.NewError(connect.CodeNotFound, err)
	case domain.ErrorTypeReadOnly:
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case domain.ErrorTypeProvider, domain.ErrorTypeStorage:
		return connect.NewError(connect.CodeUnavailable, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}
