package http

import (
	"encoding/json"
	"io"
	"net/http"
	"pulse-lab/domain/poll"
	"pulse-lab/errors"
	"pulse-lab/infrastructure/codec"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

const maxBodySize = 64 * 1024

// Response is the envelope of every JSON answer.
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
}

type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type SessionResponse struct {
	SessionID string `json:"sessionId"`
	CreatedAt string `json:"createdAt"`
	JoinURL   string `json:"joinUrl"`

	PresenterToken string `json:"presenterToken,omitempty"`
}

type PublishResponse struct {
	Published bool           `json:"published"`
	Prompt    map[string]any `json:"prompt"`
}

type PromptResponse struct {
	Prompt map[string]any `json:"prompt"`
}

type SubmitResponse struct {
	Result poll.SubmitResult `json:"result"`
	Key    string            `json:"key,omitempty"`
	Tally  poll.Tally        `json:"tally"`
}

type TallyResponse struct {
	SlideID poll.SlideID  `json:"slideId"`
	Tally   poll.Tally    `json:"tally"`
	Total   uint64        `json:"total"`
	Summary *poll.Summary `json:"summary,omitempty"`
}

type MarkResponse struct {
	Responded bool   `json:"responded"`
	Key       string `json:"key,omitempty"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

func (s *Server) sendSuccess(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(&Response{Success: true, Data: data}); err != nil {
		s.log.Warn("Failed to write response", "error", err)
	}
}

func (s *Server) sendError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(&Response{
		Success: false,
		Error:   &ErrorInfo{Code: code, Message: message},
	})
}

func (s *Server) sendDomainError(w http.ResponseWriter, err error) {
	status, code := errors.MapToHTTPError(err)
	if status >= http.StatusInternalServerError {
		s.log.Warn("Request failed", "error", err)
	}
	s.sendError(w, status, code, err.Error())
}

// readBody decodes a JSON object body into a struct so the wire codec can read it.
func readBody(r *http.Request) (*structpb.Struct, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return nil, err
	}
	msg := &structpb.Struct{}
	if len(body) == 0 {
		return msg, nil
	}
	if err := protojson.Unmarshal(body, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// promptJSON is nil when no prompt is active.
func promptJSON(p poll.Prompt) (map[string]any, error) {
	if p == nil {
		return nil, nil
	}
	s, err := codec.PromptToStruct(p)
	if err != nil {
		return nil, err
	}
	return s.AsMap(), nil
}
