package query

import (
	"encoding/json"

	"github.com/nats-io/nats.go"

	"github.com/c360/ctffs/component"
)

// Server exposes MetadataInfo over a NATS request/reply subject, letting a
// pipeline control plane ask "what's in this trace's metadata?" without
// linking against this package directly. Transport-optional: MetadataInfo
// itself has no NATS dependency.
type Server struct {
	logger *component.Logger
}

// NewServer constructs a Server. logger may be nil.
func NewServer(logger *component.Logger) *Server {
	return &Server{logger: logger}
}

type queryRequest struct {
	Path string `json:"path"`
}

type queryResponse struct {
	Result *Result `json:"result,omitempty"`
	Error  string  `json:"error,omitempty"`
}

// Serve subscribes subject on nc and answers every request with a
// MetadataInfo lookup. It returns once the subscription is established;
// call sub.Unsubscribe() on the returned subscription to stop serving.
func (s *Server) Serve(nc *nats.Conn, subject string) (*nats.Subscription, error) {
	return nc.Subscribe(subject, func(msg *nats.Msg) {
		var req queryRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			s.reply(msg, queryResponse{Error: err.Error()})
			return
		}

		result, err := MetadataInfo(req.Path)
		if err != nil {
			s.reply(msg, queryResponse{Error: err.Error()})
			return
		}
		s.reply(msg, queryResponse{Result: &result})
	})
}

func (s *Server) reply(msg *nats.Msg, resp queryResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("marshal query response", err)
		}
		return
	}
	if err := msg.Respond(data); err != nil && s.logger != nil {
		s.logger.Warn("respond to query request", "error", err)
	}
}
