// Package transport exposes the orchestrator to the dashboard widget over
// NATS request/reply.
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/grovert/zabbix-maintenance-assistant/internal/config"
	"github.com/grovert/zabbix-maintenance-assistant/internal/models"
	"github.com/grovert/zabbix-maintenance-assistant/internal/orchestrator"
)

// WidgetRequest is the message the widget publishes on the chat, confirm
// and cancel subjects. Message is only meaningful for chat.
type WidgetRequest struct {
	Message  string          `json:"message,omitempty"`
	UserInfo models.UserInfo `json:"user_info"`
}

type NATSTransport struct {
	conn   *nats.Conn
	config *config.Config
	orch   *orchestrator.Orchestrator
}

func NewNATSTransport(cfg *config.Config, orch *orchestrator.Orchestrator) (*NATSTransport, error) {
	conn, err := nats.Connect(cfg.NatsURL,
		nats.Name(cfg.ServiceName),
		nats.Timeout(cfg.NatsTimeout),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	log.Printf("Connected to NATS server: %s", cfg.NatsURL)

	return &NATSTransport{conn: conn, config: cfg, orch: orch}, nil
}

func (nt *NATSTransport) subject(op string) string {
	return nt.config.NatsSubjectPrefix + "." + op
}

func (nt *NATSTransport) Start() error {
	handlers := map[string]func(context.Context, WidgetRequest) (*orchestrator.TurnResult, error){
		nt.subject("chat"): func(ctx context.Context, req WidgetRequest) (*orchestrator.TurnResult, error) {
			return nt.orch.Send(ctx, req.Message, req.UserInfo)
		},
		nt.subject("confirm"): func(ctx context.Context, req WidgetRequest) (*orchestrator.TurnResult, error) {
			return nt.orch.Confirm(ctx, req.UserInfo)
		},
		nt.subject("cancel"): func(ctx context.Context, req WidgetRequest) (*orchestrator.TurnResult, error) {
			return nt.orch.Cancel(ctx, req.UserInfo)
		},
	}

	for subject, handler := range handlers {
		h := handler
		if _, err := nt.conn.Subscribe(subject, func(msg *nats.Msg) {
			nt.handle(msg, h)
		}); err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
		}
		log.Printf("Subscribed to subject: %s", subject)
	}
	return nil
}

func (nt *NATSTransport) handle(msg *nats.Msg, fn func(context.Context, WidgetRequest) (*orchestrator.TurnResult, error)) {
	var request WidgetRequest
	if err := json.Unmarshal(msg.Data, &request); err != nil {
		log.Printf("Error parsing request on %s: %v", msg.Subject, err)
		nt.respondError(msg, "Invalid request format")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), nt.config.NatsTimeout)
	defer cancel()

	result, err := fn(ctx, request)
	if err != nil {
		log.Printf("Error handling %s for user %s: %v", msg.Subject, request.UserInfo.UserID, err)
		nt.respondError(msg, "The assistant hit an internal error. Please try again.")
		return
	}

	nt.respond(msg, result)
}

func (nt *NATSTransport) respond(msg *nats.Msg, result *orchestrator.TurnResult) {
	data, err := json.Marshal(result)
	if err != nil {
		log.Printf("Error marshaling response: %v", err)
		return
	}
	if err := msg.Respond(data); err != nil {
		log.Printf("Error sending response on %s: %v", msg.Subject, err)
	}
}

func (nt *NATSTransport) respondError(msg *nats.Msg, text string) {
	result := &orchestrator.TurnResult{
		Notices: []models.Notice{{Severity: models.SeverityError, Text: text}},
	}
	nt.respond(msg, result)
}

func (nt *NATSTransport) Close() error {
	if nt.conn != nil {
		nt.conn.Close()
		log.Println("NATS connection closed")
	}
	return nil
}
