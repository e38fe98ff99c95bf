// Package orchestrator drives the conversational maintenance-request
// lifecycle: one backend call per user turn, retry of transient failures,
// classification of the reply, and the confirmation workflow that gates the
// irreversible create.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/grovert/zabbix-maintenance-assistant/internal/backend"
	"github.com/grovert/zabbix-maintenance-assistant/internal/classify"
	"github.com/grovert/zabbix-maintenance-assistant/internal/config"
	"github.com/grovert/zabbix-maintenance-assistant/internal/conversation"
	"github.com/grovert/zabbix-maintenance-assistant/internal/models"
)

// Orchestrator drives chat turns against the backend for all widget users.
// It holds no per-turn state, so concurrent turns from the gateway and the
// NATS transport are safe; retry accounting lives inside each turn.
type Orchestrator struct {
	backend *backend.Client
	store   conversation.Store

	chatTimeout  time.Duration
	probeTimeout time.Duration
	maxRetries   int
	retryDelay   time.Duration
}

func New(client *backend.Client, store conversation.Store, cfg *config.Config) *Orchestrator {
	return &Orchestrator{
		backend:      client,
		store:        store,
		chatTimeout:  cfg.ChatTimeout,
		probeTimeout: cfg.ProbeTimeout,
		maxRetries:   cfg.MaxRetries,
		retryDelay:   cfg.RetryDelay,
	}
}

// TurnResult is what the rendering surface shows for one settled turn.
// Every turn resolves to one of these, error paths included.
type TurnResult struct {
	Reply        string               `json:"reply,omitempty"`
	Notices      []models.Notice      `json:"notices,omitempty"`
	Examples     []models.Example     `json:"examples,omitempty"`
	DetectedInfo map[string]string    `json:"detected_info,omitempty"`
	Confirmation *ConfirmationPreview `json:"confirmation,omitempty"`
}

func (t *TurnResult) addNotice(severity, text string) {
	t.Notices = append(t.Notices, models.Notice{Severity: severity, Text: text})
}

// Send issues one chat turn. Invalid messages fail fast without a network
// call; timeouts and network errors are resubmitted automatically up to the
// retry budget with a fixed delay; server errors are surfaced immediately.
func (o *Orchestrator) Send(ctx context.Context, message string, identity models.UserInfo) (*TurnResult, error) {
	result := &TurnResult{}

	trimmed := strings.TrimSpace(message)
	if err := ValidateMessage(trimmed); err != nil {
		result.addNotice(models.SeverityWarning, validationNotice(err))
		return result, nil
	}

	if err := o.store.AppendMessage(ctx, identity.UserID, conversation.Message{
		Role: "user", Content: trimmed, Timestamp: time.Now(),
	}); err != nil {
		return nil, fmt.Errorf("failed to record user message: %w", err)
	}

	raw, ok := o.sendWithRetry(ctx, trimmed, identity, result)
	if !ok {
		return result, nil
	}

	classified, err := classify.Classify(raw)
	if err != nil {
		var malformed *classify.MalformedResponseError
		if errors.As(err, &malformed) {
			log.Printf("malformed chat response for user %s: %v", identity.UserID, err)
			result.addNotice(models.SeverityError,
				"I received an invalid response from the assistant. Please try again.")
			return result, nil
		}
		return nil, err
	}

	if err := o.applyOutcome(ctx, classified, identity, result); err != nil {
		return nil, err
	}
	return result, nil
}

// sendWithRetry runs the bounded retry loop for one message. The attempt
// counter is local to the turn, so every turn gets the full budget and
// concurrent turns never share failure state. It reports whether a payload
// was obtained; on final failure the result already carries the rendered
// failure notice.
func (o *Orchestrator) sendWithRetry(ctx context.Context, message string, identity models.UserInfo, result *TurnResult) (json.RawMessage, bool) {
	req := models.ChatRequest{Message: message, UserInfo: identity}

	for attempt := 0; ; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, o.chatTimeout)
		raw, err := o.backend.Chat(attemptCtx, req)
		cancel()

		if err == nil {
			return raw, true
		}

		var serverErr *backend.ServerError
		if errors.As(err, &serverErr) {
			result.addNotice(models.SeverityError, serverNotice(serverErr))
			return nil, false
		}

		if !isRetryable(err) || attempt >= o.maxRetries {
			result.addNotice(models.SeverityError, finalFailureNotice(err))
			return nil, false
		}

		log.Printf("chat attempt failed for user %s, retrying (%d/%d): %v",
			identity.UserID, attempt+1, o.maxRetries, err)
		result.addNotice(models.SeverityWarning,
			fmt.Sprintf("Connection problem, retrying (attempt %d/%d)...",
				attempt+2, o.maxRetries+1))

		// A dead parent context settles the turn now instead of
		// sleeping out the delay.
		select {
		case <-ctx.Done():
			result.addNotice(models.SeverityError, finalFailureNotice(err))
			return nil, false
		case <-time.After(o.retryDelay):
		}
	}
}

func (o *Orchestrator) applyOutcome(ctx context.Context, classified *classify.Result, identity models.UserInfo, result *TurnResult) error {
	switch classified.Kind {
	case classify.KindMaintenanceRequest:
		return o.acceptRequest(ctx, classified.Request, identity, result)

	case classify.KindHelp:
		result.Reply = classified.Message
		result.Examples = classified.Examples

	case classify.KindOffTopic:
		result.Reply = classified.Message
		result.addNotice(models.SeverityInfo,
			"I can only help with creating maintenance windows.")

	case classify.KindClarification:
		result.Reply = classified.Message
		if len(classified.DetectedInfo) > 0 {
			result.DetectedInfo = classified.DetectedInfo
		}

	case classify.KindError:
		result.addNotice(models.SeverityError, classified.Message)

	default:
		log.Printf("unexpected chat response type %q for user %s", classified.RawType, identity.UserID)
		result.addNotice(models.SeverityWarning,
			"I didn't understand the assistant's response. Could you rephrase your request?")
	}

	return o.appendReply(ctx, identity, result)
}

// acceptRequest stores a freshly parsed request as the pending one,
// replacing any prior pending request rather than queueing.
func (o *Orchestrator) acceptRequest(ctx context.Context, req *models.ParsedMaintenanceRequest, identity models.UserInfo, result *TurnResult) error {
	if err := o.store.SetPending(ctx, identity.UserID, req); err != nil {
		return fmt.Errorf("failed to store pending request: %w", err)
	}

	result.Reply = req.Message

	if !req.HasValidTargets() {
		// No confirm affordance without at least one resolved target.
		result.addNotice(models.SeverityWarning,
			"I couldn't find any of the servers or groups you mentioned, so there is nothing to confirm. Please check the names and try again.")
		return o.appendReply(ctx, identity, result)
	}

	result.Confirmation = o.buildPreview(req, identity)
	return o.appendReply(ctx, identity, result)
}

func (o *Orchestrator) appendReply(ctx context.Context, identity models.UserInfo, result *TurnResult) error {
	if result.Reply == "" {
		return nil
	}
	if err := o.store.AppendMessage(ctx, identity.UserID, conversation.Message{
		Role: "assistant", Content: result.Reply, Timestamp: time.Now(),
	}); err != nil {
		return fmt.Errorf("failed to record assistant message: %w", err)
	}
	return nil
}

// Health probes the backend. Failures are advisory only: the returned
// notice is a soft warning and the chat flow is never blocked on it.
func (o *Orchestrator) Health(ctx context.Context) (*models.HealthStatus, *models.Notice) {
	probeCtx, cancel := context.WithTimeout(ctx, o.probeTimeout)
	defer cancel()

	status, err := o.backend.Health(probeCtx)
	if err != nil {
		log.Printf("health check failed: %v", err)
		return nil, &models.Notice{
			Severity: models.SeverityWarning,
			Text:     fmt.Sprintf("Assistant backend is unreachable: %v", err),
		}
	}
	if status.Status != "healthy" {
		return status, &models.Notice{
			Severity: models.SeverityWarning,
			Text:     fmt.Sprintf("Assistant backend reports status %q.", status.Status),
		}
	}
	return status, nil
}

// Templates fetches the routine-maintenance templates, best effort.
func (o *Orchestrator) Templates(ctx context.Context) (models.TemplateSet, *models.Notice) {
	probeCtx, cancel := context.WithTimeout(ctx, o.probeTimeout)
	defer cancel()

	templates, err := o.backend.Templates(probeCtx)
	if err != nil {
		log.Printf("templates fetch failed: %v", err)
		return nil, &models.Notice{
			Severity: models.SeverityWarning,
			Text:     "Maintenance templates are unavailable right now.",
		}
	}
	return templates, nil
}

// Stats aggregates the existing maintenance list into the widget counters.
func (o *Orchestrator) Stats(ctx context.Context) (*models.MaintenanceStats, *models.Notice) {
	probeCtx, cancel := context.WithTimeout(ctx, o.probeTimeout)
	defer cancel()

	entries, err := o.backend.ListMaintenances(probeCtx)
	if err != nil {
		log.Printf("maintenance list fetch failed: %v", err)
		return nil, &models.Notice{
			Severity: models.SeverityWarning,
			Text:     "Maintenance statistics are unavailable right now.",
		}
	}

	stats := &models.MaintenanceStats{
		Total:  len(entries),
		ByType: map[string]int{},
	}
	for _, entry := range entries {
		if entry.IsRoutine {
			stats.Routine++
			if entry.RoutineType != "" {
				stats.ByType[entry.RoutineType]++
			}
		} else {
			stats.OneTime++
		}
		if strings.TrimSpace(entry.TicketNumber) != "" {
			stats.WithTicket++
		}
	}
	return stats, nil
}

// ---- Notice wording ----

func validationNotice(err error) string {
	var v *ValidationError
	if !errors.As(err, &v) {
		return "Your message could not be processed."
	}
	switch v.Bound {
	case BoundEmpty:
		return "I didn't receive any message. What maintenance do you need to create?"
	case BoundTooShort:
		return fmt.Sprintf("Your message is too short. Please describe the maintenance in at least %d characters.", MinMessageLen)
	default:
		return fmt.Sprintf("Your message is too long. Please keep it under %d characters.", MaxMessageLen)
	}
}

func serverNotice(err *backend.ServerError) string {
	if err.Message != "" {
		return err.Message
	}
	return fmt.Sprintf("The assistant backend returned an error (status %d). Please try again later.", err.Status)
}

func finalFailureNotice(err error) string {
	var netErr *backend.NetworkError
	if errors.As(err, &netErr) {
		return "Could not reach the assistant backend. Please check the connection and try again."
	}
	return "The request took too long to complete. Please try again."
}

func isRetryable(err error) bool {
	var timeoutErr *backend.TimeoutError
	var netErr *backend.NetworkError
	return errors.As(err, &timeoutErr) || errors.As(err, &netErr)
}
