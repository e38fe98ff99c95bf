package orchestrator

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/grovert/zabbix-maintenance-assistant/internal/conversation"
	"github.com/grovert/zabbix-maintenance-assistant/internal/models"
	"github.com/grovert/zabbix-maintenance-assistant/internal/recurrence"
)

// Name prefixes, matching the backend's independent computation so preview
// and created maintenance carry the same name.
const (
	oncePrefix    = "AI Maintenance"
	routinePrefix = "AI Routine Maintenance"
)

// ConfirmationPreview is the structured detail map rendered before the
// operator confirms.
type ConfirmationPreview struct {
	Name          string   `json:"name"`
	StartTime     string   `json:"start_time"`
	EndTime       string   `json:"end_time"`
	Routine       bool     `json:"routine"`
	Schedule      string   `json:"schedule,omitempty"`
	ScheduleLines []string `json:"schedule_lines,omitempty"`
	Hosts         []string `json:"hosts"`
	Groups        []string `json:"groups"`
	MissingHosts  []string `json:"missing_hosts,omitempty"`
	MissingGroups []string `json:"missing_groups,omitempty"`
	TicketNumber  string   `json:"ticket_number,omitempty"`
	RequestedBy   string   `json:"requested_by"`
}

func (o *Orchestrator) buildPreview(req *models.ParsedMaintenanceRequest, identity models.UserInfo) *ConfirmationPreview {
	preview := &ConfirmationPreview{
		Name:          MaintenanceName(req),
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		Routine:       req.IsRoutine(),
		MissingHosts:  req.MissingHosts,
		MissingGroups: req.MissingGroups,
		TicketNumber:  strings.TrimSpace(req.TicketNumber),
		RequestedBy:   identity.DisplayName(),
		Hosts:         make([]string, 0, len(req.FoundHosts)),
		Groups:        make([]string, 0, len(req.FoundGroups)),
	}
	for _, h := range req.FoundHosts {
		preview.Hosts = append(preview.Hosts, h.DisplayName())
	}
	for _, g := range req.FoundGroups {
		preview.Groups = append(preview.Groups, g.Name)
	}
	if req.IsRoutine() {
		preview.Schedule = recurrence.Describe(req.RecurrenceType, req.RecurrenceConfig)
		preview.ScheduleLines = recurrence.PreviewLines(req.RecurrenceType, req.RecurrenceConfig)
	}
	return preview
}

// Confirm creates the pending maintenance. The create call is never retried
// automatically; on failure the pending request survives so the operator can
// confirm again.
func (o *Orchestrator) Confirm(ctx context.Context, identity models.UserInfo) (*TurnResult, error) {
	result := &TurnResult{}

	session, err := o.store.LoadSession(ctx, identity.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session.Pending == nil {
		result.addNotice(models.SeverityWarning, "There is no maintenance request waiting for confirmation.")
		return result, nil
	}
	if !session.Pending.HasValidTargets() {
		result.addNotice(models.SeverityWarning,
			"The pending request has no resolved hosts or groups, so it cannot be created.")
		return result, nil
	}

	payload := BuildCreatePayload(session.Pending, identity)

	createCtx, cancel := context.WithTimeout(ctx, o.chatTimeout)
	defer cancel()

	created, err := o.backend.CreateMaintenance(createCtx, payload)
	if err != nil {
		// Pending state is kept so the operator can retry manually.
		log.Printf("create maintenance failed for user %s: %v", identity.UserID, err)
		result.addNotice(models.SeverityError, createFailureNotice(err))
		return result, nil
	}

	if err := o.store.ClearPending(ctx, identity.UserID); err != nil {
		return nil, fmt.Errorf("failed to clear pending request: %w", err)
	}

	result.Reply = created.Message
	if result.Reply == "" {
		result.Reply = fmt.Sprintf("Maintenance %q created successfully.", payload.Name)
	}
	result.addNotice(models.SeveritySuccess, "Maintenance created.")

	if err := o.store.AppendMessage(ctx, identity.UserID, conversation.Message{
		Role: "assistant", Content: result.Reply, Timestamp: time.Now(),
	}); err != nil {
		return nil, fmt.Errorf("failed to record assistant message: %w", err)
	}
	return result, nil
}

// Cancel discards the pending request unconditionally.
func (o *Orchestrator) Cancel(ctx context.Context, identity models.UserInfo) (*TurnResult, error) {
	if err := o.store.ClearPending(ctx, identity.UserID); err != nil {
		return nil, fmt.Errorf("failed to clear pending request: %w", err)
	}
	result := &TurnResult{}
	result.addNotice(models.SeverityInfo,
		"Maintenance request cancelled. Tell me when you need another one.")
	return result, nil
}

// BuildCreatePayload normalizes a parsed request into the creation body:
// host identifiers (not display names), group names, defaulted recurrence
// type and ticket, and the recurrence config only when the parse had one.
func BuildCreatePayload(req *models.ParsedMaintenanceRequest, identity models.UserInfo) models.CreatePayload {
	hosts := make([]string, 0, len(req.FoundHosts))
	for _, h := range req.FoundHosts {
		hosts = append(hosts, h.Host)
	}
	groups := make([]string, 0, len(req.FoundGroups))
	for _, g := range req.FoundGroups {
		groups = append(groups, g.Name)
	}

	recurrenceType := req.RecurrenceType
	if recurrenceType == "" {
		recurrenceType = models.RecurrenceOnce
	}

	tags := req.TriggerTags
	if tags == nil {
		tags = []models.TriggerTag{}
	}

	return models.CreatePayload{
		Name:             MaintenanceName(req),
		Hosts:            hosts,
		Groups:           groups,
		StartTime:        req.StartTime,
		EndTime:          req.EndTime,
		Description:      req.Description,
		RecurrenceType:   recurrenceType,
		RecurrenceConfig: req.RecurrenceConfig,
		TicketNumber:     strings.TrimSpace(req.TicketNumber),
		TriggerTags:      tags,
		UserInfo:         identity,
	}
}

// MaintenanceName derives the maintenance name from a parsed request. A
// ticket number takes absolute priority; otherwise up to 3 host names and 2
// group names with "and K more" markers; "Various resources" as a last
// resort.
func MaintenanceName(req *models.ParsedMaintenanceRequest) string {
	prefix := oncePrefix
	if req.IsRoutine() {
		prefix = routinePrefix
	}

	if ticket := strings.TrimSpace(req.TicketNumber); ticket != "" {
		return fmt.Sprintf("%s: %s", prefix, ticket)
	}

	var parts []string
	for i, h := range req.FoundHosts {
		if i == 3 {
			parts = append(parts, fmt.Sprintf("and %d more hosts", len(req.FoundHosts)-3))
			break
		}
		parts = append(parts, h.DisplayName())
	}
	for i, g := range req.FoundGroups {
		if i == 2 {
			parts = append(parts, fmt.Sprintf("and %d more groups", len(req.FoundGroups)-2))
			break
		}
		parts = append(parts, "Group "+g.Name)
	}

	if len(parts) == 0 {
		return fmt.Sprintf("%s: Various resources", prefix)
	}
	return fmt.Sprintf("%s: %s", prefix, strings.Join(parts, ", "))
}

func createFailureNotice(err error) string {
	return fmt.Sprintf("The maintenance could not be created: %v. Your request is still pending, you can confirm again.", err)
}
