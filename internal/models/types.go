package models

import "strings"

// UserInfo identifies the Zabbix user on whose behalf a request is made.
// It is passed through to the backend unmodified on every chat/create call.
type UserInfo struct {
	UserID   string `json:"userid"`
	Username string `json:"username"`
	Name     string `json:"name,omitempty"`
	Surname  string `json:"surname,omitempty"`
}

// DisplayName builds the human label for a user, preferring the real name.
func (u UserInfo) DisplayName() string {
	full := strings.TrimSpace(strings.Join(nonEmpty(u.Name, u.Surname), " "))
	if full != "" {
		return full
	}
	if u.Username != "" {
		return u.Username
	}
	return "Unknown user"
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// ChatRequest is the body posted to the backend /chat endpoint.
type ChatRequest struct {
	Message  string   `json:"message"`
	UserInfo UserInfo `json:"user_info"`
}

// Host is a resolved Zabbix host. Identifiers are opaque pass-through values.
type Host struct {
	HostID string `json:"hostid,omitempty"`
	Host   string `json:"host"`
	Name   string `json:"name,omitempty"`
}

// DisplayName returns the visible name when set, else the technical host id.
func (h Host) DisplayName() string {
	if h.Name != "" {
		return h.Name
	}
	return h.Host
}

// Group is a resolved Zabbix host group.
type Group struct {
	GroupID string `json:"groupid,omitempty"`
	Name    string `json:"name"`
}

// TriggerTag scopes a maintenance window to specific trigger tags.
type TriggerTag struct {
	Tag   string `json:"tag"`
	Value string `json:"value"`
}

// Recurrence type names as the backend emits them.
const (
	RecurrenceOnce    = "once"
	RecurrenceDaily   = "daily"
	RecurrenceWeekly  = "weekly"
	RecurrenceMonthly = "monthly"
)

// RecurrenceConfig is the compact schedule configuration. Only the fields
// relevant to the recurrence type are meaningful; the rest are ignored.
//
// Every is the interval multiplier; for monthly-by-weekday it is reused as
// the nth-week selector (1..5 = first..last). DayOfWeek is a 7-bit mask with
// bit 0 = Monday; Month is a 12-bit mask with bit 0 = January (4095 = every
// month). StartTime is seconds since local midnight.
type RecurrenceConfig struct {
	Every     int `json:"every,omitempty"`
	DayOfWeek int `json:"dayofweek,omitempty"`
	Day       int `json:"day,omitempty"`
	Month     int `json:"month,omitempty"`
	StartTime int `json:"start_time,omitempty"`
	Duration  int `json:"duration,omitempty"`
}

// SearchSummary carries the backend's resource-resolution counters.
type SearchSummary struct {
	TotalHostsFound  int  `json:"total_hosts_found"`
	TotalGroupsFound int  `json:"total_groups_found"`
	HostsByTags      int  `json:"hosts_by_tags"`
	HasMissing       bool `json:"has_missing"`
	IsRoutine        bool `json:"is_routine"`
	HasTicket        bool `json:"has_ticket"`
}

// ParsedMaintenanceRequest is the backend's structured interpretation of a
// free-text maintenance request. It is immutable once received; a newer parse
// replaces it wholesale.
type ParsedMaintenanceRequest struct {
	Message          string            `json:"message"`
	TicketNumber     string            `json:"ticket_number,omitempty"`
	RecurrenceType   string            `json:"recurrence_type"`
	RecurrenceConfig *RecurrenceConfig `json:"recurrence_config,omitempty"`
	StartTime        string            `json:"start_time"`
	EndTime          string            `json:"end_time"`
	Description      string            `json:"description,omitempty"`
	FoundHosts       []Host            `json:"found_hosts"`
	FoundGroups      []Group           `json:"found_groups"`
	MissingHosts     []string          `json:"missing_hosts"`
	MissingGroups    []string          `json:"missing_groups"`
	TriggerTags      []TriggerTag      `json:"trigger_tags"`
	SearchSummary    *SearchSummary    `json:"search_summary,omitempty"`
	Confidence       int               `json:"confidence,omitempty"`
}

// HasValidTargets reports whether the parse resolved at least one host or
// group. Confirmation must not be offered when this is false.
func (r *ParsedMaintenanceRequest) HasValidTargets() bool {
	return len(r.FoundHosts) > 0 || len(r.FoundGroups) > 0
}

// IsRoutine reports whether the request repeats (anything but "once").
func (r *ParsedMaintenanceRequest) IsRoutine() bool {
	return r.RecurrenceType != "" && r.RecurrenceType != RecurrenceOnce
}

// CreatePayload is the normalized body posted to /create_maintenance.
type CreatePayload struct {
	Name             string            `json:"name,omitempty"`
	Hosts            []string          `json:"hosts"`
	Groups           []string          `json:"groups"`
	StartTime        string            `json:"start_time"`
	EndTime          string            `json:"end_time"`
	Description      string            `json:"description,omitempty"`
	RecurrenceType   string            `json:"recurrence_type"`
	RecurrenceConfig *RecurrenceConfig `json:"recurrence_config,omitempty"`
	TicketNumber     string            `json:"ticket_number"`
	TriggerTags      []TriggerTag      `json:"trigger_tags"`
	UserInfo         UserInfo          `json:"user_info"`
}

// CreateResult is the backend's answer to a successful create.
type CreateResult struct {
	Message        string `json:"message"`
	MaintenanceID  string `json:"maintenance_id,omitempty"`
	Name           string `json:"name,omitempty"`
	IsRoutine      bool   `json:"is_routine,omitempty"`
	RecurrenceType string `json:"recurrence_type,omitempty"`
	HostsAffected  int    `json:"hosts_affected,omitempty"`
	GroupsAffected int    `json:"groups_affected,omitempty"`
}

// HealthStatus is the backend /health payload.
type HealthStatus struct {
	Status          string   `json:"status"`
	ZabbixConnected bool     `json:"zabbix_connected"`
	AIProvider      string   `json:"ai_provider,omitempty"`
	Version         string   `json:"version,omitempty"`
	Features        []string `json:"features,omitempty"`
}

// Template describes one routine-maintenance template.
type Template struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Examples    []string `json:"examples"`
}

// TemplateSet maps recurrence-type names to their templates.
type TemplateSet map[string]Template

// Example is a titled usage example attached to help replies.
type Example struct {
	Title   string `json:"title"`
	Example string `json:"example"`
}

// MaintenanceEntry is the subset of /maintenance/list consumed for counts.
type MaintenanceEntry struct {
	IsRoutine    bool   `json:"is_routine"`
	RoutineType  string `json:"routine_type,omitempty"`
	TicketNumber string `json:"ticket_number,omitempty"`
}

// MaintenanceStats aggregates the maintenance list for the widget's counters.
type MaintenanceStats struct {
	Total      int            `json:"total"`
	OneTime    int            `json:"one_time"`
	Routine    int            `json:"routine"`
	ByType     map[string]int `json:"by_type"`
	WithTicket int            `json:"with_ticket"`
}

// Notice severities understood by the rendering surface.
const (
	SeverityInfo    = "info"
	SeveritySuccess = "success"
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// Notice is a single renderable message with a severity tag.
type Notice struct {
	Severity string `json:"severity"`
	Text     string `json:"text"`
}
