package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovert/zabbix-maintenance-assistant/internal/models"
)

func hosts(names ...string) []models.Host {
	out := make([]models.Host, 0, len(names))
	for _, n := range names {
		out = append(out, models.Host{Host: n, Name: n})
	}
	return out
}

func groups(names ...string) []models.Group {
	out := make([]models.Group, 0, len(names))
	for _, n := range names {
		out = append(out, models.Group{Name: n})
	}
	return out
}

func TestMaintenanceName(t *testing.T) {
	tests := []struct {
		name string
		req  models.ParsedMaintenanceRequest
		want string
	}{
		{
			name: "ticket wins over resources on a once request",
			req: models.ParsedMaintenanceRequest{
				TicketNumber:   "100-178306",
				RecurrenceType: models.RecurrenceOnce,
				FoundHosts:     hosts("h1", "h2"),
				FoundGroups:    groups("g1"),
			},
			want: "AI Maintenance: 100-178306",
		},
		{
			name: "routine prefix with ticket",
			req: models.ParsedMaintenanceRequest{
				TicketNumber:   "200-8341",
				RecurrenceType: models.RecurrenceWeekly,
			},
			want: "AI Routine Maintenance: 200-8341",
		},
		{
			name: "four hosts truncate after three",
			req: models.ParsedMaintenanceRequest{
				RecurrenceType: models.RecurrenceOnce,
				FoundHosts:     hosts("h1", "h2", "h3", "h4"),
			},
			want: "AI Maintenance: h1, h2, h3, and 1 more hosts",
		},
		{
			name: "three groups truncate after two",
			req: models.ParsedMaintenanceRequest{
				RecurrenceType: models.RecurrenceOnce,
				FoundGroups:    groups("db", "web", "app"),
			},
			want: "AI Maintenance: Group db, Group web, and 1 more groups",
		},
		{
			name: "hosts then groups",
			req: models.ParsedMaintenanceRequest{
				RecurrenceType: models.RecurrenceOnce,
				FoundHosts:     hosts("h1"),
				FoundGroups:    groups("db"),
			},
			want: "AI Maintenance: h1, Group db",
		},
		{
			name: "host id used when display name missing",
			req: models.ParsedMaintenanceRequest{
				RecurrenceType: models.RecurrenceOnce,
				FoundHosts:     []models.Host{{Host: "srv-web01"}},
			},
			want: "AI Maintenance: srv-web01",
		},
		{
			name: "no resources at all",
			req: models.ParsedMaintenanceRequest{
				RecurrenceType: models.RecurrenceOnce,
			},
			want: "AI Maintenance: Various resources",
		},
		{
			name: "whitespace ticket is no ticket",
			req: models.ParsedMaintenanceRequest{
				TicketNumber:   "   ",
				RecurrenceType: models.RecurrenceOnce,
				FoundHosts:     hosts("h1"),
			},
			want: "AI Maintenance: h1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MaintenanceName(&tt.req))
		})
	}
}

func TestBuildCreatePayloadNormalization(t *testing.T) {
	req := &models.ParsedMaintenanceRequest{
		RecurrenceType: "",
		StartTime:      "2025-08-28 08:00",
		EndTime:        "2025-08-28 10:00",
		Description:    "Disk replacement",
		FoundHosts: []models.Host{
			{HostID: "10084", Host: "srv-web01", Name: "Web server 01"},
		},
		FoundGroups: groups("Databases"),
	}

	payload := BuildCreatePayload(req, testUser)

	// host identifiers, not display names
	assert.Equal(t, []string{"srv-web01"}, payload.Hosts)
	assert.Equal(t, []string{"Databases"}, payload.Groups)
	assert.Equal(t, models.RecurrenceOnce, payload.RecurrenceType, "absent recurrence type defaults to once")
	assert.Equal(t, "", payload.TicketNumber)
	assert.NotNil(t, payload.TriggerTags)
	assert.Empty(t, payload.TriggerTags)
	assert.Nil(t, payload.RecurrenceConfig, "config omitted when the parse had none")
	assert.Equal(t, testUser, payload.UserInfo)

	// trigger_tags must serialize as [], not null
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"trigger_tags":[]`)
}

func TestBuildCreatePayloadKeepsRecurrenceConfig(t *testing.T) {
	cfg := &models.RecurrenceConfig{Every: 1, DayOfWeek: 24, StartTime: 18000, Duration: 7200}
	req := &models.ParsedMaintenanceRequest{
		RecurrenceType:   models.RecurrenceWeekly,
		TicketNumber:     " 100-178306 ",
		RecurrenceConfig: cfg,
		FoundHosts:       hosts("h1"),
		TriggerTags:      []models.TriggerTag{{Tag: "component", Value: "cpu"}},
	}

	payload := BuildCreatePayload(req, testUser)
	assert.Equal(t, cfg, payload.RecurrenceConfig)
	assert.Equal(t, "100-178306", payload.TicketNumber)
	assert.Equal(t, models.RecurrenceWeekly, payload.RecurrenceType)
	require.Len(t, payload.TriggerTags, 1)
}

func TestConfirmCreatesAndClearsPending(t *testing.T) {
	var createBody models.CreatePayload
	mux := http.NewServeMux()
	mux.HandleFunc("/chat", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, parsedRequestBody)
	})
	mux.HandleFunc("/create_maintenance", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&createBody))
		fmt.Fprint(w, `{"message": "Maintenance created successfully!", "maintenance_id": "77", "is_routine": false}`)
	})

	orch, store := newTestOrchestrator(t, mux)

	_, err := orch.Send(context.Background(), "maintenance for srv-web01 tomorrow 8-10", testUser)
	require.NoError(t, err)

	result, err := orch.Confirm(context.Background(), testUser)
	require.NoError(t, err)
	assert.Equal(t, "Maintenance created successfully!", result.Reply)
	require.Len(t, result.Notices, 1)
	assert.Equal(t, models.SeveritySuccess, result.Notices[0].Severity)

	assert.Equal(t, []string{"srv-web01"}, createBody.Hosts)
	assert.Equal(t, "AI Maintenance: Web server 01", createBody.Name)
	assert.Equal(t, testUser.UserID, createBody.UserInfo.UserID)

	session, err := store.LoadSession(context.Background(), testUser.UserID)
	require.NoError(t, err)
	assert.Nil(t, session.Pending, "pending cleared after successful create")

	// confirming again has nothing to work with
	result, err = orch.Confirm(context.Background(), testUser)
	require.NoError(t, err)
	require.Len(t, result.Notices, 1)
	assert.Equal(t, models.SeverityWarning, result.Notices[0].Severity)
}

func TestConfirmFailureKeepsPending(t *testing.T) {
	var createCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/chat", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, parsedRequestBody)
	})
	mux.HandleFunc("/create_maintenance", func(w http.ResponseWriter, r *http.Request) {
		createCalls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"type": "error", "message": "Zabbix Error: invalid period"}`)
	})

	orch, store := newTestOrchestrator(t, mux)

	_, err := orch.Send(context.Background(), "maintenance for srv-web01 tomorrow 8-10", testUser)
	require.NoError(t, err)

	result, err := orch.Confirm(context.Background(), testUser)
	require.NoError(t, err)
	require.Len(t, result.Notices, 1)
	assert.Equal(t, models.SeverityError, result.Notices[0].Severity)
	assert.Contains(t, result.Notices[0].Text, "still pending")

	// create is never auto-retried
	assert.Equal(t, int32(1), createCalls.Load())

	session, err := store.LoadSession(context.Background(), testUser.UserID)
	require.NoError(t, err)
	require.NotNil(t, session.Pending, "pending survives a failed create for manual retry")

	// manual retry reaches the backend again
	_, err = orch.Confirm(context.Background(), testUser)
	require.NoError(t, err)
	assert.Equal(t, int32(2), createCalls.Load())
}

func TestConfirmWithoutValidTargets(t *testing.T) {
	var createCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/chat", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"type": "maintenance_request",
			"message": "Nothing found.",
			"recurrence_type": "once",
			"start_time": "2025-08-28 08:00",
			"end_time": "2025-08-28 10:00",
			"found_hosts": [],
			"found_groups": [],
			"missing_hosts": ["srv-ghost"]
		}`)
	})
	mux.HandleFunc("/create_maintenance", func(w http.ResponseWriter, r *http.Request) {
		createCalls.Add(1)
	})

	orch, _ := newTestOrchestrator(t, mux)

	_, err := orch.Send(context.Background(), "maintenance for srv-ghost tomorrow", testUser)
	require.NoError(t, err)

	result, err := orch.Confirm(context.Background(), testUser)
	require.NoError(t, err)
	require.Len(t, result.Notices, 1)
	assert.Equal(t, models.SeverityWarning, result.Notices[0].Severity)
	assert.Equal(t, int32(0), createCalls.Load(), "create must not be reached without targets")
}

func TestCancelDiscardsPending(t *testing.T) {
	orch, store := newTestOrchestrator(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, parsedRequestBody)
	}))

	_, err := orch.Send(context.Background(), "maintenance for srv-web01 tomorrow 8-10", testUser)
	require.NoError(t, err)

	result, err := orch.Cancel(context.Background(), testUser)
	require.NoError(t, err)
	require.Len(t, result.Notices, 1)
	assert.Equal(t, models.SeverityInfo, result.Notices[0].Severity)

	session, err := store.LoadSession(context.Background(), testUser.UserID)
	require.NoError(t, err)
	assert.Nil(t, session.Pending)

	// cancel with nothing pending is still fine
	_, err = orch.Cancel(context.Background(), testUser)
	require.NoError(t, err)
}

func TestBuildPreviewRoutineSchedule(t *testing.T) {
	req := &models.ParsedMaintenanceRequest{
		RecurrenceType: models.RecurrenceMonthly,
		RecurrenceConfig: &models.RecurrenceConfig{
			DayOfWeek: 1, Every: 1, Month: 4095, StartTime: 10800, Duration: 7200,
		},
		StartTime:   "2025-09-01 03:00",
		EndTime:     "2026-09-01 05:00",
		FoundHosts:  hosts("srv-db01"),
		FoundGroups: groups("Databases"),
	}

	orch, _ := newTestOrchestrator(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	preview := orch.buildPreview(req, testUser)

	assert.True(t, preview.Routine)
	assert.Equal(t, "first week - Monday of every month at 03:00", preview.Schedule)
	assert.NotEmpty(t, preview.ScheduleLines)
	assert.Equal(t, []string{"srv-db01"}, preview.Hosts)
	assert.Equal(t, []string{"Databases"}, preview.Groups)
	assert.Equal(t, "Jordan Doe", preview.RequestedBy)
}
