package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// apptDTO mirrors the appointment fields the scheduling tests assert on.
type apptDTO struct {
	ID                 uuid.UUID `json:"id"`
	CareReceiverID     uuid.UUID `json:"care_receiver_id"`
	CareReceiverName   string    `json:"care_receiver_name"`
	CareGiverID        uuid.UUID `json:"care_giver_id"`
	CareGiverName      string    `json:"care_giver_name"`
	Date               time.Time `json:"date"`
	StartTime          string    `json:"start_time"`
	EndTime            string    `json:"end_time"`
	DurationMinutes    int       `json:"duration_minutes"`
	VisitNumber        int       `json:"visit_number"`
	DoubleHanded       bool      `json:"double_handed"`
	Status             string    `json:"status"`
	CancellationReason string    `json:"cancellation_reason"`
	InvalidationReason string    `json:"invalidation_reason"`
}

type generateResponseDTO struct {
	Results []struct {
		CareReceiverID uuid.UUID `json:"care_receiver_id"`
		Scheduled      []apptDTO `json:"scheduled"`
		Failed         []struct {
			Date        string `json:"date"`
			VisitNumber int    `json:"visit_number"`
			Reason      string `json:"reason"`
		} `json:"failed"`
		Skipped int `json:"skipped"`
	} `json:"results"`
	Summary struct {
		StartDate              string `json:"start_date"`
		EndDate                string `json:"end_date"`
		CareReceiversProcessed int    `json:"care_receivers_processed"`
		TotalScheduled         int    `json:"total_scheduled"`
		TotalFailed            int    `json:"total_failed"`
		TotalSkipped           int    `json:"total_skipped"`
	} `json:"summary"`
}

type appointmentPageDTO struct {
	Appointments []apptDTO `json:"appointments"`
	Total        int       `json:"total"`
	Page         int       `json:"page"`
	Limit        int       `json:"limit"`
	TotalPages   int       `json:"total_pages"`
}

// generateWeek runs schedule generation over the given inclusive range
// and returns the decoded response.
func generateWeek(t *testing.T, srv *Server, start, end string) generateResponseDTO {
	t.Helper()

	rec := doJSON(t, srv, http.MethodPost, "/schedule/generate", map[string]any{
		"start_date": start,
		"end_date":   end,
	})
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())

	var out generateResponseDTO
	decodeData(t, rec, &out)
	return out
}

func TestGenerateScheduleRequiresDates(t *testing.T) {
	srv, _ := setupTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/schedule/generate", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, codeMissingDates, decodeError(t, rec).Code)
}

func TestGenerateScheduleRejectsInvertedRange(t *testing.T) {
	srv, _ := setupTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/schedule/generate", map[string]any{
		"start_date": "2026-09-09",
		"end_date":   "2026-09-07",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, codeInvalidDateRange, decodeError(t, rec).Code)
}

func TestGenerateScheduleUnknownCareReceiver(t *testing.T) {
	srv, _ := setupTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/schedule/generate", map[string]any{
		"start_date":       "2026-09-07",
		"end_date":         "2026-09-09",
		"care_receiver_id": uuid.New(),
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, codeCareReceiverNotFound, decodeError(t, rec).Code)
}

func TestGenerateScheduleRejectsMalformedBody(t *testing.T) {
	srv, _ := setupTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/schedule/generate", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, codeValidation, body.Code)
	assert.Equal(t, "invalid request body", body.Message)
}

func TestGenerateScheduleCreatesDailyVisits(t *testing.T) {
	srv, _ := setupTestServer(t)
	createTestCareGiver(t, srv, "sarah.bennett@domicare.test")
	receiverID := createTestCareReceiver(t, srv)

	out := generateWeek(t, srv, "2026-09-07", "2026-09-09")

	assert.Equal(t, "2026-09-07", out.Summary.StartDate)
	assert.Equal(t, "2026-09-09", out.Summary.EndDate)
	assert.Equal(t, 1, out.Summary.CareReceiversProcessed)
	assert.Equal(t, 3, out.Summary.TotalScheduled)
	assert.Equal(t, 0, out.Summary.TotalFailed)
	assert.Equal(t, 0, out.Summary.TotalSkipped)

	require.Len(t, out.Results, 1)
	result := out.Results[0]
	assert.Equal(t, receiverID, result.CareReceiverID)
	require.Len(t, result.Scheduled, 3)
	assert.Empty(t, result.Failed)

	first := result.Scheduled[0]
	assert.Equal(t, "Harold Finch", first.CareReceiverName)
	assert.Equal(t, "Sarah Bennett", first.CareGiverName)
	assert.Equal(t, "09:00", first.StartTime)
	assert.Equal(t, "09:45", first.EndTime)
	assert.Equal(t, 45, first.DurationMinutes)
	assert.Equal(t, 1, first.VisitNumber)
	assert.Equal(t, "scheduled", first.Status)

	// A second run over the same window finds the appointments already
	// in place and schedules nothing new.
	again := generateWeek(t, srv, "2026-09-07", "2026-09-09")
	assert.Equal(t, 0, again.Summary.TotalScheduled)
	assert.Equal(t, 3, again.Summary.TotalSkipped)
	assert.Equal(t, 0, again.Summary.TotalFailed)
}

func TestListAppointmentsFiltersAndPaging(t *testing.T) {
	srv, _ := setupTestServer(t)
	giverID := createTestCareGiver(t, srv, "sarah.bennett@domicare.test")
	receiverID := createTestCareReceiver(t, srv)
	generateWeek(t, srv, "2026-09-07", "2026-09-09")

	rec := doJSON(t, srv, http.MethodGet,
		"/schedule/appointments?start_date=2026-09-07&end_date=2026-09-09", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var page appointmentPageDTO
	decodeData(t, rec, &page)
	assert.Equal(t, 3, page.Total)
	assert.Len(t, page.Appointments, 3)

	rec = doJSON(t, srv, http.MethodGet,
		"/schedule/appointments?start_date=2026-09-07&end_date=2026-09-09&care_giver_id="+giverID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &page)
	assert.Equal(t, 3, page.Total)

	rec = doJSON(t, srv, http.MethodGet,
		"/schedule/appointments?start_date=2026-09-07&end_date=2026-09-09&care_receiver_id="+receiverID.String()+"&status=completed", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &page)
	assert.Equal(t, 0, page.Total)
	assert.Empty(t, page.Appointments)

	rec = doJSON(t, srv, http.MethodGet,
		"/schedule/appointments?start_date=2026-09-07&end_date=2026-09-09&limit=2&page=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &page)
	assert.Equal(t, 3, page.Total)
	assert.Len(t, page.Appointments, 1)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 2, page.TotalPages)

	rec = doJSON(t, srv, http.MethodGet,
		"/schedule/appointments?start_date=2026-09-07&end_date=2026-09-09&care_giver_id=not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, codeValidation, decodeError(t, rec).Code)
}

func TestManualAppointmentLifecycle(t *testing.T) {
	srv, _ := setupTestServer(t)
	giverID := createTestCareGiver(t, srv, "sarah.bennett@domicare.test")
	receiverID := createTestCareReceiver(t, srv)

	rec := doJSON(t, srv, http.MethodPost, "/schedule/appointments/manual", map[string]any{
		"care_receiver_id": receiverID,
		"care_giver_id":    giverID,
		"date":             "2026-09-10",
		"start_time":       "11:00",
		"duration_minutes": 30,
		"visit_number":     1,
		"requirements":     []string{"personal_care"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())

	var created apptDTO
	decodeData(t, rec, &created)
	require.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, receiverID, created.CareReceiverID)
	assert.Equal(t, giverID, created.CareGiverID)
	assert.Equal(t, "Sarah Bennett", created.CareGiverName)
	assert.Equal(t, "11:00", created.StartTime)
	assert.Equal(t, "11:30", created.EndTime)
	assert.Equal(t, "scheduled", created.Status)

	rec = doJSON(t, srv, http.MethodGet, "/schedule/appointments/"+created.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var fetched apptDTO
	decodeData(t, rec, &fetched)
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, "Harold Finch", fetched.CareReceiverName)

	rec = doJSON(t, srv, http.MethodPatch,
		"/schedule/appointments/"+created.ID.String()+"/status",
		map[string]any{"status": "completed"})
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())
	decodeData(t, rec, &fetched)
	assert.Equal(t, "completed", fetched.Status)

	rec = doJSON(t, srv, http.MethodPatch,
		"/schedule/appointments/"+created.ID.String()+"/status",
		map[string]any{"status": "cancelled", "cancellation_reason": "family holiday"})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &fetched)
	assert.Equal(t, "cancelled", fetched.Status)
	assert.Equal(t, "family holiday", fetched.CancellationReason)

	rec = doJSON(t, srv, http.MethodDelete, "/schedule/appointments/"+created.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var deleted struct {
		ID      uuid.UUID `json:"id"`
		Deleted bool      `json:"deleted"`
	}
	decodeData(t, rec, &deleted)
	assert.Equal(t, created.ID, deleted.ID)
	assert.True(t, deleted.Deleted)

	rec = doJSON(t, srv, http.MethodGet, "/schedule/appointments/"+created.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, codeAppointmentNotFound, decodeError(t, rec).Code)
}

func TestManualAppointmentValidation(t *testing.T) {
	srv, _ := setupTestServer(t)
	giverID := createTestCareGiver(t, srv, "sarah.bennett@domicare.test")
	receiverID := createTestCareReceiver(t, srv)

	t.Run("missing fields", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/schedule/appointments/manual", map[string]any{
			"care_receiver_id": receiverID,
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, codeMissingFields, decodeError(t, rec).Code)
	})

	t.Run("unknown care giver", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/schedule/appointments/manual", map[string]any{
			"care_receiver_id": receiverID,
			"care_giver_id":    uuid.New(),
			"date":             "2026-09-10",
			"start_time":       "11:00",
			"duration_minutes": 30,
			"visit_number":     1,
		})
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, codeCareGiverNotFound, decodeError(t, rec).Code)
	})

	t.Run("unknown care receiver", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/schedule/appointments/manual", map[string]any{
			"care_receiver_id": uuid.New(),
			"care_giver_id":    giverID,
			"date":             "2026-09-10",
			"start_time":       "11:00",
			"duration_minutes": 30,
			"visit_number":     1,
		})
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, codeCareReceiverNotFound, decodeError(t, rec).Code)
	})

	t.Run("outside working hours", func(t *testing.T) {
		// Sarah works 08:00 to 20:00, so a 20:30 visit fails the
		// availability check and surfaces the oracle's reason.
		rec := doJSON(t, srv, http.MethodPost, "/schedule/appointments/manual", map[string]any{
			"care_receiver_id": receiverID,
			"care_giver_id":    giverID,
			"date":             "2026-09-10",
			"start_time":       "20:30",
			"duration_minutes": 30,
			"visit_number":     1,
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeError(t, rec)
		assert.Equal(t, codeValidation, body.Code)
		assert.NotEmpty(t, body.Message)
	})

	t.Run("duplicate visit", func(t *testing.T) {
		payload := map[string]any{
			"care_receiver_id": receiverID,
			"care_giver_id":    giverID,
			"date":             "2026-09-11",
			"start_time":       "11:00",
			"duration_minutes": 30,
			"visit_number":     1,
		}
		rec := doJSON(t, srv, http.MethodPost, "/schedule/appointments/manual", payload)
		require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())

		rec = doJSON(t, srv, http.MethodPost, "/schedule/appointments/manual", payload)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, codeDuplicate, decodeError(t, rec).Code)
	})
}

func TestUpdateStatusValidation(t *testing.T) {
	srv, _ := setupTestServer(t)
	giverID := createTestCareGiver(t, srv, "sarah.bennett@domicare.test")
	receiverID := createTestCareReceiver(t, srv)

	rec := doJSON(t, srv, http.MethodPatch,
		"/schedule/appointments/"+uuid.NewString()+"/status",
		map[string]any{"status": "completed"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, codeAppointmentNotFound, decodeError(t, rec).Code)

	created := doJSON(t, srv, http.MethodPost, "/schedule/appointments/manual", map[string]any{
		"care_receiver_id": receiverID,
		"care_giver_id":    giverID,
		"date":             "2026-09-10",
		"start_time":       "11:00",
		"duration_minutes": 30,
		"visit_number":     1,
	})
	require.Equal(t, http.StatusCreated, created.Code)
	var appt apptDTO
	decodeData(t, created, &appt)

	rec = doJSON(t, srv, http.MethodPatch,
		"/schedule/appointments/"+appt.ID.String()+"/status",
		map[string]any{"status": "paused"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, codeValidation, decodeError(t, rec).Code)

	rec = doJSON(t, srv, http.MethodPatch,
		"/schedule/appointments/"+appt.ID.String()+"/status",
		map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, codeMissingFields, decodeError(t, rec).Code)
}

func TestScheduleStatsSummarisesWindow(t *testing.T) {
	srv, _ := setupTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/schedule/stats", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, codeMissingDates, decodeError(t, rec).Code)

	createTestCareGiver(t, srv, "sarah.bennett@domicare.test")
	createTestCareReceiver(t, srv)
	out := generateWeek(t, srv, "2026-09-07", "2026-09-09")
	require.Len(t, out.Results, 1)
	require.NotEmpty(t, out.Results[0].Scheduled)

	firstID := out.Results[0].Scheduled[0].ID
	rec = doJSON(t, srv, http.MethodPatch,
		"/schedule/appointments/"+firstID.String()+"/status",
		map[string]any{"status": "completed"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodGet,
		"/schedule/stats?start_date=2026-09-07&end_date=2026-09-09", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats struct {
		Total          int            `json:"total"`
		ByStatus       map[string]int `json:"by_status"`
		CompletionRate float64        `json:"completion_rate"`
	}
	decodeData(t, rec, &stats)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.ByStatus["scheduled"])
	assert.Equal(t, 1, stats.ByStatus["completed"])
	assert.InDelta(t, 1.0/3.0, stats.CompletionRate, 0.01)
}

func TestUnscheduledVisitsReportsGaps(t *testing.T) {
	srv, _ := setupTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/schedule/unscheduled", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, codeMissingDates, decodeError(t, rec).Code)

	createTestCareGiver(t, srv, "sarah.bennett@domicare.test")
	createTestCareReceiver(t, srv)

	// Nothing generated yet, so every expansion in the window is missing
	// and reported as coverable by the pool.
	rec = doJSON(t, srv, http.MethodGet,
		"/schedule/unscheduled?start_date=2026-09-07&end_date=2026-09-09", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var report struct {
		TotalMissing int `json:"total_missing"`
		Receivers    []struct {
			CareReceiverName string `json:"care_receiver_name"`
			Visits           []struct {
				VisitNumber int    `json:"visit_number"`
				StartTime   string `json:"start_time"`
				Reason      string `json:"reason"`
				Schedulable bool   `json:"schedulable"`
			} `json:"visits"`
		} `json:"receivers"`
	}
	decodeData(t, rec, &report)
	assert.Equal(t, 3, report.TotalMissing)
	require.Len(t, report.Receivers, 1)
	require.Len(t, report.Receivers[0].Visits, 3)
	assert.Equal(t, "Harold Finch", report.Receivers[0].CareReceiverName)
	assert.Equal(t, "09:00", report.Receivers[0].Visits[0].StartTime)
	assert.True(t, report.Receivers[0].Visits[0].Schedulable)

	generateWeek(t, srv, "2026-09-07", "2026-09-09")

	rec = doJSON(t, srv, http.MethodGet,
		"/schedule/unscheduled?start_date=2026-09-07&end_date=2026-09-09", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &report)
	assert.Equal(t, 0, report.TotalMissing)
}

func TestUnscheduledVisitsFlagsUncoverableRequirements(t *testing.T) {
	srv, _ := setupTestServer(t)
	createTestCareGiver(t, srv, "sarah.bennett@domicare.test")

	rec := doJSON(t, srv, http.MethodPost, "/care-receivers", map[string]any{
		"first_name": "Rose",
		"last_name":  "Whitfield",
		"gender":     "Female",
		"location":   map[string]float64{"longitude": -0.12, "latitude": 51.5},
		"visit_templates": []map[string]any{
			{
				"preferred_time":   "10:00",
				"duration_minutes": 60,
				"requirements":     []string{"specialized_medical"},
			},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())

	// No care giver carries the specialized_medical skill, so the visit
	// is missing and marked unschedulable with the pool's reason.
	rec = doJSON(t, srv, http.MethodGet,
		"/schedule/unscheduled?start_date=2026-09-07&end_date=2026-09-07", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var report struct {
		TotalMissing int `json:"total_missing"`
		Receivers    []struct {
			Visits []struct {
				Reason      string `json:"reason"`
				Schedulable bool   `json:"schedulable"`
			} `json:"visits"`
		} `json:"receivers"`
	}
	decodeData(t, rec, &report)
	assert.Equal(t, 1, report.TotalMissing)
	require.Len(t, report.Receivers, 1)
	require.Len(t, report.Receivers[0].Visits, 1)
	assert.False(t, report.Receivers[0].Visits[0].Schedulable)
	assert.NotEmpty(t, report.Receivers[0].Visits[0].Reason)
}

func TestAnalyzeUnscheduledScoresCandidates(t *testing.T) {
	srv, _ := setupTestServer(t)
	giverID := createTestCareGiver(t, srv, "sarah.bennett@domicare.test")
	receiverID := createTestCareReceiver(t, srv)

	rec := doJSON(t, srv, http.MethodPost, "/schedule/analyze-unscheduled", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, codeMissingFields, decodeError(t, rec).Code)

	rec = doJSON(t, srv, http.MethodPost, "/schedule/analyze-unscheduled", map[string]any{
		"care_receiver_id": uuid.New(),
		"visit_number":     1,
		"date":             "2026-09-07",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, codeCareReceiverNotFound, decodeError(t, rec).Code)

	rec = doJSON(t, srv, http.MethodPost, "/schedule/analyze-unscheduled", map[string]any{
		"care_receiver_id": receiverID,
		"visit_number":     1,
		"date":             "2026-09-07",
	})
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())

	var report struct {
		CareReceiverName string `json:"care_receiver_name"`
		VisitNumber      int    `json:"visit_number"`
		StartTime        string `json:"start_time"`
		EndTime          string `json:"end_time"`
		Matches          []struct {
			CareGiverID      uuid.UUID `json:"care_giver_id"`
			Name             string    `json:"name"`
			CanAssign        bool      `json:"can_assign"`
			RejectionReasons []string  `json:"rejection_reasons"`
			MatchScore       int       `json:"match_score"`
		} `json:"matches"`
	}
	decodeData(t, rec, &report)
	assert.Equal(t, "Harold Finch", report.CareReceiverName)
	assert.Equal(t, 1, report.VisitNumber)
	assert.Equal(t, "09:00", report.StartTime)
	assert.Equal(t, "09:45", report.EndTime)
	require.NotEmpty(t, report.Matches)

	match := report.Matches[0]
	assert.Equal(t, giverID, match.CareGiverID)
	assert.Equal(t, "Sarah Bennett", match.Name)
	assert.True(t, match.CanAssign)
	assert.Empty(t, match.RejectionReasons)
	assert.Greater(t, match.MatchScore, 0)
	assert.LessOrEqual(t, match.MatchScore, 100)
}

func TestFindAvailableListsCandidates(t *testing.T) {
	srv, _ := setupTestServer(t)
	giverID := createTestCareGiver(t, srv, "sarah.bennett@domicare.test")
	receiverID := createTestCareReceiver(t, srv)

	rec := doJSON(t, srv, http.MethodPost, "/schedule/find-available", map[string]any{
		"care_receiver_id": receiverID,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, codeMissingFields, decodeError(t, rec).Code)

	rec = doJSON(t, srv, http.MethodPost, "/schedule/find-available", map[string]any{
		"care_receiver_id": receiverID,
		"date":             "2026-09-07",
		"start_time":       "09:00",
		"end_time":         "10:00",
		"requirements":     []string{"personal_care"},
	})
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())

	var result struct {
		StartTime  string `json:"start_time"`
		EndTime    string `json:"end_time"`
		CareGivers []struct {
			CareGiverID uuid.UUID `json:"care_giver_id"`
			Name        string    `json:"name"`
			DistanceKm  *float64  `json:"distance_km"`
			Preferred   bool      `json:"preferred"`
		} `json:"care_givers"`
	}
	decodeData(t, rec, &result)
	assert.Equal(t, "09:00", result.StartTime)
	assert.Equal(t, "10:00", result.EndTime)
	require.NotEmpty(t, result.CareGivers)

	candidate := result.CareGivers[0]
	assert.Equal(t, giverID, candidate.CareGiverID)
	assert.Equal(t, "Sarah Bennett", candidate.Name)
	assert.False(t, candidate.Preferred)
	if assert.NotNil(t, candidate.DistanceKm) {
		assert.Less(t, *candidate.DistanceKm, 5.0)
	}

	// Nobody in the pool covers specialized medical care, so the list
	// comes back empty rather than erroring.
	rec = doJSON(t, srv, http.MethodPost, "/schedule/find-available", map[string]any{
		"care_receiver_id": receiverID,
		"date":             "2026-09-07",
		"start_time":       "09:00",
		"end_time":         "10:00",
		"requirements":     []string{"specialized_medical"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &result)
	assert.Empty(t, result.CareGivers)
}

func TestValidateScheduleFlagsDeactivatedCareGiver(t *testing.T) {
	srv, _ := setupTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/schedule/validate", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, codeMissingDates, decodeError(t, rec).Code)

	giverID := createTestCareGiver(t, srv, "sarah.bennett@domicare.test")
	createTestCareReceiver(t, srv)
	generateWeek(t, srv, "2026-09-07", "2026-09-09")

	var report struct {
		Summary struct {
			Checked  int `json:"checked"`
			Valid    int `json:"valid"`
			Invalid  int `json:"invalid"`
			Restored int `json:"restored"`
		} `json:"summary"`
		Invalid []struct {
			Appointment apptDTO  `json:"appointment"`
			Issues      []string `json:"issues"`
		} `json:"invalid"`
	}

	rec = doJSON(t, srv, http.MethodPost, "/schedule/validate", map[string]any{
		"start_date": "2026-09-07",
		"end_date":   "2026-09-09",
	})
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())
	decodeData(t, rec, &report)
	assert.Equal(t, 3, report.Summary.Checked)
	assert.Equal(t, 3, report.Summary.Valid)
	assert.Equal(t, 0, report.Summary.Invalid)
	assert.Equal(t, 0, report.Summary.Restored)

	rec = doJSON(t, srv, http.MethodDelete, "/care-givers/"+giverID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/schedule/validate", map[string]any{
		"start_date": "2026-09-07",
		"end_date":   "2026-09-09",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &report)
	assert.Equal(t, 3, report.Summary.Checked)
	assert.Equal(t, 3, report.Summary.Invalid)
	require.Len(t, report.Invalid, 3)
	assert.Equal(t, "needs_reassignment", report.Invalid[0].Appointment.Status)
	assert.NotEmpty(t, report.Invalid[0].Issues)
	assert.NotEmpty(t, report.Invalid[0].Appointment.InvalidationReason)

	// The marks are persisted and show up in status filters.
	rec = doJSON(t, srv, http.MethodGet,
		"/schedule/appointments?start_date=2026-09-07&end_date=2026-09-09&status=needs_reassignment", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page appointmentPageDTO
	decodeData(t, rec, &page)
	assert.Equal(t, 3, page.Total)
}
