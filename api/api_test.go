package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"cpusched/domain"

	"github.com/emicklei/go-restful/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeScheduler struct {
	selections []domain.Selection
	err        error
}

func (f *fakeScheduler) Run(_ context.Context, selection domain.Selection) (*domain.ScheduleReport, error) {
	f.selections = append(f.selections, selection)
	if f.err != nil {
		return nil, f.err
	}
	return &domain.ScheduleReport{
		RunID:   "run-1",
		Policy:  selection.Policy,
		Quantum: selection.Quantum,
		Result:  &domain.ScheduleResult{Policy: selection.Policy.String()},
	}, nil
}

func (f *fakeScheduler) Baseline() []domain.ProcessRecord {
	return []domain.ProcessRecord{*domain.NewProcessRecord(1, 5, 3, 100).Clone()}
}

func newContainer(t *testing.T, scheduler Scheduler) *restful.Container {
	admission := &domain.AdmissionResult{
		Admitted:   []*domain.ProcessRecord{domain.NewProcessRecord(1, 5, 3, 100)},
		Pending:    []*domain.ProcessRecord{domain.NewProcessRecord(2, 3, 5, 5000)},
		UsedMemory: 100,
		Budget:     2048,
	}
	ws := new(restful.WebService)
	NewAPI(scheduler, admission, 7, zaptest.NewLogger(t)).RegisterRoutes(ws)
	container := restful.NewContainer()
	container.Add(ws)
	return container
}

func serve(container *restful.Container, method, target string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	container.ServeHTTP(recorder, httptest.NewRequest(method, target, nil))
	return recorder
}

func TestGetProcesses(t *testing.T) {
	recorder := serve(newContainer(t, &fakeScheduler{}), http.MethodGet, "/processes")
	require.Equal(t, http.StatusOK, recorder.Code)

	var processes []domain.ProcessRecord
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &processes))
	require.Len(t, processes, 1)
	assert.Equal(t, 1, processes[0].ID)
	assert.Equal(t, domain.StateReady, processes[0].State)
}

func TestGetAdmission(t *testing.T) {
	recorder := serve(newContainer(t, &fakeScheduler{}), http.MethodGet, "/admission")
	require.Equal(t, http.StatusOK, recorder.Code)

	var summary domain.AdmissionSummary
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &summary))
	assert.Equal(t, domain.AdmissionSummary{AdmittedCount: 1, PendingCount: 1, UsedMemory: 100, Budget: 2048}, summary)
}

func TestRunSchedule(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		wantStatus int
		want       *domain.Selection
	}{
		{name: "fcfs", target: "/schedule/fcfs", wantStatus: http.StatusOK, want: &domain.Selection{Policy: domain.PolicyFCFS}},
		{name: "menu number", target: "/schedule/3", wantStatus: http.StatusOK, want: &domain.Selection{Policy: domain.PolicyPriority}},
		{name: "default quantum", target: "/schedule/rr", wantStatus: http.StatusOK, want: &domain.Selection{Policy: domain.PolicyRoundRobin, Quantum: 7}},
		{name: "quantum override", target: "/schedule/rr?quantum=3", wantStatus: http.StatusOK, want: &domain.Selection{Policy: domain.PolicyRoundRobin, Quantum: 3}},
		{name: "quantum ignored for fcfs", target: "/schedule/fcfs?quantum=3", wantStatus: http.StatusOK, want: &domain.Selection{Policy: domain.PolicyFCFS}},
		{name: "unknown policy", target: "/schedule/sjf", wantStatus: http.StatusBadRequest},
		{name: "exit", target: "/schedule/exit", wantStatus: http.StatusBadRequest},
		{name: "bad quantum", target: "/schedule/rr?quantum=0", wantStatus: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scheduler := &fakeScheduler{}
			recorder := serve(newContainer(t, scheduler), http.MethodPost, tt.target)
			require.Equal(t, tt.wantStatus, recorder.Code, recorder.Body.String())

			if tt.want == nil {
				var errorData domain.ErrorResponse
				require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &errorData))
				assert.Equal(t, http.StatusBadRequest, errorData.StatusCode)
				assert.Empty(t, scheduler.selections)
				return
			}
			assert.Equal(t, []domain.Selection{*tt.want}, scheduler.selections)
			var report map[string]any
			require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &report))
			assert.Equal(t, "run-1", report["run_id"])
			assert.Equal(t, tt.want.Policy.String(), report["policy"])
		})
	}
}

func TestRunScheduleFailure(t *testing.T) {
	scheduler := &fakeScheduler{err: errors.New("boom")}
	recorder := serve(newContainer(t, scheduler), http.MethodPost, "/schedule/fcfs")
	assert.Equal(t, http.StatusInternalServerError, recorder.Code)

	scheduler = &fakeScheduler{err: &domain.SelectionError{Input: "Exit"}}
	recorder = serve(newContainer(t, scheduler), http.MethodPost, "/schedule/fcfs")
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}
