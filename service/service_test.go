package service

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cpusched/api"
	"cpusched/clients"
	"cpusched/domain"
	"cpusched/schedulers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func writeJobFile(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "job.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testConfig(jobSource string) *domain.Config {
	cfg := domain.DefaultConfig()
	cfg.JobSourceURL = jobSource
	return cfg
}

func TestStartMenuSession(t *testing.T) {
	cfg := testConfig(writeJobFile(t, "1:5:3:100\n2:3:5:100\nbroken\n"))
	var out bytes.Buffer
	in := strings.NewReader("1\n9\nrr:2\n3\n0\n")

	err := NewService(cfg, zaptest.NewLogger(t), in, &out).Start(context.Background())
	require.NoError(t, err)

	got := out.String()
	assert.Contains(t, got, "Admitted 2 process(es), 0 pending, 1 rejected; memory 200/2048")
	assert.Contains(t, got, "FCFS Gantt Chart:\n0 | P1 | 5 | P2 | 8\n")
	assert.Contains(t, got, "FCFS - Average Waiting Time: 2.50 ms")
	assert.Contains(t, got, "Error: invalid choice \"9\", please enter 0-3")
	assert.Contains(t, got, "Round Robin (Quantum=2) Gantt Chart:\n0 | P1 | 2 | P2 | 4 | P1 | 6 | P2 | 7 | P1 | 8\n")
	assert.Contains(t, got, "Priority Gantt Chart:\n0 | P2 | 3 | P1 | 8\n")
	assert.Contains(t, got, "Exiting...")
	assert.Equal(t, 5, strings.Count(got, "Enter choice (0-3): "))
}

func TestStartMissingSource(t *testing.T) {
	cfg := testConfig(filepath.Join(t.TempDir(), "missing.txt"))
	var out bytes.Buffer

	err := NewService(cfg, zaptest.NewLogger(t), strings.NewReader("1\n"), &out).Start(context.Background())
	require.NoError(t, err)
	assert.Contains(t, out.String(), "unavailable")
	assert.Contains(t, out.String(), "Admitted 0 process(es)")
	assert.Contains(t, out.String(), "FCFS Gantt Chart:\n0\n")
}

func TestRunMenuStopsOnCancel(t *testing.T) {
	s := NewService(domain.DefaultConfig(), zaptest.NewLogger(t), blockingReader{}, &bytes.Buffer{})
	orchestrator, err := schedulers.NewOrchestrator(nil, domain.DefaultConfig().SchedulerConfig, nil)
	require.NoError(t, err)
	defer orchestrator.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, s.RunMenu(ctx, orchestrator, clients.NewConsoleReporter(&bytes.Buffer{})))
}

type blockingReader struct{}

func (blockingReader) Read([]byte) (int, error) { select {} }

func TestResolveSource(t *testing.T) {
	tests := []struct {
		location string
		check    func(t *testing.T, source schedulers.JobSource)
	}{
		{location: "job.txt", check: func(t *testing.T, source schedulers.JobSource) {
			assert.IsType(t, &clients.FileClient{}, source)
		}},
		{location: "https://jobs.local/job.txt", check: func(t *testing.T, source schedulers.JobSource) {
			assert.IsType(t, &clients.HTTPClient{}, source)
		}},
		{location: "s3://sched/job.txt", check: func(t *testing.T, source schedulers.JobSource) {
			assert.IsType(t, &clients.S3Client{}, source)
			assert.Equal(t, "s3://sched/job.txt", source.Name())
		}},
	}
	for _, tt := range tests {
		t.Run(tt.location, func(t *testing.T) {
			cfg := testConfig(tt.location)
			cfg.Region = "eu-central-1"
			source, closeSource, err := NewService(cfg, zaptest.NewLogger(t), nil, nil).ResolveSource(context.Background())
			require.NoError(t, err)
			defer closeSource()
			tt.check(t, source)
		})
	}

	_, _, err := NewService(testConfig("s3://bucket-only"), zaptest.NewLogger(t), nil, nil).ResolveSource(context.Background())
	assert.Error(t, err)
}

func TestContainerServesOpenAPI(t *testing.T) {
	orchestrator, err := schedulers.NewOrchestrator(nil, domain.DefaultConfig().SchedulerConfig, nil)
	require.NoError(t, err)
	defer orchestrator.Close()
	container := NewContainer(api.NewAPI(orchestrator, &domain.AdmissionResult{}, 7, zaptest.NewLogger(t)))

	recorder := httptest.NewRecorder()
	container.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/apidocs.json", nil))
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "/schedule/{policy}")
	assert.Contains(t, recorder.Body.String(), "CPU Scheduling Simulator API")

	recorder = httptest.NewRecorder()
	container.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/schedule/fcfs", nil))
	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestNewLogger(t *testing.T) {
	cfg := domain.DefaultConfig()
	cfg.LogLevel = "debug"
	logger, err := NewLogger(cfg)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))

	cfg.LogLevel = "loud"
	_, err = NewLogger(cfg)
	assert.Error(t, err)
}

func TestStartWithProfiler(t *testing.T) {
	cfg := testConfig(writeJobFile(t, "1:5:3:100\n"))
	cfg.EnableCPUProfiler = true
	cfg.ProfileFile = filepath.Join(t.TempDir(), "profile_cpu.prof")

	err := NewService(cfg, zaptest.NewLogger(t), strings.NewReader("0\n"), &bytes.Buffer{}).Start(context.Background())
	require.NoError(t, err)
	info, err := os.Stat(cfg.ProfileFile)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}
