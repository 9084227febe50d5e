package service

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"cpusched/api"
	"cpusched/clients"
	"cpusched/domain"
	"cpusched/helpers"
	"cpusched/repositories"
	"cpusched/schedulers"
	"cpusched/tracing"

	graphite "github.com/cyberdelia/go-metrics-graphite"
	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	"github.com/emicklei/go-restful/v3"
	"github.com/go-openapi/spec"
	"github.com/rcrowley/go-metrics"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
)

// Version is reported in the OpenAPI document and trace resources
const Version = "1.0.0"

// Service describes the structure used for running a scheduling session
type Service struct {
	cfg      *domain.Config
	log      *zap.Logger
	in       io.Reader
	out      io.Writer
	registry metrics.Registry
}

// NewService returns a new service object reading menu choices from in and printing reports to out
func NewService(cfg *domain.Config, logger *zap.Logger, in io.Reader, out io.Writer) *Service {
	return &Service{
		cfg:      cfg,
		log:      logger,
		in:       in,
		out:      out,
		registry: metrics.DefaultRegistry,
	}
}

// NewLogger builds the zap logger described by cfg
func NewLogger(cfg *domain.Config) (*zap.Logger, error) {
	zapConfig := zap.NewProductionConfig()
	if cfg.Development {
		zapConfig = zap.NewDevelopmentConfig()
	}
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	zapConfig.Level = level
	return zapConfig.Build()
}

// Start ingests the configured job source, then serves the HTTP API when an address is configured
// or runs the interactive menu otherwise. It returns when ctx is done, the menu exits or input ends.
func (s *Service) Start(ctx context.Context) error {
	if s.cfg.EnableCPUProfiler {
		profilerRepo := repositories.NewProfileService(s.cfg.ProfileFile, s.log)
		if err := profilerRepo.StartProfiling(); err != nil {
			return err
		}
		defer profilerRepo.StopProfiling()
		s.log.Debug("Profiling Repo initialized")
	}

	if s.cfg.EnableTracing {
		if err := tracing.Init("cpusched", Version, s.cfg.TraceFile); err != nil {
			return fmt.Errorf("failed to initialize tracing: %w", err)
		}
		defer tracing.Shutdown(context.Background())
		s.log.Debug("Tracing initialized")
	}

	// initialize tcp address for graphite
	var graphiteAddr *net.TCPAddr
	if s.cfg.GraphiteHost != "" {
		addr, err := net.ResolveTCPAddr("tcp", s.cfg.GraphiteHost)
		if err != nil {
			return fmt.Errorf("failed to resolve tcp address for graphite: %w", err)
		}
		graphiteAddr = addr
		go graphite.Graphite(s.registry, s.cfg.FlushInterval, s.cfg.MetricsPrefix, graphiteAddr)
		s.log.Debug("Initialize graphite for metrics", zap.String("host", s.cfg.GraphiteHost))
	}
	defer s.closeMetrics(graphiteAddr)

	var reporter schedulers.Reporter = clients.MultiReporter{clients.NewConsoleReporter(s.out), clients.NewZapReporter(s.log)}
	if s.cfg.APIAddr != "" {
		reporter = clients.NewZapReporter(s.log)
	}
	sink := helpers.MultiSink(helpers.NewLoggingEventSink(s.log), helpers.NewMetricsEventSink(s.registry))

	result := s.ingest(ctx, sink, reporter)
	reporter.ReportAdmission(result)

	orchestrator, err := schedulers.NewOrchestrator(result.Admitted, s.cfg.SchedulerConfig, s.log,
		schedulers.WithEventSink(sink),
		schedulers.WithReporter(reporter),
		schedulers.WithRegistry(s.registry))
	if err != nil {
		return err
	}
	defer orchestrator.Close()

	if s.cfg.APIAddr != "" {
		return s.serveAPI(ctx, api.NewAPI(orchestrator, result, s.cfg.Quantum, s.log))
	}
	return s.RunMenu(ctx, orchestrator, reporter)
}

// ingest returns whatever could be admitted; source failures are reported, not fatal
func (s *Service) ingest(ctx context.Context, sink domain.EventSink, reporter schedulers.Reporter) *domain.AdmissionResult {
	source, closeSource, err := s.ResolveSource(ctx)
	if err != nil {
		reporter.ReportError(&domain.SourceUnavailableError{Source: s.cfg.JobSourceURL, Err: err})
		return &domain.AdmissionResult{Budget: s.cfg.MemoryBudget}
	}
	defer closeSource()

	controller := schedulers.NewAdmissionController(s.cfg, sink, s.log, s.registry)
	result, err := controller.Ingest(ctx, source)
	if err != nil {
		reporter.ReportError(err)
	}
	return result
}

// ResolveSource picks the job source from the scheme of the configured location
func (s *Service) ResolveSource(ctx context.Context) (schedulers.JobSource, func(), error) {
	location := s.cfg.JobSourceURL
	noop := func() {}
	switch {
	case strings.HasPrefix(location, "s3://"):
		source, err := clients.NewS3Client(ctx, location, s.cfg.S3Config, s.log)
		if err != nil {
			return nil, nil, err
		}
		return source, noop, nil
	case strings.HasPrefix(location, "http://"), strings.HasPrefix(location, "https://"):
		return clients.NewHTTPClient(location, &http.Client{Timeout: s.cfg.IngestTimeout}, s.log), noop, nil
	case location == "postgres", strings.HasPrefix(location, "postgres://"), strings.HasPrefix(location, "postgresql://"):
		repo, err := repositories.NewPostgreSqlRepo(ctx, location, s.cfg.PostgresConfig, s.log)
		if err != nil {
			return nil, nil, err
		}
		return repo, repo.CloseConnection, nil
	default:
		return clients.NewFileClient(location, s.log), noop, nil
	}
}

// RunMenu reads choices until Exit, end of input or ctx is done. Invalid choices are reported and skipped.
func (s *Service) RunMenu(ctx context.Context, scheduler api.Scheduler, reporter schedulers.Reporter) error {
	inputs := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(inputs)
		scanner := bufio.NewScanner(s.in)
		for scanner.Scan() {
			select {
			case inputs <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		fmt.Fprint(s.out, helpers.MenuText(s.cfg.Quantum))
		var input string
		var ok bool
		select {
		case <-ctx.Done():
			return nil
		case input, ok = <-inputs:
		}
		if !ok {
			fmt.Fprintln(s.out)
			select {
			case err := <-scanErr:
				return err
			default:
				return nil
			}
		}

		selection, err := helpers.ParseSelection(input, s.cfg.Quantum)
		if err != nil {
			reporter.ReportError(err)
			continue
		}
		if selection.Policy == domain.PolicyExit {
			fmt.Fprintln(s.out, "Exiting...")
			return nil
		}
		if _, err = scheduler.Run(ctx, selection); err != nil {
			s.log.Debug("schedule request failed", zap.Error(err))
		}
	}
}

// NewContainer registers the API and its OpenAPI document on a fresh container
func NewContainer(apiManager *api.API) *restful.Container {
	container := restful.NewContainer()
	ws := new(restful.WebService)
	apiManager.RegisterRoutes(ws)
	container.Add(ws)

	config := restfulspec.Config{
		WebServices:                   container.RegisteredWebServices(), // you control what services are visible
		APIPath:                       "/apidocs.json",
		PostBuildSwaggerObjectHandler: enrichSwaggerObject}
	container.Add(restfulspec.NewOpenAPIService(config))
	return container
}

func (s *Service) serveAPI(ctx context.Context, apiManager *api.API) error {
	server := &http.Server{
		Addr:           s.cfg.APIAddr,
		Handler:        NewContainer(apiManager),
		ReadTimeout:    time.Minute,
		WriteTimeout:   time.Minute,
		IdleTimeout:    time.Minute,
		MaxHeaderBytes: 1 << 20,
	}
	useTLS := s.cfg.CertFile != "" && s.cfg.CertKeyFile != ""
	if useTLS {
		server.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	if err := http2.ConfigureServer(server, &http2.Server{}); err != nil {
		return fmt.Errorf("http2 configure server: %w", err)
	}

	s.log.Info("Started api service", zap.String("addr", s.cfg.APIAddr), zap.Bool("tls", useTLS))

	serveErr := make(chan error, 1)
	go func() {
		var err error
		if useTLS {
			err = server.ListenAndServeTLS(s.cfg.CertFile, s.cfg.CertKeyFile)
		} else {
			err = server.ListenAndServe()
		}
		if !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("HTTP server error", zap.Error(err))
			serveErr <- err
		}
		close(serveErr)
		s.log.Debug("Stopped serving new connections.")
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, shutdownRelease := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownRelease()

	if err := server.Shutdown(shutdownCtx); err != nil {
		s.log.Error("HTTP shutdown error", zap.Error(err))
		return err
	}
	s.log.Debug("Graceful shutdown complete.")
	return nil
}

// closeMetrics flushes to graphite one last time and drops the session metrics
func (s *Service) closeMetrics(graphiteAddr *net.TCPAddr) {
	if graphiteAddr != nil {
		err := graphite.Once(graphite.Config{
			Addr:          graphiteAddr,
			Registry:      s.registry,
			FlushInterval: s.cfg.FlushInterval,
			DurationUnit:  time.Millisecond,
			Prefix:        s.cfg.MetricsPrefix,
			Percentiles:   []float64{0.5, 0.95, 0.99},
		})
		if err != nil {
			s.log.Warn("final graphite flush failed", zap.Error(err))
		}
	}
	for _, metric := range helpers.MetricsName {
		s.registry.Unregister(metric)
	}
}

// enrichSwaggerObject describes swagger specs
func enrichSwaggerObject(swo *spec.Swagger) {
	swo.Info = &spec.Info{
		InfoProps: spec.InfoProps{
			Title:       "CPU Scheduling Simulator API",
			Description: "Runs FCFS, Round Robin and Priority scheduling over the admitted job set",
			License: &spec.License{
				LicenseProps: spec.LicenseProps{
					Name: "MIT",
					URL:  "http://mit.org",
				},
			},
			Version: Version,
		},
	}
	swo.Tags = []spec.Tag{{TagProps: spec.TagProps{
		Name:        "processes",
		Description: "Admitted processes and memory usage"}},
		{TagProps: spec.TagProps{
			Name:        "schedule",
			Description: "Scheduling policy runs",
		}}}
}
