package repositories

import (
	"errors"
	"os"
	"runtime/pprof"

	"go.uber.org/zap"
)

/*
go tool pprof -pdf profile_cpu.prof > profile_cpu.pdf
*/

// ProfilingService starts and stops a CPU profile around a scheduling session
type ProfilingService struct {
	Cpuprofile string   // the output filename to write profile results, e.g. profile_cpu.prof
	Cpufile    *os.File // if not nil, then profiling is active
	CpuLogger  *zap.Logger
}

// NewProfileService creates a new profile
func NewProfileService(outputFilename string, logger *zap.Logger) *ProfilingService {
	return &ProfilingService{
		Cpuprofile: outputFilename,
		CpuLogger:  logger,
	}
}

// StartProfiling starts pprof profile
func (p *ProfilingService) StartProfiling() error {
	if p.Cpufile != nil {
		return errors.New("profiling already active")
	}
	cpufile, err := os.Create(p.Cpuprofile)
	if err != nil {
		p.CpuLogger.Error("could not create file", zap.Error(err))
		return err
	}
	if err = pprof.StartCPUProfile(cpufile); err != nil {
		cpufile.Close()
		p.CpuLogger.Error("could not start cpu profile", zap.Error(err))
		return err
	}
	p.Cpufile = cpufile
	p.CpuLogger.Info("cpu profiling started", zap.String("file", p.Cpuprofile))
	return nil
}

// StopProfiling stops pprof and closes cpu file
func (p *ProfilingService) StopProfiling() {
	if p.Cpufile == nil {
		return
	}
	pprof.StopCPUProfile()
	p.Cpufile.Close()
	p.Cpufile = nil
	p.CpuLogger.Info("cpu profiling stopped", zap.String("file", p.Cpuprofile))
}
