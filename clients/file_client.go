package clients

import (
	"bytes"
	"context"
	"fmt"

	"cpusched/domain"
	"cpusched/helpers"

	"github.com/viant/afs"
	"go.uber.org/zap"
)

// FileClient represents a job source read through afs: local paths, file:// and mem:// URLs
type FileClient struct {
	fs         afs.Service
	location   string
	fileLogger *zap.Logger
}

// NewFileClient returns FileClient for location
func NewFileClient(location string, logger *zap.Logger) *FileClient {
	return &FileClient{fs: afs.New(), location: location, fileLogger: logger}
}

// Name returns the file location
func (f *FileClient) Name() string {
	return f.location
}

// Stream reads the whole file and sends its job lines
func (f *FileClient) Stream(ctx context.Context, lines chan<- domain.JobDescriptor) error {
	exists, err := f.fs.Exists(ctx, f.location)
	if err != nil {
		f.fileLogger.Error("failed to check job file", zap.String("location", f.location), zap.Error(err))
		return err
	}
	if !exists {
		return fmt.Errorf("job file not found: %s", f.location)
	}
	data, err := f.fs.DownloadWithURL(ctx, f.location)
	if err != nil {
		f.fileLogger.Error("failed to read job file", zap.String("location", f.location), zap.Error(err))
		return fmt.Errorf("failed to read job file: %w", err)
	}
	f.fileLogger.Debug("read job file", zap.String("location", f.location), zap.Int("bytes", len(data)))
	return helpers.StreamLines(ctx, bytes.NewReader(data), lines)
}
