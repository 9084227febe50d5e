package helpers

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"cpusched/domain"

	"github.com/rcrowley/go-metrics"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"
)

// SplitDescriptor splits a job line on DescriptorSeparators and drops trailing empty fields
func SplitDescriptor(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	fields := strings.Split(strings.Map(func(r rune) rune {
		if strings.ContainsRune(DescriptorSeparators, r) {
			return ':'
		}
		return r
	}, raw), ":")
	for len(fields) > 0 && fields[len(fields)-1] == "" {
		fields = fields[:len(fields)-1]
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return fields
}

// ParseSelection maps a menu input to a selection. "rr:4" and "2:4" override the quantum.
// Only QuantumSeparator introduces a quantum; job line separators do not.
func ParseSelection(input string, defaultQuantum int) (domain.Selection, error) {
	name := strings.ToLower(strings.TrimSpace(input))
	quantum := defaultQuantum
	if idx := strings.Index(name, QuantumSeparator); idx >= 0 {
		prefix, suffix := name[:idx], strings.TrimSpace(name[idx+1:])
		if !slices.Contains(QuantumSelections, prefix) {
			return domain.Selection{}, &domain.SelectionError{Input: input}
		}
		q, err := strconv.Atoi(suffix)
		if err != nil || q <= 0 {
			return domain.Selection{}, &domain.SelectionError{Input: input}
		}
		name, quantum = prefix, q
	}
	policy, ok := SelectionAliases[name]
	if !ok {
		return domain.Selection{}, &domain.SelectionError{Input: input}
	}
	selection := domain.Selection{Policy: policy}
	if policy == domain.PolicyRoundRobin {
		selection.Quantum = quantum
	}
	return selection, nil
}

// MenuText returns the prompt of the interactive selection loop
func MenuText(quantum int) string {
	return fmt.Sprintf("\nSelect scheduling algorithm:\n1. FCFS\n2. Round Robin (Quantum=%d)\n3. Priority\n0. Exit\nEnter choice (0-3): ", quantum)
}

// StreamLines sends every non blank, non comment line of r to lines, stopping when ctx is done
func StreamLines(ctx context.Context, r io.Reader, lines chan<- domain.JobDescriptor) error {
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, CommentPrefix) {
			continue
		}
		select {
		case lines <- domain.JobDescriptor{Line: lineNo, Raw: text}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

// NewLoggingEventSink returns a sink rendering events as system call log lines
func NewLoggingEventSink(logger *zap.Logger) domain.EventSink {
	return domain.EventSinkFunc(func(event domain.Event) {
		fields := []zap.Field{zap.Int("pid", event.PID), zap.String("kind", event.Kind.String())}
		if event.Clock >= 0 {
			fields = append(fields, zap.Int("clock", event.Clock))
		}
		switch event.Kind {
		case domain.EventCreate:
			logger.Debug(fmt.Sprintf("System Call: Create P%d", event.PID), fields...)
		case domain.EventAllocate:
			logger.Debug(fmt.Sprintf("System Call: Allocate memory for P%d", event.PID), append(fields, zap.Int("memory", event.Memory))...)
		case domain.EventSetState:
			logger.Debug(fmt.Sprintf("System Call: Set P%d state to %s", event.PID, event.State), fields...)
		case domain.EventTerminate:
			logger.Debug(fmt.Sprintf("System Call: Terminate P%d", event.PID), fields...)
		case domain.EventDeallocate:
			logger.Debug(fmt.Sprintf("System Call: Deallocate memory for P%d", event.PID), append(fields, zap.Int("memory", event.Memory))...)
		case domain.EventStarvation:
			logger.Warn(fmt.Sprintf("Starvation detected for P%d", event.PID), fields...)
		}
	})
}

// NewMetricsEventSink counts events per kind in registry under "events.<kind>"
func NewMetricsEventSink(registry metrics.Registry) domain.EventSink {
	return domain.EventSinkFunc(func(event domain.Event) {
		metrics.GetOrRegisterCounter("events."+event.Kind.String(), registry).Inc(1)
	})
}

// MultiSink fans an event out to every sink in order
func MultiSink(sinks ...domain.EventSink) domain.EventSink {
	return domain.EventSinkFunc(func(event domain.Event) {
		for _, sink := range sinks {
			if sink != nil {
				sink.Emit(event)
			}
		}
	})
}
