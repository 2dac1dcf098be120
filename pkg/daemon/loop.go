package daemon

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/battpipe/battpipe/pkg/charge"
	"github.com/battpipe/battpipe/pkg/threshold"
)

// infiniteLoop alternates between waiting for a line on the pipe and
// processing it. One line runs to completion before the next read; the only
// blocking point is the pipe itself. A writer disconnecting is handled inside
// the pipe manager, so errors here are real I/O failures.
func infiniteLoop() {
	for {
		line, err := pipeManager.NextLine()
		if err != nil {
			logrus.Errorf("failed to read from pipe: %v", err)
			// Back off so a persistently broken pipe does not spin the CPU.
			time.Sleep(time.Second)
			continue
		}

		processLine(line)
	}
}

// processLine runs the parse -> resolve -> apply pipeline for one line. Every
// failure is logged and swallowed: a bad line never takes the daemon down.
func processLine(line string) {
	log := logrus.WithField("request", shortRequestID())

	resolved, err := handleExpression(line)
	switch {
	case err != nil:
		logOutcome(log, err)
	case resolved == nil:
		log.Debug("empty expression, nothing to do")
	default:
		log.Infof("applied thresholds %s", resolved)
	}
}

// handleExpression is the shared pipeline behind both the pipe and the HTTP
// API. It returns the applied pair, or nil for a no-op line.
func handleExpression(line string) (*threshold.Resolved, error) {
	spec, err := threshold.Parse(line)
	if err != nil {
		return nil, err
	}

	resolved, err := threshold.Resolve(spec, threshold.Defaults{
		Start: threshold.Percent(conf.DefaultStart),
		End:   threshold.Percent(conf.DefaultEnd),
	})
	if err != nil || resolved == nil {
		return nil, err
	}

	if err := applier.Apply(*resolved); err != nil {
		return nil, fmt.Errorf("resolved %s but %w", resolved, err)
	}

	return resolved, nil
}

// logOutcome logs a pipeline failure at a severity matching its kind:
// operator mistakes are warnings, kernel I/O failures are errors.
func logOutcome(log *logrus.Entry, err error) {
	var parseErr *threshold.ParseError
	var rejectErr *threshold.RejectionError
	var applyErr *charge.ApplyError

	switch {
	case errors.As(err, &parseErr):
		log.Warnf("rejected request: %v", err)
	case errors.As(err, &rejectErr):
		log.Warnf("rejected request: %v", err)
	case errors.As(err, &applyErr):
		log.Errorf("failed request: %v", err)
	default:
		log.Errorf("failed request: %v", err)
	}
}

func shortRequestID() string {
	return uuid.NewString()[:8]
}
