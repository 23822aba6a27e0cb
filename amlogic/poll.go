package amlogic

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"
)

var errNotReady = errors.New("status not ready")

// Poller waits for the device to report completion on the status endpoint.
//
// The zero value polls every DefaultPollInterval without limit.
// Set MaxPolls or give ctx a deadline to bound the wait.
type Poller struct {
	Interval time.Duration
	// MaxPolls caps the number of status reads. Zero means no cap.
	MaxPolls int
	// Timer paces the reads; nil uses a real timer.
	Timer backoff.Timer
	Log   log.FieldLogger
}

func (p *Poller) interval() time.Duration {
	if p == nil || p.Interval <= 0 {
		return DefaultPollInterval
	}
	return p.Interval
}

func (p *Poller) logger() log.FieldLogger {
	if p == nil || p.Log == nil {
		return log.StandardLogger()
	}
	return p.Log
}

func (p *Poller) backOff(ctx context.Context) backoff.BackOff {
	var b backoff.BackOff = backoff.NewConstantBackOff(p.interval())
	if p != nil && p.MaxPolls > 0 {
		b = backoff.WithMaxRetries(b, uint64(p.MaxPolls-1))
	}
	return backoff.WithContext(b, ctx)
}

// Wait reads the status endpoint until it contains the success marker.
// A failure marker ends the wait with a *DeviceError, a transfer fault with a *TransportError.
func (p *Poller) Wait(ctx context.Context, h Handle) error {
	var timer backoff.Timer
	if p != nil {
		timer = p.Timer
	}
	logger := p.logger()

	polls := 0
	buf := make([]byte, StatusBufferSize)
	op := func() error {
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}
		polls++
		n, err := h.BulkRead(ctx, StatusEndpoint, buf, StatusReadTimeout)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return backoff.Permanent(ctxErr)
			}
			return backoff.Permanent(transportError("read status", err))
		}
		status := buf[:n]
		switch classifyStatus(status) {
		case statusSuccess:
			logger.WithField("polls", polls).Debugf("Device reported %q", trimStatus(status))
			return nil
		case statusFailure:
			return backoff.Permanent(&DeviceError{Status: append([]byte(nil), status...)})
		}
		return errNotReady
	}
	notify := func(_ error, next time.Duration) {
		logger.WithField("polls", polls).Debugf("Device busy, next status read in %s", next)
	}

	err := backoff.RetryNotifyWithTimer(op, p.backOff(ctx), notify, timer)
	if errors.Is(err, errNotReady) {
		return ErrPollTimeout
	}
	return err
}
