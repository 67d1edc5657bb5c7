// Package writer accepts datapoints from the monitors and either buffers them
// for the New Relic Platform API or prints them when in debug mode.
package writer

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/signalfx/golib/v3/datapoint"
	log "github.com/sirupsen/logrus"
	"go.uber.org/atomic"

	"github.com/gopivotal/newrelic-plugins/internal/core/common/dpmeta"
	"github.com/gopivotal/newrelic-plugins/internal/core/config"
	"github.com/gopivotal/newrelic-plugins/internal/core/writer/newrelic"
)

// Sender is what the writer flushes buffered datapoints to
type Sender interface {
	Send(context.Context, []*datapoint.Datapoint) error
}

// MetricWriter owns the datapoint channel that every monitor output sends on
type MetricWriter struct {
	dpChan       chan []*datapoint.Datapoint
	sender       Sender
	debugOut     io.Writer
	sendInterval time.Duration

	lock   sync.Mutex
	buffer []*datapoint.Datapoint

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	dpsReceived atomic.Int64
	dpsSent     atomic.Int64
	dpsPrinted  atomic.Int64
	sendErrors  atomic.Int64
}

// New creates a writer that reports to the Platform API using the newrelic
// section of the config.
func New(conf *config.NewRelicConfig) (*MetricWriter, error) {
	if conf.SendIntervalSeconds <= 0 {
		return nil, errors.Errorf("send interval must be positive, got %d seconds", conf.SendIntervalSeconds)
	}
	client, err := newrelic.NewClient(conf)
	if err != nil {
		return nil, err
	}
	return NewWithSender(client, time.Duration(conf.SendIntervalSeconds)*time.Second, os.Stdout), nil
}

// NewWithSender creates a writer with an explicit sender and debug output
func NewWithSender(sender Sender, sendInterval time.Duration, debugOut io.Writer) *MetricWriter {
	ctx, cancel := context.WithCancel(context.Background())
	return &MetricWriter{
		dpChan:       make(chan []*datapoint.Datapoint, 3000),
		sender:       sender,
		debugOut:     debugOut,
		sendInterval: sendInterval,
		ctx:          ctx,
		cancel:       cancel,
		done:         make(chan struct{}),
	}
}

// DatapointChannel is the channel that monitors should send datapoints on
func (w *MetricWriter) DatapointChannel() chan<- []*datapoint.Datapoint {
	return w.dpChan
}

// Start the goroutine that receives datapoints and flushes them on the send
// interval.
func (w *MetricWriter) Start() {
	go func() {
		defer close(w.done)

		ticker := time.NewTicker(w.sendInterval)
		defer ticker.Stop()

		for {
			select {
			case dps := <-w.dpChan:
				w.receive(dps)
			case <-ticker.C:
				w.flushLogged(w.ctx)
			case <-w.ctx.Done():
				w.drain()
				// The writer context is already canceled so give the final
				// flush its own.
				flushCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				w.flushLogged(flushCtx)
				cancel()
				return
			}
		}
	}()
}

// drain picks up anything already sitting in the channel
func (w *MetricWriter) drain() {
	for {
		select {
		case dps := <-w.dpChan:
			w.receive(dps)
		default:
			return
		}
	}
}

func (w *MetricWriter) receive(dps []*datapoint.Datapoint) {
	w.dpsReceived.Add(int64(len(dps)))

	var toBuffer []*datapoint.Datapoint
	for _, dp := range dps {
		if debug, _ := dp.Meta[dpmeta.DebugMeta].(bool); debug {
			printDatapoint(w.debugOut, dp)
			w.dpsPrinted.Inc()
			continue
		}
		toBuffer = append(toBuffer, dp)
	}

	if len(toBuffer) > 0 {
		w.lock.Lock()
		w.buffer = append(w.buffer, toBuffer...)
		w.lock.Unlock()
	}
}

// Flush sends whatever is buffered right now.  The buffer is cleared whether
// or not the send succeeds since the Platform API has no notion of
// backfilling.
func (w *MetricWriter) Flush(ctx context.Context) error {
	w.lock.Lock()
	dps := w.buffer
	w.buffer = nil
	w.lock.Unlock()

	if len(dps) == 0 {
		return nil
	}

	if err := w.sender.Send(ctx, dps); err != nil {
		w.sendErrors.Inc()
		return err
	}
	w.dpsSent.Add(int64(len(dps)))
	return nil
}

func (w *MetricWriter) flushLogged(ctx context.Context) {
	if err := w.Flush(ctx); err != nil {
		log.WithError(err).Error("Could not send metrics to New Relic, dropping them")
	}
}

// Shutdown stops the writer after flushing anything that was already sent to
// it.  It returns the error of the final flush, if any.
func (w *MetricWriter) Shutdown() error {
	errsBefore := w.sendErrors.Load()
	w.cancel()
	<-w.done
	if w.sendErrors.Load() > errsBefore {
		return errFinalFlush
	}
	return nil
}

// Stats returns counts of what the writer has handled so far
func (w *MetricWriter) Stats() map[string]int64 {
	return map[string]int64{
		"dpsReceived": w.dpsReceived.Load(),
		"dpsSent":     w.dpsSent.Load(),
		"dpsPrinted":  w.dpsPrinted.Load(),
		"sendErrors":  w.sendErrors.Load(),
	}
}
