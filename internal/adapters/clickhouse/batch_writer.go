package clickhouse

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tacticalpha/regime-engine/pkg/logger"
	"github.com/tacticalpha/regime-engine/pkg/models"
)

// BatchWriter buffers records and writes them via repository in batches
type BatchWriter struct {
	repo        *Repository
	buffer      []interface{}
	bufferMu    sync.Mutex
	maxBatch    int
	flushTicker *time.Ticker
	flushFunc   func(context.Context, *Repository, []interface{}) error
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

// NewBatchWriter creates new batch writer
func NewBatchWriter(
	repo *Repository,
	maxBatch int,
	maxWait time.Duration,
	flushFunc func(context.Context, *Repository, []interface{}) error,
) *BatchWriter {
	ctx, cancel := context.WithCancel(context.Background())

	bw := &BatchWriter{
		repo:      repo,
		buffer:    make([]interface{}, 0, maxBatch),
		maxBatch:  maxBatch,
		flushFunc: flushFunc,
		ctx:       ctx,
		cancel:    cancel,
	}

	bw.flushTicker = time.NewTicker(maxWait)

	bw.wg.Add(1)
	go bw.autoFlush()

	return bw
}

// Add adds record to buffer
func (bw *BatchWriter) Add(record interface{}) {
	bw.bufferMu.Lock()
	bw.buffer = append(bw.buffer, record)
	shouldFlush := len(bw.buffer) >= bw.maxBatch
	bw.bufferMu.Unlock()

	if shouldFlush {
		bw.flush()
	}
}

// autoFlush flushes buffer periodically
func (bw *BatchWriter) autoFlush() {
	defer bw.wg.Done()

	for {
		select {
		case <-bw.flushTicker.C:
			bw.flush()
		case <-bw.ctx.Done():
			// Final flush before exit
			bw.flush()
			return
		}
	}
}

// flush writes buffered records to ClickHouse via repository
func (bw *BatchWriter) flush() {
	bw.bufferMu.Lock()
	if len(bw.buffer) == 0 {
		bw.bufferMu.Unlock()
		return
	}

	toWrite := make([]interface{}, len(bw.buffer))
	copy(toWrite, bw.buffer)
	bw.buffer = bw.buffer[:0]
	bw.bufferMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := bw.flushFunc(ctx, bw.repo, toWrite); err != nil {
		logger.Error("failed to flush batch to ClickHouse",
			zap.Int("records", len(toWrite)),
			zap.Error(err),
		)
		return
	}

	logger.Debug("flushed batch to ClickHouse",
		zap.Int("records", len(toWrite)),
	)
}

// Close stops the writer and flushes remaining data
func (bw *BatchWriter) Close() error {
	bw.flushTicker.Stop()
	bw.cancel()
	bw.wg.Wait()
	return nil
}

// SignalBatchWriter specialized writer for monthly signal records
type SignalBatchWriter struct {
	*BatchWriter
	runID string
}

// NewSignalBatchWriter creates batch writer for monthly signals
func NewSignalBatchWriter(repo *Repository, runID string, maxBatch int, maxWait time.Duration) *SignalBatchWriter {
	flushFunc := func(ctx context.Context, r *Repository, records []interface{}) error {
		signals := make([]models.SignalRecord, 0, len(records))
		for _, record := range records {
			signals = append(signals, record.(models.SignalRecord))
		}
		return r.SaveSignals(ctx, runID, signals)
	}

	bw := NewBatchWriter(repo, maxBatch, maxWait, flushFunc)

	return &SignalBatchWriter{BatchWriter: bw, runID: runID}
}

// AddSignal adds a signal record to the buffer
func (sbw *SignalBatchWriter) AddSignal(signal models.SignalRecord) {
	sbw.Add(signal)
}

// ObservationBatchWriter specialized writer for aligned table cells
type ObservationBatchWriter struct {
	*BatchWriter
	runID string
}

// NewObservationBatchWriter creates batch writer for aligned observations
func NewObservationBatchWriter(repo *Repository, runID string, maxBatch int, maxWait time.Duration) *ObservationBatchWriter {
	flushFunc := func(ctx context.Context, r *Repository, records []interface{}) error {
		observations := make([]models.AlignedObservation, 0, len(records))
		for _, record := range records {
			observations = append(observations, record.(models.AlignedObservation))
		}
		return r.SaveAlignedObservations(ctx, runID, observations)
	}

	bw := NewBatchWriter(repo, maxBatch, maxWait, flushFunc)

	return &ObservationBatchWriter{BatchWriter: bw, runID: runID}
}

// AddObservation adds a table cell to the buffer
func (obw *ObservationBatchWriter) AddObservation(obs models.AlignedObservation) {
	obw.Add(obs)
}
