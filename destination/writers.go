package destination

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/datazip-inc/olake-monday/drivers/abstract"
	"github.com/datazip-inc/olake-monday/types"
	"github.com/datazip-inc/olake-monday/utils"
	"github.com/datazip-inc/olake-monday/utils/logger"
)

type NewFunc func() Writer

var RegisteredWriters = map[types.DestinationType]NewFunc{}

// WriterPool fans the output of a sync out to one writer per stream and
// implements the sink of the sync engine
type WriterPool struct {
	config any     // respective writer config
	init   NewFunc // To initialize exclusive stream writers
	syncID string
	// control is the checked writer; it receives state when it is a StateWriter
	control       Writer
	threads       map[string]Writer
	recordCount   atomic.Int64
	threadCounter atomic.Int64
	tmu           sync.Mutex
}

func NewWriter(ctx context.Context, config *types.WriterConfig) (*WriterPool, error) {
	newfunc, found := RegisteredWriters[config.Type]
	if !found {
		return nil, fmt.Errorf("invalid destination type has been passed [%s]", config.Type)
	}

	adapter := newfunc()
	if err := utils.Unmarshal(config.WriterConfig, adapter.GetConfigRef()); err != nil {
		return nil, err
	}

	if err := adapter.Check(ctx); err != nil {
		return nil, fmt.Errorf("failed to test destination: %s", err)
	}

	return &WriterPool{
		config:  config.WriterConfig,
		init:    newfunc,
		syncID:  utils.ULID(),
		control: adapter,
		threads: map[string]Writer{},
	}, nil
}

// WriteSchema sets up the writer of a stream; records of a stream are
// rejected until its schema was written
func (w *WriterPool) WriteSchema(_ context.Context, def *abstract.StreamDefinition) error {
	w.tmu.Lock()
	defer w.tmu.Unlock()

	if _, found := w.threads[def.ID]; found {
		return nil
	}

	thread := w.init()
	if err := utils.Unmarshal(w.config, thread.GetConfigRef()); err != nil {
		return err
	}

	options := &Options{Identifier: w.syncID, Number: w.threadCounter.Add(1)}
	if err := thread.Setup(def, options); err != nil {
		return fmt.Errorf("failed to setup writer of stream[%s]: %s", def.ID, err)
	}

	w.threads[def.ID] = thread
	return nil
}

func (w *WriterPool) WriteRecord(ctx context.Context, streamID string, record types.Record) error {
	w.tmu.Lock()
	thread, found := w.threads[streamID]
	w.tmu.Unlock()
	if !found {
		return fmt.Errorf("no writer for stream[%s]: schema not written", streamID)
	}

	if err := thread.Write(ctx, record); err != nil {
		return err
	}
	w.recordCount.Add(1)
	return nil
}

// WriteState persists the state file and forwards the state to the destination
func (w *WriterPool) WriteState(ctx context.Context, state *types.State) error {
	if err := logger.LogState(state); err != nil {
		return err
	}
	if stateWriter, ok := w.control.(StateWriter); ok {
		return stateWriter.WriteState(ctx, state)
	}
	return nil
}

// SyncedRecords returns the records handed to writers so far
func (w *WriterPool) SyncedRecords() int64 {
	return w.recordCount.Load()
}

// Close closes every stream writer and the control writer, collecting all errors
func (w *WriterPool) Close(ctx context.Context) error {
	w.tmu.Lock()
	defer w.tmu.Unlock()

	ids := make([]string, 0, len(w.threads))
	for id := range w.threads {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	closers := make([]func() error, 0, len(ids)+1)
	for _, id := range ids {
		thread := w.threads[id]
		closers = append(closers, utils.ErrExecFormat(fmt.Sprintf("failed to close writer of stream[%s]: %%s", id), func() error {
			return thread.Close(ctx)
		}))
	}
	closers = append(closers, func() error { return w.control.Close(ctx) })

	w.threads = map[string]Writer{}
	return utils.ErrExecSequential(closers...)
}
