// # internal/engine/graph/writer.go
package graph

import (
	"sync"
	"time"

	"github.com/leima-hit/dependency-analyzer/internal/engine/classfile"
)

// BatchWriterConfig controls the flush thresholds for the BatchWriter.
type BatchWriterConfig struct {
	// BatchSize is the number of updates that trigger an automatic flush.
	// Defaults to 50 when zero or negative.
	BatchSize int
	// FlushInterval is the maximum time to wait before folding pending
	// updates into the graph. Defaults to 1s when zero or negative.
	FlushInterval time.Duration
}

func (c BatchWriterConfig) batchSize() int {
	if c.BatchSize <= 0 {
		return 50
	}
	return c.BatchSize
}

func (c BatchWriterConfig) flushInterval() time.Duration {
	if c.FlushInterval <= 0 {
		return time.Second
	}
	return c.FlushInterval
}

// Update is one file-level change destined for the graph.
type Update struct {
	Source  classfile.ClassName
	Module  string
	Refs    []classfile.ClassName
	Removed bool // the source was deleted rather than re-decoded
}

// BatchWriter coalesces bursts of file updates and folds them into the
// graph from a single goroutine. A rebuild storm touches the same class
// many times in quick succession; each flush keeps only the last update
// per source before applying.
type BatchWriter struct {
	graph *Graph
	cfg   BatchWriterConfig

	ch      chan Update
	flushCh chan chan struct{} // manual flush request + completion signal
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewBatchWriter creates a BatchWriter and starts its internal goroutine.
// Callers must call Close() to drain remaining work and stop the goroutine.
func NewBatchWriter(graph *Graph, cfg BatchWriterConfig) *BatchWriter {
	w := &BatchWriter{
		graph:   graph,
		cfg:     cfg,
		ch:      make(chan Update, cfg.batchSize()*2),
		flushCh: make(chan chan struct{}, 1),
		done:    make(chan struct{}),
	}
	w.wg.Add(1)
	go w.run()
	return w
}

// Submit enqueues an update for the next flush cycle. It is non-blocking;
// if the internal channel is full, the update is applied directly.
func (w *BatchWriter) Submit(u Update) {
	if u.Source.IsEmpty() {
		return
	}
	select {
	case w.ch <- u:
	default:
		// Channel full; fall back to a direct synchronous apply.
		w.apply([]Update{u})
	}
}

// Flush forces an immediate apply of all pending updates and waits until it
// completes.
func (w *BatchWriter) Flush() {
	result := make(chan struct{}, 1)
	select {
	case w.flushCh <- result:
	case <-w.done:
		return
	}
	<-result
}

// Close folds remaining pending updates into the graph and stops the
// internal goroutine.
func (w *BatchWriter) Close() {
	close(w.done)
	w.wg.Wait()
	// Fold in any updates that arrived after done was closed.
	w.drainChannel()
}

// run is the single-writer goroutine.
func (w *BatchWriter) run() {
	defer w.wg.Done()

	batch := make([]Update, 0, w.cfg.batchSize())
	ticker := time.NewTicker(w.cfg.flushInterval())
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		w.apply(batch)
		batch = batch[:0]
	}

	for {
		select {
		case u := <-w.ch:
			batch = append(batch, u)
			if len(batch) >= w.cfg.batchSize() {
				drainPending(&batch, w.ch)
				flush()
				ticker.Reset(w.cfg.flushInterval())
			}

		case result := <-w.flushCh:
			// Drain any updates that arrived in the channel before the flush
			// signal so that Submit()→Flush() sequences are always coherent.
			drainPending(&batch, w.ch)
			flush()
			result <- struct{}{}

		case <-ticker.C:
			drainPending(&batch, w.ch)
			flush()

		case <-w.done:
			// Drain the channel before exit.
			for {
				select {
				case u := <-w.ch:
					batch = append(batch, u)
				default:
					flush()
					return
				}
			}
		}
	}
}

// apply folds a batch into the graph, keeping only the last update per
// source. First-seen order is preserved across distinct sources.
func (w *BatchWriter) apply(updates []Update) {
	if len(updates) == 0 {
		return
	}
	last := make(map[classfile.ClassName]Update, len(updates))
	order := make([]classfile.ClassName, 0, len(updates))
	for _, u := range updates {
		if _, seen := last[u.Source]; !seen {
			order = append(order, u.Source)
		}
		last[u.Source] = u
	}
	for _, source := range order {
		u := last[source]
		if u.Removed {
			w.graph.RemoveSource(u.Source, u.Module)
			continue
		}
		if u.Module != "" {
			w.graph.AddLocation(u.Source, u.Module)
		}
		w.graph.ReplaceDependencies(u.Source, u.Refs)
	}
}

// drainChannel applies any updates remaining in the buffered channel.
func (w *BatchWriter) drainChannel() {
	var updates []Update
	for {
		select {
		case u := <-w.ch:
			updates = append(updates, u)
		default:
			w.apply(updates)
			return
		}
	}
}

// drainPending non-blockingly moves all queued updates from ch into batch.
// A file submitted just before Flush() may still be sitting in the channel
// when the flushCh signal is received.
func drainPending(batch *[]Update, ch <-chan Update) {
	for {
		select {
		case u := <-ch:
			*batch = append(*batch, u)
		default:
			return
		}
	}
}
