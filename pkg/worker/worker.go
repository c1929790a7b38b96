// Package worker hosts the backend loop: one engine adapter and one
// statistics analyzer, driven by messages from an inbound channel and
// answered on an outbound channel. The worker owns its engine and
// analyzer outright; the caller only ever touches the channels.
package worker

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/csvscope/csvscope/pkg/config"
	"github.com/csvscope/csvscope/pkg/engine"
	"github.com/csvscope/csvscope/pkg/protocol"
	"github.com/csvscope/csvscope/pkg/stats"
)

// pollInterval is how long one inbound poll waits before re-checking
// the running flag. Keeps shutdown responsive without busy-waiting.
const pollInterval = 100 * time.Millisecond

type handlerFunc func(payload map[string]any) (any, error)

// Worker processes requests strictly one at a time in arrival order.
// A slow analytical query blocks subsequent requests until it
// completes; there is deliberately no concurrency around the single
// engine connection.
type Worker struct {
	requests  <-chan protocol.Message
	responses chan<- protocol.Response

	engine   *engine.Engine
	analyzer *stats.Analyzer
	handlers map[protocol.Kind]handlerFunc

	running   atomic.Bool
	quit      chan struct{}
	quitOnce  sync.Once
	done      chan struct{}
	logger    *zap.Logger
}

// New constructs a worker bound to the given channels. The engine and
// analyzer are created here and never leave the worker.
func New(cfg *config.Config, requests <-chan protocol.Message, responses chan<- protocol.Response, logger *zap.Logger) (*Worker, error) {
	eng, err := engine.New(cfg.Engine, logger)
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}

	w := &Worker{
		requests:  requests,
		responses: responses,
		engine:    eng,
		analyzer:  stats.New(eng, logger),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.Named("worker"),
	}
	w.handlers = w.buildDispatchTable()
	return w, nil
}

// buildDispatchTable maps every message kind to its handler. The table
// is fixed at construction and covers the whole kind set.
func (w *Worker) buildDispatchTable() map[protocol.Kind]handlerFunc {
	return map[protocol.Kind]handlerFunc{
		protocol.KindLoadCSV:      w.handleLoadCSV,
		protocol.KindDropTable:    w.handleDropTable,
		protocol.KindGetTables:    w.handleGetTables,
		protocol.KindGetTableInfo: w.handleGetTableInfo,

		protocol.KindExecuteQuery: w.handleExecuteQuery,
		protocol.KindGetTableData: w.handleGetTableData,

		protocol.KindSaveView:   w.handleSaveView,
		protocol.KindGetViews:   w.handleGetViews,
		protocol.KindDeleteView: w.handleDeleteView,

		protocol.KindAnalyzeTable:          w.handleAnalyzeTable,
		protocol.KindAnalyzeColumn:         w.handleAnalyzeColumn,
		protocol.KindAnalyzeQueryColumn:    w.handleAnalyzeQueryColumn,
		protocol.KindGetMissingReport:      w.handleGetMissingReport,
		protocol.KindGetNumericSummary:     w.handleGetNumericSummary,
		protocol.KindGetColumnDistribution: w.handleGetColumnDistribution,
		protocol.KindClearStatsCache:       w.handleClearStatsCache,

		protocol.KindExportCSV: w.handleExportCSV,
		protocol.KindShutdown:  w.handleShutdown,
	}
}

// Run is the worker-loop entry point. It polls the inbound channel
// with a short timeout so the running flag is observed between polls,
// pushes exactly one response per message, and on shutdown closes the
// engine before signalling done.
func (w *Worker) Run() {
	w.running.Store(true)
	defer close(w.done)
	defer func() {
		if err := w.engine.Close(); err != nil {
			w.logger.Warn("engine close failed", zap.Error(err))
		}
	}()

	w.logger.Info("worker started")
	timer := time.NewTimer(pollInterval)
	defer timer.Stop()

	for w.running.Load() {
		timer.Reset(pollInterval)
		select {
		case msg := <-w.requests:
			resp := w.dispatch(msg)
			select {
			case w.responses <- resp:
			case <-w.quit:
				return
			}
		case <-w.quit:
			return
		case <-timer.C:
			// Re-check the running flag.
		}
	}
	w.logger.Info("worker stopped")
}

// dispatch resolves and invokes the handler for the message kind. Any
// handler error or panic becomes a failed response; the loop never
// dies on a bad request.
func (w *Worker) dispatch(msg protocol.Message) (resp protocol.Response) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("handler panic",
				zap.String("kind", string(msg.Kind)),
				zap.String("request_id", msg.ID),
				zap.Any("panic", r))
			resp = protocol.Fail(msg.ID, fmt.Sprintf("internal error: %v", r))
		}
	}()

	handler, ok := w.handlers[msg.Kind]
	if !ok {
		return protocol.Fail(msg.ID, fmt.Sprintf("unknown message kind: %s", msg.Kind))
	}

	data, err := handler(msg.Payload)
	if err != nil {
		w.logger.Debug("handler failed",
			zap.String("kind", string(msg.Kind)),
			zap.String("request_id", msg.ID),
			zap.Error(err))
		return protocol.Fail(msg.ID, err.Error())
	}
	return protocol.OK(msg.ID, data)
}

// Done is closed once the loop has exited and the engine is closed.
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

// ForceStop makes the loop exit at the next select, bypassing the
// normal shutdown message. Used by the client after a bounded wait.
func (w *Worker) ForceStop() {
	w.quitOnce.Do(func() { close(w.quit) })
}
