// Package client is the caller-side half of the RPC pair. It owns the
// worker lifecycle, correlates requests with responses by id, and gives
// callers a blocking call-with-timeout API backed by a single response
// listener.
package client

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/csvscope/csvscope/pkg/apperrors"
	"github.com/csvscope/csvscope/pkg/config"
	"github.com/csvscope/csvscope/pkg/protocol"
	"github.com/csvscope/csvscope/pkg/worker"
)

// Client talks to one backend worker over a pair of channels. Each Call
// blocks its own goroutine until response or timeout; the surrounding
// application is expected to call from background goroutines.
type Client struct {
	cfg    *config.Config
	logger *zap.Logger

	mu           sync.Mutex
	started      bool
	nextID       uint64
	pending      map[string]chan struct{}
	results      map[string]protocol.Response
	requests     chan protocol.Message
	responses    chan protocol.Response
	worker       *worker.Worker
	listenerStop chan struct{}
}

// New creates a client. Nothing runs until Start.
func New(cfg *config.Config, logger *zap.Logger) *Client {
	return &Client{
		cfg:     cfg,
		logger:  logger.Named("client"),
		pending: make(map[string]chan struct{}),
		results: make(map[string]protocol.Response),
	}
}

// Start creates the channels, constructs the worker bound to them, and
// launches the worker loop and the response listener. Idempotent.
func (c *Client) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return nil
	}

	c.requests = make(chan protocol.Message, c.cfg.Client.QueueSize)
	c.responses = make(chan protocol.Response, c.cfg.Client.QueueSize)

	w, err := worker.New(c.cfg, c.requests, c.responses, c.logger)
	if err != nil {
		return fmt.Errorf("start worker: %w", err)
	}
	c.worker = w
	c.listenerStop = make(chan struct{})

	go w.Run()
	go c.listen()

	c.started = true
	c.logger.Info("client started")
	return nil
}

// Stop sends a best-effort shutdown request, waits a bounded time for
// the worker to drain and exit, and force-stops it if the wait
// elapses. Idempotent.
func (c *Client) Stop() error {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return nil
	}
	w := c.worker
	stop := c.listenerStop
	c.mu.Unlock()

	// Failures here are deliberately ignored; the bounded wait below
	// still applies and force-stop is the backstop.
	c.Call(protocol.KindShutdown, nil, c.cfg.Client.ShutdownWait)

	select {
	case <-w.Done():
	case <-time.After(c.cfg.Client.ShutdownWait):
		c.logger.Warn("worker did not exit in time, forcing stop")
		w.ForceStop()
		<-w.Done()
	}

	c.mu.Lock()
	c.started = false
	c.worker = nil
	close(stop)
	c.mu.Unlock()

	c.logger.Info("client stopped")
	return nil
}

// listen is the sole reader of the response channel. Responses for
// registered requests are stored and their wait handles signalled;
// anything else is a ghost completion and is dropped.
func (c *Client) listen() {
	for {
		select {
		case resp := <-c.responses:
			c.mu.Lock()
			handle, ok := c.pending[resp.RequestID]
			if ok {
				c.results[resp.RequestID] = resp
				close(handle)
				delete(c.pending, resp.RequestID)
			}
			c.mu.Unlock()
			if !ok {
				c.logger.Debug("dropping unmatched response",
					zap.String("request_id", resp.RequestID))
			}
		case <-c.listenerStop:
			return
		}
	}
}

// Call enqueues a request and blocks until its response arrives or the
// timeout elapses. On timeout the pending registration and any stray
// stored response are removed, and a synthetic failed response is
// returned; the caller is never blocked past the timeout and no
// bookkeeping entry leaks.
func (c *Client) Call(kind protocol.Kind, payload map[string]any, timeout time.Duration) protocol.Response {
	if payload == nil {
		payload = map[string]any{}
	}
	if timeout <= 0 {
		timeout = c.cfg.Client.CallTimeout
	}

	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return protocol.Fail("", apperrors.ErrNotRunning.Error())
	}
	c.nextID++
	id := fmt.Sprintf("req_%d", c.nextID)
	// Register the wait handle before the request can possibly be
	// answered, so a fast response cannot miss the waiter.
	handle := make(chan struct{})
	c.pending[id] = handle
	requests := c.requests
	c.mu.Unlock()

	msg := protocol.Message{ID: id, Kind: kind, Payload: payload}
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	select {
	case requests <- msg:
	case <-deadline.C:
		c.abandon(id)
		return protocol.Fail(id, "Request timeout")
	}

	select {
	case <-handle:
		c.mu.Lock()
		resp := c.results[id]
		delete(c.results, id)
		c.mu.Unlock()
		return resp
	case <-deadline.C:
		c.abandon(id)
		return protocol.Fail(id, "Request timeout")
	}
}

// abandon removes every trace of a timed-out request.
func (c *Client) abandon(id string) {
	c.mu.Lock()
	delete(c.pending, id)
	delete(c.results, id)
	c.mu.Unlock()
}
