package client

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/csvscope/csvscope/pkg/config"
	"github.com/csvscope/csvscope/pkg/engine"
	"github.com/csvscope/csvscope/pkg/protocol"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	cfg := config.Default()
	cfg.Engine.Threads = 2
	cfg.Engine.MemoryLimit = "512MB"
	cfg.Client.ShutdownWait = 2 * time.Second

	c := New(cfg, zap.NewNop())
	require.NoError(t, c.Start())
	t.Cleanup(func() { _ = c.Stop() })
	return c
}

func tempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestClientEndToEnd(t *testing.T) {
	c := newTestClient(t)
	path := tempCSV(t, "a,b\n1,x\n2,y\n3,z\n")

	resp := c.LoadCSV(path, "")
	require.True(t, resp.Success, resp.Error)
	info, ok := resp.Data.(engine.TableInfo)
	require.True(t, ok, "unexpected data type %T", resp.Data)
	assert.Equal(t, "data", info.Name)
	assert.Equal(t, int64(3), info.RowCount)

	resp = c.ExecuteQuery("SELECT a FROM data ORDER BY a", 2, 0)
	require.True(t, resp.Success, resp.Error)
	result, ok := resp.Data.(engine.QueryResult)
	require.True(t, ok, "unexpected data type %T", resp.Data)
	assert.Equal(t, 2, result.RowCount)
	assert.Equal(t, int64(3), result.TotalRows)

	resp = c.Tables()
	require.True(t, resp.Success, resp.Error)
	tables, ok := resp.Data.([]engine.TableInfo)
	require.True(t, ok, "unexpected data type %T", resp.Data)
	assert.Len(t, tables, 1)
}

func TestCallCorrelatesIDs(t *testing.T) {
	c := newTestClient(t)

	first := c.Tables()
	second := c.Tables()

	require.True(t, first.Success)
	require.True(t, second.Success)
	assert.NotEqual(t, first.RequestID, second.RequestID)
	assert.Equal(t, "req_1", first.RequestID)
	assert.Equal(t, "req_2", second.RequestID)
}

func TestCallUnknownKind(t *testing.T) {
	c := newTestClient(t)

	resp := c.Call(protocol.Kind("nonsense"), nil, time.Second)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "unknown message kind")
}

func TestCallBeforeStart(t *testing.T) {
	cfg := config.Default()
	c := New(cfg, zap.NewNop())

	resp := c.Call(protocol.KindGetTables, nil, time.Second)
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Error)
}

func TestCallTimeout(t *testing.T) {
	// White-box: wire the channels without any worker so no response
	// ever arrives, and check the call returns within its bound.
	cfg := config.Default()
	c := New(cfg, zap.NewNop())
	c.mu.Lock()
	c.started = true
	c.requests = make(chan protocol.Message, 1)
	c.responses = make(chan protocol.Response, 1)
	c.listenerStop = make(chan struct{})
	c.mu.Unlock()
	go c.listen()
	defer close(c.listenerStop)

	start := time.Now()
	resp := c.Call(protocol.KindGetTables, nil, 100*time.Millisecond)
	elapsed := time.Since(start)

	assert.False(t, resp.Success)
	assert.Equal(t, "Request timeout", resp.Error)
	assert.Less(t, elapsed, 2*time.Second)

	// The timed-out request leaves no bookkeeping behind.
	c.mu.Lock()
	assert.Empty(t, c.pending)
	assert.Empty(t, c.results)
	c.mu.Unlock()
}

func TestGhostResponseIsDropped(t *testing.T) {
	cfg := config.Default()
	c := New(cfg, zap.NewNop())
	c.mu.Lock()
	c.started = true
	c.requests = make(chan protocol.Message, 4)
	c.responses = make(chan protocol.Response, 4)
	c.listenerStop = make(chan struct{})
	c.mu.Unlock()
	go c.listen()
	defer close(c.listenerStop)

	// A response for an id nobody is waiting on is discarded.
	c.responses <- protocol.OK("req_999", "stale")

	// A matched call still works: answer it from a fake worker goroutine.
	go func() {
		msg := <-c.requests
		c.responses <- protocol.OK(msg.ID, "fresh")
	}()
	resp := c.Call(protocol.KindGetTables, nil, 2*time.Second)
	require.True(t, resp.Success)
	assert.Equal(t, "fresh", resp.Data)

	c.mu.Lock()
	assert.Empty(t, c.pending)
	assert.Empty(t, c.results)
	c.mu.Unlock()
}

func TestLateResponseAfterTimeout(t *testing.T) {
	cfg := config.Default()
	c := New(cfg, zap.NewNop())
	c.mu.Lock()
	c.started = true
	c.requests = make(chan protocol.Message, 4)
	c.responses = make(chan protocol.Response, 4)
	c.listenerStop = make(chan struct{})
	c.mu.Unlock()
	go c.listen()
	defer close(c.listenerStop)

	var timedOutID string
	done := make(chan struct{})
	go func() {
		resp := c.Call(protocol.KindGetTables, nil, 50*time.Millisecond)
		timedOutID = resp.RequestID
		close(done)
	}()

	msg := <-c.requests
	<-done // call has timed out and abandoned its id

	// The worker answers anyway; the listener must drop it silently.
	c.responses <- protocol.OK(msg.ID, "late")
	time.Sleep(50 * time.Millisecond)

	c.mu.Lock()
	assert.Empty(t, c.pending)
	assert.Empty(t, c.results)
	c.mu.Unlock()
	assert.Equal(t, msg.ID, timedOutID)
}

func TestStartAndStopAreIdempotent(t *testing.T) {
	cfg := config.Default()
	cfg.Engine.Threads = 2
	cfg.Engine.MemoryLimit = "512MB"
	cfg.Client.ShutdownWait = 2 * time.Second

	c := New(cfg, zap.NewNop())
	require.NoError(t, c.Start())
	require.NoError(t, c.Start())

	resp := c.Tables()
	require.True(t, resp.Success, resp.Error)

	require.NoError(t, c.Stop())
	require.NoError(t, c.Stop())

	// Calls after Stop fail fast instead of hanging.
	resp = c.Tables()
	assert.False(t, resp.Success)
}

func TestClientAnalysisRoundTrip(t *testing.T) {
	c := newTestClient(t)

	var rows string
	for i := 1; i <= 20; i++ {
		rows += fmt.Sprintf("%d\n", i)
	}
	path := tempCSV(t, "v\n"+rows)

	resp := c.LoadCSV(path, "nums")
	require.True(t, resp.Success, resp.Error)

	resp = c.AnalyzeTable("nums", false)
	require.True(t, resp.Success, resp.Error)

	resp = c.ColumnDistribution("nums", "v", 5)
	require.True(t, resp.Success, resp.Error)

	resp = c.MissingReport("nums")
	require.True(t, resp.Success, resp.Error)

	out := filepath.Join(t.TempDir(), "out.csv")
	resp = c.ExportCSV("nums", out, false)
	require.True(t, resp.Success, resp.Error)
	_, err := os.Stat(out)
	require.NoError(t, err)
}
