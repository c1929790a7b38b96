package worker

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/csvscope/csvscope/pkg/config"
	"github.com/csvscope/csvscope/pkg/protocol"
	"github.com/csvscope/csvscope/pkg/stats"
)

const responseWait = 5 * time.Second

func newTestWorker(t *testing.T) (chan protocol.Message, chan protocol.Response) {
	t.Helper()
	cfg := config.Default()
	cfg.Engine.Threads = 2
	cfg.Engine.MemoryLimit = "512MB"

	requests := make(chan protocol.Message, 16)
	responses := make(chan protocol.Response, 16)

	w, err := New(cfg, requests, responses, zap.NewNop())
	require.NoError(t, err)
	go w.Run()
	t.Cleanup(func() {
		w.ForceStop()
		select {
		case <-w.Done():
		case <-time.After(responseWait):
			t.Error("worker did not stop")
		}
	})
	return requests, responses
}

func roundTrip(t *testing.T, requests chan protocol.Message, responses chan protocol.Response, msg protocol.Message) protocol.Response {
	t.Helper()
	requests <- msg
	select {
	case resp := <-responses:
		return resp
	case <-time.After(responseWait):
		t.Fatalf("no response for %s (%s)", msg.Kind, msg.ID)
		return protocol.Response{}
	}
}

func tempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestWorkerLoadAndQuery(t *testing.T) {
	requests, responses := newTestWorker(t)
	path := tempCSV(t, "a,b\n1,x\n2,y\n")

	resp := roundTrip(t, requests, responses, protocol.Message{
		ID:      "req_1",
		Kind:    protocol.KindLoadCSV,
		Payload: protocol.Payload("file_path", path),
	})
	assert.Equal(t, "req_1", resp.RequestID)
	require.True(t, resp.Success, resp.Error)

	resp = roundTrip(t, requests, responses, protocol.Message{
		ID:      "req_2",
		Kind:    protocol.KindExecuteQuery,
		Payload: protocol.Payload("sql", "SELECT COUNT(*) AS n FROM data"),
	})
	assert.Equal(t, "req_2", resp.RequestID)
	assert.True(t, resp.Success, resp.Error)
}

func TestWorkerUnknownKind(t *testing.T) {
	requests, responses := newTestWorker(t)

	resp := roundTrip(t, requests, responses, protocol.Message{
		ID:   "req_1",
		Kind: protocol.Kind("no_such_op"),
	})
	assert.Equal(t, "req_1", resp.RequestID)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "unknown message kind")
}

func TestWorkerSurvivesBadPayload(t *testing.T) {
	requests, responses := newTestWorker(t)

	resp := roundTrip(t, requests, responses, protocol.Message{
		ID:      "req_1",
		Kind:    protocol.KindLoadCSV,
		Payload: protocol.Payload(), // file_path missing
	})
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "file_path")

	// The loop keeps serving after a failed request.
	resp = roundTrip(t, requests, responses, protocol.Message{
		ID:   "req_2",
		Kind: protocol.KindGetTables,
	})
	assert.True(t, resp.Success, resp.Error)
}

func TestWorkerMissingTableErrors(t *testing.T) {
	requests, responses := newTestWorker(t)

	resp := roundTrip(t, requests, responses, protocol.Message{
		ID:      "req_1",
		Kind:    protocol.KindAnalyzeTable,
		Payload: protocol.Payload("table_name", "ghost"),
	})
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "ghost")
}

func TestWorkerShutdown(t *testing.T) {
	cfg := config.Default()
	cfg.Engine.Threads = 2
	cfg.Engine.MemoryLimit = "512MB"

	requests := make(chan protocol.Message, 1)
	responses := make(chan protocol.Response, 1)
	w, err := New(cfg, requests, responses, zap.NewNop())
	require.NoError(t, err)
	go w.Run()

	resp := roundTrip(t, requests, responses, protocol.Message{
		ID:   "req_1",
		Kind: protocol.KindShutdown,
	})
	assert.True(t, resp.Success)

	select {
	case <-w.Done():
	case <-time.After(responseWait):
		t.Fatal("worker did not exit after shutdown")
	}
}

func TestWorkerReloadInvalidatesStats(t *testing.T) {
	requests, responses := newTestWorker(t)

	small := tempCSV(t, "v\n1\n2\n")
	resp := roundTrip(t, requests, responses, protocol.Message{
		ID:      "req_1",
		Kind:    protocol.KindLoadCSV,
		Payload: protocol.Payload("file_path", small, "table_name", "nums"),
	})
	require.True(t, resp.Success, resp.Error)

	resp = roundTrip(t, requests, responses, protocol.Message{
		ID:      "req_2",
		Kind:    protocol.KindAnalyzeTable,
		Payload: protocol.Payload("table_name", "nums"),
	})
	require.True(t, resp.Success, resp.Error)

	resp = roundTrip(t, requests, responses, protocol.Message{
		ID:      "req_3",
		Kind:    protocol.KindDropTable,
		Payload: protocol.Payload("table_name", "nums"),
	})
	require.True(t, resp.Success, resp.Error)

	bigger := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(bigger, []byte("v\n1\n2\n3\n4\n5\n"), 0o644))
	resp = roundTrip(t, requests, responses, protocol.Message{
		ID:      "req_4",
		Kind:    protocol.KindLoadCSV,
		Payload: protocol.Payload("file_path", bigger, "table_name", "nums"),
	})
	require.True(t, resp.Success, resp.Error)

	resp = roundTrip(t, requests, responses, protocol.Message{
		ID:      "req_5",
		Kind:    protocol.KindAnalyzeTable,
		Payload: protocol.Payload("table_name", "nums"),
	})
	require.True(t, resp.Success, resp.Error)

	// The analysis reflects the reloaded file, not the cached first one.
	tableStats, ok := resp.Data.(*stats.TableStats)
	require.True(t, ok, "unexpected data type %T", resp.Data)
	assert.Equal(t, int64(5), tableStats.RowCount)
}
