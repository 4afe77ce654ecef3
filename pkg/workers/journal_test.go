package workers

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cbodonnell/wagervault/pkg/events"
	"github.com/cbodonnell/wagervault/pkg/queue"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJournalWorker(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl.zst")

	worker, err := NewJournalWorker(NewJournalWorkerOptions{
		EventQueue: queue.NewInMemoryQueue(),
		Path:       path,
		Interval:   10 * time.Millisecond,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		worker.Start(ctx)
		close(done)
	}()

	handler := worker.Handler()
	handler(events.Event{Type: events.EventTypeGameCreated, GameID: 0})
	handler(events.Event{Type: events.EventTypeGameResolved, GameID: 0})

	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	reader, err := zstd.NewReader(file)
	require.NoError(t, err)
	defer reader.Close()

	var types []string
	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		var event events.Event
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &event))
		types = append(types, event.Type)
	}
	require.NoError(t, scanner.Err())
	assert.Equal(t, []string{events.EventTypeGameCreated, events.EventTypeGameResolved}, types)
}
