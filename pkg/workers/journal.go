package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/cbodonnell/wagervault/pkg/events"
	"github.com/cbodonnell/wagervault/pkg/log"
	"github.com/cbodonnell/wagervault/pkg/queue"
	"github.com/klauspost/compress/zstd"
)

// JournalWorker appends each emitted signal to an append-only journal
// file as a zstd-compressed JSON line. The journal is an operator
// convenience; game state durability lives in the repository.
type JournalWorker struct {
	eventQueue queue.Queue
	writer     *zstd.Encoder
	file       *os.File
	interval   time.Duration
}

type NewJournalWorkerOptions struct {
	EventQueue queue.Queue
	Path       string
	Interval   time.Duration
}

func NewJournalWorker(opts NewJournalWorkerOptions) (*JournalWorker, error) {
	file, err := os.OpenFile(opts.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal file: %v", err)
	}

	writer, err := zstd.NewWriter(file, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to create zstd writer: %v", err)
	}

	return &JournalWorker{
		eventQueue: opts.EventQueue,
		writer:     writer,
		file:       file,
		interval:   opts.Interval,
	}, nil
}

// Handler returns an event handler that feeds the journal queue.
func (w *JournalWorker) Handler() events.EventHandler {
	return func(event events.Event) {
		w.eventQueue.Enqueue(event)
	}
}

func (w *JournalWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.flush()
			if err := w.writer.Close(); err != nil {
				log.Error("Failed to close journal writer: %v", err)
			}
			if err := w.file.Close(); err != nil {
				log.Error("Failed to close journal file: %v", err)
			}
			return
		case <-ticker.C:
			w.flush()
		}
	}
}

func (w *JournalWorker) flush() {
	pending := w.eventQueue.ReadAllMessages()
	for _, item := range pending {
		event, ok := item.(events.Event)
		if !ok {
			log.Error("Failed to cast journal item to event")
			continue
		}
		line, err := json.Marshal(event)
		if err != nil {
			log.Error("Failed to marshal event: %v", err)
			continue
		}
		line = append(line, '\n')
		if _, err := w.writer.Write(line); err != nil {
			log.Error("Failed to write journal entry: %v", err)
		}
	}
	if len(pending) > 0 {
		if err := w.writer.Flush(); err != nil {
			log.Error("Failed to flush journal: %v", err)
		}
	}
}
