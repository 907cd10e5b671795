// Package narration paces short spoken announcements to the glasses.
package narration

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Separator joins the items of one chunk into a single utterance
const Separator = ". "

// Pacing controls how a sequence is split and spaced
type Pacing struct {
	ChunkSize int           `json:"chunk_size"`
	Delay     time.Duration `json:"delay"`
}

var (
	// StopListPacing keeps stop lists to one or two sentences per utterance
	StopListPacing = Pacing{ChunkSize: 2, Delay: 3500 * time.Millisecond}
	// InstructionPacing reads one instruction step at a time
	InstructionPacing = Pacing{ChunkSize: 1, Delay: 4500 * time.Millisecond}
)

// Speaker is the gated text hand-off to the glasses
type Speaker interface {
	IsConnected() bool
	Speak(text string)
}

// Sequence is a handle on one paced narration
type Sequence struct {
	ID     string `json:"id"`
	Chunks int    `json:"chunks"`

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	spoken atomic.Int32
}

// Done is closed once the sequence has finished or been cancelled
func (s *Sequence) Done() <-chan struct{} { return s.done }

// Cancel stops the sequence before its next chunk
func (s *Sequence) Cancel() { s.cancel() }

// Cancelled reports whether the sequence was stopped early
func (s *Sequence) Cancelled() bool { return s.ctx.Err() != nil && int(s.spoken.Load()) < s.Chunks }

// Spoken is the number of chunks handed to the speaker so far
func (s *Sequence) Spoken() int { return int(s.spoken.Load()) }

// Dispatcher runs at most one sequence at a time
type Dispatcher struct {
	speaker Speaker
	logger  *slog.Logger

	// mu also orders a chunk hand-off against a superseding sequence
	mu      sync.Mutex
	current *Sequence
	wg      sync.WaitGroup
}

// NewDispatcher creates a dispatcher speaking through speaker
func NewDispatcher(speaker Speaker, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		speaker: speaker,
		logger:  logger.With(slog.String("component", "narration")),
	}
}

// Speak hands text to the glasses immediately. It is dropped when the
// glasses are not connected.
func (d *Dispatcher) Speak(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if !d.speaker.IsConnected() {
		d.logger.Debug("narration dropped, glasses not connected")
		return
	}
	d.speaker.Speak(text)
}

// SpeakSequence speaks items in chunks of p.ChunkSize, waiting p.Delay
// between chunks. It supersedes any sequence still running.
func (d *Dispatcher) SpeakSequence(items []string, p Pacing) *Sequence {
	chunks := Chunk(items, p.ChunkSize)

	ctx, cancel := context.WithCancel(context.Background())
	seq := &Sequence{
		ID:     uuid.NewString(),
		Chunks: len(chunks),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	d.mu.Lock()
	if d.current != nil {
		d.current.Cancel()
	}
	d.current = seq
	d.wg.Add(1)
	d.mu.Unlock()

	d.logger.Debug("narration started",
		slog.String("sequence_id", seq.ID),
		slog.Int("chunks", len(chunks)),
		slog.Duration("delay", p.Delay))

	go d.run(seq, chunks, p.Delay)
	return seq
}

func (d *Dispatcher) run(seq *Sequence, chunks []string, delay time.Duration) {
	defer d.wg.Done()
	defer close(seq.done)
	defer d.release(seq)

	for i, chunk := range chunks {
		if i > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-seq.ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}

		d.mu.Lock()
		if seq.ctx.Err() != nil {
			d.mu.Unlock()
			return
		}
		d.Speak(chunk)
		seq.spoken.Add(1)
		d.mu.Unlock()
	}
}

// release clears seq as current and frees its context
func (d *Dispatcher) release(seq *Sequence) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.current == seq {
		d.current = nil
	}
	seq.cancel()
}

// Cancel stops the running sequence, if any
func (d *Dispatcher) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.current == nil {
		return false
	}
	d.current.Cancel()
	d.current = nil
	return true
}

// Close cancels the running sequence and waits for it to stop
func (d *Dispatcher) Close() {
	d.Cancel()
	d.wg.Wait()
}

// Chunk groups consecutive items, at most size per chunk, and joins the
// non-blank items of each group with Separator. Groups with nothing to say
// are left out.
func Chunk(items []string, size int) []string {
	if size < 1 {
		size = 1
	}

	chunks := make([]string, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))

		var parts []string
		for _, item := range items[start:end] {
			if item = strings.TrimSpace(item); item != "" {
				parts = append(parts, item)
			}
		}
		if len(parts) > 0 {
			chunks = append(chunks, strings.Join(parts, Separator))
		}
	}
	return chunks
}
