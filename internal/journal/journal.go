package journal

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/pixil98/go-roombot/internal/transport"
)

const (
	defaultPrefix = "traffic"
	hourLayout    = "2006-01-02-15"
)

// Entry is one journaled transport event.
type Entry struct {
	Time      time.Time           `json:"time"`
	Direction transport.Direction `json:"dir"`
	Event     string              `json:"event"`
	Payload   json.RawMessage     `json:"payload,omitempty"`
}

// Journal appends transport traffic as zstd-compressed JSON lines, one file
// per UTC hour.
type Journal struct {
	dir    string
	prefix string
	now    func() time.Time

	mu      sync.Mutex
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

type JournalOpt func(*Journal)

func WithPrefix(p string) JournalOpt {
	return func(j *Journal) {
		if p != "" {
			j.prefix = p
		}
	}
}

func WithClock(now func() time.Time) JournalOpt {
	return func(j *Journal) {
		j.now = now
	}
}

func NewJournal(dir string, opts ...JournalOpt) *Journal {
	j := &Journal{
		dir:    dir,
		prefix: defaultPrefix,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Tap journals every event crossing the transport. Write failures are
// logged and the event dropped.
func (j *Journal) Tap() transport.Tap {
	return func(dir transport.Direction, event string, payload json.RawMessage) {
		err := j.Write(Entry{
			Time:      j.now().UTC(),
			Direction: dir,
			Event:     event,
			Payload:   payload,
		})
		if err != nil {
			slog.Warn("journaling event", "event", event, "error", err)
		}
	}
}

// Start holds the journal open until ctx is done and then closes the
// current file.
func (j *Journal) Start(ctx context.Context) error {
	<-ctx.Done()
	return j.Close()
}

func (j *Journal) Write(e Entry) error {
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding entry: %w", err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	hour := e.Time.UTC().Format(hourLayout)
	if hour != j.curHour {
		if err := j.rotateLocked(hour); err != nil {
			return err
		}
	}

	if _, err := j.w.Write(b); err != nil {
		return err
	}
	if err := j.w.WriteByte('\n'); err != nil {
		return err
	}
	return j.w.Flush()
}

func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.closeLocked()
}

// PathForHour is the file holding entries for the given hour.
func (j *Journal) PathForHour(t time.Time) string {
	return filepath.Join(j.dir, fmt.Sprintf("%s-%s.jsonl.zst", j.prefix, t.UTC().Format(hourLayout)))
}

func (j *Journal) rotateLocked(hour string) error {
	if err := j.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(j.dir, 0o755); err != nil {
		return fmt.Errorf("creating journal directory: %w", err)
	}

	path := filepath.Join(j.dir, fmt.Sprintf("%s-%s.jsonl.zst", j.prefix, hour))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("creating encoder: %w", err)
	}

	j.f = f
	j.enc = enc
	j.w = bufio.NewWriterSize(enc, 64*1024)
	j.curHour = hour
	return nil
}

func (j *Journal) closeLocked() error {
	var err error
	if j.w != nil {
		_ = j.w.Flush()
	}
	if j.enc != nil {
		err = j.enc.Close()
		j.enc = nil
	}
	if j.f != nil {
		_ = j.f.Close()
		j.f = nil
	}
	j.w = nil
	j.curHour = ""
	return err
}

// ReadFile decodes every entry in a journal file. Files reopened within
// the same hour hold several zstd frames; all are read.
func ReadFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("creating decoder: %w", err)
	}
	defer dec.Close()

	var entries []Entry
	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		var e Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			return nil, fmt.Errorf("decoding entry %d: %w", len(entries)+1, err)
		}
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return entries, nil
}
