package logger

import (
	"strings"
	"sync"
	"time"

	"github.com/astaxie/beego/logs"
)

// AdapterRecorder is the adapter name under which Recorder is registered
const AdapterRecorder = "recorder"

// Entry is one message captured by a Recorder
type Entry struct {
	Level   int
	Message string
}

// Recorder is a logs.Logger adapter that keeps messages in memory so the
// events a component reports can be inspected
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

var (
	recorderMu   sync.Mutex
	nextRecorder *Recorder
)

func init() {
	logs.Register(AdapterRecorder, func() logs.Logger {
		recorderMu.Lock()
		defer recorderMu.Unlock()
		r := nextRecorder
		nextRecorder = nil
		if r == nil {
			r = &Recorder{}
		}
		return r
	})
}

// NewRecorder returns a debug level logger and the Recorder behind it
func NewRecorder() (*logs.BeeLogger, *Recorder) {
	r := &Recorder{}

	recorderMu.Lock()
	nextRecorder = r
	recorderMu.Unlock()

	log, err := NewWithAdapter(AdapterRecorder, "", logs.LevelDebug)
	if err != nil {
		panic(err)
	}
	return log, r
}

func (r *Recorder) Init(config string) error { return nil }

func (r *Recorder) WriteMsg(when time.Time, msg string, level int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Level: level, Message: msg})
	return nil
}

func (r *Recorder) Destroy() {}

func (r *Recorder) Flush() {}

// Entries returns a copy of everything recorded so far
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Contains reports whether a message at level contains substr
func (r *Recorder) Contains(level int, substr string) bool {
	for _, e := range r.Entries() {
		if e.Level == level && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}
