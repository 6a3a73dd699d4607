// Package trace collects the ordered, leveled narration of a single
// generation run. The recorder is owned by exactly one pipeline run and is
// flattened to text on the generation record at the end, so failures stay
// diagnosable without live debugging access.
package trace

import (
	"fmt"
	"strings"
	"time"
)

type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

const timestampLayout = "2006-01-02 15:04:05.000"

type Entry struct {
	Timestamp time.Time
	Level     Level
	Message   string
	Detail    string
}

func (e Entry) String() string {
	s := fmt.Sprintf("[%s] [%s] %s", e.Timestamp.Format(timestampLayout), e.Level, e.Message)
	if e.Detail != "" {
		s += "\n" + e.Detail
	}
	return s
}

// Recorder is not safe for concurrent use; each run owns its own.
type Recorder struct {
	entries []Entry
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) add(level Level, msg, detail string) {
	r.entries = append(r.entries, Entry{
		Timestamp: time.Now(),
		Level:     level,
		Message:   msg,
		Detail:    detail,
	})
}

func (r *Recorder) Debug(msg string) { r.add(LevelDebug, msg, "") }
func (r *Recorder) Info(msg string)  { r.add(LevelInfo, msg, "") }
func (r *Recorder) Warn(msg string)  { r.add(LevelWarn, msg, "") }
func (r *Recorder) Error(msg string) { r.add(LevelError, msg, "") }

// ErrorWith records an ERROR entry with the error chain as structured detail.
func (r *Recorder) ErrorWith(msg string, err error) {
	detail := ""
	if err != nil {
		detail = fmt.Sprintf("%T: %v", err, err)
	}
	r.add(LevelError, msg, detail)
}

// Merge appends entries recorded elsewhere, preserving their order.
func (r *Recorder) Merge(entries ...Entry) {
	r.entries = append(r.entries, entries...)
}

func (r *Recorder) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

func (r *Recorder) HasErrors() bool {
	for _, e := range r.entries {
		if e.Level == LevelError {
			return true
		}
	}
	return false
}

func (r *Recorder) ErrorCount() int {
	n := 0
	for _, e := range r.entries {
		if e.Level == LevelError {
			n++
		}
	}
	return n
}

// Render flattens the trace to the report text stored on the record.
func (r *Recorder) Render() string {
	var b strings.Builder
	for _, e := range r.entries {
		b.WriteString(e.String())
		b.WriteString("\n")
	}
	return b.String()
}
