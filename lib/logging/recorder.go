package logging

import (
	"fmt"
	"strings"
	"sync"

	"github.com/lni/dragonboat/v4/logger"
)

// Recorder is a logger.ILogger keeping every message in memory.
// Tests use it to assert what a component logged.
type Recorder struct {
	mu    sync.Mutex
	lines []string
}

var _ logger.ILogger = (*Recorder)(nil)

func (r *Recorder) SetLevel(logger.LogLevel) {}

func (r *Recorder) Debugf(format string, args ...interface{})   { r.add("DEBUG", format, args...) }
func (r *Recorder) Infof(format string, args ...interface{})    { r.add("INFO", format, args...) }
func (r *Recorder) Warningf(format string, args ...interface{}) { r.add("WARN", format, args...) }
func (r *Recorder) Errorf(format string, args ...interface{})   { r.add("ERROR", format, args...) }
func (r *Recorder) Panicf(format string, args ...interface{}) {
	r.add("PANIC", format, args...)
	panic(fmt.Sprintf(format, args...))
}

func (r *Recorder) add(level, format string, args ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, level+" "+fmt.Sprintf(format, args...))
}

// Lines returns all recorded lines as "LEVEL message".
func (r *Recorder) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...)
}

// Count returns how many lines were recorded at level.
func (r *Recorder) Count(level string) int {
	n := 0
	for _, line := range r.Lines() {
		if strings.HasPrefix(line, level+" ") {
			n++
		}
	}
	return n
}
