// Package logger builds the leveled logger shared by the server components.
package logger

import (
	"fmt"
	"strings"
	"sync"

	"github.com/astaxie/beego/logs"
)

var levels = map[string]int{
	"debug": logs.LevelDebug,
	"info":  logs.LevelInformational,
	"warn":  logs.LevelWarning,
	"error": logs.LevelError,
}

// ParseLevel maps a level name onto a beego log level
func ParseLevel(name string) (int, error) {
	level, ok := levels[strings.ToLower(name)]
	if !ok {
		return 0, fmt.Errorf("unknown log level %q", name)
	}
	return level, nil
}

// New returns a console logger filtering below level
func New(level string) (*logs.BeeLogger, error) {
	l, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return NewWithAdapter(logs.AdapterConsole, fmt.Sprintf(`{"level":%d}`, l), l)
}

// NewWithAdapter returns a logger writing through a registered adapter
func NewWithAdapter(adapter, config string, level int) (*logs.BeeLogger, error) {
	log := logs.NewLogger()
	if err := log.SetLogger(adapter, config); err != nil {
		return nil, err
	}
	log.SetLevel(level)
	log.EnableFuncCallDepth(false)
	return log, nil
}

var (
	defaultOnce sync.Once
	defaultLog  *logs.BeeLogger
)

// Default is the info level console logger used when callers pass nil
func Default() *logs.BeeLogger {
	defaultOnce.Do(func() {
		log, err := New("info")
		if err != nil {
			log = logs.NewLogger()
		}
		defaultLog = log
	})
	return defaultLog
}

// OrDefault returns log, or Default when log is nil
func OrDefault(log *logs.BeeLogger) *logs.BeeLogger {
	if log == nil {
		return Default()
	}
	return log
}
