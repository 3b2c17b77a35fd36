package logging

import (
	"fmt"
	"strings"
	"sync"
)

// Level is a log severity. Messages below the effective level are dropped.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
	FATAL
)

// String returns the upper-case level name.
func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case FATAL:
		return "FATAL"
	default:
		return fmt.Sprintf("LEVEL(%d)", int(l))
	}
}

// ParseLevel converts a case-insensitive level name to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return DEBUG, nil
	case "INFO":
		return INFO, nil
	case "WARN":
		return WARN, nil
	case "ERROR":
		return ERROR, nil
	case "FATAL":
		return FATAL, nil
	default:
		return 0, fmt.Errorf("invalid log level %q (must be debug, info, warn, error or fatal)", s)
	}
}

var (
	levelMu       sync.RWMutex
	defaultLevel  = INFO
	packageLevels = map[string]Level{}
)

func setDefaultLevel(l Level) {
	levelMu.Lock()
	defer levelMu.Unlock()
	defaultLevel = l
}

// SetPackageLevels replaces the per-package level overrides. Keys are
// component names as passed to GetLogger, or prefix patterns with a
// trailing ".*" ("analysis.*" matches "analysis.cache").
func SetPackageLevels(levels map[string]string) error {
	parsed := make(map[string]Level, len(levels))
	for pkg, s := range levels {
		l, err := ParseLevel(s)
		if err != nil {
			return fmt.Errorf("package %q: %w", pkg, err)
		}
		parsed[pkg] = l
	}

	levelMu.Lock()
	defer levelMu.Unlock()
	packageLevels = parsed
	return nil
}

// effectiveLevel resolves the level for a component name: exact override
// first, then the longest matching wildcard pattern, then the default.
func effectiveLevel(name string) Level {
	levelMu.RLock()
	defer levelMu.RUnlock()

	if l, ok := packageLevels[name]; ok {
		return l
	}

	bestLen := -1
	best := defaultLevel
	for pattern, l := range packageLevels {
		if !strings.HasSuffix(pattern, ".*") {
			continue
		}
		prefix := strings.TrimSuffix(pattern, ".*")
		if name == prefix || strings.HasPrefix(name, prefix+".") {
			if len(pattern) > bestLen {
				bestLen = len(pattern)
				best = l
			}
		}
	}
	return best
}
