package log

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// LoggerType controls how log statements are output
type LoggerType uint

// Logger types
const (
	QUIET LoggerType = iota
	BASIC
	JSON
)

func LoggerTypeFromString(name string) LoggerType {
	switch strings.ToLower(name) {
	case "quiet":
		return QUIET
	case "json":
		return JSON
	default:
		return BASIC
	}
}

func LoggerTypeToString(t LoggerType) string {
	switch t {
	case QUIET:
		return "quiet"
	case JSON:
		return "json"
	default:
		return "basic"
	}
}

// New builds a logger writing to out with the given output type and level
// name.  An unknown level name is an error.
func New(out io.Writer, t LoggerType, level string) (*logrus.Logger, error) {
	lvl, ok := Levels()[strings.ToLower(level)]
	if !ok {
		return nil, fmt.Errorf("unknown log level: %s", level)
	}

	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetLevel(lvl)

	switch t {
	case QUIET:
		logger.SetOutput(io.Discard)
	case JSON:
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		logger.SetFormatter(&logrus.TextFormatter{
			DisableTimestamp:       true,
			DisableLevelTruncation: true,
		})
	}

	return logger, nil
}
