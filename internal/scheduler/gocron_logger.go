package scheduler

import (
	"fmt"
	"log/slog"

	"github.com/go-co-op/gocron/v2"
)

// gocronLogger routes gocron's internal log lines through the scheduler's
// slog logger so cron plumbing shows up alongside task output.
type gocronLogger struct {
	log *slog.Logger
}

var _ gocron.Logger = (*gocronLogger)(nil)

func (l *gocronLogger) Debug(msg string, args ...any) { l.log.Debug(msg, slogArgs(args)...) }

func (l *gocronLogger) Info(msg string, args ...any) { l.log.Info(msg, slogArgs(args)...) }

func (l *gocronLogger) Warn(msg string, args ...any) { l.log.Warn(msg, slogArgs(args)...) }

func (l *gocronLogger) Error(msg string, args ...any) { l.log.Error(msg, slogArgs(args)...) }

// slogArgs coerces gocron's loosely typed key-value pairs into the string
// keys slog expects.
func slogArgs(args []any) []any {
	out := make([]any, 0, len(args))

	for i := 0; i < len(args); i += 2 {
		if i+1 >= len(args) {
			out = append(out, "value", args[i])
			break
		}

		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", args[i])
		}

		out = append(out, key, args[i+1])
	}

	return out
}
