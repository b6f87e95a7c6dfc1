package reconciler

import (
	"github.com/rs/zerolog"

	"github.com/pluginsync/pluginsync/pkg/differ"
)

// Reporter receives every event before the engine applies it.
type Reporter interface {
	Report(differ.Event)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(differ.Event)

// Report calls f.
func (f ReporterFunc) Report(e differ.Event) {
	f(e)
}

// LogReporter writes events as structured log lines.
type LogReporter struct {
	logger *zerolog.Logger
}

// NewLogReporter creates a reporter that logs to logger.
func NewLogReporter(logger *zerolog.Logger) *LogReporter {
	return &LogReporter{logger: logger}
}

// Report logs the event. Errors are logged at warn level, everything else at info.
func (r *LogReporter) Report(e differ.Event) {
	var ev *zerolog.Event
	if e.Kind == differ.EventError {
		ev = r.logger.Warn()
	} else {
		ev = r.logger.Info()
	}
	ev = ev.Str("event", string(e.Kind)).Str("plugin_id", e.PluginID)
	if e.RowID != "" {
		ev = ev.Str("row_id", e.RowID)
	}
	if e.Field != "" {
		ev = ev.Str("field", e.Field)
	}
	if e.OldValue != nil || e.NewValue != nil {
		ev = ev.Str("old", differ.FormatValue(e.OldValue)).Str("new", differ.FormatValue(e.NewValue))
	}
	if e.Message != "" {
		ev = ev.Str("detail", e.Message)
	}
	ev.Msg(e.String())
}

type nopReporter struct{}

func (nopReporter) Report(differ.Event) {}
