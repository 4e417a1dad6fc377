package driver

import "time"

// Stage describes what a multi-file run is doing to a file.
type Stage string

const (
	StageLint  Stage = "lint"
	StageFix   Stage = "fix"
	StageWrite Stage = "write"
)

// Status captures progress state within a stage.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusWorking Status = "working"
	StatusDone    Status = "done"
	// StatusError means the file has error diagnostics or failed to load.
	StatusError Status = "error"
)

// Event reports progress for one file. File is the path as passed to
// LintPaths or FixPaths.
type Event struct {
	File    string
	Stage   Stage
	Status  Status
	Elapsed time.Duration
}

// ProgressSink consumes progress events. It is called from worker
// goroutines.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

func emit(sink ProgressSink, ev Event) {
	if sink != nil {
		sink.OnEvent(ev)
	}
}

func queueAll(sink ProgressSink, stage Stage, files []string) {
	for _, f := range files {
		emit(sink, Event{File: f, Stage: stage, Status: StatusQueued})
	}
}

// finished reports the end of a file's stage.
func finished(sink ProgressSink, file string, stage Stage, failed bool, start time.Time) {
	status := StatusDone
	if failed {
		status = StatusError
	}
	emit(sink, Event{File: file, Stage: stage, Status: status, Elapsed: time.Since(start)})
}
