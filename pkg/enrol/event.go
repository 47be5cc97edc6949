package enrol

import "github.com/auraya/voicebank/pkg/armorvox"

// EventKind tags what a sequencer Event reports.
type EventKind int

const (
	// EventPrompt precedes a capture: Item is what the user should say,
	// Index/Total locate it within its stage.
	EventPrompt EventKind = iota
	// EventSubmitting is emitted when a completed stage is uploaded.
	EventSubmitting
	// EventStageRestart means the server asked for the whole stage
	// again (repeatall); capture restarts at the first item.
	EventStageRestart
	// EventStageDone means the server accepted the stage.
	EventStageDone
	// EventEnrolled means the whole enrolment succeeded and the user's
	// status was updated.
	EventEnrolled
)

func (k EventKind) String() string {
	switch k {
	case EventPrompt:
		return "prompt"
	case EventSubmitting:
		return "submitting"
	case EventStageRestart:
		return "stage-restart"
	case EventStageDone:
		return "stage-done"
	case EventEnrolled:
		return "enrolled"
	default:
		return "unknown"
	}
}

// Event is a progress notification from a sequencer. Events are
// delivered synchronously on the sequencer's goroutine; handlers must
// not block.
type Event struct {
	Kind  EventKind
	Stage Stage

	// Item, Index and Total are set for EventPrompt.
	Item  SpeakItem
	Index int
	Total int

	// Condition and Detail carry the server's answer for
	// EventStageRestart and EventStageDone.
	Condition armorvox.Condition
	Detail    string
}
