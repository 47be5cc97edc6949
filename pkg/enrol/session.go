package enrol

import (
	"errors"
	"fmt"
	"time"

	"github.com/auraya/voicebank/pkg/armorvox"
)

// ErrNoCurrentItem means a recording was reported for a stage whose
// items have all been captured already.
var ErrNoCurrentItem = errors.New("enrol: no current item")

// Stage identifies one half of an enrolment session.
type Stage int

const (
	// StagePhrase is the three-repetitions-of-one-phrase stage.
	StagePhrase Stage = iota
	// StageNumbers is the five-prompted-numbers stage.
	StageNumbers
)

func (s Stage) String() string {
	switch s {
	case StagePhrase:
		return "phrase"
	case StageNumbers:
		return "numbers"
	default:
		return fmt.Sprintf("Stage(%d)", int(s))
	}
}

// StepRecord is one completed capture. Records are append-only: a
// stage restart starts a new attempt rather than rewriting history.
type StepRecord struct {
	Stage     Stage
	Index     int
	Attempt   int
	Item      SpeakItem
	Utterance armorvox.Utterance
	At        time.Time
}

// Session tracks the items of one enrolment pass and the utterances
// captured for them. Each stage has a cursor that advances as items
// are recorded and never passes the end; restarting a stage rewinds
// the cursor and bumps the stage's attempt counter, leaving earlier
// step records intact.
//
// Session is not safe for concurrent use; the sequencer owns it.
type Session struct {
	items    map[Stage][]SpeakItem
	cursors  map[Stage]int
	attempts map[Stage]int
	steps    []StepRecord
}

// NewSession builds a session that enrols the given phrase three times
// and the fixed number prompts once each.
func NewSession(phrase string) *Session {
	p := NewPhraseItem(phrase)
	return &Session{
		items: map[Stage][]SpeakItem{
			StagePhrase:  {p, p, p},
			StageNumbers: Numbers(),
		},
		cursors:  map[Stage]int{},
		attempts: map[Stage]int{},
	}
}

// Total returns how many items the stage has.
func (s *Session) Total(stage Stage) int { return len(s.items[stage]) }

// Current returns the next item to capture for the stage and its
// zero-based index. ok is false when every item has been recorded.
func (s *Session) Current(stage Stage) (item SpeakItem, index int, ok bool) {
	i := s.cursors[stage]
	if i >= len(s.items[stage]) {
		return SpeakItem{}, 0, false
	}
	return s.items[stage][i], i, true
}

// Done records a successful capture of the stage's current item and
// advances the cursor. Returns ErrNoCurrentItem, leaving the session
// unchanged, when the stage is already fully recorded.
func (s *Session) Done(stage Stage, utterance armorvox.Utterance) error {
	item, i, ok := s.Current(stage)
	if !ok {
		return fmt.Errorf("%w: %s stage is fully recorded", ErrNoCurrentItem, stage)
	}
	s.steps = append(s.steps, StepRecord{
		Stage:     stage,
		Index:     i,
		Attempt:   s.attempts[stage],
		Item:      item,
		Utterance: utterance,
		At:        time.Now(),
	})
	s.cursors[stage] = i + 1
	return nil
}

// Restart rewinds the stage for a fresh capture pass. Used when the
// server answers repeatall.
func (s *Session) Restart(stage Stage) {
	s.cursors[stage] = 0
	s.attempts[stage]++
}

// Recorded reports whether every item of the stage has been captured
// in the current attempt.
func (s *Session) Recorded(stage Stage) bool {
	return s.cursors[stage] >= len(s.items[stage])
}

// FullyRecorded reports whether both stages are fully captured,
// derived by scanning the step log for the current attempts.
func (s *Session) FullyRecorded() bool {
	for _, stage := range []Stage{StagePhrase, StageNumbers} {
		if len(s.Utterances(stage)) != len(s.items[stage]) {
			return false
		}
	}
	return true
}

// Utterances returns the current attempt's captured utterances for the
// stage, in item order.
func (s *Session) Utterances(stage Stage) []armorvox.Utterance {
	out := make([]armorvox.Utterance, 0, len(s.items[stage]))
	for _, step := range s.steps {
		if step.Stage == stage && step.Attempt == s.attempts[stage] {
			out = append(out, step.Utterance)
		}
	}
	return out
}

// Spellings returns the spellings of the stage's items, in order.
func (s *Session) Spellings(stage Stage) []string {
	out := make([]string, len(s.items[stage]))
	for i, item := range s.items[stage] {
		out[i] = item.Spelling
	}
	return out
}

// Steps returns a copy of the full step log, restarts included.
func (s *Session) Steps() []StepRecord {
	out := make([]StepRecord, len(s.steps))
	copy(out, s.steps)
	return out
}
