package enrol

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/auraya/voicebank/pkg/armorvox"
	"github.com/auraya/voicebank/pkg/capture"
	"github.com/auraya/voicebank/pkg/userstore"
)

var (
	// ErrNotReady means enrolment was started before the user's profile
	// had a phone number to derive a user ID from.
	ErrNotReady = errors.New("enrol: user is not ready to enrol")
	// ErrNotEnrolled means verification was started for a method the
	// user has not enrolled.
	ErrNotEnrolled = errors.New("enrol: user is not enrolled")
	// ErrCapture means a capture finished without producing audio.
	ErrCapture = errors.New("enrol: capture produced no audio")
	// ErrRecorderBusy means the recorder refused to start a capture.
	ErrRecorderBusy = errors.New("enrol: recorder is not ready")
)

// StageError reports a server condition that halts the session.
type StageError struct {
	Stage     Stage
	Condition armorvox.Condition
	Raw       string
	Detail    string
}

func (e *StageError) Error() string {
	cond := string(e.Condition)
	if cond == "" {
		cond = fmt.Sprintf("unrecognized condition %q", e.Raw)
	}
	if e.Detail != "" {
		return fmt.Sprintf("enrol: %s stage: %s: %s", e.Stage, cond, e.Detail)
	}
	return fmt.Sprintf("enrol: %s stage: %s", e.Stage, cond)
}

// API is the slice of the ArmorVox client the sequencers use.
type API interface {
	CheckEnrolled(ctx context.Context, sessionID string, userID armorvox.UserID, typ armorvox.SpeechItemType) (*armorvox.Response, error)
	DeleteUser(ctx context.Context, sessionID string, userID armorvox.UserID, typ armorvox.SpeechItemType) (*armorvox.Response, error)
	EnrolByPhrase(ctx context.Context, sessionID string, userID armorvox.UserID, typ armorvox.SpeechItemType, utterances []armorvox.Utterance) (*armorvox.Response, error)
	EnrolByNumbers(ctx context.Context, sessionID string, userID armorvox.UserID, utterances []armorvox.Utterance, phrases []string) (*armorvox.Response, error)
	VerifyByPhrase(ctx context.Context, sessionID string, userID armorvox.UserID, typ armorvox.SpeechItemType, utterance armorvox.Utterance) (*armorvox.Response, error)
	VerifyByNumbers(ctx context.Context, sessionID string, userID armorvox.UserID, utterance armorvox.Utterance, phrase string) (*armorvox.Response, error)
}

var _ API = (*armorvox.Client)(nil)

// Recorder is the slice of the capture recorder the sequencers use.
type Recorder interface {
	Record(name string, completion capture.Completion) bool
	Stop()
}

var _ Recorder = (*capture.Recorder)(nil)

// Config assembles a sequencer's collaborators.
type Config struct {
	API      API
	Recorder Recorder
	Users    *userstore.Store

	// SessionID correlates the run's requests on the server. A fresh
	// UUID is generated when empty.
	SessionID string

	// Notify receives progress events; nil disables them.
	Notify func(Event)
}

func (c *Config) normalize() {
	if c.SessionID == "" {
		c.SessionID = uuid.NewString()
	}
}

// Enroller runs a full enrolment session: capture and submit the
// phrase stage, then the numbers stage, then mark the user enrolled.
type Enroller struct {
	config Config
}

// NewEnroller creates an Enroller from cfg.
func NewEnroller(cfg Config) *Enroller {
	cfg.normalize()
	return &Enroller{config: cfg}
}

func (e *Enroller) emit(ev Event) {
	if e.config.Notify != nil {
		e.config.Notify(ev)
	}
}

// Run enrols the user with the given phrase. It returns nil once the
// server has accepted both stages and the user's statuses are marked
// enrolled. A server condition other than good, enrolled or repeatall
// surfaces as a *StageError.
func (e *Enroller) Run(ctx context.Context, phrase string) error {
	userID, err := e.config.Users.UserID(ctx)
	if err != nil {
		return err
	}
	status, err := e.config.Users.OverallStatus(ctx)
	if err != nil {
		return err
	}
	if status == userstore.NotReadyToEnrol {
		return ErrNotReady
	}

	session := NewSession(phrase)
	for _, stage := range []Stage{StagePhrase, StageNumbers} {
		if err := e.runStage(ctx, session, stage, userID); err != nil {
			return err
		}
	}
	if err := e.config.Users.SetAllStatuses(ctx, userstore.Enrolled); err != nil {
		return err
	}
	e.emit(Event{Kind: EventEnrolled})
	return nil
}

// runStage captures every item of the stage and submits it, repeating
// the whole stage for as long as the server answers repeatall.
func (e *Enroller) runStage(ctx context.Context, session *Session, stage Stage, userID armorvox.UserID) error {
	for {
		for {
			item, index, ok := session.Current(stage)
			if !ok {
				break
			}
			e.emit(Event{
				Kind:  EventPrompt,
				Stage: stage,
				Item:  item,
				Index: index,
				Total: session.Total(stage),
			})
			path, err := record(ctx, e.config.Recorder, fmt.Sprintf("%s-%d", stage, index+1))
			if err != nil {
				return err
			}
			if err := session.Done(stage, armorvox.Utterance(path)); err != nil {
				return err
			}
		}

		e.emit(Event{Kind: EventSubmitting, Stage: stage})
		resp, err := e.submit(ctx, session, stage, userID)
		if err != nil {
			return err
		}
		switch resp.Condition {
		case armorvox.ConditionGood, armorvox.ConditionEnrolled:
			e.emit(Event{Kind: EventStageDone, Stage: stage, Condition: resp.Condition})
			return nil
		case armorvox.ConditionRepeatAll:
			session.Restart(stage)
			e.emit(Event{
				Kind:      EventStageRestart,
				Stage:     stage,
				Condition: resp.Condition,
				Detail:    resp.Extra,
			})
		default:
			return &StageError{
				Stage:     stage,
				Condition: resp.Condition,
				Raw:       resp.RawCondition,
				Detail:    resp.Extra,
			}
		}
	}
}

func (e *Enroller) submit(ctx context.Context, session *Session, stage Stage, userID armorvox.UserID) (*armorvox.Response, error) {
	switch stage {
	case StageNumbers:
		return e.config.API.EnrolByNumbers(ctx, e.config.SessionID, userID,
			session.Utterances(stage), session.Spellings(stage))
	default:
		return e.config.API.EnrolByPhrase(ctx, e.config.SessionID, userID,
			armorvox.TypePhrase, session.Utterances(stage))
	}
}

// Delete removes the user's voiceprints for both verification methods
// and resets their statuses to ready-to-enrol. A not_enrolled answer
// counts as success; anything but good or not_enrolled surfaces as a
// *StageError for the stage the method belongs to.
func (e *Enroller) Delete(ctx context.Context) error {
	userID, err := e.config.Users.UserID(ctx)
	if err != nil {
		return err
	}
	for _, m := range []userstore.Method{userstore.MethodPhrase, userstore.MethodNumbers} {
		resp, err := e.config.API.DeleteUser(ctx, e.config.SessionID, userID, m.SpeechItemType())
		if err != nil {
			return err
		}
		switch resp.Condition {
		case armorvox.ConditionGood, armorvox.ConditionNotEnrolled:
		default:
			stage := StagePhrase
			if m == userstore.MethodNumbers {
				stage = StageNumbers
			}
			return &StageError{
				Stage:     stage,
				Condition: resp.Condition,
				Raw:       resp.RawCondition,
				Detail:    resp.Extra,
			}
		}
		if err := e.config.Users.SetStatusFor(ctx, m, userstore.ReadyToEnrol); err != nil {
			return err
		}
	}
	return nil
}

// record runs one blocking capture. Cancelling ctx stops the recorder
// and waits for its completion before returning.
func record(ctx context.Context, rec Recorder, name string) (string, error) {
	done := make(chan string, 1)
	ok := rec.Record(name, func(path string, _ capture.State) {
		done <- path
	})
	if !ok {
		return "", ErrRecorderBusy
	}
	select {
	case path := <-done:
		if path == "" {
			return "", ErrCapture
		}
		return path, nil
	case <-ctx.Done():
		rec.Stop()
		<-done
		return "", ctx.Err()
	}
}
