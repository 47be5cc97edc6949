package enrol

import (
	"errors"
	"testing"

	"github.com/auraya/voicebank/pkg/armorvox"
)

func TestSessionCursorsAndOverrun(t *testing.T) {
	s := NewSession("my voice is my password")

	if got := s.Total(StagePhrase); got != 3 {
		t.Fatalf("phrase total = %d, want 3", got)
	}
	if got := s.Total(StageNumbers); got != 5 {
		t.Fatalf("numbers total = %d, want 5", got)
	}

	for i := range 3 {
		item, index, ok := s.Current(StagePhrase)
		if !ok || index != i {
			t.Fatalf("Current(phrase) = (%v, %d, %v), want index %d", item, index, ok, i)
		}
		if item.Text != "my voice is my password" {
			t.Fatalf("phrase item %d text = %q", i, item.Text)
		}
		if err := s.Done(StagePhrase, armorvox.Utterance("p.wav")); err != nil {
			t.Fatalf("Done: %v", err)
		}
	}
	if _, _, ok := s.Current(StagePhrase); ok {
		t.Error("Current must report done after the last item")
	}
	if err := s.Done(StagePhrase, "extra.wav"); !errors.Is(err, ErrNoCurrentItem) {
		t.Errorf("overrun Done err = %v, want ErrNoCurrentItem", err)
	}
	if got := len(s.Utterances(StagePhrase)); got != 3 {
		t.Errorf("overrun must not extend the log: %d utterances", got)
	}
}

func TestSessionRestartStartsFreshAttempt(t *testing.T) {
	s := NewSession("phrase")
	for _, u := range []armorvox.Utterance{"a.wav", "b.wav", "c.wav"} {
		s.Done(StagePhrase, u)
	}
	if !s.Recorded(StagePhrase) {
		t.Fatal("phrase stage should be recorded")
	}

	s.Restart(StagePhrase)
	if s.Recorded(StagePhrase) {
		t.Fatal("restart must rewind the stage")
	}
	if got := len(s.Utterances(StagePhrase)); got != 0 {
		t.Fatalf("fresh attempt has %d utterances, want 0", got)
	}

	for _, u := range []armorvox.Utterance{"x.wav", "y.wav", "z.wav"} {
		s.Done(StagePhrase, u)
	}
	utts := s.Utterances(StagePhrase)
	if len(utts) != 3 || utts[0] != "x.wav" || utts[2] != "z.wav" {
		t.Errorf("current attempt utterances = %v", utts)
	}
	// The log keeps the abandoned attempt too.
	if got := len(s.Steps()); got != 6 {
		t.Errorf("step log has %d records, want 6", got)
	}
}

func TestSessionFullyRecorded(t *testing.T) {
	s := NewSession("phrase")
	if s.FullyRecorded() {
		t.Fatal("fresh session reports fully recorded")
	}
	for range 3 {
		s.Done(StagePhrase, "p.wav")
	}
	if s.FullyRecorded() {
		t.Fatal("phrase-only session reports fully recorded")
	}
	for range 5 {
		s.Done(StageNumbers, "n.wav")
	}
	if !s.FullyRecorded() {
		t.Error("complete session does not report fully recorded")
	}
}

func TestSessionSpellings(t *testing.T) {
	s := NewSession("phrase")
	spellings := s.Spellings(StageNumbers)
	if len(spellings) != 5 {
		t.Fatalf("len = %d, want 5", len(spellings))
	}
	if spellings[0] != "four two eight one four two eight one " {
		t.Errorf("spellings[0] = %q", spellings[0])
	}
	for i, sp := range s.Spellings(StagePhrase) {
		if sp != "" {
			t.Errorf("phrase spelling %d = %q, want empty", i, sp)
		}
	}
}
