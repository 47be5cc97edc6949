package userstore

import (
	"context"
	"errors"
	"testing"

	"github.com/auraya/voicebank/pkg/armorvox"
	"github.com/auraya/voicebank/pkg/kv"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(kv.NewMemory())
}

func TestDefaults(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if got, _ := s.Method(ctx); got != MethodPhrase {
		t.Errorf("default method = %v, want phrase", got)
	}
	if got, _ := s.PhraseVariation(ctx); got != EmailAddress {
		t.Errorf("default variation = %v, want email address", got)
	}
	if got, _ := s.OverallStatus(ctx); got != NotReadyToEnrol {
		t.Errorf("default overall status = %v, want not ready", got)
	}
	if _, err := s.UserID(ctx); !errors.Is(err, ErrNoUserID) {
		t.Errorf("UserID err = %v, want ErrNoUserID", err)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.SetName(ctx, "Alex"); err != nil {
		t.Fatalf("SetName: %v", err)
	}
	if err := s.SetPhoneNumber(ctx, "0455 512 345"); err != nil {
		t.Fatalf("SetPhoneNumber: %v", err)
	}
	if err := s.SetMethod(ctx, MethodNumbers); err != nil {
		t.Fatalf("SetMethod: %v", err)
	}
	if err := s.SetPhraseVariation(ctx, SecretPhrase); err != nil {
		t.Fatalf("SetPhraseVariation: %v", err)
	}

	if got, _ := s.Name(ctx); got != "Alex" {
		t.Errorf("name = %q", got)
	}
	if got, _ := s.PhoneNumber(ctx); got != "0455 512 345" {
		t.Errorf("phone = %q", got)
	}
	if got, _ := s.Method(ctx); got != MethodNumbers {
		t.Errorf("method = %v", got)
	}
	if got, _ := s.PhraseVariation(ctx); got != SecretPhrase {
		t.Errorf("variation = %v", got)
	}
}

func TestSetPhoneNumberRecomputesStatuses(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.SetPhoneNumber(ctx, "5551234"); err != nil {
		t.Fatal(err)
	}
	for _, m := range []Method{MethodPhrase, MethodNumbers} {
		if got, _ := s.StatusFor(ctx, m); got != ReadyToEnrol {
			t.Errorf("%v status = %v, want ready", m, got)
		}
	}

	// An enrolled method survives a phone number change; the other is
	// knocked back to not-ready when the number is cleared.
	s.SetStatusFor(ctx, MethodPhrase, Enrolled)
	if err := s.SetPhoneNumber(ctx, ""); err != nil {
		t.Fatal(err)
	}
	if got, _ := s.StatusFor(ctx, MethodPhrase); got != Enrolled {
		t.Errorf("phrase status = %v, want enrolled preserved", got)
	}
	if got, _ := s.StatusFor(ctx, MethodNumbers); got != NotReadyToEnrol {
		t.Errorf("numbers status = %v, want not ready", got)
	}
}

func TestOverallAndAnyStatus(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		phrase, numbers Status
		overall, any    Status
	}{
		{NotReadyToEnrol, NotReadyToEnrol, NotReadyToEnrol, NotReadyToEnrol},
		{ReadyToEnrol, ReadyToEnrol, ReadyToEnrol, ReadyToEnrol},
		{Enrolled, Enrolled, Enrolled, Enrolled},
		{Enrolled, ReadyToEnrol, ReadyToEnrol, Enrolled},
		// Not-ready wins over an enrolled partner.
		{Enrolled, NotReadyToEnrol, NotReadyToEnrol, Enrolled},
		{ReadyToEnrol, NotReadyToEnrol, NotReadyToEnrol, ReadyToEnrol},
	}
	for _, tc := range cases {
		s := newTestStore(t)
		s.SetStatusFor(ctx, MethodPhrase, tc.phrase)
		s.SetStatusFor(ctx, MethodNumbers, tc.numbers)
		if got, _ := s.OverallStatus(ctx); got != tc.overall {
			t.Errorf("overall(%v, %v) = %v, want %v", tc.phrase, tc.numbers, got, tc.overall)
		}
		if got, _ := s.AnyStatus(ctx); got != tc.any {
			t.Errorf("any(%v, %v) = %v, want %v", tc.phrase, tc.numbers, got, tc.any)
		}
	}
}

func TestSetAllStatuses(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	if err := s.SetAllStatuses(ctx, Enrolled); err != nil {
		t.Fatal(err)
	}
	if got, _ := s.OverallStatus(ctx); got != Enrolled {
		t.Errorf("overall = %v, want enrolled", got)
	}
}

func TestDeriveUserID(t *testing.T) {
	cases := []struct {
		phone   string
		want    armorvox.UserID
		wantErr bool
	}{
		{"5551234", 5551234, false},
		{"0455 512 345", 5512345, false},         // separators stripped, last 7 digits
		{"+61 455-512-345", 0, true},             // "-" is not a separator
		{"+61 455 512 345", 5512345, false},      // "+" stripped
		{"#04,5;5*512 345", 5512345, false},      // all separators stripped
		{"1300BANK", 0, true},                    // letters
		{"", 0, true},                            // unset
		{"0000000", 0, true},                     // derives to zero
		{"12345", 12345, false},                  // shorter than 7 kept as-is
	}
	for _, tc := range cases {
		got, err := DeriveUserID(tc.phone)
		if tc.wantErr {
			if !errors.Is(err, ErrNoUserID) {
				t.Errorf("DeriveUserID(%q) err = %v, want ErrNoUserID", tc.phone, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("DeriveUserID(%q): %v", tc.phone, err)
			continue
		}
		if got != tc.want {
			t.Errorf("DeriveUserID(%q) = %d, want %d", tc.phone, got, tc.want)
		}
	}
}

func TestMethodSpeechItemType(t *testing.T) {
	if got := MethodPhrase.SpeechItemType(); got != armorvox.TypePhrase {
		t.Errorf("phrase method type = %v, want phrase", got)
	}
	if got := MethodNumbers.SpeechItemType(); got != armorvox.TypeID {
		t.Errorf("numbers method type = %v, want ID", got)
	}
}
