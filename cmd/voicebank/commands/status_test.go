package commands

import (
	"context"
	"testing"

	"github.com/auraya/voicebank/pkg/armorvox"
)

type checkCall struct {
	sessionID string
	typ       armorvox.SpeechItemType
}

type fakeChecker struct {
	calls     []checkCall
	responses []*armorvox.Response
}

func (f *fakeChecker) CheckEnrolled(_ context.Context, sessionID string, _ armorvox.UserID, typ armorvox.SpeechItemType) (*armorvox.Response, error) {
	f.calls = append(f.calls, checkCall{sessionID: sessionID, typ: typ})
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return resp, nil
}

func TestCheckEnrolmentSessionID(t *testing.T) {
	checker := &fakeChecker{responses: []*armorvox.Response{
		{Condition: armorvox.ConditionEnrolled, RawCondition: "enrolled"},
		{Condition: armorvox.ConditionNotEnrolled, RawCondition: "not_enrolled"},
	}}
	result, err := checkEnrolment(context.Background(), checker, 5551234)
	if err != nil {
		t.Fatalf("checkEnrolment: %v", err)
	}
	if len(checker.calls) != 2 {
		t.Fatalf("made %d calls, want 2", len(checker.calls))
	}
	// The server rejects blank session IDs; both queries share one.
	if checker.calls[0].sessionID == "" {
		t.Error("check was made with an empty session ID")
	}
	if checker.calls[0].sessionID != checker.calls[1].sessionID {
		t.Errorf("session IDs differ across methods: %q vs %q",
			checker.calls[0].sessionID, checker.calls[1].sessionID)
	}
	if checker.calls[0].typ != armorvox.TypePhrase || checker.calls[1].typ != armorvox.TypeID {
		t.Errorf("item types = (%v, %v), want (phrase, id)", checker.calls[0].typ, checker.calls[1].typ)
	}
	if result["Phrase"] != "enrolled" || result["Numbers"] != "not_enrolled" {
		t.Errorf("result = %v", result)
	}
}

func TestCheckEnrolmentUnexpectedCondition(t *testing.T) {
	checker := &fakeChecker{responses: []*armorvox.Response{
		{RawCondition: "error", Extra: "licence expired"},
		{Condition: armorvox.ConditionEnrolled, RawCondition: "enrolled"},
	}}
	result, err := checkEnrolment(context.Background(), checker, 5551234)
	if err != nil {
		t.Fatalf("checkEnrolment: %v", err)
	}
	if result["Phrase"] != "error (licence expired)" {
		t.Errorf("Phrase = %q, want raw condition with detail", result["Phrase"])
	}
}
