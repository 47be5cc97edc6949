package enrol

import (
	"context"
	"fmt"

	"github.com/auraya/voicebank/pkg/armorvox"
	"github.com/auraya/voicebank/pkg/userstore"
)

// Outcome is a verification result. Rejection is an outcome, not an
// error: errors are reserved for transport, capture and configuration
// failures.
type Outcome struct {
	Accepted  bool
	Condition armorvox.Condition
	Detail    string
}

// Reason describes why a rejected outcome was rejected.
func (o *Outcome) Reason() string {
	if o.Accepted {
		return ""
	}
	switch o.Condition {
	case armorvox.ConditionUnsure:
		return "the voice sample was not a confident match"
	case armorvox.ConditionNotEnrolled:
		return "no voiceprint is enrolled for this user"
	case armorvox.ConditionQAFailed:
		return "there was a problem with the voice sample"
	case "":
		return "the server returned no recognizable outcome"
	default:
		if o.Detail != "" {
			return fmt.Sprintf("%s: %s", o.Condition, o.Detail)
		}
		return string(o.Condition)
	}
}

// Verifier runs a single-utterance verification session.
type Verifier struct {
	config Config
}

// NewVerifier creates a Verifier from cfg.
func NewVerifier(cfg Config) *Verifier {
	cfg.normalize()
	return &Verifier{config: cfg}
}

func (v *Verifier) emit(ev Event) {
	if v.config.Notify != nil {
		v.config.Notify(ev)
	}
}

// Run verifies the user with the given method: one prompt, one capture,
// one API call. For the numbers method the prompt is a fresh random
// challenge; for the phrase method the user repeats their enrolled
// phrase, displayed by its variation. Returns ErrNotEnrolled when the
// method has no voiceprint to verify against.
func (v *Verifier) Run(ctx context.Context, method userstore.Method) (*Outcome, error) {
	userID, err := v.config.Users.UserID(ctx)
	if err != nil {
		return nil, err
	}
	status, err := v.config.Users.StatusFor(ctx, method)
	if err != nil {
		return nil, err
	}
	if status != userstore.Enrolled {
		return nil, fmt.Errorf("%w: %s method is %s", ErrNotEnrolled, method, status)
	}

	var item SpeakItem
	switch method {
	case userstore.MethodNumbers:
		item = NewNumberItem(RandomNumberString())
	default:
		variation, err := v.config.Users.PhraseVariation(ctx)
		if err != nil {
			return nil, err
		}
		item = NewPhraseItem(variation.String())
	}
	v.emit(Event{Kind: EventPrompt, Item: item, Index: 0, Total: 1})

	path, err := record(ctx, v.config.Recorder, "verify")
	if err != nil {
		return nil, err
	}
	utterance := armorvox.Utterance(path)

	var resp *armorvox.Response
	switch method {
	case userstore.MethodNumbers:
		resp, err = v.config.API.VerifyByNumbers(ctx, v.config.SessionID, userID, utterance, item.Spelling)
	default:
		resp, err = v.config.API.VerifyByPhrase(ctx, v.config.SessionID, userID, armorvox.TypePhrase, utterance)
	}
	if err != nil {
		return nil, err
	}

	return &Outcome{
		Accepted:  resp.Condition == armorvox.ConditionGood,
		Condition: resp.Condition,
		Detail:    resp.Extra,
	}, nil
}
