// Package armorvox is a client for the ArmorVox v5 voice-biometric API.
//
// The API is a plain HTTP POST interface: each operation is a
// multipart/form-data request against an endpoint under a configured
// base URL, and every response is a small XML document listing
// name/value pairs. The server identifies speakers by a numeric user ID
// and classifies every utterance under a speech item type (what kind of
// thing was spoken: an ID, a phrase, digits, ...).
//
// Six operations are exposed:
//
//   - CheckEnrolled: is this user ID enrolled for an item type?
//   - DeleteUser: remove all voice data for a user ID + item type.
//   - EnrolByPhrase: enrol with three recordings of the same phrase.
//   - EnrolByNumbers: enrol with five recordings of prompted numbers.
//   - VerifyByPhrase: verify a single phrase recording.
//   - VerifyByNumbers: verify a single prompted-number recording.
//
// Every operation resolves to a Response whose Condition tells the
// caller what to do next; transport, configuration and decoding
// problems are reported as errors instead.
package armorvox

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxSessionIDLen is the server-side limit on session identifiers.
const MaxSessionIDLen = 100

// UserID identifies a speaker on the ArmorVox server.
// The server accepts up to 10 decimal digits.
type UserID int

// Utterance is the location of a captured recording (a WAV file path),
// not the raw bytes. The file is read when the request is encoded.
type Utterance string

// SpeechItemType classifies what kind of utterance is being captured.
// The numeric values are fixed by the vendor protocol.
type SpeechItemType int

const (
	TypeID              SpeechItemType = 1
	TypeTelephoneNumber SpeechItemType = 2
	TypeUserName        SpeechItemType = 3
	TypePIN             SpeechItemType = 4
	TypeDate            SpeechItemType = 5
	TypeHint            SpeechItemType = 6
	TypeDigits          SpeechItemType = 7
	TypePhrase          SpeechItemType = 8
	TypeTextIndependent SpeechItemType = 10
	TypeTextPrompted    SpeechItemType = 11
)

// The recommended items based on speech consistency are ID (1) and phrase (8).

func (t SpeechItemType) String() string {
	switch t {
	case TypeID:
		return "ID"
	case TypeTelephoneNumber:
		return "Telephone no"
	case TypeUserName:
		return "Username"
	case TypePIN:
		return "PIN"
	case TypeDate:
		return "Date"
	case TypeHint:
		return "Hint"
	case TypeDigits:
		return "Digits"
	case TypePhrase:
		return "Phrase"
	case TypeTextIndependent:
		return "Text-independent"
	case TypeTextPrompted:
		return "Text-prompted"
	default:
		return fmt.Sprintf("SpeechItemType(%d)", int(t))
	}
}

// Condition is the server's outcome code for an operation.
// The empty string means the response carried no recognizable condition.
type Condition string

const (
	// ConditionEnrolled means the user ID is already enrolled.
	ConditionEnrolled Condition = "enrolled"
	// ConditionNotEnrolled means the user ID is not enrolled.
	ConditionNotEnrolled Condition = "not_enrolled"
	// ConditionGood means the operation succeeded.
	ConditionGood Condition = "good"
	// ConditionRepeatAll means the voiceprint was unusable and every
	// utterance must be captured again.
	ConditionRepeatAll Condition = "repeatall"
	// ConditionUnsure means the verification score fell between the
	// accept and reject thresholds.
	ConditionUnsure Condition = "unsure"
	// ConditionQAFailed means there was a problem with the voice sample.
	ConditionQAFailed Condition = "qafailed"
	// ConditionFail means the operation failed.
	ConditionFail Condition = "fail"
	// ConditionError means the user ID is out of range, the licence is
	// expired, the database failed, or any other server-side error.
	ConditionError Condition = "error"
)

// ParseCondition maps a raw condition string onto a Condition,
// case-insensitively. ok is false for unrecognized strings.
func ParseCondition(s string) (c Condition, ok bool) {
	switch Condition(strings.ToLower(s)) {
	case ConditionEnrolled:
		return ConditionEnrolled, true
	case ConditionNotEnrolled:
		return ConditionNotEnrolled, true
	case ConditionGood:
		return ConditionGood, true
	case ConditionRepeatAll:
		return ConditionRepeatAll, true
	case ConditionUnsure:
		return ConditionUnsure, true
	case ConditionQAFailed:
		return ConditionQAFailed, true
	case ConditionFail:
		return ConditionFail, true
	case ConditionError:
		return ConditionError, true
	}
	return "", false
}

// Response is the decoded result of an API operation. It is immutable
// after construction.
type Response struct {
	// UserID is the user the server acted on, nil when the response
	// carried no parseable UserID var.
	UserID *UserID

	// Condition is the server's outcome code, "" when the response
	// carried no recognizable Condition var. Callers must treat "" as
	// a failed attempt.
	Condition Condition

	// RawCondition is the condition string exactly as received, kept
	// so unrecognized codes remain distinguishable in diagnostics.
	RawCondition string

	// Extra is an optional server message, typically an error detail
	// when Condition is fail or error.
	Extra string
}

func (r *Response) String() string {
	id := "-"
	if r.UserID != nil {
		id = strconv.Itoa(int(*r.UserID))
	}
	return fmt.Sprintf("userID: %s, condition: %s, extra: %s", id, r.RawCondition, r.Extra)
}
