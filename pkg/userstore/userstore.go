// Package userstore persists per-user settings and enrolment state in a
// key-value store.
//
// The store tracks, per verification method, whether the user is not
// ready to enrol (no phone number yet), ready to enrol, or enrolled,
// plus the profile fields the enrolment flow needs: display name, phone
// number, chosen verification method and phrase variation. The vendor
// user ID is derived from the phone number, never stored.
//
// A Store is constructed once over a kv.Store and passed by reference
// to its consumers; there is no package-level instance.
package userstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/auraya/voicebank/pkg/armorvox"
	"github.com/auraya/voicebank/pkg/kv"
)

// ErrNoUserID means no vendor user ID can be derived because the phone
// number is missing or has no usable digits.
var ErrNoUserID = errors.New("userstore: no user ID (phone number not set)")

// Status is a per-method enrolment state.
type Status int

const (
	// NotReadyToEnrol means enrolment preconditions are unmet (no
	// phone number, so no user ID).
	NotReadyToEnrol Status = iota
	// ReadyToEnrol means the user can enrol but has not.
	ReadyToEnrol
	// Enrolled means a voiceprint is registered with the server.
	Enrolled
)

func (s Status) String() string {
	switch s {
	case NotReadyToEnrol:
		return "Not ready to enrol"
	case ReadyToEnrol:
		return "Ready to enrol"
	case Enrolled:
		return "Enrolled"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Method is a verification method choice.
type Method int

const (
	// MethodPhrase verifies against the enrolled phrase.
	MethodPhrase Method = iota
	// MethodNumbers verifies against a prompted number challenge.
	MethodNumbers
)

func (m Method) String() string {
	switch m {
	case MethodPhrase:
		return "Phrase"
	case MethodNumbers:
		return "Numbers"
	default:
		return fmt.Sprintf("Method(%d)", int(m))
	}
}

// SpeechItemType returns the vendor item type used for this method.
// The numbers method rides the text-prompted endpoints, which carry no
// type field, so its value is only used for checkEnrolled/deleteUser.
func (m Method) SpeechItemType() armorvox.SpeechItemType {
	switch m {
	case MethodNumbers:
		return armorvox.TypeID
	default:
		return armorvox.TypePhrase
	}
}

// PhraseVariation selects what kind of phrase the user enrols with.
type PhraseVariation int

const (
	EmailAddress PhraseVariation = iota
	HomeAddress
	FullName
	SecretPhrase
)

func (v PhraseVariation) String() string {
	switch v {
	case EmailAddress:
		return "Email Address"
	case HomeAddress:
		return "Home Address"
	case FullName:
		return "Full Name"
	case SecretPhrase:
		return "Secret Phrase"
	default:
		return fmt.Sprintf("PhraseVariation(%d)", int(v))
	}
}

// settingsKey is the kv key holding the single settings record.
const settingsKey = "user-settings"

// record is the persisted settings document.
type record struct {
	Name            string          `msgpack:"name,omitempty"`
	PhoneNumber     string          `msgpack:"phone,omitempty"`
	Method          Method          `msgpack:"method"`
	PhraseVariation PhraseVariation `msgpack:"variation"`
	PhraseStatus    Status          `msgpack:"phrase_status"`
	NumbersStatus   Status          `msgpack:"numbers_status"`
}

// Store reads and writes user settings. Safe for concurrent use.
type Store struct {
	mu sync.Mutex
	kv kv.Store
}

// New creates a Store over the given key-value store.
func New(store kv.Store) *Store {
	return &Store{kv: store}
}

func (s *Store) load(ctx context.Context) (*record, error) {
	raw, err := s.kv.Get(ctx, settingsKey)
	if errors.Is(err, kv.ErrNotFound) {
		return &record{}, nil
	}
	if err != nil {
		return nil, err
	}
	var r record
	if err := msgpack.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("userstore: decode settings: %w", err)
	}
	return &r, nil
}

func (s *Store) save(ctx context.Context, r *record) error {
	raw, err := msgpack.Marshal(r)
	if err != nil {
		return fmt.Errorf("userstore: encode settings: %w", err)
	}
	return s.kv.Set(ctx, settingsKey, raw)
}

// update applies fn to the stored record under the store lock.
func (s *Store) update(ctx context.Context, fn func(*record)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.load(ctx)
	if err != nil {
		return err
	}
	fn(r)
	return s.save(ctx, r)
}

// Name returns the stored display name, "" when unset.
func (s *Store) Name(ctx context.Context) (string, error) {
	r, err := s.load(ctx)
	if err != nil {
		return "", err
	}
	return r.Name, nil
}

// SetName stores the display name.
func (s *Store) SetName(ctx context.Context, name string) error {
	return s.update(ctx, func(r *record) { r.Name = name })
}

// PhoneNumber returns the stored phone number, "" when unset.
func (s *Store) PhoneNumber(ctx context.Context) (string, error) {
	r, err := s.load(ctx)
	if err != nil {
		return "", err
	}
	return r.PhoneNumber, nil
}

// SetPhoneNumber stores the phone number and recomputes the enrolment
// statuses: methods that are not yet enrolled become ReadyToEnrol when
// a number is present and NotReadyToEnrol when it is cleared.
func (s *Store) SetPhoneNumber(ctx context.Context, number string) error {
	return s.update(ctx, func(r *record) {
		r.PhoneNumber = number
		ready := ReadyToEnrol
		if number == "" {
			ready = NotReadyToEnrol
		}
		if r.PhraseStatus != Enrolled {
			r.PhraseStatus = ready
		}
		if r.NumbersStatus != Enrolled {
			r.NumbersStatus = ready
		}
	})
}

// Method returns the chosen verification method.
func (s *Store) Method(ctx context.Context) (Method, error) {
	r, err := s.load(ctx)
	if err != nil {
		return MethodPhrase, err
	}
	return r.Method, nil
}

// SetMethod stores the verification method choice.
func (s *Store) SetMethod(ctx context.Context, m Method) error {
	return s.update(ctx, func(r *record) { r.Method = m })
}

// PhraseVariation returns the chosen phrase variation.
func (s *Store) PhraseVariation(ctx context.Context) (PhraseVariation, error) {
	r, err := s.load(ctx)
	if err != nil {
		return EmailAddress, err
	}
	return r.PhraseVariation, nil
}

// SetPhraseVariation stores the phrase variation choice.
func (s *Store) SetPhraseVariation(ctx context.Context, v PhraseVariation) error {
	return s.update(ctx, func(r *record) { r.PhraseVariation = v })
}

// StatusFor returns the enrolment status for one verification method.
func (s *Store) StatusFor(ctx context.Context, m Method) (Status, error) {
	r, err := s.load(ctx)
	if err != nil {
		return NotReadyToEnrol, err
	}
	return r.status(m), nil
}

// SetStatusFor stores the enrolment status for one verification method.
func (s *Store) SetStatusFor(ctx context.Context, m Method, status Status) error {
	return s.update(ctx, func(r *record) {
		switch m {
		case MethodNumbers:
			r.NumbersStatus = status
		default:
			r.PhraseStatus = status
		}
	})
}

// SetAllStatuses stores the same status for every verification method.
func (s *Store) SetAllStatuses(ctx context.Context, status Status) error {
	return s.update(ctx, func(r *record) {
		r.PhraseStatus = status
		r.NumbersStatus = status
	})
}

func (r *record) status(m Method) Status {
	if m == MethodNumbers {
		return r.NumbersStatus
	}
	return r.PhraseStatus
}

// OverallStatus combines the per-method statuses: Enrolled only when
// both methods are enrolled; NotReadyToEnrol when either method is not
// ready (taking precedence even if the other is enrolled); otherwise
// ReadyToEnrol.
func (s *Store) OverallStatus(ctx context.Context) (Status, error) {
	r, err := s.load(ctx)
	if err != nil {
		return NotReadyToEnrol, err
	}
	switch {
	case r.PhraseStatus == Enrolled && r.NumbersStatus == Enrolled:
		return Enrolled, nil
	case r.PhraseStatus == NotReadyToEnrol || r.NumbersStatus == NotReadyToEnrol:
		return NotReadyToEnrol, nil
	default:
		return ReadyToEnrol, nil
	}
}

// AnyStatus reports the most advanced status either method has reached.
func (s *Store) AnyStatus(ctx context.Context) (Status, error) {
	r, err := s.load(ctx)
	if err != nil {
		return NotReadyToEnrol, err
	}
	switch {
	case r.PhraseStatus == Enrolled || r.NumbersStatus == Enrolled:
		return Enrolled, nil
	case r.PhraseStatus == ReadyToEnrol || r.NumbersStatus == ReadyToEnrol:
		return ReadyToEnrol, nil
	default:
		return NotReadyToEnrol, nil
	}
}

// UserID derives the vendor user ID from the stored phone number:
// separators are stripped, the result must be numeric, and only the
// last seven digits are kept. Returns ErrNoUserID when no usable ID can
// be derived.
func (s *Store) UserID(ctx context.Context) (armorvox.UserID, error) {
	r, err := s.load(ctx)
	if err != nil {
		return 0, err
	}
	return DeriveUserID(r.PhoneNumber)
}

// DeriveUserID computes the vendor user ID for a phone number.
func DeriveUserID(phoneNumber string) (armorvox.UserID, error) {
	if phoneNumber == "" {
		return 0, ErrNoUserID
	}
	cleaned := phoneNumber
	for _, sep := range []string{" ", "*", "#", ",", ";", "+"} {
		cleaned = strings.ReplaceAll(cleaned, sep, "")
	}
	n, err := strconv.Atoi(cleaned)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not numeric", ErrNoUserID, phoneNumber)
	}
	digits := strconv.Itoa(n)
	if len(digits) > 7 {
		digits = digits[len(digits)-7:]
		n, _ = strconv.Atoi(digits) // re-parse drops leading zeros
	}
	if n == 0 {
		return 0, ErrNoUserID
	}
	return armorvox.UserID(n), nil
}
