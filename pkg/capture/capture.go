// Package capture records speech from an audio device and detects the
// end of spoken input from audio energy levels.
//
// A Recorder drives one capture at a time through three states:
//
//	NotReady → Ready → Recording → Ready → Recording → …
//
// NotReady lasts until the platform permission gate grants capture
// access, which happens asynchronously exactly once. While Recording,
// the recorder meters the incoming PCM every 200 ms; after an initial
// grace period it watches for a run of low-energy readings and stops
// itself when the speaker has gone quiet, or unconditionally after a
// maximum duration. Recordings are written as 8 kHz mono WAV files, the
// format the biometric server expects, resampling from the device's
// native rate as needed.
package capture

import "fmt"

// State is the recorder's capture state.
type State int

const (
	// StateNotReady means capture permission has not been granted yet.
	StateNotReady State = iota
	// StateReady means the recorder can start a capture.
	StateReady
	// StateRecording means a capture is in flight.
	StateRecording
)

func (s State) String() string {
	switch s {
	case StateNotReady:
		return "not-ready"
	case StateReady:
		return "ready"
	case StateRecording:
		return "recording"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Format describes raw little-endian PCM16 audio.
type Format struct {
	SampleRate int
	Channels   int
}

// TargetFormat is the capture output format: 8 kHz mono, as specified
// by the biometric vendor.
var TargetFormat = Format{SampleRate: 8000, Channels: 1}

// PermissionGate asks the platform for audio-capture permission.
// The callback is invoked exactly once, possibly asynchronously.
type PermissionGate interface {
	RequestPermission(cb func(granted bool))
}

// GrantAll is a PermissionGate that always grants immediately. It is
// the gate for environments with no permission model (servers, tests,
// file replay).
type GrantAll struct{}

func (GrantAll) RequestPermission(cb func(granted bool)) { cb(true) }
