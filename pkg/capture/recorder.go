package capture

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// defaultGracePeriod is how long end-of-speech detection is
	// suppressed after capture starts, giving the speaker time to
	// begin talking.
	defaultGracePeriod = 3 * time.Second

	// defaultMaxDuration is the unconditional capture limit.
	defaultMaxDuration = 10 * time.Second

	// defaultMeterInterval is how often levels are sampled while
	// recording.
	defaultMeterInterval = 200 * time.Millisecond

	copyChunkSize = 3200 // 200 ms of 8 kHz mono PCM16
)

// Completion receives the outcome of one capture: the path of the
// renamed recording ("" when no usable recording was produced) and the
// recorder state after stopping. It is invoked exactly once per
// successful Record call.
type Completion func(path string, state State)

// Recorder captures speech from a Device into WAV files, one capture at
// a time, with automatic end-of-speech stop.
type Recorder struct {
	dev Device
	dir string

	gracePeriod   time.Duration
	maxDuration   time.Duration
	meterInterval time.Duration
	meterHook     func(peak, average float64)

	ready     chan struct{}
	readyOnce sync.Once

	mu    sync.Mutex
	state State
	cur   *take
}

// take holds the state of one capture. Keeping it per capture, not on
// the Recorder, means a Stop finalizing one take can never observe the
// counters of a take started after it, and a stale timer or stream
// watcher from an old take cannot tear down the current one.
type take struct {
	completion Completion
	name       string
	tmpPath    string
	copyDone   chan struct{}
	cancel     func()

	// Written by copyLoop under the recorder lock, read by the
	// finalizing Stop after copyDone closes.
	copyErr error
	written int
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithGracePeriod overrides the 3 s end-of-speech suppression window.
func WithGracePeriod(d time.Duration) RecorderOption {
	return func(r *Recorder) { r.gracePeriod = d }
}

// WithMaxDuration overrides the 10 s capture limit.
func WithMaxDuration(d time.Duration) RecorderOption {
	return func(r *Recorder) { r.maxDuration = d }
}

// WithMeterInterval overrides the 200 ms metering interval.
func WithMeterInterval(d time.Duration) RecorderOption {
	return func(r *Recorder) { r.meterInterval = d }
}

// WithMeterHook installs a callback invoked on every metering tick with
// the instantaneous peak and average power. Intended for level UIs and
// tests.
func WithMeterHook(hook func(peak, average float64)) RecorderOption {
	return func(r *Recorder) { r.meterHook = hook }
}

// NewRecorder creates a recorder writing into dir. It starts in
// StateNotReady and asks gate for capture permission; when granted the
// recorder becomes Ready exactly once and the Ready channel is closed
// so observers can refresh.
func NewRecorder(dev Device, gate PermissionGate, dir string, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		dev:           dev,
		dir:           dir,
		gracePeriod:   defaultGracePeriod,
		maxDuration:   defaultMaxDuration,
		meterInterval: defaultMeterInterval,
		ready:         make(chan struct{}),
		state:         StateNotReady,
	}
	for _, opt := range opts {
		opt(r)
	}
	gate.RequestPermission(func(granted bool) {
		if !granted {
			return // stays NotReady; nothing can be captured
		}
		r.readyOnce.Do(func() {
			r.mu.Lock()
			r.state = StateReady
			r.mu.Unlock()
			close(r.ready)
		})
	})
	return r
}

// Ready returns a channel closed once capture permission is granted.
func (r *Recorder) Ready() <-chan struct{} { return r.ready }

// State returns the current recorder state.
func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Recording reports whether a capture is in flight.
func (r *Recorder) Recording() bool { return r.State() == StateRecording }

// Record starts capturing under the given recording name. It reports
// false, with no state change, when the recorder is not Ready or the
// device fails to start. On success the recorder transitions to
// Recording; it stops on detected end of speech, at the maximum
// duration, when the device's stream ends, or on an explicit Stop. The
// completion fires exactly once with the finished recording's path, or
// "" when no usable recording was produced.
func (r *Recorder) Record(name string, completion Completion) bool {
	r.mu.Lock()
	if r.state != StateReady {
		r.mu.Unlock()
		return false
	}

	src, err := r.dev.Start()
	if err != nil {
		r.mu.Unlock()
		return false
	}
	tmpPath := filepath.Join(r.dir, "recording-"+uuid.NewString()+".wav")
	w, err := newWAVWriter(tmpPath, TargetFormat)
	if err != nil {
		src.Close()
		r.dev.Stop()
		r.mu.Unlock()
		return false
	}
	rs, err := newResampler(r.dev.Format(), TargetFormat)
	if err != nil {
		w.Close()
		os.Remove(tmpPath)
		src.Close()
		r.dev.Stop()
		r.mu.Unlock()
		return false
	}

	c := &take{
		completion: completion,
		name:       name,
		tmpPath:    tmpPath,
		copyDone:   make(chan struct{}),
	}
	r.state = StateRecording
	r.cur = c

	stopCh := make(chan struct{})
	maxTimer := time.AfterFunc(r.maxDuration, func() { r.stopTake(c) })
	var cancelOnce sync.Once
	c.cancel = func() {
		cancelOnce.Do(func() {
			maxTimer.Stop()
			close(stopCh)
		})
	}

	graceUntil := time.Now().Add(r.gracePeriod)
	meter := NewMeter()
	endpoint := NewEndpointer()
	r.mu.Unlock()

	go r.copyLoop(src, w, rs, meter, c)
	go r.meterLoop(stopCh, meter, endpoint, graceUntil, c)
	go func() {
		// A device whose stream ends on its own (file replay, device
		// teardown) stops the capture without waiting for the timers.
		<-c.copyDone
		r.stopTake(c)
	}()
	return true
}

// copyLoop drains the device into the WAV file, metering as it goes.
func (r *Recorder) copyLoop(src io.ReadCloser, w *wavWriter, rs *resampler, meter *Meter, c *take) {
	var copyErr error
	written := 0
	buf := make([]byte, copyChunkSize)
	for {
		n, err := src.Read(buf)
		if n > 0 {
			meter.Feed(buf[:n])
			out, perr := rs.process(buf[:n])
			if perr != nil {
				copyErr = perr
				break
			}
			wn, werr := w.Write(out)
			written += wn
			if werr != nil {
				copyErr = werr
				break
			}
		}
		if err != nil {
			if err != io.EOF {
				copyErr = err
			}
			break
		}
	}
	src.Close()
	if err := w.Close(); err != nil && copyErr == nil {
		copyErr = err
	}

	r.mu.Lock()
	c.copyErr = copyErr
	c.written = written
	r.mu.Unlock()
	close(c.copyDone)
}

// meterLoop samples levels on a fixed interval and, once the grace
// period has passed, runs end-of-speech detection.
func (r *Recorder) meterLoop(stopCh chan struct{}, meter *Meter, endpoint *Endpointer, graceUntil time.Time, c *take) {
	ticker := time.NewTicker(r.meterInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stopCh:
			return
		case now := <-ticker.C:
			if !meter.Fed() {
				// No audio has arrived yet; the levels still hold
				// their full-scale seeds and would arm the endpointer
				// at a threshold every real signal sits under.
				continue
			}
			peak, average := meter.Levels()
			if r.meterHook != nil {
				r.meterHook(peak, average)
			}
			if now.Before(graceUntil) {
				continue
			}
			if endpoint.Feed(average, meter.MinAverage()) {
				r.stopTake(c)
				return
			}
		}
	}
}

// Stop ends the capture in flight, if any. It is idempotent: timers are
// cancelled unconditionally and the completion fires at most once. The
// completion receives the renamed recording path when a non-empty
// recording exists and the rename succeeded, "" otherwise.
func (r *Recorder) Stop() {
	r.mu.Lock()
	if r.state != StateRecording {
		r.mu.Unlock()
		return
	}
	c := r.cur
	r.state = StateReady // claims the teardown; later Stops return above
	r.cur = nil
	r.mu.Unlock()

	r.finish(c)
}

// stopTake ends one specific capture. A take that is no longer current
// was already stopped, so its leftover timers and stream watchers must
// not touch whatever capture replaced it.
func (r *Recorder) stopTake(c *take) {
	r.mu.Lock()
	if r.state != StateRecording || r.cur != c {
		r.mu.Unlock()
		return
	}
	r.state = StateReady
	r.cur = nil
	r.mu.Unlock()

	r.finish(c)
}

// finish tears down a claimed take: cancel the timers, stop the device,
// wait out the copy loop, then rename or discard the temporary file and
// fire the completion.
func (r *Recorder) finish(c *take) {
	if c.cancel != nil {
		c.cancel()
	}
	r.dev.Stop()
	<-c.copyDone

	r.mu.Lock()
	written := c.written
	copyErr := c.copyErr
	r.mu.Unlock()

	path := ""
	if copyErr == nil && written > 0 {
		if renamed, err := renameRecording(c.tmpPath, c.name); err == nil {
			path = renamed
		}
	}
	if path == "" {
		os.Remove(c.tmpPath)
	}
	if c.completion != nil {
		c.completion(path, StateReady)
	}
}

// renameRecording moves the temporary capture file to <name>.wav in the
// same directory, replacing any existing file with that name.
func renameRecording(tmpPath, name string) (string, error) {
	target := filepath.Join(filepath.Dir(tmpPath), name+".wav")
	if _, err := os.Stat(target); err == nil {
		if err := os.Remove(target); err != nil {
			return "", err
		}
	}
	if err := os.Rename(tmpPath, target); err != nil {
		return "", err
	}
	return target, nil
}

// RemoveAll deletes every WAV recording in the working directory. It
// never fails the caller outright: deletion problems are collected into
// the returned error, which may be ignored.
func (r *Recorder) RemoveAll() error {
	matches, err := filepath.Glob(filepath.Join(r.dir, "*.wav"))
	if err != nil {
		return err
	}
	var errs []error
	for _, m := range matches {
		if err := os.Remove(m); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
