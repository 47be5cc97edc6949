package capture

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// pipeDevice is a controllable device for tests: the test writes PCM
// into it and decides when the stream ends.
type pipeDevice struct {
	format Format
	pr     *io.PipeReader
	pw     *io.PipeWriter
	once   sync.Once
}

func newPipeDevice(format Format) *pipeDevice {
	pr, pw := io.Pipe()
	return &pipeDevice{format: format, pr: pr, pw: pw}
}

func (d *pipeDevice) Start() (io.ReadCloser, error) { return d.pr, nil }
func (d *pipeDevice) Stop() error {
	d.once.Do(func() { d.pw.Close() })
	return nil
}
func (d *pipeDevice) Format() Format { return d.format }

// holdDevice hands out an independent pipe per Start and never ends a
// stream itself, so a test controls exactly when each capture's audio
// finishes.
type holdDevice struct {
	format  Format
	mu      sync.Mutex
	writers []*io.PipeWriter
}

func (d *holdDevice) Start() (io.ReadCloser, error) {
	pr, pw := io.Pipe()
	d.mu.Lock()
	d.writers = append(d.writers, pw)
	d.mu.Unlock()
	return pr, nil
}

func (d *holdDevice) Stop() error    { return nil }
func (d *holdDevice) Format() Format { return d.format }

func (d *holdDevice) writer(i int) *io.PipeWriter {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writers[i]
}

// deniedGate never grants permission.
type deniedGate struct{}

func (deniedGate) RequestPermission(cb func(bool)) { cb(false) }

func waitReady(t *testing.T, r *Recorder) {
	t.Helper()
	select {
	case <-r.Ready():
	case <-time.After(time.Second):
		t.Fatal("recorder never became ready")
	}
}

func TestRecorderPermissionGate(t *testing.T) {
	dir := t.TempDir()
	denied := NewRecorder(newPipeDevice(TargetFormat), deniedGate{}, dir)
	if denied.State() != StateNotReady {
		t.Errorf("state = %v, want not-ready when permission denied", denied.State())
	}
	if denied.Record("x", nil) {
		t.Error("Record must be refused while not ready")
	}

	granted := NewRecorder(newPipeDevice(TargetFormat), GrantAll{}, dir)
	waitReady(t, granted)
	if granted.State() != StateReady {
		t.Errorf("state = %v, want ready", granted.State())
	}
}

func TestRecorderCaptureFromFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.wav")
	samples := make([]int16, 8000) // one second of low-level noise
	for i := range samples {
		samples[i] = int16(i%200 - 100)
	}
	writeTestWAV(t, src, TargetFormat, samples)

	dev, err := NewFileDevice(src)
	if err != nil {
		t.Fatalf("NewFileDevice: %v", err)
	}
	out := t.TempDir()
	rec := NewRecorder(dev, GrantAll{}, out,
		WithMeterInterval(5*time.Millisecond))
	waitReady(t, rec)

	done := make(chan string, 1)
	ok := rec.Record("sample1", func(path string, state State) {
		if state != StateReady {
			t.Errorf("completion state = %v, want ready", state)
		}
		done <- path
	})
	if !ok {
		t.Fatal("Record returned false")
	}

	var path string
	select {
	case path = <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("completion never fired")
	}
	want := filepath.Join(out, "sample1.wav")
	if path != want {
		t.Fatalf("recording path = %q, want %q", path, want)
	}
	format, data, err := ReadWAVFile(path)
	if err != nil {
		t.Fatalf("ReadWAVFile: %v", err)
	}
	if format != TargetFormat {
		t.Errorf("recorded format = %+v, want %+v", format, TargetFormat)
	}
	if len(data) != len(samples)*2 {
		t.Errorf("recorded %d bytes, want %d", len(data), len(samples)*2)
	}
	if rec.State() != StateReady {
		t.Errorf("state after capture = %v, want ready", rec.State())
	}
}

func TestRecorderRejectsConcurrentCapture(t *testing.T) {
	dev := newPipeDevice(TargetFormat)
	rec := NewRecorder(dev, GrantAll{}, t.TempDir())
	waitReady(t, rec)

	done := make(chan string, 1)
	if !rec.Record("first", func(path string, _ State) { done <- path }) {
		t.Fatal("first Record returned false")
	}
	if rec.Record("second", nil) {
		t.Error("second Record must be refused while recording")
	}

	go dev.pw.Write(pcm16(100, -100, 100, -100))
	rec.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("completion never fired")
	}
}

func TestRecorderStopIdempotentCompletionOnce(t *testing.T) {
	dev := newPipeDevice(TargetFormat)
	rec := NewRecorder(dev, GrantAll{}, t.TempDir())
	waitReady(t, rec)

	var fired atomic.Int32
	if !rec.Record("once", func(string, State) { fired.Add(1) }) {
		t.Fatal("Record returned false")
	}
	dev.pw.Write(pcm16(1000, -1000))
	rec.Stop()
	rec.Stop()
	rec.Stop()
	if got := fired.Load(); got != 1 {
		t.Errorf("completion fired %d times, want 1", got)
	}
	// Stop with nothing in flight is a no-op.
	rec.Stop()
	if got := fired.Load(); got != 1 {
		t.Errorf("completion fired %d times after extra Stop, want 1", got)
	}
}

func TestRecorderEmptyCaptureYieldsNoPath(t *testing.T) {
	dev := newPipeDevice(TargetFormat)
	rec := NewRecorder(dev, GrantAll{}, t.TempDir())
	waitReady(t, rec)

	done := make(chan string, 1)
	rec.Record("empty", func(path string, _ State) { done <- path })
	rec.Stop() // nothing was ever written
	select {
	case path := <-done:
		if path != "" {
			t.Errorf("path = %q, want empty for a recording with no audio", path)
		}
	case <-time.After(time.Second):
		t.Fatal("completion never fired")
	}
}

func TestRecorderRenameReplacesExisting(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "sample.wav")
	os.WriteFile(target, []byte("stale"), 0o644)

	src := filepath.Join(t.TempDir(), "src.wav")
	writeTestWAV(t, src, TargetFormat, []int16{5, -5, 5, -5})
	dev, err := NewFileDevice(src)
	if err != nil {
		t.Fatal(err)
	}
	rec := NewRecorder(dev, GrantAll{}, dir, WithMeterInterval(5*time.Millisecond))
	waitReady(t, rec)

	done := make(chan string, 1)
	rec.Record("sample", func(path string, _ State) { done <- path })
	path := <-done
	if path != target {
		t.Fatalf("path = %q, want %q", path, target)
	}
	if _, data, err := ReadWAVFile(target); err != nil || len(data) == 0 {
		t.Errorf("target was not replaced with the new recording (err=%v, %d bytes)", err, len(data))
	}
}

func TestRecorderOverlappingStopAndNextCapture(t *testing.T) {
	dev := &holdDevice{format: TargetFormat}
	dir := t.TempDir()
	rec := NewRecorder(dev, GrantAll{}, dir, WithGracePeriod(10*time.Second))
	waitReady(t, rec)

	first := make(chan string, 1)
	if !rec.Record("first", func(path string, _ State) { first <- path }) {
		t.Fatal("first Record returned false")
	}
	dev.writer(0).Write(pcm16(1000, -1000, 1000, -1000))

	// Stop flips the recorder back to Ready before the copy loop has
	// drained, so a new capture can begin while the previous one is
	// still finalizing. The previous capture's outcome must not change.
	stopped := make(chan struct{})
	go func() {
		rec.Stop()
		close(stopped)
	}()

	second := make(chan string, 1)
	deadline := time.Now().Add(time.Second)
	for !rec.Record("second", func(path string, _ State) { second <- path }) {
		if time.Now().After(deadline) {
			t.Fatal("second Record was never accepted")
		}
		time.Sleep(time.Millisecond)
	}
	dev.writer(1).Write(pcm16(2000, -2000, 2000, -2000))

	dev.writer(0).Close()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("first Stop never returned")
	}
	select {
	case path := <-first:
		if want := filepath.Join(dir, "first.wav"); path != want {
			t.Errorf("first capture path = %q, want %q", path, want)
		}
	case <-time.After(time.Second):
		t.Fatal("first completion never fired")
	}

	// Ending the second stream must finish the second capture; the
	// first take's leftover watcher must not have torn it down.
	dev.writer(1).Close()
	select {
	case path := <-second:
		if want := filepath.Join(dir, "second.wav"); path != want {
			t.Errorf("second capture path = %q, want %q", path, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("second completion never fired")
	}
}

func TestRecorderSilentDeviceNeverEndpoints(t *testing.T) {
	dev := newPipeDevice(TargetFormat)
	rec := NewRecorder(dev, GrantAll{}, t.TempDir(),
		WithGracePeriod(5*time.Millisecond),
		WithMeterInterval(2*time.Millisecond),
		WithMaxDuration(10*time.Second))
	waitReady(t, rec)

	done := make(chan string, 1)
	if !rec.Record("quiet-start", func(path string, _ State) { done <- path }) {
		t.Fatal("Record returned false")
	}

	// A device that delivers nothing must not trip end-of-speech: the
	// detector would otherwise arm against the meter's full-scale seed
	// and fire a few ticks after the grace period.
	select {
	case <-done:
		t.Fatal("capture stopped with no audio ever delivered")
	case <-time.After(100 * time.Millisecond):
	}
	if !rec.Recording() {
		t.Fatal("recorder left the recording state with no audio delivered")
	}

	dev.pw.Write(pcm16(1000, -1000, 1000, -1000))
	rec.Stop()
	select {
	case path := <-done:
		if path == "" {
			t.Error("expected a recording once audio arrived")
		}
	case <-time.After(time.Second):
		t.Fatal("completion never fired")
	}
}

func TestRecorderMaxDurationStops(t *testing.T) {
	dev := newPipeDevice(TargetFormat)
	rec := NewRecorder(dev, GrantAll{}, t.TempDir(),
		WithMaxDuration(50*time.Millisecond),
		WithGracePeriod(10*time.Second)) // endpointing suppressed
	waitReady(t, rec)

	done := make(chan string, 1)
	rec.Record("maxed", func(path string, _ State) { done <- path })
	// Keep feeding audio; only the max-duration timer can stop this.
	go func() {
		for i := 0; i < 100; i++ {
			if _, err := dev.pw.Write(pcm16(1000, -1000, 1000, -1000)); err != nil {
				return
			}
			time.Sleep(time.Millisecond)
		}
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("max-duration timer never stopped the capture")
	}
}

func TestRecorderEndpointStops(t *testing.T) {
	dev := newPipeDevice(TargetFormat)
	rec := NewRecorder(dev, GrantAll{}, t.TempDir(),
		WithGracePeriod(20*time.Millisecond),
		WithMeterInterval(5*time.Millisecond),
		WithMaxDuration(5*time.Second))
	waitReady(t, rec)

	done := make(chan string, 1)
	rec.Record("quiet", func(path string, _ State) { done <- path })

	// Loud audio through the grace period, then sustained near-silence:
	// the endpoint detector should stop the capture well before the
	// max duration.
	go func() {
		deadline := time.Now().Add(40 * time.Millisecond)
		for time.Now().Before(deadline) {
			if _, err := dev.pw.Write(pcm16(20000, -20000, 20000, -20000)); err != nil {
				return
			}
			time.Sleep(2 * time.Millisecond)
		}
		for {
			if _, err := dev.pw.Write(pcm16(1, -1, 1, -1)); err != nil {
				return
			}
			time.Sleep(2 * time.Millisecond)
		}
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("endpoint detector never stopped the capture")
	}
}

func TestRemoveAll(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.wav", "b.wav"} {
		os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644)
	}
	os.WriteFile(filepath.Join(dir, "keep.txt"), []byte("x"), 0o644)

	rec := NewRecorder(newPipeDevice(TargetFormat), GrantAll{}, dir)
	if err := rec.RemoveAll(); err != nil {
		t.Fatalf("RemoveAll: %v", err)
	}
	matches, _ := filepath.Glob(filepath.Join(dir, "*.wav"))
	if len(matches) != 0 {
		t.Errorf("wav files remain: %v", matches)
	}
	if _, err := os.Stat(filepath.Join(dir, "keep.txt")); err != nil {
		t.Errorf("non-wav file was deleted: %v", err)
	}
}
