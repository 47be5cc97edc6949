package capture

import (
	"bytes"
	"errors"
	"io"
	"sync"
)

// Device supplies raw audio for capture.
type Device interface {
	// Start begins capturing. The returned reader yields little-endian
	// PCM16 in the device's native format until Stop is called, then
	// reports io.EOF.
	Start() (io.ReadCloser, error)

	// Stop ends the current capture. Idempotent.
	Stop() error

	// Format reports the device's native PCM format.
	Format() Format
}

// FileDevice replays prerecorded WAV files as if they were captured
// live, one file per Start call, in the order queued. It lets the full
// capture-and-submit pipeline run in environments without a microphone
// (CLI demos, tests). All queued files must share one format.
type FileDevice struct {
	mu     sync.Mutex
	format Format
	queue  [][]byte
	active io.Closer
}

// NewFileDevice builds a device from WAV file paths. At least one file
// is required; every file must be PCM16 with the same rate and channel
// count as the first.
func NewFileDevice(paths ...string) (*FileDevice, error) {
	if len(paths) == 0 {
		return nil, errors.New("capture: no audio files")
	}
	d := &FileDevice{}
	for _, p := range paths {
		format, data, err := ReadWAVFile(p)
		if err != nil {
			return nil, err
		}
		if len(d.queue) == 0 {
			d.format = format
		} else if format != d.format {
			return nil, errors.New("capture: audio files have mixed formats")
		}
		d.queue = append(d.queue, data)
	}
	return d, nil
}

// Remaining reports how many queued files have not been replayed yet.
func (d *FileDevice) Remaining() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}

func (d *FileDevice) Start() (io.ReadCloser, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.queue) == 0 {
		return nil, errors.New("capture: no queued audio remaining")
	}
	data := d.queue[0]
	d.queue = d.queue[1:]
	rc := io.NopCloser(bytes.NewReader(data))
	d.active = rc
	return rc, nil
}

func (d *FileDevice) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.active = nil
	return nil
}

func (d *FileDevice) Format() Format {
	return d.format
}

var _ Device = (*FileDevice)(nil)
