package capture

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// wavHeaderSize is the size of the canonical 16-bit PCM RIFF header.
const wavHeaderSize = 44

// wavWriter streams PCM16 data into a RIFF WAV file. The header sizes
// are patched on Close.
type wavWriter struct {
	f       *os.File
	format  Format
	dataLen uint32
}

func newWAVWriter(path string, format Format) (*wavWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w := &wavWriter{f: f, format: format}
	if err := w.writeHeader(); err != nil {
		f.Close()
		os.Remove(path)
		return nil, err
	}
	return w, nil
}

func (w *wavWriter) writeHeader() error {
	var h [wavHeaderSize]byte
	copy(h[0:4], "RIFF")
	// h[4:8] RIFF size, patched on Close
	copy(h[8:12], "WAVE")
	copy(h[12:16], "fmt ")
	binary.LittleEndian.PutUint32(h[16:20], 16) // PCM fmt chunk size
	binary.LittleEndian.PutUint16(h[20:22], 1)  // PCM
	binary.LittleEndian.PutUint16(h[22:24], uint16(w.format.Channels))
	binary.LittleEndian.PutUint32(h[24:28], uint32(w.format.SampleRate))
	byteRate := w.format.SampleRate * w.format.Channels * 2
	binary.LittleEndian.PutUint32(h[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(h[32:34], uint16(w.format.Channels*2)) // block align
	binary.LittleEndian.PutUint16(h[34:36], 16)                         // bits per sample
	copy(h[36:40], "data")
	// h[40:44] data size, patched on Close
	_, err := w.f.Write(h[:])
	return err
}

func (w *wavWriter) Write(p []byte) (int, error) {
	n, err := w.f.Write(p)
	w.dataLen += uint32(n)
	return n, err
}

func (w *wavWriter) Close() error {
	var sizes [4]byte
	binary.LittleEndian.PutUint32(sizes[:], 36+w.dataLen)
	if _, err := w.f.WriteAt(sizes[:], 4); err != nil {
		w.f.Close()
		return err
	}
	binary.LittleEndian.PutUint32(sizes[:], w.dataLen)
	if _, err := w.f.WriteAt(sizes[:], 40); err != nil {
		w.f.Close()
		return err
	}
	return w.f.Close()
}

// ReadWAVFile loads a 16-bit PCM WAV file, returning its format and raw
// sample data. Only uncompressed PCM16 is supported.
func ReadWAVFile(path string) (Format, []byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Format{}, nil, err
	}
	return DecodeWAV(raw)
}

// DecodeWAV parses a 16-bit PCM RIFF WAV image.
func DecodeWAV(raw []byte) (Format, []byte, error) {
	if len(raw) < 12 || string(raw[0:4]) != "RIFF" || string(raw[8:12]) != "WAVE" {
		return Format{}, nil, errors.New("capture: not a RIFF WAV file")
	}
	var format Format
	var data []byte
	var haveFmt bool
	pos := 12
	for pos+8 <= len(raw) {
		id := string(raw[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(raw[pos+4 : pos+8]))
		body := raw[pos+8:]
		if size > len(body) {
			size = len(body)
		}
		switch id {
		case "fmt ":
			if size < 16 {
				return Format{}, nil, errors.New("capture: truncated fmt chunk")
			}
			audioFormat := binary.LittleEndian.Uint16(body[0:2])
			bits := binary.LittleEndian.Uint16(body[14:16])
			if audioFormat != 1 || bits != 16 {
				return Format{}, nil, fmt.Errorf("capture: unsupported WAV encoding (format=%d bits=%d)", audioFormat, bits)
			}
			format.Channels = int(binary.LittleEndian.Uint16(body[2:4]))
			format.SampleRate = int(binary.LittleEndian.Uint32(body[4:8]))
			haveFmt = true
		case "data":
			data = body[:size]
		}
		pos += 8 + size
		if size%2 == 1 {
			pos++ // chunks are word-aligned
		}
	}
	if !haveFmt {
		return Format{}, nil, errors.New("capture: missing fmt chunk")
	}
	if data == nil {
		return Format{}, nil, io.ErrUnexpectedEOF
	}
	return format, data, nil
}
