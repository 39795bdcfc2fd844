// Package wavio reads and writes 16-bit PCM RIFF/WAVE files.
//
// The format surface is deliberately small: little-endian s16 with the
// canonical 44-byte header is the only encoding, because it is the one
// every supported audio sink plays natively. Writes are atomic (temp
// file plus rename) so a crash mid-render can never leave a playable
// half-file behind.
package wavio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/GhostGeeks/UAP-Generator/internal/synth"
)

const (
	headerLen  = 44
	fmtChunkSz = 16
	pcmFormat  = 1
	bitDepth   = 16
)

// Encode writes p to w as a 16-bit PCM WAV.
func Encode(w io.Writer, p *synth.Pattern) error {
	if p.Rate <= 0 || p.Channels <= 0 {
		return fmt.Errorf("invalid format: rate=%d channels=%d", p.Rate, p.Channels)
	}
	dataLen := len(p.Samples) * 2
	blockAlign := p.Channels * bitDepth / 8
	byteRate := p.Rate * blockAlign

	header := make([]byte, headerLen)
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], uint32(36+dataLen))
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], fmtChunkSz)
	binary.LittleEndian.PutUint16(header[20:22], pcmFormat)
	binary.LittleEndian.PutUint16(header[22:24], uint16(p.Channels))
	binary.LittleEndian.PutUint32(header[24:28], uint32(p.Rate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(header[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(header[34:36], bitDepth)
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], uint32(dataLen))

	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	data := make([]byte, dataLen)
	for i, s := range p.Samples {
		binary.LittleEndian.PutUint16(data[2*i:], uint16(SampleToInt16(s)))
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write samples: %w", err)
	}
	return nil
}

// Write encodes p to path atomically: the bytes land in path+".tmp"
// first and are renamed into place only when complete.
func Write(path string, p *synth.Pattern) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}
	if err := Encode(f, p); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}

// Decode parses a 16-bit PCM WAV from r. Unknown chunks between "fmt "
// and "data" are skipped, so files with LIST/INFO metadata still load.
func Decode(r io.Reader) (*synth.Pattern, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read stream: %w", err)
	}
	if len(raw) < headerLen || !bytes.Equal(raw[0:4], []byte("RIFF")) || !bytes.Equal(raw[8:12], []byte("WAVE")) {
		return nil, fmt.Errorf("not a RIFF/WAVE stream")
	}

	var (
		channels int
		rate     int
		haveFmt  bool
	)
	off := 12
	for off+8 <= len(raw) {
		id := string(raw[off : off+4])
		size := int(binary.LittleEndian.Uint32(raw[off+4 : off+8]))
		body := off + 8
		if body+size > len(raw) {
			return nil, fmt.Errorf("truncated %q chunk", id)
		}

		switch id {
		case "fmt ":
			if size < fmtChunkSz {
				return nil, fmt.Errorf("short fmt chunk (%d bytes)", size)
			}
			format := binary.LittleEndian.Uint16(raw[body : body+2])
			if format != pcmFormat {
				return nil, fmt.Errorf("unsupported audio format %d (want PCM)", format)
			}
			channels = int(binary.LittleEndian.Uint16(raw[body+2 : body+4]))
			rate = int(binary.LittleEndian.Uint32(raw[body+4 : body+8]))
			bits := binary.LittleEndian.Uint16(raw[body+14 : body+16])
			if bits != bitDepth {
				return nil, fmt.Errorf("unsupported bit depth %d (want %d)", bits, bitDepth)
			}
			haveFmt = true
		case "data":
			if !haveFmt {
				return nil, fmt.Errorf("data chunk before fmt chunk")
			}
			n := size / 2
			samples := make([]float64, n)
			for i := 0; i < n; i++ {
				v := int16(binary.LittleEndian.Uint16(raw[body+2*i:]))
				samples[i] = Int16ToSample(v)
			}
			return &synth.Pattern{Rate: rate, Channels: channels, Samples: samples}, nil
		}

		// chunks are word-aligned
		if size%2 == 1 {
			size++
		}
		off = body + size
	}
	return nil, fmt.Errorf("no data chunk found")
}

// ReadFile loads a WAV from disk.
func ReadFile(path string) (*synth.Pattern, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}

// SampleToInt16 quantizes a [-1, 1] sample, clamping out-of-range
// values instead of wrapping them.
func SampleToInt16(s float64) int16 {
	if s > 1 {
		s = 1
	} else if s < -1 {
		s = -1
	}
	return int16(math.Round(s * 32767))
}

// Int16ToSample is the inverse mapping. Every value Encode can produce
// (the symmetric range [-32767, 32767]) round-trips exactly.
func Int16ToSample(v int16) float64 {
	return float64(v) / 32767
}
