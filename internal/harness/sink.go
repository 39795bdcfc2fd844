package harness

import (
	"bytes"
	"encoding/binary"
	"math"
	"time"

	"github.com/GhostGeeks/UAP-Generator/internal/playback"
	"github.com/GhostGeeks/UAP-Generator/internal/wavio"
)

// RecorderSink stands in for the audio backend: it captures every
// streamed PCM block, records artifact paths in start order, and
// crashes on demand. Like the production sink it is driven from the
// control loop goroutine only.
type RecorderSink struct {
	refuse       error
	streamStarts int
	fileStarts   int
	files        []string
	cur          *recorderProc
	pcm          bytes.Buffer
}

// NewRecorderSink returns an accepting recorder.
func NewRecorderSink() *RecorderSink {
	return &RecorderSink{}
}

// Refuse makes every subsequent start fail with err.
func (s *RecorderSink) Refuse(err error) { s.refuse = err }

// StartStream opens a recording stream session.
func (s *RecorderSink) StartStream(f playback.Format) (playback.StreamProc, error) {
	if s.refuse != nil {
		return nil, s.refuse
	}
	s.streamStarts++
	p := &recorderProc{sink: s, done: make(chan struct{})}
	s.cur = p
	return p, nil
}

// StartFile opens a recording file session.
func (s *RecorderSink) StartFile(path string) (playback.Proc, error) {
	if s.refuse != nil {
		return nil, s.refuse
	}
	s.fileStarts++
	s.files = append(s.files, path)
	p := &recorderProc{sink: s, done: make(chan struct{})}
	s.cur = p
	return p, nil
}

// Kill makes the current process die as if the backend crashed.
func (s *RecorderSink) Kill(reason string) {
	if s.cur == nil {
		return
	}
	s.cur.err = &playback.Error{Code: playback.ErrCodeProcessCrash, Message: reason}
	s.cur.close()
}

// StreamStarts reports how many stream sessions were launched.
func (s *RecorderSink) StreamStarts() int { return s.streamStarts }

// FileStarts reports how many file sessions were launched.
func (s *RecorderSink) FileStarts() int { return s.fileStarts }

// Files lists the artifact paths played, in start order.
func (s *RecorderSink) Files() []string { return s.files }

// PCM returns all bytes streamed across every session.
func (s *RecorderSink) PCM() []byte { return s.pcm.Bytes() }

// RMS computes the root-mean-square level of the captured stream in
// [-1, 1] sample space.
func (s *RecorderSink) RMS() float64 {
	b := s.pcm.Bytes()
	n := len(b) / 2
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		v := wavio.Int16ToSample(int16(binary.LittleEndian.Uint16(b[2*i:])))
		sum += v * v
	}
	return math.Sqrt(sum / float64(n))
}

type recorderProc struct {
	sink *RecorderSink
	done chan struct{}
	err  error
}

func (p *recorderProc) Done() <-chan struct{} { return p.done }

func (p *recorderProc) Err() error {
	select {
	case <-p.done:
		return p.err
	default:
		return nil
	}
}

func (p *recorderProc) Stop(grace time.Duration) { p.close() }

func (p *recorderProc) Write(b []byte) (int, error) {
	select {
	case <-p.done:
		return 0, &playback.Error{Code: playback.ErrCodeWriteFailure, Message: "sink gone"}
	default:
	}
	p.sink.pcm.Write(b)
	return len(b), nil
}

func (p *recorderProc) close() {
	select {
	case <-p.done:
	default:
		close(p.done)
	}
}
