// Package sseframe is the stream framer (C8): it turns a sequence of
// chat.StreamResponse values into the wire-exact SSE byte stream OpenAI
// clients expect.
package sseframe

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// Writer frames chat completion stream chunks as Server-Sent Events.
type Writer struct {
	w       io.Writer
	flusher flusher
}

// flusher is satisfied by http.ResponseWriter; kept as a narrow local
// interface so this package doesn't import net/http.
type flusher interface {
	Flush()
}

func NewWriter(w io.Writer, f flusher) *Writer {
	return &Writer{w: w, flusher: f}
}

// WriteChunk writes one non-empty chunk as `data: <json>\n\n`. Per the
// framer's ordering contract, the caller must not call WriteChunk again
// after WriteDone.
func (w *Writer) WriteChunk(v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("sseframe: marshal chunk: %w", err)
	}
	if err := w.writeData(payload); err != nil {
		return err
	}
	if w.flusher != nil {
		w.flusher.Flush()
	}
	return nil
}

// WriteDone writes the bare terminal frame `data: [DONE]\n\n`. Unlike a
// named SSE "done" event, OpenAI-compatible clients scan for this exact
// literal, so no "event:" line precedes it.
func (w *Writer) WriteDone() error {
	if err := w.writeData([]byte("[DONE]")); err != nil {
		return err
	}
	if w.flusher != nil {
		w.flusher.Flush()
	}
	return nil
}

func (w *Writer) writeData(payload []byte) error {
	if _, err := w.w.Write([]byte("data: ")); err != nil {
		return err
	}
	if _, err := w.w.Write(payload); err != nil {
		return err
	}
	_, err := w.w.Write([]byte("\n\n"))
	return err
}

// Scanner reads a raw SSE byte stream back into successive `data: ` payloads.
// Used by tests that assert against the exact frame sequence a handler
// produced, and available for any future non-HTTP consumer of recorded SSE
// output.
type Scanner struct {
	s *bufio.Scanner
}

func NewScanner(r io.Reader) *Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &Scanner{s: sc}
}

// Next returns the next data payload, or io.EOF when the stream is
// exhausted. Blank lines and non-"data:" lines are skipped.
func (s *Scanner) Next() (string, error) {
	for s.s.Scan() {
		line := s.s.Text()
		if len(line) >= 6 && line[:6] == "data: " {
			return line[6:], nil
		}
	}
	if err := s.s.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
