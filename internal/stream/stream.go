// Package stream provides TextStream, a lazy, finite, forward-only sequence of
// text fragments with a single consumer.
//
//	s := gen.Essay(ctx, req)
//	defer s.Close()
//	for s.Next() {
//		fmt.Print(s.Text())
//	}
//	if err := s.Err(); err != nil { ... }
//
// A stream cannot be restarted. Closing it early is not an error and releases
// the producer (for provider-backed streams this cancels the request).
package stream

import (
	"errors"
	"io"
	"strings"
	"sync"
)

// NextFunc produces the next fragment. It returns io.EOF once the sequence is
// exhausted; any other error terminates the stream.
type NextFunc func() (string, error)

type TextStream struct {
	next NextFunc

	closeOnce sync.Once
	closeFn   func() error
	closeErr  error

	mu     sync.Mutex
	closed bool

	cur  string
	err  error
	done bool
}

// New builds a stream from a producer and an optional release function.
func New(next NextFunc, closeFn func() error) *TextStream {
	return &TextStream{next: next, closeFn: closeFn}
}

// FromChunks returns a stream that yields the given fragments in order.
func FromChunks(chunks ...string) *TextStream {
	i := 0
	return New(func() (string, error) {
		if i >= len(chunks) {
			return "", io.EOF
		}
		c := chunks[i]
		i++
		return c, nil
	}, nil)
}

// FromError returns a stream that fails on its first pull.
func FromError(err error) *TextStream {
	return New(func() (string, error) { return "", err }, nil)
}

// FromReader adapts a byte stream (an HTTP body, for instance). Fragments are
// whatever each Read returns, so a multi-byte rune may be split across two of them.
func FromReader(r io.ReadCloser) *TextStream {
	buf := make([]byte, 4096)
	return New(func() (string, error) {
		n, err := r.Read(buf)
		if n > 0 {
			return string(buf[:n]), nil
		}
		if err == nil {
			return "", nil
		}
		return "", err
	}, r.Close)
}

// MapErr wraps s so terminal errors pass through f. io.EOF is never mapped.
func MapErr(s *TextStream, f func(error) error) *TextStream {
	return New(func() (string, error) {
		if s.Next() {
			return s.Text(), nil
		}
		if err := s.Err(); err != nil {
			return "", f(err)
		}
		return "", io.EOF
	}, s.Close)
}

// Next advances to the next non-empty fragment. It returns false when the
// stream is exhausted, has failed, or was closed.
func (s *TextStream) Next() bool {
	if s.done || s.isClosed() {
		s.cur = ""
		return false
	}
	for {
		chunk, err := s.next()
		if err != nil {
			s.done = true
			s.cur = ""
			if !errors.Is(err, io.EOF) && !s.isClosed() {
				s.err = err
			}
			return false
		}
		if chunk == "" {
			continue
		}
		s.cur = chunk
		return true
	}
}

// Text returns the fragment produced by the last successful Next.
func (s *TextStream) Text() string { return s.cur }

// Err returns the error that terminated the stream, if any. A stream closed
// by its consumer reports no error.
func (s *TextStream) Err() error { return s.err }

// Close releases the producer. It is safe to call more than once and from a
// goroutine other than the consumer.
func (s *TextStream) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.closeOnce.Do(func() {
		if s.closeFn != nil {
			s.closeErr = s.closeFn()
		}
	})
	return s.closeErr
}

func (s *TextStream) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Collect drains s and concatenates every fragment, then closes it.
func Collect(s *TextStream) (string, error) {
	defer s.Close()
	var b strings.Builder
	for s.Next() {
		b.WriteString(s.Text())
	}
	return b.String(), s.Err()
}
