package stream

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestFromChunks_YieldsInOrderAndSkipsEmpty(t *testing.T) {
	s := FromChunks("Hola", "", " mundo")
	var got []string
	for s.Next() {
		got = append(got, s.Text())
	}
	if s.Err() != nil {
		t.Fatalf("Unexpected error: %v", s.Err())
	}
	if strings.Join(got, "|") != "Hola| mundo" {
		t.Errorf("Unexpected chunks %q", got)
	}
	if s.Next() {
		t.Error("Expected exhausted stream to stay exhausted")
	}
}

func TestCollect(t *testing.T) {
	text, err := Collect(FromChunks("a", "b", "c"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if text != "abc" {
		t.Errorf("Expected abc, got %q", text)
	}
}

func TestErrorTerminatesStream(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	s := New(func() (string, error) {
		calls++
		if calls == 1 {
			return "first", nil
		}
		return "", boom
	}, nil)

	text, err := Collect(s)
	if !errors.Is(err, boom) {
		t.Fatalf("Expected boom, got %v", err)
	}
	if text != "first" {
		t.Errorf("Expected partial text 'first', got %q", text)
	}
}

func TestCloseStopsEarlyWithoutError(t *testing.T) {
	released := 0
	s := New(func() (string, error) { return "x", nil }, func() error {
		released++
		return nil
	})

	if !s.Next() {
		t.Fatal("Expected a first chunk")
	}
	s.Close()
	s.Close()

	if s.Next() {
		t.Error("Expected closed stream to yield nothing")
	}
	if s.Err() != nil {
		t.Errorf("Expected no error after consumer close, got %v", s.Err())
	}
	if released != 1 {
		t.Errorf("Expected producer released once, got %d", released)
	}
}

func TestMapErr(t *testing.T) {
	mapped := errors.New("mapped")
	s := MapErr(FromError(errors.New("raw")), func(error) error { return mapped })
	if s.Next() {
		t.Fatal("Expected no chunks")
	}
	if !errors.Is(s.Err(), mapped) {
		t.Errorf("Expected mapped error, got %v", s.Err())
	}

	clean := MapErr(FromChunks("ok"), func(error) error { return mapped })
	text, err := Collect(clean)
	if err != nil || text != "ok" {
		t.Errorf("Expected clean pass-through, got %q, %v", text, err)
	}
}

func TestFromReader(t *testing.T) {
	s := FromReader(io.NopCloser(strings.NewReader("streamed body")))
	text, err := Collect(s)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if text != "streamed body" {
		t.Errorf("Unexpected text %q", text)
	}
}
