package models

import (
	"io"
	"strings"
	"testing"
)

func TestAudioInputSource(t *testing.T) {
	if src := (AudioInput{}).Source(); src != nil {
		t.Fatalf("empty input should have no source")
	}

	reader := strings.NewReader("stream")
	in := AudioInput{Reader: reader, Data: []byte("ignored")}
	if src := in.Source(); src != reader {
		t.Fatalf("reader should win over raw bytes")
	}

	in = AudioInput{Data: []byte("raw")}
	got, err := io.ReadAll(in.Source())
	if err != nil {
		t.Fatalf("read source: %v", err)
	}
	if string(got) != "raw" {
		t.Fatalf("expected raw bytes, got %q", got)
	}
}

func TestSpeechResultStreaming(t *testing.T) {
	if (SpeechResult{Audio: []byte("a")}).Streaming() {
		t.Fatalf("buffered result should not report streaming")
	}
	if !(SpeechResult{Stream: &SpeechStream{}}).Streaming() {
		t.Fatalf("stream result should report streaming")
	}
}
