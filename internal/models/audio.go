package models

import (
	"bytes"
	"io"
)

// AudioInput wraps the uploaded audio payload. Exactly one of Reader or Data
// is set; Source resolves the pair once so raw bytes are never copied into a
// second buffer on the streaming path.
type AudioInput struct {
	Reader      io.Reader
	Data        []byte
	Filename    string
	ContentType string
}

// Source returns the readable form of the payload, or nil when empty.
func (in AudioInput) Source() io.Reader {
	if in.Reader != nil {
		return in.Reader
	}
	if in.Data != nil {
		return bytes.NewReader(in.Data)
	}
	return nil
}

// TranscriptionRequest captures speech-to-text parameters.
type TranscriptionRequest struct {
	Model       string
	Credentials Credentials
	Input       AudioInput
	User        string
}

// TranscriptionResponse is the normalized transcription payload. Speaker and
// timing metadata stay inside the remote response; only text is surfaced.
type TranscriptionResponse struct {
	Text string
}

// SpeechRequest drives text-to-speech generation.
type SpeechRequest struct {
	Model       string
	TenantID    string
	Credentials Credentials
	Input       string
	Voice       string
	User        string
	Stream      bool
}

// SpeechChunk is one fragment of a streamed synthesis result.
type SpeechChunk struct {
	Audio []byte
}

// SpeechStream is a finite, single-pass producer of audio chunks. The consumer
// pulls from Chunks until it closes; Cancel releases the producer early.
type SpeechStream struct {
	Chunks <-chan SpeechChunk
	Cancel func() error
}

// SpeechResult holds either a complete audio buffer or a lazy chunk stream,
// never both.
type SpeechResult struct {
	Audio  []byte
	Stream *SpeechStream
}

// Streaming reports whether the result must be consumed chunk by chunk.
func (r SpeechResult) Streaming() bool {
	return r.Stream != nil
}
