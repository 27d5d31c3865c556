// Package speech turns recorded questions into text.
package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

// ErrUnsupportedAudio is returned for empty payloads and containers the
// transcriber does not accept.
var ErrUnsupportedAudio = errors.New("unsupported audio payload")

// Transcriber converts an audio payload into a best-effort transcript.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// Format is a recognised audio container, named by its file extension.
type Format string

const (
	FormatWAV  Format = "wav"
	FormatMP3  Format = "mp3"
	FormatOGG  Format = "ogg"
	FormatFLAC Format = "flac"
	FormatWebM Format = "webm"
	FormatMP4  Format = "m4a"
)

// containers maps detected extensions to the formats Whisper accepts.
// Ogg and Matroska subtypes carry their own extensions.
var containers = map[string]Format{
	".wav":  FormatWAV,
	".mp3":  FormatMP3,
	".ogg":  FormatOGG,
	".ogx":  FormatOGG,
	".oga":  FormatOGG,
	".opus": FormatOGG,
	".flac": FormatFLAC,
	".webm": FormatWebM,
	".mkv":  FormatWebM,
	".m4a":  FormatMP4,
	".mp4":  FormatMP4,
}

// Sniff identifies the container from its leading bytes. Detection walks up
// to the parent type so that e.g. an Ogg stream with an unknown codec still
// counts as Ogg.
func Sniff(audio []byte) (Format, error) {
	if len(audio) == 0 {
		return "", ErrUnsupportedAudio
	}
	for m := mimetype.Detect(audio); m != nil; m = m.Parent() {
		if f, ok := containers[m.Extension()]; ok {
			return f, nil
		}
	}
	return "", ErrUnsupportedAudio
}

// WhisperConfig holds configuration for the Whisper transcriber.
type WhisperConfig struct {
	APIKey string
	// Model defaults to whisper-1.
	Model string
	// BaseURL overrides the OpenAI endpoint.
	BaseURL  string
	Language string
	Logger   *logrus.Logger
}

type transcriptionClient interface {
	CreateTranscription(ctx context.Context, req openai.AudioRequest) (openai.AudioResponse, error)
}

// WhisperTranscriber transcribes with OpenAI's audio API.
type WhisperTranscriber struct {
	client   transcriptionClient
	model    string
	language string
	logger   *logrus.Logger
}

// NewWhisperTranscriber creates a transcriber for cfg.
func NewWhisperTranscriber(cfg WhisperConfig) (*WhisperTranscriber, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	return newWhisperTranscriber(openai.NewClientWithConfig(oc), cfg), nil
}

func newWhisperTranscriber(client transcriptionClient, cfg WhisperConfig) *WhisperTranscriber {
	if cfg.Model == "" {
		cfg.Model = openai.Whisper1
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &WhisperTranscriber{
		client:   client,
		model:    cfg.Model,
		language: cfg.Language,
		logger:   cfg.Logger,
	}
}

// Transcribe sniffs the payload and sends it for transcription.
func (w *WhisperTranscriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	format, err := Sniff(audio)
	if err != nil {
		return "", err
	}

	resp, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.model,
		FilePath: "audio." + string(format),
		Reader:   bytes.NewReader(audio),
		Language: w.language,
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", fmt.Errorf("transcription failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text)
	w.logger.WithFields(logrus.Fields{
		"format": format,
		"bytes":  len(audio),
		"chars":  len(text),
	}).Debug("transcribed audio")
	return text, nil
}
