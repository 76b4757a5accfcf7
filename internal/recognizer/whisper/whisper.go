// Package whisper implements a server-side Recognizer backed by a
// Whisper-compatible transcription endpoint.
//
// It supports any OpenAI-compatible transcription API (whisper.cpp server,
// faster-whisper, speaches) and ahmetoner/whisper-asr-webservice. Whisper
// returns a single settled transcript, so a session emits one final event
// followed by the end marker.
package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/nadzzz/voicecart/internal/config"
	"github.com/nadzzz/voicecart/internal/language"
	"github.com/nadzzz/voicecart/internal/recognizer"
)

// maxAudioBytes bounds a single utterance upload.
const maxAudioBytes = 25 << 20

// Recognizer transcribes recorded utterances through a Whisper endpoint.
type Recognizer struct {
	endpoint  string
	apiType   string // "openai" or "asr"
	model     string
	prompt    string
	vadFilter bool
	client    *http.Client
}

// New creates a Whisper recognizer from config.
func New(cfg config.WhisperConfig) *Recognizer {
	t := cfg.Type
	if t == "" {
		t = "openai"
	}
	return &Recognizer{
		endpoint:  cfg.Endpoint,
		apiType:   t,
		model:     cfg.Model,
		prompt:    cfg.Prompt,
		vadFilter: cfg.VADFilter,
		client:    &http.Client{Timeout: cfg.Timeout},
	}
}

// Name returns the backend identifier.
func (r *Recognizer) Name() string { return "whisper" }

// Available reports whether an endpoint is configured.
func (r *Recognizer) Available() bool { return r.endpoint != "" }

// Start uploads the session audio and streams the outcome.
func (r *Recognizer) Start(ctx context.Context, in recognizer.Input) (<-chan recognizer.Event, error) {
	if !r.Available() {
		return nil, recognizer.ErrUnsupported
	}
	if in.Audio == nil {
		return nil, errors.New("whisper: no audio in input")
	}
	audio, err := io.ReadAll(io.LimitReader(in.Audio, maxAudioBytes))
	if err != nil {
		return nil, fmt.Errorf("reading audio: %w", err)
	}

	events := make(chan recognizer.Event, 2)
	go func() {
		defer close(events)
		text, err := r.Transcribe(ctx, audio, in.ContentType, in.Locale)
		switch {
		case err != nil:
			events <- recognizer.Event{Kind: recognizer.EventError, Err: classify(ctx, err)}
		case strings.TrimSpace(text) == "":
			events <- recognizer.Event{Kind: recognizer.EventError, Err: &recognizer.Error{
				Code:    recognizer.CodeNoSpeech,
				Message: "no speech in recording",
			}}
		default:
			events <- recognizer.Event{Kind: recognizer.EventFinal, Transcript: text}
		}
		events <- recognizer.Event{Kind: recognizer.EventEnd}
	}()
	return events, nil
}

// Transcribe converts audio bytes to text in the given locale.
//   - "openai": OpenAI-compatible API (whisper.cpp server, faster-whisper)
//   - "asr":    ahmetoner/whisper-asr-webservice (POST /asr with query params)
func (r *Recognizer) Transcribe(ctx context.Context, audio []byte, contentType, locale string) (string, error) {
	// Whisper expects ISO-639-1 codes, not full locales.
	lang := ""
	if locale != "" {
		lang = language.Resolve(locale).Base()
	}
	switch r.apiType {
	case "asr":
		return r.transcribeASR(ctx, audio, contentType, lang)
	default:
		return r.transcribeOpenAI(ctx, audio, contentType, lang)
	}
}

// transcribeASR handles the ahmetoner/whisper-asr-webservice format.
// API: POST /asr?task=transcribe&language=ta&output=json&vad_filter=true
// Body: multipart/form-data with field "audio_file"
func (r *Recognizer) transcribeASR(ctx context.Context, audio []byte, contentType, lang string) (string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("audio_file", "audio"+extFromContentType(contentType))
	if err != nil {
		return "", fmt.Errorf("creating form file: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", fmt.Errorf("writing audio: %w", err)
	}
	if err := writeFields(writer); err != nil {
		return "", err
	}

	q := make(url.Values)
	q.Set("task", "transcribe")
	q.Set("output", "json")
	q.Set("encode", "true")
	if lang != "" {
		q.Set("language", lang)
	}
	if r.prompt != "" {
		q.Set("initial_prompt", r.prompt)
	}
	if r.vadFilter {
		q.Set("vad_filter", "true")
	}

	reqURL := r.endpoint + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, body)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	slog.Debug("whisper-asr request", "url", reqURL)
	return r.do(req)
}

// transcribeOpenAI handles OpenAI-compatible whisper endpoints.
func (r *Recognizer) transcribeOpenAI(ctx context.Context, audio []byte, contentType, lang string) (string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "audio"+extFromContentType(contentType))
	if err != nil {
		return "", fmt.Errorf("creating form file: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", fmt.Errorf("writing audio: %w", err)
	}
	err = writeFields(writer,
		formField{"model", r.model},
		formField{"language", lang},
		formField{"prompt", r.prompt},
		formField{"response_format", "json"},
	)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, body)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return r.do(req)
}

type formField struct{ name, value string }

// writeFields writes the non-empty fields and closes the form.
func writeFields(w *multipart.Writer, fields ...formField) error {
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		if err := w.WriteField(f.name, f.value); err != nil {
			return fmt.Errorf("writing form field %s: %w", f.name, err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing form: %w", err)
	}
	return nil
}

// statusError is a non-200 response from the endpoint.
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("transcription failed (status %d): %s", e.status, e.body)
}

func (r *Recognizer) do(req *http.Request) (string, error) {
	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcription request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", &statusError{status: resp.StatusCode, body: string(respBody)}
	}

	var result struct {
		Text     string `json:"text"`
		Language string `json:"language"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding transcription: %w", err)
	}

	slog.Debug("transcription complete", "text_length", len(result.Text), "language", result.Language)
	return strings.TrimSpace(result.Text), nil
}

// classify maps transport failures onto recognizer error codes.
func classify(ctx context.Context, err error) *recognizer.Error {
	var se *statusError
	switch {
	case ctx.Err() != nil:
		return &recognizer.Error{Code: recognizer.CodeAborted, Message: "transcription cancelled", Cause: err}
	case errors.As(err, &se) && (se.status == http.StatusUnauthorized || se.status == http.StatusForbidden):
		return &recognizer.Error{Code: recognizer.CodePermissionDenied, Message: "transcription service refused access", Cause: err}
	case errors.As(err, &se) && se.status < 500:
		return &recognizer.Error{Code: recognizer.CodeUnknown, Message: "transcription rejected", Cause: err}
	default:
		return &recognizer.Error{Code: recognizer.CodeNetwork, Message: "transcription service unreachable", Cause: err}
	}
}

func extFromContentType(ct string) string {
	switch {
	case strings.Contains(ct, "wav"):
		return ".wav"
	case strings.Contains(ct, "ogg"):
		return ".ogg"
	case strings.Contains(ct, "mp3"), strings.Contains(ct, "mpeg"):
		return ".mp3"
	case strings.Contains(ct, "flac"):
		return ".flac"
	case strings.Contains(ct, "webm"):
		return ".webm"
	default:
		return ".wav"
	}
}
