// Package tts turns script batches into PCM clips.
package tts

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/fayadabbasi3-MOR/ai-podcast-generator/internal/audio"
	"github.com/fayadabbasi3-MOR/ai-podcast-generator/internal/retry"
	"github.com/fayadabbasi3-MOR/ai-podcast-generator/internal/script"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Synthesizer renders one script segment to a PCM clip.
type Synthesizer interface {
	Synthesize(ctx context.Context, seg script.Segment) (audio.Clip, error)
}

// Voice selects a synthesis voice for one speaker.
type Voice struct {
	LanguageCode string
	Name         string
}

// Options configures the Google Cloud TTS synthesizer.
type Options struct {
	APIKey     string
	SampleRate int
	Voices     map[script.Speaker]Voice
}

const synthesizeURL = "https://texttospeech.googleapis.com/v1/text:synthesize"

// NewGoogle builds a Synthesizer backed by the Cloud Text-to-Speech REST API.
func NewGoogle(opts Options) (Synthesizer, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("synthesis not configured: GOOGLE_TTS_API_KEY not set")
	}
	if opts.SampleRate <= 0 {
		opts.SampleRate = 24000
	}
	return &googleSynthesizer{
		opts:   opts,
		client: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

type googleSynthesizer struct {
	opts   Options
	client *http.Client
}

type synthesizeRequest struct {
	Input struct {
		Text string `json:"text"`
	} `json:"input"`
	Voice struct {
		LanguageCode string `json:"languageCode"`
		Name         string `json:"name,omitempty"`
	} `json:"voice"`
	AudioConfig struct {
		AudioEncoding   string `json:"audioEncoding"`
		SampleRateHertz int    `json:"sampleRateHertz"`
	} `json:"audioConfig"`
}

type synthesizeResponse struct {
	AudioContent string `json:"audioContent"`
}

type ttsStatusError struct {
	status int
	body   string
}

func (e *ttsStatusError) Error() string {
	return fmt.Sprintf("tts API %d: %s", e.status, e.body)
}

func (s *googleSynthesizer) Synthesize(ctx context.Context, seg script.Segment) (audio.Clip, error) {
	voice, ok := s.opts.Voices[seg.Speaker]
	if !ok {
		return audio.Clip{}, fmt.Errorf("no voice configured for speaker %q", seg.Speaker)
	}

	var req synthesizeRequest
	req.Input.Text = seg.Text
	req.Voice.LanguageCode = voice.LanguageCode
	req.Voice.Name = voice.Name
	req.AudioConfig.AudioEncoding = "LINEAR16"
	req.AudioConfig.SampleRateHertz = s.opts.SampleRate

	body, err := json.Marshal(req)
	if err != nil {
		return audio.Clip{}, err
	}

	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, synthesizeURL, bytes.NewReader(body))
	if err != nil {
		return audio.Clip{}, err
	}
	hreq.Header.Set("Content-Type", "application/json")
	hreq.Header.Set("X-Goog-Api-Key", s.opts.APIKey)

	resp, err := s.client.Do(hreq)
	if err != nil {
		return audio.Clip{}, fmt.Errorf("tts request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return audio.Clip{}, &ttsStatusError{status: resp.StatusCode, body: string(b)}
	}

	var sr synthesizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return audio.Clip{}, err
	}
	raw, err := base64.StdEncoding.DecodeString(sr.AudioContent)
	if err != nil {
		return audio.Clip{}, fmt.Errorf("decode audio content: %w", err)
	}

	// LINEAR16 responses arrive as a complete WAV file.
	clip, err := audio.DecodeWAV(bytes.NewReader(raw))
	if err != nil {
		return audio.Clip{}, fmt.Errorf("segment %d: %w", seg.SequenceIndex, err)
	}
	if clip.SampleRate != s.opts.SampleRate {
		return audio.Clip{}, fmt.Errorf("segment %d: got sample rate %d, want %d", seg.SequenceIndex, clip.SampleRate, s.opts.SampleRate)
	}

	clip.SequenceIndex = seg.SequenceIndex
	clip.ThemeIndex = seg.ThemeIndex
	return clip, nil
}

// Renderer drives a Synthesizer across the planned batches.
type Renderer struct {
	synth       Synthesizer
	concurrency int
	log         *zap.Logger
}

// NewRenderer wraps synth with bounded concurrency and retries.
func NewRenderer(synth Synthesizer, concurrency int, log *zap.Logger) *Renderer {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Renderer{synth: synth, concurrency: concurrency, log: log}
}

func retryableTTS(err error) bool {
	if se, ok := err.(*ttsStatusError); ok {
		return se.status == http.StatusTooManyRequests || se.status >= 500
	}
	return true
}

// RenderBatches synthesizes every segment of every batch. Batches run
// concurrently; segments within a batch run in order. Any batch that
// exhausts its retries fails the whole render.
func (r *Renderer) RenderBatches(ctx context.Context, batches []script.Batch) ([]audio.Clip, error) {
	var (
		mu    sync.Mutex
		clips []audio.Clip
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for _, batch := range batches {
		batch := batch
		g.Go(func() error {
			rendered := make([]audio.Clip, 0, len(batch.Segments))
			for _, seg := range batch.Segments {
				var clip audio.Clip
				err := retry.Do(gctx, retry.Config{
					MaxAttempts:  3,
					InitialDelay: 2 * time.Second,
					Multiplier:   4.0,
					Retryable:    retryableTTS,
				}, func() error {
					var serr error
					clip, serr = r.synth.Synthesize(gctx, seg)
					return serr
				})
				if err != nil {
					return fmt.Errorf("batch %d segment %d: %w", batch.Index, seg.SequenceIndex, err)
				}
				rendered = append(rendered, clip)
			}
			r.log.Debug("batch rendered",
				zap.Int("batch", batch.Index),
				zap.Int("segments", len(rendered)))
			mu.Lock()
			clips = append(clips, rendered...)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	sort.Slice(clips, func(i, j int) bool {
		return clips[i].SequenceIndex < clips[j].SequenceIndex
	})
	return clips, nil
}
