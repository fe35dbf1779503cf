package gcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"

	"github.com/Sparkonix11/Knowtopia/internal/platform/ctxutil"
	"github.com/Sparkonix11/Knowtopia/internal/platform/logger"
)

// Speech transcribes audio with Cloud Speech-to-Text.
type Speech interface {
	TranscribeAudio(ctx context.Context, audio []byte, mimeType string) (*TranscriptResult, error)
	TranscribeAudioGCS(ctx context.Context, gcsURI string, mimeType string) (*TranscriptResult, error)
	Close() error
}

type TranscriptResult struct {
	Provider    string              `json:"provider"`
	SourceURI   string              `json:"source_uri,omitempty"`
	PrimaryText string              `json:"primary_text"`
	Segments    []TranscriptSegment `json:"segments,omitempty"`
	Warnings    []string            `json:"warnings,omitempty"`
}

type speechService struct {
	log          *logger.Logger
	client       *speech.Client
	languageCode string
	maxRetries   int
}

func NewSpeech(log *logger.Logger, languageCode string) (Speech, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	c, err := speech.NewClient(context.Background(), ClientOptionsFromEnv()...)
	if err != nil {
		return nil, fmt.Errorf("speech client: %w", err)
	}
	if languageCode == "" {
		languageCode = "en-US"
	}
	return &speechService{
		log:          log.With("service", "gcp.Speech"),
		client:       c,
		languageCode: languageCode,
		maxRetries:   3,
	}, nil
}

func (s *speechService) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (s *speechService) TranscribeAudio(ctx context.Context, audio []byte, mimeType string) (*TranscriptResult, error) {
	if len(audio) == 0 {
		return nil, fmt.Errorf("empty audio")
	}
	req := &speechpb.LongRunningRecognizeRequest{
		Config: s.recognitionConfig(mimeType, ""),
		Audio:  &speechpb.RecognitionAudio{AudioSource: &speechpb.RecognitionAudio_Content{Content: audio}},
	}
	return s.run(ctx, "", req)
}

func (s *speechService) TranscribeAudioGCS(ctx context.Context, gcsURI string, mimeType string) (*TranscriptResult, error) {
	if !strings.HasPrefix(gcsURI, "gs://") {
		return nil, fmt.Errorf("gcsURI must be gs://... got %q", gcsURI)
	}
	req := &speechpb.LongRunningRecognizeRequest{
		Config: s.recognitionConfig(mimeType, gcsURI),
		Audio:  &speechpb.RecognitionAudio{AudioSource: &speechpb.RecognitionAudio_Uri{Uri: gcsURI}},
	}
	return s.run(ctx, gcsURI, req)
}

func (s *speechService) run(ctx context.Context, sourceURI string, req *speechpb.LongRunningRecognizeRequest) (*TranscriptResult, error) {
	ctx = ctxutil.Default(ctx)
	ctx, cancel := context.WithTimeout(ctx, 20*time.Minute)
	defer cancel()

	resp, err := retryGRPC(ctx, s.maxRetries, func() (*speechpb.LongRunningRecognizeResponse, error) {
		op, err := s.client.LongRunningRecognize(ctx, req)
		if err != nil {
			return nil, err
		}
		return op.Wait(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("speech LongRunningRecognize: %w", err)
	}
	out := parseSpeechResponse(resp)
	out.SourceURI = sourceURI
	s.log.Debug("Speech transcription finished", "source", sourceURI, "segments", len(out.Segments))
	return out, nil
}

func (s *speechService) recognitionConfig(mimeType, gcsURI string) *speechpb.RecognitionConfig {
	return &speechpb.RecognitionConfig{
		Encoding:                   inferSpeechEncoding(mimeType, gcsURI),
		LanguageCode:               s.languageCode,
		EnableAutomaticPunctuation: true,
		EnableWordTimeOffsets:      true,
	}
}

func inferSpeechEncoding(mimeType, uri string) speechpb.RecognitionConfig_AudioEncoding {
	m := strings.ToLower(mimeType)
	u := strings.ToLower(uri)
	switch {
	case strings.Contains(m, "wav") || strings.HasSuffix(u, ".wav"):
		return speechpb.RecognitionConfig_LINEAR16
	case strings.Contains(m, "flac") || strings.HasSuffix(u, ".flac"):
		return speechpb.RecognitionConfig_FLAC
	case strings.Contains(m, "mpeg") || strings.Contains(m, "mp3") || strings.HasSuffix(u, ".mp3"):
		return speechpb.RecognitionConfig_MP3
	case strings.Contains(m, "ogg") || strings.HasSuffix(u, ".ogg"):
		return speechpb.RecognitionConfig_OGG_OPUS
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED
	}
}

func parseSpeechResponse(resp *speechpb.LongRunningRecognizeResponse) *TranscriptResult {
	out := &TranscriptResult{Provider: "gcp_speech"}
	if resp == nil || len(resp.Results) == 0 {
		out.Warnings = append(out.Warnings, "no recognition results")
		return out
	}
	for _, r := range resp.Results {
		if r == nil || len(r.Alternatives) == 0 || r.Alternatives[0] == nil {
			continue
		}
		alt := r.Alternatives[0]
		text := collapseWhitespace(alt.Transcript)
		if text == "" {
			continue
		}
		seg := TranscriptSegment{Text: text, EndSec: durToSec(r.ResultEndTime)}
		if len(alt.Words) > 0 && alt.Words[0] != nil {
			seg.StartSec = durToSec(alt.Words[0].StartTime)
			if last := alt.Words[len(alt.Words)-1]; last != nil {
				seg.EndSec = durToSec(last.EndTime)
			}
		}
		out.Segments = append(out.Segments, seg)
	}
	out.PrimaryText = joinSegments(out.Segments)
	return out
}
