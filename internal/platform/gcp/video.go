package gcp

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	videointelligence "cloud.google.com/go/videointelligence/apiv1"
	vipb "cloud.google.com/go/videointelligence/apiv1/videointelligencepb"

	"github.com/Sparkonix11/Knowtopia/internal/platform/ctxutil"
	"github.com/Sparkonix11/Knowtopia/internal/platform/logger"
)

// Video runs speech transcription over videos stored in Cloud Storage.
type Video interface {
	TranscribeGCS(ctx context.Context, gcsURI string) (*TranscriptResult, error)
	Close() error
}

type videoService struct {
	log          *logger.Logger
	client       *videointelligence.Client
	languageCode string
	maxRetries   int
}

func NewVideo(log *logger.Logger, languageCode string) (Video, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	c, err := videointelligence.NewClient(context.Background(), ClientOptionsFromEnv()...)
	if err != nil {
		return nil, fmt.Errorf("videointelligence client: %w", err)
	}
	if languageCode == "" {
		languageCode = "en-US"
	}
	return &videoService{
		log:          log.With("service", "gcp.Video"),
		client:       c,
		languageCode: languageCode,
		maxRetries:   4,
	}, nil
}

func (s *videoService) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (s *videoService) TranscribeGCS(ctx context.Context, gcsURI string) (*TranscriptResult, error) {
	ctx = ctxutil.Default(ctx)
	ctx, cancel := context.WithTimeout(ctx, 30*time.Minute)
	defer cancel()

	if !strings.HasPrefix(gcsURI, "gs://") {
		return nil, fmt.Errorf("gcsURI must be gs://... got %q", gcsURI)
	}

	req := &vipb.AnnotateVideoRequest{
		InputUri: gcsURI,
		Features: []vipb.Feature{vipb.Feature_SPEECH_TRANSCRIPTION},
		VideoContext: &vipb.VideoContext{
			SpeechTranscriptionConfig: &vipb.SpeechTranscriptionConfig{
				LanguageCode:               s.languageCode,
				EnableAutomaticPunctuation: true,
			},
		},
	}

	resp, err := retryGRPC(ctx, s.maxRetries, func() (*vipb.AnnotateVideoResponse, error) {
		op, err := s.client.AnnotateVideo(ctx, req)
		if err != nil {
			return nil, err
		}
		return op.Wait(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("videointelligence AnnotateVideo: %w", err)
	}

	out := &TranscriptResult{Provider: "gcp_videointelligence", SourceURI: gcsURI}
	if resp == nil || len(resp.AnnotationResults) == 0 || resp.AnnotationResults[0] == nil {
		out.Warnings = append(out.Warnings, "no annotation results")
		return out, nil
	}
	out.Segments = parseVideoSpeech(resp.AnnotationResults[0].SpeechTranscriptions)
	out.PrimaryText = joinSegments(out.Segments)
	s.log.Debug("Video transcription finished", "source", gcsURI, "segments", len(out.Segments))
	return out, nil
}

func parseVideoSpeech(st []*vipb.SpeechTranscription) []TranscriptSegment {
	out := make([]TranscriptSegment, 0, len(st))
	for _, tr := range st {
		if tr == nil || len(tr.Alternatives) == 0 || tr.Alternatives[0] == nil {
			continue
		}
		alt := tr.Alternatives[0]
		text := collapseWhitespace(alt.Transcript)
		if text == "" {
			continue
		}
		seg := TranscriptSegment{Text: text}
		if len(alt.Words) > 0 {
			if first := alt.Words[0]; first != nil {
				seg.StartSec = durToSec(first.StartTime)
			}
			if last := alt.Words[len(alt.Words)-1]; last != nil {
				seg.EndSec = durToSec(last.EndTime)
			}
		}
		out = append(out, seg)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartSec < out[j].StartSec })
	return out
}
