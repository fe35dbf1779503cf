package app

import (
	"fmt"

	"github.com/Sparkonix11/Knowtopia/internal/clients/redis"
	"github.com/Sparkonix11/Knowtopia/internal/ingestion/extractor"
	"github.com/Sparkonix11/Knowtopia/internal/platform/gcp"
	"github.com/Sparkonix11/Knowtopia/internal/platform/logger"
	"github.com/Sparkonix11/Knowtopia/internal/platform/openai"
	"github.com/Sparkonix11/Knowtopia/internal/platform/sendgrid"
)

type Clients struct {
	Bucket   gcp.BucketService
	Sessions redis.SessionCache
	OpenAI   openai.Client
	Mail     sendgrid.Client

	// Optional; nil when GCP is not configured or a client failed to start.
	Vision   gcp.Vision
	Document gcp.Document
	Speech   gcp.Speech
	Video    gcp.Video
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	bucket, err := gcp.NewBucketService(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init bucket client: %w", err)
	}
	sessions, err := redis.NewSessionCache(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init session cache: %w", err)
	}
	openaiClient, err := openai.NewClient(log)
	if err != nil {
		_ = sessions.Close()
		return Clients{}, fmt.Errorf("init openai client: %w", err)
	}
	mail, err := sendgrid.NewFromEnv(log)
	if err != nil {
		_ = sessions.Close()
		return Clients{}, fmt.Errorf("init sendgrid client: %w", err)
	}

	out := Clients{Bucket: bucket, Sessions: sessions, OpenAI: openaiClient, Mail: mail}
	if !cfg.GCPEnabled {
		log.Info("GCP credentials not configured; OCR and transcription disabled")
		return out, nil
	}

	// A failing GCP client degrades its feature instead of stopping startup.
	if v, err := gcp.NewVision(log); err != nil {
		log.Warn("Vision client unavailable", "error", err)
	} else {
		out.Vision = v
	}
	if d, err := gcp.NewDocument(log); err != nil {
		log.Warn("Document AI client unavailable", "error", err)
	} else if d != nil {
		out.Document = d
	}
	if s, err := gcp.NewSpeech(log, cfg.LanguageCode); err != nil {
		log.Warn("Speech client unavailable", "error", err)
	} else {
		out.Speech = s
	}
	if v, err := gcp.NewVideo(log, cfg.LanguageCode); err != nil {
		log.Warn("Video Intelligence client unavailable", "error", err)
	} else {
		out.Video = v
	}
	return out, nil
}

// Extractor builds the text extractor over whichever OCR clients are available.
func (c Clients) Extractor(log *logger.Logger) *extractor.Extractor {
	var vision extractor.ImageOCR
	if c.Vision != nil {
		vision = c.Vision
	}
	var docAI extractor.DocumentOCR
	if c.Document != nil {
		docAI = c.Document
	}
	return extractor.New(log, vision, docAI)
}

func (c Clients) Close() {
	if c.Sessions != nil {
		_ = c.Sessions.Close()
	}
	for _, closer := range []interface{ Close() error }{c.Vision, c.Document, c.Speech, c.Video} {
		if closer != nil {
			_ = closer.Close()
		}
	}
}
