package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Sparkonix11/Knowtopia/internal/data/repos"
	types "github.com/Sparkonix11/Knowtopia/internal/domain"
	"github.com/Sparkonix11/Knowtopia/internal/ingestion/extractor"
	"github.com/Sparkonix11/Knowtopia/internal/pkg/dbctx"
	"github.com/Sparkonix11/Knowtopia/internal/platform/apierr"
	"github.com/Sparkonix11/Knowtopia/internal/platform/gcp"
	"github.com/Sparkonix11/Knowtopia/internal/platform/logger"
	"github.com/Sparkonix11/Knowtopia/internal/platform/openai"
)

const (
	maxPromptContextRunes = 12000
	gatherConcurrency     = 4
)

type AskInput struct {
	Question    string
	MaterialIDs []uuid.UUID
	WeekID      *uuid.UUID
}

type AskResult struct {
	Topic  string `json:"topic"`
	Answer string `json:"answer"`
}

type HintInput struct {
	QuestionID *uuid.UUID
	Question   string
	Options    []string
}

type AIService interface {
	Ask(ctx context.Context, in AskInput) (*AskResult, error)
	QuestionHint(ctx context.Context, in HintInput) (string, error)
	Summarize(ctx context.Context, materialID uuid.UUID) (string, error)
}

type aiService struct {
	log     *logger.Logger
	repos   repos.Set
	owner   *ownership
	client  openai.Client
	texter  *materialTexter
	prompts *promptSet
}

func NewAIService(log *logger.Logger, r repos.Set, client openai.Client, bucket gcp.BucketService, ex *extractor.Extractor) (AIService, error) {
	prompts, err := loadPrompts(promptsYAML)
	if err != nil {
		return nil, err
	}
	serviceLog := log.With("service", "AIService")
	return &aiService{
		log:     serviceLog,
		repos:   r,
		owner:   newOwnership(r),
		client:  client,
		texter:  &materialTexter{log: serviceLog, bucket: bucket, extractor: ex},
		prompts: prompts,
	}, nil
}

// aiError hides provider failures behind a stable code.
func aiError(err error) error {
	if errors.Is(err, openai.ErrNotConfigured) {
		return apierr.New(http.StatusInternalServerError, "ai_unavailable", errors.New("AI service is not configured"))
	}
	return apierr.New(http.StatusInternalServerError, "ai_error", fmt.Errorf("AI request failed: %w", err))
}

var askSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"topic":  map[string]any{"type": "string"},
		"answer": map[string]any{"type": "string"},
	},
	"required":             []string{"topic", "answer"},
	"additionalProperties": false,
}

func (ai *aiService) Ask(ctx context.Context, in AskInput) (*AskResult, error) {
	if _, err := requestUser(ctx); err != nil {
		return nil, err
	}
	question := strings.TrimSpace(in.Question)
	if question == "" {
		return nil, apierr.BadRequest("Question is required")
	}
	materials, err := ai.askMaterials(ctx, in)
	if err != nil {
		return nil, err
	}
	background := ai.gather(ctx, materials)
	if background == "" {
		background = "(no material provided)"
	}

	system, user := ai.prompts.Ask.render(map[string]string{"question": question, "context": background})
	out, err := ai.client.GenerateJSON(ctx, system, user, "ask_answer", askSchema)
	if err != nil {
		return nil, aiError(err)
	}
	res := &AskResult{}
	res.Topic, _ = out["topic"].(string)
	res.Answer, _ = out["answer"].(string)
	res.Topic = strings.TrimSpace(res.Topic)
	res.Answer = strings.TrimSpace(res.Answer)
	if res.Answer == "" {
		return nil, aiError(errors.New("empty answer"))
	}
	return res, nil
}

func (ai *aiService) askMaterials(ctx context.Context, in AskInput) ([]*types.Material, error) {
	dbc := dbctx.Context{Ctx: ctx}
	if len(in.MaterialIDs) > 0 {
		ms, err := ai.repos.Material.GetByIDs(dbc, in.MaterialIDs)
		if err != nil {
			return nil, fmt.Errorf("load materials: %w", err)
		}
		return ms, nil
	}
	if in.WeekID != nil {
		w, err := ai.repos.Week.GetByID(dbc, *in.WeekID)
		if err != nil {
			return nil, fmt.Errorf("load week: %w", err)
		}
		if w == nil {
			return nil, apierr.NotFound(msgWeekNotFound)
		}
		ms, err := ai.repos.Material.ListByWeekIDs(dbc, []uuid.UUID{w.ID})
		if err != nil {
			return nil, fmt.Errorf("load materials: %w", err)
		}
		return ms, nil
	}
	return nil, nil
}

// gather extracts every material concurrently and joins what succeeded, in input order.
func (ai *aiService) gather(ctx context.Context, materials []*types.Material) string {
	if len(materials) == 0 {
		return ""
	}
	texts := make([]string, len(materials))
	budget := maxPromptContextRunes / len(materials)
	var mu sync.Mutex
	skipped := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(gatherConcurrency)
	for i, m := range materials {
		g.Go(func() error {
			text, err := ai.texter.Text(gctx, m)
			if err != nil {
				mu.Lock()
				skipped++
				mu.Unlock()
				ai.log.Debug("material text unavailable", "material_id", m.ID, "error", err)
				return nil
			}
			texts[i] = fmt.Sprintf("--- Content from %s ---\n%s", m.Name, ai.texter.extractor.Excerpt(text, budget))
			return nil
		})
	}
	_ = g.Wait()
	if skipped > 0 {
		ai.log.Info("some materials had no usable text", "skipped", skipped, "total", len(materials))
	}

	var parts []string
	for _, t := range texts {
		if t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n\n")
}

func (ai *aiService) QuestionHint(ctx context.Context, in HintInput) (string, error) {
	if _, err := requestUser(ctx); err != nil {
		return "", err
	}
	question := strings.TrimSpace(in.Question)
	options := in.Options
	if in.QuestionID != nil {
		q, err := ai.repos.Question.GetByID(dbctx.Context{Ctx: ctx}, *in.QuestionID)
		if err != nil {
			return "", fmt.Errorf("load question: %w", err)
		}
		if q == nil {
			return "", apierr.NotFound("Question not found")
		}
		question, options = q.QuestionDescription, q.Options()
	}
	if question == "" || len(options) == 0 {
		return "", apierr.BadRequest("Question and options are required")
	}

	system, user := ai.prompts.Hint.render(map[string]string{
		"question": question,
		"options":  strings.Join(options, ", "),
	})
	hint, err := ai.client.GenerateText(ctx, system, user)
	if err != nil {
		return "", aiError(err)
	}
	return strings.TrimSpace(hint), nil
}

func (ai *aiService) Summarize(ctx context.Context, materialID uuid.UUID) (string, error) {
	if _, err := requestUser(ctx); err != nil {
		return "", err
	}
	m, err := ai.owner.material(dbctx.Context{Ctx: ctx}, materialID)
	if err != nil {
		return "", err
	}
	text, err := ai.texter.Text(ctx, m)
	switch {
	case errors.Is(err, extractor.ErrNeedsTranscript):
		return "", apierr.BadRequest("Material has no transcript to summarize")
	case errors.Is(err, extractor.ErrNoText), errors.Is(err, extractor.ErrUnsupported):
		return "", apierr.BadRequest("No text could be extracted from this material")
	case err != nil:
		return "", err
	}

	system, user := ai.prompts.Summarize.render(map[string]string{
		"name":    m.Name,
		"context": ai.texter.extractor.Excerpt(text, maxPromptContextRunes),
	})
	summary, err := ai.client.GenerateText(ctx, system, user)
	if err != nil {
		return "", aiError(err)
	}
	return strings.TrimSpace(summary), nil
}
