package moderation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/cursada/planner-api/pkg/config"
)

const prompt = `Sos moderador de una app universitaria argentina donde estudiantes opinan sobre materias y comparten temas de examen.
Rechazá insultos, acoso, discriminación, datos personales de terceros o contenido sexual. Aceptá críticas duras a una cátedra si son respetuosas.
Respondé únicamente con JSON: {"approved": true|false, "reason": "<motivo breve en español si se rechaza>"}.
Autor: %s
Texto: """%s"""`

// generator is the subset of *genai.GenerativeModel used here.
type generator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// GeminiModerator asks a Gemini model for a verdict.
type GeminiModerator struct {
	client  *genai.Client
	model   generator
	timeout time.Duration
}

// NewGemini connects to the Gemini API. A missing key is a configuration error.
func NewGemini(ctx context.Context, cfg config.ModerationConfig) (*GeminiModerator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("moderation api key not configured")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	model := client.GenerativeModel(cfg.Model)
	model.SetTemperature(0)
	model.ResponseMIMEType = "application/json"
	return &GeminiModerator{client: client, model: model, timeout: cfg.Timeout}, nil
}

// Review implements Moderator under the configured timeout.
func (g *GeminiModerator) Review(ctx context.Context, text, author string) (Verdict, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	resp, err := g.model.GenerateContent(ctx, genai.Text(fmt.Sprintf(prompt, author, text)))
	if err != nil {
		return Verdict{}, fmt.Errorf("gemini generate: %w", err)
	}
	return ParseVerdict(responseText(resp))
}

// Close releases the underlying client.
func (g *GeminiModerator) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
		break
	}
	return b.String()
}
