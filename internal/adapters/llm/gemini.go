package llm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/PabloGalante/staffdesk/internal/domain"
)

type GeminiConfig struct {
	// APIKey selects the Gemini API backend. Without it Vertex AI is used.
	APIKey     string
	Project    string
	Location   string
	Model      string
	ImageModel string
}

type GeminiClient struct {
	client     *genai.Client
	modelName  string
	imageModel string
}

// NewGeminiClient creates a domain.ModelGateway backed by Gemini.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	cc := &genai.ClientConfig{APIKey: cfg.APIKey, Backend: genai.BackendGeminiAPI}
	if cfg.APIKey == "" {
		if cfg.Project == "" || cfg.Location == "" {
			return nil, fmt.Errorf("vertex backend needs a GCP project and location")
		}
		cc = &genai.ClientConfig{
			Project:  cfg.Project,
			Location: cfg.Location,
			Backend:  genai.BackendVertexAI,
		}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}
	imageModel := cfg.ImageModel
	if imageModel == "" {
		imageModel = "imagen-3.0-generate-002"
	}

	return &GeminiClient{client: client, modelName: model, imageModel: imageModel}, nil
}

func (g *GeminiClient) config(system string) *genai.GenerateContentConfig {
	temp := float32(0.7)
	topP := float32(0.9)
	return &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       &temp,
		TopP:              &topP,
		MaxOutputTokens:   8192,
	}
}

// ContinueConversation implements domain.ModelGateway.
func (g *GeminiClient) ContinueConversation(ctx context.Context, history []*domain.Message, systemInstruction string) (string, error) {
	contents := toContents(history)
	if len(contents) == 0 {
		return "", &domain.ServiceError{Op: "continue conversation", Message: "there is nothing to reply to yet"}
	}

	res, err := g.client.Models.GenerateContent(ctx, g.modelName, contents, g.config(systemInstruction))
	if err != nil {
		return "", serviceError("continue conversation", err)
	}

	text := res.Text()
	if text == "" {
		return "", &domain.ServiceError{Op: "continue conversation", Message: "the model returned an empty answer"}
	}
	return text, nil
}

// GenerateImage implements domain.ModelGateway.
func (g *GeminiClient) GenerateImage(ctx context.Context, prompt string) (*domain.GeneratedImage, error) {
	res, err := g.client.Models.GenerateImages(ctx, g.imageModel, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
	})
	if err != nil {
		return nil, serviceError("generate image", err)
	}
	if len(res.GeneratedImages) == 0 || res.GeneratedImages[0].Image == nil {
		return nil, &domain.ServiceError{Op: "generate image", Message: "no image was produced for that prompt"}
	}

	img := res.GeneratedImages[0].Image
	mimeType := img.MIMEType
	if mimeType == "" {
		mimeType = "image/png"
	}
	return &domain.GeneratedImage{
		Status:   domain.ImageReady,
		Data:     base64.StdEncoding.EncodeToString(img.ImageBytes),
		MIMEType: mimeType,
	}, nil
}

var summarySchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"title":   {Type: genai.TypeString},
		"content": {Type: genai.TypeString},
	},
	Required: []string{"title", "content"},
}

// SummarizeSession implements domain.ModelGateway.
func (g *GeminiClient) SummarizeSession(ctx context.Context, history []*domain.Message, instruction string) (domain.MinutesSummary, error) {
	cfg := g.config(instruction)
	cfg.ResponseMIMEType = "application/json"
	cfg.ResponseSchema = summarySchema

	contents := []*genai.Content{genai.NewContentFromText(Transcript(history), genai.RoleUser)}
	res, err := g.client.Models.GenerateContent(ctx, g.modelName, contents, cfg)
	if err != nil {
		return domain.MinutesSummary{}, serviceError("summarize session", err)
	}

	var out domain.MinutesSummary
	if err := json.Unmarshal([]byte(res.Text()), &out); err != nil {
		return domain.MinutesSummary{}, &domain.ServiceError{
			Op: "summarize session", Message: "the minutes came back in an unreadable format", Err: err,
		}
	}
	return out, nil
}

func serviceError(op string, err error) error {
	msg := "the AI service could not answer right now, please try again"
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		msg = "the AI service took too long to answer"
	case errors.Is(err, context.Canceled):
		msg = "the request was cancelled"
	case strings.Contains(err.Error(), "429"), strings.Contains(strings.ToLower(err.Error()), "quota"):
		msg = "the AI service is busy, please try again in a moment"
	case strings.Contains(strings.ToLower(err.Error()), "safety"):
		msg = "the AI service declined this request"
	}
	return &domain.ServiceError{Op: op, Message: msg, Err: err}
}

var _ domain.ModelGateway = (*GeminiClient)(nil)
