package gemini

import (
	"context"
	"fmt"
	"strings"

	"mindstorm-be/pkg/llm"

	"google.golang.org/genai"
)

const (
	DefaultModel      = "gemini-2.5-flash"
	DefaultImageModel = "imagen-3.0-generate-002"
)

// GeminiProvider talks to the Gemini API through the official genai SDK.
type GeminiProvider struct {
	client     *genai.Client
	model      string
	imageModel string
}

var _ llm.LLMProvider = &GeminiProvider{}

func NewGeminiProvider(ctx context.Context, apiKey, model, imageModel string) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if model == "" {
		model = DefaultModel
	}
	if imageModel == "" {
		imageModel = DefaultImageModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	return &GeminiProvider{
		client:     client,
		model:      model,
		imageModel: imageModel,
	}, nil
}

func (g *GeminiProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	contents, cfg, model := g.prepare(history, options)
	res, err := g.client.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}
	return res.Text(), nil
}

func (g *GeminiProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return g.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, options...)
}

func (g *GeminiProvider) Structured(ctx context.Context, history []llm.Message, schema *llm.Schema, out any, options ...llm.Option) error {
	contents, cfg, model := g.prepare(history, options)
	cfg.ResponseMIMEType = "application/json"
	cfg.ResponseSchema = toGenaiSchema(schema)

	res, err := g.client.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return fmt.Errorf("gemini structured generate: %w", err)
	}
	return llm.DecodeStructured(res.Text(), schema, out)
}

func (g *GeminiProvider) Image(ctx context.Context, prompt string) (*llm.ImageResult, error) {
	res, err := g.client.Models.GenerateImages(ctx, g.imageModel, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini generate images: %w", err)
	}
	if len(res.GeneratedImages) == 0 || res.GeneratedImages[0].Image == nil {
		return nil, fmt.Errorf("gemini returned no image")
	}
	img := res.GeneratedImages[0].Image
	mime := img.MIMEType
	if mime == "" {
		mime = "image/png"
	}
	return &llm.ImageResult{Data: img.ImageBytes, MIMEType: mime}, nil
}

// prepare splits system messages into SystemInstruction and maps the rest to genai roles.
func (g *GeminiProvider) prepare(history []llm.Message, options []llm.Option) ([]*genai.Content, *genai.GenerateContentConfig, string) {
	opts := &llm.Options{Temperature: 0.7}
	for _, o := range options {
		o(opts)
	}

	var system []string
	contents := make([]*genai.Content, 0, len(history))
	for _, m := range history {
		switch m.Role {
		case llm.RoleSystem:
			system = append(system, m.Content)
		case llm.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}

	temp := float32(opts.Temperature)
	cfg := &genai.GenerateContentConfig{
		Temperature: &temp,
	}
	if opts.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(opts.MaxTokens)
	}
	if len(system) > 0 {
		cfg.SystemInstruction = genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser)
	}

	model := g.model
	if opts.Model != "" {
		model = opts.Model
	}
	return contents, cfg, model
}

func toGenaiSchema(s *llm.Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Description: s.Description,
		Required:    s.Required,
		Items:       toGenaiSchema(s.Items),
		MinItems:    s.MinItems,
		MaxItems:    s.MaxItems,
	}
	switch s.Type {
	case llm.TypeObject:
		out.Type = genai.TypeObject
	case llm.TypeArray:
		out.Type = genai.TypeArray
	case llm.TypeNumber:
		out.Type = genai.TypeNumber
	case llm.TypeInteger:
		out.Type = genai.TypeInteger
	case llm.TypeBoolean:
		out.Type = genai.TypeBoolean
	default:
		out.Type = genai.TypeString
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = toGenaiSchema(prop)
		}
	}
	return out
}
