package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"github.com/cadencehq/cadence-agent/internal/domain"
)

// GeminiClient implements domain.LLMClient and domain.Embedder on Vertex
// AI (Gemini) via the genai SDK.
type GeminiClient struct {
	client     *genai.Client
	modelName  string
	embedModel string
}

// GeminiConfig carries the Vertex project settings.
type GeminiConfig struct {
	ProjectID  string
	Location   string
	ModelName  string
	EmbedModel string
}

// NewGeminiClient creates the Vertex-backed client.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	if cfg.ProjectID == "" || cfg.Location == "" {
		return nil, fmt.Errorf("gemini: project id and location must be set")
	}
	if cfg.ModelName == "" {
		cfg.ModelName = "gemini-2.5-flash"
	}
	if cfg.EmbedModel == "" {
		cfg.EmbedModel = "gemini-embedding-001"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  cfg.ProjectID,
		Location: cfg.Location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Vertex AI client: %w", err)
	}

	return &GeminiClient{
		client:     client,
		modelName:  cfg.ModelName,
		embedModel: cfg.EmbedModel,
	}, nil
}

// Chat implements domain.LLMClient.
func (g *GeminiClient) Chat(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
	contents := buildContents(req.Messages)

	temp := float32(0.7)
	topP := float32(0.9)
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(req.System, genai.RoleUser),
		Temperature:       &temp,
		TopP:              &topP,
		MaxOutputTokens:   int32(8192),
	}
	if len(req.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(req.Tools))
		for _, t := range req.Tools {
			decls = append(decls, &genai.FunctionDeclaration{
				Name:                 t.Name,
				Description:          t.Description,
				ParametersJsonSchema: t.Parameters,
			})
		}
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}

	if req.OnToken != nil {
		return g.chatStream(ctx, contents, cfg, req.OnToken)
	}

	res, err := g.client.Models.GenerateContent(ctx, g.modelName, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini generate content: %w", err)
	}
	return &domain.ChatResponse{
		Content:   res.Text(),
		ToolCalls: toToolCalls(res.FunctionCalls()),
	}, nil
}

func (g *GeminiClient) chatStream(
	ctx context.Context,
	contents []*genai.Content,
	cfg *genai.GenerateContentConfig,
	onToken func(string),
) (*domain.ChatResponse, error) {
	var content string
	var calls []*genai.FunctionCall

	for chunk, err := range g.client.Models.GenerateContentStream(ctx, g.modelName, contents, cfg) {
		if err != nil {
			return nil, fmt.Errorf("gemini stream: %w", err)
		}
		if text := chunk.Text(); text != "" {
			content += text
			onToken(text)
		}
		calls = append(calls, chunk.FunctionCalls()...)
	}

	return &domain.ChatResponse{
		Content:   content,
		ToolCalls: toToolCalls(calls),
	}, nil
}

// GenerateText implements domain.LLMClient.
func (g *GeminiClient) GenerateText(ctx context.Context, system, prompt string) (string, error) {
	temp := float32(0.7)
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       &temp,
		MaxOutputTokens:   int32(2048),
	}

	res, err := g.client.Models.GenerateContent(ctx, g.modelName,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate text: %w", err)
	}

	text := res.Text()
	if text == "" {
		return "", fmt.Errorf("gemini returned empty text")
	}
	return text, nil
}

// GenerateJSON implements domain.LLMClient using constrained JSON output.
func (g *GeminiClient) GenerateJSON(ctx context.Context, prompt string, schema map[string]any, out any) error {
	temp := float32(0.1)
	cfg := &genai.GenerateContentConfig{
		Temperature:        &temp,
		MaxOutputTokens:    int32(2048),
		ResponseMIMEType:   "application/json",
		ResponseJsonSchema: schema,
	}

	res, err := g.client.Models.GenerateContent(ctx, g.modelName,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}, cfg)
	if err != nil {
		return fmt.Errorf("gemini generate json: %w", err)
	}

	if err := json.Unmarshal([]byte(res.Text()), out); err != nil {
		return fmt.Errorf("gemini json decode: %w", err)
	}
	return nil
}

// EmbedQuery implements domain.Embedder.
func (g *GeminiClient) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return g.embed(ctx, text, "RETRIEVAL_QUERY")
}

// EmbedDocument implements domain.Embedder.
func (g *GeminiClient) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	return g.embed(ctx, text, "RETRIEVAL_DOCUMENT")
}

func (g *GeminiClient) embed(ctx context.Context, text string, task string) ([]float32, error) {
	result, err := g.client.Models.EmbedContent(ctx, g.embedModel,
		[]*genai.Content{genai.NewContentFromText(text, genai.RoleUser)},
		&genai.EmbedContentConfig{TaskType: task},
	)
	if err != nil {
		return nil, fmt.Errorf("gemini embed: %w", err)
	}
	if len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("gemini embed: no embeddings returned")
	}
	return result.Embeddings[0].Values, nil
}

// buildContents converts thread history to genai contents. Tool results
// travel back as function-response parts on the user role.
func buildContents(msgs []*domain.Message) []*genai.Content {
	var contents []*genai.Content
	for _, m := range msgs {
		switch m.Role {
		case domain.RoleAssistant:
			var parts []*genai.Part
			if m.Content != "" {
				parts = append(parts, genai.NewPartFromText(m.Content))
			}
			for _, call := range m.ToolCalls {
				parts = append(parts, genai.NewPartFromFunctionCall(call.Name, call.Args))
			}
			if len(parts) > 0 {
				contents = append(contents, genai.NewContentFromParts(parts, genai.RoleModel))
			}
		case domain.RoleTool:
			contents = append(contents, genai.NewContentFromParts(
				[]*genai.Part{genai.NewPartFromFunctionResponse(m.ToolName, map[string]any{"result": m.Content})},
				genai.RoleUser,
			))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	return contents
}

func toToolCalls(calls []*genai.FunctionCall) []domain.ToolCall {
	var out []domain.ToolCall
	for _, c := range calls {
		id := c.ID
		if id == "" {
			id = uuid.NewString()
		}
		out = append(out, domain.ToolCall{ID: id, Name: c.Name, Args: c.Args})
	}
	return out
}
