package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"regexp"
	"strings"

	"github.com/desertthunder/classify/internal/models"
	"github.com/desertthunder/classify/internal/shared"
	openai "github.com/sashabaranov/go-openai"
)

const (
	openAIBaseURL = "https://api.openai.com/v1"

	defaultOpenAIModel       = openai.GPT3Dot5Turbo
	defaultOpenAIMaxTokens   = 50
	defaultOpenAITemperature = 0.7

	describeSystemPrompt = "You are a creative playlist name & description maker"
	describeTemplate     = `Genre: %s, Energy: %.2f, Valence: %.2f.
###
Playlist Name: <name>
Description: <description max 20 words>
###`
)

var completionPattern = regexp.MustCompile(`(?i)Playlist Name:\s*(.+?)\s*\r?\n\s*Description:\s*(.+)`)

// OpenAIService implements [Describer] over an OpenAI-compatible chat completions API.
type OpenAIService struct {
	client      *openai.Client
	baseURL     string
	model       string
	maxTokens   int
	temperature float64
}

// NewOpenAIService creates a describer. Unset settings fall back to gpt-3.5-turbo, 50 tokens and temperature 0.7.
func NewOpenAIService(cfg shared.OpenAIConfig, client *http.Client) (*OpenAIService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: openai api_key", shared.ErrMissingCredentials)
	}

	s := &OpenAIService{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: defaultOpenAITemperature,
	}
	if s.baseURL == "" {
		s.baseURL = openAIBaseURL
	}
	if s.model == "" {
		s.model = defaultOpenAIModel
	}
	if s.maxTokens <= 0 {
		s.maxTokens = defaultOpenAIMaxTokens
	}
	if cfg.Temperature != nil {
		s.temperature = *cfg.Temperature
	}

	config := openai.DefaultConfig(cfg.APIKey)
	config.BaseURL = s.baseURL
	if client != nil {
		config.HTTPClient = client
	}
	s.client = openai.NewClientWithConfig(config)

	return s, nil
}

// BuildDescribePrompt renders the user prompt; energy and valence are shown with two decimals.
func BuildDescribePrompt(genre string, energy, valence float64) string {
	return fmt.Sprintf(describeTemplate, genre, energy, valence)
}

// ParseDescription extracts the name and description from a completion.
//
// Surrounding quotes and markdown emphasis are stripped from both values.
func ParseDescription(content string) (*models.Description, error) {
	m := completionPattern.FindStringSubmatch(content)
	if m == nil {
		return nil, shared.WrapErr(shared.ErrMalformedCompletion, "unexpected completion: %q", content)
	}

	name := cleanCompletionValue(m[1])
	description := cleanCompletionValue(m[2])
	if name == "" || description == "" {
		return nil, shared.WrapErr(shared.ErrMalformedCompletion, "empty name or description")
	}

	return &models.Description{Name: name, Description: description}, nil
}

func cleanCompletionValue(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"*'`)
}

// Describe asks the model for a playlist name and description.
func (s *OpenAIService) Describe(ctx context.Context, req models.DescriptionRequest) (*models.Description, error) {
	if req.Genre == "" || req.Energy == nil || req.Valence == nil {
		return nil, shared.WrapErr(shared.ErrInvalidInput, "genre, energy, and valence are required")
	}

	content, err := s.complete(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: describeSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: BuildDescribePrompt(req.Genre, *req.Energy, *req.Valence)},
		},
		MaxTokens:   s.maxTokens,
		Temperature: requestTemperature(s.temperature),
	})
	if err != nil {
		return nil, err
	}

	return ParseDescription(content)
}

// requestTemperature converts t for the request body. The client omits a zero
// temperature, which the API reads as 1, so zero is sent as the smallest float32.
func requestTemperature(t float64) float32 {
	if t == 0 {
		return math.SmallestNonzeroFloat32
	}
	return float32(t)
}

func (s *OpenAIService) complete(ctx context.Context, body openai.ChatCompletionRequest) (string, error) {
	resp, err := s.client.CreateChatCompletion(ctx, body)
	if err != nil {
		return "", completionError(err)
	}
	if len(resp.Choices) == 0 {
		return "", shared.WrapErr(shared.ErrMalformedCompletion, "no choices returned")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// completionError maps client errors carrying an HTTP status onto [APIError].
func completionError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &APIError{Service: "openai", StatusCode: apiErr.HTTPStatusCode, Body: apiErr.Message}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return &APIError{Service: "openai", StatusCode: reqErr.HTTPStatusCode, Body: reqErr.Error()}
	}

	return fmt.Errorf("request failed: %w", err)
}
