package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	opsdesk_errors "github.com/opsdesk/opsdesk/errors"
	"github.com/opsdesk/opsdesk/interfaces"
	"github.com/opsdesk/opsdesk/internal/models"
	"github.com/opsdesk/opsdesk/internal/tracing"
)

const defaultModel = "mistral"

type ollamaService struct {
	apiKeys    interfaces.APIKeyRepository
	httpClient *http.Client
	model      string
}

func NewOllamaService(apiKeys interfaces.APIKeyRepository) interfaces.AIService {
	return &ollamaService{
		apiKeys: apiKeys,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		model: defaultModel,
	}
}

func (s *ollamaService) Summarize(ctx context.Context, text string) (string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ollamaService.Summarize")
	defer span.Finish()
	tracing.TagComponentService(span)

	prompt := fmt.Sprintf("Summarize the following text, taking into account the provided context:\n\n%s", text)
	result, err := s.generate(ctx, prompt)
	if err != nil {
		tracing.TraceErr(span, err)
		return "", err
	}
	return result, nil
}

func (s *ollamaService) Sanitize(ctx context.Context, text string) (string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ollamaService.Sanitize")
	defer span.Finish()
	tracing.TagComponentService(span)

	prompt := fmt.Sprintf("Remove all personally identifiable information (PII) from the following text, "+
		"replacing it with placeholders like [NAME], [EMAIL], [PHONE], etc.:\n\n%s", text)
	result, err := s.generate(ctx, prompt)
	if err != nil {
		tracing.TraceErr(span, err)
		return "", err
	}
	return result, nil
}

func (s *ollamaService) ChatWithContext(ctx context.Context, contextText, question string) (string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ollamaService.ChatWithContext")
	defer span.Finish()
	tracing.TagComponentService(span)

	prompt := fmt.Sprintf("Based on the following context, answer the user's question.\n\nContext:\n%s\n\nQuestion: %s",
		contextText, question)
	result, err := s.generate(ctx, prompt)
	if err != nil {
		tracing.TraceErr(span, err)
		return "", err
	}
	return result, nil
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type generateChunk struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// generate posts a prompt to the /api/generate endpoint and concatenates
// the streamed NDJSON response chunks.
func (s *ollamaService) generate(ctx context.Context, prompt string) (string, error) {
	endpoint, err := s.endpoint(ctx)
	if err != nil {
		return "", err
	}

	payload, err := json.Marshal(generateRequest{Model: s.model, Prompt: prompt})
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal payload")
	}

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint+"/api/generate", bytes.NewBuffer(payload))
	if err != nil {
		return "", errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("request failed with status code %d: %s", resp.StatusCode, string(body))
	}

	var result strings.Builder
	decoder := json.NewDecoder(resp.Body)
	for {
		var chunk generateChunk
		if err := decoder.Decode(&chunk); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return "", errors.Wrap(err, "failed to decode response stream")
		}
		result.WriteString(chunk.Response)
		if chunk.Done {
			break
		}
	}

	return result.String(), nil
}

// endpoint resolves the Ollama base URL from the api_keys table on every
// call, so a settings change takes effect without a restart.
func (s *ollamaService) endpoint(ctx context.Context) (string, error) {
	key, err := s.apiKeys.GetByService(ctx, models.ServiceOllama)
	if err != nil {
		return "", err
	}
	if key == nil || key.APIEndpoint == "" {
		return "", errors.Wrap(opsdesk_errors.ErrCredentialsNotFound, models.ServiceOllama)
	}
	return strings.TrimRight(key.APIEndpoint, "/"), nil
}
