package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"construction_estimator/internal/domain/entities"
	"construction_estimator/internal/logger"
	"construction_estimator/internal/usecase/interfaces"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
)

const (
	DefaultModel      = "claude-sonnet-4-5-20250929"
	DefaultMaxTokens  = 2048
	DefaultMaxRetries = 2

	draftTemperature = 0.2
)

var ErrMissingAPIKey = errors.New("draft generator requires an API key (set ai.api_key in config or ANTHROPIC_API_KEY)")

// Settings configures the Anthropic-backed draft generator.
type Settings struct {
	APIKey     string
	Model      string
	MaxTokens  int64
	MaxRetries int
	// BaseURL overrides the API endpoint (proxies, tests).
	BaseURL string
}

// AnthropicDrafter drafts and revises estimates through the Messages API.
// Transient HTTP failures (429, 5xx, connection errors) are retried by a
// retryablehttp client; everything else surfaces as an error and the use case
// takes its fallback path.
type AnthropicDrafter struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

var _ interfaces.IDraftGenerator = (*AnthropicDrafter)(nil)

func NewAnthropicDrafter(s Settings) (*AnthropicDrafter, error) {
	apiKey := strings.TrimSpace(s.APIKey)
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	model := strings.TrimSpace(s.Model)
	if model == "" {
		model = DefaultModel
	}
	maxTokens := s.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	retries := s.MaxRetries
	if retries < 0 {
		retries = DefaultMaxRetries
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(newRetryingHTTPClient(retries)),
		option.WithMaxRetries(0),
	}
	if s.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(s.BaseURL))
	}

	return &AnthropicDrafter{
		client:    anthropic.NewClient(opts...),
		model:     model,
		maxTokens: maxTokens,
	}, nil
}

func (d *AnthropicDrafter) GenerateDraft(ctx context.Context, docs []entities.ExtractedDocument) (entities.Draft, error) {
	content := draftContent(docs)
	logger.Log.Debugf("[estimate][ai] generate draft docs=%d blocks=%d model=%s", len(docs), len(content), d.model)
	return d.draft(ctx, content)
}

func (d *AnthropicDrafter) ReviseDraft(ctx context.Context, current entities.Estimate, input string) (entities.Draft, error) {
	content, err := revisionContent(current, input)
	if err != nil {
		return entities.Draft{}, err
	}
	logger.Log.Debugf("[estimate][ai] revise draft id=%d model=%s", current.ID, d.model)
	return d.draft(ctx, content)
}

func (d *AnthropicDrafter) draft(ctx context.Context, content []anthropic.ContentBlockParamUnion) (entities.Draft, error) {
	message, err := d.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(d.model),
		MaxTokens:   d.maxTokens,
		Temperature: anthropic.Float(draftTemperature),
		System: []anthropic.TextBlockParam{
			{Text: systemPrimer},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(content...),
		},
	})
	if err != nil {
		return entities.Draft{}, fmt.Errorf("%w: anthropic: %w", interfaces.ErrCollaboratorUnavailable, err)
	}

	for _, block := range message.Content {
		if block.Type == "text" {
			logger.Log.Debugf("[estimate][ai] response size=%d tokens_in=%d tokens_out=%d", len(block.Text), message.Usage.InputTokens, message.Usage.OutputTokens)
			return parseDraft(block.Text)
		}
	}
	return entities.Draft{}, fmt.Errorf("%w: no text content in reply", ErrMalformedResponse)
}

func newRetryingHTTPClient(retries int) *http.Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = retries
	rc.Logger = retryLogger{}
	return rc.StandardClient()
}

// retryLogger routes retryablehttp's leveled logs into logrus.
type retryLogger struct{}

func (retryLogger) Error(msg string, kv ...interface{}) { logger.Log.WithFields(kvFields(kv)).Error(msg) }
func (retryLogger) Warn(msg string, kv ...interface{})  { logger.Log.WithFields(kvFields(kv)).Warn(msg) }
func (retryLogger) Info(msg string, kv ...interface{})  { logger.Log.WithFields(kvFields(kv)).Debug(msg) }
func (retryLogger) Debug(msg string, kv ...interface{}) { logger.Log.WithFields(kvFields(kv)).Debug(msg) }

func kvFields(kv []interface{}) logrus.Fields {
	f := logrus.Fields{}
	for i := 0; i+1 < len(kv); i += 2 {
		f[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return f
}
