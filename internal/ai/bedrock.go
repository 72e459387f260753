package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/google/uuid"

	"github.com/invoiceworks/invoice-pipeline/constants"
)

// BedrockAPI is the slice of the Bedrock runtime client we invoke.
type BedrockAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// Client re-extracts invoice fields from raw text with a Claude model on
// Bedrock. Its output is a candidate map the reconciler treats as untrusted.
type Client struct {
	api       BedrockAPI
	modelID   string
	maxTokens int32
	logger    *slog.Logger
}

func NewClient(api BedrockAPI, modelID string, maxTokens int32, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if maxTokens <= 0 {
		maxTokens = 500
	}
	return &Client{api: api, modelID: modelID, maxTokens: maxTokens, logger: logger}
}

// FailedCandidates is the sentinel the reconciler recognizes as "the AI pass
// did not produce a usable result".
func FailedCandidates() map[string]any {
	return map[string]any{"extraction_method": string(constants.MethodBedrockFailed)}
}

var jsonBlob = regexp.MustCompile(`(?s)\{.*\}`)

// ExtractCandidates invokes the model over the (truncated) raw text and
// returns the candidate field map. Transport and API errors are returned raw
// so the caller's resilience wrapper can classify and retry them; a response
// that arrives but cannot be parsed degrades to the failure sentinel instead,
// since retrying malformed model output buys nothing.
func (c *Client) ExtractCandidates(ctx context.Context, rawText string) (map[string]any, error) {
	rid := uuid.New().String()
	start := time.Now()

	limited := rawText
	if len(limited) > constants.PromptTextLimit {
		limited = limited[:constants.PromptTextLimit]
	}

	body, err := json.Marshal(map[string]any{
		"anthropic_version": "bedrock-2023-05-31",
		"max_tokens":        c.maxTokens,
		"messages": []map[string]any{
			{"role": "user", "content": buildPrompt(limited)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	c.logger.Info("ai.extract.start", "req_id", rid, "model", c.modelID, "text_len", len(limited))

	out, err := c.api.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(c.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		c.logger.Error("ai.extract.invoke_error",
			"req_id", rid, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, fmt.Errorf("invoke model: %w", err)
	}

	candidates, ok := c.parseResponse(rid, out.Body)
	if !ok {
		return FailedCandidates(), nil
	}

	candidates["extraction_method"] = string(constants.MethodBedrockAI)
	c.logger.Info("ai.extract.ok",
		"req_id", rid, "fields", len(candidates)-1, "elapsed_ms", time.Since(start).Milliseconds())
	return candidates, nil
}

// parseResponse digs the JSON blob out of the model's text content, then
// sanitizes and schema-validates it.
func (c *Client) parseResponse(rid string, body []byte) (map[string]any, bool) {
	var resp struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(body, &resp); err != nil || len(resp.Content) == 0 {
		c.logger.Warn("ai.extract.decode_error", "req_id", rid, "error", err)
		return nil, false
	}

	blob := jsonBlob.FindString(resp.Content[0].Text)
	if blob == "" {
		c.logger.Warn("ai.extract.no_json_in_response", "req_id", rid)
		return nil, false
	}

	cleaned, _, err := NormalizeCandidateJSON([]byte(blob), c.logger)
	if err != nil {
		c.logger.Warn("ai.extract.sanitize_failed", "req_id", rid, "error", err)
		return nil, false
	}
	if err := ValidateCandidateJSON(cleaned); err != nil {
		c.logger.Warn("ai.extract.schema_validation_failed", "req_id", rid, "error", err)
		return nil, false
	}

	var candidates map[string]any
	if err := json.Unmarshal(cleaned, &candidates); err != nil {
		c.logger.Warn("ai.extract.unmarshal_failed", "req_id", rid, "error", err)
		return nil, false
	}
	return candidates, true
}

func buildPrompt(text string) string {
	return `Extract invoice information from this text and return ONLY valid JSON:

{
    "vendor": "company name that issued the invoice",
    "amount": 0.00,
    "date": "YYYY-MM-DD",
    "invoice_number": "invoice number",
    "tax_amount": 0.00,
    "currency": "USD",
    "line_items": [
        {"description": "item description", "amount": 0.00}
    ]
}

Text: ` + text
}
