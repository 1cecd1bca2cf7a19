package assign

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/twcfin/invoice-pipeline/internal/rules"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// ChatCompleter is the slice of the OpenAI client the classifier needs.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Classifier asks the language model for a best-effort accountant assignment
// when no deterministic rule applied.
type Classifier struct {
	client    ChatCompleter
	model     string
	maxTokens int
	logger    *zap.Logger
}

// NewClassifier creates a Classifier backed by client.
func NewClassifier(client ChatCompleter, model string, logger *zap.Logger) *Classifier {
	return &Classifier{
		client:    client,
		model:     model,
		maxTokens: 200,
		logger:    logger,
	}
}

// Classify sends the rule set and the two input values to the model and
// parses its response. The response must be exactly one JSON object with the
// keys accountant, rule_matched, and confidence; anything else is an error,
// never a synthesized assignment.
func (c *Classifier) Classify(ctx context.Context, vendorName, invoiceNumber string, ruleSet []rules.Rule) (*Assignment, error) {
	prompt, err := buildPrompt(vendorName, invoiceNumber, ruleSet)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: 0,
		MaxTokens:   c.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		c.logger.Error("Classification service call failed", zap.Error(err))
		return nil, fmt.Errorf("classification service call failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from classification service")
	}

	assignment, err := parseAssignment(resp.Choices[0].Message.Content)
	if err != nil {
		c.logger.Error("Malformed classification response",
			zap.Error(err),
			zap.String("content", resp.Choices[0].Message.Content))
		return nil, err
	}

	c.logger.Info("Classification service returned assignment",
		zap.String("accountant", assignment.Accountant),
		zap.String("confidence", assignment.Confidence))

	return assignment, nil
}

// parseAssignment decodes a strict single-object response. Unknown keys,
// missing fields, and out-of-range confidence values all fail.
func parseAssignment(content string) (*Assignment, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(content)))
	dec.DisallowUnknownFields()

	var assignment Assignment
	if err := dec.Decode(&assignment); err != nil {
		return nil, fmt.Errorf("malformed classification response: %w", err)
	}

	if assignment.Accountant == "" {
		return nil, fmt.Errorf("malformed classification response: empty accountant")
	}
	switch assignment.Confidence {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
	default:
		return nil, fmt.Errorf("malformed classification response: confidence %q", assignment.Confidence)
	}

	return &assignment, nil
}

// buildPrompt renders the fixed instruction template with the two inputs and
// the full rule set.
func buildPrompt(vendorName, invoiceNumber string, ruleSet []rules.Rule) (string, error) {
	rulesJSON, err := json.MarshalIndent(ruleSet, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode rule set for prompt: %w", err)
	}

	return fmt.Sprintf(`Given a vendor name: %q and an invoice number: %q, determine the appropriate accountant assignment based on these rules:

%s

Rules explanation:
1. Each rule contains a rule (which can be a single letter, number, or specific vendor name) and an accountant name
2. Some rules are marked as exceptions (is_exception: true)
3. Some rules have specific invoice_pattern requirements

Assignment logic:
1. First, check for any matching exception rules (where is_exception is true)
2. Use invoice number information present in the rule if applicable
3. If no exception matches, use the standard rule based on the vendor name

Return your response as a JSON object with these fields only:
- accountant: the assigned accountant's name
- rule_matched: description of the rule that was matched
- confidence: "high" if there's a clear match, "medium" if it's a probable match, "low" if uncertain
Do not provide anything else in the response. Your response must strictly be in JSON format.

Response format:
{
    "accountant": "accountant name",
    "rule_matched": "description of the matched rule",
    "confidence": "high/medium/low"
}`, vendorName, invoiceNumber, string(rulesJSON)), nil
}
