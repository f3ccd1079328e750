// Package openai implements the inference client against the OpenAI chat
// completion API.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"resty.dev/v3"

	"github.com/Dogebooch/doughub/internal/inference"
)

type Client struct {
	httpClient       *resty.Client
	model            string
	maxRetryAttempts uint
}

func NewClient(apiKey, model string, retryAttempts uint) *Client {
	client := resty.New()
	client.SetBaseURL("https://api.openai.com/v1")
	client.SetHeader("Authorization", "Bearer "+apiKey)
	client.SetHeader("Content-Type", "application/json")

	return &Client{
		httpClient:       client,
		model:            model,
		maxRetryAttempts: retryAttempts,
	}
}

func (client *Client) Close() error {
	return client.httpClient.Close()
}

// GetModel returns the model name configured for this client
func (client *Client) GetModel() string {
	return client.model
}

type ChatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float32   `json:"temperature,omitempty"`
}

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type ChatCompletionResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

type Choice struct {
	Index        int           `json:"index"`
	Message      ChoiceMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

type ChoiceMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// isRetryableError determines if an error should trigger a retry
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	// Retry on JSON parsing errors as they might be due to incomplete responses
	errStr := err.Error()
	if strings.Contains(errStr, "json.Unmarshal") || strings.Contains(errStr, "unexpected end of JSON input") {
		return true
	}

	// Retry on network-related errors
	if strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "i/o timeout") {
		return true
	}

	// Retry on 5xx errors (server errors)
	if strings.Contains(errStr, "response error 5") {
		return true
	}

	// Retry on rate limiting (429)
	if strings.Contains(errStr, "response error 429") {
		return true
	}

	return false
}

const generateQuestionSystemPrompt = `You write one short retention-probe question for a medical study tool.

GOAL
Return ONLY a JSON object:
{"question": "<one open question testing the core fact of the content>", "reference_answer": "<the expected answer, 1-3 sentences>"}

RULES
- Test the single most important fact of the content block, not trivia.
- The question must be answerable from the content alone.
- No text outside the JSON.`

const gradeAnswerSystemPrompt = `You grade whether a user's free-text answer matches a reference answer.

GOAL
Return ONLY a JSON object:
{"correct": true|false, "reason": "<brief explanation>"}

RULES
- Judge semantic equivalence, not wording. Synonyms and paraphrases are correct.
- A partially correct answer that captures the essential fact is correct.
- An answer that contradicts the reference or misses its core fact is incorrect.
- Booleans are true/false lowercase. No text outside the JSON.`

// GenerateQuestion implements the inference.Client interface
func (client *Client) GenerateQuestion(
	ctx context.Context,
	params inference.GenerateQuestionRequest,
) (inference.GenerateQuestionResponse, error) {
	var result inference.GenerateQuestionResponse
	userPrompt := fmt.Sprintf("Topic: %s\nBlock: %s\n\nContent:\n%s",
		params.TopicTitle, params.BlockTitle, params.BlockBody)

	if err := client.completeJSON(ctx, generateQuestionSystemPrompt, userPrompt, &result); err != nil {
		return inference.GenerateQuestionResponse{}, err
	}
	if strings.TrimSpace(result.Question) == "" {
		return inference.GenerateQuestionResponse{}, fmt.Errorf("empty question in model response")
	}
	return result, nil
}

// GradeAnswer implements the inference.Client interface
func (client *Client) GradeAnswer(
	ctx context.Context,
	params inference.GradeAnswerRequest,
) (inference.GradeAnswerResponse, error) {
	var result inference.GradeAnswerResponse
	userPrompt := fmt.Sprintf("Question: %s\nReference answer: %s\nUser answer: %s",
		params.Question, params.ReferenceAnswer, params.UserAnswer)

	if err := client.completeJSON(ctx, gradeAnswerSystemPrompt, userPrompt, &result); err != nil {
		return inference.GradeAnswerResponse{}, err
	}
	return result, nil
}

// completeJSON runs one chat completion with retries and unmarshals the JSON body
// of the first choice into out.
func (client *Client) completeJSON(ctx context.Context, systemPrompt, userPrompt string, out any) error {
	return retry.Do(
		func() error {
			content, err := client.complete(ctx, systemPrompt, userPrompt)
			if err != nil {
				if !isRetryableError(err) {
					return retry.Unrecoverable(err)
				}
				return err
			}
			if err := json.Unmarshal([]byte(extractJSONObject(content)), out); err != nil {
				slog.Default().Warn("failed to parse model response, will retry",
					slog.String("content", content),
					slog.Any("error", err),
				)
				return fmt.Errorf("json.Unmarshal(completion content) > %w", err)
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(client.maxRetryAttempts+1),
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			return retry.BackOffDelay(n, err, config)
		}),
	)
}

func (client *Client) complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	request := ChatCompletionRequest{
		Model: client.model,
		Messages: []Message{
			{Role: RoleSystem, Content: systemPrompt},
			{Role: RoleUser, Content: userPrompt},
		},
	}

	var response ChatCompletionResponse
	resp, err := client.httpClient.R().
		SetContext(ctx).
		SetBody(request).
		SetResult(&response).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("post chat completion: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("response error %d: %s", resp.StatusCode(), resp.String())
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no choices in completion response")
	}
	return response.Choices[0].Message.Content, nil
}

// extractJSONObject returns the first complete top-level JSON object in
// content, tolerating surrounding prose or code fences.
func extractJSONObject(content string) string {
	firstBrace := -1
	braceCount := 0
	inString := false
	escapeNext := false

	for i, ch := range content {
		if escapeNext {
			escapeNext = false
			continue
		}
		if ch == '\\' && inString {
			escapeNext = true
			continue
		}
		if ch == '"' {
			inString = !inString
			continue
		}

		if !inString {
			switch ch {
			case '{':
				if firstBrace == -1 {
					firstBrace = i
				}
				braceCount++
			case '}':
				braceCount--
				if braceCount == 0 && firstBrace != -1 {
					return content[firstBrace : i+1]
				}
			}
		}
	}
	return content
}
