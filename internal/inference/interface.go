// Package inference defines the interface to the generative-AI capability
// used for question generation and free-text grading.
package inference

import (
	"context"
)

//go:generate mockgen -source=interface.go -destination=../mocks/inference/mock_client.go -package=mock_inference

// Client interface defines the methods for AI inference operations.
// Timeout and retry policy belong to the implementation; callers treat any
// failure as "ungraded" rather than blocking.
type Client interface {
	GenerateQuestion(ctx context.Context, params GenerateQuestionRequest) (GenerateQuestionResponse, error)
	GradeAnswer(ctx context.Context, params GradeAnswerRequest) (GradeAnswerResponse, error)
}

// GenerateQuestionRequest holds the content to synthesize a retention-probe
// question from.
type GenerateQuestionRequest struct {
	TopicTitle string `json:"topic_title"`
	BlockTitle string `json:"block_title"`
	BlockBody  string `json:"block_body"`
}

// GenerateQuestionResponse is one synthesized question with its reference answer.
type GenerateQuestionResponse struct {
	Question        string `json:"question"`
	ReferenceAnswer string `json:"reference_answer"`
}

// GradeAnswerRequest holds a user answer for free-text grading.
type GradeAnswerRequest struct {
	Question        string `json:"question"`
	ReferenceAnswer string `json:"reference_answer"`
	UserAnswer      string `json:"user_answer"`
}

// GradeAnswerResponse is a single grading result.
type GradeAnswerResponse struct {
	Correct bool   `json:"correct"`
	Reason  string `json:"reason"` // Explanation of why the answer is correct or incorrect
}

const (
	DefaultMaxRetryAttempts = 3
)
