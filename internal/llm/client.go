package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const (
	defaultModelNameConstant          = openai.GPT4o
	apiKeyRequiredMessageConstant     = "api key required"
	promptRequiredMessageConstant     = "prompt required"
	emptyCompletionMessageConstant    = "completion returned no choices"
	completionErrorTemplateConstant   = "chat completion failed: %s"
	completerNotConfiguredMessageText = "chat completer not configured"
)

var (
	// ErrAPIKeyRequired indicates a client constructed without an API key.
	ErrAPIKeyRequired = errors.New(apiKeyRequiredMessageConstant)
	// ErrPromptRequired indicates a completion call without a user prompt.
	ErrPromptRequired = errors.New(promptRequiredMessageConstant)
	// ErrEmptyCompletion indicates a completion response without choices.
	ErrEmptyCompletion = errors.New(emptyCompletionMessageConstant)
	// ErrCompleterNotConfigured indicates a generator constructed without a completer.
	ErrCompleterNotConfigured = errors.New(completerNotConfiguredMessageText)
)

// CompletionError wraps a failed chat-completion call.
type CompletionError struct {
	Cause error
}

// Error describes the completion failure.
func (completionError CompletionError) Error() string {
	return fmt.Sprintf(completionErrorTemplateConstant, completionError.Cause)
}

// Unwrap exposes the underlying API error.
func (completionError CompletionError) Unwrap() error {
	return completionError.Cause
}

// CompletionRequest carries one prompt exchange.
type CompletionRequest struct {
	SystemInstruction string
	UserPrompt        string
	Model             string
}

// ChatCompleter produces one completion for one prompt. Client satisfies it;
// tests substitute stubs.
type ChatCompleter interface {
	Complete(executionContext context.Context, request CompletionRequest) (string, error)
}

// Client wraps the hosted chat-completion API.
type Client struct {
	apiClient *openai.Client
	modelName string
}

// NewClient constructs a completion client for the provided API key. An empty
// model selects the default.
func NewClient(apiKey string, modelName string) (*Client, error) {
	trimmedKey := strings.TrimSpace(apiKey)
	if len(trimmedKey) == 0 {
		return nil, ErrAPIKeyRequired
	}

	resolvedModel := strings.TrimSpace(modelName)
	if len(resolvedModel) == 0 {
		resolvedModel = defaultModelNameConstant
	}

	return &Client{apiClient: openai.NewClient(trimmedKey), modelName: resolvedModel}, nil
}

// Complete sends the prompt and returns the first choice's content.
func (client *Client) Complete(executionContext context.Context, request CompletionRequest) (string, error) {
	trimmedPrompt := strings.TrimSpace(request.UserPrompt)
	if len(trimmedPrompt) == 0 {
		return "", ErrPromptRequired
	}

	requestModel := strings.TrimSpace(request.Model)
	if len(requestModel) == 0 {
		requestModel = client.modelName
	}

	chatMessages := []openai.ChatCompletionMessage{}
	if len(strings.TrimSpace(request.SystemInstruction)) > 0 {
		chatMessages = append(chatMessages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: request.SystemInstruction})
	}
	chatMessages = append(chatMessages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: trimmedPrompt})

	completionResponse, completionError := client.apiClient.CreateChatCompletion(executionContext, openai.ChatCompletionRequest{
		Model:    requestModel,
		Messages: chatMessages,
	})
	if completionError != nil {
		return "", CompletionError{Cause: completionError}
	}
	if len(completionResponse.Choices) == 0 {
		return "", CompletionError{Cause: ErrEmptyCompletion}
	}

	return completionResponse.Choices[0].Message.Content, nil
}
