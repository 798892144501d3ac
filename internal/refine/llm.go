package refine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"vocalsub/internal/services/llm"
)

// SystemPrompt instructs the model to correct a batch of ASR lines.
const SystemPrompt = `You are a professional subtitle proofreader. The user sends a JSON array of sentences produced by speech recognition. They may contain homophone or recognition errors and usually lack punctuation.

Your task:
1. Correct recognition errors in each sentence.
2. Add appropriate punctuation so each sentence reads naturally.
3. Keep each sentence in its original language.
4. Never merge or split sentences; the output must have exactly as many entries as the input, in the same order.
5. Respond with a JSON object of the form {"lines": [...]} and nothing else.

Example input: ["how are you today", "im fine thank you"]
Example output: {"lines": ["How are you today?", "I'm fine, thank you."]}

Example input: ["今天天气真好我们去公园玩吧", "那里有很多花草"]
Example output: {"lines": ["今天天气真好，我们去公园玩吧。", "那里有很多花草。"]}`

// Completer is the subset of the LLM client used for refinement.
type Completer interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// LLMRefiner refines texts with a chat completion model.
type LLMRefiner struct {
	client Completer
}

// NewLLMRefiner wraps a completion client.
func NewLLMRefiner(client Completer) *LLMRefiner {
	return &LLMRefiner{client: client}
}

// NewClientRefiner builds an LLMRefiner from client settings. Retries are
// disabled: refinement is attempted once per run.
func NewClientRefiner(cfg llm.Config) *LLMRefiner {
	return NewLLMRefiner(llm.NewClient(cfg, llm.WithRetryMaxAttempts(1)))
}

// Refine implements Refiner.
func (r *LLMRefiner) Refine(ctx context.Context, texts []string) ([]string, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	payload, err := json.Marshal(texts)
	if err != nil {
		return nil, fmt.Errorf("encode texts: %w", err)
	}
	content, err := r.client.CompleteJSON(ctx, SystemPrompt, string(payload))
	if err != nil {
		return nil, err
	}
	return decodeLines(content)
}

// decodeLines accepts {"lines": [...]} or a bare array. Every element must
// be a JSON string.
func decodeLines(content string) ([]string, error) {
	var raw json.RawMessage
	if err := llm.DecodeLLMJSON(content, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	raw = bytes.TrimSpace(raw)

	var items []json.RawMessage
	if len(raw) > 0 && raw[0] == '{' {
		var wrapper struct {
			Lines []json.RawMessage `json:"lines"`
		}
		if err := json.Unmarshal(raw, &wrapper); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
		if wrapper.Lines == nil {
			return nil, fmt.Errorf("%w: missing \"lines\"", ErrInvalidResponse)
		}
		items = wrapper.Lines
	} else if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	lines := make([]string, len(items))
	for i, item := range items {
		if err := json.Unmarshal(item, &lines[i]); err != nil || bytes.Equal(bytes.TrimSpace(item), []byte("null")) {
			return nil, fmt.Errorf("%w: element %d is %s", ErrInvalidResponse, i, item)
		}
	}
	return lines, nil
}
