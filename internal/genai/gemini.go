package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

const (
	geminiBaseURL  = "https://generativelanguage.googleapis.com/v1beta"
	requestTimeout = 30 * time.Second
)

// The service is pinned to deterministic output: the same goal text should
// decompose the same way on every call.
const systemInstruction = `You break a user's goal into a short ordered list of concrete tasks.
Respond with a JSON object containing a single field "tasks", an array of strings.
Do not number the tasks and do not end them with a period.
If the input is not recognizable as a goal or task description, return an empty list.`

// ErrGeneration covers upstream call failures and out-of-contract payloads.
// Callers must not persist anything when they see it.
var ErrGeneration = errors.New("task generation failed")

// Decomposition is the parsed result of one generation call. Raw is the
// verbatim JSON body the model produced, kept for auditing.
type Decomposition struct {
	Tasks []string
	Raw   json.RawMessage
}

type Decomposer interface {
	Decompose(ctx context.Context, goal string) (*Decomposition, error)
}

// Client calls the Gemini generateContent endpoint with a response schema
// constraining the output to {"tasks": [string]}.
type Client struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

func NewClient(apiKey, model string) *Client {
	return &Client{
		apiKey:  apiKey,
		model:   model,
		baseURL: geminiBaseURL,
		client:  &http.Client{Timeout: requestTimeout},
	}
}

type generateRequest struct {
	SystemInstruction *content         `json:"system_instruction,omitempty"`
	Contents          []content        `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature      float64 `json:"temperature"`
	ResponseMIMEType string  `json:"responseMimeType"`
	ResponseSchema   *schema `json:"responseSchema,omitempty"`
}

type schema struct {
	Type       string             `json:"type"`
	Properties map[string]*schema `json:"properties,omitempty"`
	Items      *schema            `json:"items,omitempty"`
	Required   []string           `json:"required,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

type geminiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

var tasksSchema = &schema{
	Type: "OBJECT",
	Properties: map[string]*schema{
		"tasks": {
			Type:  "ARRAY",
			Items: &schema{Type: "STRING"},
		},
	},
	Required: []string{"tasks"},
}

// Decompose turns goal text into an ordered list of task strings. An empty
// list is a valid outcome, not an error. Failures are reported once and not
// retried; the HTTP client's timeout bounds the call.
func (c *Client) Decompose(ctx context.Context, goal string) (*Decomposition, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("%w: GEMINI_API_KEY not set", ErrGeneration)
	}

	req := generateRequest{
		SystemInstruction: &content{Parts: []part{{Text: systemInstruction}}},
		Contents: []content{
			{Role: "user", Parts: []part{{Text: goal}}},
		},
		GenerationConfig: generationConfig{
			Temperature:      0,
			ResponseMIMEType: "application/json",
			ResponseSchema:   tasksSchema,
		},
	}

	body, err := json.Marshal(req)

	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))

	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("x-goog-api-key", c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	respBody, err := io.ReadAll(resp.Body)
	resp.Body.Close()

	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", ErrGeneration, err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr geminiError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("%w: Gemini API error (%d): %s", ErrGeneration, resp.StatusCode, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("%w: Gemini API error (%d)", ErrGeneration, resp.StatusCode)
	}

	var genResp generateResponse

	if err := json.Unmarshal(respBody, &genResp); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrGeneration, err)
	}

	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("%w: empty response", ErrGeneration)
	}

	var text strings.Builder
	for _, p := range genResp.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}

	return parseDecomposition(text.String())
}

// parseDecomposition enforces the output contract: a JSON object with exactly
// one field "tasks" holding an array of strings. Anything else fails.
func parseDecomposition(text string) (*Decomposition, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.DisallowUnknownFields()

	var payload struct {
		Tasks *[]string `json:"tasks"`
	}

	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: malformed payload: %v", ErrGeneration, err)
	}

	if payload.Tasks == nil {
		return nil, fmt.Errorf("%w: payload is missing the tasks field", ErrGeneration)
	}

	tasks := make([]string, 0, len(*payload.Tasks))
	for _, t := range *payload.Tasks {
		if cleaned := sanitizeTask(t); cleaned != "" {
			tasks = append(tasks, cleaned)
		}
	}

	return &Decomposition{Tasks: tasks, Raw: json.RawMessage(text)}, nil
}

var numberingPrefix = regexp.MustCompile(`^\d+[.)]\s*`)

// sanitizeTask enforces the formatting contract on a single task string: no
// leading "1." style numbering, no trailing period. Order alone carries the
// sequence information.
func sanitizeTask(t string) string {
	t = strings.TrimSpace(t)
	t = numberingPrefix.ReplaceAllString(t, "")
	t = strings.TrimRight(t, ".")
	return strings.TrimSpace(t)
}
