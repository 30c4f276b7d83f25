package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/nhle/neuralmail/internal/sanitize"
)

// OllamaTransport speaks the Ollama /api/generate protocol over plain HTTP.
type OllamaTransport struct {
	client *http.Client
}

// NewOllamaTransport returns a transport using client, or a default client
// when nil. Deadlines come from the request context, not the client.
func NewOllamaTransport(client *http.Client) *OllamaTransport {
	if client == nil {
		client = &http.Client{}
	}
	return &OllamaTransport{client: client}
}

type generateResponse struct {
	Response *string `json:"response"`
}

// Generate posts req to endpoint and returns the "response" field.
func (t *OllamaTransport) Generate(
	ctx context.Context,
	endpoint string,
	req Request,
) (string, error) {
	req.Stream = false

	bodyBytes, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes),
	)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("calling %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("generate error (%d): %s", resp.StatusCode, truncateBody(respBody))
	}

	var result generateResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if result.Response == nil {
		return "", nil
	}

	return *result.Response, nil
}

// truncateBody shortens an error body to a loggable length without
// splitting a rune.
func truncateBody(b []byte) string {
	s := string(b)
	if short := sanitize.Truncate(s, 256); short != s {
		return short + "..."
	}
	return s
}
