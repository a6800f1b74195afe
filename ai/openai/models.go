package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// modelList is the OpenAI-compatible GET /v1/models response shape.
type modelList struct {
	Data []modelEntry `json:"data"`
}

type modelEntry struct {
	ID string `json:"id"`
}

// listModels fetches the model identifiers available at the endpoint.
// langchaingo exposes no model-listing call, so this goes straight to the
// OpenAI-compatible listing route.
func listModels(ctx context.Context, host string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, host+"/models", nil)
	if err != nil {
		return nil, err
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("listing models at %s: %w", host, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("listing models at %s: unexpected status %d", host, resp.StatusCode)
	}

	var list modelList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("decoding model list: %w", err)
	}

	ids := make([]string, len(list.Data))
	for i, entry := range list.Data {
		ids[i] = entry.ID
	}
	return ids, nil
}
