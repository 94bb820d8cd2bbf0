package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/spacesedan/sentiscope/internal/models"
)

// HuggingFaceClient talks to the Hugging Face inference API. One client is
// shared by every model the process serves.
type HuggingFaceClient struct {
	Client         *http.Client
	BaseURL        string
	Token          string
	MaxRetries     int
	InitialBackoff time.Duration
}

func NewHuggingFaceClient(baseURL, token string, timeout time.Duration) *HuggingFaceClient {
	slog.Info("[HuggingFaceClient] Initializing Client",
		slog.Duration("timeout", timeout),
		slog.String("base_url", baseURL))

	return &HuggingFaceClient{
		Client: &http.Client{
			Timeout: timeout,
		},
		BaseURL:        strings.TrimRight(baseURL, "/"),
		Token:          token,
		MaxRetries:     MAX_RETRIES,
		InitialBackoff: INITIAL_BACKOFF,
	}
}

type classificationRequest struct {
	Inputs     string                   `json:"inputs"`
	Parameters classificationParameters `json:"parameters"`
	Options    classificationOptions    `json:"options"`
}

// top_k above the label count returns every label
type classificationParameters struct {
	TopK int `json:"top_k"`
}

type classificationOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

type apiError struct {
	Error string `json:"error"`
}

// Classifier returns a handle bound to one model on this client
func (h *HuggingFaceClient) Classifier(model string) *HuggingFaceClassifier {
	return &HuggingFaceClassifier{
		client:   h,
		model:    model,
		endpoint: h.BaseURL + "/" + model,
	}
}

// HuggingFaceClassifier runs text classification against a single hosted model
type HuggingFaceClassifier struct {
	client   *HuggingFaceClient
	model    string
	endpoint string
}

func (c *HuggingFaceClassifier) Model() string {
	return c.model
}

// Classify sends text to the model once and returns the score of every label.
func (c *HuggingFaceClassifier) Classify(ctx context.Context, text string) ([]models.ClassificationResult, error) {
	start := time.Now()

	resp, err := c.client.do(ctx, c.endpoint, text)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	results, err := decodeClassification(resp)
	if err != nil {
		slog.Error("[HuggingFaceClient] Classification request failed",
			slog.String("model", c.model),
			slog.Duration("elapsed", time.Since(start)),
			slog.String("error", err.Error()))
		return nil, err
	}

	slog.Debug("[HuggingFaceClient] Classification request successful",
		slog.String("model", c.model),
		slog.Int("labels", len(results)),
		slog.Duration("elapsed", time.Since(start)))
	return results, nil
}

// Warmup calls the model until it answers, backing off while the hosted
// model is still loading (5xx responses).
func (c *HuggingFaceClassifier) Warmup(ctx context.Context) error {
	resp, err := c.client.DoWithRetry(ctx, func() (*http.Request, error) {
		return c.client.newRequest(ctx, c.endpoint, "warmup")
	})
	if err != nil {
		return fmt.Errorf("warmup of %s failed: %w", c.model, err)
	}
	defer resp.Body.Close()

	if _, err := decodeClassification(resp); err != nil {
		return fmt.Errorf("warmup of %s failed: %w", c.model, err)
	}

	slog.Info("[HuggingFaceClient] Model ready", slog.String("model", c.model))
	return nil
}

func (h *HuggingFaceClient) DoWithRetry(ctx context.Context, build func() (*http.Request, error)) (*http.Response, error) {
	var resp *http.Response
	var err error
	backoff := h.InitialBackoff

	for attempt := 0; attempt < h.MaxRetries; attempt++ {
		req, buildErr := build()
		if buildErr != nil {
			return nil, buildErr
		}

		resp, err = h.Client.Do(req)
		if err == nil && resp.StatusCode < 500 {
			return resp, nil
		}

		slog.Warn("[HuggingFaceClient] Request failed, will retry",
			slog.Int("attempt", attempt+1),
			slog.String("error", errMsg(err, resp)))

		if resp != nil {
			resp.Body.Close()
		}

		if attempt == h.MaxRetries-1 {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, MAX_BACKOFF)
	}

	if err == nil {
		err = fmt.Errorf("status code %d after %d attempts", resp.StatusCode, h.MaxRetries)
	}
	return nil, err
}

func (h *HuggingFaceClient) do(ctx context.Context, endpoint, text string) (*http.Response, error) {
	req, err := h.newRequest(ctx, endpoint, text)
	if err != nil {
		return nil, err
	}

	resp, err := h.Client.Do(req)
	if err != nil {
		slog.Error("[HuggingFaceClient] Request failed",
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

func (h *HuggingFaceClient) newRequest(ctx context.Context, endpoint, text string) (*http.Request, error) {
	body, err := json.Marshal(classificationRequest{
		Inputs:     text,
		Parameters: classificationParameters{TopK: CLASSIFICATION_TOP_K},
		Options:    classificationOptions{WaitForModel: true},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal input: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", USER_AGENT)
	if h.Token != "" {
		req.Header.Set("Authorization", "Bearer "+h.Token)
	}
	return req, nil
}

// decodeClassification accepts both the batched [[{label,score}]] and the flat
// [{label,score}] response shapes.
func decodeClassification(resp *http.Response) ([]models.ClassificationResult, error) {
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr apiError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("inference endpoint returned status %d: %s", resp.StatusCode, apiErr.Error)
		}
		return nil, fmt.Errorf("inference endpoint returned status %d: %s", resp.StatusCode, preview(respBody))
	}

	var nested [][]models.ClassificationResult
	if err := json.Unmarshal(respBody, &nested); err == nil {
		if len(nested) == 0 || len(nested[0]) == 0 {
			return nil, errors.New("inference endpoint returned no labels")
		}
		return nested[0], nil
	}

	var flat []models.ClassificationResult
	if err := json.Unmarshal(respBody, &flat); err != nil {
		slog.Error("[HuggingFaceClient] Failed to unmarshal response",
			slog.String("error", err.Error()),
			getPreview(respBody),
			slog.Int("raw_response_length", len(respBody)))
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(flat) == 0 {
		return nil, errors.New("inference endpoint returned no labels")
	}
	return flat, nil
}

func preview(respBody []byte) string {
	raw := string(respBody)
	if len(raw) > 50 {
		raw = raw[:50]
	}
	return raw
}

func getPreview(respBody []byte) slog.Attr {
	return slog.String("raw_response", preview(respBody))
}

func errMsg(err error, resp *http.Response) string {
	if err != nil {
		return err.Error()
	}
	if resp != nil {
		return fmt.Sprintf("status code %d", resp.StatusCode)
	}
	return "unknown error"
}
