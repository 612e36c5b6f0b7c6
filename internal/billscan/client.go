// Package billscan calls the external bill-analysis service that turns a
// free-text note or a bill photo into pre-filled transaction fields. The
// service's reasoning is not validated here, only the response shape.
package billscan

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

var (
	// ErrMalformedResponse means the service returned a payload that
	// fails the shape check.
	ErrMalformedResponse = errors.New("malformed bill analysis response")
	// ErrEmptyInput means neither text nor image was provided.
	ErrEmptyInput = errors.New("text or image input required")
)

// TokenSource supplies the bearer credential the service requires.
type TokenSource interface {
	Token() (string, error)
}

// AnalyzeRequest carries the user input: free text, a base64 image, or both.
type AnalyzeRequest struct {
	Text  string `json:"text,omitempty"`
	Image string `json:"image,omitempty"`
}

// BillData is the service's answer, used only as a source of pre-filled
// transaction fields.
type BillData struct {
	Amount   float64 `json:"amount"`
	Category string  `json:"category"`
	Date     string  `json:"date"`
	Note     string  `json:"note"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
}

func NewClient(baseURL string, tokens TokenSource, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		tokens:     tokens,
	}
}

// Analyze posts the input to the analysis endpoint and shape-checks the
// answer. It fails fast with auth.ErrUnauthenticated when no token is
// stored, and with ErrMalformedResponse when the payload shape is wrong.
func (c *Client) Analyze(ctx context.Context, req AnalyzeRequest) (BillData, error) {
	if req.Text == "" && req.Image == "" {
		return BillData{}, ErrEmptyInput
	}

	token, err := c.tokens.Token()
	if err != nil {
		return BillData{}, err
	}

	body, err := json.Marshal(req)
	if err != nil {
		return BillData{}, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/ai/analyze-bill", bytes.NewReader(body))
	if err != nil {
		return BillData{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return BillData{}, fmt.Errorf("call bill analysis: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := readErrorMessage(resp.Body)
		slog.WarnContext(ctx, "Bill analysis request failed",
			"status", resp.StatusCode, "message", msg)
		return BillData{}, fmt.Errorf("bill analysis failed: %d %s", resp.StatusCode, msg)
	}

	// Decode loosely first so missing or mistyped fields are detected
	// instead of silently zeroed.
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return BillData{}, ErrMalformedResponse
	}

	data, ok := shapeCheck(raw)
	if !ok {
		return BillData{}, ErrMalformedResponse
	}
	return data, nil
}

// shapeCheck enforces the contract: all four fields present with the
// correct primitive types.
func shapeCheck(raw map[string]json.RawMessage) (BillData, bool) {
	var d BillData
	if !decodeField(raw, "amount", &d.Amount) {
		return BillData{}, false
	}
	if !decodeField(raw, "category", &d.Category) {
		return BillData{}, false
	}
	if !decodeField(raw, "date", &d.Date) {
		return BillData{}, false
	}
	if !decodeField(raw, "note", &d.Note) {
		return BillData{}, false
	}
	return d, true
}

func decodeField[T any](raw map[string]json.RawMessage, key string, dst *T) bool {
	msg, ok := raw[key]
	if !ok || string(msg) == "null" {
		return false
	}
	dec := json.NewDecoder(bytes.NewReader(msg))
	dec.DisallowUnknownFields()
	return dec.Decode(dst) == nil
}

func readErrorMessage(r io.Reader) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(io.LimitReader(r, 4096)).Decode(&payload); err != nil || payload.Message == "" {
		return "analysis error"
	}
	return payload.Message
}
