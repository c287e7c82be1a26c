// Package speech is the HTTP client for the recognition gateway. Every
// request carries a fresh signed header set; responses map to utterances
// ready for cue allocation.
package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ershuai-acc/audio2video/internal/sign"
	"github.com/ershuai-acc/audio2video/internal/subtitle"
)

type ObserverFunc func(endpoint string, status int, duration time.Duration)

type Option func(*Client)

type Client struct {
	baseURL    string
	creds      sign.Credentials
	httpClient *http.Client
	observer   ObserverFunc
}

// Error is a non-2xx gateway response. The body is kept verbatim so the
// caller sees exactly what the backend said.
type Error struct {
	StatusCode int
	Body       string
}

func (e *Error) Error() string {
	return fmt.Sprintf("speech gateway request failed with status %d", e.StatusCode)
}

// Result is a parsed recognition response.
type Result struct {
	Text       string
	DurationMS int64
	Utterances []subtitle.Utterance
}

type recognizeRequest struct {
	AudioData  string `json:"audio_data"`
	EnablePunc bool   `json:"enable_punc"`
	EnableITN  bool   `json:"enable_itn"`
}

type recognizeResponse struct {
	Data struct {
		Text       string               `json:"text"`
		Duration   int64                `json:"duration"`
		Utterances []subtitle.Utterance `json:"utterances"`
	} `json:"data"`
}

func WithObserver(observer ObserverFunc) Option {
	return func(c *Client) {
		c.observer = observer
	}
}

func New(baseURL string, creds sign.Credentials, httpClient *http.Client, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		creds:      creds,
		httpClient: httpClient,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Recognize submits raw audio for transcription. Punctuation and inverse
// text normalization are always requested; captions read poorly without
// them.
func (c *Client) Recognize(ctx context.Context, audio []byte) (Result, error) {
	started := time.Now()
	statusCode := 0
	defer func() { c.observe("recognize", statusCode, time.Since(started)) }()

	payload, err := json.Marshal(recognizeRequest{
		AudioData:  base64.StdEncoding.EncodeToString(audio),
		EnablePunc: true,
		EnableITN:  true,
	})
	if err != nil {
		return Result{}, err
	}

	path := c.creds.GatewayPath
	if path == "" {
		path = "/api/v1/asr"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return Result{}, err
	}
	headers, err := sign.Sign(c.creds, http.MethodPost, path)
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-App-Id", headers.AppID)
	req.Header.Set("X-Timestamp", headers.Timestamp)
	req.Header.Set("X-Nonce", headers.Nonce)
	req.Header.Set("X-Signature", headers.Signature)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()
	statusCode = resp.StatusCode

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{}, &Error{StatusCode: resp.StatusCode, Body: truncateBody(string(respBody))}
	}

	var parsed recognizeResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return Result{}, fmt.Errorf("invalid recognition response: %w", err)
	}
	return Result{
		Text:       parsed.Data.Text,
		DurationMS: parsed.Data.Duration,
		Utterances: parsed.Data.Utterances,
	}, nil
}

func (c *Client) observe(endpoint string, status int, duration time.Duration) {
	if c.observer != nil {
		c.observer(endpoint, status, duration)
	}
}

func truncateBody(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= 4096 {
		return s
	}
	return s[:4096] + "..."
}
