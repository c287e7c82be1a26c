package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ershuai-acc/audio2video/internal/config"
	"github.com/ershuai-acc/audio2video/internal/cover"
	"github.com/ershuai-acc/audio2video/internal/media"
	"github.com/ershuai-acc/audio2video/internal/upstream/speech"
	"github.com/ershuai-acc/audio2video/internal/video"
)

type stubVideo struct {
	createResult   video.CreateResult
	createErr      error
	createInput    video.CreateInput
	audioBody      string
	subtitleResult video.SubtitleResult
	subtitleErr    error
}

func (s *stubVideo) Create(_ context.Context, in video.CreateInput) (video.CreateResult, error) {
	s.createInput = in
	if in.Audio != nil {
		body, _ := io.ReadAll(in.Audio)
		s.audioBody = string(body)
	}
	return s.createResult, s.createErr
}

func (s *stubVideo) Subtitle(_ context.Context, in video.SubtitleInput) (video.SubtitleResult, error) {
	return s.subtitleResult, s.subtitleErr
}

type stubCover struct {
	result cover.Result
	err    error
	input  cover.Input
}

func (s *stubCover) Generate(_ context.Context, in cover.Input) (cover.Result, error) {
	s.input = in
	return s.result, s.err
}

func newTestHandler(t *testing.T, deps Dependencies) http.Handler {
	t.Helper()
	if deps.Video == nil {
		deps.Video = &stubVideo{}
	}
	if deps.Cover == nil {
		deps.Cover = &stubCover{}
	}
	cfg := config.Config{
		MaxUploadBytes: 1024 * 1024,
		DefaultAspect:  "9:16",
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(cfg, logger, deps)
}

func multipartBody(t *testing.T, files map[string]string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for field, content := range files {
		part, err := w.CreateFormFile(field, field+".bin")
		if err != nil {
			t.Fatal(err)
		}
		_, _ = io.WriteString(part, content)
	}
	for k, v := range fields {
		_ = w.WriteField(k, v)
	}
	_ = w.Close()
	return &buf, w.FormDataContentType()
}

func TestHealthz(t *testing.T) {
	h := newTestHandler(t, Dependencies{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestReadyzReportsRecognizerAvailability(t *testing.T) {
	h := newTestHandler(t, Dependencies{Recognizer: true})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Recognizer bool `json:"recognizer"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if !body.Recognizer {
		t.Fatal("expected recognizer: true")
	}
}

func TestCreateVideoHappyPath(t *testing.T) {
	stub := &stubVideo{createResult: video.CreateResult{
		VideoPath:    "/data/videos/audio2video_story.mp4",
		SubtitlePath: "/data/subtitles/x.srt",
		DurationMS:   4000,
		CueCount:     2,
	}}
	h := newTestHandler(t, Dependencies{Video: stub})

	body, contentType := multipartBody(t,
		map[string]string{"audio": "audio-bytes", "image": "image-bytes"},
		map[string]string{"subtitle_text": "Hello\nWorld", "aspect": "16:9", "font_size": "32"},
	)
	req := httptest.NewRequest(http.MethodPost, "/v1/videos", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if stub.audioBody != "audio-bytes" {
		t.Fatalf("audio body = %q", stub.audioBody)
	}
	if stub.createInput.Aspect != "16:9" || stub.createInput.Style.FontSize != 32 {
		t.Fatalf("unexpected input: %+v", stub.createInput)
	}
	if !stub.createInput.Subtitles {
		t.Fatal("subtitles should default to enabled")
	}
	var resp struct {
		VideoPath  string `json:"video_path"`
		DurationMS int64  `json:"duration_ms"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.VideoPath != stub.createResult.VideoPath || resp.DurationMS != 4000 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestCreateVideoDefaultsAspect(t *testing.T) {
	stub := &stubVideo{}
	h := newTestHandler(t, Dependencies{Video: stub})

	body, contentType := multipartBody(t, map[string]string{"audio": "a", "image": "i"}, nil)
	req := httptest.NewRequest(http.MethodPost, "/v1/videos", body)
	req.Header.Set("Content-Type", contentType)
	h.ServeHTTP(httptest.NewRecorder(), req)

	if stub.createInput.Aspect != "9:16" {
		t.Fatalf("aspect = %q, want config default", stub.createInput.Aspect)
	}
}

func TestCreateVideoMissingAudio(t *testing.T) {
	h := newTestHandler(t, Dependencies{})
	body, contentType := multipartBody(t, map[string]string{"image": "i"}, nil)
	req := httptest.NewRequest(http.MethodPost, "/v1/videos", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "invalid_request") {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestCreateVideoRejectsBadStyleField(t *testing.T) {
	h := newTestHandler(t, Dependencies{})
	body, contentType := multipartBody(t, map[string]string{"audio": "a", "image": "i"}, map[string]string{"font_size": "huge"})
	req := httptest.NewRequest(http.MethodPost, "/v1/videos", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"recognizer unavailable", video.ErrRecognizerUnavailable, http.StatusServiceUnavailable, "missing_credentials"},
		{"upstream failure", &speech.Error{StatusCode: 500, Body: "boom"}, http.StatusBadGateway, "upstream_request_failed"},
		{"missing artifact", media.ErrMissingArtifact, http.StatusBadGateway, "missing_artifact"},
		{"tool failure", &media.ToolError{Tool: "ffmpeg", Err: context.DeadlineExceeded}, http.StatusBadGateway, "tool_failed"},
		{"timeout", context.DeadlineExceeded, http.StatusGatewayTimeout, "timeout"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestHandler(t, Dependencies{Video: &stubVideo{createErr: tc.err}})
			body, contentType := multipartBody(t, map[string]string{"audio": "a", "image": "i"}, nil)
			req := httptest.NewRequest(http.MethodPost, "/v1/videos", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tc.wantStatus, rec.Body.String())
			}
			if !strings.Contains(rec.Body.String(), tc.wantCode) {
				t.Fatalf("body %s missing code %q", rec.Body.String(), tc.wantCode)
			}
		})
	}
}

func TestSubtitlesEndpoint(t *testing.T) {
	stub := &stubVideo{subtitleResult: video.SubtitleResult{
		SRT:        "1\n00:00:00,000 --> 00:00:02,000\nHello\n\n",
		CueCount:   1,
		DurationMS: 2000,
	}}
	h := newTestHandler(t, Dependencies{Video: stub})

	body, contentType := multipartBody(t, map[string]string{"audio": "a"}, map[string]string{"text": "Hello"})
	req := httptest.NewRequest(http.MethodPost, "/v1/subtitles", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		SRT      string `json:"srt"`
		CueCount int    `json:"cue_count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.CueCount != 1 || !strings.HasPrefix(resp.SRT, "1\n") {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestCoversEndpoint(t *testing.T) {
	stub := &stubCover{result: cover.Result{ImagePath: "/data/covers/cover_x.png"}}
	h := newTestHandler(t, Dependencies{Cover: stub})

	req := httptest.NewRequest(http.MethodPost, "/v1/covers", strings.NewReader(`{"title":"Night Tales"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if stub.input.Title != "Night Tales" || stub.input.Aspect != "9:16" {
		t.Fatalf("unexpected input: %+v", stub.input)
	}
}

func TestCoversRejectsInvalidJSON(t *testing.T) {
	h := newTestHandler(t, Dependencies{})
	req := httptest.NewRequest(http.MethodPost, "/v1/covers", strings.NewReader(`{"title":`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestUnknownRoute(t *testing.T) {
	h := newTestHandler(t, Dependencies{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestRequestIDPropagates(t *testing.T) {
	h := newTestHandler(t, Dependencies{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "req-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-Id"); got != "req-123" {
		t.Fatalf("request id = %q", got)
	}
}
