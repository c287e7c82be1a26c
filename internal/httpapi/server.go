package httpapi

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ershuai-acc/audio2video/internal/config"
	"github.com/ershuai-acc/audio2video/internal/cover"
	"github.com/ershuai-acc/audio2video/internal/media"
	"github.com/ershuai-acc/audio2video/internal/model"
	"github.com/ershuai-acc/audio2video/internal/style"
	"github.com/ershuai-acc/audio2video/internal/subtitle"
	"github.com/ershuai-acc/audio2video/internal/upstream/speech"
	"github.com/ershuai-acc/audio2video/internal/video"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

type VideoService interface {
	Create(ctx context.Context, in video.CreateInput) (video.CreateResult, error)
	Subtitle(ctx context.Context, in video.SubtitleInput) (video.SubtitleResult, error)
}

type CoverService interface {
	Generate(ctx context.Context, in cover.Input) (cover.Result, error)
}

type MetricsObserver interface {
	ObserveHTTP(route, method string, status int, duration time.Duration)
}

type Dependencies struct {
	Video          VideoService
	Cover          CoverService
	Recognizer     bool
	Metrics        MetricsObserver
	MetricsHandler http.Handler
}

type server struct {
	cfg           config.Config
	logger        *slog.Logger
	video         VideoService
	cover         CoverService
	hasRecognizer bool
	metrics       MetricsObserver
	metricsRoute  http.Handler
}

type ctxKey string

const (
	requestIDHeader  = "X-Request-Id"
	requestIDContext = ctxKey("request_id")
	maxJSONBodyBytes = 1 << 20
)

func NewServer(cfg config.Config, logger *slog.Logger, deps Dependencies) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Video == nil || deps.Cover == nil {
		panic("httpapi: all dependencies are required")
	}

	s := &server{
		cfg:           cfg,
		logger:        logger,
		video:         deps.Video,
		cover:         deps.Cover,
		hasRecognizer: deps.Recognizer,
		metrics:       deps.Metrics,
		metricsRoute:  deps.MetricsHandler,
	}

	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, http.StatusNotFound, "not_found", "route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed", nil)
	})

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)
	if s.metricsRoute != nil {
		r.Handle("/metrics", s.metricsRoute)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/videos", s.handleVideos)
		r.Post("/subtitles", s.handleSubtitles)
		r.Post("/covers", s.handleCovers)
	})

	return r
}

func (s *server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.HealthResponse{OK: true})
}

func (s *server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.ReadyResponse{
		OK:          true,
		ServiceName: "audio2video",
		Recognizer:  s.hasRecognizer,
	})
}

func (s *server) handleVideos(w http.ResponseWriter, r *http.Request) {
	form, err := s.parseMultipart(w, r)
	if err != nil {
		s.handleMultipartReadError(w, r, err)
		return
	}
	defer cleanupMultipartForm(form)

	audio, audioHeader, err := formFile(r, "audio")
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid_request", "multipart field 'audio' is required", nil)
		return
	}
	defer func() { _ = audio.Close() }()

	image, imageHeader, err := formFile(r, "image")
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid_request", "multipart field 'image' is required", nil)
		return
	}
	defer func() { _ = image.Close() }()

	styleCfg, err := styleFromForm(r)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid_request", err.Error(), nil)
		return
	}
	subtitles, err := parseOptionalBool(r.FormValue("subtitles"), true)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid_request", "subtitles must be a boolean", nil)
		return
	}

	result, err := s.video.Create(r.Context(), video.CreateInput{
		Audio:        audio,
		AudioName:    audioHeader.Filename,
		Image:        image,
		ImageName:    imageHeader.Filename,
		SubtitleText: r.FormValue("subtitle_text"),
		Aspect:       s.aspectOrDefault(r.FormValue("aspect")),
		Style:        styleCfg,
		Subtitles:    subtitles,
	})
	if err != nil {
		s.writeMappedError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, model.VideoResponse{
		VideoPath:    result.VideoPath,
		SubtitlePath: result.SubtitlePath,
		DurationMS:   result.DurationMS,
		CueCount:     result.CueCount,
		TimingsMS: model.VideoTimings{
			Captioning:  result.Timings.Captioning.Milliseconds(),
			Composition: result.Timings.Composition.Milliseconds(),
			Total:       result.Timings.Total.Milliseconds(),
		},
	})
}

func (s *server) handleSubtitles(w http.ResponseWriter, r *http.Request) {
	form, err := s.parseMultipart(w, r)
	if err != nil {
		s.handleMultipartReadError(w, r, err)
		return
	}
	defer cleanupMultipartForm(form)

	audio, audioHeader, err := formFile(r, "audio")
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid_request", "multipart field 'audio' is required", nil)
		return
	}
	defer func() { _ = audio.Close() }()

	result, err := s.video.Subtitle(r.Context(), video.SubtitleInput{
		Audio:     audio,
		AudioName: audioHeader.Filename,
		Text:      r.FormValue("text"),
	})
	if err != nil {
		s.writeMappedError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, model.SubtitleResponse{
		SRT:        result.SRT,
		CueCount:   result.CueCount,
		DurationMS: result.DurationMS,
	})
}

func (s *server) handleCovers(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	defer func() { _ = r.Body.Close() }()

	var req model.CoverRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		s.handleJSONDecodeError(w, r, err)
		return
	}

	result, err := s.cover.Generate(r.Context(), cover.Input{
		Title:  req.Title,
		Aspect: s.aspectOrDefault(req.Aspect),
		Prompt: req.Prompt,
	})
	if err != nil {
		s.writeMappedError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, model.CoverResponse{ImagePath: result.ImagePath})
}

func (s *server) parseMultipart(w http.ResponseWriter, r *http.Request) (*multipart.Form, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(minInt64(s.cfg.MaxUploadBytes, 8<<20)); err != nil {
		return r.MultipartForm, err
	}
	return r.MultipartForm, nil
}

func (s *server) aspectOrDefault(aspect string) string {
	aspect = strings.TrimSpace(aspect)
	if aspect == "" {
		return s.cfg.DefaultAspect
	}
	return aspect
}

func (s *server) handleMultipartReadError(w http.ResponseWriter, r *http.Request, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		s.writeError(w, r, http.StatusRequestEntityTooLarge, "request_too_large", fmt.Sprintf("request exceeds %d bytes", s.cfg.MaxUploadBytes), nil)
		return
	}
	s.writeError(w, r, http.StatusBadRequest, "invalid_request", "invalid multipart form data", nil)
}

func (s *server) handleJSONDecodeError(w http.ResponseWriter, r *http.Request, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		s.writeError(w, r, http.StatusRequestEntityTooLarge, "request_too_large", "JSON body too large", nil)
		return
	}
	s.writeError(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON body", nil)
}

func (s *server) writeMappedError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	code := "internal_error"
	message := "request failed"
	details := detailsForError(err)

	var upstreamErr *speech.Error
	var toolErr *media.ToolError
	switch {
	case errors.Is(err, video.ErrNoAudio), errors.Is(err, video.ErrNoImage),
		errors.Is(err, cover.ErrNoTitle), errors.Is(err, subtitle.ErrNoLines):
		status = http.StatusBadRequest
		code = "invalid_request"
		message = err.Error()
	case errors.Is(err, video.ErrRecognizerUnavailable):
		status = http.StatusServiceUnavailable
		code = "missing_credentials"
		message = "recognition requires gateway credentials"
	case errors.As(err, &upstreamErr):
		status = http.StatusBadGateway
		code = "upstream_request_failed"
		message = "recognition gateway request failed"
	case errors.Is(err, media.ErrMissingArtifact):
		status = http.StatusBadGateway
		code = "missing_artifact"
		message = "external tool reported success but produced no output"
	case errors.As(err, &toolErr):
		status = http.StatusBadGateway
		code = "tool_failed"
		message = "external tool failed"
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
		code = "timeout"
		message = "request timed out"
	case errors.Is(err, context.Canceled):
		status = 499
		code = "canceled"
		message = "request canceled"
	}

	s.writeError(w, r, status, code, message, details)
}

func (s *server) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, details map[string]any) {
	if rid := requestIDFromContext(r.Context()); rid != "" {
		w.Header().Set(requestIDHeader, rid)
	}
	writeJSON(w, status, model.ErrorResponse{
		Error:     model.APIError{Code: code, Message: message, Details: details},
		RequestID: requestIDFromContext(r.Context()),
	})
}

func (s *server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if requestID == "" {
			requestID = newRequestID()
		}
		w.Header().Set(requestIDHeader, requestID)
		ctx := context.WithValue(r.Context(), requestIDContext, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		duration := time.Since(started)
		if s.metrics != nil {
			s.metrics.ObserveHTTP(route, r.Method, status, duration)
		}

		s.logger.Info("http_request",
			"request_id", requestIDFromContext(r.Context()),
			"method", r.Method,
			"route", route,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration_ms", duration.Milliseconds(),
		)
	})
}

func (s *server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", "request_id", requestIDFromContext(r.Context()), "panic", rec)
				s.writeError(w, r, http.StatusInternalServerError, "internal_error", "internal server error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func formFile(r *http.Request, field string) (multipart.File, *multipart.FileHeader, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, nil, err
	}
	return file, header, nil
}

func styleFromForm(r *http.Request) (style.Config, error) {
	cfg := style.Config{
		FontColor:    r.FormValue("font_color"),
		OutlineColor: r.FormValue("outline_color"),
	}
	var err error
	if cfg.FontSize, err = parseOptionalInt(r.FormValue("font_size")); err != nil {
		return style.Config{}, errors.New("font_size must be an integer")
	}
	if cfg.OutlineWidth, err = parseOptionalInt(r.FormValue("outline_width")); err != nil {
		return style.Config{}, errors.New("outline_width must be an integer")
	}
	return cfg, nil
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func parseOptionalBool(value string, fallback bool) (bool, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	return strconv.ParseBool(value)
}

func parseOptionalInt(value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	return strconv.Atoi(value)
}

func cleanupMultipartForm(form *multipart.Form) {
	if form != nil {
		_ = form.RemoveAll()
	}
}

func requestIDFromContext(ctx context.Context) string {
	value, _ := ctx.Value(requestIDContext).(string)
	return value
}

func newRequestID() string {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("req-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}

func detailsForError(err error) map[string]any {
	if err == nil {
		return nil
	}
	details := map[string]any{"error": err.Error()}
	var upstreamErr *speech.Error
	if errors.As(err, &upstreamErr) {
		details["upstream_status"] = upstreamErr.StatusCode
		if upstreamErr.Body != "" {
			details["upstream_body"] = upstreamErr.Body
		}
	}
	var toolErr *media.ToolError
	if errors.As(err, &toolErr) {
		details["tool"] = toolErr.Tool
		if toolErr.Output != "" {
			details["tool_output"] = truncate(toolErr.Output, 4096)
		}
	}
	return details
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func minInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
