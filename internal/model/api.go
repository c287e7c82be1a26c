package model

type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

type ErrorResponse struct {
	Error     APIError `json:"error"`
	RequestID string   `json:"request_id,omitempty"`
}

type HealthResponse struct {
	OK bool `json:"ok"`
}

type ReadyResponse struct {
	OK          bool   `json:"ok"`
	ServiceName string `json:"service_name,omitempty"`
	Recognizer  bool   `json:"recognizer"`
}

type VideoTimings struct {
	Captioning  int64 `json:"captioning"`
	Composition int64 `json:"composition"`
	Total       int64 `json:"total"`
}

type VideoResponse struct {
	VideoPath    string       `json:"video_path"`
	SubtitlePath string       `json:"subtitle_path,omitempty"`
	DurationMS   int64        `json:"duration_ms,omitempty"`
	CueCount     int          `json:"cue_count,omitempty"`
	TimingsMS    VideoTimings `json:"timings_ms"`
}

type SubtitleResponse struct {
	SRT        string `json:"srt"`
	CueCount   int    `json:"cue_count"`
	DurationMS int64  `json:"duration_ms"`
}

type CoverRequest struct {
	Title  string `json:"title"`
	Aspect string `json:"aspect,omitempty"`
	Prompt string `json:"prompt,omitempty"`
}

type CoverResponse struct {
	ImagePath string `json:"image_path"`
}
