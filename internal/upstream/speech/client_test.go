package speech

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ershuai-acc/audio2video/internal/sign"
)

var testCreds = sign.Credentials{AppID: "app-1", AppSecret: "secret", GatewayPath: "/api/v1/asr"}

func TestRecognizeSignsAndParsesUtterances(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/asr" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		headers := sign.Headers{
			AppID:     r.Header.Get("X-App-Id"),
			Timestamp: r.Header.Get("X-Timestamp"),
			Nonce:     r.Header.Get("X-Nonce"),
			Signature: r.Header.Get("X-Signature"),
		}
		if !sign.Verify(testCreds, http.MethodPost, "/api/v1/asr", headers) {
			t.Fatalf("request signature did not verify: %+v", headers)
		}

		var req struct {
			AudioData  string `json:"audio_data"`
			EnablePunc bool   `json:"enable_punc"`
			EnableITN  bool   `json:"enable_itn"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.AudioData != base64.StdEncoding.EncodeToString([]byte("audio-bytes")) {
			t.Fatalf("unexpected audio payload: %q", req.AudioData)
		}
		if !req.EnablePunc || !req.EnableITN {
			t.Fatal("punctuation and ITN must be requested")
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"data":{"text":"hello world","duration":4000,"utterances":[
			{"start_time":0,"end_time":2000,"text":"hello"},
			{"start_time":2000,"end_time":4000,"text":"world"}]}}`)
	}))
	defer ts.Close()

	c := New(ts.URL, testCreds, ts.Client())
	result, err := c.Recognize(context.Background(), []byte("audio-bytes"))
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	if result.Text != "hello world" || result.DurationMS != 4000 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(result.Utterances) != 2 || result.Utterances[1].StartTimeMS != 2000 || result.Utterances[1].Text != "world" {
		t.Fatalf("unexpected utterances: %+v", result.Utterances)
	}
}

func TestRecognizeSurfacesBackendErrorBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "audio too long", http.StatusUnprocessableEntity)
	}))
	defer ts.Close()

	c := New(ts.URL, testCreds, ts.Client())
	_, err := c.Recognize(context.Background(), []byte("x"))
	if err == nil {
		t.Fatal("expected error")
	}
	upErr, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *Error, got %T", err)
	}
	if upErr.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("unexpected status: %d", upErr.StatusCode)
	}
	if upErr.Body != "audio too long" {
		t.Fatalf("backend body must surface verbatim, got %q", upErr.Body)
	}
}

func TestRecognizeObserverSeesStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data":{"text":"","duration":0,"utterances":[]}}`)
	}))
	defer ts.Close()

	var gotEndpoint string
	var gotStatus int
	c := New(ts.URL, testCreds, ts.Client(), WithObserver(func(endpoint string, status int, _ time.Duration) {
		gotEndpoint = endpoint
		gotStatus = status
	}))
	if _, err := c.Recognize(context.Background(), []byte("x")); err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	if gotEndpoint != "recognize" || gotStatus != http.StatusOK {
		t.Fatalf("observer saw %q/%d", gotEndpoint, gotStatus)
	}
}
