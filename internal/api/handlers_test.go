package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicetriage/voicetriage/internal/audio"
	"github.com/voicetriage/voicetriage/internal/classification"
	"github.com/voicetriage/voicetriage/internal/config"
	"github.com/voicetriage/voicetriage/internal/pipeline"
	"github.com/voicetriage/voicetriage/internal/store"
	"github.com/voicetriage/voicetriage/internal/transcription"
	"github.com/voicetriage/voicetriage/internal/triage"
	"github.com/voicetriage/voicetriage/pkg/logger"
)

// countingTranscriber wraps the stub and counts provider calls so tests
// can assert the phase-1 webhook does no provider work.
type countingTranscriber struct {
	calls int32
}

func (c *countingTranscriber) Name() string { return "stub" }

func (c *countingTranscriber) Transcribe(ctx context.Context, audioData []byte) (string, error) {
	atomic.AddInt32(&c.calls, 1)
	return transcription.StubTranscriber{}.Transcribe(ctx, audioData)
}

type countingClassifier struct {
	calls int32
	inner classification.Classifier
}

func (c *countingClassifier) Name() string { return c.inner.Name() }

func (c *countingClassifier) Classify(ctx context.Context, text string) (*triage.Draft, error) {
	atomic.AddInt32(&c.calls, 1)
	return c.inner.Classify(ctx, text)
}

type harness struct {
	api         *httptest.Server
	media       *httptest.Server
	store       store.Store
	transcriber *countingTranscriber
	classifier  *countingClassifier
}

func newHarness(t *testing.T, inner classification.Classifier) *harness {
	t.Helper()

	media := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("mp3 bytes"))
	}))
	t.Cleanup(media.Close)

	cfg := config.DefaultConfig()
	cfg.Server.PublicBaseURL = "https://triage.example.com"

	recordStore := store.NewMemoryStore()
	tr := &countingTranscriber{}
	cl := &countingClassifier{inner: inner}
	fetcher := audio.NewFetcher(5*time.Second, "", "", 1, logger.NewNop())
	p := pipeline.New(tr, cl, fetcher, recordStore, 5*time.Second, logger.NewNop())

	router := NewRouter(p, recordStore, cfg, logger.NewNop())
	srv := httptest.NewServer(router.Routes())
	t.Cleanup(srv.Close)

	return &harness{
		api:         srv,
		media:       media,
		store:       recordStore,
		transcriber: tr,
		classifier:  cl,
	}
}

func (h *harness) postJSON(t *testing.T, path string, body any) *http.Response {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(h.api.URL+path, "application/json", bytes.NewReader(buf))
	require.NoError(t, err)
	return resp
}

func (h *harness) postForm(t *testing.T, path string, form url.Values) *http.Response {
	t.Helper()
	resp, err := http.PostForm(h.api.URL+path, form)
	require.NoError(t, err)
	return resp
}

func decodeJSON[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestExtractEndToEnd(t *testing.T) {
	h := newHarness(t, &classification.StubClassifier{})

	resp := h.postJSON(t, "/extract", map[string]string{
		"text": "Hi, I'm John, john@x.com, the app crashes, urgent",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeJSON[extractResponse](t, resp)
	assert.True(t, body.Valid)
	assert.Empty(t, body.Errors)
	require.NotNil(t, body.Data)
	assert.Equal(t, "bug", body.Data.Category)
	assert.Equal(t, "high", body.Data.Urgency)
	assert.Equal(t, "John", body.Data.Customer)
	assert.GreaterOrEqual(t, body.LatencyMS, int64(0))
}

func TestExtractEmptyDraftStillAnswers200(t *testing.T) {
	h := newHarness(t, &classification.StubClassifier{Empty: true})

	resp := h.postJSON(t, "/extract", map[string]string{"text": "the app crashes, urgent"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeJSON[extractResponse](t, resp)
	assert.False(t, body.Valid)
	assert.Contains(t, body.Errors, "missing field: customer")
	assert.Contains(t, body.Errors, "missing field: email")
	assert.Contains(t, body.Errors, "missing field: summary")
}

func TestExtractRejectsMissingText(t *testing.T) {
	h := newHarness(t, &classification.StubClassifier{})

	for name, body := range map[string]string{
		"empty object": `{}`,
		"blank text":   `{"text":"   "}`,
		"not JSON":     `{{{`,
	} {
		t.Run(name, func(t *testing.T) {
			resp, err := http.Post(h.api.URL+"/extract", "application/json", strings.NewReader(body))
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}

	stats, err := h.store.Stats()
	require.NoError(t, err)
	assert.Zero(t, stats.Runs, "rejected input must not start a pipeline run")
}

func TestStats(t *testing.T) {
	h := newHarness(t, &classification.StubClassifier{})

	resp, err := http.Get(h.api.URL + "/stats")
	require.NoError(t, err)
	stats := decodeJSON[store.Stats](t, resp)
	assert.Equal(t, store.Stats{}, stats)

	h.postJSON(t, "/extract", map[string]string{"text": "I'm Ana, ana@x.com, crash, urgent"}).Body.Close()
	h.postJSON(t, "/extract", map[string]string{"text": "hello"}).Body.Close()

	resp, err = http.Get(h.api.URL + "/stats")
	require.NoError(t, err)
	stats = decodeJSON[store.Stats](t, resp)
	assert.Equal(t, 2, stats.Runs)
	assert.Equal(t, 1, stats.Valids)
	assert.Equal(t, 50, stats.SuccessRatePct)
}

func TestMessagesNewestFirst(t *testing.T) {
	h := newHarness(t, &classification.StubClassifier{})

	for i := 0; i < 3; i++ {
		resp := h.postJSON(t, "/extract", map[string]string{"text": fmt.Sprintf("message %d", i)})
		resp.Body.Close()
	}

	resp, err := http.Get(h.api.URL + "/messages")
	require.NoError(t, err)
	records := decodeJSON[[]*store.Record](t, resp)
	require.Len(t, records, 3)
	assert.Equal(t, int64(3), records[0].ID)
	assert.Equal(t, int64(1), records[2].ID)
}

func TestHealth(t *testing.T) {
	h := newHarness(t, &classification.StubClassifier{})

	resp, err := http.Get(h.api.URL + "/health")
	require.NoError(t, err)
	body := decodeJSON[map[string]bool](t, resp)
	assert.True(t, body["ok"])
}

func TestVoiceWebhookReturnsTwiML(t *testing.T) {
	h := newHarness(t, &classification.StubClassifier{})

	resp := h.postForm(t, "/voice-webhook", url.Values{
		"From":    {"+15550001111"},
		"CallSid": {"CA100"},
	})
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/xml", resp.Header.Get("Content-Type"))

	var buf bytes.Buffer
	_, err := buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	twiml := buf.String()

	assert.Contains(t, twiml, "<Response>")
	assert.Contains(t, twiml, "<Record")
	assert.Contains(t, twiml, "https://triage.example.com/recording-webhook")

	// phase 1 performs no pipeline work
	assert.Zero(t, atomic.LoadInt32(&h.transcriber.calls))
	assert.Zero(t, atomic.LoadInt32(&h.classifier.calls))
	stats, err := h.store.Stats()
	require.NoError(t, err)
	assert.Zero(t, stats.Runs)
}

func recordingForm(h *harness, recordingSid, callSid string) url.Values {
	return url.Values{
		"RecordingUrl":      {h.media.URL + "/Recordings/" + recordingSid},
		"RecordingSid":      {recordingSid},
		"CallSid":           {callSid},
		"From":              {"+15550002222"},
		"RecordingDuration": {"12"},
	}
}

func waitForRecords(t *testing.T, s store.Store, want int) []*store.Record {
	t.Helper()
	var records []*store.Record
	require.Eventually(t, func() bool {
		recs, err := s.Newest()
		if err != nil {
			return false
		}
		records = recs
		return len(records) >= want
	}, 5*time.Second, 10*time.Millisecond)
	return records
}

func TestRecordingWebhookRunsPipeline(t *testing.T) {
	h := newHarness(t, &classification.StubClassifier{})

	// phase 1 remembers the caller for this CallSid
	h.postForm(t, "/voice-webhook", url.Values{
		"From":    {"+15559998888"},
		"CallSid": {"CA200"},
	}).Body.Close()

	resp := h.postForm(t, "/recording-webhook", recordingForm(h, "RE200", "CA200"))
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	records := waitForRecords(t, h.store, 1)
	require.Len(t, records, 1)
	rec := records[0]
	assert.Equal(t, store.SourceVoicemail, rec.Source)
	assert.Equal(t, "+15559998888", rec.OriginRef)
	assert.Equal(t, transcription.StubTranscript, rec.Transcript)
	assert.True(t, strings.HasSuffix(rec.RecordingURL, ".mp3"))
}

func TestRecordingWebhookIdempotentSequential(t *testing.T) {
	h := newHarness(t, &classification.StubClassifier{})

	form := recordingForm(h, "RE300", "CA300")
	h.postForm(t, "/recording-webhook", form).Body.Close()
	waitForRecords(t, h.store, 1)

	// redelivery after completion
	resp := h.postForm(t, "/recording-webhook", form)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	time.Sleep(100 * time.Millisecond)
	records, err := h.store.Newest()
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestRecordingWebhookIdempotentConcurrent(t *testing.T) {
	h := newHarness(t, &classification.StubClassifier{})

	form := recordingForm(h, "RE400", "CA400")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := http.PostForm(h.api.URL+"/recording-webhook", form)
			assert.NoError(t, err)
			if resp != nil {
				resp.Body.Close()
			}
		}()
	}
	wg.Wait()

	waitForRecords(t, h.store, 1)
	time.Sleep(100 * time.Millisecond)
	records, err := h.store.Newest()
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestRecordingWebhookRejectsMissingFields(t *testing.T) {
	h := newHarness(t, &classification.StubClassifier{})

	resp := h.postForm(t, "/recording-webhook", url.Values{"CallSid": {"CA500"}})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = h.postForm(t, "/recording-webhook", url.Values{"RecordingUrl": {h.media.URL + "/x"}})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
