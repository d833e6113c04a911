package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/voicetriage/voicetriage/internal/pipeline"
	"github.com/voicetriage/voicetriage/pkg/logger"
)

// VoiceWebhook handles the call-start callback (phase 1 of the telephony
// handshake). It only remembers the caller and answers markup directing
// the platform to record and call back; it must never touch a provider,
// so the response deadline is independent of pipeline latency.
func (h *Handler) VoiceWebhook(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.writeError(w, http.StatusBadRequest, "malformed form body")
		return
	}

	caller := r.FormValue("From")
	if caller == "" {
		caller = "Unknown"
	}
	callSid := r.FormValue("CallSid")

	h.logger.Info("Incoming call",
		logger.String("from", caller),
		logger.String("call_sid", callSid),
	)

	if callSid != "" {
		h.calls.Remember(callSid, caller)
	}

	callbackURL := strings.TrimRight(h.config.Server.PublicBaseURL, "/") + "/recording-webhook"
	body, err := renderTwiML(h.config.Twilio.Greeting, h.config.Twilio.MaxRecordingSecs, callbackURL)
	if err != nil {
		h.logger.Error("Failed to render TwiML", logger.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// RecordingWebhook handles the recording-ready callback (phase 2). The
// platform delivers at least once, so the recording id passes through the
// idempotency guard before any work starts; duplicates are acknowledged
// without a second pipeline run. The pipeline itself runs in the
// background and its outcome never changes the acknowledgment.
func (h *Handler) RecordingWebhook(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.writeError(w, http.StatusBadRequest, "malformed form body")
		return
	}

	recordingURL := r.FormValue("RecordingUrl")
	if recordingURL == "" {
		h.writeError(w, http.StatusBadRequest, "missing RecordingUrl")
		return
	}
	callSid := r.FormValue("CallSid")
	if callSid == "" {
		h.writeError(w, http.StatusBadRequest, "missing CallSid")
		return
	}

	recordingID := r.FormValue("RecordingSid")
	if recordingID == "" {
		recordingID = recordingURL
	}

	if !h.guard.Begin(recordingID) {
		h.logger.Info("Duplicate recording delivery acknowledged",
			logger.String("recording_id", recordingID),
		)
		h.writeAck(w)
		return
	}

	caller := h.calls.Lookup(callSid)
	if caller == "" {
		// Call-start entry may be gone after a restart; the form's own
		// From field is the fallback.
		caller = r.FormValue("From")
	}
	if caller == "" {
		caller = "Unknown"
	}

	durationSecs, _ := strconv.ParseFloat(r.FormValue("RecordingDuration"), 64)

	sub := pipeline.Submission{
		Kind:         pipeline.KindAudio,
		RecordingID:  recordingID,
		AudioURL:     audioURL(recordingURL),
		Caller:       caller,
		DurationSecs: durationSecs,
	}

	h.logger.Info("Recording received",
		logger.String("recording_id", recordingID),
		logger.String("call_sid", callSid),
		logger.String("from", caller),
	)

	// The request context dies with the acknowledgment, so the run gets
	// its own.
	go func() {
		if _, err := h.pipeline.Run(context.Background(), sub); err != nil {
			h.logger.Error("Background pipeline run failed",
				logger.String("recording_id", sub.RecordingID),
				logger.Error(err),
			)
		}
	}()

	h.writeAck(w)
}

func (h *Handler) writeAck(w http.ResponseWriter) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// audioURL maps the platform's recording resource URL to a downloadable
// media URL.
func audioURL(recordingURL string) string {
	if strings.HasSuffix(recordingURL, ".mp3") || strings.HasSuffix(recordingURL, ".wav") {
		return recordingURL
	}
	return recordingURL + ".mp3"
}
