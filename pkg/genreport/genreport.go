// Package genreport collects statistics about one subtitle-generation run
// for offline comparison of models and settings.
package genreport

import (
	"encoding/json"
	"os"
	"time"
)

type RunReport struct {
	TimestampRFC3339     string  `json:"timestamp_rfc3339"`
	InputPath            string  `json:"input_path"`
	AudioDurationSeconds float64 `json:"audio_duration_seconds"`
	ProcessingSeconds    float64 `json:"processing_seconds"`
	RealTimeFactor       float64 `json:"real_time_factor"`
	VadEnabled           bool    `json:"vad_enabled"`
	WindowsProcessed     int     `json:"windows_processed"`
	SpansEmitted         int     `json:"spans_emitted"`
	FinalState           string  `json:"final_state"`
}

// NewRunReport stamps a report with the current time and derives the
// real-time factor from the audio and processing durations.
func NewRunReport(inputPath string, audio, processing time.Duration) RunReport {
	r := RunReport{
		TimestampRFC3339:     time.Now().Format(time.RFC3339),
		InputPath:            inputPath,
		AudioDurationSeconds: audio.Seconds(),
		ProcessingSeconds:    processing.Seconds(),
	}
	if audio > 0 {
		r.RealTimeFactor = processing.Seconds() / audio.Seconds()
	}
	return r
}

// Save writes the report as indented JSON.
func (r RunReport) Save(path string) error {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}
