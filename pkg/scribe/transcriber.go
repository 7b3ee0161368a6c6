package scribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"clinical-scribe-be/internal/entity"
	"clinical-scribe-be/internal/pkg/failure"
)

// Words below this ASR confidence get an "(unclear: ...)" tag so the
// model treats them as uncertain instead of as fact.
const defaultConfidenceThreshold = 0.6

// HTTPTranscriber talks to a whisper-server style ASR endpoint. The
// server runs the heavy pipeline (VAD, alignment, diarization); this
// client uploads the chunk and reshapes the response.
type HTTPTranscriber struct {
	BaseURL   string
	Client    *http.Client
	Threshold float64
}

var _ Transcriber = &HTTPTranscriber{}

func NewHTTPTranscriber(baseURL string) *HTTPTranscriber {
	return &HTTPTranscriber{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client: &http.Client{
			Timeout: 120 * time.Second,
		},
		Threshold: defaultConfidenceThreshold,
	}
}

type asrWord struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Score float64 `json:"score"`
}

type asrSegment struct {
	Start   float64   `json:"start"`
	End     float64   `json:"end"`
	Speaker string    `json:"speaker"`
	Words   []asrWord `json:"words"`
}

type asrResponse struct {
	Segments []asrSegment `json:"segments"`
}

// Transcribe uploads the audio file and converts each returned segment
// into one DialogueTurn (role unassigned, chunk-stamped) plus one
// SegmentInfo for the UI. Silence comes back as zero segments.
func (t *HTTPTranscriber) Transcribe(ctx context.Context, audioPath string, chunkIndex int) (*Transcription, error) {
	body, contentType, err := buildMultipart(audioPath)
	if err != nil {
		return nil, err
	}

	url := t.BaseURL + "/inference"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := t.Client.Do(req)
	if err != nil {
		return nil, failure.Transient(fmt.Errorf("asr request failed: %w", err))
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, failure.Transient(fmt.Errorf("read asr response: %w", err))
	}

	if resp.StatusCode >= 500 {
		return nil, failure.Transient(fmt.Errorf("asr error: status %d, body: %s", resp.StatusCode, string(respBytes)))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("asr error: status %d, body: %s", resp.StatusCode, string(respBytes))
	}

	var parsed asrResponse
	if err := json.Unmarshal(respBytes, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal asr response: %w", err)
	}

	return t.shape(parsed, chunkIndex), nil
}

func buildMultipart(audioPath string) (*bytes.Buffer, string, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return nil, "", fmt.Errorf("open audio file: %w", err)
	}
	defer f.Close()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("copy audio: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}

	return body, writer.FormDataContentType(), nil
}

func (t *HTTPTranscriber) shape(parsed asrResponse, chunkIndex int) *Transcription {
	out := &Transcription{
		Turns:    []entity.DialogueTurn{},
		Segments: []entity.SegmentInfo{},
	}

	now := time.Now().UTC()

	for i, seg := range parsed.Segments {
		uiWords := make([]entity.WordInfo, 0, len(seg.Words))
		llmWords := make([]string, 0, len(seg.Words))
		var confidenceSum float64

		for _, w := range seg.Words {
			uiWords = append(uiWords, entity.WordInfo{
				Word:       w.Word,
				Start:      w.Start,
				End:        w.End,
				Confidence: w.Score,
			})
			confidenceSum += w.Score

			clean := strings.TrimSpace(w.Word)
			if w.Score < t.Threshold {
				llmWords = append(llmWords, fmt.Sprintf("(unclear: %s)", clean))
			} else {
				llmWords = append(llmWords, clean)
			}
		}

		sentence := strings.Join(llmWords, " ")
		if strings.TrimSpace(sentence) == "" {
			continue
		}

		avgConfidence := 0.0
		if len(seg.Words) > 0 {
			avgConfidence = confidenceSum / float64(len(seg.Words))
		}

		out.Turns = append(out.Turns, entity.DialogueTurn{
			Role:       entity.RoleUnassigned,
			Content:    sentence,
			ChunkIndex: chunkIndex,
			Timestamp:  now,
		})
		out.Segments = append(out.Segments, entity.SegmentInfo{
			ID:            i,
			Start:         seg.Start,
			End:           seg.End,
			Text:          sentence,
			Speaker:       seg.Speaker,
			AvgConfidence: avgConfidence,
			Words:         uiWords,
		})
	}

	return out
}
