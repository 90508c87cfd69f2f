package voice

import (
	"MayaCRM/internal/entity"
	"MayaCRM/pkg/s3"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type SpeechResult struct {
	Success  bool    `json:"success"`
	AudioURL string  `json:"audio_url,omitempty"`
	Duration float64 `json:"duration_seconds,omitempty"`
	Provider string  `json:"provider,omitempty"`
}

type ISynthesizer interface {
	Speak(ctx context.Context, text string, config entity.VoiceConfig) (*SpeechResult, error)
}

type ttsService struct {
	apiKey   string
	voiceID  string
	s3Client s3.ItfS3
	log      *logrus.Logger
	client   *http.Client
}

func NewTTSService(s3Client s3.ItfS3, log *logrus.Logger) ISynthesizer {
	return &ttsService{
		apiKey:   os.Getenv("ELEVENLABS_API_KEY"),
		voiceID:  os.Getenv("ELEVENLABS_VOICE_ID"),
		s3Client: s3Client,
		log:      log,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (t *ttsService) Speak(ctx context.Context, text string, config entity.VoiceConfig) (*SpeechResult, error) {
	url := "https://api.elevenlabs.io/v1/text-to-speech/" + t.voiceID

	requestBody := map[string]interface{}{
		"text":     text,
		"model_id": "eleven_multilingual_v2",
		"voice_settings": map[string]interface{}{
			"stability":         config.Stability,
			"similarity_boost":  config.Similarity,
			"style":             0.0,
			"speed":             config.Speed,
			"use_speaker_boost": true,
		},
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("Accept", "audio/mpeg")
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("xi-api-key", t.apiKey)

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ElevenLabs API error: %s - %s", resp.Status, string(bodyBytes))
	}

	audioData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio response: %w", err)
	}

	audioFilename := fmt.Sprintf("tts-%s.mp3", uuid.New().String())

	s3URL, err := t.s3Client.UploadFileFromBytes(audioFilename, audioData)
	if err != nil {
		return nil, fmt.Errorf("failed to upload TTS audio to S3: %w", err)
	}

	t.log.WithFields(logrus.Fields{
		"s3_url":   s3URL,
		"filename": audioFilename,
		"size":     len(audioData),
	}).Debug("TTS audio uploaded to S3")

	return &SpeechResult{
		Success:  true,
		AudioURL: s3URL,
		Duration: estimateDuration(len(audioData)),
		Provider: config.Provider,
	}, nil
}

// estimateDuration assumes 128kbps MP3, close enough for session bookkeeping.
func estimateDuration(byteLen int) float64 {
	return float64(byteLen) / 16000.0
}
