package classifier

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"
)

type classifier struct {
	provider IClassifier
	fallback IClassifier
	log      *logrus.Logger
}

// New builds the message classifier. CLASSIFIER_PROVIDER selects the primary
// backend ("gemini" by default, "websocket" for the hosted classifier
// service); the keyword classifier always backs it so a provider outage
// degrades to deterministic keyword scoring instead of failing the message.
func New(log *logrus.Logger) (IClassifier, error) {
	fallback := NewKeywordClassifier()

	var provider IClassifier
	var err error

	switch os.Getenv("CLASSIFIER_PROVIDER") {
	case "websocket":
		provider = NewWebsocketClassifier()
	case "keyword":
		provider = nil
	default:
		provider, err = NewGeminiClassifier()
		if err != nil {
			log.Warnf("Gemini classifier unavailable, using keyword fallback only: %v", err)
			provider = nil
		}
	}

	return &classifier{
		provider: provider,
		fallback: fallback,
		log:      log,
	}, nil
}

func (c *classifier) Classify(ctx context.Context, text string, hint Hint) (*Result, error) {
	if c.provider != nil {
		result, err := c.provider.Classify(ctx, text, hint)
		if err == nil {
			result.UrgencyScore = clampUrgency(result.UrgencyScore)
			return result, nil
		}

		c.log.WithFields(logrus.Fields{
			"error":           err.Error(),
			"conversation_id": hint.ConversationID,
		}).Warn("Primary classifier failed, falling back to keyword scoring")
	}

	return c.fallback.Classify(ctx, text, hint)
}
