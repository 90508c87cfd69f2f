package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const geminiClassifyPrompt = `You are a customer message classifier for a CRM.

IMPORTANT: Return ONLY valid JSON, nothing else.

Format:
{
  "intent": "complaint",
  "sentiment": "negative",
  "urgency_score": 9,
  "category": "support",
  "confidence": 0.9
}

Rules:
- intent: one of "complaint", "order_inquiry", "shipping_issue", "product_support", "purchase_intent", "general_query"
- sentiment: "positive", "neutral" or "negative"
- urgency_score: integer 0-10, 8+ means the customer needs a human now
- category: one of "support", "sales", "billing", "general"

Conversation context so far (may be empty):
%s

Classify this message: %s`

type geminiClassifier struct {
	client    *genai.Client
	modelName string
}

func NewGeminiClassifier() (IClassifier, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("gemini API key is required")
	}

	modelName := os.Getenv("GEMINI_MODEL_NAME")
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	return &geminiClassifier{
		client:    client,
		modelName: modelName,
	}, nil
}

func (g *geminiClassifier) Classify(ctx context.Context, text string, hint Hint) (*Result, error) {
	model := g.client.GenerativeModel(g.modelName)
	model.ResponseMIMEType = "application/json"

	prompt := fmt.Sprintf(geminiClassifyPrompt, hint.History, text)

	res, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, err
	}

	if len(res.Candidates) == 0 || len(res.Candidates[0].Content.Parts) == 0 {
		return nil, errors.New("no response from Gemini API")
	}

	part, ok := res.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return nil, errors.New("unexpected response format from Gemini API")
	}

	var result Result
	raw := strings.TrimSpace(string(part))
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("failed to parse classification: %w", err)
	}

	result.Provider = "gemini"
	return &result, nil
}
