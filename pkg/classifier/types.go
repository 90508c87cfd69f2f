package classifier

import "context"

// Result is the {intent, sentiment, urgency, category} tuple produced for one
// inbound message. UrgencyScore is clamped to 0..10.
type Result struct {
	Intent       string  `json:"intent"`
	Sentiment    string  `json:"sentiment"`
	UrgencyScore int     `json:"urgency_score"`
	Category     string  `json:"category"`
	Confidence   float64 `json:"confidence"`
	Provider     string  `json:"provider"`
}

type Hint struct {
	History        string `json:"history"`
	ConversationID string `json:"conversation_id"`
	Language       string `json:"language"`
}

type IClassifier interface {
	Classify(ctx context.Context, text string, hint Hint) (*Result, error)
}

const (
	IntentComplaint      = "complaint"
	IntentOrderInquiry   = "order_inquiry"
	IntentShippingIssue  = "shipping_issue"
	IntentProductSupport = "product_support"
	IntentPurchaseIntent = "purchase_intent"
	IntentGeneralQuery   = "general_query"
)

const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

const (
	CategorySupport = "support"
	CategorySales   = "sales"
	CategoryBilling = "billing"
	CategoryGeneral = "general"
)

func clampUrgency(score int) int {
	if score < 0 {
		return 0
	}
	if score > 10 {
		return 10
	}
	return score
}
