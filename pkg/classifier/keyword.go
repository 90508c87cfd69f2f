package classifier

import (
	"context"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

type intentProfile struct {
	intent      string
	category    string
	baseUrgency int
	keywords    []string
}

// keywordClassifier is the deterministic fallback used when no AI provider is
// reachable. Scoring is plain keyword counting over normalized tokens.
type keywordClassifier struct {
	profiles  []intentProfile
	stopWords map[string]bool
	urgent    []string
	negative  []string
	positive  []string
}

func NewKeywordClassifier() IClassifier {
	stopWords := map[string]bool{
		"the": true, "a": true, "an": true, "to": true, "of": true,
		"i": true, "my": true, "is": true, "it": true, "for": true,
		"and": true, "or": true, "in": true, "on": true, "me": true,
		"saya": true, "ke": true, "di": true, "dan": true, "yang": true,
		"untuk": true, "dengan": true, "ini": true, "itu": true,
	}

	return &keywordClassifier{
		stopWords: stopWords,
		profiles: []intentProfile{
			{
				intent: IntentComplaint, category: CategorySupport, baseUrgency: 7,
				keywords: []string{"complaint", "unacceptable", "terrible", "awful", "angry", "refund", "scam", "worst", "disappointed", "kecewa", "buruk"},
			},
			{
				intent: IntentShippingIssue, category: CategorySupport, baseUrgency: 5,
				keywords: []string{"shipping", "delivery", "arrived", "arrive", "tracking", "courier", "package", "lost", "pengiriman", "paket"},
			},
			{
				intent: IntentOrderInquiry, category: CategorySales, baseUrgency: 3,
				keywords: []string{"order", "invoice", "purchase", "status", "receipt", "pesanan", "nota"},
			},
			{
				intent: IntentProductSupport, category: CategorySupport, baseUrgency: 4,
				keywords: []string{"broken", "error", "not working", "help", "fix", "install", "setup", "rusak", "bantuan"},
			},
			{
				intent: IntentPurchaseIntent, category: CategorySales, baseUrgency: 2,
				keywords: []string{"buy", "price", "pricing", "discount", "quote", "demo", "beli", "harga"},
			},
		},
		urgent:   []string{"urgent", "immediately", "now", "asap", "emergency", "segera", "sekarang"},
		negative: []string{"bad", "angry", "never", "hate", "unacceptable", "terrible", "worst", "kecewa"},
		positive: []string{"thanks", "great", "love", "good", "awesome", "terima kasih", "bagus"},
	}
}

func (k *keywordClassifier) Classify(_ context.Context, text string, _ Hint) (*Result, error) {
	cleaned := k.cleanText(text)
	tokens := k.extractTokens(cleaned)

	bestScore := 0
	best := intentProfile{intent: IntentGeneralQuery, category: CategoryGeneral, baseUrgency: 1}

	for _, profile := range k.profiles {
		score := 0
		for _, keyword := range profile.keywords {
			if strings.Contains(keyword, " ") {
				if strings.Contains(cleaned, keyword) {
					score += 2
				}
				continue
			}
			for _, token := range tokens {
				if token == keyword {
					score++
				}
			}
		}
		if score > bestScore {
			bestScore = score
			best = profile
		}
	}

	urgency := best.baseUrgency
	for _, marker := range k.urgent {
		if strings.Contains(cleaned, marker) {
			urgency += 2
			break
		}
	}
	if strings.Contains(text, "!!") {
		urgency++
	}

	sentiment := SentimentNeutral
	if k.containsAny(cleaned, k.negative) {
		sentiment = SentimentNegative
	} else if k.containsAny(cleaned, k.positive) {
		sentiment = SentimentPositive
	}

	confidence := 0.3
	if bestScore > 0 {
		confidence = 0.5 + 0.1*float64(bestScore)
		if confidence > 0.9 {
			confidence = 0.9
		}
	}

	return &Result{
		Intent:       best.intent,
		Sentiment:    sentiment,
		UrgencyScore: clampUrgency(urgency),
		Category:     best.category,
		Confidence:   confidence,
		Provider:     "keyword",
	}, nil
}

func (k *keywordClassifier) containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

func (k *keywordClassifier) cleanText(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	normalized, _, err := transform.String(t, text)
	if err != nil {
		normalized = text
	}

	var b strings.Builder
	for _, r := range strings.ToLower(normalized) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

func (k *keywordClassifier) extractTokens(cleaned string) []string {
	var tokens []string
	for _, field := range strings.Fields(cleaned) {
		if !k.stopWords[field] {
			tokens = append(tokens, field)
		}
	}
	return tokens
}
