package orchestrator

import (
	"MayaCRM/internal/entity"
	"MayaCRM/pkg/classifier"
)

// Strategy is the response modality chosen for one inbound message.
type Strategy string

const (
	StrategyEscalate      Strategy = "escalate"
	StrategyVoiceOnly     Strategy = "voice_only"
	StrategyTextOnly      Strategy = "text_only"
	StrategyVoiceWithText Strategy = "voice_with_text"
)

// WantsVoice reports whether the strategy requires synthesized speech.
func (s Strategy) WantsVoice() bool {
	return s == StrategyVoiceOnly || s == StrategyVoiceWithText
}

// WantsText reports whether the strategy includes a plain text reply.
func (s Strategy) WantsText() bool {
	return s == StrategyTextOnly || s == StrategyVoiceWithText || s == StrategyEscalate
}

// EscalationUrgency is the urgency score at and above which a message is
// routed to a human regardless of session mode.
const EscalationUrgency = 8

// ResolveStrategy evaluates the decision table in fixed order, first match
// wins:
//
//	urgency >= 8 OR intent = complaint  -> escalate
//	mode = voice                        -> voice_only
//	mode = chat                         -> text_only
//	otherwise (hybrid)                  -> voice_with_text
func ResolveStrategy(c *classifier.Result, mode entity.SessionMode) Strategy {
	switch {
	case c.UrgencyScore >= EscalationUrgency || c.Intent == classifier.IntentComplaint:
		return StrategyEscalate
	case mode == entity.SessionModeVoice:
		return StrategyVoiceOnly
	case mode == entity.SessionModeChat:
		return StrategyTextOnly
	default:
		return StrategyVoiceWithText
	}
}
