package types

// Phase is the conversation phase tracked per session.
type Phase string

// Conversation phases. GATHERING_INFO is the initial phase; once
// recommendations have been shown, further input moves the session into
// HANDLING_CHANGES rather than re-asking questions.
const (
	PhaseGatheringInfo  Phase = "gathering_info"
	PhaseReadyForRecs   Phase = "ready_for_recommendations"
	PhaseHandlingChange Phase = "handling_changes"
)

// Valid reports whether the phase is one of the known values.
func (p Phase) Valid() bool {
	switch p {
	case PhaseGatheringInfo, PhaseReadyForRecs, PhaseHandlingChange:
		return true
	}
	return false
}

// Action is the per-turn decision produced by the decision boundary.
type Action string

// Turn actions.
const (
	ActionAskQuestion   Action = "ask_question"
	ActionReadyForRecs  Action = "ready_for_recommendations"
	ActionHandleChanges Action = "handle_changes"
)

// ProductInfo carries product-name and price guesses alongside the attribute
// map.
type ProductInfo struct {
	Name           string      `json:"name,omitempty"`
	NameConfidence float64     `json:"name_confidence,omitempty"`
	PriceRange     *PriceRange `json:"price_range,omitempty"`
}

// ConversationAttributes is the accumulated, merged attribute map carried on
// a session across turns. Attributes and ConfidenceScores are parallel: the
// i-th confidence belongs to the i-th value of the same attribute.
type ConversationAttributes struct {
	Attributes        map[string][]string  `json:"attributes,omitempty"`
	ConfidenceScores  map[string][]float64 `json:"confidence_scores,omitempty"`
	ProductInfo       ProductInfo          `json:"product_info,omitempty"`
	ExtractionQuality float64              `json:"extraction_quality,omitempty"`
	RuleCount         int                  `json:"rule_count,omitempty"`
}

// MergeFrom overlays newer per-attribute values onto the accumulated map.
// Later turns win per attribute; untouched attributes are preserved.
func (ca *ConversationAttributes) MergeFrom(other ConversationAttributes) {
	if ca.Attributes == nil {
		ca.Attributes = make(map[string][]string)
	}
	if ca.ConfidenceScores == nil {
		ca.ConfidenceScores = make(map[string][]float64)
	}
	for name, values := range other.Attributes {
		ca.Attributes[name] = values
	}
	for name, scores := range other.ConfidenceScores {
		ca.ConfidenceScores[name] = scores
	}
	if other.ProductInfo.Name != "" {
		ca.ProductInfo.Name = other.ProductInfo.Name
		ca.ProductInfo.NameConfidence = other.ProductInfo.NameConfidence
	}
	if other.ProductInfo.PriceRange.HasBound() {
		ca.ProductInfo.PriceRange = other.ProductInfo.PriceRange
	}
	// A turn with no extraction signal must not erase an earlier one.
	if other.ExtractionQuality > 0 {
		ca.ExtractionQuality = other.ExtractionQuality
	}
	if other.RuleCount > 0 {
		ca.RuleCount = other.RuleCount
	}
}

// ConversationState is the per-session mutable state. Turns within one
// session are processed sequentially, so the state itself needs no locking.
type ConversationState struct {
	SessionID      string                 `json:"session_id"`
	OriginalQuery  string                 `json:"original_query"`
	Phase          Phase                  `json:"phase"`
	Attributes     ConversationAttributes `json:"attributes"`
	History        []string               `json:"history"`
	QuestionsAsked int                    `json:"questions_asked"`
}

// NewConversationState creates the initial state for a session.
func NewConversationState(sessionID, originalQuery string) *ConversationState {
	return &ConversationState{
		SessionID:     sessionID,
		OriginalQuery: originalQuery,
		Phase:         PhaseGatheringInfo,
	}
}

// AddHistory appends one message, e.g. "User: ..." or "Assistant: ...".
func (s *ConversationState) AddHistory(message string) {
	s.History = append(s.History, message)
}

// RecentHistory returns up to the last n history entries.
func (s *ConversationState) RecentHistory(n int) []string {
	if len(s.History) <= n {
		return s.History
	}
	return s.History[len(s.History)-n:]
}

// ConversationTurn is the immutable output of a single processed turn.
type ConversationTurn struct {
	Action          Action     `json:"action"`
	Phase           Phase      `json:"phase"`
	ResponseMessage string     `json:"response_message"`
	Reasoning       string     `json:"reasoning,omitempty"`
	Recommendations []*Product `json:"recommendations,omitempty"`
}
