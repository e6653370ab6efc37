package entities

import "time"

// EstimateStatus represents the lifecycle of an estimate.
//
// Lifecycle notes:
//   - draft only exists before the first computation/extraction result is classified.
//   - needs_clarification while the estimate carries open questions for the client.
//   - final when no questions remain. A later revision may reopen questions.
type EstimateStatus string

const (
	EstimateStatusDraft              EstimateStatus = "draft"
	EstimateStatusNeedsClarification EstimateStatus = "needs_clarification"
	EstimateStatusFinal              EstimateStatus = "final"
)

const (
	DefaultCurrency = "USD"
	MaxQuestions    = 5
)

// EstimateSource records which entry point produced an estimate.
type EstimateSource string

const (
	EstimateSourceDocuments EstimateSource = "documents"
	EstimateSourceRooms     EstimateSource = "rooms"
)

// CanTransitionTo reports whether moving from s to next is a legal lifecycle step.
// Nothing moves back to draft.
func (s EstimateStatus) CanTransitionTo(next EstimateStatus) bool {
	switch s {
	case EstimateStatusDraft:
		return next == EstimateStatusNeedsClarification || next == EstimateStatusFinal
	case EstimateStatusNeedsClarification, EstimateStatusFinal:
		return next == EstimateStatusNeedsClarification || next == EstimateStatusFinal
	}
	return false
}

func (s EstimateStatus) Valid() bool {
	switch s {
	case EstimateStatusDraft, EstimateStatusNeedsClarification, EstimateStatusFinal:
		return true
	}
	return false
}

// ClassifyStatus derives the post-computation status from the open questions.
func ClassifyStatus(questions []string) EstimateStatus {
	if len(questions) > 0 {
		return EstimateStatusNeedsClarification
	}
	return EstimateStatusFinal
}

// Estimate is a full snapshot of a cost estimate.
//
// Storage model:
//   - SQLite: estimates (PK id) + estimate_items (PK estimate_id, ordinal)
//   - DynamoDB: one item per estimate (PK id) with items nested
//
// Monetary representation:
//   - Subtotal always equals the sum of Items[].TotalCost rounded to 2 decimals.
type Estimate struct {
	ID          int64          `json:"id"`
	ProjectName string         `json:"project_name,omitempty"`
	Source      EstimateSource `json:"source,omitempty"`
	Status      EstimateStatus `json:"status"`
	Subtotal    float64        `json:"subtotal"`
	Currency    string         `json:"currency"`
	Items       []Item         `json:"items"`
	Assumptions []Assumption   `json:"assumptions"`
	Questions   []string       `json:"questions"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Item is one priced scope of work. Owned by its Estimate.
type Item struct {
	Name      string  `json:"name"`
	Scope     string  `json:"scope"`
	Quantity  float64 `json:"qty"`
	Unit      string  `json:"unit"`
	Finish    string  `json:"finish,omitempty"`
	UnitCost  float64 `json:"unit_cost"`
	TotalCost float64 `json:"total_cost"`
	Notes     string  `json:"notes,omitempty"`
}

// Assumption is informational only and never affects computation.
type Assumption struct {
	Topic      string  `json:"topic"`
	Statement  string  `json:"assumption"`
	Confidence float64 `json:"confidence"`
}

// EstimateChange is an append-only revision log entry.
type EstimateChange struct {
	ID         string    `json:"id"`
	EstimateID int64     `json:"estimate_id"`
	Input      string    `json:"input"`
	Snapshot   Estimate  `json:"snapshot"`
	CreatedAt  time.Time `json:"created_at"`
}

// StatusView is the client-facing status projection of an estimate.
type StatusView struct {
	ID          int64          `json:"id"`
	Status      EstimateStatus `json:"status"`
	Assumptions []Assumption   `json:"assumptions"`
	Questions   []string       `json:"questions"`
}

func (e Estimate) StatusView() StatusView {
	return StatusView{
		ID:          e.ID,
		Status:      e.Status,
		Assumptions: e.Assumptions,
		Questions:   e.Questions,
	}
}
