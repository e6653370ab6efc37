package response

import (
	"time"

	"construction_estimator/internal/domain/entities"
)

// ItemResponse keeps the simple-estimate fields (area_sqft, rate, cost) next to
// the full line item so older clients keep working.
type ItemResponse struct {
	Name      string   `json:"name"`
	Scope     string   `json:"scope"`
	Qty       float64  `json:"qty"`
	Unit      string   `json:"unit"`
	Finish    string   `json:"finish,omitempty"`
	UnitCost  float64  `json:"unit_cost"`
	TotalCost float64  `json:"total_cost"`
	Notes     string   `json:"notes,omitempty"`
	AreaSqft  *float64 `json:"area_sqft,omitempty"`
	Rate      *float64 `json:"rate,omitempty"`
	Cost      float64  `json:"cost"`
}

type EstimateResponse struct {
	ID          int64                 `json:"id"`
	ProjectName string                `json:"project_name,omitempty"`
	Source      string                `json:"source,omitempty"`
	Status      string                `json:"status"`
	Subtotal    float64               `json:"subtotal"`
	Currency    string                `json:"currency"`
	Items       []ItemResponse        `json:"items"`
	Assumptions []entities.Assumption `json:"assumptions"`
	Questions   []string              `json:"questions"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

type SummaryResponse struct {
	ID          int64     `json:"id"`
	ProjectName string    `json:"project_name,omitempty"`
	Status      string    `json:"status"`
	Subtotal    float64   `json:"subtotal"`
	Currency    string    `json:"currency"`
	CreatedAt   time.Time `json:"created_at"`
}

type StatusResponse struct {
	ID          int64                 `json:"id"`
	Status      string                `json:"status"`
	Assumptions []entities.Assumption `json:"assumptions"`
	Questions   []string              `json:"questions"`
}

type ChangeResponse struct {
	ID         string           `json:"id"`
	EstimateID int64            `json:"estimate_id"`
	Input      string           `json:"change_text"`
	Snapshot   EstimateResponse `json:"snapshot"`
	CreatedAt  time.Time        `json:"created_at"`
}

func FromEstimate(e entities.Estimate) EstimateResponse {
	items := make([]ItemResponse, 0, len(e.Items))
	for _, it := range e.Items {
		items = append(items, fromItem(it))
	}
	return EstimateResponse{
		ID:          e.ID,
		ProjectName: e.ProjectName,
		Source:      string(e.Source),
		Status:      string(e.Status),
		Subtotal:    e.Subtotal,
		Currency:    e.Currency,
		Items:       items,
		Assumptions: nonNilAssumptions(e.Assumptions),
		Questions:   nonNilStrings(e.Questions),
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

func FromEstimates(list []entities.Estimate) []SummaryResponse {
	out := make([]SummaryResponse, 0, len(list))
	for _, e := range list {
		out = append(out, SummaryResponse{
			ID:          e.ID,
			ProjectName: e.ProjectName,
			Status:      string(e.Status),
			Subtotal:    e.Subtotal,
			Currency:    e.Currency,
			CreatedAt:   e.CreatedAt,
		})
	}
	return out
}

func FromStatusView(v entities.StatusView) StatusResponse {
	return StatusResponse{
		ID:          v.ID,
		Status:      string(v.Status),
		Assumptions: nonNilAssumptions(v.Assumptions),
		Questions:   nonNilStrings(v.Questions),
	}
}

func FromChanges(changes []entities.EstimateChange) []ChangeResponse {
	out := make([]ChangeResponse, 0, len(changes))
	for _, c := range changes {
		out = append(out, ChangeResponse{
			ID:         c.ID,
			EstimateID: c.EstimateID,
			Input:      c.Input,
			Snapshot:   FromEstimate(c.Snapshot),
			CreatedAt:  c.CreatedAt,
		})
	}
	return out
}

func fromItem(it entities.Item) ItemResponse {
	res := ItemResponse{
		Name:      it.Name,
		Scope:     it.Scope,
		Qty:       it.Quantity,
		Unit:      it.Unit,
		Finish:    it.Finish,
		UnitCost:  it.UnitCost,
		TotalCost: it.TotalCost,
		Notes:     it.Notes,
		Cost:      it.TotalCost,
	}
	if it.Unit == "sqft" {
		area, rate := it.Quantity, it.UnitCost
		res.AreaSqft = &area
		res.Rate = &rate
	}
	return res
}

func nonNilAssumptions(in []entities.Assumption) []entities.Assumption {
	if in == nil {
		return []entities.Assumption{}
	}
	return in
}

func nonNilStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
