package response

import (
	"encoding/json"
	"testing"
	"time"

	"construction_estimator/internal/domain/entities"
)

func TestFromEstimate(t *testing.T) {
	now := time.Now().UTC()
	e := entities.Estimate{
		ID:       3,
		Status:   entities.EstimateStatusFinal,
		Subtotal: 36350,
		Currency: "USD",
		Items: []entities.Item{
			{Name: "Kitchen", Scope: "Room finish", Quantity: 150, Unit: "sqft", Finish: "premium", UnitCost: 240, TotalCost: 36000},
			{Name: "Permit", Quantity: 1, Unit: "ls", UnitCost: 350, TotalCost: 350},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	res := FromEstimate(e)
	if res.ID != 3 || res.Status != "final" || res.Subtotal != 36350 {
		t.Fatalf("unexpected mapped fields: %+v", res)
	}
	kitchen := res.Items[0]
	if kitchen.AreaSqft == nil || *kitchen.AreaSqft != 150 || kitchen.Rate == nil || *kitchen.Rate != 240 || kitchen.Cost != 36000 {
		t.Fatalf("unexpected legacy fields: %+v", kitchen)
	}
	if res.Items[1].AreaSqft != nil || res.Items[1].Cost != 350 {
		t.Fatalf("non-area item should not carry area_sqft: %+v", res.Items[1])
	}
	if res.Assumptions == nil || res.Questions == nil {
		t.Fatalf("expected empty collections, got nil")
	}

	b, _ := json.Marshal(res)
	var body map[string]any
	_ = json.Unmarshal(b, &body)
	if _, ok := body["questions"].([]any); !ok {
		t.Fatalf("questions should marshal as an array: %s", b)
	}
}

func TestFromEstimatesAndChanges(t *testing.T) {
	now := time.Now().UTC()
	list := FromEstimates([]entities.Estimate{{ID: 2, Status: entities.EstimateStatusNeedsClarification, Subtotal: 10, Currency: "USD", CreatedAt: now}})
	if len(list) != 1 || list[0].ID != 2 || list[0].Status != "needs_clarification" {
		t.Fatalf("unexpected summaries: %+v", list)
	}

	changes := FromChanges([]entities.EstimateChange{{ID: "c-1", EstimateID: 2, Input: "add deck", Snapshot: entities.Estimate{ID: 2, Subtotal: 20}, CreatedAt: now}})
	if len(changes) != 1 || changes[0].Input != "add deck" || changes[0].Snapshot.Subtotal != 20 {
		t.Fatalf("unexpected changes: %+v", changes)
	}

	status := FromStatusView(entities.StatusView{ID: 2, Status: entities.EstimateStatusFinal})
	if status.Questions == nil || status.Status != "final" {
		t.Fatalf("unexpected status: %+v", status)
	}
}
