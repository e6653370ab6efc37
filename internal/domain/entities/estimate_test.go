package entities

import "testing"

func TestClassifyStatus(t *testing.T) {
	if got := ClassifyStatus(nil); got != EstimateStatusFinal {
		t.Fatalf("expected final, got %s", got)
	}
	if got := ClassifyStatus([]string{"Provide total heated sqft"}); got != EstimateStatusNeedsClarification {
		t.Fatalf("expected needs_clarification, got %s", got)
	}
}

func TestEstimateStatus_CanTransitionTo(t *testing.T) {
	cases := []struct {
		from, to EstimateStatus
		want     bool
	}{
		{EstimateStatusDraft, EstimateStatusNeedsClarification, true},
		{EstimateStatusDraft, EstimateStatusFinal, true},
		{EstimateStatusNeedsClarification, EstimateStatusNeedsClarification, true},
		{EstimateStatusNeedsClarification, EstimateStatusFinal, true},
		{EstimateStatusFinal, EstimateStatusNeedsClarification, true},
		{EstimateStatusFinal, EstimateStatusDraft, false},
		{EstimateStatusNeedsClarification, EstimateStatusDraft, false},
		{EstimateStatus("unknown"), EstimateStatusFinal, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.want {
			t.Fatalf("%s -> %s: expected %v got %v", tc.from, tc.to, tc.want, got)
		}
	}
}

func TestEstimate_StatusView(t *testing.T) {
	e := Estimate{
		ID:          7,
		Status:      EstimateStatusNeedsClarification,
		Assumptions: []Assumption{{Topic: "Global", Statement: "x", Confidence: 0.3}},
		Questions:   []string{"q1"},
	}
	v := e.StatusView()
	if v.ID != 7 || v.Status != EstimateStatusNeedsClarification || len(v.Questions) != 1 || len(v.Assumptions) != 1 {
		t.Fatalf("unexpected view: %+v", v)
	}
}
