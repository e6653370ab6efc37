package ai

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"construction_estimator/internal/domain/entities"

	"github.com/tidwall/gjson"
)

var ErrMalformedResponse = errors.New("malformed draft response")

// parseDraft reads the model's JSON reply. Numbers may arrive as JSON numbers or
// as strings ("1,250", "$180"); a value that is present but not numeric makes the
// whole reply malformed.
func parseDraft(text string) (entities.Draft, error) {
	raw, ok := jsonObject(text)
	if !ok {
		return entities.Draft{}, fmt.Errorf("%w: no JSON object in reply", ErrMalformedResponse)
	}
	root := gjson.Parse(raw)

	var draft entities.Draft
	items := root.Get("items")
	if items.Exists() && !items.IsArray() {
		return entities.Draft{}, fmt.Errorf("%w: items is not an array", ErrMalformedResponse)
	}
	for i, it := range items.Array() {
		if !it.IsObject() {
			return entities.Draft{}, fmt.Errorf("%w: item %d is not an object", ErrMalformedResponse, i)
		}
		di := entities.DraftItem{
			Name:   it.Get("name").String(),
			Scope:  it.Get("scope").String(),
			Unit:   it.Get("unit").String(),
			Finish: it.Get("finish").String(),
			Notes:  it.Get("notes").String(),
		}
		var err error
		if di.Quantity, err = optionalNumber(it, "qty"); err != nil {
			return entities.Draft{}, fmt.Errorf("item %d: %w", i, err)
		}
		if di.UnitCost, err = optionalNumber(it, "unit_cost"); err != nil {
			return entities.Draft{}, fmt.Errorf("item %d: %w", i, err)
		}
		if di.TotalCost, err = optionalNumber(it, "total_cost"); err != nil {
			return entities.Draft{}, fmt.Errorf("item %d: %w", i, err)
		}
		draft.Items = append(draft.Items, di)
	}

	for _, a := range root.Get("assumptions").Array() {
		statement := a.Get("assumption").String()
		if statement == "" {
			statement = a.Get("statement").String()
		}
		confidence, err := optionalNumber(a, "confidence")
		if err != nil {
			return entities.Draft{}, err
		}
		as := entities.Assumption{Topic: a.Get("topic").String(), Statement: statement}
		if confidence != nil {
			as.Confidence = *confidence
		}
		draft.Assumptions = append(draft.Assumptions, as)
	}

	for _, q := range root.Get("questions").Array() {
		draft.Questions = append(draft.Questions, q.String())
	}
	draft.Currency = root.Get("currency").String()

	subtotal, err := optionalNumber(root, "subtotal")
	if err != nil {
		return entities.Draft{}, err
	}
	draft.Subtotal = subtotal
	return draft, nil
}

func optionalNumber(obj gjson.Result, key string) (*float64, error) {
	v := obj.Get(key)
	switch v.Type {
	case gjson.Null:
		return nil, nil
	case gjson.Number:
		n := v.Num
		return &n, nil
	case gjson.String:
		s := strings.NewReplacer(",", "", "$", "", " ", "").Replace(v.Str)
		if s == "" {
			return nil, nil
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s %q is not a number", ErrMalformedResponse, key, v.Str)
		}
		return &n, nil
	}
	return nil, fmt.Errorf("%w: %s has unexpected type %s", ErrMalformedResponse, key, v.Type)
}

// jsonObject strips markdown fences or chatter around the outermost JSON object.
func jsonObject(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return "", false
	}
	raw := text[start : end+1]
	if !gjson.Valid(raw) {
		return "", false
	}
	return raw, true
}
