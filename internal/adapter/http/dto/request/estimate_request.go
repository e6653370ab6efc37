package request

import (
	"encoding/json"
	"strconv"
	"strings"

	"construction_estimator/internal/domain/entities"
	"construction_estimator/internal/domain/pricing"

	"github.com/tidwall/gjson"
)

// RoomRequest accepts area_sqft as a JSON number or a numeric string ("1,200").
type RoomRequest struct {
	Name     string          `json:"name"`
	AreaSqft json.RawMessage `json:"area_sqft" swaggertype:"number"`
	Finish   string          `json:"finish"`
}

type RoomsRequest struct {
	ProjectName string        `json:"project_name"`
	Rooms       []RoomRequest `json:"rooms" binding:"required"`
}

// ResolveRooms converts the payload into room specs. A missing area counts as 0;
// an area that is present but not numeric is a validation error naming the room index.
func (r RoomsRequest) ResolveRooms() ([]entities.RoomSpec, error) {
	rooms := make([]entities.RoomSpec, 0, len(r.Rooms))
	for i, room := range r.Rooms {
		area, ok := parseArea(room.AreaSqft)
		if !ok {
			return nil, &pricing.ValidationError{Index: i, Field: "area_sqft", Reason: "must be a number"}
		}
		rooms = append(rooms, entities.RoomSpec{
			Name:     room.Name,
			AreaSqft: area,
			Finish:   strings.ToLower(strings.TrimSpace(room.Finish)),
		})
	}
	return rooms, nil
}

func parseArea(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, true
	}
	v := gjson.ParseBytes(raw)
	switch v.Type {
	case gjson.Null:
		return 0, true
	case gjson.Number:
		return v.Num, true
	case gjson.String:
		s := strings.ReplaceAll(strings.TrimSpace(v.Str), ",", "")
		if s == "" {
			return 0, true
		}
		n, err := strconv.ParseFloat(s, 64)
		return n, err == nil
	}
	return 0, false
}

// RevisionRequest carries free-form client answers and/or instructions.
// Answers may be any JSON value; objects and arrays are forwarded verbatim.
type RevisionRequest struct {
	Answers      json.RawMessage `json:"answers" swaggertype:"object"`
	Instructions string          `json:"instructions"`
}

func (r RevisionRequest) ResolveInput() string {
	var parts []string
	if len(r.Answers) > 0 {
		v := gjson.ParseBytes(r.Answers)
		switch v.Type {
		case gjson.Null:
		case gjson.String:
			if s := strings.TrimSpace(v.Str); s != "" {
				parts = append(parts, s)
			}
		default:
			if s := strings.TrimSpace(v.Raw); s != "" && s != "{}" && s != "[]" {
				parts = append(parts, s)
			}
		}
	}
	if s := strings.TrimSpace(r.Instructions); s != "" {
		parts = append(parts, s)
	}
	return strings.Join(parts, "\n")
}
