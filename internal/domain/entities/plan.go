package entities

// RoomSpec is a manually entered (or extracted) room to be priced by finish tier.
type RoomSpec struct {
	Name     string  `json:"name"`
	AreaSqft float64 `json:"area_sqft"`
	Finish   string  `json:"finish,omitempty"`
}

// Candidate is a line item detected in plan text by the extractor.
type Candidate struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit,omitempty"`
	Finish   string  `json:"finish"`
}

// Document is an uploaded plan file.
type Document struct {
	Name string
	Data []byte
}

// Attachment is a binary payload (image or PDF page set) forwarded to the draft generator.
type Attachment struct {
	Data []byte
	MIME string
}

// ExtractedDocument is the text/attachment split of one uploaded document.
type ExtractedDocument struct {
	Name        string
	Text        string
	Attachments []Attachment
}

// Draft is the payload returned by the draft-generation/revision collaborator.
//
// Totals are not trusted: items are re-priced before persisting.
type Draft struct {
	Items       []DraftItem
	Assumptions []Assumption
	Questions   []string
	Currency    string
	Subtotal    *float64
}

// DraftItem keeps numeric fields optional so a missing factor can be told apart from zero.
type DraftItem struct {
	Name      string
	Scope     string
	Quantity  *float64
	Unit      string
	Finish    string
	UnitCost  *float64
	TotalCost *float64
	Notes     string
}
