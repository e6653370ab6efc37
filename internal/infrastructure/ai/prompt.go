package ai

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"construction_estimator/internal/domain/entities"

	"github.com/anthropics/anthropic-sdk-go"
)

const (
	maxPromptTextChars      = 24000
	maxAttachmentsPerFile   = 2
	emptyPlansPlaceholder   = "No readable plan text was provided. Work from the attached drawings only."
	revisionInstructionsFmt = "Refine the estimate using the client's answers. " +
		"Maintain the JSON schema from before (items, assumptions, questions, currency, subtotal).\n\n" +
		"CURRENT:\n%s\n\nANSWERS:\n%s"
)

const systemPrimer = `You are a senior construction cost estimator.
Given residential plans (text + images), produce a DRAFT estimate, assumptions and clarification questions.
- Extract rooms/scopes (kitchen, baths, flooring, roofing, etc.)
- Estimate quantities (sqft, LF, count) and finish tier (basic, standard, premium) when indicated.
- If dimensions are missing, infer with clearly stated assumptions and confidence.
- Prefer US units. Keep pricing realistic but conservative for a rough order of magnitude.
Return JSON ONLY with keys: items, assumptions, questions, currency, subtotal.
items[]: {name, scope, qty, unit, finish?, unit_cost, total_cost, notes?}
assumptions[]: {topic, assumption, confidence (0-1)}
questions[]: strings to ask the client to firm up pricing (max 5).`

// draftContent merges the text of every document (capped) into one leading text
// block and appends up to maxAttachmentsPerFile images/PDFs per document.
func draftContent(docs []entities.ExtractedDocument) []anthropic.ContentBlockParamUnion {
	var (
		texts  []string
		blocks []anthropic.ContentBlockParamUnion
	)
	for _, d := range docs {
		if strings.TrimSpace(d.Text) != "" {
			texts = append(texts, "FILE: "+d.Name+"\n"+d.Text)
		}
		n := 0
		for _, a := range d.Attachments {
			if n == maxAttachmentsPerFile {
				break
			}
			block, ok := attachmentBlock(a)
			if !ok {
				continue
			}
			blocks = append(blocks, block)
			n++
		}
	}

	text := truncateRunes(strings.Join(texts, "\n\n"), maxPromptTextChars)
	if text == "" {
		text = emptyPlansPlaceholder
	}
	return append([]anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(text)}, blocks...)
}

func attachmentBlock(a entities.Attachment) (anthropic.ContentBlockParamUnion, bool) {
	data := base64.StdEncoding.EncodeToString(a.Data)
	switch a.MIME {
	case "application/pdf":
		return anthropic.NewDocumentBlock(anthropic.Base64PDFSourceParam{Data: data}), true
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return anthropic.NewImageBlockBase64(a.MIME, data), true
	}
	return anthropic.ContentBlockParamUnion{}, false
}

func revisionContent(current entities.Estimate, input string) ([]anthropic.ContentBlockParamUnion, error) {
	snapshot, err := json.Marshal(current)
	if err != nil {
		return nil, fmt.Errorf("encode current estimate: %w", err)
	}
	text := fmt.Sprintf(revisionInstructionsFmt, snapshot, input)
	return []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(text)}, nil
}

func truncateRunes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
