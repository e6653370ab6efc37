// Package documents turns uploaded plan files into text and model-readable attachments.
package documents

import (
	"bytes"
	"context"
	"strings"

	"construction_estimator/internal/domain/entities"
	"construction_estimator/internal/logger"
	"construction_estimator/internal/usecase/interfaces"

	"github.com/PuerkitoBio/goquery"
	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
)

// Extractor sniffs the content type of each upload:
//   - plain text (txt, csv, json, ...) is kept as text
//   - HTML is flattened to text; table rows become "cell, cell, cell" lines
//   - PDFs keep their text (one line per text row) and are forwarded as attachments
//   - images are forwarded as attachments
//   - anything else yields an empty document
type Extractor struct{}

var _ interfaces.IDocumentExtractor = (*Extractor)(nil)

func NewExtractor() *Extractor { return &Extractor{} }

func (x *Extractor) Extract(ctx context.Context, name string, data []byte) entities.ExtractedDocument {
	doc := entities.ExtractedDocument{Name: name}
	if len(data) == 0 || ctx.Err() != nil {
		return doc
	}

	mt := mimetype.Detect(data)
	switch {
	case mt.Is("text/html"):
		doc.Text = htmlText(data)
	case strings.HasPrefix(mt.String(), "text/"), mt.Is("application/json"):
		doc.Text = string(data)
	case mt.Is("application/pdf"):
		doc.Text = pdfText(name, data)
		doc.Attachments = []entities.Attachment{{Data: data, MIME: "application/pdf"}}
	case mt.Is("image/png"), mt.Is("image/jpeg"), mt.Is("image/gif"), mt.Is("image/webp"):
		doc.Attachments = []entities.Attachment{{Data: data, MIME: baseMIME(mt.String())}}
	default:
		logger.Log.Infof("[estimate][documents] unsupported upload name=%s mime=%s", name, mt.String())
	}
	return doc
}

func htmlText(data []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return ""
	}
	doc.Find("script, style, noscript").Remove()

	var lines []string
	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		var cells []string
		row.Find("td, th").Each(func(_ int, cell *goquery.Selection) {
			if t := strings.TrimSpace(cell.Text()); t != "" {
				cells = append(cells, t)
			}
		})
		if len(cells) > 0 {
			lines = append(lines, strings.Join(cells, ", "))
		}
	})
	doc.Find("table").Remove()

	doc.Find("p, li, h1, h2, h3, h4, h5, h6, div, br").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})
	for _, line := range strings.Split(doc.Text(), "\n") {
		if t := strings.TrimSpace(line); t != "" {
			lines = append(lines, t)
		}
	}
	return strings.Join(lines, "\n")
}

// pdfText returns the text rows of every page, top to bottom. Scanned or
// unreadable PDFs yield "" and are left to the attachment.
func pdfText(name string, data []byte) (text string) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log.Debugf("[estimate][documents] pdf text failed name=%s err=%v", name, r)
			text = ""
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		logger.Log.Debugf("[estimate][documents] pdf open failed name=%s err=%v", name, err)
		return ""
	}

	var lines []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			logger.Log.Debugf("[estimate][documents] pdf page skipped name=%s page=%d err=%v", name, i, err)
			continue
		}
		for _, row := range rows {
			var sb strings.Builder
			for _, word := range row.Content {
				sb.WriteString(word.S)
			}
			if line := strings.TrimSpace(sb.String()); line != "" {
				lines = append(lines, line)
			}
		}
	}
	return strings.Join(lines, "\n")
}

func baseMIME(s string) string {
	if i := strings.IndexByte(s, ';'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
