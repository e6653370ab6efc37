package documents

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"construction_estimator/internal/domain/extractor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func TestExtractPlainText(t *testing.T) {
	doc := NewExtractor().Extract(context.Background(), "rooms.txt", []byte("Kitchen, 150, premium\nBath, 80, standard\n"))

	assert.Equal(t, "rooms.txt", doc.Name)
	assert.Contains(t, doc.Text, "Kitchen, 150, premium")
	assert.Empty(t, doc.Attachments)
}

func TestExtractHTMLTablesBecomeRoomLines(t *testing.T) {
	page := `<!DOCTYPE html><html><head><style>td{color:red}</style><script>var x=1;</script></head>
<body><h1>Maple St plans</h1>
<table><tr><th>Room</th><th>Area</th><th>Finish</th></tr>
<tr><td>Kitchen</td><td>150</td><td>premium</td></tr>
<tr><td>Bath</td><td>80</td><td>standard</td></tr></table>
<p>Notes: verify slab.</p></body></html>`

	doc := NewExtractor().Extract(context.Background(), "plans.html", []byte(page))

	assert.NotContains(t, doc.Text, "var x")
	assert.NotContains(t, doc.Text, "color:red")
	assert.Contains(t, doc.Text, "Maple St plans")
	assert.Contains(t, doc.Text, "Notes: verify slab.")

	rooms := extractor.Collect(extractor.ExtractText(doc.Text))
	require.Len(t, rooms, 2)
	assert.Equal(t, "Kitchen", rooms[0].Name)
	assert.Equal(t, 150.0, rooms[0].Quantity)
	assert.Equal(t, "standard", rooms[1].Finish)
}

func TestExtractPDFAndImagesAsAttachments(t *testing.T) {
	x := NewExtractor()

	pdf := x.Extract(context.Background(), "a.pdf", []byte("%PDF-1.7\n1 0 obj\n<<>>\nendobj\n"))
	require.Len(t, pdf.Attachments, 1)
	assert.Equal(t, "application/pdf", pdf.Attachments[0].MIME)
	assert.Empty(t, pdf.Text)

	img := x.Extract(context.Background(), "sheet.png", pngHeader)
	require.Len(t, img.Attachments, 1)
	assert.Equal(t, "image/png", img.Attachments[0].MIME)
}

// textPDF builds a one-page PDF that draws each line on its own text row.
func textPDF(lines ...string) []byte {
	var content strings.Builder
	content.WriteString("BT\n/F1 12 Tf\n")
	for i, l := range lines {
		fmt.Fprintf(&content, "1 0 0 1 72 %d Tm\n(%s) Tj\n", 720-20*i, l)
	}
	content.WriteString("ET\n")

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 4 0 R >> >> /Contents 5 0 R >>",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", content.Len(), content.String()),
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func TestExtractPDFTextFeedsRoomDetection(t *testing.T) {
	data := textPDF("Maple St - floor plan", "Kitchen, 150 sqft, premium", "Bath, 80, standard")

	doc := NewExtractor().Extract(context.Background(), "plans.pdf", data)

	require.Len(t, doc.Attachments, 1)
	assert.Equal(t, "application/pdf", doc.Attachments[0].MIME)
	assert.Equal(t, "Maple St - floor plan\nKitchen, 150 sqft, premium\nBath, 80, standard", doc.Text)

	rooms := extractor.Collect(extractor.ExtractText(doc.Text))
	require.Len(t, rooms, 2)
	assert.Equal(t, "Kitchen", rooms[0].Name)
	assert.Equal(t, 80.0, rooms[1].Quantity)
}

func TestExtractUnsupportedOrEmptyNeverFails(t *testing.T) {
	x := NewExtractor()

	assert.Empty(t, x.Extract(context.Background(), "blob.bin", []byte{0x00, 0x01, 0x02, 0xff}).Text)
	assert.Empty(t, x.Extract(context.Background(), "empty", nil).Attachments)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	doc := x.Extract(ctx, "late.txt", []byte("Kitchen, 150, premium"))
	assert.Empty(t, doc.Text)
	assert.Equal(t, "late.txt", doc.Name)
}
