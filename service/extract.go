package service

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

const (
	// minExtractedTextLen is the shortest text we accept as a real text
	// layer. Scanned PDFs typically extract to nothing or a few stray
	// glyphs.
	minExtractedTextLen = 30

	// minPrintableRatio is the share of printable runes required for
	// extracted text to count as usable.
	minPrintableRatio = 0.9
)

// ExtractionResult is the output of text extraction from an uploaded binary.
type ExtractionResult struct {
	Text     string
	NumPages int
	Info     map[string]string
}

// Extract pulls plain text out of an uploaded document. The true file type
// is sniffed from magic bytes, not trusted from the filename. Corrupt or
// password-protected input returns ErrExtractionFailed rather than empty
// text masquerading as success.
func Extract(data []byte, filename, contentType string) (*ExtractionResult, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty file %q", ErrExtractionFailed, filename)
	}

	if isPDF(data) {
		return extractPDF(data)
	}
	if isZip(data) {
		return extractDOCX(data, filename)
	}
	if isProbablyText(data) || strings.HasPrefix(contentType, "text/") {
		return &ExtractionResult{
			Text:     string(data),
			NumPages: 1,
			Info:     map[string]string{"format": "text"},
		}, nil
	}

	return nil, fmt.Errorf("%w: unsupported file type %q", ErrExtractionFailed, filename)
}

// IsValidExtraction reports whether extracted text is usable for analysis.
// False for empty or very short text, or text dominated by non-printable
// characters (the scanned-image-PDF heuristic). Pure and deterministic; it
// gates real analysis vs mock fallback.
func IsValidExtraction(text string) bool {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < minExtractedTextLen {
		return false
	}

	printable := 0
	total := 0
	for _, r := range trimmed {
		total++
		if unicode.IsPrint(r) || r == '\n' || r == '\r' || r == '\t' {
			printable++
		}
	}

	return float64(printable)/float64(total) > minPrintableRatio
}

// TextToHTML converts extracted plain text into a minimal structural HTML
// representation: blank-line-separated blocks become paragraphs, single
// newlines become <br>. No heading inference, no I/O.
func TextToHTML(text string) string {
	normalized := strings.ReplaceAll(text, "\r\n", "\n")

	var sb strings.Builder
	for _, block := range strings.Split(normalized, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		lines := strings.Split(block, "\n")
		for i, line := range lines {
			lines[i] = html.EscapeString(strings.TrimSpace(line))
		}
		sb.WriteString("<p>")
		sb.WriteString(strings.Join(lines, "<br>"))
		sb.WriteString("</p>\n")
	}

	return sb.String()
}

func isPDF(b []byte) bool {
	// PDF starts with "%PDF-"
	return len(b) >= 5 && string(b[:5]) == "%PDF-"
}

func isZip(b []byte) bool {
	// ZIP local file header: PK\x03\x04
	return len(b) >= 4 && b[0] == 'P' && b[1] == 'K' && b[2] == 3 && b[3] == 4
}

func isProbablyText(b []byte) bool {
	sample := b
	if len(sample) > 4096 {
		sample = sample[:4096]
	}
	good := 0
	for _, c := range sample {
		if c == 0x00 {
			return false
		}
		if c == '\n' || c == '\r' || c == '\t' || (c >= 0x20 && c <= 0x7E) || c >= 0x80 {
			good++
		}
	}
	return float64(good)/float64(len(sample)) > minPrintableRatio
}

func extractPDF(data []byte) (result *ExtractionResult, err error) {
	// The pdf package panics on some malformed inputs instead of returning
	// an error.
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("%w: pdf parse panic: %v", ErrExtractionFailed, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: pdf reader: %v", ErrExtractionFailed, err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return nil, fmt.Errorf("%w: pdf text layer: %v", ErrExtractionFailed, err)
	}
	text, err := io.ReadAll(plain)
	if err != nil {
		return nil, fmt.Errorf("%w: pdf read: %v", ErrExtractionFailed, err)
	}

	return &ExtractionResult{
		Text:     string(text),
		NumPages: reader.NumPage(),
		Info:     map[string]string{"format": "pdf"},
	}, nil
}

// extractDOCX gathers the <w:t> runs of word/document.xml. Paragraph
// boundaries (</w:p>) become newlines so downstream HTML conversion keeps
// the document structure.
func extractDOCX(data []byte, filename string) (*ExtractionResult, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid zip container %q: %v", ErrExtractionFailed, filename, err)
	}

	var docXML []byte
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			rc, err := f.Open()
			if err != nil {
				return nil, fmt.Errorf("%w: open document.xml: %v", ErrExtractionFailed, err)
			}
			docXML, err = io.ReadAll(rc)
			rc.Close()
			if err != nil {
				return nil, fmt.Errorf("%w: read document.xml: %v", ErrExtractionFailed, err)
			}
			break
		}
	}
	if docXML == nil {
		return nil, fmt.Errorf("%w: %q is not a docx document", ErrExtractionFailed, filename)
	}

	var sb strings.Builder
	decoder := xml.NewDecoder(bytes.NewReader(docXML))
	inText := false
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: malformed document.xml: %v", ErrExtractionFailed, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}

	return &ExtractionResult{
		Text:     sb.String(),
		NumPages: 1,
		Info:     map[string]string{"format": "docx"},
	}, nil
}
