package app

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
	"golang.org/x/net/html"
)

// ExtractionResult is the output of the extraction capability.
type ExtractionResult struct {
	Text     string
	Metadata map[string]string
}

// Extractor is the pluggable extraction capability. Implementations turn
// raw document bytes into text plus free-form metadata; the pipeline never
// depends on a particular algorithm.
type Extractor interface {
	Extract(filename string, data []byte) (ExtractionResult, error)
}

// FormatExtractor dispatches on file extension to a format-specific
// extractor, defaulting to plain text.
type FormatExtractor struct{}

// Extract routes to the PDF, HTML, or plain-text extraction path.
func (FormatExtractor) Extract(filename string, data []byte) (ExtractionResult, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return extractPDF(data)
	case ".html", ".htm":
		return extractHTML(data)
	default:
		return extractText(data)
	}
}

func extractPDF(data []byte) (ExtractionResult, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return ExtractionResult{}, fmt.Errorf("open pdf: %w", err)
	}
	totalPages := reader.NumPage()
	var sb strings.Builder
	extracted := 0
	for i := 1; i <= totalPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Skip problematic pages instead of failing entirely.
			continue
		}
		text = normalizeText(text)
		if text == "" {
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
		extracted++
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return ExtractionResult{}, fmt.Errorf("no text extracted from pdf")
	}
	return ExtractionResult{
		Text: text,
		Metadata: map[string]string{
			"format":          "pdf",
			"pages":           fmt.Sprintf("%d", totalPages),
			"pages_extracted": fmt.Sprintf("%d", extracted),
		},
	}, nil
}

func extractHTML(data []byte) (ExtractionResult, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return ExtractionResult{}, fmt.Errorf("parse html: %w", err)
	}
	var sb strings.Builder
	title := ""
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style":
				return
			case "title":
				if n.FirstChild != nil && title == "" {
					title = strings.TrimSpace(n.FirstChild.Data)
				}
			}
		}
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				sb.WriteString(text)
				sb.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	text := normalizeText(sb.String())
	if text == "" {
		return ExtractionResult{}, fmt.Errorf("no text extracted from html")
	}
	meta := map[string]string{"format": "html"}
	if title != "" {
		meta["title"] = title
	}
	return ExtractionResult{Text: text, Metadata: meta}, nil
}

func extractText(data []byte) (ExtractionResult, error) {
	text := normalizeText(string(data))
	if text == "" {
		return ExtractionResult{}, fmt.Errorf("document is empty")
	}
	return ExtractionResult{
		Text:     text,
		Metadata: map[string]string{"format": "text"},
	}, nil
}

func normalizeText(in string) string {
	var sb strings.Builder
	lastSpace := false
	for _, r := range in {
		if unicode.IsSpace(r) {
			if !lastSpace {
				sb.WriteRune(' ')
			}
			lastSpace = true
			continue
		}
		sb.WriteRune(r)
		lastSpace = false
	}
	return strings.TrimSpace(sb.String())
}

// StubExtractor returns fixed output regardless of input. It stands in for
// the real capability in tests and local runs without an OCR backend.
type StubExtractor struct {
	Result ExtractionResult
	Err    error
}

// Extract returns the configured result.
func (s StubExtractor) Extract(filename string, _ []byte) (ExtractionResult, error) {
	if s.Err != nil {
		return ExtractionResult{}, s.Err
	}
	res := s.Result
	if res.Metadata == nil {
		res.Metadata = map[string]string{"format": "stub"}
	}
	if res.Text == "" {
		res.Text = "Extracted content of " + filename
	}
	return res, nil
}
