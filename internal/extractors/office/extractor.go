// Package office extracts text from OOXML documents (docx, pptx, xlsx).
// The formats are ZIP archives of XML parts; no external tooling needed.
package office

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/domain"
	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/ports/driven"
)

// OOXML MIME types, as reported by Drive and by file uploads.
const (
	MIMEDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIMEPptx = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	MIMEXlsx = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles the OOXML office formats.
type Extractor struct{}

// New creates a new office document extractor.
func New() *Extractor {
	return &Extractor{}
}

// CanHandle reports whether the kind is an OOXML type.
func (e *Extractor) CanHandle(kind string) bool {
	switch kind {
	case MIMEDocx, MIMEPptx, MIMEXlsx:
		return true
	}
	return false
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 50
}

// Extract opens the payload as a ZIP archive and pulls the text parts
// for the format at hand. Paragraph and slide boundaries become blank
// lines so downstream chunking keeps them.
func (e *Extractor) Extract(_ context.Context, raw *domain.RawContent) (string, error) {
	if raw == nil {
		return "", domain.ErrInvalidInput
	}

	reader, err := zip.NewReader(bytes.NewReader(raw.Data), int64(len(raw.Data)))
	if err != nil {
		return "", domain.ErrInvalidInput
	}

	switch raw.Kind {
	case MIMEDocx:
		return extractDocx(reader)
	case MIMEPptx:
		return extractPptx(reader)
	case MIMEXlsx:
		return extractXlsx(reader)
	}
	return "", domain.ErrUnsupportedKind
}

// documentXML mirrors the parts of word/document.xml we read.
type documentXML struct {
	Body struct {
		Paragraphs []struct {
			Runs []struct {
				Text []struct {
					Content string `xml:",chardata"`
				} `xml:"t"`
			} `xml:"r"`
		} `xml:"p"`
	} `xml:"body"`
}

// extractDocx reads the paragraph runs of word/document.xml.
func extractDocx(reader *zip.Reader) (string, error) {
	content, err := readPart(reader, "word/document.xml")
	if err != nil {
		return "", err
	}
	if content == nil {
		return "", domain.ErrNoContent
	}

	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return "", domain.ErrInvalidInput
	}

	var paragraphs []string
	for _, para := range doc.Body.Paragraphs {
		var b strings.Builder
		for _, run := range para.Runs {
			for _, text := range run.Text {
				b.WriteString(text.Content)
			}
		}
		if p := strings.TrimSpace(b.String()); p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return strings.Join(paragraphs, "\n\n"), nil
}

var slidePattern = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// extractPptx reads the text runs of every slide, in slide order.
func extractPptx(reader *zip.Reader) (string, error) {
	type slide struct {
		num  int
		name string
	}
	var slides []slide
	for _, file := range reader.File {
		m := slidePattern.FindStringSubmatch(file.Name)
		if m == nil {
			continue
		}
		num, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		slides = append(slides, slide{num: num, name: file.Name})
	}
	if len(slides) == 0 {
		return "", domain.ErrNoContent
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].num < slides[j].num })

	var parts []string
	for _, s := range slides {
		content, err := readPart(reader, s.name)
		if err != nil {
			return "", err
		}
		texts := collectTextElements(content)
		if len(texts) > 0 {
			parts = append(parts, strings.Join(texts, "\n"))
		}
	}
	return strings.Join(parts, "\n\n"), nil
}

// extractXlsx reads the shared string table. Cell values referencing it
// cover the text content of a workbook; numeric cells carry no prose.
func extractXlsx(reader *zip.Reader) (string, error) {
	content, err := readPart(reader, "xl/sharedStrings.xml")
	if err != nil {
		return "", err
	}
	if content == nil {
		return "", domain.ErrNoContent
	}
	return strings.Join(collectTextElements(content), "\n"), nil
}

// readPart returns the named archive entry, or nil when absent.
func readPart(reader *zip.Reader, name string) ([]byte, error) {
	for _, file := range reader.File {
		if file.Name != name {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, domain.ErrInvalidInput
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, domain.ErrInvalidInput
		}
		return content, nil
	}
	return nil, nil
}

// collectTextElements walks the XML token stream and gathers the
// character data of every <t> element (the text run element in both
// DrawingML and spreadsheet XML), skipping empty runs.
func collectTextElements(content []byte) []string {
	decoder := xml.NewDecoder(bytes.NewReader(content))
	var out []string
	inText := false
	var current strings.Builder
	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
				current.Reset()
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		case xml.EndElement:
			if t.Name.Local == "t" && inText {
				inText = false
				if s := strings.TrimSpace(current.String()); s != "" {
					out = append(out, s)
				}
			}
		}
	}
	return out
}
