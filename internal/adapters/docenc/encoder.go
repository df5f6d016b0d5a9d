// Package docenc renders document actions into portable text formats:
// Markdown for Word documents and slide decks, CSV for spreadsheets.
package docenc

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/PabloGalante/staffdesk/internal/app/toolcall"
	"github.com/PabloGalante/staffdesk/internal/domain"
)

type format struct {
	ext      string
	mimeType string
}

var formats = map[domain.ActionKind]format{
	domain.ActionWord:  {ext: ".md", mimeType: "text/markdown; charset=utf-8"},
	domain.ActionSlide: {ext: ".md", mimeType: "text/markdown; charset=utf-8"},
	domain.ActionSheet: {ext: ".csv", mimeType: "text/csv; charset=utf-8"},
}

type Encoder struct{}

func New() *Encoder {
	return &Encoder{}
}

func (e *Encoder) Encode(ctx context.Context, action *domain.TriggeredAction) (*domain.EncodedFile, error) {
	f, ok := formats[action.Kind]
	if !ok {
		return nil, fmt.Errorf("docenc: %w: %s", domain.ErrNotSavable, action.Kind)
	}

	payload, err := toolcall.Decode(action)
	if err != nil {
		return nil, fmt.Errorf("docenc: %w", err)
	}

	var (
		data     []byte
		fileName string
		fallback string
	)
	switch p := payload.(type) {
	case toolcall.WordPayload:
		data = encodeWord(p)
		fileName, fallback = p.FileName, p.Title
	case toolcall.SlidePayload:
		data = encodeSlides(p)
		fileName, fallback = p.FileName, p.Title
	case toolcall.SheetPayload:
		data, err = encodeSheet(p)
		if err != nil {
			return nil, fmt.Errorf("docenc: %w", err)
		}
		fileName, fallback = p.FileName, p.Title
	}

	return &domain.EncodedFile{
		Data:     data,
		FileName: FileName(fileName, fallback, f.ext),
		MIMEType: f.mimeType,
	}, nil
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// FileName picks a safe base name and forces ext onto it, replacing whatever
// extension the model guessed.
func FileName(name, fallback, ext string) string {
	name = strings.TrimSpace(path.Base(strings.ReplaceAll(name, `\`, "/")))
	if name == "." || name == "/" {
		name = ""
	}
	if name == "" {
		name = fallback
	}
	name = strings.TrimSuffix(name, path.Ext(name))
	name = strings.Trim(unsafeChars.ReplaceAllString(name, "-"), "-.")
	if name == "" {
		name = "document"
	}
	return name + ext
}

func encodeWord(p toolcall.WordPayload) []byte {
	var b bytes.Buffer
	if p.Title != "" {
		fmt.Fprintf(&b, "# %s\n\n", p.Title)
	}
	for _, s := range p.Sections {
		if s.Heading != "" {
			fmt.Fprintf(&b, "## %s\n\n", s.Heading)
		}
		if body := strings.TrimSpace(s.Body); body != "" {
			b.WriteString(body)
			b.WriteString("\n\n")
		}
	}
	if c := strings.TrimSpace(p.Content); c != "" {
		b.WriteString(c)
		b.WriteString("\n")
	}
	return b.Bytes()
}

func encodeSlides(p toolcall.SlidePayload) []byte {
	var b bytes.Buffer
	if p.Title != "" {
		fmt.Fprintf(&b, "# %s\n", p.Title)
	}
	for _, s := range p.Slides {
		b.WriteString("\n---\n\n")
		if s.Title != "" {
			fmt.Fprintf(&b, "## %s\n\n", s.Title)
		}
		for _, bullet := range s.Bullets {
			fmt.Fprintf(&b, "- %s\n", bullet)
		}
		if s.Notes != "" {
			fmt.Fprintf(&b, "\n<!-- notes: %s -->\n", s.Notes)
		}
	}
	return b.Bytes()
}

func encodeSheet(p toolcall.SheetPayload) ([]byte, error) {
	var b bytes.Buffer
	w := csv.NewWriter(&b)
	if len(p.Columns) > 0 {
		if err := w.Write(p.Columns); err != nil {
			return nil, err
		}
	}
	if err := w.WriteAll(p.Rows); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

var _ domain.FileEncoder = (*Encoder)(nil)
