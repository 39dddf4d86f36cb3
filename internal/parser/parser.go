package parser

import (
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/textsplitter"

	"medassist/internal/models"
)

const (
	defaultChunkSize    = 500
	defaultChunkOverlap = 50
)

type Config struct {
	ChunkSize    int
	ChunkOverlap int
}

// Page is one page worth of extracted text.
type Page struct {
	Number int
	Text   string
}

// Parser turns a stored PDF into chunks ready for embedding.
type Parser struct {
	cfg Config
}

func New(cfg Config) *Parser {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = defaultChunkSize
	}
	if cfg.ChunkOverlap <= 0 {
		cfg.ChunkOverlap = defaultChunkOverlap
	}
	if cfg.ChunkOverlap >= cfg.ChunkSize {
		cfg.ChunkOverlap = cfg.ChunkSize / 2
	}
	return &Parser{cfg: cfg}
}

// Parse extracts the document's text page by page and splits it into
// overlapping windows. The stored path doubles as the source identifier
// carried in every chunk.
func (p *Parser) Parse(filePath string) ([]models.Chunk, error) {
	pages, err := ExtractPages(filePath)
	if err != nil {
		return nil, err
	}
	return p.ChunkPages(filePath, pages)
}

// ExtractPages reads the PDF at filePath and returns one text segment per
// page, 1-based. Extraction is fully delegated to the pdf library.
func ExtractPages(filePath string) ([]Page, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}

	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("read pdf %s: %w", filePath, err)
	}

	var pages []Page
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extract page %d of %s: %w", i, filePath, err)
		}
		pages = append(pages, Page{Number: i, Text: pageText})
	}
	return pages, nil
}

// ChunkPages splits each page independently, so a chunk never crosses a page
// boundary. The sequence index is file-wide and increases monotonically
// across pages, giving every chunk a stable `{stem}-{seq}` key downstream.
func (p *Parser) ChunkPages(source string, pages []Page) ([]models.Chunk, error) {
	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(p.cfg.ChunkSize),
		textsplitter.WithChunkOverlap(p.cfg.ChunkOverlap),
	)

	var chunks []models.Chunk
	seq := 0
	for _, page := range pages {
		text := strings.TrimSpace(page.Text)
		if text == "" {
			continue
		}
		parts, err := splitter.SplitText(text)
		if err != nil {
			return nil, fmt.Errorf("split page %d: %w", page.Number, err)
		}
		for _, part := range parts {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			chunks = append(chunks, models.Chunk{
				Text:       part,
				SourceFile: source,
				Page:       page.Number,
				Seq:        seq,
			})
			seq++
		}
	}

	log.Debug().Str("file", source).Int("pages", len(pages)).Int("chunks", len(chunks)).Msg("Chunked document")
	return chunks, nil
}
