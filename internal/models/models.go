package models

// Chunk represents one bounded window of extracted document text
type Chunk struct {
	Text       string
	SourceFile string
	Page       int
	Seq        int
}

// Source ties an answer back to the chunk that supported it
type Source struct {
	File    string `json:"file"`
	Page    int    `json:"page"`
	Content string `json:"content"`
}

// Answer is the generated response plus its supporting evidence
type Answer struct {
	Response string   `json:"response"`
	Sources  []Source `json:"sources"`
}
