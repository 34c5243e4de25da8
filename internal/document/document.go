package document

// SourceType is the declared kind of an uploaded document.
type SourceType string

const (
	SourcePDF     SourceType = "pdf"
	SourceDOCX    SourceType = "docx"
	SourceHTML    SourceType = "html"
	SourceUnknown SourceType = "unknown"
)

// ChunkTypeLiteratureText tags every chunk produced from literature body text.
const ChunkTypeLiteratureText = "literature_text"

// EmbeddingStatus tracks a chunk through the downstream embedding worker.
// The pipeline only ever emits StatusPending.
type EmbeddingStatus string

const (
	StatusPending    EmbeddingStatus = "pending"
	StatusProcessing EmbeddingStatus = "processing"
	StatusCompleted  EmbeddingStatus = "completed"
	StatusFailed     EmbeddingStatus = "failed"
)

// ExtractedText is the result of extracting one document.
type ExtractedText struct {
	Title               string     `json:"title"`
	Body                string     `json:"extracted_text"`
	ExtractionSucceeded bool       `json:"extraction_success"`
	SourceType          SourceType `json:"file_type"`
	TextLength          int        `json:"text_length"`
}

// Segment is one splitter output record, before token estimation.
type Segment struct {
	Index       int    // Position among surviving segments
	Text        string // Trimmed, never empty
	CharLength  int    // Rune count of Text
	StartOffset int    // Rune offset of Text in the source, -1 if not located
}

// Chunk is a sized text segment enriched with identifiers, ready for persistence.
type Chunk struct {
	Index           int             `json:"chunk_index"`
	Text            string          `json:"text"`
	CharLength      int             `json:"char_length"`
	EstimatedTokens int             `json:"estimated_tokens"`
	StartOffset     int             `json:"start_char"`
	LiteratureID    string          `json:"literature_id"`
	GroupID         string          `json:"group_id"`
	ChunkType       string          `json:"chunk_type"`
	EmbeddingStatus EmbeddingStatus `json:"embedding_status"`
}

// Summary aggregates a chunk set the way the chunk stats endpoint reports it.
type Summary struct {
	TotalChunks     int                     `json:"total_chunks"`
	TotalChars      int                     `json:"total_chars"`
	TotalTokens     int                     `json:"total_tokens"`
	EmbeddingStatus map[EmbeddingStatus]int `json:"embedding_status"`
}

// Summarize counts chunks, characters, tokens and embedding states.
func Summarize(chunks []Chunk) Summary {
	s := Summary{
		EmbeddingStatus: map[EmbeddingStatus]int{
			StatusPending:    0,
			StatusProcessing: 0,
			StatusCompleted:  0,
			StatusFailed:     0,
		},
	}
	for _, c := range chunks {
		s.TotalChunks++
		s.TotalChars += c.CharLength
		s.TotalTokens += c.EstimatedTokens
		s.EmbeddingStatus[c.EmbeddingStatus]++
	}
	return s
}
