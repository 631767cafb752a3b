package domain

import "time"

// Chunk is a bounded fragment of a source document's text, produced by the
// splitter and owned by the index once ingested.
type Chunk struct {
	Content  string   `json:"content"`
	Metadata Metadata `json:"metadata"`
}

// Metadata carries per-chunk provenance. SequenceIndex and TotalChunks let a
// consumer reconstruct document order; Filename and DocumentType are stamped
// at upload time and shared by every chunk of one upload.
type Metadata struct {
	SourceID      string `json:"source_id"      db:"source_id"`
	Filename      string `json:"filename"       db:"filename"`
	SequenceIndex int    `json:"sequence_index" db:"sequence_index"`
	TotalChunks   int    `json:"total_chunks"   db:"total_chunks"`
	DocumentType  string `json:"document_type"  db:"document_type"`
}

// UploadMeta is caller-supplied metadata merged into every chunk of an
// upload before indexing.
type UploadMeta struct {
	Filename     string
	StoredPath   string
	DocumentType string
}

// StoredChunk is a chunk persisted in the vector store under a unique id.
type StoredChunk struct {
	ID        string    `json:"id" db:"id"`
	Chunk
	Vector    []float32 `json:"-"          db:"vector"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ScoredChunk is returned by similarity search. Similarity is cosine
// similarity in [-1, 1], higher meaning more relevant.
type ScoredChunk struct {
	Chunk
	Similarity float64 `json:"similarity"`
}

// DocumentInfo summarizes one uploaded document, grouped by filename.
type DocumentInfo struct {
	Filename     string `json:"filename"`
	ChunkCount   int    `json:"chunk_count"`
	DocumentType string `json:"document_type"`
}
