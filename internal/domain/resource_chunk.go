package domain

import "time"

// ResourceChunk is a retrievable unit of content. The embedding is produced
// once, when the owning resource is ingested, and is immutable afterwards.
// Bot scoping is transitive through ResourceID.
type ResourceChunk struct {
	ID         string
	ResourceID string
	ChunkIndex int
	Content    string
	Embedding  []float32
	CreatedAt  time.Time
}
