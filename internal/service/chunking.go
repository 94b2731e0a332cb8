package service

// Default chunking parameters for uploaded documents: 2300 code units per
// window with 25% overlap between consecutive windows.
const (
	DefaultChunkSize           = 2300
	DefaultChunkOverlapPercent = 25
)

// ChunkConfig controls chunking for document ingestion. Overlap is expressed
// in code units, not percent.
type ChunkConfig struct {
	Size    int
	Overlap int
}

// DefaultChunkConfig provides the standard window and overlap.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		Size:    DefaultChunkSize,
		Overlap: DefaultChunkSize * DefaultChunkOverlapPercent / 100,
	}
}

// ChunkWithOverlap splits text into fixed-size windows that overlap by
// cfg.Overlap code units, so retrieval does not lose context crossing a
// window boundary. Windows are rune-indexed and taken strictly left to
// right; the last window is left short rather than padded. The function is
// pure: identical input always yields the identical sequence.
func ChunkWithOverlap(text string, cfg ChunkConfig) []string {
	if cfg.Size <= 0 {
		cfg = DefaultChunkConfig()
	}

	step := cfg.Size - cfg.Overlap
	if step <= 0 {
		step = cfg.Size
	}

	runes := []rune(text)
	if len(runes) <= cfg.Size {
		return []string{text}
	}

	chunks := make([]string, 0, (len(runes)+step-1)/step)
	for start := 0; start < len(runes); start += step {
		end := start + cfg.Size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}

	return chunks
}
