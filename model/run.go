package model

import (
	"time"

	"github.com/google/uuid"
)

// Run is a persisted recognition run
type Run struct {
	ID            int           `json:"id"`
	RID           uuid.UUID     `json:"rid"`
	Title         string        `json:"title"`
	TextLength    int           `json:"text_length"`
	SentenceCount int           `json:"sentence_count"`
	MergeStrategy MergeStrategy `json:"merge_strategy"`
	Statistics    Metadata      `json:"statistics"`
	CreatedAt     time.Time     `json:"created_at"`
}

// CharacterRecord is a persisted character of a run.
// Similarity is only set by similarity lookups.
type CharacterRecord struct {
	ID         int       `json:"id"`
	RunID      int       `json:"run_id"`
	RunRID     uuid.UUID `json:"run_rid"`
	Character  Character `json:"character"`
	Embedding  []float32 `json:"embedding,omitempty"`
	Similarity float64   `json:"similarity,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// RelationRecord is a persisted relation of a run
type RelationRecord struct {
	ID        int       `json:"id"`
	RunID     int       `json:"run_id"`
	Relation  Relation  `json:"relation"`
	CreatedAt time.Time `json:"created_at"`
}

// NewRun builds the run row for a recognition result
func NewRun(title string, result *RecognitionResult) *Run {
	stats := result.Statistics
	return &Run{
		RID:           result.RunID,
		Title:         title,
		TextLength:    stats.TextLength,
		SentenceCount: stats.SentenceCount,
		MergeStrategy: stats.MergeStrategy,
		Statistics: Metadata{
			"total_characters":  stats.TotalCharacters,
			"total_mentions":    stats.TotalMentions,
			"total_dialogues":   stats.TotalDialogues,
			"resolved_pronouns": stats.ResolvedPronouns,
			"processing_ms":     stats.ProcessingTime.Milliseconds(),
		},
	}
}
