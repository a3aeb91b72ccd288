package model

import (
	"time"

	"github.com/google/uuid"
)

// PronounResolution maps a sentence index to the canonical name its pronoun refers to
type PronounResolution map[int]string

// PronounLink is a single resolved pronoun occurrence
type PronounLink struct {
	SentenceIndex int    `json:"sentence_index"`
	Pronoun       string `json:"pronoun"`
	Offset        int    `json:"offset"`
	Character     string `json:"character"`
}

// DialogueAttribution is a quote assigned to a speaker
type DialogueAttribution struct {
	SentenceIndex int    `json:"sentence_index"`
	Quote         string `json:"quote"`
	Speaker       string `json:"speaker"`
	Pattern       int    `json:"pattern"`
}

// MergeStrategy names the cluster merge path that produced the final partition
type MergeStrategy string

const (
	MergeStrategyNone     MergeStrategy = "none"
	MergeStrategySemantic MergeStrategy = "semantic"
	MergeStrategyString   MergeStrategy = "string"
)

// Statistics summarizes a recognition run
type Statistics struct {
	TotalCharacters  int           `json:"total_characters"`
	TotalMentions    int           `json:"total_mentions"`
	TotalDialogues   int           `json:"total_dialogues"`
	ResolvedPronouns int           `json:"resolved_pronouns"`
	TextLength       int           `json:"text_length"`
	SentenceCount    int           `json:"sentence_count"`
	MergeStrategy    MergeStrategy `json:"merge_strategy"`
	ProcessingTime   time.Duration `json:"processing_time"`
}

// RecognitionResult is the snapshot returned by one recognition run
type RecognitionResult struct {
	RunID        uuid.UUID             `json:"run_id"`
	Characters   []*Character          `json:"characters"`
	AliasMap     AliasMap              `json:"alias_map"`
	Relations    []Relation            `json:"relations"`
	Pronouns     PronounResolution     `json:"pronouns"`
	PronounLinks []PronounLink         `json:"pronoun_links,omitempty"`
	Dialogues    []DialogueAttribution `json:"dialogues,omitempty"`
	Statistics   Statistics            `json:"statistics"`

	// Profiles holds one context embedding per canonical name when requested
	Profiles map[string][]float32 `json:"-"`
}

// Character returns the character with the given canonical name, or nil
func (r *RecognitionResult) Character(canonicalName string) *Character {
	for _, c := range r.Characters {
		if c.CanonicalName == canonicalName {
			return c
		}
	}
	return nil
}

// RecognitionOptions toggles the optional stages of a single run.
// Zero numeric values fall back to the configuration.
type RecognitionOptions struct {
	EnableCoreference bool `json:"enable_coreference"`
	EnableDialogue    bool `json:"enable_dialogue"`
	EnableRelations   bool `json:"enable_relations"`
	EmbedProfiles     bool `json:"embed_profiles"`
	MinMentions       int  `json:"min_mentions,omitempty"`
	MaxCharacters     int  `json:"max_characters,omitempty"`
}

// DefaultRecognitionOptions enables every stage
func DefaultRecognitionOptions() RecognitionOptions {
	return RecognitionOptions{
		EnableCoreference: true,
		EnableDialogue:    true,
		EnableRelations:   true,
	}
}
