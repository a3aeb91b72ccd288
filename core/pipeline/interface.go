package pipeline

import "github.com/dancancer/chargraph/model"

// EmbedFunc generates one embedding per input text in a single batched call.
// Identical input must yield identical vectors.
type EmbedFunc func(texts []string) ([][]float32, error)

// MentionDetectFunc detects raw name mentions in the given sentences.
// Offsets follow model.Mention: runes relative to the sentence.
type MentionDetectFunc func(sentences []model.Sentence) ([]model.Mention, error)

// Stage names reported to an Observer, in pipeline order
const (
	StagePreprocess  = "preprocess"
	StageNER         = "ner"
	StageAliases     = "aliases"
	StageMerge       = "merge"
	StageCoreference = "coreference"
	StageDialogue    = "dialogue"
	StageRelations   = "relations"
	StageResult      = "result"
)

// Observer receives an event at each pipeline boundary
type Observer interface {
	OnStage(stage string, payload model.Metadata)
}

// ObserverFunc adapts a plain function to the Observer interface
type ObserverFunc func(stage string, payload model.Metadata)

// OnStage calls f(stage, payload)
func (f ObserverFunc) OnStage(stage string, payload model.Metadata) {
	f(stage, payload)
}

// Observers fans a single event out to several observers
type Observers []Observer

// OnStage notifies every non-nil observer in order
func (o Observers) OnStage(stage string, payload model.Metadata) {
	for _, observer := range o {
		if observer != nil {
			observer.OnStage(stage, payload)
		}
	}
}

// Pipeline bundles the optional model collaborators of a Recognizer
type Pipeline struct {
	Embedder EmbedFunc         // Optional, enables semantic merging
	Detector MentionDetectFunc // Optional, merged with rule based mentions
}

// NewPipeline creates a pipeline with the given collaborators, either may be nil
func NewPipeline(detector MentionDetectFunc, embedder EmbedFunc) *Pipeline {
	return &Pipeline{
		Embedder: embedder,
		Detector: detector,
	}
}

// SetEmbedder sets the embedding function
func (p *Pipeline) SetEmbedder(embedder EmbedFunc) {
	p.Embedder = embedder
}

// SetDetector sets the mention detection function
func (p *Pipeline) SetDetector(detector MentionDetectFunc) {
	p.Detector = detector
}
