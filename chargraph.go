package chargraph

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dancancer/chargraph/core/alias"
	"github.com/dancancer/chargraph/core/coref"
	"github.com/dancancer/chargraph/core/dialogue"
	"github.com/dancancer/chargraph/core/filter"
	"github.com/dancancer/chargraph/core/matcher"
	"github.com/dancancer/chargraph/core/mention"
	"github.com/dancancer/chargraph/core/pipeline"
	"github.com/dancancer/chargraph/core/relation"
	"github.com/dancancer/chargraph/database"
	"github.com/dancancer/chargraph/helper"
	"github.com/dancancer/chargraph/model"
	"github.com/google/uuid"
)

// Recognizer extracts characters, aliases and relations from narrative text.
// It holds only immutable configuration and injected collaborators, so
// concurrent Recognize calls are safe.
type Recognizer struct {
	Pipeline *pipeline.Pipeline // Optional model collaborators

	// Optional persistence, see ConnectDatabase
	DB         *helper.Database
	Runs       *database.RunsDBHandler
	Characters *database.CharactersDBHandler
	Relations  *database.RelationsDBHandler

	cfg        model.Config
	extractor  *mention.Extractor
	fallback   pipeline.MentionDetectFunc
	resolver   *coref.Resolver
	attributor *dialogue.Attributor
	relations  *relation.Extractor
	filter     *filter.Filter
	observers  pipeline.Observers

	// Loaded models owned by the recognizer, released by Close
	ner      *pipeline.NERDetector
	embedder *pipeline.Embedder

	// Logging
	log *slog.Logger
}

// Option configures a Recognizer
type Option func(*Recognizer)

// WithLogger replaces the default pretty stdout logger
func WithLogger(logger *slog.Logger) Option {
	return func(r *Recognizer) {
		if logger != nil {
			r.log = logger
		}
	}
}

// WithPipeline sets the model collaborators
func WithPipeline(p *pipeline.Pipeline) Option {
	return func(r *Recognizer) {
		r.Pipeline = p
	}
}

// WithObserver adds an observer notified at every stage boundary
func WithObserver(observer pipeline.Observer) Option {
	return func(r *Recognizer) {
		r.observers = append(r.observers, observer)
	}
}

// NewRecognizer validates cfg and builds every rule based component.
// Without a pipeline the recognizer runs on rules and string similarity only.
func NewRecognizer(cfg model.Config, opts ...Option) (*Recognizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, helper.NewError("validate config", err)
	}

	r := &Recognizer{
		cfg: cfg,
		log: helper.NewLogger(os.Stdout, slog.LevelInfo),
	}
	for _, opt := range opts {
		opt(r)
	}

	var err error
	r.extractor, err = mention.NewExtractor(cfg)
	if err != nil {
		return nil, helper.NewError("create mention extractor", err)
	}
	r.fallback, err = pipeline.RuleMentionDetector(cfg)
	if err != nil {
		return nil, helper.NewError("create rule detector", err)
	}
	r.resolver, err = coref.NewResolver(cfg)
	if err != nil {
		return nil, helper.NewError("create coreference resolver", err)
	}
	r.attributor, err = dialogue.NewAttributor(cfg)
	if err != nil {
		return nil, helper.NewError("create dialogue attributor", err)
	}
	r.relations, err = relation.NewExtractor(cfg)
	if err != nil {
		return nil, helper.NewError("create relation extractor", err)
	}
	r.filter, err = filter.NewFilter(cfg)
	if err != nil {
		return nil, helper.NewError("create filter", err)
	}

	return r, nil
}

// Config returns the configuration the recognizer was built with
func (r *Recognizer) Config() model.Config {
	return r.cfg
}

// SetPipeline sets the model collaborators
func (r *Recognizer) SetPipeline(p *pipeline.Pipeline) {
	r.Pipeline = p
}

// UseDefaultPipeline sets up the hugot name detector and sentence embedder
// configured by NERModel and EmbeddingModel. Models are downloaded and loaded
// on the first Recognize call that needs them.
func (r *Recognizer) UseDefaultPipeline() {
	r.ner = pipeline.NewNERDetector(r.cfg)
	r.embedder = pipeline.NewEmbedder(r.cfg)
	r.Pipeline = pipeline.NewPipeline(r.ner.Detect, r.embedder.Embed)
}

// Close releases loaded models and the database connection
func (r *Recognizer) Close() error {
	var firstErr error
	if r.ner != nil {
		if err := r.ner.Close(); err != nil {
			firstErr = helper.NewError("close ner detector", err)
		}
	}
	if r.embedder != nil {
		if err := r.embedder.Close(); err != nil && firstErr == nil {
			firstErr = helper.NewError("close embedder", err)
		}
	}
	if r.DB != nil && r.DB.Instance != nil {
		if err := r.DB.Instance.Close(); err != nil && firstErr == nil {
			firstErr = helper.NewError("close database", err)
		}
	}
	return firstErr
}

// Recognize runs the full pipeline over text and returns a snapshot of the result.
// Empty text yields an empty, valid result.
func (r *Recognizer) Recognize(text string, opts model.RecognitionOptions) (*model.RecognitionResult, error) {
	start := time.Now()
	result := &model.RecognitionResult{
		RunID:      uuid.New(),
		Characters: []*model.Character{},
		AliasMap:   model.AliasMap{},
		Relations:  []model.Relation{},
		Pronouns:   model.PronounResolution{},
	}

	cleaned, sentences := pipeline.Preprocess(text)
	result.Statistics.TextLength = utf8.RuneCountInString(text)
	result.Statistics.SentenceCount = len(sentences)
	result.Statistics.MergeStrategy = model.MergeStrategyNone
	r.stage(pipeline.StagePreprocess, model.Metadata{
		"text_length":    utf8.RuneCountInString(cleaned),
		"sentence_count": len(sentences),
	})

	if len(sentences) == 0 {
		return r.finish(result, start), nil
	}

	// Mentions
	detected, source := r.detect(sentences)
	r.stage(pipeline.StageNER, model.Metadata{"mentions": len(detected), "source": string(source)})

	extracted := r.extractor.Extract(sentences)
	mentions := pipeline.MergeMentions(detected, extracted)
	result.Statistics.TotalMentions = len(mentions)
	r.stage(pipeline.StageAliases, model.Metadata{"rule_mentions": len(extracted), "mentions": len(mentions)})

	// Identities
	var embed pipeline.EmbedFunc
	if r.Pipeline != nil {
		embed = r.Pipeline.Embedder
	}
	builder, err := alias.NewBuilder(r.cfg, embed, r.log)
	if err != nil {
		return nil, helper.NewError("create cluster builder", err)
	}
	resolution, err := builder.Resolve(mentions, sentences)
	if err != nil {
		return nil, helper.NewError("resolve identities", err)
	}
	result.Statistics.MergeStrategy = resolution.Strategy
	r.stage(pipeline.StageMerge, model.Metadata{"characters": len(resolution.Characters), "strategy": string(resolution.Strategy)})

	names, err := matcher.New(resolution.AliasMap)
	if err != nil {
		return nil, helper.NewError("build alias matcher", err)
	}

	// Independent consumers of the alias table
	var relations []model.Relation
	if opts.EnableCoreference {
		coreference := r.resolver.Resolve(sentences, resolution.Characters, names)
		result.Pronouns = coreference.Resolution
		result.PronounLinks = coreference.Links
		r.stage(pipeline.StageCoreference, model.Metadata{"sentences": len(coreference.Resolution), "pronouns": len(coreference.Links)})
	}
	if opts.EnableDialogue {
		result.Dialogues = r.attributor.Attribute(sentences, resolution.Characters, names)
		r.stage(pipeline.StageDialogue, model.Metadata{"dialogues": len(result.Dialogues)})
	}
	if opts.EnableRelations {
		relations = r.relations.Extract(sentences, names)
		r.stage(pipeline.StageRelations, model.Metadata{"relations": len(relations)})
	}

	// Filter and rank
	minMentions := opts.MinMentions
	if minMentions == 0 {
		minMentions = r.cfg.MinMentions
	}
	maxCharacters := opts.MaxCharacters
	if maxCharacters == 0 {
		maxCharacters = r.cfg.MaxCharacters
	}
	result.Characters = r.filter.Apply(resolution.Characters, minMentions, maxCharacters)
	result.AliasMap = resolution.AliasMap.Restrict(result.Characters)
	result.Relations = relation.Prune(relations, result.Characters)

	if opts.EmbedProfiles {
		result.Profiles = r.profiles(result.Characters, sentences, names)
	}

	return r.finish(result, start), nil
}

// detect runs the model detector, or the surname rules when it is missing or fails
func (r *Recognizer) detect(sentences []model.Sentence) ([]model.Mention, model.MentionSource) {
	if r.Pipeline != nil && r.Pipeline.Detector != nil {
		mentions, err := r.Pipeline.Detector(sentences)
		if err == nil {
			return mentions, model.MentionSourceDetector
		}
		r.log.Warn("Name detector failed, using surname rules", slog.String("error", err.Error()))
	}

	mentions, err := r.fallback(sentences)
	if err != nil {
		r.log.Warn("Surname rules failed", slog.String("error", err.Error()))
		return nil, model.MentionSourceRule
	}
	return mentions, model.MentionSourceRule
}

// profiles embeds, per character, the first sentences that mention it.
// A failing embedder only costs the profiles.
func (r *Recognizer) profiles(characters []*model.Character, sentences []model.Sentence, names *matcher.Matcher) map[string][]float32 {
	if r.Pipeline == nil || r.Pipeline.Embedder == nil || len(characters) == 0 {
		return nil
	}

	contexts := make(map[string][]string, len(characters))
	for _, s := range sentences {
		for _, name := range names.Present(s.Text) {
			if len(contexts[name]) < r.cfg.ContextSentences {
				contexts[name] = append(contexts[name], s.Text)
			}
		}
	}

	var owners []string
	var texts []string
	for _, c := range characters {
		if len(contexts[c.CanonicalName]) == 0 {
			continue
		}
		owners = append(owners, c.CanonicalName)
		texts = append(texts, strings.Join(contexts[c.CanonicalName], ""))
	}
	if len(texts) == 0 {
		return nil
	}

	vectors, err := r.Pipeline.Embedder(texts)
	if err != nil {
		r.log.Warn("Profile embedding failed", slog.String("error", err.Error()))
		return nil
	}
	if len(vectors) != len(texts) {
		r.log.Warn("Profile embedding count mismatch", slog.Int("expected", len(texts)), slog.Int("got", len(vectors)))
		return nil
	}

	profiles := make(map[string][]float32, len(owners))
	for i, name := range owners {
		profiles[name] = vectors[i]
	}
	return profiles
}

func (r *Recognizer) finish(result *model.RecognitionResult, start time.Time) *model.RecognitionResult {
	stats := &result.Statistics
	stats.TotalCharacters = len(result.Characters)
	stats.TotalDialogues = len(result.Dialogues)
	stats.ResolvedPronouns = len(result.PronounLinks)
	stats.ProcessingTime = time.Since(start)

	r.log.Info("Recognized characters",
		slog.String("run_id", result.RunID.String()),
		slog.Int("characters", stats.TotalCharacters),
		slog.Int("mentions", stats.TotalMentions),
		slog.Int("relations", len(result.Relations)),
		slog.String("strategy", string(stats.MergeStrategy)),
		slog.Duration("duration", stats.ProcessingTime),
	)
	r.stage(pipeline.StageResult, model.Metadata{
		"characters": stats.TotalCharacters,
		"relations":  len(result.Relations),
		"dialogues":  stats.TotalDialogues,
		"pronouns":   stats.ResolvedPronouns,
	})
	return result
}

func (r *Recognizer) stage(name string, payload model.Metadata) {
	r.log.Info(fmt.Sprintf("Finished stage %s", name), slog.Any("payload", payload))
	r.observers.OnStage(name, payload)
}
