package pipeline

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/dancancer/chargraph/helper"
	"github.com/dancancer/chargraph/model"
	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
)

// windowBreaks are the preferred cut points of over-long sentences
const windowBreaks = "，、；：！？"

// nameValidator accepts detected spans that can be a character name
type nameValidator struct {
	minLength int
	maxLength int
	stopwords map[string]bool
}

func newNameValidator(cfg model.Config) nameValidator {
	stopwords := make(map[string]bool, len(cfg.Lexicon.NameStopwords))
	for _, w := range cfg.Lexicon.NameStopwords {
		stopwords[w] = true
	}
	return nameValidator{
		minLength: cfg.NameMinLength,
		maxLength: cfg.NameMaxLength,
		stopwords: stopwords,
	}
}

func (v nameValidator) valid(name string) bool {
	n := utf8.RuneCountInString(name)
	return n >= v.minLength && n <= v.maxLength && !v.stopwords[name]
}

// RuleDetector finds names made of a common surname and one or two given-name characters
type RuleDetector struct {
	pattern   *regexp.Regexp
	validator nameValidator
}

// NewRuleDetector compiles the surname pattern of the configured lexicon
func NewRuleDetector(cfg model.Config) (*RuleDetector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, helper.NewError("rule detector config", err)
	}
	if len(cfg.Lexicon.Surnames) == 0 {
		return nil, helper.NewError("rule detector config", fmt.Errorf("lexicon surnames must not be empty"))
	}

	surnames := make([]string, 0, len(cfg.Lexicon.Surnames))
	for _, s := range cfg.Lexicon.Surnames {
		if s != "" {
			surnames = append(surnames, regexp.QuoteMeta(s))
		}
	}
	// Compound surnames first
	sort.SliceStable(surnames, func(i, j int) bool {
		return utf8.RuneCountInString(surnames[i]) > utf8.RuneCountInString(surnames[j])
	})

	pattern, err := regexp.Compile(`(?:` + strings.Join(surnames, "|") + `)[一-龥]{1,2}`)
	if err != nil {
		return nil, helper.NewError("compile surname pattern", err)
	}

	return &RuleDetector{pattern: pattern, validator: newNameValidator(cfg)}, nil
}

// Detect scans every sentence for surname based names
func (d *RuleDetector) Detect(sentences []model.Sentence) ([]model.Mention, error) {
	var mentions []model.Mention
	for _, s := range sentences {
		for _, loc := range d.pattern.FindAllStringIndex(s.Text, -1) {
			name := s.Text[loc[0]:loc[1]]
			if !d.validator.valid(name) {
				continue
			}
			start := utf8.RuneCountInString(s.Text[:loc[0]])
			mentions = append(mentions, model.Mention{
				Text:          name,
				Start:         start,
				End:           start + utf8.RuneCountInString(name),
				SentenceIndex: s.Index,
				Source:        model.MentionSourceRule,
			})
		}
	}
	return mentions, nil
}

// RuleMentionDetector returns the detect function of a new RuleDetector
func RuleMentionDetector(cfg model.Config) (MentionDetectFunc, error) {
	d, err := NewRuleDetector(cfg)
	if err != nil {
		return nil, err
	}
	return d.Detect, nil
}

type nerModel struct {
	session  *hugot.Session
	pipeline *pipelines.TokenClassificationPipeline
}

// NERDetector finds person names with a hugot token classification model.
// The model is downloaded and loaded on first use.
type NERDetector struct {
	loader    *Loader[*nerModel]
	window    int
	batchSize int
	validator nameValidator
}

// NewNERDetector creates a detector for cfg.NERModel. Nothing is loaded yet.
func NewNERDetector(cfg model.Config) *NERDetector {
	modelDir := cfg.ModelDir
	modelName := cfg.NERModel

	return &NERDetector{
		window:    cfg.MaxDetectorWindow,
		batchSize: cfg.EmbeddingBatchSize,
		validator: newNameValidator(cfg),
		loader: NewLoader(func() (*nerModel, error) {
			modelPath, err := helper.PrepareModel(modelDir, modelName, "")
			if err != nil {
				return nil, err
			}

			session, err := hugot.NewGoSession()
			if err != nil {
				return nil, fmt.Errorf("failed to create hugot session: %w", err)
			}

			config := hugot.TokenClassificationConfig{
				ModelPath: modelPath,
				Name:      "chargraph-ner",
				Options: []hugot.TokenClassificationOption{
					pipelines.WithSimpleAggregation(),
					pipelines.WithIgnoreLabels([]string{"O"}),
				},
			}
			nerPipeline, err := hugot.NewPipeline(session, config)
			if err != nil {
				if destroyErr := session.Destroy(); destroyErr != nil {
					return nil, fmt.Errorf("failed to create NER pipeline: %w (cleanup error: %v)", err, destroyErr)
				}
				return nil, fmt.Errorf("failed to create NER pipeline: %w", err)
			}

			return &nerModel{session: session, pipeline: nerPipeline}, nil
		}),
	}
}

// window is a slice of a sentence fed to the model on its own
type window struct {
	sentence int
	offset   int
	text     string
}

// Detect runs the model over all sentences and keeps person entities
func (d *NERDetector) Detect(sentences []model.Sentence) ([]model.Mention, error) {
	var windows []window
	for _, s := range sentences {
		windows = append(windows, splitWindows(s, d.window)...)
	}
	if len(windows) == 0 {
		return nil, nil
	}

	m, err := d.loader.Get()
	if err != nil {
		return nil, helper.NewError("load NER model", err)
	}

	batchSize := d.batchSize
	if batchSize <= 0 {
		batchSize = len(windows)
	}

	var mentions []model.Mention
	for start := 0; start < len(windows); start += batchSize {
		batch := windows[start:min(start+batchSize, len(windows))]
		texts := make([]string, len(batch))
		for i, w := range batch {
			texts[i] = w.text
		}

		result, err := m.pipeline.RunPipeline(texts)
		if err != nil {
			return nil, fmt.Errorf("failed to run NER: %w", err)
		}

		for i, entities := range result.Entities {
			if i >= len(batch) {
				break
			}
			for _, entity := range entities {
				if mention, ok := d.toMention(batch[i], entity); ok {
					mentions = append(mentions, mention)
				}
			}
		}
	}

	return mentions, nil
}

func (d *NERDetector) toMention(w window, entity pipelines.Entity) (model.Mention, bool) {
	if !isPersonLabel(entity.Entity) {
		return model.Mention{}, false
	}

	start, end := int(entity.Start), int(entity.End)
	var name string
	if start < end && end <= len(w.text) && utf8.ValidString(w.text[start:end]) {
		name = w.text[start:end]
	} else {
		// Offsets unusable, fall back to the decoded word
		name = strings.ReplaceAll(strings.TrimSpace(entity.Word), " ", "")
		idx := strings.Index(w.text, name)
		if name == "" || idx < 0 {
			return model.Mention{}, false
		}
		start = idx
	}
	if !d.validator.valid(name) {
		return model.Mention{}, false
	}

	runeStart := w.offset + utf8.RuneCountInString(w.text[:start])
	return model.Mention{
		Text:          name,
		Start:         runeStart,
		End:           runeStart + utf8.RuneCountInString(name),
		SentenceIndex: w.sentence,
		Source:        model.MentionSourceDetector,
	}, true
}

// Close releases the hugot session if the model was loaded
func (d *NERDetector) Close() error {
	m, ok := d.loader.Loaded()
	if !ok {
		return nil
	}
	return m.session.Destroy()
}

// DefaultMentionDetector returns the detect function of a new NERDetector
func DefaultMentionDetector(cfg model.Config) MentionDetectFunc {
	return NewNERDetector(cfg).Detect
}

// splitWindows cuts a sentence into pieces of at most size runes, preferring
// to cut after punctuation in the second half of a piece
func splitWindows(s model.Sentence, size int) []window {
	runes := []rune(s.Text)
	if len(runes) == 0 {
		return nil
	}
	if size <= 0 || len(runes) <= size {
		return []window{{sentence: s.Index, offset: 0, text: s.Text}}
	}

	var windows []window
	for start := 0; start < len(runes); {
		end := start + size
		if end >= len(runes) {
			windows = append(windows, window{sentence: s.Index, offset: start, text: string(runes[start:])})
			break
		}

		cut := end
		for i := end - 1; i > start+size/2; i-- {
			if strings.ContainsRune(windowBreaks, runes[i]) {
				cut = i + 1
				break
			}
		}

		windows = append(windows, window{sentence: s.Index, offset: start, text: string(runes[start:cut])})
		start = cut
	}
	return windows
}

// isPersonLabel reports whether a token classification label denotes a person
func isPersonLabel(label string) bool {
	switch normalizeEntityType(label) {
	case "PER", "PERSON", "NR":
		return true
	}
	return false
}

// normalizeEntityType removes B-, I-, E- and S- tagging prefixes
func normalizeEntityType(label string) string {
	if len(label) > 2 && label[1] == '-' && strings.ContainsRune("BIES", rune(label[0])) {
		return label[2:]
	}
	return label
}

// MergeMentions concatenates mention lists, dropping repeats of the same
// text at the same position of the same sentence
func MergeMentions(lists ...[]model.Mention) []model.Mention {
	type key struct {
		text     string
		sentence int
		start    int
	}

	seen := make(map[key]bool)
	var merged []model.Mention
	for _, list := range lists {
		for _, m := range list {
			k := key{m.Text, m.SentenceIndex, m.Start}
			if seen[k] {
				continue
			}
			seen[k] = true
			merged = append(merged, m)
		}
	}
	return merged
}
