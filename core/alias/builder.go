package alias

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/dancancer/chargraph/core/pipeline"
	"github.com/dancancer/chargraph/helper"
	"github.com/dancancer/chargraph/model"
)

// Resolution is the identity partition produced by one Resolve call
type Resolution struct {
	Characters []*model.Character
	AliasMap   model.AliasMap
	Strategy   model.MergeStrategy
}

// Builder partitions mentions into character identities
type Builder struct {
	cfg        model.Config
	normalizer *Normalizer
	gender     *GenderInferencer
	embed      pipeline.EmbedFunc
	log        *slog.Logger
}

// NewBuilder creates a cluster builder. embed may be nil, in which case
// clusters are merged by string similarity only.
func NewBuilder(cfg model.Config, embed pipeline.EmbedFunc, logger *slog.Logger) (*Builder, error) {
	normalizer, err := NewNormalizer(cfg)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Builder{
		cfg:        cfg,
		normalizer: normalizer,
		gender:     NewGenderInferencer(cfg),
		embed:      embed,
		log:        logger,
	}, nil
}

// cluster is the working state of one identity during a Resolve call
type cluster struct {
	coreKey   string
	forms     []string
	counts    map[string]int
	mentions  []model.Mention
	canonical string
}

func newCluster(coreKey string) *cluster {
	return &cluster{coreKey: coreKey, counts: make(map[string]int)}
}

func (c *cluster) add(m model.Mention) {
	if _, ok := c.counts[m.Text]; !ok {
		c.forms = append(c.forms, m.Text)
	}
	c.counts[m.Text]++
	c.mentions = append(c.mentions, m)
}

// selectCanonical picks the most frequent form, then the longest, then the first seen
func (c *cluster) selectCanonical() {
	best := ""
	for _, form := range c.forms {
		if best == "" || better(form, c.counts[form], best, c.counts[best]) {
			best = form
		}
	}
	c.canonical = best
}

func better(form string, count int, best string, bestCount int) bool {
	if count != bestCount {
		return count > bestCount
	}
	return len([]rune(form)) > len([]rune(best))
}

// Resolve groups mentions by core key, merges groups that denote the same
// character and returns the final characters with their alias map.
func (b *Builder) Resolve(mentions []model.Mention, sentences []model.Sentence) (*Resolution, error) {
	clusters := b.ruleGroups(mentions)
	b.log.Debug("Grouped mentions by core key", slog.Int("mentions", len(mentions)), slog.Int("clusters", len(clusters)))

	strategy := model.MergeStrategyNone
	if len(clusters) > 1 {
		merged, ok := b.semanticMerge(clusters, sentences)
		if ok {
			strategy = model.MergeStrategySemantic
		} else {
			merged = b.stringMerge(clusters)
			strategy = model.MergeStrategyString
		}
		clusters = merged
	}

	resolution := &Resolution{
		Characters: make([]*model.Character, 0, len(clusters)),
		AliasMap:   make(model.AliasMap),
		Strategy:   strategy,
	}
	for i, c := range clusters {
		character := b.character(i, c, sentences)
		for _, name := range character.Names() {
			if owner, ok := resolution.AliasMap[name]; ok && owner != character.CanonicalName {
				return nil, helper.NewError("build alias map", fmt.Errorf("surface form %q claimed by %q and %q", name, owner, character.CanonicalName))
			}
			resolution.AliasMap[name] = character.CanonicalName
		}
		resolution.Characters = append(resolution.Characters, character)
	}

	return resolution, nil
}

func (b *Builder) ruleGroups(mentions []model.Mention) []*cluster {
	index := make(map[string]*cluster)
	var clusters []*cluster
	for _, m := range mentions {
		key := b.normalizer.Normalize(m.Text)
		if key == "" {
			continue
		}
		c, ok := index[key]
		if !ok {
			c = newCluster(key)
			index[key] = c
			clusters = append(clusters, c)
		}
		c.add(m)
	}
	for _, c := range clusters {
		c.selectCanonical()
	}
	return clusters
}

// semanticMerge reports false when no usable embeddings are available
func (b *Builder) semanticMerge(clusters []*cluster, sentences []model.Sentence) ([]*cluster, bool) {
	if b.embed == nil {
		return nil, false
	}

	contexts := make([]string, len(clusters))
	for i, c := range clusters {
		contexts[i] = b.context(c, sentences)
	}

	vectors, err := b.embed(contexts)
	if err != nil {
		b.log.Warn("Semantic merge failed, falling back to string similarity", slog.String("error", err.Error()))
		return nil, false
	}
	if len(vectors) != len(contexts) {
		b.log.Warn("Semantic merge got wrong number of embeddings, falling back to string similarity", slog.Int("expected", len(contexts)), slog.Int("got", len(vectors)))
		return nil, false
	}

	uf := newUnionFind(len(clusters))
	pairs := 0
	for i := range clusters {
		for j := i + 1; j < len(clusters); j++ {
			if CosineSimilarity(vectors[i], vectors[j]) >= b.cfg.SimilarityThreshold {
				uf.union(i, j)
				pairs++
			}
		}
	}
	b.log.Debug("Semantic merge", slog.Int("pairs", pairs))

	return mergeGroups(clusters, uf), true
}

func (b *Builder) stringMerge(clusters []*cluster) []*cluster {
	threshold := math.Max(b.cfg.SimilarityThreshold, b.cfg.MinAliasSimilarity)

	uf := newUnionFind(len(clusters))
	pairs := 0
	for i := range clusters {
		for j := i + 1; j < len(clusters); j++ {
			if StringSimilarity(clusters[i].canonical, clusters[j].canonical) >= threshold {
				uf.union(i, j)
				pairs++
			}
		}
	}
	b.log.Debug("String merge", slog.Int("pairs", pairs), slog.Float64("threshold", threshold))

	return mergeGroups(clusters, uf)
}

// context joins the sentences around a cluster's mentions, one sentence either side
func (b *Builder) context(c *cluster, sentences []model.Sentence) string {
	seen := make(map[int]bool)
	var indices []int
	for _, m := range c.mentions {
		if !seen[m.SentenceIndex] {
			seen[m.SentenceIndex] = true
			indices = append(indices, m.SentenceIndex)
		}
	}
	sort.Ints(indices)
	if len(indices) > b.cfg.EmbeddingBatchSize {
		indices = indices[:b.cfg.EmbeddingBatchSize]
	}

	var fragments []string
	for _, idx := range indices {
		start, end := max(idx-1, 0), min(idx+2, len(sentences))
		for i := start; i < end; i++ {
			fragments = append(fragments, sentences[i].Text)
		}
		if len(fragments) >= b.cfg.ContextSentences {
			break
		}
	}
	if len(fragments) > b.cfg.ContextSentences {
		fragments = fragments[:b.cfg.ContextSentences]
	}
	return strings.Join(fragments, "。")
}

// mergeGroups combines the clusters of every union-find set into one
func mergeGroups(clusters []*cluster, uf *unionFind) []*cluster {
	groups := uf.groups()
	if len(groups) == len(clusters) {
		return clusters
	}

	merged := make([]*cluster, 0, len(groups))
	for _, group := range groups {
		target := newCluster(clusters[group[0]].coreKey)
		for _, idx := range group {
			for _, m := range clusters[idx].mentions {
				target.add(m)
			}
		}
		target.selectCanonical()
		merged = append(merged, target)
	}
	return merged
}

func (b *Builder) character(i int, c *cluster, sentences []model.Sentence) *model.Character {
	aliases := make([]string, 0, len(c.forms)-1)
	for _, form := range c.forms {
		if form != c.canonical {
			aliases = append(aliases, form)
		}
	}
	sort.Strings(aliases)

	first := math.MaxInt
	for _, m := range c.mentions {
		offset := m.Start
		if m.SentenceIndex >= 0 && m.SentenceIndex < len(sentences) {
			offset += sentences[m.SentenceIndex].Start
		}
		first = min(first, offset)
	}

	return &model.Character{
		ID:                    fmt.Sprintf("c%03d", i),
		CanonicalName:         c.canonical,
		Aliases:               aliases,
		MentionCount:          len(c.mentions),
		FirstAppearanceOffset: first,
		Gender:                b.gender.Infer(c.canonical, aliases),
	}
}
