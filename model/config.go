package model

import (
	"errors"
	"fmt"
	"os"

	"github.com/dancancer/chargraph/helper"
	"gopkg.in/yaml.v3"
)

// PronounRule assigns a gender hint to a pronoun
type PronounRule struct {
	Pronoun string `yaml:"pronoun" json:"pronoun"`
	Gender  Gender `yaml:"gender" json:"gender"`
}

// Lexicon holds every word list the engine matches against
type Lexicon struct {
	// Name affixes
	Prefixes           []string `yaml:"prefixes" json:"prefixes"`
	Honorifics         []string `yaml:"honorifics" json:"honorifics"`
	DiminutiveSuffixes []string `yaml:"diminutive_suffixes" json:"diminutive_suffixes"`

	// Descriptive mentions
	BodyPartStopwords []string `yaml:"body_part_stopwords" json:"body_part_stopwords"`
	GenderedStopwords []string `yaml:"gendered_stopwords" json:"gendered_stopwords"`
	OccupationNouns   []string `yaml:"occupation_nouns" json:"occupation_nouns"`
	ClothingColors    []string `yaml:"clothing_colors" json:"clothing_colors"`

	// Dialogue and gender cues
	DialogueTriggers []string `yaml:"dialogue_triggers" json:"dialogue_triggers"`
	MaleIndicators   []string `yaml:"male_indicators" json:"male_indicators"`
	FemaleIndicators []string `yaml:"female_indicators" json:"female_indicators"`

	// Pronouns in matching priority order
	Pronouns []PronounRule `yaml:"pronouns" json:"pronouns"`

	// Rule based name detection
	Surnames      []string `yaml:"surnames" json:"surnames"`
	NameStopwords []string `yaml:"name_stopwords" json:"name_stopwords"`

	// Filter denylists
	MythNames      []string `yaml:"myth_names" json:"myth_names"`
	ExampleNames   []string `yaml:"example_names" json:"example_names"`
	TimeWords      []string `yaml:"time_words" json:"time_words"`
	LocationWords  []string `yaml:"location_words" json:"location_words"`
	NumberWords    []string `yaml:"number_words" json:"number_words"`
	BodyPartWords  []string `yaml:"body_part_words" json:"body_part_words"`
	Demonstratives []string `yaml:"demonstratives" json:"demonstratives"`
}

// Config is the immutable configuration shared by every component of a run
type Config struct {
	// Cluster merging
	SimilarityThreshold float64 `yaml:"similarity_threshold" json:"similarity_threshold"`
	MinAliasSimilarity  float64 `yaml:"min_alias_similarity" json:"min_alias_similarity"`
	EmbeddingBatchSize  int     `yaml:"embedding_batch_size" json:"embedding_batch_size"`
	ContextSentences    int     `yaml:"context_sentences" json:"context_sentences"`

	// Name detection
	NameMinLength     int `yaml:"name_min_length" json:"name_min_length"`
	NameMaxLength     int `yaml:"name_max_length" json:"name_max_length"`
	MaxDetectorWindow int `yaml:"max_detector_window" json:"max_detector_window"`

	// Coreference and relations
	MaxCoreferenceDistance int `yaml:"max_coreference_distance" json:"max_coreference_distance"`
	MinRelationWeight      int `yaml:"min_relation_weight" json:"min_relation_weight"`
	MaxContextDistance     int `yaml:"max_context_distance" json:"max_context_distance"`

	// Filtering
	MinMentions   int `yaml:"min_mentions" json:"min_mentions"`
	MaxCharacters int `yaml:"max_characters" json:"max_characters"`

	// Models
	EmbeddingModel string `yaml:"embedding_model" json:"embedding_model"`
	EmbeddingDim   int    `yaml:"embedding_dim" json:"embedding_dim"`
	NERModel       string `yaml:"ner_model" json:"ner_model"`
	ModelDir       string `yaml:"model_dir" json:"model_dir"`

	Lexicon Lexicon `yaml:"lexicon" json:"lexicon"`
}

// DefaultConfig returns the configuration tuned for Chinese web novels
func DefaultConfig() Config {
	return Config{
		SimilarityThreshold: 0.80,
		MinAliasSimilarity:  0.75,
		EmbeddingBatchSize:  64,
		ContextSentences:    6,

		NameMinLength:     2,
		NameMaxLength:     4,
		MaxDetectorWindow: 100,

		MaxCoreferenceDistance: 5,
		MinRelationWeight:      1,
		MaxContextDistance:     2,

		MinMentions:   2,
		MaxCharacters: 0,

		EmbeddingModel: "shibing624/text2vec-base-chinese",
		EmbeddingDim:   768,
		NERModel:       "ckiplab/bert-base-chinese-ner",
		ModelDir:       "./models",

		Lexicon: DefaultLexicon(),
	}
}

// DefaultLexicon returns the built-in word lists.
// Honorifics are ordered so that compounds come before their one-character tails.
func DefaultLexicon() Lexicon {
	return Lexicon{
		Prefixes: []string{"老", "小", "阿", "大", "二", "三", "四", "五"},
		Honorifics: []string{
			"大小姐", "少爷", "姑娘", "太太", "夫人", "老板", "掌柜", "公子", "小姐", "大人",
			"先生", "女士", "师傅", "师父", "师兄", "师姐", "师弟", "师妹", "道长", "法师",
			"和尚", "尼姑",
			"哥", "姐", "弟", "妹", "爷", "奶", "叔", "伯", "婶", "姨", "舅", "姑",
		},
		DiminutiveSuffixes: []string{"儿"},

		BodyPartStopwords: []string{
			"念头", "里头", "外头", "上头", "下头", "前头", "后头", "心头", "手头", "年头",
			"日头", "舌头", "骨头", "木头", "石头", "拳头", "指头", "码头", "街头", "床头",
			"枕头", "回头", "抬头", "低头", "点头", "摇头", "转头", "扭头", "迎面", "当面",
			"表面", "外面", "里面", "上面", "下面", "前面", "后面", "对面", "地面", "水面",
			"丢脸", "变脸", "满脸", "洗脸",
		},
		GenderedStopwords: []string{"这个", "那个", "每个", "一个", "有个", "某个", "另一"},
		OccupationNouns: []string{
			"店小二", "老板娘", "老板", "掌柜的", "掌柜", "伙计", "小厮", "丫鬟", "婢女", "家丁",
			"护卫", "侍卫",
		},
		ClothingColors: []string{"白", "黑", "红", "蓝", "绿", "黄", "紫", "灰", "褐", "青"},
		DialogueTriggers: []string{
			"冷笑道", "轻笑道", "大笑道", "说道", "问道", "答道", "回道", "接道", "续道", "笑道",
			"叹道", "喊道", "叫道", "喝道", "回答", "询问", "冷笑", "哈哈", "嘿嘿", "嘻嘻",
			"叹气", "叹息", "感叹", "低声", "高声", "大声", "小声",
			"说", "道", "问", "答", "喊", "叫", "喝", "笑", "叹",
		},
		MaleIndicators: []string{
			"少爷", "公子", "先生", "掌柜", "老板", "师兄", "师弟", "爷", "哥", "弟", "叔", "伯", "舅",
		},
		FemaleIndicators: []string{
			"大小姐", "姑娘", "小姐", "太太", "夫人", "女士", "师姐", "师妹", "姐", "妹", "婶", "姨",
			"姑", "奶",
		},
		Pronouns: []PronounRule{
			{Pronoun: "他们", Gender: GenderMale},
			{Pronoun: "她们", Gender: GenderFemale},
			{Pronoun: "他", Gender: GenderMale},
			{Pronoun: "她", Gender: GenderFemale},
			{Pronoun: "它", Gender: GenderUnknown},
			{Pronoun: "这位", Gender: GenderUnknown},
			{Pronoun: "那位", Gender: GenderUnknown},
			{Pronoun: "此人", Gender: GenderUnknown},
			{Pronoun: "那人", Gender: GenderUnknown},
		},

		Surnames: []string{
			"王", "李", "张", "刘", "陈", "杨", "黄", "赵", "吴", "周", "徐", "孙", "马", "朱",
			"胡", "郭", "何", "高", "林", "罗", "郑", "梁", "谢", "宋", "唐", "许", "韩", "冯",
			"邓", "曹", "彭", "曾", "肖", "田", "董", "袁", "潘", "于", "蒋", "蔡", "余", "杜",
			"叶", "程", "苏", "魏", "吕", "丁", "任", "沈", "姚", "卢", "姜", "崔", "钟", "谭",
			"陆", "汪", "范", "金", "石", "廖", "贾", "夏", "韦", "付", "方", "白", "邹", "孟",
			"熊", "秦", "邱", "江", "尹", "薛", "闫", "段", "雷", "侯", "龙", "史", "陶", "黎",
			"贺", "顾", "毛", "郝", "龚", "邵", "万", "钱", "严", "覃", "武", "戴", "莫", "孔",
			"向", "汤", "欧阳", "上官", "司马", "诸葛", "东方", "慕容", "令狐", "独孤",
		},
		NameStopwords: []string{
			"他们", "她们", "我们", "你们", "咱们", "自己", "大家", "别人", "人家", "什么",
			"怎么", "这样", "那样", "时候", "今天", "明天", "昨天", "现在", "以后", "之前",
			"已经", "还是", "但是", "因为", "所以", "如果", "虽然", "一样", "一下", "一起",
		},

		MythNames: []string{
			"女娲", "盘古", "伏羲", "神农", "黄帝", "炎帝", "蚩尤", "后羿", "嫦娥", "夸父",
			"精卫", "共工", "祝融", "孔子", "老子", "庄子", "孟子", "墨子", "秦始皇", "汉武帝",
			"唐太宗", "宋太祖",
		},
		ExampleNames: []string{"小芳", "小丽", "丽丽", "小红", "小明", "小强", "大壮"},
		TimeWords: []string{
			"小时", "分钟", "秒钟", "时间", "钟头", "刻钟",
			"一点", "二点", "两点", "三点", "四点", "五点", "六点", "七点", "八点", "九点", "十点",
			"十一点", "十二点", "二点了", "三点了", "四点了",
			"一个小时", "二个小时", "三个小时", "两个小时", "半小时", "二小时", "三小时",
			"二十四个", "二十四小时",
		},
		LocationWords: []string{
			"四周", "周围", "附近", "旁边", "对面", "上面", "下面", "里面", "外面", "四面",
			"四周的墙", "四周的墙面", "四周的无",
		},
		NumberWords: []string{
			"一个", "两个", "三个", "四个", "五个", "六个", "七个", "八个", "九个", "十个",
			"几个", "好几个", "许多个",
			"一位", "两位", "三位", "四位", "五位", "六位", "七位", "八位", "九位", "十位",
			"第一个", "第二个", "第三个",
			"一字", "二字", "三字", "四字", "五字", "六字", "七字", "八字",
			"三个字", "四个字", "五个字",
		},
		BodyPartWords:  []string{"头", "脸", "面", "手", "脚", "眼", "鼻", "口", "耳", "身", "体", "腿", "臂", "指", "发", "须"},
		Demonstratives: []string{"这个", "那个", "这位", "那位", "这名", "那名"},
	}
}

// Validate reports configuration that would leave a component undefined
func (c Config) Validate() error {
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("similarity threshold must be within [0, 1], got %v", c.SimilarityThreshold)
	}
	if c.MinAliasSimilarity < 0 || c.MinAliasSimilarity > 1 {
		return fmt.Errorf("min alias similarity must be within [0, 1], got %v", c.MinAliasSimilarity)
	}
	if c.EmbeddingBatchSize <= 0 {
		return fmt.Errorf("embedding batch size must be positive, got %d", c.EmbeddingBatchSize)
	}
	if c.ContextSentences <= 0 {
		return fmt.Errorf("context sentences must be positive, got %d", c.ContextSentences)
	}
	if c.NameMinLength <= 0 || c.NameMaxLength < c.NameMinLength {
		return fmt.Errorf("invalid name length bounds [%d, %d]", c.NameMinLength, c.NameMaxLength)
	}
	if c.MaxCoreferenceDistance <= 0 {
		return fmt.Errorf("max coreference distance must be positive, got %d", c.MaxCoreferenceDistance)
	}
	if c.MaxContextDistance < 0 {
		return fmt.Errorf("max context distance must not be negative, got %d", c.MaxContextDistance)
	}
	if c.EmbeddingDim <= 0 {
		return fmt.Errorf("embedding dimension must be positive, got %d", c.EmbeddingDim)
	}
	if c.MinMentions < 0 || c.MaxCharacters < 0 || c.MinRelationWeight < 0 {
		return fmt.Errorf("min mentions, max characters and min relation weight must not be negative")
	}

	lists := []struct {
		name  string
		words []string
	}{
		{"prefixes", c.Lexicon.Prefixes},
		{"honorifics", c.Lexicon.Honorifics},
		{"diminutive suffixes", c.Lexicon.DiminutiveSuffixes},
		{"dialogue triggers", c.Lexicon.DialogueTriggers},
	}
	for _, l := range lists {
		if len(l.words) == 0 {
			return fmt.Errorf("lexicon %s must not be empty", l.name)
		}
		for _, w := range l.words {
			if w == "" {
				return fmt.Errorf("lexicon %s contains an empty entry", l.name)
			}
		}
	}

	if len(c.Lexicon.Pronouns) == 0 {
		return fmt.Errorf("lexicon pronouns must not be empty")
	}
	for _, p := range c.Lexicon.Pronouns {
		if p.Pronoun == "" {
			return fmt.Errorf("lexicon pronouns contains an empty entry")
		}
		switch p.Gender {
		case GenderMale, GenderFemale, GenderUnknown:
		default:
			return fmt.Errorf("pronoun %q has invalid gender %q", p.Pronoun, p.Gender)
		}
	}

	return nil
}

// LoadConfigFile reads a YAML file on top of the defaults.
// Keys missing from the file keep their default values.
func LoadConfigFile(path string) (Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("error parsing config file %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	return config, nil
}

// ConfigFromEnv overlays CHARGRAPH_* environment variables on base.
// A .env file in the working directory is loaded first when present.
func ConfigFromEnv(base Config) (Config, error) {
	if err := helper.LoadEnv(); err != nil {
		return Config{}, helper.NewError("load env", err)
	}

	config := base
	var errs []error
	float := func(key string, target *float64) {
		v, err := helper.GetEnvFloat(key, *target)
		errs = append(errs, err)
		*target = v
	}
	integer := func(key string, target *int) {
		v, err := helper.GetEnvInt(key, *target)
		errs = append(errs, err)
		*target = v
	}

	float("CHARGRAPH_SIMILARITY_THRESHOLD", &config.SimilarityThreshold)
	float("CHARGRAPH_MIN_ALIAS_SIMILARITY", &config.MinAliasSimilarity)
	integer("CHARGRAPH_EMBEDDING_BATCH_SIZE", &config.EmbeddingBatchSize)
	integer("CHARGRAPH_EMBEDDING_DIM", &config.EmbeddingDim)
	integer("CHARGRAPH_MAX_COREFERENCE_DISTANCE", &config.MaxCoreferenceDistance)
	integer("CHARGRAPH_MIN_RELATION_WEIGHT", &config.MinRelationWeight)
	integer("CHARGRAPH_MAX_CONTEXT_DISTANCE", &config.MaxContextDistance)
	integer("CHARGRAPH_MIN_MENTIONS", &config.MinMentions)
	integer("CHARGRAPH_MAX_CHARACTERS", &config.MaxCharacters)
	config.EmbeddingModel = helper.GetEnvString("CHARGRAPH_EMBEDDING_MODEL", config.EmbeddingModel)
	config.NERModel = helper.GetEnvString("CHARGRAPH_NER_MODEL", config.NERModel)
	config.ModelDir = helper.GetEnvString("CHARGRAPH_MODEL_DIR", config.ModelDir)

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	if err := config.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid environment configuration: %w", err)
	}

	return config, nil
}
