package alias

import (
	"testing"

	"github.com/dancancer/chargraph/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNormalizer(t *testing.T) *Normalizer {
	n, err := NewNormalizer(model.DefaultConfig())
	require.NoError(t, err, "failed to create normalizer")
	return n
}

func TestNormalize(t *testing.T) {
	n := newTestNormalizer(t)

	cases := []struct {
		input    string
		expected string
	}{
		{"老张", "张"},
		{"张叔", "张"},
		{"王叔", "王"},
		{"月儿", "月"},
		{"小芙儿", "芙"},
		{"王大小姐", "王"},
		{"林师兄", "林"},
		{"李四", "李四"},
		{" 老 张 ", "张"},
		{"王·强", "王强"},
		{"老", "老"},
		{"儿", "儿"},
		{"", ""},
	}

	for _, tc := range cases {
		t.Run("Normalize "+tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, n.Normalize(tc.input))
		})
	}

	t.Run("Prefix is kept when nothing would remain", func(t *testing.T) {
		assert.Equal(t, "小", n.Normalize("小小"), "Only one prefix may be stripped per pass and never to empty")
	})
}

func TestNormalizeProperties(t *testing.T) {
	n := newTestNormalizer(t)
	inputs := []string{
		"老张", "老老张", "张叔叔", "小张叔", "王儿儿", "阿月儿", "大哥哥", "小小", "白衣人",
		"店小二", "那个女人", "欧阳锋", "慕容公子", "二姐", "三少爷", "，王强。",
	}

	t.Run("Normalize is idempotent", func(t *testing.T) {
		for _, input := range inputs {
			once := n.Normalize(input)
			assert.Equal(t, once, n.Normalize(once), "Normalize should be idempotent for %q", input)
		}
	})

	t.Run("Normalize never grows the input", func(t *testing.T) {
		for _, input := range inputs {
			assert.LessOrEqual(t, len([]rune(n.Normalize(input))), len([]rune(input)), "Normalize should not grow %q", input)
		}
	})
}

func TestNewNormalizer(t *testing.T) {
	t.Run("Empty honorific lexicon fails fast", func(t *testing.T) {
		cfg := model.DefaultConfig()
		cfg.Lexicon.Honorifics = nil

		_, err := NewNormalizer(cfg)
		assert.Error(t, err)
	})
}
