package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAliasMap(t *testing.T) {
	t.Run("Forms are ordered longest first", func(t *testing.T) {
		m := AliasMap{"张": "张叔", "张叔": "张叔", "老张头": "张叔", "李": "李四"}

		assert.Equal(t, []string{"老张头", "张叔", "张", "李"}, m.Forms())
	})

	t.Run("Restrict keeps only entries of the given characters", func(t *testing.T) {
		m := AliasMap{"张叔": "张叔", "老张": "张叔", "李四": "李四"}
		characters := []*Character{{CanonicalName: "张叔", Aliases: []string{"老张"}}}

		restricted := m.Restrict(characters)

		assert.Equal(t, AliasMap{"张叔": "张叔", "老张": "张叔"}, restricted)
	})
}

func TestRelationKey(t *testing.T) {
	t.Run("Pair is normalized lexicographically", func(t *testing.T) {
		assert.Equal(t, NewRelationKey("b", "a"), NewRelationKey("a", "b"))
		assert.Equal(t, "a", NewRelationKey("b", "a").A)
	})

	t.Run("Other returns the opposite member", func(t *testing.T) {
		r := Relation{MemberA: "a", MemberB: "b"}

		assert.Equal(t, "b", r.Other("a"))
		assert.Equal(t, "a", r.Other("b"))
		assert.Equal(t, "", r.Other("c"))
	})
}
