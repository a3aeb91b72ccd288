package alias

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnionFind(t *testing.T) {
	t.Run("Singletons are their own roots", func(t *testing.T) {
		uf := newUnionFind(3)

		assert.Equal(t, [][]int{{0}, {1}, {2}}, uf.groups())
	})

	t.Run("Union is transitive", func(t *testing.T) {
		uf := newUnionFind(4)
		uf.union(0, 1)
		uf.union(1, 2)

		assert.Equal(t, uf.find(0), uf.find(2), "0 and 2 should share a root through 1")
		assert.Equal(t, [][]int{{0, 1, 2}, {3}}, uf.groups())
	})

	t.Run("Long chains do not recurse", func(t *testing.T) {
		const n = 200000
		uf := newUnionFind(n)
		for i := 0; i < n-1; i++ {
			uf.union(i, i+1)
		}

		root := uf.find(0)
		assert.Equal(t, root, uf.find(n-1))
		assert.Equal(t, root, uf.parent[0], "Path should be compressed after find")
	})

	t.Run("Repeated union is a no-op", func(t *testing.T) {
		uf := newUnionFind(2)
		uf.union(0, 1)
		uf.union(1, 0)

		assert.Len(t, uf.groups(), 1)
	})
}
