package engine

// unionFind is an index-based disjoint-set arena over a fixed candidate
// list. Parents are slice indices rather than pointers so the structure
// stays trivially bounded and cheap to reset per scan. Merge operations
// are not safe for concurrent use; the engine serializes them.
type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{
		parent: make([]int, n),
		rank:   make([]int, n),
	}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

// find returns the component root for x, compressing the path on the way.
func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

// union merges the components containing a and b.
func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if u.rank[ra] < u.rank[rb] {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
	if u.rank[ra] == u.rank[rb] {
		u.rank[ra]++
	}
}

// components returns the member indices of every component, keyed by root.
func (u *unionFind) components() map[int][]int {
	comps := make(map[int][]int)
	for i := range u.parent {
		root := u.find(i)
		comps[root] = append(comps[root], i)
	}
	return comps
}
