package mesh

// UniqueEdge is an undirected triangle edge, recorded once.
type UniqueEdge struct {
	V1, V2 int
}

// Equal compares edges regardless of direction.
func (e UniqueEdge) Equal(o UniqueEdge) bool {
	return (e.V1 == o.V1 && e.V2 == o.V2) || (e.V1 == o.V2 && e.V2 == o.V1)
}

// SharedEdge is an edge shared by two adjacent triangles together with the
// vertex of each triangle that is not on the edge. A bending spring joins the
// two opposite vertices.
type SharedEdge struct {
	V1, V2               int
	Opposite1, Opposite2 int
}

func nextIndex(i int) int {
	if i+1 < 3 {
		return i + 1
	}
	return 0
}

func (t Triangle) vertices() [3]int {
	return [3]int{t.V1, t.V2, t.V3}
}

// UniqueEdges returns every distinct undirected edge, in the order they are
// first met while scanning the triangles.
//
// The scan is quadratic in the number of edges, which is fine for the few
// hundred triangles of a typical cloth but becomes the bottleneck of
// construction on much larger meshes.
func UniqueEdges(m *Mesh) []UniqueEdge {
	edges := make([]UniqueEdge, 0, 3*len(m.Triangles))

	for _, t := range m.Triangles {
		vs := t.vertices()

		for j := range 3 {
			e := UniqueEdge{V1: vs[j], V2: vs[nextIndex(j)]}

			unique := true
			for _, ue := range edges {
				if ue.Equal(e) {
					unique = false
					break
				}
			}

			if unique {
				edges = append(edges, e)
			}
		}
	}

	return edges
}

// SharedEdges returns one record per pair of adjacent triangles. Two
// triangles are adjacent when they traverse an edge in opposite directions,
// as a consistently wound manifold mesh does. O(T²).
func SharedEdges(m *Mesh) []SharedEdge {
	edges := make([]SharedEdge, 0, 3*len(m.Triangles)/2)

	for i, t1 := range m.Triangles {
		vs1 := t1.vertices()

		for j1 := range 3 {
			k1 := nextIndex(j1)
			t1v1, t1v2 := vs1[j1], vs1[k1]

			for _, t2 := range m.Triangles[i+1:] {
				vs2 := t2.vertices()

				for j2 := range 3 {
					k2 := nextIndex(j2)
					t2v1, t2v2 := vs2[j2], vs2[k2]

					if t1v1 == t2v2 && t1v2 == t2v1 {
						edges = append(edges, SharedEdge{
							V1:        t1v1,
							V2:        t1v2,
							Opposite1: vs1[nextIndex(k1)],
							Opposite2: vs2[nextIndex(k2)],
						})
						break
					}
				}
			}
		}
	}

	return edges
}
