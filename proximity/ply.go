package proximity

import (
	"os"

	"github.com/chenzhekl/goply"
	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/utils"
)

// LoadPLY reads a triangle mesh from a PLY file and builds a proximity
// structure over it. Polygonal faces are fan-triangulated. Duplicate vertices
// are merged by New as usual.
func LoadPLY(fn string, logger golog.Logger, opts ...Option) (*Mesh, error) {
	//nolint:gosec
	f, err := os.Open(fn)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open mesh file %q", fn)
	}
	defer utils.UncheckedErrorFunc(f.Close)

	ply := goply.New(f)

	rawVerts := ply.Elements("vertex")
	if len(rawVerts) == 0 {
		return nil, errors.Errorf("mesh file %q has no vertex element", fn)
	}
	vertices := make([]r3.Vector, 0, len(rawVerts))
	for i, v := range rawVerts {
		x, xok := plyFloat(v["x"])
		y, yok := plyFloat(v["y"])
		z, zok := plyFloat(v["z"])
		if !xok || !yok || !zok {
			return nil, errors.Errorf("vertex %d in %q is missing a coordinate", i, fn)
		}
		vertices = append(vertices, r3.Vector{X: x, Y: y, Z: z})
	}

	var faces [][3]int
	for i, face := range ply.Elements("face") {
		idxProp, ok := face["vertex_indices"]
		if !ok {
			idxProp = face["vertex_index"]
		}
		idx, ok := plyIndexList(idxProp)
		if !ok || len(idx) < 3 {
			return nil, errors.Errorf("face %d in %q has no usable vertex index list", i, fn)
		}
		for _, j := range idx {
			if j < 0 || j >= len(vertices) {
				return nil, errors.Errorf("face %d in %q references vertex %d out of %d", i, fn, j, len(vertices))
			}
		}
		for k := 2; k < len(idx); k++ {
			faces = append(faces, [3]int{idx[0], idx[k-1], idx[k]})
		}
	}

	mesh := New(vertices, faces, opts...)
	logger.Debugf("loaded mesh %q: %d vertices (%d after dedup), %d triangles",
		fn, len(vertices), len(mesh.Vertices()), len(mesh.Faces()))
	return mesh, nil
}

// plyFloat converts whichever numeric type the PLY property was declared as.
func plyFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

func plyIndexList(v interface{}) ([]int, bool) {
	switch list := v.(type) {
	case []interface{}:
		idx := make([]int, 0, len(list))
		for _, item := range list {
			f, ok := plyFloat(item)
			if !ok {
				return nil, false
			}
			idx = append(idx, int(f))
		}
		return idx, true
	case []int32:
		idx := make([]int, 0, len(list))
		for _, item := range list {
			idx = append(idx, int(item))
		}
		return idx, true
	case []uint32:
		idx := make([]int, 0, len(list))
		for _, item := range list {
			idx = append(idx, int(item))
		}
		return idx, true
	case []int:
		return list, true
	default:
		return nil, false
	}
}
