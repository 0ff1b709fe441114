package proximity

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func writeCubePLY(t *testing.T) string {
	t.Helper()
	vertices, faces := cubeBuffers()

	var sb strings.Builder
	sb.WriteString("ply\nformat ascii 1.0\n")
	fmt.Fprintf(&sb, "element vertex %d\n", len(vertices))
	sb.WriteString("property float x\nproperty float y\nproperty float z\n")
	fmt.Fprintf(&sb, "element face %d\n", len(faces))
	sb.WriteString("property list uchar int vertex_indices\nend_header\n")
	for _, v := range vertices {
		fmt.Fprintf(&sb, "%g %g %g\n", v.X, v.Y, v.Z)
	}
	for _, f := range faces {
		fmt.Fprintf(&sb, "3 %d %d %d\n", f[0], f[1], f[2])
	}

	fn := filepath.Join(t.TempDir(), "cube.ply")
	test.That(t, os.WriteFile(fn, []byte(sb.String()), 0o600), test.ShouldBeNil)
	return fn
}

func TestLoadPLY(t *testing.T) {
	logger := golog.NewTestLogger(t)

	t.Run("cube round trip", func(t *testing.T) {
		m, err := LoadPLY(writeCubePLY(t), logger)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, len(m.Vertices()), test.ShouldEqual, 8)
		test.That(t, len(m.Faces()), test.ShouldEqual, 12)

		hit := m.QueryClosestRayHit(r3.Vector{X: 0.25, Y: 0.5, Z: 2}, r3.Vector{Z: -1})
		test.That(t, hit.IsHit(), test.ShouldBeTrue)
		test.That(t, hit.T, test.ShouldAlmostEqual, 1, 1e-5)
	})

	t.Run("quad faces are fan triangulated", func(t *testing.T) {
		content := "ply\nformat ascii 1.0\n" +
			"element vertex 4\n" +
			"property float x\nproperty float y\nproperty float z\n" +
			"element face 1\n" +
			"property list uchar int vertex_indices\nend_header\n" +
			"0 0 0\n1 0 0\n1 1 0\n0 1 0\n" +
			"4 0 1 2 3\n"
		fn := filepath.Join(t.TempDir(), "quad.ply")
		test.That(t, os.WriteFile(fn, []byte(content), 0o600), test.ShouldBeNil)

		m, err := LoadPLY(fn, logger)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, len(m.Faces()), test.ShouldEqual, 2)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadPLY(filepath.Join(t.TempDir(), "nope.ply"), logger)
		test.That(t, err, test.ShouldNotBeNil)
	})

	t.Run("out of range face index", func(t *testing.T) {
		content := "ply\nformat ascii 1.0\n" +
			"element vertex 3\n" +
			"property float x\nproperty float y\nproperty float z\n" +
			"element face 1\n" +
			"property list uchar int vertex_indices\nend_header\n" +
			"0 0 0\n1 0 0\n0 1 0\n" +
			"3 0 1 9\n"
		fn := filepath.Join(t.TempDir(), "bad.ply")
		test.That(t, os.WriteFile(fn, []byte(content), 0o600), test.ShouldBeNil)

		_, err := LoadPLY(fn, logger)
		test.That(t, err, test.ShouldNotBeNil)
	})
}
