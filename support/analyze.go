package support

import (
	"context"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"

	"github.com/RepRapMorgan/MSlicer/proximity"
	"github.com/RepRapMorgan/MSlicer/utils"
)

// PointAnalysis is the combined per-point output the support placer consumes:
// an estimated normal per sample (aligned to the input indices) and the
// grouping of samples into clusters.
type PointAnalysis struct {
	Normals  []r3.Vector
	Clusters ClusteredPoints
}

// AnalyzePoints estimates normals and clusters the sample points in one call.
// The two computations are independent consumers of the mesh and point set
// and run concurrently. eps <= 0 selects DefaultNormalEps; dist and maxPoints
// are the radius-clustering parameters.
func AnalyzePoints(
	ctx context.Context,
	indices []uint,
	pointFn func(uint) r3.Vector,
	mesh *proximity.Mesh,
	eps, dist float64,
	maxPoints int,
	logger golog.Logger,
) (*PointAnalysis, error) {
	if pointFn == nil {
		panic("support: nil point function")
	}

	var analysis PointAnalysis
	elapsed, err := utils.RunInParallel(ctx, []utils.SimpleFunc{
		func(ctx context.Context) error {
			normals, err := EstimateNormals(ctx, indices, pointFn, mesh, eps)
			analysis.Normals = normals
			return err
		},
		func(context.Context) error {
			analysis.Clusters = ClusterByDistance(indices, pointFn, dist, maxPoints)
			return nil
		},
	})
	if err != nil {
		return nil, err
	}
	logger.Debugf("analyzed %d support points in %s: %d clusters", len(indices), elapsed, len(analysis.Clusters))
	return &analysis, nil
}
