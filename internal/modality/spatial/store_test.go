package spatial

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"verisimdb/internal/modality"
	"verisimdb/internal/storage"
)

func TestPutGetDelete(t *testing.T) {
	ctx := context.Background()
	s := New(storage.NewMemoryBackend(nil), nil)

	g := modality.Geometry{Kind: KindPoint, Coordinates: []float64{1, 2}}
	require.NoError(t, s.Put(ctx, "e1", g))

	got, found, err := s.Get(ctx, "e1")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []float64{1, 2}, got.Coordinates)

	existed, err := s.Delete(ctx, "e1")
	require.NoError(t, err)
	require.True(t, existed)
}

func TestPutRejectsInvalidCoordinateCount(t *testing.T) {
	ctx := context.Background()
	s := New(storage.NewMemoryBackend(nil), nil)

	err := s.Put(ctx, "e1", modality.Geometry{Kind: KindPoint, Coordinates: []float64{1}})
	require.Error(t, err)
	var invalid *InvalidGeometryError
	require.ErrorAs(t, err, &invalid)
}

func TestPutRejectsUnknownKind(t *testing.T) {
	ctx := context.Background()
	s := New(storage.NewMemoryBackend(nil), nil)

	err := s.Put(ctx, "e1", modality.Geometry{Kind: "circle", Coordinates: []float64{1, 2, 3}})
	require.Error(t, err)
}

func TestQueryWithinBBoxFindsOverlappingPoints(t *testing.T) {
	ctx := context.Background()
	s := New(storage.NewMemoryBackend(nil), nil)

	require.NoError(t, s.Put(ctx, "inside", modality.Geometry{Kind: KindPoint, Coordinates: []float64{5, 5}}))
	require.NoError(t, s.Put(ctx, "outside", modality.Geometry{Kind: KindPoint, Coordinates: []float64{50, 50}}))

	bbox := modality.Geometry{Kind: KindBoundingBox, Coordinates: []float64{0, 0, 10, 10}}
	matches, err := s.QueryWithinBBox(ctx, bbox)
	require.NoError(t, err)
	require.Equal(t, []string{"inside"}, matches)
}

func TestQueryWithinBBoxFindsOverlappingPolygon(t *testing.T) {
	ctx := context.Background()
	s := New(storage.NewMemoryBackend(nil), nil)

	poly := modality.Geometry{Kind: KindPolygon, Coordinates: []float64{1, 1, 1, 3, 3, 3, 3, 1}}
	require.NoError(t, s.Put(ctx, "poly", poly))

	bbox := modality.Geometry{Kind: KindBoundingBox, Coordinates: []float64{0, 0, 2, 2}}
	matches, err := s.QueryWithinBBox(ctx, bbox)
	require.NoError(t, err)
	require.Equal(t, []string{"poly"}, matches)
}

func TestQueryWithinBBoxRejectsNonBBoxFootprint(t *testing.T) {
	ctx := context.Background()
	s := New(storage.NewMemoryBackend(nil), nil)

	_, err := s.QueryWithinBBox(ctx, modality.Geometry{Kind: KindPoint, Coordinates: []float64{1, 2}})
	require.Error(t, err)
}
