package geo

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/paulmach/orb/geojson"

	apierrors "fertpulse/internal/errors"
	"fertpulse/internal/files"
	"fertpulse/pkg/contracts/domain"
)

// ResourceName identifies the boundary document in load states and logs.
const ResourceName = "boundaries"

// LoadErrorMessage is shown in place of the map when boundaries failed.
const LoadErrorMessage = "Error loading map data. Check console for details."

// DefaultNameProperty holds the region name in each feature.
const DefaultNameProperty = "name"

// DecodeBoundaries parses a GeoJSON FeatureCollection.
func DecodeBoundaries(r io.Reader) (*geojson.FeatureCollection, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read boundaries: %w", err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, apierrors.NewParsingError("invalid boundary GeoJSON", err)
	}
	return fc, nil
}

// RegionNames lists the name property of every feature in document order.
func RegionNames(fc *geojson.FeatureCollection, property string) []string {
	names := make([]string, 0, len(fc.Features))
	for _, f := range fc.Features {
		names = append(names, featureName(f, property))
	}
	return names
}

// featureName reads the region name; non-string values count as unnamed.
func featureName(f *geojson.Feature, property string) string {
	name, _ := f.Properties[property].(string)
	return name
}

// BoundaryStore fetches the boundary document once.
type BoundaryStore struct {
	loader *files.Loader[*geojson.FeatureCollection]
}

// NewBoundaryStore creates a store that will read source through opener.
func NewBoundaryStore(source string, opener *files.Opener, logger *slog.Logger) *BoundaryStore {
	load := func(ctx context.Context) (*geojson.FeatureCollection, int, error) {
		rc, err := opener.Open(ctx, source)
		if err != nil {
			if files.IsRemote(source) {
				return nil, 0, apierrors.NewNetworkError("failed to fetch boundaries", err)
			}
			return nil, 0, err
		}
		defer rc.Close()

		fc, err := DecodeBoundaries(rc)
		if err != nil {
			return nil, 0, err
		}
		return fc, len(fc.Features), nil
	}
	return &BoundaryStore{loader: files.NewLoader(ResourceName, source, load, logger)}
}

// NewStaticBoundaryStore wraps an already parsed document.
func NewStaticBoundaryStore(fc *geojson.FeatureCollection) *BoundaryStore {
	return &BoundaryStore{loader: files.NewReadyLoader(ResourceName, fc, len(fc.Features))}
}

// Start fetches the document in the background.
func (s *BoundaryStore) Start(ctx context.Context) {
	s.loader.Start(ctx)
}

// Load fetches the document if needed and waits for it.
func (s *BoundaryStore) Load(ctx context.Context) (*geojson.FeatureCollection, error) {
	return s.loader.Load(ctx)
}

// Collection returns the document without blocking.
func (s *BoundaryStore) Collection() (*geojson.FeatureCollection, error) {
	return s.loader.Get()
}

// State reports the load status.
func (s *BoundaryStore) State() domain.LoadState {
	return s.loader.State()
}

// Done is closed once loading finished either way.
func (s *BoundaryStore) Done() <-chan struct{} {
	return s.loader.Done()
}
