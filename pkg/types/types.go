package types

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
)

// ProductType identifies the capture product requested from the vendor.
type ProductType string

const (
	ProductDay           ProductType = "DAY"
	ProductNight         ProductType = "NIGHT"
	ProductVideo         ProductType = "VIDEO"
	ProductSAR           ProductType = "SAR"
	ProductHyperspectral ProductType = "HYPERSPECTRAL"
	ProductMultispectral ProductType = "MULTISPECTRAL"
	ProductStereo        ProductType = "STEREO"
)

// IsValid reports whether the product type is a known vendor product.
func (p ProductType) IsValid() bool {
	switch p {
	case ProductDay, ProductNight, ProductVideo, ProductSAR,
		ProductHyperspectral, ProductMultispectral, ProductStereo:
		return true
	}
	return false
}

// WeatherIndependent reports whether captures of this product are unaffected
// by cloud cover. Radar sees through clouds, so its weather score is always 1.
func (p ProductType) WeatherIndependent() bool {
	return p == ProductSAR
}

// Resolution is the ordinal resolution tier. CM_30 and CM_50 denote the
// sub-meter bands.
type Resolution string

const (
	ResolutionLow       Resolution = "LOW"
	ResolutionMedium    Resolution = "MEDIUM"
	ResolutionHigh      Resolution = "HIGH"
	ResolutionVeryHigh  Resolution = "VERY_HIGH"
	ResolutionSuperHigh Resolution = "SUPER_HIGH"
	ResolutionUltraHigh Resolution = "ULTRA_HIGH"
	ResolutionCM30      Resolution = "CM_30"
	ResolutionCM50      Resolution = "CM_50"
)

var resolutionRanks = map[Resolution]int{
	ResolutionLow:       0,
	ResolutionMedium:    1,
	ResolutionHigh:      2,
	ResolutionVeryHigh:  3,
	ResolutionSuperHigh: 4,
	ResolutionUltraHigh: 5,
	ResolutionCM30:      6,
	ResolutionCM50:      7,
}

// IsValid reports whether the resolution tier is known.
func (r Resolution) IsValid() bool {
	_, ok := resolutionRanks[r]
	return ok
}

// Rank returns the ordinal position of the tier, -1 for unknown tiers.
func (r Resolution) Rank() int {
	if rank, ok := resolutionRanks[r]; ok {
		return rank
	}
	return -1
}

// AtLeast reports whether r is the same tier as other or a finer one.
func (r Resolution) AtLeast(other Resolution) bool {
	return r.Rank() >= other.Rank()
}

// Location is a single area of interest within a batch. The identifier is
// caller-assigned and must be unique within the batch. A location is
// immutable once submitted.
type Location struct {
	ID       string         `json:"id"`
	Name     string         `json:"name,omitempty"`
	Geometry orb.Geometry   `json:"-"`
	AOI      string         `json:"aoi,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// WKT returns the area of interest as well-known text, deriving it from the
// geometry when no explicit AOI string was supplied.
func (l Location) WKT() string {
	if l.AOI != "" {
		return l.AOI
	}
	if l.Geometry != nil {
		return wkt.MarshalString(l.Geometry)
	}
	return ""
}

// DisplayName returns the human name when present, else the identifier.
func (l Location) DisplayName() string {
	if l.Name != "" {
		return l.Name
	}
	return l.ID
}

// ParseAOI parses a well-known text geometry into an orb geometry. Only
// points and polygons are accepted as areas of interest.
func ParseAOI(s string) (orb.Geometry, error) {
	geom, err := wkt.Unmarshal(s)
	if err != nil {
		return nil, fmt.Errorf("parsing AOI: %w", err)
	}
	switch geom.(type) {
	case orb.Point, orb.Polygon:
		return geom, nil
	default:
		return nil, fmt.Errorf("unsupported AOI geometry type %q", geom.GeoJSONType())
	}
}
