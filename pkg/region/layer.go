package region

import (
	"math"
	"regexp"
	"sort"
	"strconv"

	"github.com/chazu/fixturedrc/pkg/stitch"
)

var (
	depthRe   = regexp.MustCompile(`\d+\.?\d*`)
	throughRe = regexp.MustCompile(`open|through|thru`)
)

// Layer is the analysed geometry of one drawing layer.
type Layer struct {
	Name  string
	Depth float64

	// Wires are the closed wires built from the layer, with labels.
	Wires []Labeled
	// Open holds chains that never closed.
	Open []*stitch.Chain
	// Regions is filled by Build or Flat on demand.
	Regions []*Region
}

// NewLayer returns an empty layer with its depth parsed from the name.
func NewLayer(name string) *Layer {
	return &Layer{Name: name, Depth: ParseDepth(name)}
}

// ParseDepth returns the first number in name. Names without a number
// that mention an open or through cut are infinitely deep; anything else
// has depth 0.
func ParseDepth(name string) float64 {
	if m := depthRe.FindString(name); m != "" {
		if d, err := strconv.ParseFloat(m, 64); err == nil {
			return d
		}
	}
	if throughRe.MatchString(name) {
		return math.Inf(1)
	}
	return 0
}

// SortByDepth orders layers deepest first. Equal depths keep their order.
func SortByDepth(layers []*Layer) {
	sort.SliceStable(layers, func(i, j int) bool {
		return layers[i].Depth > layers[j].Depth
	})
}
