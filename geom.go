// Copyright 2024 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package osmix

import (
	"math"

	"github.com/paulmach/orb"
)

// earthRadiusMeters is R in the haversine formula, spec §4.12.
const earthRadiusMeters = 6371000.0

// Haversine returns the great-circle distance between a and b in meters,
// treating each orb.Point as (lon, lat) in WGS84 degrees.
func Haversine(a, b orb.Point) float64 {
	lon1, lat1 := a[0], a[1]
	lon2, lat2 := b[0], b[1]

	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	sinDPhi := math.Sin(dPhi / 2)
	sinDLambda := math.Sin(dLambda / 2)
	h := sinDPhi*sinDPhi + math.Cos(phi1)*math.Cos(phi2)*sinDLambda*sinDLambda
	return 2 * earthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}

// Line is an ordered polyline of (lon, lat) points.
type Line []orb.Point

// Bound returns the orb.Bound enclosing l. The zero Line has a zero Bound.
func (l Line) Bound() orb.Bound {
	if len(l) == 0 {
		return orb.Bound{}
	}
	b := orb.Bound{Min: l[0], Max: l[0]}
	for _, p := range l[1:] {
		b = b.Union(orb.Bound{Min: p, Max: p})
	}
	return b
}

// LineIntersect returns every point where segment-by-segment comparison of
// a and b cross exactly (spec §4.12/§9: touch-only endpoints are excluded
// by convention of the merge engine — this function only ever reports a
// genuine segment-segment crossing, never a shared endpoint).
func LineIntersect(a, b Line) []orb.Point {
	var out []orb.Point
	for i := 0; i+1 < len(a); i++ {
		for j := 0; j+1 < len(b); j++ {
			if p, ok := segmentIntersect(a[i], a[i+1], b[j], b[j+1]); ok {
				out = append(out, p)
			}
		}
	}
	return out
}

// segmentIntersect computes the intersection of segments p1p2 and p3p4,
// excluding intersections that land exactly on an endpoint of either
// segment (a touch, not a cross).
func segmentIntersect(p1, p2, p3, p4 orb.Point) (orb.Point, bool) {
	x1, y1 := p1[0], p1[1]
	x2, y2 := p2[0], p2[1]
	x3, y3 := p3[0], p3[1]
	x4, y4 := p4[0], p4[1]

	d := (x1-x2)*(y3-y4) - (y1-y2)*(x3-x4)
	if math.Abs(d) < 1e-15 {
		return orb.Point{}, false // parallel or collinear
	}

	t := ((x1-x3)*(y3-y4) - (y1-y3)*(x3-x4)) / d
	u := ((x1-x3)*(y1-y2) - (y1-y3)*(x1-x2)) / d

	const eps = 1e-12
	if t <= eps || t >= 1-eps || u <= eps || u >= 1-eps {
		return orb.Point{}, false
	}

	return orb.Point{x1 + t*(x2-x1), y1 + t*(y2-y1)}, true
}

// NearestPointOnLine returns the closest point on l to p, the index of the
// segment it falls on, and the distance in the same planar units as the
// input coordinates (spec §4.12: distance is reported in degrees here; the
// merge engine uses only the returned segment index and measures meters
// separately with Haversine).
func NearestPointOnLine(l Line, p orb.Point) (point orb.Point, segment int, distance float64) {
	if len(l) == 0 {
		return orb.Point{}, -1, math.Inf(1)
	}
	if len(l) == 1 {
		return l[0], 0, planarDistance(l[0], p)
	}

	best := math.Inf(1)
	bestPoint := l[0]
	bestSeg := 0
	for i := 0; i+1 < len(l); i++ {
		cand, d := nearestOnSegment(l[i], l[i+1], p)
		if d < best {
			best = d
			bestPoint = cand
			bestSeg = i
		}
	}
	return bestPoint, bestSeg, best
}

func nearestOnSegment(a, b, p orb.Point) (orb.Point, float64) {
	ax, ay := a[0], a[1]
	bx, by := b[0], b[1]
	px, py := p[0], p[1]

	abx, aby := bx-ax, by-ay
	lenSq := abx*abx + aby*aby
	if lenSq == 0 {
		return a, planarDistance(a, p)
	}

	t := ((px-ax)*abx + (py-ay)*aby) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	cand := orb.Point{ax + t*abx, ay + t*aby}
	return cand, planarDistance(cand, p)
}

func planarDistance(a, b orb.Point) float64 {
	dx := a[0] - b[0]
	dy := a[1] - b[1]
	return math.Sqrt(dx*dx + dy*dy)
}

// areaKeys are the tag keys which, when present with a value other than
// "no", classify a closed way as an area (spec §6.3).
var areaKeys = map[string]bool{
	"amenity": true, "boundary": true, "building": true, "building:part": true,
	"craft": true, "golf": true, "historic": true, "indoor": true,
	"landuse": true, "leisure": true, "military": true, "office": true,
	"place": true, "public_transport": true, "ruins": true, "shop": true,
	"tourism": true,
}

var areaKeyValues = map[string]map[string]bool{
	"barrier":  {"city_wall": true, "ditch": true, "hedge": true, "retaining_wall": true, "wall": true, "spikes": true},
	"highway":  {"services": true, "rest_area": true, "escape": true, "elevator": true},
	"power":    {"plant": true, "substation": true, "generator": true, "transformer": true},
	"railway":  {"station": true, "turntable": true, "roundhouse": true, "platform": true},
	"waterway": {"riverbank": true, "dock": true, "boatyard": true, "dam": true},
}

var areaExclusions = map[string]map[string]bool{
	"aeroway":      {"no": true, "taxiway": true},
	"area:highway": {"no": true},
	"man_made":     {"no": true, "cutline": true, "embankment": true, "pipeline": true},
	"natural":      {"no": true, "coastline": true, "cliff": true, "ridge": true, "arete": true, "tree_row": true},
}

// WayIsArea reports whether a closed way with refs and tags should be
// treated as a polygon rather than a line string (spec §4.12, §6.3): a
// closed ring (len(refs) >= 3 and refs[0] == refs[-1]) whose tags classify
// it as an area.
func WayIsArea(refs []int64, tags map[string]string) bool {
	if len(refs) < 3 || refs[0] != refs[len(refs)-1] {
		return false
	}
	return tagsClassifyArea(tags)
}

// tagsClassifyArea implements the §6.3 tag rules in isolation from the
// closure check; WayIsArea applies it once the ring is known to be closed.
func tagsClassifyArea(tags map[string]string) bool {
	if area, ok := tags["area"]; ok {
		return area != "no"
	}

	for k := range areaKeys {
		if v, ok := tags[k]; ok && v != "no" {
			return true
		}
	}
	for k, vals := range areaKeyValues {
		if v, ok := tags[k]; ok && vals[v] {
			return true
		}
	}
	for k, excluded := range areaExclusions {
		if v, ok := tags[k]; ok && !excluded[v] {
			return true
		}
	}
	return false
}
