// Copyright 2024 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package osmix

import (
	"math"
	"time"
)

// RouteCacheKey identifies one shortest-path query for memoization.
type RouteCacheKey struct {
	Start  int
	End    int
	Metric Metric
}

const routeCacheTTL = 10 * time.Minute

// RouteCache memoizes Graph route queries (spec §4.11.5), generalized from
// the teacher's ResultCache keyed-lookup discipline (caching.go).
type RouteCache struct {
	paths   *Cache[RouteCacheKey, []PathSegment]
	nearest *Cache[int64, RoutableNodeInfo]
}

// NewRouteCache returns a route cache bounded to maxEntries per table.
func NewRouteCache(maxEntries int64) *RouteCache {
	return &RouteCache{
		paths:   NewCache[RouteCacheKey, []PathSegment](maxEntries, routeCacheTTL),
		nearest: NewCache[int64, RoutableNodeInfo](maxEntries, routeCacheTTL),
	}
}

// Dijkstra is Graph.Dijkstra with result memoization.
func (rc *RouteCache) Dijkstra(g *Graph, start, end int, metric Metric) ([]PathSegment, bool) {
	key := RouteCacheKey{Start: start, End: end, Metric: metric}
	if path, ok := rc.paths.Get(key); ok {
		return path, true
	}
	path, ok := g.Dijkstra(start, end, metric)
	if ok {
		rc.paths.Put(key, path)
	}
	return path, ok
}

// AStar is Graph.AStar with result memoization.
func (rc *RouteCache) AStar(g *Graph, start, end int, metric Metric, coordFn CoordFunc) ([]PathSegment, bool, error) {
	key := RouteCacheKey{Start: start, End: end, Metric: metric}
	if path, ok := rc.paths.Get(key); ok {
		return path, true, nil
	}
	path, ok, err := g.AStar(start, end, metric, coordFn)
	if err != nil {
		return nil, false, err
	}
	if ok {
		rc.paths.Put(key, path)
	}
	return path, ok, nil
}

// quantizeCoordKey collapses (lon, lat) to ~1.1m precision so repeated
// nearest-routable-node queries against the same map click hit the cache.
const coordQuantizeScale = 1e5

func quantizeCoordKey(lon, lat float64) int64 {
	lo := int64(math.Round(lon * coordQuantizeScale))
	la := int64(math.Round(lat * coordQuantizeScale))
	return lo<<32 ^ (la & 0xffffffff)
}

// FindNearestRoutable is FindNearestRoutable with result memoization.
func (rc *RouteCache) FindNearestRoutable(ds *Dataset, g *Graph, lon, lat, maxKM float64) (RoutableNodeInfo, bool) {
	key := quantizeCoordKey(lon, lat)
	if info, ok := rc.nearest.Get(key); ok {
		return info, true
	}
	info, ok := FindNearestRoutable(ds, g, lon, lat, maxKM)
	if ok {
		rc.nearest.Put(key, info)
	}
	return info, ok
}

// Stats reports the underlying caches' hit/miss/eviction counters.
func (rc *RouteCache) Stats() (paths, nearest CacheStats) {
	return rc.paths.Stats(), rc.nearest.Stats()
}
