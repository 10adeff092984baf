// Copyright 2024 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package osmix

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// NodeFeature builds a GeoJSON Point feature for node local index i
// (spec §6.2). This layer is not part of the core: it only depends on the
// core's Coord/Tags accessors, same contract the spec calls for.
func NodeFeature(ds *Dataset, i int) *geojson.Feature {
	n := ds.Nodes.Get(i)
	f := geojson.NewFeature(ds.Nodes.Coord(i))
	f.Properties = tagProperties(n.ID, n.Tags)
	return f
}

// WayFeature builds a GeoJSON LineString or Polygon feature for way local
// index i, choosing Polygon iff WayIsArea holds (spec §6.2/§6.3).
func WayFeature(ds *Dataset, i int) *geojson.Feature {
	w := ds.Ways.Get(i)
	line := ds.Ways.LineOf(i, ds.Nodes)

	var geom orb.Geometry
	if WayIsArea(w.Refs, w.Tags) {
		geom = orb.Polygon{orb.Ring(line)}
	} else {
		geom = orb.LineString(line)
	}

	f := geojson.NewFeature(geom)
	f.Properties = tagProperties(w.ID, w.Tags)
	return f
}

// RelationFeature builds a GeoJSON feature carrying only the relation's id
// and tags as properties; relations have no single geometry of their own
// (spec §6.2 leaves relation geometry assembly to external collaborators).
func RelationFeature(ds *Dataset, i int) *geojson.Feature {
	r := ds.Relations.Get(i)
	f := &geojson.Feature{Type: "Feature"}
	f.Properties = tagProperties(r.ID, r.Tags)
	return f
}

func tagProperties(id int64, tags map[string]string) geojson.Properties {
	props := make(geojson.Properties, len(tags)+1)
	props["id"] = id
	for k, v := range tags {
		props[k] = v
	}
	return props
}

// FeatureCollection builds a GeoJSON FeatureCollection over every node and
// way in ds (spec §6.2).
func FeatureCollection(ds *Dataset) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i := 0; i < ds.Nodes.Len(); i++ {
		fc.Append(NodeFeature(ds, i))
	}
	for i := 0; i < ds.Ways.Len(); i++ {
		fc.Append(WayFeature(ds, i))
	}
	return fc
}
