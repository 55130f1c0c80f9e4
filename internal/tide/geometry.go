package tide

import "math"

// Polygon is a closed ring of vertices in WGS84 degrees, accepted as a
// planar approximation for regional extents (§4.3).
type Polygon []Point

// halfPlane is the region {p : p·normal <= offset}, used to clip a
// bounding polygon down to a single Voronoi cell.
type halfPlane struct {
	normal Point
	offset float64
}

// contains reports whether p lies within (or on) the half-plane.
func (h halfPlane) contains(p Point) bool {
	return p.Lon*h.normal.Lon+p.Lat*h.normal.Lat <= h.offset+1e-9
}

// bisectorHalfPlane returns the half-plane containing site, bounded by the
// perpendicular bisector of site and other.
func bisectorHalfPlane(site, other Point) halfPlane {
	normal := Point{Lon: other.Lon - site.Lon, Lat: other.Lat - site.Lat}
	mid := Point{Lon: (site.Lon + other.Lon) / 2, Lat: (site.Lat + other.Lat) / 2}
	offset := normal.Lon*mid.Lon + normal.Lat*mid.Lat
	return halfPlane{normal: normal, offset: offset}
}

// clip runs Sutherland-Hodgman polygon clipping of poly against h.
func clip(poly Polygon, h halfPlane) Polygon {
	if len(poly) == 0 {
		return poly
	}
	var out Polygon
	n := len(poly)
	for i := 0; i < n; i++ {
		cur := poly[i]
		prev := poly[(i-1+n)%n]
		curIn := h.contains(cur)
		prevIn := h.contains(prev)

		if curIn {
			if !prevIn {
				out = append(out, intersect(prev, cur, h))
			}
			out = append(out, cur)
		} else if prevIn {
			out = append(out, intersect(prev, cur, h))
		}
	}
	return out
}

// intersect finds where segment a->b crosses the half-plane boundary line.
func intersect(a, b Point, h halfPlane) Point {
	da := a.Lon*h.normal.Lon + a.Lat*h.normal.Lat - h.offset
	db := b.Lon*h.normal.Lon + b.Lat*h.normal.Lat - h.offset
	t := da / (da - db)
	return Point{
		Lon: a.Lon + t*(b.Lon-a.Lon),
		Lat: a.Lat + t*(b.Lat-a.Lat),
	}
}

// boundingPolygon returns a rectangle comfortably enclosing sites, used as
// the initial unbounded cell before half-plane clipping.
func boundingPolygon(sites []Point, marginDeg float64) Polygon {
	if len(sites) == 0 {
		return nil
	}
	minLon, maxLon := sites[0].Lon, sites[0].Lon
	minLat, maxLat := sites[0].Lat, sites[0].Lat
	for _, p := range sites[1:] {
		minLon = math.Min(minLon, p.Lon)
		maxLon = math.Max(maxLon, p.Lon)
		minLat = math.Min(minLat, p.Lat)
		maxLat = math.Max(maxLat, p.Lat)
	}
	minLon -= marginDeg
	maxLon += marginDeg
	minLat -= marginDeg
	maxLat += marginDeg
	return Polygon{
		{Lon: minLon, Lat: minLat},
		{Lon: maxLon, Lat: minLat},
		{Lon: maxLon, Lat: maxLat},
		{Lon: minLon, Lat: maxLat},
	}
}

// Contains reports whether p lies within poly using the ray-casting rule,
// boundary-inclusive.
func (poly Polygon) Contains(p Point) bool {
	if len(poly) < 3 {
		return false
	}
	inside := false
	n := len(poly)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		vi, vj := poly[i], poly[j]
		if onSegment(vi, vj, p) {
			return true
		}
		if (vi.Lat > p.Lat) != (vj.Lat > p.Lat) {
			xIntersect := vj.Lon + (p.Lat-vj.Lat)*(vi.Lon-vj.Lon)/(vi.Lat-vj.Lat)
			if p.Lon < xIntersect {
				inside = !inside
			}
		}
	}
	return inside
}

func onSegment(a, b, p Point) bool {
	const eps = 1e-12
	cross := (b.Lon-a.Lon)*(p.Lat-a.Lat) - (b.Lat-a.Lat)*(p.Lon-a.Lon)
	if math.Abs(cross) > eps {
		return false
	}
	minLon, maxLon := math.Min(a.Lon, b.Lon), math.Max(a.Lon, b.Lon)
	minLat, maxLat := math.Min(a.Lat, b.Lat), math.Max(a.Lat, b.Lat)
	return p.Lon >= minLon-eps && p.Lon <= maxLon+eps && p.Lat >= minLat-eps && p.Lat <= maxLat+eps
}

// voronoiCell computes the Voronoi polygon for sites[idx] among sites, by
// intersecting the bounding polygon with the perpendicular-bisector
// half-plane of every other site (§4.3: "accepted approximation for
// regional extents" — no geodesic correction applied, planar WGS84
// degrees only).
func voronoiCell(sites []Point, idx int, marginDeg float64) Polygon {
	cell := boundingPolygon(sites, marginDeg)
	site := sites[idx]
	for j, other := range sites {
		if j == idx {
			continue
		}
		cell = clip(cell, bisectorHalfPlane(site, other))
		if len(cell) == 0 {
			break
		}
	}
	return cell
}
