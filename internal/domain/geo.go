package domain

import (
	"math"
	"sort"
)

const (
	// milesPerDegree approximates the length of one degree of latitude.
	milesPerDegree = 69.1
	// degreesPerRadian is the cosine correction divisor applied to longitude.
	degreesPerRadian = 57.3
)

// Point is a reference location for distance ranking.
type Point struct {
	Lat float64
	Lng float64
}

// DistanceSquared returns the squared equirectangular distance (in square
// miles) between ref and (lat, lng). Only relative order matters for ranking,
// so the square root is skipped.
func DistanceSquared(ref Point, lat, lng float64) float64 {
	dLat := milesPerDegree * (lat - ref.Lat)
	dLng := milesPerDegree * (ref.Lng - lng) * math.Cos(lat/degreesPerRadian)
	return dLat*dLat + dLng*dLng
}

// Distance returns the approximate distance in miles between ref and (lat, lng).
func Distance(ref Point, lat, lng float64) float64 {
	return math.Sqrt(DistanceSquared(ref, lat, lng))
}

// RankByDistance orders listings in place: ascending distance from ref with
// ties broken by id, or plain id order when ref is nil.
// The SQL search path uses the same expression; this is its in-memory twin.
func RankByDistance(listings []Listing, ref *Point) {
	sort.SliceStable(listings, func(i, j int) bool {
		a, b := listings[i], listings[j]
		if ref != nil {
			da := DistanceSquared(*ref, a.Lat, a.Lng)
			db := DistanceSquared(*ref, b.Lat, b.Lng)
			if da != db {
				return da < db
			}
		}
		return a.ID < b.ID
	})
}
