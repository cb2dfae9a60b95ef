package entity

import "fmt"

// City is identified by ID: an ISO 3166-2 code for catalog cities or
// "osm:<id>" for cities resolved by the geocoder. The zero value is unknown.
type City struct {
	ID      string  `json:"id" bson:"id"`
	Name    string  `json:"name" bson:"name"`
	Country string  `json:"country" bson:"country"`
	Lat     float64 `json:"lat" bson:"lat"`
	Lon     float64 `json:"lon" bson:"lon"`
}

var UnknownCity = City{}

func (c City) Known() bool {
	return c.ID != ""
}

func (c City) Equal(o City) bool {
	return c.Known() && c.ID == o.ID
}

func (c City) String() string {
	if c.Country == "" {
		return c.Name
	}
	return fmt.Sprintf("%s, %s", c.Name, c.Country)
}

type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func (c City) Point() Point {
	return Point{Lat: c.Lat, Lon: c.Lon}
}
