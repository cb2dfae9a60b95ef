package entity

// PlaceCategory groups OpenTripMap kinds shown as one guide section.
type PlaceCategory struct {
	Key     string
	Title   string
	Kinds   string
	MinRate string
	Adult   bool
}

var PlaceCategories = []PlaceCategory{
	{Key: "cultural", Title: "🏛 Sights", Kinds: "cultural,historic,religion,architecture", MinRate: "3h"},
	{Key: "amusements", Title: "🎢 Amusements", Kinds: "amusements", MinRate: "3"},
	{Key: "accommodations", Title: "🏨 Accommodation", Kinds: "accomodations", MinRate: "3"},
	{Key: "foods", Title: "🍽 Food", Kinds: "cafes,fast_food,restaurants", MinRate: "3"},
	{Key: "shops", Title: "🛍 Shops", Kinds: "malls,marketplaces,supermarkets", MinRate: "3"},
	{Key: "adult", Title: "🔞 Adult", Kinds: "adult", MinRate: "3", Adult: true},
}

func PlaceCategoryByKey(key string) (PlaceCategory, bool) {
	for _, c := range PlaceCategories {
		if c.Key == key {
			return c, true
		}
	}
	return PlaceCategory{}, false
}

type Place struct {
	XID   string   `json:"xid"`
	Name  string   `json:"name"`
	Rate  string   `json:"rate"`
	Kinds []string `json:"kinds"`
	Dist  float64  `json:"dist"`
	URL   string   `json:"url,omitempty"`
}
