package geocoder

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"TripBot/entity"
)

//go:embed cities.json
var builtinCities []byte

type catalogEntry struct {
	entity.City
	Aliases []string `json:"aliases"`
}

// Catalog is a static list of well-known cities looked up by name or ISO
// 3166-2 code without touching the network.
type Catalog struct {
	byName map[string]entity.City
	byISO  map[string]entity.City
}

// LoadCatalog reads the catalog from path, or the built-in list when path is empty.
func LoadCatalog(path string) (*Catalog, error) {
	data := builtinCities
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read city catalog: %w", err)
		}
	}
	var entries []catalogEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode city catalog: %w", err)
	}
	c := &Catalog{
		byName: make(map[string]entity.City, len(entries)),
		byISO:  make(map[string]entity.City, len(entries)),
	}
	for _, e := range entries {
		c.byISO[strings.ToUpper(e.ID)] = e.City
		c.byName[normalize(e.Name)] = e.City
		for _, alias := range e.Aliases {
			c.byName[normalize(alias)] = e.City
		}
	}
	return c, nil
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (c *Catalog) ByName(name string) (entity.City, bool) {
	city, ok := c.byName[normalize(name)]
	return city, ok
}

func (c *Catalog) ByISO(code string) (entity.City, bool) {
	city, ok := c.byISO[strings.ToUpper(strings.TrimSpace(code))]
	return city, ok
}

func (c *Catalog) Len() int {
	return len(c.byISO)
}
