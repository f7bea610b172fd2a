package georef

import (
	_ "embed"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed fallback.yaml
var fallbackYAML []byte

// Fallback is the static dataset served when the remote service is
// unavailable: every province plus the main localities of each one.
type Fallback struct {
	Provinces  []Province          `yaml:"provincias"`
	Localities map[string][]string `yaml:"localidades"`
}

// DefaultFallback returns the dataset bundled with the binary.
func DefaultFallback() *Fallback {
	fb, err := ParseFallback(fallbackYAML)
	if err != nil {
		panic(err) // embedded file is part of the build
	}
	return fb
}

// LoadFallback reads a dataset from a YAML file with the bundled layout.
func LoadFallback(path string) (*Fallback, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "georef: read fallback %s", path)
	}
	return ParseFallback(data)
}

// ParseFallback decodes a YAML dataset.
func ParseFallback(data []byte) (*Fallback, error) {
	var fb Fallback
	if err := yaml.Unmarshal(data, &fb); err != nil {
		return nil, eris.Wrap(err, "georef: parse fallback")
	}
	if len(fb.Provinces) == 0 {
		return nil, eris.New("georef: fallback has no provinces")
	}
	seen := make(map[string]bool, len(fb.Provinces))
	for _, p := range fb.Provinces {
		if strings.TrimSpace(p.ID) == "" || strings.TrimSpace(p.Name) == "" {
			return nil, eris.Errorf("georef: fallback province without id or name: %+v", p)
		}
		if seen[p.ID] {
			return nil, eris.Errorf("georef: duplicate fallback province %s", p.ID)
		}
		seen[p.ID] = true
	}
	for id := range fb.Localities {
		if !seen[id] {
			return nil, eris.Errorf("georef: fallback localities for unknown province %s", id)
		}
	}
	return &fb, nil
}

// province returns the fallback province with the given id.
func (f *Fallback) province(id string) (Province, bool) {
	for _, p := range f.Provinces {
		if p.ID == id {
			return p, true
		}
	}
	return Province{}, false
}

// provinces filters by name and caps the result at max.
func (f *Fallback) provinces(name string, max int) []Province {
	out := make([]Province, 0, len(f.Provinces))
	for _, p := range f.Provinces {
		if matchesName(p.Name, name) {
			out = append(out, p)
		}
	}
	sortByName(out, func(p Province) string { return p.Name })
	return capped(out, max)
}

// localities returns the province's localities in full shape. Fields the
// dataset does not carry are left empty.
func (f *Fallback) localities(provinceID, name string, max int) []Locality {
	p, ok := f.province(provinceID)
	if !ok {
		return []Locality{}
	}
	names := f.Localities[provinceID]
	out := make([]Locality, 0, len(names))
	for _, n := range names {
		if matchesName(n, name) {
			out = append(out, Locality{
				Name:     n,
				Province: Ref{ID: p.ID, Name: p.Name},
			})
		}
	}
	sortByName(out, func(l Locality) string { return l.Name })
	return capped(out, max)
}

// search matches text across one province, or every province when
// provinceID is empty.
func (f *Fallback) search(text, provinceID string, max int) []Locality {
	if provinceID != "" {
		return f.localities(provinceID, text, max)
	}
	var out []Locality
	for _, p := range f.Provinces {
		out = append(out, f.localities(p.ID, text, 0)...)
	}
	if out == nil {
		return []Locality{}
	}
	sortByName(out, func(l Locality) string { return l.Name })
	return capped(out, max)
}

func capped[T any](items []T, max int) []T {
	if max > 0 && len(items) > max {
		return items[:max]
	}
	return items
}
