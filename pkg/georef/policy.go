package georef

import "time"

// Operation names a lookup exposed by Client. Values double as metric labels.
type Operation string

// Operations.
const (
	OpProvinces        Operation = "provincias"
	OpLocalities       Operation = "localidades"
	OpAllLocalities    Operation = "localidades_todas"
	OpSearchLocalities Operation = "localidades_busqueda"
	OpNormalizeAddress Operation = "direcciones"
)

// Operations lists every operation in a stable order.
var Operations = []Operation{
	OpProvinces,
	OpLocalities,
	OpAllLocalities,
	OpSearchLocalities,
	OpNormalizeAddress,
}

// FallbackPolicy decides what an operation does once the remote service
// has failed for good.
type FallbackPolicy int

const (
	// FallbackPropagate returns the error to the caller.
	FallbackPropagate FallbackPolicy = iota
	// FallbackLocal substitutes the bundled dataset and returns no error.
	FallbackLocal
)

func (p FallbackPolicy) String() string {
	if p == FallbackLocal {
		return "local"
	}
	return "propagate"
}

// DefaultFallbackPolicies: the selector lookups degrade to bundled data, the
// free-text operations surface failures.
func DefaultFallbackPolicies() map[Operation]FallbackPolicy {
	return map[Operation]FallbackPolicy{
		OpProvinces:        FallbackLocal,
		OpLocalities:       FallbackLocal,
		OpAllLocalities:    FallbackLocal,
		OpSearchLocalities: FallbackPropagate,
		OpNormalizeAddress: FallbackPropagate,
	}
}

// TTLs is the cache lifetime per data category.
type TTLs struct {
	Provinces     time.Duration
	Localities    time.Duration
	AllLocalities time.Duration
	Default       time.Duration
}

// DefaultTTLs returns the lifetimes used when none are configured.
func DefaultTTLs() TTLs {
	return TTLs{
		Provinces:     30 * time.Minute,
		Localities:    10 * time.Minute,
		AllLocalities: 60 * time.Minute,
		Default:       5 * time.Minute,
	}
}

func (t TTLs) forOperation(op Operation) time.Duration {
	switch op {
	case OpProvinces:
		return t.Provinces
	case OpLocalities:
		return t.Localities
	case OpAllLocalities:
		return t.AllLocalities
	default:
		return t.Default
	}
}

// Limits holds the default result cap per operation.
type Limits struct {
	Provinces     int
	Localities    int
	AllLocalities int
	Search        int
	Addresses     int
}

// DefaultLimits returns the caps used when none are configured.
func DefaultLimits() Limits {
	return Limits{
		Provinces:     24,
		Localities:    100,
		AllLocalities: 1000,
		Search:        10,
		Addresses:     10,
	}
}

// OrDefaults replaces zero or negative caps with the defaults.
func (l Limits) OrDefaults() Limits {
	d := DefaultLimits()
	return Limits{
		Provinces:     orDefault(l.Provinces, d.Provinces),
		Localities:    orDefault(l.Localities, d.Localities),
		AllLocalities: orDefault(l.AllLocalities, d.AllLocalities),
		Search:        orDefault(l.Search, d.Search),
		Addresses:     orDefault(l.Addresses, d.Addresses),
	}
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}
