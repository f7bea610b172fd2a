package georef

// Centroid is a WGS84 coordinate pair.
type Centroid struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// Ref identifies a parent entity (department, municipality, province).
type Ref struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"nombre" yaml:"nombre"`
}

// Province is a first-level administrative division.
type Province struct {
	ID       string   `json:"id" yaml:"id"`
	Name     string   `json:"nombre" yaml:"nombre"`
	FullName string   `json:"nombre_completo" yaml:"nombre_completo"`
	ISOID    string   `json:"iso_id" yaml:"iso_id"`
	Centroid Centroid `json:"centroide" yaml:"centroide"`
	Category string   `json:"categoria" yaml:"categoria"`
}

// Locality is a settlement scoped to exactly one province.
type Locality struct {
	ID           string   `json:"id"`
	Name         string   `json:"nombre"`
	Department   Ref      `json:"departamento"`
	Municipality Ref      `json:"municipio"`
	Province     Ref      `json:"provincia"`
	Category     string   `json:"categoria"`
	Centroid     Centroid `json:"centroide"`
}

// Street is the street part of a normalized address.
type Street struct {
	ID       string `json:"id"`
	Name     string `json:"nombre"`
	Category string `json:"categoria"`
}

// Height is the door number of a normalized address. Value is nil when the
// input had no number.
type Height struct {
	Value *int   `json:"valor"`
	Unit  string `json:"unidad"`
}

// Address is a normalized street address.
type Address struct {
	Nomenclature string   `json:"nomenclatura"`
	Street       Street   `json:"calle"`
	Height       Height   `json:"altura"`
	Department   Ref      `json:"departamento"`
	Locality     Ref      `json:"localidad_censal"`
	Province     Ref      `json:"provincia"`
	Location     Centroid `json:"ubicacion"`
}

// AddressQuery is the input of NormalizeAddress.
type AddressQuery struct {
	Address    string
	ProvinceID string
	LocalityID string
	Max        int
}

type provincesResponse struct {
	Count     int        `json:"cantidad"`
	Provinces []Province `json:"provincias"`
}

type localitiesResponse struct {
	Count      int        `json:"cantidad"`
	Localities []Locality `json:"localidades"`
}

type addressesResponse struct {
	Count     int       `json:"cantidad"`
	Addresses []Address `json:"direcciones"`
}
