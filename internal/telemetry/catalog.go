package telemetry

import "fmt"

// Code is the one-character tag that opens every field token.
type Code string

const (
	CodeUnknown     Code = "__unknown"
	CodePosition    Code = "P"
	CodeRiverVolume Code = "L"
	CodeRiverLevel  Code = "F"
	CodeRiverPH     Code = "H"
	CodeRiverO2     Code = "O"
	CodeStream      Code = "C"
	CodeSeaSalinity Code = "S"
	CodeSwell       Code = "V"
	CodeTemperature Code = "T"
	CodeHumidity    Code = "U"
	CodeWind        Code = "W"
	CodeRain        Code = "R"
)

// Position values are ordered latitude, longitude.
const (
	LatitudeIndex  = 0
	LongitudeIndex = 1
)

// FieldType describes one telemetry field code. len(Units) is the number of values a token
// of this type must carry.
type FieldType struct {
	Code  Code
	Name  string
	Units []string
}

func (s FieldType) Arity() int { return len(s.Units) }

// Catalog is an immutable code -> FieldType table.
type Catalog struct {
	types map[Code]FieldType
}

// NewCatalog copies types into a new catalog. Later entries replace earlier
// ones with the same code.
func NewCatalog(types ...FieldType) *Catalog {
	c := &Catalog{types: make(map[Code]FieldType, len(types))}
	for _, s := range types {
		s.Units = append([]string(nil), s.Units...)
		c.types[s.Code] = s
	}
	return c
}

var defaultCatalog = NewCatalog(
	FieldType{Code: CodeUnknown, Name: "Unknown data"},
	FieldType{Code: CodePosition, Name: "Position", Units: []string{"degrees", "degrees"}},
	FieldType{Code: CodeRiverVolume, Name: "River volume", Units: []string{"m^3/s"}},
	FieldType{Code: CodeRiverLevel, Name: "River level", Units: []string{"meters"}},
	FieldType{Code: CodeRiverPH, Name: "River PH", Units: []string{"u.pH"}},
	FieldType{Code: CodeRiverO2, Name: "River Oxigen", Units: []string{"mg/L"}},
	FieldType{Code: CodeStream, Name: "Stream", Units: []string{"cm/s", "degrees"}},
	FieldType{Code: CodeSeaSalinity, Name: "Sea salinity", Units: []string{"psu"}},
	FieldType{Code: CodeSwell, Name: "Swell", Units: []string{"m", "degrees"}},
	FieldType{Code: CodeTemperature, Name: "Temperature", Units: []string{"centigrades"}},
	FieldType{Code: CodeHumidity, Name: "Relative Humidity", Units: []string{"%"}},
	FieldType{Code: CodeWind, Name: "Wind", Units: []string{"m/s", "degrees"}},
	FieldType{Code: CodeRain, Name: "Rain", Units: []string{"l/m^2"}},
)

// DefaultCatalog returns the HumSAT sensor field table. The returned catalog
// is shared and must not be modified.
func DefaultCatalog() *Catalog { return defaultCatalog }

// Lookup returns the field type for code. Codes without units (the unknown
// placeholder) cannot be decoded and are reported as unknown.
func (c *Catalog) Lookup(code Code) (FieldType, error) {
	s, ok := c.types[code]
	if !ok || len(s.Units) == 0 {
		return FieldType{}, fmt.Errorf("%w: %q", ErrUnknownFieldType, string(code))
	}
	return s, nil
}

// Name returns the display name for code, or the unknown placeholder name.
func (c *Catalog) Name(code Code) string {
	if s, ok := c.types[code]; ok {
		return s.Name
	}
	if s, ok := c.types[CodeUnknown]; ok {
		return s.Name
	}
	return string(code)
}
