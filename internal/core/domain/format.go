package domain

// Format identifies a physical medium. The identifiers are stored and
// exposed on the wire, and must never be renumbered.
type Format int

const (
	FormatVinyl    Format = 1
	FormatCD       Format = 2
	FormatCassette Format = 3
)

// FormatDisplayOrder is the fixed order formats appear in catalog output,
// regardless of how the underlying records are stored.
var FormatDisplayOrder = [...]Format{FormatVinyl, FormatCD, FormatCassette}

func (f Format) Valid() bool {
	return f == FormatVinyl || f == FormatCD || f == FormatCassette
}

func (f Format) Name() string {
	switch f {
	case FormatVinyl:
		return "Vinyl"
	case FormatCD:
		return "CD"
	case FormatCassette:
		return "Cassette"
	}
	return "Unknown"
}

// Code is the short prefix used when allocating SKUs.
func (f Format) Code() string {
	switch f {
	case FormatVinyl:
		return "VIN"
	case FormatCD:
		return "CD"
	case FormatCassette:
		return "CAS"
	}
	return "UNK"
}
