package enums

import "strings"

// Ownership distinguishes estate vineyards from those run by a supplier.
type Ownership string

const (
	OwnershipOwned    Ownership = "owned"
	OwnershipSupplied Ownership = "supplied"
)

var ValidOwnerships = []Ownership{OwnershipOwned, OwnershipSupplied}

func (o Ownership) IsValid() bool { return isOneOf(o, ValidOwnerships) }

func ParseOwnership(value string) (Ownership, error) {
	return parseOneOf(value, ValidOwnerships, "ownership")
}

// GrapeColor is the red/white split encoded in a variety code prefix.
type GrapeColor string

const (
	GrapeColorRed   GrapeColor = "red"
	GrapeColorWhite GrapeColor = "white"
)

var ValidGrapeColors = []GrapeColor{GrapeColorRed, GrapeColorWhite}

func (c GrapeColor) IsValid() bool { return isOneOf(c, ValidGrapeColors) }

// GrapeColorForCode derives the color from a CV (red) or BV (white) code.
func GrapeColorForCode(code string) (GrapeColor, bool) {
	switch {
	case strings.HasPrefix(code, "CV"):
		return GrapeColorRed, true
	case strings.HasPrefix(code, "BV"):
		return GrapeColorWhite, true
	default:
		return "", false
	}
}

// Cultivar lists the grape varieties recorded directly on a vineyard.
type Cultivar string

const (
	CultivarMerlot            Cultivar = "merlot"
	CultivarCabernetSauvignon Cultivar = "cabernet_sauvignon"
	CultivarSyrah             Cultivar = "syrah"
	CultivarCabernetFranc     Cultivar = "cabernet_franc"
	CultivarPinotNoir         Cultivar = "pinot_noir"
	CultivarZweigelt          Cultivar = "zweigelt"
	CultivarGrasevina         Cultivar = "grasevina"
	CultivarChardonnay        Cultivar = "chardonnay"
	CultivarSauvignonBlanc    Cultivar = "sauvignon_blanc"
	CultivarMuskat            Cultivar = "muskat"
	CultivarPinotBijeli       Cultivar = "pinot_bijeli"
	CultivarPinotSivi         Cultivar = "pinot_sivi"
	CultivarRajnskiRizling    Cultivar = "rajnski_rizling"
	CultivarOther             Cultivar = "other"
)

var ValidCultivars = []Cultivar{
	CultivarMerlot,
	CultivarCabernetSauvignon,
	CultivarSyrah,
	CultivarCabernetFranc,
	CultivarPinotNoir,
	CultivarZweigelt,
	CultivarGrasevina,
	CultivarChardonnay,
	CultivarSauvignonBlanc,
	CultivarMuskat,
	CultivarPinotBijeli,
	CultivarPinotSivi,
	CultivarRajnskiRizling,
	CultivarOther,
}

func (c Cultivar) IsValid() bool { return isOneOf(c, ValidCultivars) }

func ParseCultivar(value string) (Cultivar, error) {
	return parseOneOf(value, ValidCultivars, "grape variety")
}
