package enums

type BottleType string

const (
	BottleTypeBordeaux  BottleType = "bordeaux"
	BottleTypeBurgundy  BottleType = "burgundy"
	BottleTypeChampagne BottleType = "champagne"
	BottleTypeRhine     BottleType = "rhine"
	BottleTypeOther     BottleType = "other"
)

var ValidBottleTypes = []BottleType{BottleTypeBordeaux, BottleTypeBurgundy, BottleTypeChampagne, BottleTypeRhine, BottleTypeOther}

func (t BottleType) IsValid() bool { return isOneOf(t, ValidBottleTypes) }

type GlassColor string

const (
	GlassColorClear     GlassColor = "clear"
	GlassColorGreen     GlassColor = "green"
	GlassColorDarkGreen GlassColor = "dark_green"
	GlassColorAmber     GlassColor = "amber"
	GlassColorBlue      GlassColor = "blue"
)

var ValidGlassColors = []GlassColor{GlassColorClear, GlassColorGreen, GlassColorDarkGreen, GlassColorAmber, GlassColorBlue}

func (c GlassColor) IsValid() bool { return isOneOf(c, ValidGlassColors) }

type LabelType string

const (
	LabelTypeFront LabelType = "front"
	LabelTypeBack  LabelType = "back"
	LabelTypeNeck  LabelType = "neck"
)

var ValidLabelTypes = []LabelType{LabelTypeFront, LabelTypeBack, LabelTypeNeck}

func (t LabelType) IsValid() bool { return isOneOf(t, ValidLabelTypes) }

type LabelMaterial string

const (
	LabelMaterialPaper     LabelMaterial = "paper"
	LabelMaterialSynthetic LabelMaterial = "synthetic"
	LabelMaterialMetallic  LabelMaterial = "metallic"
	LabelMaterialOther     LabelMaterial = "other"
)

var ValidLabelMaterials = []LabelMaterial{LabelMaterialPaper, LabelMaterialSynthetic, LabelMaterialMetallic, LabelMaterialOther}

func (m LabelMaterial) IsValid() bool { return isOneOf(m, ValidLabelMaterials) }

type ClosureType string

const (
	ClosureTypeNaturalCork   ClosureType = "cork_natural"
	ClosureTypeSyntheticCork ClosureType = "cork_synthetic"
	ClosureTypeScrewCap      ClosureType = "screw_cap"
	ClosureTypeCrownCap      ClosureType = "crown_cap"
	ClosureTypeGlassStopper  ClosureType = "glass_stopper"
	ClosureTypeOther         ClosureType = "other"
)

var ValidClosureTypes = []ClosureType{
	ClosureTypeNaturalCork,
	ClosureTypeSyntheticCork,
	ClosureTypeScrewCap,
	ClosureTypeCrownCap,
	ClosureTypeGlassStopper,
	ClosureTypeOther,
}

func (t ClosureType) IsValid() bool { return isOneOf(t, ValidClosureTypes) }

type ClosureMaterial string

const (
	ClosureMaterialCork      ClosureMaterial = "cork"
	ClosureMaterialSynthetic ClosureMaterial = "synthetic"
	ClosureMaterialAluminum  ClosureMaterial = "aluminum"
	ClosureMaterialSteel     ClosureMaterial = "steel"
	ClosureMaterialGlass     ClosureMaterial = "glass"
	ClosureMaterialOther     ClosureMaterial = "other"
)

var ValidClosureMaterials = []ClosureMaterial{
	ClosureMaterialCork,
	ClosureMaterialSynthetic,
	ClosureMaterialAluminum,
	ClosureMaterialSteel,
	ClosureMaterialGlass,
	ClosureMaterialOther,
}

func (m ClosureMaterial) IsValid() bool { return isOneOf(m, ValidClosureMaterials) }

type BoxType string

const (
	BoxTypeSingle     BoxType = "single"
	BoxTypeDouble     BoxType = "double"
	BoxTypeTriple     BoxType = "triple"
	BoxTypeSixPack    BoxType = "six_pack"
	BoxTypeTwelvePack BoxType = "twelve_pack"
	BoxTypeShipping   BoxType = "shipping"
	BoxTypeGift       BoxType = "gift"
	BoxTypeOther      BoxType = "other"
)

var ValidBoxTypes = []BoxType{
	BoxTypeSingle,
	BoxTypeDouble,
	BoxTypeTriple,
	BoxTypeSixPack,
	BoxTypeTwelvePack,
	BoxTypeShipping,
	BoxTypeGift,
	BoxTypeOther,
}

func (t BoxType) IsValid() bool { return isOneOf(t, ValidBoxTypes) }

type BoxMaterial string

const (
	BoxMaterialCardboard BoxMaterial = "cardboard"
	BoxMaterialWood      BoxMaterial = "wood"
	BoxMaterialPlastic   BoxMaterial = "plastic"
	BoxMaterialOther     BoxMaterial = "other"
)

var ValidBoxMaterials = []BoxMaterial{BoxMaterialCardboard, BoxMaterialWood, BoxMaterialPlastic, BoxMaterialOther}

func (m BoxMaterial) IsValid() bool { return isOneOf(m, ValidBoxMaterials) }

// BottlingStatus is finished only once closure, label and box are all set.
type BottlingStatus string

const (
	BottlingStatusInProgress BottlingStatus = "in_progress"
	BottlingStatusFinished   BottlingStatus = "finished"
)

func (s BottlingStatus) IsValid() bool {
	return s == BottlingStatusInProgress || s == BottlingStatusFinished
}

func ParseBottlingStatus(value string) (BottlingStatus, error) {
	return parseOneOf(value, []BottlingStatus{BottlingStatusInProgress, BottlingStatusFinished}, "bottling status")
}

// MaterialKind names the packaging material tables.
type MaterialKind string

const (
	MaterialKindBottle  MaterialKind = "bottle"
	MaterialKindClosure MaterialKind = "closure"
	MaterialKindLabel   MaterialKind = "label"
	MaterialKindBox     MaterialKind = "box"
)

var ValidMaterialKinds = []MaterialKind{MaterialKindBottle, MaterialKindClosure, MaterialKindLabel, MaterialKindBox}

func (k MaterialKind) IsValid() bool { return isOneOf(k, ValidMaterialKinds) }

func ParseMaterialKind(value string) (MaterialKind, error) {
	return parseOneOf(value, ValidMaterialKinds, "material kind")
}
