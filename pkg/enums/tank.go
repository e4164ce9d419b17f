package enums

// TankType maps to the tank_type column.
type TankType string

const (
	TankTypeStainlessSteel TankType = "stainless_steel"
	TankTypeOakBarrel      TankType = "oak_barrel"
	TankTypeConcrete       TankType = "concrete"
	TankTypeFiberglass     TankType = "fiberglass"
)

var ValidTankTypes = []TankType{
	TankTypeStainlessSteel,
	TankTypeOakBarrel,
	TankTypeConcrete,
	TankTypeFiberglass,
}

func (t TankType) IsValid() bool { return isOneOf(t, ValidTankTypes) }

// ParseTankType converts raw input into a TankType.
func ParseTankType(value string) (TankType, error) {
	return parseOneOf(value, ValidTankTypes, "tank type")
}

// TankOperation classifies a tank history entry.
type TankOperation string

const (
	TankOperationAllocation  TankOperation = "allocation"
	TankOperationTransferIn  TankOperation = "transfer_in"
	TankOperationTransferOut TankOperation = "transfer_out"
	TankOperationBottling    TankOperation = "bottling"
	TankOperationAdjustment  TankOperation = "adjustment"
)

var ValidTankOperations = []TankOperation{
	TankOperationAllocation,
	TankOperationTransferIn,
	TankOperationTransferOut,
	TankOperationBottling,
	TankOperationAdjustment,
}

func (o TankOperation) IsValid() bool { return isOneOf(o, ValidTankOperations) }

// ParseTankOperation converts raw input into a TankOperation.
func ParseTankOperation(value string) (TankOperation, error) {
	return parseOneOf(value, ValidTankOperations, "tank operation")
}
