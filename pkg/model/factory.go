package model

// Factory identifies the contract family that created a pool.
type Factory string

const (
	FactoryPumpFun   Factory = "PumpFun"
	FactoryPumpSwap  Factory = "PumpSwap"
	FactoryRaydium   Factory = "Raydium"
	FactoryMeteora   Factory = "Meteora"
	FactoryUnknown   Factory = "Unknown"
)

// Supported reports whether the enricher (C5) knows how to price this
// factory's pools. Only PumpFun and PumpSwap pools are enriched today.
func (f Factory) Supported() bool {
	return f == FactoryPumpFun || f == FactoryPumpSwap
}

// Valid reports whether f is one of the enum members this service
// understands, bounding the wire field per spec.md §3.
func (f Factory) Valid() bool {
	switch f {
	case FactoryPumpFun, FactoryPumpSwap, FactoryRaydium, FactoryMeteora, FactoryUnknown:
		return true
	default:
		return false
	}
}

// SwapType tags the direction/shape of a swap row.
type SwapType string

const (
	SwapTypeBuy    SwapType = "BUY"
	SwapTypeSell   SwapType = "SELL"
	SwapTypeAdd    SwapType = "ADD"
	SwapTypeRemove SwapType = "REMOVE"
	SwapTypeUnknown SwapType = "UNKNOWN"
)
