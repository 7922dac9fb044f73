package domain

import (
	"slices"
	"time"
)

// InventoryReason classifies a stock movement
type InventoryReason string

const (
	ReasonSale       InventoryReason = "sale"
	ReasonReturn     InventoryReason = "return"
	ReasonAdjustment InventoryReason = "adjustment"
	ReasonRestock    InventoryReason = "restock"
	ReasonDamaged    InventoryReason = "damaged"
	ReasonInitial    InventoryReason = "initial"
)

// InventoryReasons lists every reason in display order
var InventoryReasons = []InventoryReason{
	ReasonSale, ReasonReturn, ReasonAdjustment, ReasonRestock, ReasonDamaged, ReasonInitial,
}

func (r InventoryReason) Valid() bool {
	return slices.Contains(InventoryReasons, r)
}

// SystemUser is recorded as the actor when none is supplied
const SystemUser = "system"

// InventoryLog is an append-only record of one stock quantity change.
// Change is NewQuantity - PreviousQuantity, which differs from the
// requested delta when the result was clamped at zero.
type InventoryLog struct {
	ID               string          `json:"id"`
	ProductID        string          `json:"productId"`
	VariantID        *string         `json:"variantId"`
	PreviousQuantity int             `json:"previousQuantity"`
	NewQuantity      int             `json:"newQuantity"`
	Change           int             `json:"change"`
	Reason           InventoryReason `json:"reason"`
	Notes            *string         `json:"notes"`
	UserID           string          `json:"userId"`
	CreatedAt        time.Time       `json:"createdAt"`
}
