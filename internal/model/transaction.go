package model

import "time"

// TransactionType classifies a ledger entry.
type TransactionType string

const (
	TxAdd      TransactionType = "add"
	TxRemove   TransactionType = "remove"
	TxAdjust   TransactionType = "adjust"
	TxTransfer TransactionType = "transfer"
	TxWaste    TransactionType = "waste"
)

// TransactionSource records what caused a mutation.
type TransactionSource string

const (
	SourceManual     TransactionSource = "manual"
	SourceMealLog    TransactionSource = "meal_log"
	SourceBarcode    TransactionSource = "barcode"
	SourceVoice      TransactionSource = "voice"
	SourceReceipt    TransactionSource = "receipt"
	SourceAutoDeduct TransactionSource = "auto_deduct"
)

// Valid reports whether s is a known source.
func (s TransactionSource) Valid() bool {
	switch s {
	case SourceManual, SourceMealLog, SourceBarcode, SourceVoice, SourceReceipt, SourceAutoDeduct:
		return true
	}
	return false
}

// Transaction is an immutable ledger entry.
type Transaction struct {
	ID               string            `json:"id"`
	ItemID           string            `json:"item_id"`
	Type             TransactionType   `json:"type"`
	Quantity         float64           `json:"quantity"`
	PreviousQuantity float64           `json:"previous_quantity"`
	NewQuantity      float64           `json:"new_quantity"`
	Reason           string            `json:"reason,omitempty"`
	MealID           string            `json:"meal_id,omitempty"`
	Source           TransactionSource `json:"source"`
	Cost             float64           `json:"cost,omitempty"` // waste entries only
	Timestamp        time.Time         `json:"timestamp"`
}
