package models

import "time"

// TransactionType names the kind of balance mutation a record describes.
type TransactionType string

const (
	TxDeposit  TransactionType = "deposit"
	TxWithdraw TransactionType = "withdraw"
	TxTransfer TransactionType = "transfer"
)

// Direction tells whether a record moved money into or out of the owner's balance.
type Direction string

const (
	Credit Direction = "credit"
	Debit  Direction = "debit"
)

// Transaction is an append-only ledger entry owned by a single user.
// A transfer produces two entries, one per side, sharing a reference.
type Transaction struct {
	ID               string          `json:"id" bson:"_id"`
	UserID           string          `json:"userId" bson:"userId"`
	Type             TransactionType `json:"type" bson:"type"`
	Direction        Direction       `json:"direction" bson:"direction"`
	Amount           int64           `json:"amount" bson:"amount"`
	Counterparty     string          `json:"counterparty,omitempty" bson:"counterparty,omitempty"`
	Reference        string          `json:"reference,omitempty" bson:"reference,omitempty"`
	ResultingBalance int64           `json:"resultingBalance" bson:"resultingBalance"`
	CreatedAt        time.Time       `json:"createdAt" bson:"createdAt"`
}
