package models

import "time"

// Account types offered at registration.
const (
	AccountSavings = "savings"
	AccountCurrent = "current"
)

// User is a bank customer. Balance changes only through the ledger operations.
type User struct {
	ID           string    `json:"id" bson:"_id"`
	Name         string    `json:"name" bson:"name"`
	Phone        string    `json:"phone" bson:"phone"`
	Aadhaar      string    `json:"aadhaar" bson:"aadhaar"`
	AccountType  string    `json:"accountType" bson:"accountType"`
	Balance      int64     `json:"balance" bson:"balance"`
	PasswordHash string    `json:"-" bson:"password"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
}

// Employee is a bank staff member with read access to customers.
type Employee struct {
	ID           string    `json:"id" bson:"_id"`
	Name         string    `json:"name" bson:"name"`
	Phone        string    `json:"phone" bson:"phone"`
	Aadhaar      string    `json:"aadhaar" bson:"aadhaar"`
	PasswordHash string    `json:"-" bson:"password"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
}

// Admin manages employees.
type Admin struct {
	ID           string    `json:"id" bson:"_id"`
	Phone        string    `json:"phone" bson:"phone"`
	PasswordHash string    `json:"-" bson:"password"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
}
