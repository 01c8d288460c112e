package dto

import "github.com/hongminglow/bank-portal/internal/models"

type AmountRequest struct {
	Amount int64 `json:"amount"`
}

type TransferRequest struct {
	ToPhone string `json:"toPhone"`
	Amount  int64  `json:"amount"`
}

type MutationResponse struct {
	Message     string             `json:"message"`
	Balance     int64              `json:"balance"`
	Transaction models.Transaction `json:"transaction"`
}

type TransferResponse struct {
	Message     string             `json:"message"`
	Balance     int64              `json:"balance"`
	Transaction models.Transaction `json:"transaction"`
	Recipient   string             `json:"recipient"`
}

type HistoryResponse struct {
	Transactions []models.Transaction `json:"transactions"`
}

type UserResponse struct {
	User models.User `json:"user"`
}

type UsersResponse struct {
	Users []models.User `json:"users"`
}
