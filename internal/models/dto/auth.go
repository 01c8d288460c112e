package dto

import "github.com/hongminglow/bank-portal/internal/models"

type RegisterRequest struct {
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	Aadhaar     string `json:"aadhaar"`
	Password    string `json:"password"`
	AccountType string `json:"accountType"`
}

type LoginRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type UserLoginResponse struct {
	Message string      `json:"message"`
	Token   string      `json:"token"`
	Role    models.Role `json:"role"`
	User    models.User `json:"user"`
}

type EmployeeLoginResponse struct {
	Message  string          `json:"message"`
	Token    string          `json:"token"`
	Role     models.Role     `json:"role"`
	Employee models.Employee `json:"employee"`
}

type AdminLoginResponse struct {
	Message string       `json:"message"`
	Token   string       `json:"token"`
	Role    models.Role  `json:"role"`
	Admin   models.Admin `json:"admin"`
}
