package dto

import "github.com/hongminglow/bank-portal/internal/models"

type CreateEmployeeRequest struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Aadhaar  string `json:"aadhaar"`
	Password string `json:"password"`
}

type EmployeeResponse struct {
	Message  string          `json:"message"`
	Employee models.Employee `json:"employee"`
}

type EmployeesResponse struct {
	Employees []models.Employee `json:"employees"`
}
