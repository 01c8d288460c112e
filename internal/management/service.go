// Package management covers staff-facing operations: customer lookup for
// employees, employee lifecycle for admins, and seeding the predefined admin.
package management

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hongminglow/bank-portal/internal/apperrors"
	"github.com/hongminglow/bank-portal/internal/auth"
	"github.com/hongminglow/bank-portal/internal/models"
	"github.com/hongminglow/bank-portal/internal/storage"
	"github.com/hongminglow/bank-portal/internal/validate"
)

// Store is the persistence the service relies on.
type Store interface {
	storage.UserStore
	storage.EmployeeStore
	storage.AdminStore
}

// Service implements the employee and admin operations.
type Service struct {
	store Store
	log   *zap.Logger
}

// NewService constructs the service.
func NewService(store Store, log *zap.Logger) *Service {
	return &Service{store: store, log: log}
}

// ListUsers returns every customer.
func (s *Service) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	if users == nil {
		users = []models.User{}
	}
	return users, nil
}

// GetUser returns one customer.
func (s *Service) GetUser(ctx context.Context, id string) (models.User, error) {
	u, err := s.store.FindUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.User{}, fmt.Errorf("user %s: %w", id, apperrors.ErrNotFound)
		}
		return models.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// CreateEmployeeInput carries the fields an admin supplies.
type CreateEmployeeInput struct {
	Name     string
	Phone    string
	Aadhaar  string
	Password string
}

// CreateEmployee validates input, hashes the password and stores the employee.
func (s *Service) CreateEmployee(ctx context.Context, in CreateEmployeeInput) (models.Employee, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Aadhaar = strings.TrimSpace(in.Aadhaar)
	if err := validate.Required(
		[2]string{"name", in.Name},
		[2]string{"phone", in.Phone},
		[2]string{"aadhaar", in.Aadhaar},
		[2]string{"password", in.Password},
	); err != nil {
		return models.Employee{}, err
	}
	if err := validate.Phone(in.Phone); err != nil {
		return models.Employee{}, err
	}
	if err := validate.Aadhaar(in.Aadhaar); err != nil {
		return models.Employee{}, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return models.Employee{}, fmt.Errorf("hash password: %w", err)
	}
	created, err := s.store.CreateEmployee(ctx, models.Employee{
		Name:         in.Name,
		Phone:        in.Phone,
		Aadhaar:      in.Aadhaar,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return models.Employee{}, apperrors.ErrDuplicatePhone
		}
		return models.Employee{}, fmt.Errorf("create employee: %w", err)
	}
	s.log.Info("employee created", zap.String("employee_id", created.ID))
	return created, nil
}

// ListEmployees returns every employee.
func (s *Service) ListEmployees(ctx context.Context) ([]models.Employee, error) {
	employees, err := s.store.ListEmployees(ctx)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	if employees == nil {
		employees = []models.Employee{}
	}
	return employees, nil
}

// DeleteEmployee removes an employee by id.
func (s *Service) DeleteEmployee(ctx context.Context, id string) error {
	if err := s.store.DeleteEmployee(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("employee %s: %w", id, apperrors.ErrNotFound)
		}
		return fmt.Errorf("delete employee: %w", err)
	}
	s.log.Info("employee deleted", zap.String("employee_id", id))
	return nil
}

// SeedAdmin creates the predefined admin when no admin with phone exists.
// It reports whether a record was written; a second call is a no-op.
func (s *Service) SeedAdmin(ctx context.Context, phone, password string) (bool, error) {
	if strings.TrimSpace(phone) == "" || password == "" {
		return false, fmt.Errorf("%w: admin phone and password are required", apperrors.ErrValidation)
	}
	_, err := s.store.FindAdminByPhone(ctx, phone)
	if err == nil {
		s.log.Debug("predefined admin present", zap.String("phone", phone))
		return false, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return false, fmt.Errorf("look up admin: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}
	if _, err := s.store.CreateAdmin(ctx, models.Admin{Phone: phone, PasswordHash: hash}); err != nil {
		// Another instance seeded concurrently.
		if errors.Is(err, storage.ErrAlreadyExists) {
			return false, nil
		}
		return false, fmt.Errorf("create admin: %w", err)
	}
	s.log.Info("predefined admin created", zap.String("phone", phone))
	return true, nil
}
