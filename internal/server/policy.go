package server

import (
	"github.com/hongminglow/bank-portal/internal/middleware"
	"github.com/hongminglow/bank-portal/internal/models"
)

// Policy is the authorization table checked before dispatch. Order matters:
// the public login and registration entries shadow their role prefixes.
var Policy = []middleware.Rule{
	{Path: "/api/users/register", Public: true},
	{Path: "/api/users/login", Public: true},
	{Path: "/api/admin/login", Public: true},
	{Path: "/api/employee/login", Public: true},
	{Path: "/api/users/", Role: models.RoleUser},
	{Path: "/api/admin/", Role: models.RoleAdmin},
	{Path: "/api/employee/", Role: models.RoleEmployee},
}
