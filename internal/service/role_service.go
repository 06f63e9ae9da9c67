package service

import (
	"context"
	"fmt"
	"sort"

	"stockcount/internal/model"
	"stockcount/internal/repository"

	"github.com/google/uuid"
)

type UpdateRolePermissionsRequest struct {
	Permissions []string `json:"permissions" binding:"required"` // Permission codes
}

type RoleResponse struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	IsSystem    bool                 `json:"is_system"`
	Permissions []PermissionResponse `json:"permissions"`
}

type PermissionResponse struct {
	ID    string `json:"id"`
	Code  string `json:"code"`
	Name  string `json:"name"`
	Group string `json:"group"`
}

type RoleService interface {
	ListRoles(ctx context.Context) ([]RoleResponse, error)
	ListPermissions(ctx context.Context) ([]PermissionResponse, error)
	UpdateRolePermissions(ctx context.Context, actorID, roleID string, req UpdateRolePermissionsRequest) (*RoleResponse, error)
	SeedDefaultRolesAndPermissions(ctx context.Context) error
}

type roleService struct {
	repo      repository.RoleRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
}

func NewRoleService(repo repository.RoleRepository, auditRepo repository.AuditRepository, txManager repository.TransactionManager) RoleService {
	return &roleService{repo: repo, auditRepo: auditRepo, txManager: txManager}
}

// DefaultPermissions is the permission catalogue seeded at start-up
var DefaultPermissions = []model.Permission{
	{Code: model.PermDashboardRead, Name: "View dashboard and progress", Group: "dashboard"},
	{Code: model.PermInventoryRead, Name: "View inventory", Group: "inventory"},
	{Code: model.PermInventoryWrite, Name: "Edit inventory items", Group: "inventory"},
	{Code: model.PermInventoryCount, Name: "Record physical counts", Group: "inventory"},
	{Code: model.PermInventoryImport, Name: "Import and export inventory", Group: "inventory"},
	{Code: model.PermInventoryReset, Name: "Reset inventory", Group: "inventory"},
	{Code: model.PermMovementsRead, Name: "View movements", Group: "movements"},
	{Code: model.PermMovementsWrite, Name: "Register movements", Group: "movements"},
	{Code: model.PermMovementsDelete, Name: "Delete movements", Group: "movements"},
	{Code: model.PermReconciliationRead, Name: "View reconciliation", Group: "reconciliation"},
	{Code: model.PermUsersRead, Name: "View users", Group: "users"},
	{Code: model.PermUsersWrite, Name: "Manage users", Group: "users"},
	{Code: model.PermUsersDelete, Name: "Delete users", Group: "users"},
	{Code: model.PermRolesWrite, Name: "Manage role permissions", Group: "roles"},
	{Code: model.PermAuditRead, Name: "View audit log", Group: "audit"},
}

// DefaultRoles maps each built-in role to its seeded permission codes
var DefaultRoles = map[string]struct {
	Description string
	PermCodes   []string
}{
	model.RoleAdmin: {
		Description: "Full access",
		PermCodes:   allPermissionCodes(),
	},
	model.RoleSupervisor: {
		Description: "Runs the count, registers movements and reviews reconciliation",
		PermCodes: []string{
			model.PermDashboardRead,
			model.PermInventoryRead, model.PermInventoryWrite, model.PermInventoryCount, model.PermInventoryImport,
			model.PermMovementsRead, model.PermMovementsWrite,
			model.PermReconciliationRead,
			model.PermUsersRead,
			model.PermAuditRead,
		},
	},
	model.RoleCounter: {
		Description: "Records physical counts",
		PermCodes: []string{
			model.PermDashboardRead,
			model.PermInventoryRead, model.PermInventoryCount,
			model.PermMovementsRead,
		},
	},
}

func allPermissionCodes() []string {
	codes := make([]string, 0, len(DefaultPermissions))
	for _, p := range DefaultPermissions {
		codes = append(codes, p.Code)
	}
	return codes
}

func (s *roleService) ListRoles(ctx context.Context) ([]RoleResponse, error) {
	roles, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch roles: %w", err)
	}

	res := make([]RoleResponse, 0, len(roles))
	for _, r := range roles {
		res = append(res, toRoleResponse(r))
	}
	return res, nil
}

func (s *roleService) ListPermissions(ctx context.Context) ([]PermissionResponse, error) {
	perms, err := s.repo.ListPermissions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch permissions: %w", err)
	}

	res := make([]PermissionResponse, 0, len(perms))
	for _, p := range perms {
		res = append(res, toPermissionResponse(p))
	}
	return res, nil
}

func (s *roleService) UpdateRolePermissions(ctx context.Context, actorID, roleID string, req UpdateRolePermissionsRequest) (*RoleResponse, error) {
	id, err := parseID(roleID, "role")
	if err != nil {
		return nil, err
	}

	role, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, "role")
	}
	if role.Name == model.RoleAdmin && !contains(req.Permissions, model.PermRolesWrite) {
		return nil, validationf("the admin role must keep %s", model.PermRolesWrite)
	}

	var updated *model.Role
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var txErr error
		updated, txErr = s.repo.UpdatePermissions(txCtx, id, req.Permissions)
		if txErr != nil {
			return mapRepoErr(txErr, "role")
		}
		entry := newAuditLog(actorID, model.ActionUpdateRolePermissions, role.ID.String(), role.Name,
			map[string][]string{"permissions": req.Permissions})
		return s.auditRepo.Log(txCtx, entry)
	})
	if err != nil {
		return nil, err
	}

	updated.Description = role.Description
	updated.IsSystem = role.IsSystem
	resp := toRoleResponse(*updated)
	return &resp, nil
}

// SeedDefaultRolesAndPermissions creates the default permissions and roles if not already present.
// Built-in roles get their default grants when created; the admin role is topped up on every run.
func (s *roleService) SeedDefaultRolesAndPermissions(ctx context.Context) error {
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		permByCode := make(map[string]uuid.UUID, len(DefaultPermissions))
		for _, def := range DefaultPermissions {
			p := def
			if err := s.repo.FindOrCreatePermission(txCtx, &p); err != nil {
				return fmt.Errorf("failed to seed permission '%s': %w", p.Code, err)
			}
			permByCode[p.Code] = p.ID
		}

		names := make([]string, 0, len(DefaultRoles))
		for name := range DefaultRoles {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			def := DefaultRoles[name]
			existing, err := s.repo.FindByName(txCtx, name)
			created := false
			switch {
			case err == nil:
			case errorsIsNotFound(err):
				existing = &model.Role{Name: name, Description: def.Description, IsSystem: true}
				if err := s.repo.FindOrCreate(txCtx, existing); err != nil {
					return fmt.Errorf("failed to seed role '%s': %w", name, err)
				}
				created = true
			default:
				return err
			}

			if !created && name != model.RoleAdmin {
				continue
			}
			ids := make([]uuid.UUID, 0, len(def.PermCodes))
			for _, code := range def.PermCodes {
				if id, ok := permByCode[code]; ok {
					ids = append(ids, id)
				}
			}
			if err := s.repo.AssociatePermissions(txCtx, existing.ID, ids); err != nil {
				return fmt.Errorf("failed to assign permissions to role '%s': %w", name, err)
			}
		}
		return nil
	})
}

func toRoleResponse(r model.Role) RoleResponse {
	perms := make([]PermissionResponse, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		perms = append(perms, toPermissionResponse(p))
	}

	return RoleResponse{
		ID:          r.ID.String(),
		Name:        r.Name,
		Description: r.Description,
		IsSystem:    r.IsSystem,
		Permissions: perms,
	}
}

func toPermissionResponse(p model.Permission) PermissionResponse {
	return PermissionResponse{
		ID:    p.ID.String(),
		Code:  p.Code,
		Name:  p.Name,
		Group: p.Group,
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
