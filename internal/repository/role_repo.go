package repository

import (
	"context"

	"bintobloom/internal/model"

	"gorm.io/gorm"
)

type RoleRepository interface {
	FindByName(ctx context.Context, name string) (*model.Role, error)
	ListAll(ctx context.Context) ([]model.Role, error)
	ListPermissions(ctx context.Context) ([]model.Permission, error)
	ReplacePermissions(ctx context.Context, roleName string, codes []string) (*model.Role, error)
	GetPermissionsByRoleName(ctx context.Context, roleName string) ([]string, error)
}

type roleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &roleRepository{db: db}
}

func (r *roleRepository) FindByName(ctx context.Context, name string) (*model.Role, error) {
	var role model.Role
	if err := GetDB(ctx, r.db).Preload("Permissions").Where("name = ?", name).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepository) ListAll(ctx context.Context) ([]model.Role, error) {
	var roles []model.Role
	if err := GetDB(ctx, r.db).Preload("Permissions").Order("name asc").Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

func (r *roleRepository) ListPermissions(ctx context.Context) ([]model.Permission, error) {
	var perms []model.Permission
	if err := GetDB(ctx, r.db).Order("\"group\" asc, code asc").Find(&perms).Error; err != nil {
		return nil, err
	}
	return perms, nil
}

// ReplacePermissions sets the role's grants to exactly the permissions named by codes.
// Unknown codes are ignored.
func (r *roleRepository) ReplacePermissions(ctx context.Context, roleName string, codes []string) (*model.Role, error) {
	db := GetDB(ctx, r.db)
	var role model.Role
	if err := db.Where("name = ?", roleName).First(&role).Error; err != nil {
		return nil, err
	}

	perms := []model.Permission{}
	if len(codes) > 0 {
		if err := db.Where("code IN ?", codes).Find(&perms).Error; err != nil {
			return nil, err
		}
	}

	if err := db.Model(&role).Association("Permissions").Replace(perms); err != nil {
		return nil, err
	}
	role.Permissions = perms
	return &role, nil
}

func (r *roleRepository) GetPermissionsByRoleName(ctx context.Context, roleName string) ([]string, error) {
	role, err := r.FindByName(ctx, roleName)
	if err != nil {
		return nil, err
	}

	codes := make([]string, 0, len(role.Permissions))
	for _, p := range role.Permissions {
		codes = append(codes, p.Code)
	}
	return codes, nil
}
