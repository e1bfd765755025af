package service

import (
	"github.com/identra/identra/database"
	"github.com/identra/identra/database/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RoleService struct{}

// GetOrCreate resolves a role by name, creating it when absent. The insert
// and the lookup run as a single upsert so concurrent first-use of a role
// name cannot create duplicates.
func (s *RoleService) GetOrCreate(tx *gorm.DB, name string) (*model.Role, error) {
	role := &model.Role{
		Id:   uuid.NewString(),
		Name: name,
	}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(role).Error
	if err != nil {
		return nil, err
	}

	// The insert may have been a no-op; read the canonical row.
	if err := tx.Where("name = ?", name).First(role).Error; err != nil {
		return nil, err
	}
	return role, nil
}

// RolesForUser returns the role names a user belongs to, sorted by name.
func (s *RoleService) RolesForUser(tx *gorm.DB, userId string) ([]string, error) {
	var names []string
	err := tx.Model(&model.Role{}).
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ?", userId).
		Order("roles.name").
		Pluck("roles.name", &names).
		Error
	if err != nil {
		return nil, err
	}
	return names, nil
}

// AddToRole links a user to a role. Links are append-only.
func (s *RoleService) AddToRole(tx *gorm.DB, userId, roleId string) error {
	return tx.Create(&model.UserRole{UserId: userId, RoleId: roleId}).Error
}

func (s *RoleService) ListRoles() ([]model.Role, error) {
	db := database.GetDB()

	var roles []model.Role
	if err := db.Order("name ASC").Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}
