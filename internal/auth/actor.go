package auth

import (
	"slices"

	"github.com/google/uuid"
	"github.com/oficina-avance/oficina/internal/models"
)

// Actor - проверенный исполнитель команды. Передаётся в каждую
// операцию сервиса явно.
type Actor struct {
	UserID uuid.UUID
	Role   models.Role
}

// IsZero сообщает, что исполнитель не определён.
func (a Actor) IsZero() bool {
	return a.UserID == uuid.Nil || a.Role == ""
}

// HasRole сообщает, входит ли роль исполнителя в список.
func (a Actor) HasRole(roles ...models.Role) bool {
	return slices.Contains(roles, a.Role)
}

// Группы ролей для разграничения доступа к маршрутам.
var (
	// ElevatedRoles могут переоткрывать закрытые заказ-наряды.
	ElevatedRoles = []models.Role{models.RoleSysAdmin, models.RoleAdmin, models.RoleManager}
	// ClientEditors редактируют клиентов.
	ClientEditors = []models.Role{models.RoleSysAdmin, models.RoleAdmin, models.RoleManager,
		models.RoleAdminAux, models.RoleReceptionist}
	// VehicleEditors редактируют автомобили.
	VehicleEditors = []models.Role{models.RoleSysAdmin, models.RoleAdmin, models.RoleManager,
		models.RoleMechanic, models.RoleReceptionist}
	// WorkOrderOpeners открывают заказ-наряды.
	WorkOrderOpeners = []models.Role{models.RoleSysAdmin, models.RoleAdmin, models.RoleManager,
		models.RoleReceptionist}
	// WorkOrderEditors меняют статус, детали и позиции заказ-наряда.
	WorkOrderEditors = []models.Role{models.RoleSysAdmin, models.RoleAdmin, models.RoleManager,
		models.RoleMechanic}
)
