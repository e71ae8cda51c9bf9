package middleware

import (
	"net/http"

	"fulfillment-service/internal/domain/entities"

	"github.com/gin-gonic/gin"
)

// 资源
const (
	ResourceProducts   = "products"
	ResourceTasks      = "tasks"
	ResourceHistory    = "history"
	ResourceActivities = "activities"
	ResourceUsers      = "users"
)

// 操作
const (
	ActionList    = "list"
	ActionCreate  = "create"
	ActionUpdate  = "update"
	ActionDelete  = "delete"
	ActionShip    = "ship"
	ActionArchive = "archive"
	ActionExport  = "export"
)

// rolePermissions 非管理员角色的权限表，管理员拥有所有权限
var rolePermissions = map[string]map[string][]string{
	entities.RoleSales: {
		ResourceProducts:   {ActionList},
		ResourceTasks:      {ActionList, ActionCreate, ActionUpdate},
		ResourceHistory:    {ActionList},
		ResourceActivities: {ActionList, ActionCreate},
	},
	entities.RoleWarehouse: {
		ResourceProducts:   {ActionList, ActionCreate, ActionUpdate},
		ResourceTasks:      {ActionList, ActionUpdate, ActionShip, ActionArchive},
		ResourceHistory:    {ActionList, ActionCreate, ActionExport},
		ResourceActivities: {ActionList, ActionCreate},
	},
}

// HasPermission 角色是否拥有资源上的操作权限
func HasPermission(role, resource, action string) bool {
	if role == entities.RoleAdmin {
		return true
	}
	for _, a := range rolePermissions[role][resource] {
		if a == action {
			return true
		}
	}
	return false
}

// PermissionMiddleware 基于资源和操作的权限检查中间件
func PermissionMiddleware(resource string, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get(ContextUserID); !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "未认证的用户"})
			return
		}

		role := c.GetString(ContextRole)
		if !HasPermission(role, resource, action) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "无操作权限"})
			return
		}

		c.Next()
	}
}
