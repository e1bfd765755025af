package controller

import (
	"net/http"

	"github.com/identra/identra/web/middleware"
	"github.com/identra/identra/web/service"

	"github.com/gin-gonic/gin"
)

// ServerController exposes the admin surface under /panel/api: user listing,
// host status and buffered logs. Every route requires the admin role.
type ServerController struct {
	serverService service.ServerService
	userService   service.UserService
	roleService   service.RoleService
}

func NewServerController(g *gin.RouterGroup) *ServerController {
	a := &ServerController{}
	a.initRouter(g)
	return a
}

func (a *ServerController) initRouter(g *gin.RouterGroup) {
	g = g.Group("/panel/api")
	g.Use(middleware.SessionAuth(), middleware.RequireRole("admin"))

	g.GET("/users", a.users)
	g.GET("/roles", a.roles)
	g.GET("/server/status", a.status)
	g.GET("/server/logs", a.logs)
}

func (a *ServerController) users(c *gin.Context) {
	users, err := a.userService.ListUsers()
	if err != nil {
		internalError(c, "list users failed", err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (a *ServerController) roles(c *gin.Context) {
	roles, err := a.roleService.ListRoles()
	if err != nil {
		internalError(c, "list roles failed", err)
		return
	}
	c.JSON(http.StatusOK, roles)
}

func (a *ServerController) status(c *gin.Context) {
	c.JSON(http.StatusOK, a.serverService.GetStatus())
}

func (a *ServerController) logs(c *gin.Context) {
	count := c.DefaultQuery("count", "50")
	level := c.DefaultQuery("level", "info")
	c.JSON(http.StatusOK, a.serverService.GetLogs(count, level))
}
