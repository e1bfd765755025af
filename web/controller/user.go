package controller

import (
	"errors"
	"net/http"
	"time"

	"github.com/identra/identra/config"
	"github.com/identra/identra/logger"
	"github.com/identra/identra/web/entity"
	"github.com/identra/identra/web/middleware"
	"github.com/identra/identra/web/service"
	"github.com/identra/identra/web/session"

	"github.com/gin-gonic/gin"
)

// RegisterForm is the registration request body. Every field is required.
type RegisterForm struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required"`
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
	Role      string `json:"role" binding:"required"`
}

// LoginForm is the login request body.
type LoginForm struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UsersController handles registration, login and session-bound profile
// retrieval under /users.
type UsersController struct {
	options config.IdentityOptions

	userService service.UserService
}

// NewUsersController creates the controller and registers its routes.
func NewUsersController(g *gin.RouterGroup, options config.IdentityOptions) *UsersController {
	a := &UsersController{
		options:     options,
		userService: service.UserService{Options: options},
	}
	a.initRouter(g)
	return a
}

func (a *UsersController) initRouter(g *gin.RouterGroup) {
	g = g.Group("/users")

	g.POST("/register", a.register)
	g.POST("/login", a.login)
	g.GET("/isauthenticated", a.isAuthenticated)

	auth := g.Group("")
	auth.Use(middleware.SessionAuth())
	auth.POST("/logout", a.logout)
	auth.GET("/getuserinfo", a.getUserInfo)
}

// register creates the user, get-or-creates the role and links the two.
func (a *UsersController) register(c *gin.Context) {
	var form RegisterForm
	if err := c.ShouldBindJSON(&form); err != nil {
		validationProblem(c, err)
		return
	}

	user, roles, err := a.userService.Register(form.Email, form.Password, form.FirstName, form.LastName, form.Role)
	if err != nil {
		var policyErr *service.PasswordPolicyError
		switch {
		case errors.Is(err, service.ErrUserExists):
			problem(c, http.StatusUnprocessableEntity, "User already exists")
		case errors.As(err, &policyErr):
			c.JSON(http.StatusBadRequest, entity.ValidationProblem{
				Errors: map[string][]string{"password": policyErr.Reasons},
			})
		default:
			internalError(c, "register user failed", err)
		}
		return
	}

	logger.Infof("%s registered, IP: %s", user.UserName, getRemoteIp(c))
	jsonMsg(c, "Registration successful", entity.NewUserInfo(user, roles))
}

// login verifies credentials and issues the persistent session cookie.
func (a *UsersController) login(c *gin.Context) {
	var form LoginForm
	if err := c.ShouldBindJSON(&form); err != nil {
		validationProblem(c, err)
		return
	}

	user, roles, err := a.userService.Authenticate(form.Email, form.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			problem(c, http.StatusUnprocessableEntity, "User not found")
		case errors.Is(err, service.ErrInvalidPassword):
			logger.Warningf("wrong password for %s, IP: %s", form.Email, getRemoteIp(c))
			problem(c, http.StatusUnprocessableEntity, "Invalid password")
		case errors.Is(err, service.ErrUserLockedOut):
			logger.Warningf("login attempt for locked out user %s, IP: %s", form.Email, getRemoteIp(c))
			problem(c, http.StatusUnprocessableEntity, "User is locked out")
		default:
			internalError(c, "login failed", err)
		}
		return
	}

	issuedAt := time.Now()
	principal := &session.Principal{
		UserID:        user.Id,
		UserName:      user.UserName,
		GivenName:     user.FirstName,
		Surname:       user.LastName,
		SecurityStamp: user.SecurityStamp,
		Roles:         roles,
		IssuedAt:      issuedAt,
		ExpiresAt:     issuedAt.Add(a.options.Cookie.MaxAge()),
	}
	if err := session.SetPrincipal(c, principal); err != nil {
		internalError(c, "save session failed", err)
		return
	}

	logger.Infof("%s logged in successfully, IP: %s", user.UserName, getRemoteIp(c))
	jsonMsg(c, "Login successful", entity.NewUserInfo(user, roles))
}

// logout clears the session cookie unconditionally.
func (a *UsersController) logout(c *gin.Context) {
	if p := middleware.Principal(c); p != nil {
		logger.Infof("%s logged out successfully", p.UserName)
	}
	if err := session.Clear(c); err != nil {
		logger.Warning("clear session on logout:", err)
	}
	c.Status(http.StatusOK)
}

// isAuthenticated reports whether the request carries a valid session. It
// replies with a bare JSON boolean and never touches the store.
func (a *UsersController) isAuthenticated(c *gin.Context) {
	c.JSON(http.StatusOK, session.IsAuthenticated(c))
}

// getUserInfo returns the profile of the session's user.
func (a *UsersController) getUserInfo(c *gin.Context) {
	p := middleware.Principal(c)

	user, roles, err := a.userService.GetUser(p.UserID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.Status(http.StatusNotFound)
			return
		}
		internalError(c, "get user info failed", err)
		return
	}

	c.JSON(http.StatusOK, entity.NewUserInfo(user, roles))
}
