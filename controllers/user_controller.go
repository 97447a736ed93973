package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"parampara-foods/models"
	"parampara-foods/services"
)

type UserController struct {
	users *services.UserService
}

func NewUserController(users *services.UserService) *UserController {
	return &UserController{users: users}
}

func (ctl *UserController) CreateUser(c *gin.Context) {
	var req models.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := ctl.users.CreateLocalUser(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.NewUserResponse(user))
}

func (ctl *UserController) ListUsers(c *gin.Context) {
	users, err := ctl.users.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (ctl *UserController) GetUser(c *gin.Context) {
	user, err := ctl.users.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (ctl *UserController) UpdateUserRole(c *gin.Context) {
	var req models.UpdateUserRoleRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := ctl.users.UpdateUserRole(c.Request.Context(), c.Param("id"), req.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (ctl *UserController) DeleteUser(c *gin.Context) {
	if err := ctl.users.DeleteUser(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (ctl *UserController) SearchUsers(c *gin.Context) {
	limit, ok := limitQuery(c)
	if !ok {
		return
	}
	users, err := ctl.users.SearchUsers(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (ctl *UserController) EmailSuggestions(c *gin.Context) {
	limit, ok := limitQuery(c)
	if !ok {
		return
	}
	emails, err := ctl.users.EmailSuggestions(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, emails)
}

type RoleController struct {
	roles *services.RoleService
}

func NewRoleController(roles *services.RoleService) *RoleController {
	return &RoleController{roles: roles}
}

func (ctl *RoleController) ListRoles(c *gin.Context) {
	roles, err := ctl.roles.ListRoles(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, roles)
}

func (ctl *RoleController) ListActiveRoles(c *gin.Context) {
	roles, err := ctl.roles.ListActiveRoles(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, roles)
}

func (ctl *RoleController) GetRole(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	role, err := ctl.roles.GetRole(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, role)
}

func (ctl *RoleController) CreateRole(c *gin.Context) {
	var req models.RoleRequest
	if !bindJSON(c, &req) {
		return
	}
	role, err := ctl.roles.CreateRole(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, role)
}

func (ctl *RoleController) UpdateRole(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req models.RoleRequest
	if !bindJSON(c, &req) {
		return
	}
	role, err := ctl.roles.UpdateRole(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, role)
}

func (ctl *RoleController) DeleteRole(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := ctl.roles.DeleteRole(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
