// Package entity defines the wire-level response types of the identra API.
package entity

import (
	"github.com/identra/identra/database/model"
)

// Msg is the success envelope for register/login style operations.
type Msg struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Problem carries a business-rule failure as a short title, e.g.
// "User not found" or "Invalid password".
type Problem struct {
	Title string `json:"title"`
}

// ValidationProblem carries field-level validation messages keyed by the
// JSON field name.
type ValidationProblem struct {
	Errors map[string][]string `json:"errors"`
}

// UserInfo is the public projection of a user record plus its role names.
type UserInfo struct {
	Id        string   `json:"id"`
	UserName  string   `json:"userName"`
	Email     string   `json:"email"`
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Roles     []string `json:"roles"`
}

// NewUserInfo projects a user record and its roles for API responses.
func NewUserInfo(user *model.User, roles []string) UserInfo {
	if roles == nil {
		roles = []string{}
	}
	return UserInfo{
		Id:        user.Id,
		UserName:  user.UserName,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Roles:     roles,
	}
}
