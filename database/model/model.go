// Package model defines the identity store records.
package model

import "time"

// User is an identity record. The username doubles as the email address.
type User struct {
	Id                string     `json:"id" gorm:"primaryKey;size:36"`
	UserName          string     `json:"userName" gorm:"uniqueIndex;not null"`
	Email             string     `json:"email" gorm:"not null"`
	FirstName         string     `json:"firstName"`
	LastName          string     `json:"lastName"`
	PasswordHash      string     `json:"-" gorm:"not null"`
	SecurityStamp     string     `json:"-" gorm:"not null"`
	AccessFailedCount int        `json:"-"`
	LockoutEnd        *time.Time `json:"-"`
	CreatedAt         time.Time  `json:"-"`
}

// Role is a named permission group, unique by name.
type Role struct {
	Id   string `json:"id" gorm:"primaryKey;size:36"`
	Name string `json:"name" gorm:"uniqueIndex;not null"`
}

// UserRole links users to roles. Rows are append-only on this code path.
type UserRole struct {
	UserId string `gorm:"primaryKey;size:36"`
	RoleId string `gorm:"primaryKey;size:36"`
}
