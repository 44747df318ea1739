package auth

import (
	"fmt"
	"strings"
)

type Role string

const (
	RoleStudent  Role = "student"
	RoleLecturer Role = "lecturer"
	RoleStaff    Role = "staff"
	RoleAdmin    Role = "admin"
)

// ParseRole accepts the canonical role names and the legacy Indonesian ones.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "student", "mahasiswa":
		return RoleStudent, nil
	case "lecturer", "dosen":
		return RoleLecturer, nil
	case "staff", "petugas":
		return RoleStaff, nil
	case "admin":
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("unknown role: %s", s)
	}
}

// Principal is the authenticated caller.
type Principal struct {
	UserID string `json:"userId"`
	Role   Role   `json:"role"`
}

// CanManage reports whether p may approve, reject, complete and log usage.
func (p Principal) CanManage() bool {
	return p.Role == RoleStaff || p.Role == RoleAdmin
}
