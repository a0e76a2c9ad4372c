package models

import "sort"

// Role authorization role
type Role struct {
	ID          int    `json:"id"`
	Name        string `json:"nombre"`
	Description string `json:"descripcion,omitempty"`
	Active      bool   `json:"estado"`
}

// Permission catalog entry; Code is what feature gates check (e.g. "CASE_CREATE").
type Permission struct {
	ID          int    `json:"id"`
	Code        string `json:"codigo"`
	Name        string `json:"nombre"`
	Description string `json:"descripcion,omitempty"`
	Category    string `json:"categoria,omitempty"`
}

// RolePermissionRequest body of POST/DELETE /Permission/role
type RolePermissionRequest struct {
	RoleID       int `json:"idRol"`
	PermissionID int `json:"idPermiso"`
}

// Permission codes gating client features.
const (
	PermCaseView          = "CASE_VIEW"
	PermCaseCreate        = "CASE_CREATE"
	PermCaseUpdate        = "CASE_UPDATE"
	PermEvolutionCreate   = "EVOLUTION_CREATE"
	PermPublicationCreate = "PUBLICATION_CREATE"
	PermCaseImport        = "CASE_IMPORT"
	PermPermissionManage  = "PERMISSION_MANAGE"
	PermQuizTake          = "QUIZ_TAKE"
)

// PermissionSet membership set of permission codes. Codes are case-sensitive.
type PermissionSet map[string]struct{}

// NewPermissionSet builds a set from codes.
func NewPermissionSet(codes ...string) PermissionSet {
	s := make(PermissionSet, len(codes))
	for _, c := range codes {
		if c != "" {
			s[c] = struct{}{}
		}
	}
	return s
}

// PermissionSetFrom builds a set from catalog entries.
func PermissionSetFrom(perms []Permission) PermissionSet {
	s := make(PermissionSet, len(perms))
	for _, p := range perms {
		if p.Code != "" {
			s[p.Code] = struct{}{}
		}
	}
	return s
}

// Has reports membership.
func (s PermissionSet) Has(code string) bool {
	_, ok := s[code]
	return ok
}

// Codes sorted list of codes.
func (s PermissionSet) Codes() []string {
	out := make([]string, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
