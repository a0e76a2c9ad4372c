package models

import "time"

// Notification in-app notification
type Notification struct {
	ID        int       `json:"id"`
	Title     string    `json:"titulo"`
	Message   string    `json:"mensaje"`
	Type      string    `json:"tipo"`
	CaseID    *int      `json:"idCaso,omitempty"`
	Read      bool      `json:"leida"`
	CreatedAt time.Time `json:"fechaCreacion"`
}

// DeviceTokenRequest body of POST /Notification/device-token
type DeviceTokenRequest struct {
	Token    string `json:"token"`
	Platform string `json:"plataforma"`
	DeviceID string `json:"idDispositivo"`
}

// Case event kinds. Push payloads reuse the first two as their "type".
const (
	EventNewCase     = "new_case"
	EventCaseUpdated = "case_updated"
	EventCaseDeleted = "case_deleted"
)

// CaseEvent real-time case change
type CaseEvent struct {
	Kind    string `json:"kind"`
	CaseID  int    `json:"caseId"`
	Message string `json:"message"`
}
