package push

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/Tom21-xd/Uceva-sub002/internal/models"
)

// Message incoming push notification. Type selects the handler.
type Message struct {
	Type  string
	Title string
	Body  string
	Data  map[string]string
}

// CaseID the case referenced by the message, if any.
func (m Message) CaseID() (int, bool) {
	for _, k := range []string{"caseId", "idCaso", "case_id"} {
		if v, ok := m.Data[k]; ok {
			id, err := strconv.Atoi(v)
			return id, err == nil
		}
	}
	return 0, false
}

// CaseEvent converts the message into a case event.
func (m Message) CaseEvent() (models.CaseEvent, bool) {
	id, ok := m.CaseID()
	if !ok {
		return models.CaseEvent{}, false
	}
	return models.CaseEvent{Kind: m.Type, CaseID: id, Message: m.Body}, true
}

// Notification converts the message into an inbox entry.
func (m Message) Notification() models.Notification {
	n := models.Notification{Title: m.Title, Message: m.Body, Type: m.Type}
	if id, ok := m.CaseID(); ok {
		n.CaseID = &id
	}
	return n
}

type wireNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type wireMessage struct {
	Notification *wireNotification `json:"notification"`
	Data         map[string]any    `json:"data"`
}

// ParseMessage decodes either the messaging-service shape
// {"notification":{...},"data":{...}} or a flat object of fields.
func ParseMessage(payload []byte) (Message, error) {
	var w wireMessage
	if err := json.Unmarshal(payload, &w); err != nil {
		return Message{}, fmt.Errorf("decode push payload: %w", err)
	}
	fields := w.Data
	if w.Notification == nil && fields == nil {
		if err := json.Unmarshal(payload, &fields); err != nil {
			return Message{}, fmt.Errorf("decode push payload: %w", err)
		}
	}

	m := Message{Data: make(map[string]string, len(fields))}
	for k, v := range fields {
		switch val := v.(type) {
		case string:
			m.Data[k] = val
		case nil:
		default:
			raw, _ := json.Marshal(val)
			m.Data[k] = string(raw)
		}
	}
	m.Type = m.Data["type"]
	m.Title = firstOf(m.Data, "title", "titulo")
	m.Body = firstOf(m.Data, "body", "message", "mensaje")
	if w.Notification != nil {
		if w.Notification.Title != "" {
			m.Title = w.Notification.Title
		}
		if w.Notification.Body != "" {
			m.Body = w.Notification.Body
		}
	}
	return m, nil
}

func firstOf(data map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := data[k]; v != "" {
			return v
		}
	}
	return ""
}
