package realtime

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/Tom21-xd/Uceva-sub002/internal/models"
)

// recordSeparator terminates every JSON hub protocol message.
const recordSeparator = 0x1E

// Hub protocol message types.
const (
	msgInvocation       = 1
	msgStreamItem       = 2
	msgCompletion       = 3
	msgStreamInvocation = 4
	msgCancelInvocation = 5
	msgPing             = 6
	msgClose            = 7
)

// Hub method names pushed by the backend.
const (
	TargetNewCase     = "NewCase"
	TargetCaseUpdated = "CaseUpdated"
	TargetCaseDeleted = "CaseDeleted"
)

var targetKinds = map[string]string{
	TargetNewCase:     models.EventNewCase,
	TargetCaseUpdated: models.EventCaseUpdated,
	TargetCaseDeleted: models.EventCaseDeleted,
}

type frame struct {
	Type           int               `json:"type"`
	Target         string            `json:"target,omitempty"`
	InvocationID   string            `json:"invocationId,omitempty"`
	Arguments      []json.RawMessage `json:"arguments,omitempty"`
	Error          string            `json:"error,omitempty"`
	AllowReconnect bool              `json:"allowReconnect,omitempty"`
}

type handshakeResponse struct {
	Error string `json:"error,omitempty"`
}

var (
	handshakeRequest = encodeRecord(map[string]any{"protocol": "json", "version": 1})
	pingRecord       = encodeRecord(frame{Type: msgPing})
)

func encodeRecord(v any) []byte {
	raw, _ := json.Marshal(v)
	return append(raw, recordSeparator)
}

// splitRecords splits a websocket message into its records.
func splitRecords(data []byte) [][]byte {
	var out [][]byte
	for _, rec := range bytes.Split(data, []byte{recordSeparator}) {
		if len(bytes.TrimSpace(rec)) > 0 {
			out = append(out, rec)
		}
	}
	return out
}

// eventPayload argument object shapes seen from the backend.
type eventPayload struct {
	CaseID      *int   `json:"caseId"`
	IDCaso      *int   `json:"idCaso"`
	ID          *int   `json:"id"`
	Message     string `json:"message"`
	Mensaje     string `json:"mensaje"`
	Descripcion string `json:"descripcion"`
}

// decodeCaseEvent converts an invocation into a case event. Arguments are
// either (caseId, message) or a single object carrying both.
func decodeCaseEvent(f frame) (models.CaseEvent, error) {
	kind, ok := targetKinds[f.Target]
	if !ok {
		return models.CaseEvent{}, fmt.Errorf("unknown hub target %q", f.Target)
	}
	ev := models.CaseEvent{Kind: kind}
	if len(f.Arguments) == 0 {
		return ev, fmt.Errorf("%s: no arguments", f.Target)
	}

	first := bytes.TrimSpace(f.Arguments[0])
	if len(first) > 0 && first[0] == '{' {
		var p eventPayload
		if err := json.Unmarshal(first, &p); err != nil {
			return ev, fmt.Errorf("%s: decode payload: %w", f.Target, err)
		}
		switch {
		case p.CaseID != nil:
			ev.CaseID = *p.CaseID
		case p.IDCaso != nil:
			ev.CaseID = *p.IDCaso
		case p.ID != nil:
			ev.CaseID = *p.ID
		default:
			return ev, fmt.Errorf("%s: payload without case id", f.Target)
		}
		ev.Message = firstNonEmpty(p.Message, p.Mensaje, p.Descripcion)
		return ev, nil
	}

	id, err := decodeID(first)
	if err != nil {
		return ev, fmt.Errorf("%s: case id: %w", f.Target, err)
	}
	ev.CaseID = id
	if len(f.Arguments) > 1 {
		_ = json.Unmarshal(f.Arguments[1], &ev.Message)
	}
	return ev, nil
}

// decodeID accepts a JSON number or a numeric string.
func decodeID(raw json.RawMessage) (int, error) {
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, err
	}
	return strconv.Atoi(s)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
