package board

import (
	"encoding/json"
	"strings"
)

// DecodeMove accepts either a JSON string ("e2e4", "Nf3") or an object
// {"from":"e2","to":"e4","promotion":"q"} and returns a notation string for Game.Move.
func DecodeMove(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		return s, s != ""
	}
	var obj struct {
		From      string `json:"from"`
		To        string `json:"to"`
		Promotion string `json:"promotion"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "", false
	}
	from := strings.ToLower(strings.TrimSpace(obj.From))
	to := strings.ToLower(strings.TrimSpace(obj.To))
	if len(from) != 2 || len(to) != 2 {
		return "", false
	}
	return from + to + strings.ToLower(strings.TrimSpace(obj.Promotion)), true
}
