package response

import "encoding/json"

// ErrorBody is the error envelope returned with non-success statuses:
// {"error": {"message": "...", "type": "...", "code": "..."}}.
type ErrorBody struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type,omitempty"`
		Code    any    `json:"code,omitempty"`
	} `json:"error"`
}

// ErrorMessage extracts error.message from body. The second result is false
// when the body is not an error envelope.
func ErrorMessage(body []byte) (string, bool) {
	var eb ErrorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return "", false
	}
	if eb.Error.Message == "" {
		return "", false
	}
	return eb.Error.Message, true
}
