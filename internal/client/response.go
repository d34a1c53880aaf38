package client

import (
	"bytes"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
	"github.com/wichananm65/user-admin/internal/user"
)

type response struct {
	status int
	isJSON bool
	body   []byte
}

// ack reads a success message from a JSON string, a JSON object with a
// message field, or a plain text body.
func (r *response) ack() (Ack, error) {
	trimmed := bytes.TrimSpace(r.body)
	if !r.isJSON || len(trimmed) == 0 {
		return Ack{Message: string(trimmed)}, nil
	}
	if !json.Valid(trimmed) {
		return Ack{}, invalidFormat(r.status, "body is not valid JSON")
	}

	var text string
	if err := json.Unmarshal(trimmed, &text); err == nil {
		return Ack{Message: text}, nil
	}

	var obj struct {
		Message *string `json:"message"`
		ID      *string `json:"id"`
	}
	if err := json.Unmarshal(trimmed, &obj); err == nil && (obj.Message != nil || obj.ID != nil) {
		ack := Ack{}
		if obj.Message != nil {
			ack.Message = *obj.Message
		}
		if obj.ID != nil {
			ack.ID = *obj.ID
		}
		return ack, nil
	}

	return Ack{Message: string(trimmed)}, nil
}

type errorBody struct {
	Message *string `json:"message"`
}

// httpError prefers the server's {message} body and falls back to the status.
func httpError(status int, raw []byte) *Error {
	var body errorBody
	if err := json.Unmarshal(raw, &body); err == nil && body.Message != nil && strings.TrimSpace(*body.Message) != "" {
		return &Error{Kind: KindHTTP, Message: *body.Message, Status: status}
	}

	msg := fmt.Sprintf("HTTP %d", status)
	if text := http.StatusText(status); text != "" {
		msg += ": " + text
	}
	return &Error{Kind: KindHTTP, Message: msg, Status: status}
}

func isJSONContentType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

type wireUser struct {
	ID        *string `json:"id"`
	Firstname *string `json:"firstname"`
	Lastname  *string `json:"lastname"`
	Age       *int    `json:"age"`
}

// decodeUser reports whether raw has the shape of a stored user: a non-empty
// string id, string names and an integer age.
func decodeUser(raw []byte) (user.User, bool) {
	var w wireUser
	if err := json.Unmarshal(raw, &w); err != nil {
		return user.User{}, false
	}
	if w.ID == nil || strings.TrimSpace(*w.ID) == "" || w.Firstname == nil || w.Lastname == nil || w.Age == nil {
		return user.User{}, false
	}
	return user.User{
		ID:        *w.ID,
		Firstname: *w.Firstname,
		Lastname:  *w.Lastname,
		Age:       *w.Age,
	}, true
}
