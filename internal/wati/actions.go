package wati

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Action names a provider operation the proxy is allowed to call.
type Action string

const (
	GetContacts         Action = "getContacts"
	AddContact          Action = "addContact"
	SendTemplateMessage Action = "sendTemplateMessage"
	SendSessionMessage  Action = "sendSessionMessage"
	GetMessageTemplates Action = "getMessageTemplates"
	UploadMedia         Action = "uploadMedia"
)

var (
	ErrInvalidAction  = errors.New("invalid action")
	ErrInvalidPayload = errors.New("invalid payload")
)

// bodyKind says how the outbound body is built from the caller's payload.
type bodyKind int

const (
	bodyNone bodyKind = iota
	bodyVerbatim
	bodySessionMessage
)

type route struct {
	method string
	path   string
	body   bodyKind
}

var routes = map[Action]route{
	GetContacts:         {http.MethodGet, "/api/v1/getContacts", bodyNone},
	AddContact:          {http.MethodPost, "/api/v1/addContact", bodyVerbatim},
	SendTemplateMessage: {http.MethodPost, "/api/v1/sendTemplateMessage", bodyVerbatim},
	SendSessionMessage:  {http.MethodPost, "/api/v1/sendSessionMessage/", bodySessionMessage},
	GetMessageTemplates: {http.MethodGet, "/api/v1/getMessageTemplates", bodyNone},
	UploadMedia:         {http.MethodPost, "/api/v1/uploadMedia", bodyVerbatim},
}

// Actions returns every supported action.
func Actions() []Action {
	return []Action{GetContacts, AddContact, SendTemplateMessage, SendSessionMessage, GetMessageTemplates, UploadMedia}
}

// Request is a resolved provider call. Body is nil when nothing is sent.
type Request struct {
	Action Action
	Method string
	Path   string
	Body   json.RawMessage
}

type sessionMessagePayload struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// Resolve maps an action name and its opaque payload to the provider request.
func Resolve(action string, payload json.RawMessage) (Request, error) {
	a := Action(action)
	r, ok := routes[a]
	if !ok {
		return Request{}, fmt.Errorf("%w: %s", ErrInvalidAction, action)
	}

	req := Request{Action: a, Method: r.method, Path: r.path}
	switch r.body {
	case bodyVerbatim:
		// absent or null data sends no body at all
		if trimmed := bytes.TrimSpace(payload); len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null")) {
			req.Body = payload
		}
	case bodySessionMessage:
		var p sessionMessagePayload
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &p); err != nil {
				return Request{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
			}
		}
		if strings.TrimSpace(p.Phone) == "" {
			return Request{}, fmt.Errorf("%w: phone is required", ErrInvalidPayload)
		}
		body, err := json.Marshal(map[string]string{"messageText": p.Message})
		if err != nil {
			return Request{}, err
		}
		req.Path += url.PathEscape(p.Phone)
		req.Body = body
	}
	return req, nil
}
