package tools

import (
	"encoding/json"
	"strings"
)

// Kind enumerates the supported tools. Dispatch is a closed switch over this
// type, so adding a tool is a compile-time-checked change rather than a
// string lookup.
type Kind string

const (
	KindClients  Kind = "client_database"
	KindEmail    Kind = "email"
	KindCalendar Kind = "calendar"
)

// Request is a tagged tool invocation: exactly one payload field matching
// Kind is set.
type Request struct {
	Kind     Kind
	Clients  *ClientsRequest
	Email    *EmailRequest
	Calendar *CalendarRequest
}

// ClientsRequest mirrors the client registry operations.
type ClientsRequest struct {
	Action string
	Name   string
	Email  string
	Phone  string
	Notes  string
}

// EmailRequest asks for one outbound email.
type EmailRequest struct {
	To      string
	Subject string
	Body    string
}

// CalendarRequest asks for a calendar operation.
type CalendarRequest struct {
	Action    string
	Title     string
	StartTime string
	EndTime   string
}

// directive is the flat JSON shape the model emits when it wants a tool run.
type directive struct {
	Tool      string `json:"tool"`
	Action    string `json:"action"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Notes     string `json:"notes"`
	To        string `json:"to"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	Title     string `json:"title"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// ParseDirective recognizes a model reply that is a single JSON tool
// directive, optionally wrapped in a markdown fence. Plain text replies
// return false.
func ParseDirective(reply string) (Request, bool) {
	text := strings.TrimSpace(reply)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSpace(strings.TrimSuffix(text, "```"))
	}
	if !strings.HasPrefix(text, "{") {
		return Request{}, false
	}

	var d directive
	if err := json.Unmarshal([]byte(text), &d); err != nil || d.Tool == "" {
		return Request{}, false
	}

	switch Kind(d.Tool) {
	case KindClients:
		return Request{Kind: KindClients, Clients: &ClientsRequest{
			Action: d.Action, Name: d.Name, Email: d.Email, Phone: d.Phone, Notes: d.Notes,
		}}, true
	case KindEmail:
		return Request{Kind: KindEmail, Email: &EmailRequest{
			To: d.To, Subject: d.Subject, Body: d.Body,
		}}, true
	case KindCalendar:
		return Request{Kind: KindCalendar, Calendar: &CalendarRequest{
			Action: d.Action, Title: d.Title, StartTime: d.StartTime, EndTime: d.EndTime,
		}}, true
	default:
		return Request{}, false
	}
}
