package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Executor runs tool requests and renders short human-readable results for
// the model to ground its final reply on.
type Executor struct {
	registry Registry
	mailer   MailSender
	calendar *Calendar
	now      func() time.Time
}

func NewExecutor(registry Registry, mailer MailSender, calendar *Calendar) *Executor {
	return &Executor{
		registry: registry,
		mailer:   mailer,
		calendar: calendar,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Execute dispatches on the request's kind. Tool failures are returned as
// errors; the caller decides how to phrase them for the user.
func (e *Executor) Execute(ctx context.Context, req Request) (string, error) {
	switch req.Kind {
	case KindClients:
		if req.Clients == nil {
			return "", errors.New("missing client registry payload")
		}
		return e.runClients(ctx, *req.Clients)
	case KindEmail:
		if req.Email == nil {
			return "", errors.New("missing email payload")
		}
		return e.runEmail(ctx, *req.Email)
	case KindCalendar:
		if req.Calendar == nil {
			return "", errors.New("missing calendar payload")
		}
		return e.runCalendar(*req.Calendar)
	default:
		return "", fmt.Errorf("unknown tool %q", req.Kind)
	}
}

func (e *Executor) runClients(ctx context.Context, req ClientsRequest) (string, error) {
	switch strings.ToLower(req.Action) {
	case "get":
		if req.Name == "" {
			return "", errors.New("name is required for 'get'")
		}
		c, err := e.registry.Get(ctx, req.Name)
		if errors.Is(err, ErrClientNotFound) {
			return fmt.Sprintf("Client %q not found", req.Name), nil
		}
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Client %q: email=%s phone=%s notes=%s", c.Name, c.Email, c.Phone, c.Notes), nil
	case "add":
		if req.Name == "" || req.Email == "" {
			return "", errors.New("name and email are required for 'add'")
		}
		if err := e.registry.Add(ctx, Client{Name: req.Name, Email: req.Email, Phone: req.Phone, Notes: req.Notes}); err != nil {
			return "", err
		}
		return fmt.Sprintf("Client %q added successfully", req.Name), nil
	case "update":
		if req.Name == "" {
			return "", errors.New("name is required for 'update'")
		}
		err := e.registry.Update(ctx, Client{Name: req.Name, Email: req.Email, Phone: req.Phone, Notes: req.Notes})
		if errors.Is(err, ErrClientNotFound) {
			return fmt.Sprintf("Client %q not found", req.Name), nil
		}
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Client %q updated successfully", req.Name), nil
	case "list":
		clients, err := e.registry.List(ctx)
		if err != nil {
			return "", err
		}
		if len(clients) == 0 {
			return "No clients in the registry", nil
		}
		return fmt.Sprintf("Found %d clients in the registry", len(clients)), nil
	default:
		return "", fmt.Errorf("unknown client registry action %q", req.Action)
	}
}

func (e *Executor) runEmail(ctx context.Context, req EmailRequest) (string, error) {
	if err := e.mailer.Send(ctx, req.To, req.Subject, req.Body); err != nil {
		return "", err
	}
	return fmt.Sprintf("Email sent to %s", req.To), nil
}

func (e *Executor) runCalendar(req CalendarRequest) (string, error) {
	switch strings.ToLower(req.Action) {
	case "create":
		start, err := time.Parse(time.RFC3339, req.StartTime)
		if err != nil {
			return "", fmt.Errorf("parse start_time: %w", err)
		}
		end := start.Add(time.Hour)
		if req.EndTime != "" {
			end, err = time.Parse(time.RFC3339, req.EndTime)
			if err != nil {
				return "", fmt.Errorf("parse end_time: %w", err)
			}
		}
		ev, err := e.calendar.Create(req.Title, start, end)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Event %q created for %s", ev.Title, ev.Start.Format(time.RFC3339)), nil
	case "list":
		events, err := e.calendar.Upcoming(e.now(), 10)
		if err != nil {
			return "", err
		}
		if len(events) == 0 {
			return "No upcoming events", nil
		}
		var b strings.Builder
		fmt.Fprintf(&b, "Found %d upcoming events:", len(events))
		for _, ev := range events {
			fmt.Fprintf(&b, "\n- %s at %s", ev.Title, ev.Start.Format(time.RFC3339))
		}
		return b.String(), nil
	default:
		return "", fmt.Errorf("unknown calendar action %q", req.Action)
	}
}
