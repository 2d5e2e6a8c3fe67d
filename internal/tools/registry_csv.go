package tools

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var csvHeader = []string{"name", "email", "phone", "notes"}

// CSVRegistry keeps the client registry in a single CSV file, created on
// first use with the expected header.
type CSVRegistry struct {
	path string
	mu   sync.Mutex
}

func NewCSVRegistry(path string) (*CSVRegistry, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("csv registry path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create registry dir: %w", err)
	}
	return &CSVRegistry{path: path}, nil
}

func (r *CSVRegistry) Get(_ context.Context, name string) (Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	clients, err := r.readAll()
	if err != nil {
		return Client{}, err
	}
	for _, c := range clients {
		if strings.EqualFold(c.Name, name) {
			return c, nil
		}
	}
	return Client{}, ErrClientNotFound
}

func (r *CSVRegistry) Add(_ context.Context, c Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clients, err := r.readAll()
	if err != nil {
		return err
	}
	clients = append(clients, c)
	return r.writeAll(clients)
}

func (r *CSVRegistry) Update(_ context.Context, c Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clients, err := r.readAll()
	if err != nil {
		return err
	}
	found := false
	for i := range clients {
		if !strings.EqualFold(clients[i].Name, c.Name) {
			continue
		}
		found = true
		if c.Email != "" {
			clients[i].Email = c.Email
		}
		if c.Phone != "" {
			clients[i].Phone = c.Phone
		}
		if c.Notes != "" {
			clients[i].Notes = c.Notes
		}
	}
	if !found {
		return ErrClientNotFound
	}
	return r.writeAll(clients)
}

func (r *CSVRegistry) List(_ context.Context) ([]Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.readAll()
}

func (r *CSVRegistry) Close() error { return nil }

func (r *CSVRegistry) readAll() ([]Client, error) {
	f, err := os.Open(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open registry: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read registry: %w", err)
	}

	var clients []Client
	for i, row := range rows {
		if i == 0 || len(row) < 4 {
			continue
		}
		clients = append(clients, Client{Name: row[0], Email: row[1], Phone: row[2], Notes: row[3]})
	}
	return clients, nil
}

func (r *CSVRegistry) writeAll(clients []Client) error {
	tmp, err := os.CreateTemp(filepath.Dir(r.path), ".clients-*")
	if err != nil {
		return fmt.Errorf("create temp registry: %w", err)
	}

	w := csv.NewWriter(tmp)
	rows := [][]string{csvHeader}
	for _, c := range clients {
		rows = append(rows, []string{c.Name, c.Email, c.Phone, c.Notes})
	}
	if err := w.WriteAll(rows); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write registry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close registry: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("promote registry: %w", err)
	}
	return nil
}
