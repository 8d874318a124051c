// Package client talks to the notes HTTP API.
package client

import (
	"birthday-notes-be/internal/dto"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const defaultTimeout = 10 * time.Second

// APIError is a non-2xx response. Message is the server's {message} text.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

type NotesClient struct {
	baseURL string
	timeout time.Duration
}

type Option func(*NotesClient)

func WithTimeout(d time.Duration) Option {
	return func(c *NotesClient) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// New returns a client for the API rooted at baseURL, e.g. http://localhost:3100.
func New(baseURL string, opts ...Option) *NotesClient {
	c := &NotesClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *NotesClient) List(ctx context.Context) ([]dto.NoteResponse, error) {
	var notes []dto.NoteResponse
	err := c.do(ctx, fiber.MethodGet, "/api/notes", nil, &notes)
	return notes, err
}

func (c *NotesClient) Download(ctx context.Context) ([]dto.DownloadNoteResponse, error) {
	var notes []dto.DownloadNoteResponse
	err := c.do(ctx, fiber.MethodGet, "/api/notes/download", nil, &notes)
	return notes, err
}

func (c *NotesClient) Create(ctx context.Context, message, signature string) (*dto.NoteResponse, error) {
	var note dto.NoteResponse
	err := c.do(ctx, fiber.MethodPost, "/api/notes", dto.CreateNoteRequest{Message: message, Signature: signature}, &note)
	if err != nil {
		return nil, err
	}
	return &note, nil
}

func (c *NotesClient) Get(ctx context.Context, id uuid.UUID) (*dto.NoteResponse, error) {
	var note dto.NoteResponse
	if err := c.do(ctx, fiber.MethodGet, "/api/notes/"+id.String(), nil, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

// Update sends only the non-nil fields.
func (c *NotesClient) Update(ctx context.Context, id uuid.UUID, message, signature *string) (*dto.NoteResponse, error) {
	var note dto.NoteResponse
	req := dto.UpdateNoteRequest{Message: message, Signature: signature}
	if err := c.do(ctx, fiber.MethodPut, "/api/notes/"+id.String(), req, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

// Delete returns the server's confirmation text.
func (c *NotesClient) Delete(ctx context.Context, id uuid.UUID) (string, error) {
	var res dto.MessageResponse
	if err := c.do(ctx, fiber.MethodDelete, "/api/notes/"+id.String(), nil, &res); err != nil {
		return "", err
	}
	return res.Message, nil
}

func (c *NotesClient) do(ctx context.Context, method, path string, body, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	agent := fiber.AcquireAgent()
	req := agent.Request()
	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	if err := agent.Parse(); err != nil {
		fiber.ReleaseAgent(agent)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}

	agent.Timeout(timeout)
	if body != nil {
		agent.JSON(body)
	}

	status, raw, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("%s %s: %w", method, path, errors.Join(errs...))
	}

	if status < 200 || status > 299 {
		apiErr := &APIError{Status: status}
		var msg dto.MessageResponse
		if err := json.Unmarshal(raw, &msg); err == nil && msg.Message != "" {
			apiErr.Message = msg.Message
		} else {
			apiErr.Message = strings.TrimSpace(string(raw))
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}
