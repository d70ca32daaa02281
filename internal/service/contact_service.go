package service

import (
	"context"
	"fmt"
	"strings"

	"bintobloom/internal/model"
	"bintobloom/internal/repository"
)

type ContactRequest struct {
	Name    string `json:"name" binding:"required,max=100"`
	Email   string `json:"email" binding:"required,email"`
	Subject string `json:"subject" binding:"required,max=200"`
	Message string `json:"message" binding:"required,max=5000"`
}

type ContactResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Subject   string `json:"subject"`
	Message   string `json:"message"`
	IsRead    bool   `json:"is_read"`
	CreatedAt string `json:"created_at"`
}

// ContactService stores public contact-form messages for admins.
// Listing errors are returned to the caller, never replaced by an empty page.
type ContactService interface {
	Submit(ctx context.Context, req ContactRequest) (ContactResponse, error)
	List(ctx context.Context, page, limit int) ([]ContactResponse, int64, error)
	MarkRead(ctx context.Context, id string) error
}

type contactService struct {
	repo repository.ContactRepository
}

func NewContactService(repo repository.ContactRepository) ContactService {
	return &contactService{repo: repo}
}

func (s *contactService) Submit(ctx context.Context, req ContactRequest) (ContactResponse, error) {
	msg := &model.Contact{
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.ToLower(strings.TrimSpace(req.Email)),
		Subject: strings.TrimSpace(req.Subject),
		Message: strings.TrimSpace(req.Message),
	}
	if msg.Message == "" {
		return ContactResponse{}, validationErrorf("message cannot be empty")
	}
	if err := s.repo.Create(ctx, msg); err != nil {
		return ContactResponse{}, fmt.Errorf("failed to save message: %w", err)
	}
	return toContactResponse(msg), nil
}

func (s *contactService) List(ctx context.Context, page, limit int) ([]ContactResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	messages, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch messages: %w", err)
	}
	out := make([]ContactResponse, 0, len(messages))
	for i := range messages {
		out = append(out, toContactResponse(&messages[i]))
	}
	return out, total, nil
}

func (s *contactService) MarkRead(ctx context.Context, id string) error {
	messageID, err := parseID(id, "message")
	if err != nil {
		return err
	}
	if err := s.repo.MarkRead(ctx, messageID); err != nil {
		return lookup(err, "message")
	}
	return nil
}

func toContactResponse(c *model.Contact) ContactResponse {
	return ContactResponse{
		ID:        c.ID.String(),
		Name:      c.Name,
		Email:     c.Email,
		Subject:   c.Subject,
		Message:   c.Message,
		IsRead:    c.IsRead,
		CreatedAt: formatTime(c.CreatedAt),
	}
}
