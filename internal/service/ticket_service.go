package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/ignatzorin/academic-services-backend/internal/domain/valueobject"
	"github.com/ignatzorin/academic-services-backend/internal/models"
	"github.com/ignatzorin/academic-services-backend/internal/pkg/apperror"
	"github.com/ignatzorin/academic-services-backend/internal/validation"
)

// TicketRepository - хранилище обращений в поддержку.
type TicketRepository interface {
	Create(ctx context.Context, t *models.Ticket, message string) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Ticket, error)
	List(ctx context.Context, filter models.ListFilter) ([]models.Ticket, int, error)
	ListReplies(ctx context.Context, ticketID uuid.UUID) ([]models.Reply, error)
	AddReply(ctx context.Context, reply *models.Reply) (*models.Ticket, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status valueobject.TicketStatus) (*models.Ticket, error)
}

// RequestLookup ищет заявку, к которой привязывается обращение.
type RequestLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Request, error)
}

// TicketService - обращения в поддержку.
type TicketService struct {
	repo     TicketRepository
	requests RequestLookup
	effects  *sideEffects
}

// NewTicketService создаёт сервис обращений.
func NewTicketService(repo TicketRepository, requests RequestLookup, audit AuditStore, notifier Notifier) *TicketService {
	return &TicketService{
		repo:     repo,
		requests: requests,
		effects:  &sideEffects{audit: audit, notifier: notifier},
	}
}

// CreateTicketInput описывает новое обращение.
type CreateTicketInput struct {
	Title     string
	Category  string
	Priority  string
	Message   string
	RequestID *uuid.UUID
}

// Create открывает обращение с первым сообщением.
func (s *TicketService) Create(ctx context.Context, caller models.Caller, in CreateTicketInput) (*models.Ticket, error) {
	if err := requireActive(caller); err != nil {
		return nil, err
	}

	in.Title = strings.TrimSpace(in.Title)
	in.Message = strings.TrimSpace(in.Message)
	in.Category = strings.ToUpper(strings.TrimSpace(in.Category))
	in.Priority = strings.ToUpper(strings.TrimSpace(in.Priority))
	if in.Category == "" {
		in.Category = "GENERAL"
	}
	if in.Priority == "" {
		in.Priority = models.TicketPriorityMedium
	}

	if err := firstError(
		validation.ValidateRequired("тема", in.Title, validation.MinTicketTitleLength, validation.MaxTicketTitleLength),
		validation.ValidateRequired("сообщение", in.Message, validation.MinMessageLength, validation.MaxMessageLength),
	); err != nil {
		return nil, apperror.Validation(err)
	}
	if _, ok := models.ValidTicketCategories[in.Category]; !ok {
		return nil, apperror.New(apperror.ErrCodeValidation, "некорректная категория обращения")
	}
	if _, ok := models.ValidTicketPriorities[in.Priority]; !ok {
		return nil, apperror.New(apperror.ErrCodeValidation, "некорректный приоритет обращения")
	}

	if in.RequestID != nil {
		req, err := s.requests.GetByID(ctx, *in.RequestID)
		if err != nil {
			return nil, mapRepoErr(err)
		}
		if !caller.IsAdmin() && !req.IsOwnedBy(caller.UserID) {
			return nil, apperror.ErrNotOwner
		}
	}

	ticket := &models.Ticket{
		UserID:    caller.UserID,
		RequestID: in.RequestID,
		Title:     in.Title,
		Category:  in.Category,
		Priority:  in.Priority,
	}
	if err := s.repo.Create(ctx, ticket, in.Message); err != nil {
		return nil, mapRepoErr(err)
	}

	s.effects.record(ctx, caller, caller.UserID, models.EntityTicket, ticket.ID, EventTicketCreated, nil,
		map[string]any{"title": ticket.Title, "status": ticket.Status})
	s.effects.notifyAdmins(ctx, EventTicketCreated, map[string]any{
		"ticket_id": ticket.ID,
		"title":     ticket.Title,
		"priority":  ticket.Priority,
	})
	return ticket, nil
}

// Get возвращает обращение вместе с перепиской.
func (s *TicketService) Get(ctx context.Context, caller models.Caller, id uuid.UUID) (*models.Ticket, error) {
	ticket, err := s.load(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	replies, err := s.repo.ListReplies(ctx, ticket.ID)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	ticket.Replies = replies
	return ticket, nil
}

// List возвращает обращения: студенту свои, администратору все.
func (s *TicketService) List(ctx context.Context, caller models.Caller, filter models.ListFilter) (*models.Page[models.Ticket], error) {
	if filter.Status != "" {
		if _, err := valueobject.NewTicketStatus(filter.Status); err != nil {
			return nil, err
		}
	}
	scopeToCaller(caller, &filter)

	tickets, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return &models.Page[models.Ticket]{Items: tickets, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

// Reply добавляет сообщение в обращение от владельца или администратора.
func (s *TicketService) Reply(ctx context.Context, caller models.Caller, ticketID uuid.UUID, content string) (*models.Reply, error) {
	if err := requireActive(caller); err != nil {
		return nil, err
	}

	content = strings.TrimSpace(content)
	if err := validation.ValidateRequired("сообщение", content, validation.MinMessageLength, validation.MaxMessageLength); err != nil {
		return nil, apperror.Validation(err)
	}

	current, err := s.load(ctx, caller, ticketID)
	if err != nil {
		return nil, err
	}
	if current.Status == valueobject.TicketStatusClosed {
		return nil, apperror.InvalidState("обращение закрыто")
	}

	reply := &models.Reply{
		TicketID: current.ID,
		UserID:   caller.UserID,
		Content:  content,
		IsAdmin:  caller.IsAdmin(),
	}
	ticket, err := s.repo.AddReply(ctx, reply)
	if err != nil {
		return nil, mapRepoErr(err)
	}

	if reply.IsAdmin {
		if ticket.UserID != caller.UserID {
			s.effects.notify(ctx, ticket.UserID, EventTicketReplied, map[string]any{
				"ticket_id": ticket.ID,
				"status":    ticket.Status,
			})
		}
	} else {
		s.effects.notifyAdmins(ctx, EventTicketReplied, map[string]any{"ticket_id": ticket.ID})
	}
	return reply, nil
}

// UpdateStatus меняет статус обращения. Только для администратора.
func (s *TicketService) UpdateStatus(ctx context.Context, caller models.Caller, ticketID uuid.UUID, status string) (*models.Ticket, error) {
	if err := requireActive(caller); err != nil {
		return nil, err
	}
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	next, err := valueobject.NewTicketStatus(strings.ToUpper(strings.TrimSpace(status)))
	if err != nil {
		return nil, err
	}

	current, err := s.repo.GetByID(ctx, ticketID)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	ticket, err := s.repo.UpdateStatus(ctx, ticketID, next)
	if err != nil {
		return nil, mapRepoErr(err)
	}

	s.effects.record(ctx, caller, ticket.UserID, models.EntityTicket, ticket.ID, EventTicketStatus,
		map[string]any{"status": current.Status}, map[string]any{"status": ticket.Status})
	s.effects.notify(ctx, ticket.UserID, EventTicketStatus, map[string]any{
		"ticket_id": ticket.ID,
		"status":    ticket.Status,
	})
	return ticket, nil
}

func (s *TicketService) load(ctx context.Context, caller models.Caller, id uuid.UUID) (*models.Ticket, error) {
	ticket, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	if !caller.IsAdmin() && ticket.UserID != caller.UserID {
		return nil, apperror.ErrNotOwner
	}
	return ticket, nil
}
