package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"mdmportal/internal/model"
	"mdmportal/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// --- DTOs ---

type CreateRequestDTO struct {
	Title         string `json:"title" binding:"required"`
	Notes         string `json:"notes"`
	RequestStatus string `json:"request_status"`
}

// UpdateRequestDTO is a partial update; nil fields are left alone.
// Version, when sent, must equal the stored version.
type UpdateRequestDTO struct {
	Title         *string `json:"title"`
	Notes         *string `json:"notes"`
	RequestStatus *string `json:"request_status"`
	Status        *string `json:"status"`
	Version       *uint   `json:"version"`
}

type AssignSapRequest struct {
	SapItem string `json:"sap_item" binding:"required"`
}

type PostMessageRequest struct {
	Message string `json:"message" binding:"required"`
}

// MessagePublisher delivers stored chat messages to live subscribers.
type MessagePublisher interface {
	PublishMessage(ctx context.Context, msg model.ChatMessage) error
}

// --- Interface ---

type RequestService interface {
	List(ctx context.Context) ([]model.Request, error)
	Get(ctx context.Context, id uint) (*model.Request, error)
	Create(ctx context.Context, actor Actor, req CreateRequestDTO) (*model.Request, error)
	Update(ctx context.Context, actor Actor, id uint, req UpdateRequestDTO) (*model.Request, error)
	AssignSapItem(ctx context.Context, actor Actor, id uint, sapItem string) (*model.Request, error)
	Delete(ctx context.Context, actor Actor, id uint) error
	ListMessages(ctx context.Context, id uint) ([]model.ChatMessage, error)
	PostMessage(ctx context.Context, actor Actor, id uint, text string) (*model.ChatMessage, error)
}

type requestService struct {
	repo      repository.RequestRepository
	tx        repository.TransactionManager
	audit     AuditService
	publisher MessagePublisher
	log       logrus.FieldLogger
	now       func() time.Time
}

func NewRequestService(
	repo repository.RequestRepository,
	tx repository.TransactionManager,
	audit AuditService,
	publisher MessagePublisher,
	log logrus.FieldLogger,
) RequestService {
	return &requestService{repo: repo, tx: tx, audit: audit, publisher: publisher, log: log, now: time.Now}
}

// --- Implementation ---

func (s *requestService) List(ctx context.Context) ([]model.Request, error) {
	reqs, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch requests: %w", err)
	}
	if reqs == nil {
		reqs = []model.Request{}
	}
	return reqs, nil
}

func (s *requestService) Get(ctx context.Context, id uint) (*model.Request, error) {
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "request")
	}
	return req, nil
}

func (s *requestService) Create(ctx context.Context, actor Actor, dto CreateRequestDTO) (*model.Request, error) {
	priority := dto.RequestStatus
	if priority == "" {
		priority = model.PriorityMedium
	}
	if !model.ValidPriority(priority) {
		return nil, invalidf("invalid priority %q", priority)
	}

	req := &model.Request{
		Title:         strings.TrimSpace(dto.Title),
		Notes:         dto.Notes,
		RequestStatus: priority,
		Status:        model.StatusOpen,
		Version:       1,
	}
	req.Stamp(actor.String())

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Create(txCtx, req); err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		return s.audit.Record(txCtx, actor, model.ActionCreate, "request", fmt.Sprint(req.RequestID), dto)
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// CanClose reports whether role may set a request with the given SAP item to Closed.
func CanClose(role string, req *model.Request) bool {
	return role != model.RoleMDGT || req.HasSapItem()
}

func (s *requestService) Update(ctx context.Context, actor Actor, id uint, dto UpdateRequestDTO) (*model.Request, error) {
	fields := map[string]interface{}{"updatedby": actor.String()}
	action := model.ActionUpdate

	if dto.Title != nil {
		title := strings.TrimSpace(*dto.Title)
		if title == "" {
			return nil, invalidf("title must not be empty")
		}
		fields["title"] = title
	}
	if dto.Notes != nil {
		fields["notes"] = *dto.Notes
	}
	if dto.RequestStatus != nil {
		if !model.ValidPriority(*dto.RequestStatus) {
			return nil, invalidf("invalid priority %q", *dto.RequestStatus)
		}
		fields["request_status"] = *dto.RequestStatus
	}
	if dto.Status != nil {
		if !model.ValidStatus(*dto.Status) {
			return nil, invalidf("invalid status %q", *dto.Status)
		}
		fields["status"] = *dto.Status
	}

	var expected uint
	if dto.Version != nil {
		expected = *dto.Version
		if expected == 0 {
			return nil, invalidf("version must be positive")
		}
	}

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		current, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return notFoundOr(err, "request")
		}

		if dto.Status != nil && *dto.Status != current.Status {
			action = model.ActionChangeState
			if *dto.Status == model.StatusClosed && !CanClose(actor.Role, current) {
				return invalidf("an SAP item must be assigned before the request can be closed")
			}
		}

		if err := s.repo.Update(txCtx, id, expected, fields); err != nil {
			if errors.Is(err, repository.ErrStaleVersion) {
				return fmt.Errorf("%w: request was modified by someone else, reload and retry", ErrConflict)
			}
			return notFoundOr(err, "request")
		}
		return s.audit.Record(txCtx, actor, action, "request", fmt.Sprint(id), dto)
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, id)
}

func (s *requestService) AssignSapItem(ctx context.Context, actor Actor, id uint, sapItem string) (*model.Request, error) {
	if actor.Role != model.RoleMDGT && actor.Role != model.RoleAdmin {
		return nil, fmt.Errorf("%w: only MDGT or Admin can assign SAP items", ErrForbidden)
	}
	sapItem = strings.TrimSpace(sapItem)
	if sapItem == "" {
		return nil, invalidf("sap_item is required")
	}

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		fields := map[string]interface{}{"sap_item": sapItem, "updatedby": actor.String()}
		if err := s.repo.Update(txCtx, id, 0, fields); err != nil {
			return notFoundOr(err, "request")
		}
		return s.audit.Record(txCtx, actor, model.ActionAssignSap, "request", fmt.Sprint(id), map[string]string{"sap_item": sapItem})
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, id)
}

func (s *requestService) Delete(ctx context.Context, actor Actor, id uint) error {
	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Delete(txCtx, id); err != nil {
			return notFoundOr(err, "request")
		}
		return s.audit.Record(txCtx, actor, model.ActionDelete, "request", fmt.Sprint(id), nil)
	})
}

func (s *requestService) ListMessages(ctx context.Context, id uint) ([]model.ChatMessage, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	msgs, err := s.repo.ListMessages(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}
	if msgs == nil {
		msgs = []model.ChatMessage{}
	}
	return msgs, nil
}

// PostMessage stores a message and then hands it to the publisher.
// A publish failure is logged; the message is already stored.
func (s *requestService) PostMessage(ctx context.Context, actor Actor, id uint, text string) (*model.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, invalidf("message must not be empty")
	}
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	msg := &model.ChatMessage{
		ID:        uuid.New(),
		RequestID: id,
		Sender:    actor.String(),
		Message:   text,
		Timestamp: s.now().UTC(),
	}
	if err := s.repo.CreateMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to store message: %w", err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishMessage(ctx, *msg); err != nil {
			s.log.WithError(err).WithField("request_id", id).Warn("failed to publish chat message")
		}
	}
	return msg, nil
}
