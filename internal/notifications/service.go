package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vendorbridge/backoffice-backend/pkg/db/models"
	"github.com/vendorbridge/backoffice-backend/pkg/enums"
	pkgerrors "github.com/vendorbridge/backoffice-backend/pkg/errors"
	"github.com/vendorbridge/backoffice-backend/pkg/logger"
	"github.com/vendorbridge/backoffice-backend/pkg/types"
)

// Dispatcher delivers a notification through the external channel
// (email/Slack/SMS). Implementations live outside this core.
type Dispatcher interface {
	Dispatch(ctx context.Context, notification *models.Notification) error
}

// Service records notification rows and hands them to the dispatcher.
// Dispatch failure is recorded on the row and never returned to callers:
// the state transition that emitted the notification has already committed.
type Service interface {
	Emit(ctx context.Context, input EmitInput)
	ListForRecipient(ctx context.Context, recipientID uuid.UUID, limit int) ([]models.Notification, error)
}

// EmitInput describes one outbound notification.
type EmitInput struct {
	Kind           enums.NotificationKind
	RecipientType  string
	RecipientID    *uuid.UUID
	RecipientEmail *string
	Subject        string
	Payload        types.JSONMap
}

type service struct {
	repo       Repository
	dispatcher Dispatcher
	logg       *logger.Logger
	now        func() time.Time
}

// ServiceParams configure the notifications service.
type ServiceParams struct {
	Repo       Repository
	Dispatcher Dispatcher
	Logger     *logger.Logger
}

// NewService wires notification dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &service{
		repo:       params.Repo,
		dispatcher: params.Dispatcher,
		logg:       params.Logger,
		now:        time.Now,
	}, nil
}

func (s *service) Emit(ctx context.Context, input EmitInput) {
	notification := &models.Notification{
		Kind:           input.Kind,
		RecipientType:  input.RecipientType,
		RecipientID:    input.RecipientID,
		RecipientEmail: input.RecipientEmail,
		Subject:        input.Subject,
		Payload:        input.Payload,
		Status:         enums.NotificationStatusPending,
	}

	if err := s.repo.Create(ctx, notification); err != nil {
		s.logg.Error(ctx, "notification.record_failed", err)
		return
	}

	if s.dispatcher == nil {
		return
	}

	if err := s.dispatcher.Dispatch(ctx, notification); err != nil {
		if markErr := s.repo.MarkFailed(ctx, notification.ID, err.Error()); markErr != nil {
			s.logg.Error(ctx, "notification.mark_failed", markErr)
		}
		s.logg.Warn(s.logg.WithField(ctx, "notification_id", notification.ID.String()), "notification dispatch failed")
		return
	}

	if err := s.repo.MarkSent(ctx, notification.ID, s.now().UTC()); err != nil {
		s.logg.Error(ctx, "notification.mark_sent", err)
	}
}

func (s *service) ListForRecipient(ctx context.Context, recipientID uuid.UUID, limit int) ([]models.Notification, error) {
	if recipientID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "recipient id required")
	}
	rows, err := s.repo.ListByRecipient(ctx, recipientID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}
	return rows, nil
}
