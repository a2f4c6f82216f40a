package notifications

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fitlinehq/fitline-backend/pkg/db/models"
	pkgerrors "github.com/fitlinehq/fitline-backend/pkg/errors"
	"github.com/fitlinehq/fitline-backend/pkg/pagination"
)

// Page is one cursor page of notifications with the user's unread
// total alongside.
type Page struct {
	Notifications []models.Notification `json:"notifications"`
	UnreadCount   int64                 `json:"unread_count"`
	NextCursor    string                `json:"next_cursor,omitempty"`
}

// Service exposes the in-app notification feed. Rows are written by
// the event consumer, never by request handlers.
type Service interface {
	List(ctx context.Context, userID uuid.UUID, params pagination.Params) (Page, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "notification repo is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, params pagination.Params) (Page, error) {
	if userID == uuid.Nil {
		return Page{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return Page{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	var after *time.Time
	var afterID *uuid.UUID
	if cursor != nil {
		after, afterID = &cursor.CreatedAt, &cursor.ID
	}

	rows, err := s.repo.ListByUser(ctx, userID, pagination.LimitWithBuffer(params.Limit), after, afterID)
	if err != nil {
		return Page{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}
	unread, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return Page{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count unread notifications")
	}

	visible, next := pagination.Page(rows, params.Limit, func(row models.Notification) pagination.Cursor {
		return pagination.Cursor{CreatedAt: row.CreatedAt, ID: row.ID}
	})
	return Page{Notifications: visible, UnreadCount: unread, NextCursor: next}, nil
}

func (s *service) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	if userID == uuid.Nil || notificationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id and notification id are required")
	}
	err := s.repo.MarkRead(ctx, userID, notificationID, time.Now().UTC())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "notification not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	count, err := s.repo.MarkAllRead(ctx, userID, time.Now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return count, nil
}
