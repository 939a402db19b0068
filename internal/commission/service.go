package commission

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendora-hq/fulfillment-backend/pkg/enums"
	pkgerrors "github.com/vendora-hq/fulfillment-backend/pkg/errors"
	"github.com/vendora-hq/fulfillment-backend/pkg/outbox"
	"github.com/vendora-hq/fulfillment-backend/pkg/pagination"
)

const readRetryBackoff = 100 * time.Millisecond

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service exposes commission reporting and settlement operations.
type Service interface {
	Report(ctx context.Context, input ReportInput) (*RecordList, error)
	MarkSettled(ctx context.Context, input SettleInput) error
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
}

// ReportInput scopes a commission report to the requesting actor.
type ReportInput struct {
	ActorType enums.ActorType
	ActorID   uuid.UUID
	VendorID  *uuid.UUID
	From      *time.Time
	To        *time.Time
	Limit     int
	Cursor    string
}

// SettleInput marks one commission record as paid out.
type SettleInput struct {
	RecordID  uuid.UUID
	ActorType enums.ActorType
	ActorID   uuid.UUID
}

// CommissionSettledEvent is emitted when a record flips to paid.
type CommissionSettledEvent struct {
	RecordID uuid.UUID `json:"record_id"`
	OrderID  uuid.UUID `json:"order_id"`
	VendorID uuid.UUID `json:"vendor_id"`
}

// NewService builds a commission service with the required dependencies.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("commission repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, tx: tx, outbox: outboxSvc}, nil
}

func (s *service) Report(ctx context.Context, input ReportInput) (*RecordList, error) {
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}

	filter := ReportFilter{From: input.From, To: input.To}
	switch input.ActorType {
	case enums.ActorTypeAdmin:
		filter.VendorID = input.VendorID
	case enums.ActorTypeVendor:
		// Vendors only ever see their own liabilities.
		vendorID := input.ActorID
		filter.VendorID = &vendorID
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "commission report restricted to admin and vendors")
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "date range end precedes start")
	}

	params := pagination.Params{Limit: input.Limit, Cursor: input.Cursor}
	list, err := s.repo.List(ctx, filter, params)
	if err != nil {
		time.Sleep(readRetryBackoff)
		list, err = s.repo.List(ctx, filter, params)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list commission records")
	}
	return list, nil
}

func (s *service) MarkSettled(ctx context.Context, input SettleInput) error {
	if input.RecordID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "commission record id required")
	}
	if input.ActorType != enums.ActorTypeAdmin {
		return pkgerrors.New(pkgerrors.CodeForbidden, "settlement restricted to admin")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		record, err := repo.FindByID(ctx, input.RecordID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "commission record not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load commission record")
		}
		if record.SettlementStatus == enums.SettlementStatusPaid {
			return nil
		}

		if err := repo.UpdateSettlement(ctx, record.ID, enums.SettlementStatusPaid.String()); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update settlement status")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventCommissionSettled,
			AggregateType: enums.AggregateCommission,
			AggregateID:   record.ID,
			Version:       1,
			Actor: &outbox.ActorRef{
				ActorID:   input.ActorID,
				ActorType: input.ActorType,
			},
			Data: CommissionSettledEvent{
				RecordID: record.ID,
				OrderID:  record.OrderID,
				VendorID: record.VendorID,
			},
		})
	})
}
