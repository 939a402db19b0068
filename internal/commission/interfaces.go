package commission

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendora-hq/fulfillment-backend/pkg/db/models"
	"github.com/vendora-hq/fulfillment-backend/pkg/pagination"
)

// ReportFilter narrows a commission report query.
type ReportFilter struct {
	VendorID *uuid.UUID
	From     *time.Time
	To       *time.Time
}

// RecordList is one page of commission records plus the cursor for the next.
type RecordList struct {
	Records    []models.CommissionRecord
	NextCursor *string
}

// Repository defines persistence operations for commission records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Insert(ctx context.Context, record *models.CommissionRecord) (*models.CommissionRecord, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.CommissionRecord, error)
	FindInitialByUnit(ctx context.Context, unitID uuid.UUID) (*models.CommissionRecord, error)
	List(ctx context.Context, filter ReportFilter, params pagination.Params) (*RecordList, error)
	UpdateSettlement(ctx context.Context, id uuid.UUID, status string) error
	FindVendor(ctx context.Context, vendorID uuid.UUID) (*models.Vendor, error)
}
