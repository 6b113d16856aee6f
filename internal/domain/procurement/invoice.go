package procurement

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/erp/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// InvoiceStatus is the lifecycle status of a supplier invoice.
type InvoiceStatus string

const (
	InvoiceStatusUploaded  InvoiceStatus = "UPLOADED"
	InvoiceStatusMatched   InvoiceStatus = "MATCHED"
	InvoiceStatusException InvoiceStatus = "EXCEPTION"
	InvoiceStatusDisputed  InvoiceStatus = "DISPUTED"
	InvoiceStatusApproved  InvoiceStatus = "APPROVED"
	InvoiceStatusPaid      InvoiceStatus = "PAID"
)

func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusUploaded, InvoiceStatusMatched, InvoiceStatusException,
		InvoiceStatusDisputed, InvoiceStatusApproved, InvoiceStatusPaid:
		return true
	}
	return false
}

// OcrStatus tracks the outcome of the background OCR job (§4.9).
type OcrStatus string

const (
	OcrStatusPending           OcrStatus = "PENDING"
	OcrStatusComplete          OcrStatus = "COMPLETE"
	OcrStatusLowConfidence     OcrStatus = "LOW_CONFIDENCE"
	OcrStatusUnsupportedFormat OcrStatus = "UNSUPPORTED_FORMAT"
	OcrStatusFailed            OcrStatus = "FAILED"
	OcrStatusSkipped           OcrStatus = "SKIPPED"
)

// MatchStatus is the outcome recorded on the Invoice by the three-way matcher caller.
type MatchStatus string

const (
	MatchStatusPass     MatchStatus = "PASS"
	MatchStatusFail     MatchStatus = "FAIL"
	MatchStatusOverride MatchStatus = "OVERRIDE"
)

// InvoiceLineItem is a single billed line on a supplier invoice.
type InvoiceLineItem struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key"`
	InvoiceID      uuid.UUID `gorm:"type:uuid;not null;index"`
	Description    string    `gorm:"type:varchar(500);not null"`
	Quantity       int64     `gorm:"not null"`
	UnitPriceCents int64     `gorm:"not null"`
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
}

func (InvoiceLineItem) TableName() string {
	return "invoice_line_items"
}

// NewInvoiceLineItem creates a new invoice line item.
func NewInvoiceLineItem(invoiceID uuid.UUID, description string, quantity, unitPriceCents int64) (*InvoiceLineItem, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, shared.NewDomainError("INVALID_DESCRIPTION", "line description cannot be empty")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "quantity must be positive")
	}
	if unitPriceCents <= 0 {
		return nil, shared.NewDomainError("INVALID_PRICE", "unit price must be positive")
	}

	now := time.Now()
	return &InvoiceLineItem{
		ID:             uuid.New(),
		InvoiceID:      invoiceID,
		Description:    description,
		Quantity:       quantity,
		UnitPriceCents: unitPriceCents,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// AmountCents returns quantity * unit price for this line.
func (i *InvoiceLineItem) AmountCents() int64 {
	return i.Quantity * i.UnitPriceCents
}

// Invoice is the aggregate root for a supplier bill, optionally tied to a
// PO, reconciled against it by the three-way matcher before payment.
type Invoice struct {
	shared.TenantAggregateRoot
	InvoiceNumber     string            `gorm:"type:varchar(50);not null;uniqueIndex:idx_invoice_tenant_vendor_number,priority:2"`
	VendorID          uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:idx_invoice_tenant_vendor_number,priority:3"`
	PoID              *uuid.UUID        `gorm:"type:uuid;index"`
	Status            InvoiceStatus     `gorm:"type:varchar(20);not null;default:'UPLOADED'"`
	TotalCents        int64             `gorm:"not null;default:0"`
	Currency          string            `gorm:"type:varchar(3);not null;default:'USD'"`
	DocumentKey       string            `gorm:"type:varchar(500)"`
	OcrStatus         OcrStatus         `gorm:"type:varchar(20);not null;default:'PENDING'"`
	MatchStatus       MatchStatus       `gorm:"type:varchar(10)"`
	MatchExceptionsJSON string          `gorm:"column:match_exceptions;type:jsonb"`
	Items             []InvoiceLineItem `gorm:"foreignKey:InvoiceID;references:ID"`
	DisputeReason     string            `gorm:"type:varchar(500)"`
	ApprovedPaymentAt *time.Time
	PaidAt            *time.Time
}

func (Invoice) TableName() string {
	return "invoices"
}

// NewInvoice creates an invoice upload. invoiceNumber is unique per
// (tenant, vendor). poID is optional — an invoice may arrive unlinked and
// be associated to a PO later, though the common flow links it at creation.
func NewInvoice(tenantID uuid.UUID, invoiceNumber string, vendorID uuid.UUID, poID *uuid.UUID, currency string, documentKey string) (*Invoice, error) {
	invoiceNumber = strings.TrimSpace(invoiceNumber)
	if invoiceNumber == "" {
		return nil, shared.NewDomainError("INVALID_INVOICE_NUMBER", "invoice number cannot be empty")
	}
	if vendorID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_VENDOR", "vendor id cannot be empty")
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if len(currency) != 3 {
		return nil, shared.NewDomainError("INVALID_CURRENCY", "currency must be a three-letter code")
	}

	inv := &Invoice{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		InvoiceNumber:       invoiceNumber,
		VendorID:            vendorID,
		PoID:                poID,
		Status:              InvoiceStatusUploaded,
		Currency:            currency,
		DocumentKey:         strings.TrimSpace(documentKey),
		OcrStatus:           OcrStatusPending,
		Items:               make([]InvoiceLineItem, 0),
	}
	if inv.DocumentKey == "" {
		inv.OcrStatus = OcrStatusSkipped
	}

	inv.AddDomainEvent(NewInvoiceUploadedEvent(inv))

	return inv, nil
}

// AddItem appends an invoice line and recalculates the total. Only allowed
// while UPLOADED (before matching has been attempted).
func (inv *Invoice) AddItem(description string, quantity, unitPriceCents int64) (*InvoiceLineItem, error) {
	if inv.Status != InvoiceStatusUploaded {
		return nil, shared.NewDomainError(shared.CodeStateMismatch, "cannot add items to an invoice once matching has started")
	}

	item, err := NewInvoiceLineItem(inv.ID, description, quantity, unitPriceCents)
	if err != nil {
		return nil, err
	}

	inv.Items = append(inv.Items, *item)
	inv.recalculateTotal()
	inv.touch()

	return item, nil
}

// SetOcrStatus records the outcome of the OCR background job.
func (inv *Invoice) SetOcrStatus(status OcrStatus) {
	inv.OcrStatus = status
	inv.touch()
}

// MatchException is one line-level discrepancy recorded by the matcher
// (spec.md §4.8). Detail keys vary by Code; see the matcher for the exact
// shape per exception kind.
type MatchException struct {
	Code   string                 `json:"code"`
	Detail map[string]interface{} `json:"detail"`
}

// RecordMatchResult persists the three-way matcher's verdict (spec.md §4.8:
// the matcher itself is pure — this is the effectful side the caller
// applies). PASS -> status MATCHED; FAIL -> status EXCEPTION.
func (inv *Invoice) RecordMatchResult(status MatchStatus, exceptions []MatchException) error {
	if status != MatchStatusPass && status != MatchStatusFail {
		return shared.NewDomainError("INVALID_MATCH_STATUS", "RecordMatchResult accepts only PASS or FAIL")
	}

	payload, err := json.Marshal(exceptions)
	if err != nil {
		return shared.NewDomainError("INVALID_EXCEPTIONS", "match exceptions could not be serialized")
	}

	if status == MatchStatusPass {
		inv.MatchStatus = MatchStatusPass
		inv.MatchExceptionsJSON = ""
		inv.Status = InvoiceStatusMatched
		inv.AddDomainEvent(NewInvoiceMatchedEvent(inv))
	} else {
		inv.MatchStatus = MatchStatusFail
		inv.MatchExceptionsJSON = string(payload)
		inv.Status = InvoiceStatusException
		inv.AddDomainEvent(NewInvoiceExceptionEvent(inv, exceptions))
	}
	inv.touch()

	return nil
}

// Dispute transitions EXCEPTION -> DISPUTED with a vendor-supplied reason.
func (inv *Invoice) Dispute(reason string) error {
	if inv.Status != InvoiceStatusException {
		return shared.NewDomainError(shared.CodeStateMismatch, fmt.Sprintf("cannot dispute invoice in %s status", inv.Status))
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "dispute reason is required")
	}

	inv.Status = InvoiceStatusDisputed
	inv.DisputeReason = reason
	inv.touch()

	return nil
}

// Override transitions EXCEPTION|DISPUTED -> MATCHED via a finance
// single-actor override (spec.md §9 Open Question: preserved as
// single-actor for this spec). match_status is recorded as OVERRIDE.
func (inv *Invoice) Override() error {
	if inv.Status != InvoiceStatusException && inv.Status != InvoiceStatusDisputed {
		return shared.NewDomainError(shared.CodeStateMismatch, fmt.Sprintf("cannot override invoice in %s status", inv.Status))
	}

	inv.Status = InvoiceStatusMatched
	inv.MatchStatus = MatchStatusOverride
	inv.touch()

	inv.AddDomainEvent(NewInvoiceOverriddenEvent(inv))

	return nil
}

// ApproveForPayment transitions MATCHED -> APPROVED, stamping approved_payment_at.
func (inv *Invoice) ApproveForPayment() error {
	if inv.Status != InvoiceStatusMatched {
		return shared.NewDomainError(shared.CodeStateMismatch, fmt.Sprintf("cannot approve invoice for payment in %s status", inv.Status))
	}

	now := time.Now()
	inv.Status = InvoiceStatusApproved
	inv.ApprovedPaymentAt = &now
	inv.touch()

	inv.AddDomainEvent(NewInvoiceApprovedEvent(inv))

	return nil
}

// MarkPaid transitions APPROVED -> PAID, stamping paid_at. Reachable either
// from the synchronous "mark paid" operation or from the Stripe payment
// webhook collaborator (§6 webhooks/stripe).
func (inv *Invoice) MarkPaid() error {
	if inv.Status != InvoiceStatusApproved {
		return shared.NewDomainError(shared.CodeStateMismatch, fmt.Sprintf("cannot mark invoice paid in %s status", inv.Status))
	}

	now := time.Now()
	inv.Status = InvoiceStatusPaid
	inv.PaidAt = &now
	inv.touch()

	inv.AddDomainEvent(NewInvoicePaidEvent(inv))

	return nil
}

// HasPo reports whether this invoice is linked to a purchase order and is
// therefore a three-way-match candidate.
func (inv *Invoice) HasPo() bool {
	return inv.PoID != nil
}

func (inv *Invoice) recalculateTotal() {
	var total int64
	for _, item := range inv.Items {
		total += item.AmountCents()
	}
	inv.TotalCents = total
}

func (inv *Invoice) touch() {
	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()
}
