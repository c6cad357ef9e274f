package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/domain/billing"
	"github.com/rentflow/backend/internal/domain/identity"
	"github.com/rentflow/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// CreateInvoiceRequest is the input of CreateInvoice
type CreateInvoiceRequest struct {
	ApartmentID uuid.UUID `json:"apartment_id" binding:"required"`
	// IssueDate selects the billing period; defaults to today
	IssueDate time.Time `json:"issue_date"`
	// ManagerEmail identifies the issuing manager for the snapshot
	ManagerEmail string `json:"manager_email" binding:"omitempty,email"`
}

// UpdateConfirmationRequest is the input of UpdateConfirmation
type UpdateConfirmationRequest struct {
	Confirmed    bool   `json:"confirmed"`
	ManagerEmail string `json:"manager_email" binding:"omitempty,email"`
}

// PersonResponse is a tenant or manager snapshot
type PersonResponse struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	NationalID string `json:"national_id,omitempty"`
	Email      string `json:"email"`
	Telephone  string `json:"telephone"`
}

// TariffResponse lists the rates an invoice was priced with
type TariffResponse struct {
	ElectricityRate   decimal.Decimal `json:"electricity_rate"`
	ColdWaterRate     decimal.Decimal `json:"cold_water_rate"`
	HotWaterRate      decimal.Decimal `json:"hot_water_rate"`
	HeatingRate       decimal.Decimal `json:"heating_rate"`
	RentRatePerM2     decimal.Decimal `json:"rent_rate_per_m2"`
	OtherChargesPerM2 decimal.Decimal `json:"other_charges_per_m2"`
	ElectricityFlat   decimal.Decimal `json:"electricity_flat"`
	ColdWaterFlat     decimal.Decimal `json:"cold_water_flat"`
	HotWaterFlat      decimal.Decimal `json:"hot_water_flat"`
	HeatingFlat       decimal.Decimal `json:"heating_flat"`
}

// ReadingValuesResponse holds the billed meter values, zero for flat invoices
type ReadingValuesResponse struct {
	Electricity decimal.Decimal `json:"electricity"`
	ColdWater   decimal.Decimal `json:"cold_water"`
	HotWater    decimal.Decimal `json:"hot_water"`
	Heating     decimal.Decimal `json:"heating"`
}

// InvoiceResponse is the full invoice including its snapshot
type InvoiceResponse struct {
	ID               uuid.UUID             `json:"id"`
	ApartmentID      *uuid.UUID            `json:"apartment_id,omitempty"`
	TenantID         *uuid.UUID            `json:"tenant_id,omitempty"`
	ReadingID        *uuid.UUID            `json:"reading_id,omitempty"`
	Status           string                `json:"status"`
	IssueDate        string                `json:"issue_date"`
	PeriodStart      string                `json:"period_start"`
	PeriodEnd        string                `json:"period_end"`
	RentAmount       decimal.Decimal       `json:"rent_amount"`
	OtherCharges     decimal.Decimal       `json:"other_charges"`
	TotalMediaAmount decimal.Decimal       `json:"total_media_amount"`
	TotalAmount      decimal.Decimal       `json:"total_amount"`
	Paid             bool                  `json:"paid"`
	Confirmed        bool                  `json:"confirmed"`
	Flat             bool                  `json:"flat"`
	Address          string                `json:"address"`
	ApartmentNumber  string                `json:"apartment_number"`
	ApartmentFloor   int                   `json:"apartment_floor"`
	ApartmentArea    decimal.Decimal       `json:"apartment_area"`
	Tariff           TariffResponse        `json:"tariff"`
	Readings         ReadingValuesResponse `json:"readings"`
	Tenant           *PersonResponse       `json:"tenant,omitempty"`
	Manager          *PersonResponse       `json:"manager,omitempty"`
	CreatedAt        time.Time             `json:"created_at"`
	UpdatedAt        time.Time             `json:"updated_at"`
	Version          int                   `json:"version"`
}

// InvoiceListItemResponse is one row of an invoice listing
type InvoiceListItemResponse struct {
	ID              uuid.UUID       `json:"id"`
	ApartmentID     *uuid.UUID      `json:"apartment_id,omitempty"`
	ApartmentNumber string          `json:"apartment_number"`
	Address         string          `json:"address"`
	TenantName      string          `json:"tenant_name,omitempty"`
	Period          string          `json:"period"`
	IssueDate       string          `json:"issue_date"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Status          string          `json:"status"`
	Paid            bool            `json:"paid"`
	Flat            bool            `json:"flat"`
}

// ToInvoiceResponse converts a domain Invoice to InvoiceResponse
func ToInvoiceResponse(inv *billing.Invoice) InvoiceResponse {
	info := inv.Info
	return InvoiceResponse{
		ID:               inv.ID,
		ApartmentID:      inv.ApartmentID,
		TenantID:         inv.TenantID,
		ReadingID:        inv.ReadingID,
		Status:           string(inv.Status()),
		IssueDate:        inv.IssueDate.Format(valueobject.DateLayout),
		PeriodStart:      inv.Period.Start().Format(valueobject.DateLayout),
		PeriodEnd:        inv.Period.End().Format(valueobject.DateLayout),
		RentAmount:       inv.RentAmount,
		OtherCharges:     inv.OtherCharges,
		TotalMediaAmount: inv.TotalMediaAmount,
		TotalAmount:      inv.TotalAmount,
		Paid:             inv.Paid,
		Confirmed:        inv.Confirmed,
		Flat:             inv.Flat,
		Address:          info.FullAddress(),
		ApartmentNumber:  info.ApartmentNumber,
		ApartmentFloor:   info.ApartmentFloor,
		ApartmentArea:    info.ApartmentArea,
		Tariff: TariffResponse{
			ElectricityRate:   info.Tariff.ElectricityRate,
			ColdWaterRate:     info.Tariff.ColdWaterRate,
			HotWaterRate:      info.Tariff.HotWaterRate,
			HeatingRate:       info.Tariff.HeatingRate,
			RentRatePerM2:     info.Tariff.RentRatePerM2,
			OtherChargesPerM2: info.Tariff.OtherChargesPerM2,
			ElectricityFlat:   info.Tariff.ElectricityFlat,
			ColdWaterFlat:     info.Tariff.ColdWaterFlat,
			HotWaterFlat:      info.Tariff.HotWaterFlat,
			HeatingFlat:       info.Tariff.HeatingFlat,
		},
		Readings: ReadingValuesResponse{
			Electricity: info.Readings.Electricity,
			ColdWater:   info.Readings.ColdWater,
			HotWater:    info.Readings.HotWater,
			Heating:     info.Readings.Heating,
		},
		Tenant:    toPersonResponse(info.Tenant),
		Manager:   toPersonResponse(info.Manager),
		CreatedAt: inv.CreatedAt,
		UpdatedAt: inv.UpdatedAt,
		Version:   inv.Version,
	}
}

func toPersonResponse(p identity.PersonSnapshot) *PersonResponse {
	if p.IsEmpty() {
		return nil
	}
	return &PersonResponse{
		FirstName:  p.FirstName,
		LastName:   p.LastName,
		NationalID: p.NationalID,
		Email:      p.Email,
		Telephone:  p.Telephone,
	}
}

// ToInvoiceListItemResponse converts a domain Invoice to a listing row
func ToInvoiceListItemResponse(inv *billing.Invoice) InvoiceListItemResponse {
	item := InvoiceListItemResponse{
		ID:              inv.ID,
		ApartmentID:     inv.ApartmentID,
		ApartmentNumber: inv.Info.ApartmentNumber,
		Address:         inv.Info.FullAddress(),
		Period:          inv.Period.String(),
		IssueDate:       inv.IssueDate.Format(valueobject.DateLayout),
		TotalAmount:     inv.TotalAmount,
		Status:          string(inv.Status()),
		Paid:            inv.Paid,
		Flat:            inv.Flat,
	}
	if !inv.Info.Tenant.IsEmpty() {
		item.TenantName = inv.Info.Tenant.FirstName + " " + inv.Info.Tenant.LastName
	}
	return item
}

// ToInvoiceListItemResponses converts a slice of invoices
func ToInvoiceListItemResponses(invoices []billing.Invoice) []InvoiceListItemResponse {
	items := make([]InvoiceListItemResponse, len(invoices))
	for i := range invoices {
		items[i] = ToInvoiceListItemResponse(&invoices[i])
	}
	return items
}
