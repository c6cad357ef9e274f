package property

import (
	"time"

	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/domain/property"
	"github.com/rentflow/backend/internal/domain/shared"
	"github.com/rentflow/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// AddressRequest is the postal address of a building
type AddressRequest struct {
	City       string `json:"city" binding:"required,max=100"`
	Street     string `json:"street" binding:"required,max=100"`
	Number     string `json:"number" binding:"required,building_number"`
	PostalCode string `json:"postal_code" binding:"required,postal_code"`
}

func (r AddressRequest) toAddress() (valueobject.Address, error) {
	address, err := valueobject.NewAddress(r.City, r.Street, r.Number, r.PostalCode)
	if err != nil {
		return valueobject.Address{}, shared.NewValidationError("INVALID_ADDRESS", err.Error())
	}
	return address, nil
}

// TariffRequest carries the ten rates of a building
type TariffRequest struct {
	ElectricityRate   decimal.Decimal `json:"electricity_rate" binding:"required"`
	ColdWaterRate     decimal.Decimal `json:"cold_water_rate" binding:"required"`
	HotWaterRate      decimal.Decimal `json:"hot_water_rate" binding:"required"`
	HeatingRate       decimal.Decimal `json:"heating_rate" binding:"required"`
	RentRatePerM2     decimal.Decimal `json:"rent_rate_per_m2" binding:"required"`
	OtherChargesPerM2 decimal.Decimal `json:"other_charges_per_m2" binding:"required"`
	ElectricityFlat   decimal.Decimal `json:"electricity_flat" binding:"required"`
	ColdWaterFlat     decimal.Decimal `json:"cold_water_flat" binding:"required"`
	HotWaterFlat      decimal.Decimal `json:"hot_water_flat" binding:"required"`
	HeatingFlat       decimal.Decimal `json:"heating_flat" binding:"required"`
}

// ToTariff converts the request into a domain Tariff
func (r TariffRequest) ToTariff() property.Tariff {
	return property.Tariff{
		ElectricityRate:   r.ElectricityRate,
		ColdWaterRate:     r.ColdWaterRate,
		HotWaterRate:      r.HotWaterRate,
		HeatingRate:       r.HeatingRate,
		RentRatePerM2:     r.RentRatePerM2,
		OtherChargesPerM2: r.OtherChargesPerM2,
		ElectricityFlat:   r.ElectricityFlat,
		ColdWaterFlat:     r.ColdWaterFlat,
		HotWaterFlat:      r.HotWaterFlat,
		HeatingFlat:       r.HeatingFlat,
	}
}

// CreateBuildingRequest is the input of BuildingService.Create
type CreateBuildingRequest struct {
	Address        AddressRequest `json:"address" binding:"required"`
	NumberOfFloors int            `json:"number_of_floors" binding:"required,min=1,max=200"`
	Tariff         TariffRequest  `json:"tariff" binding:"required"`
	ManagerIDs     []uuid.UUID    `json:"manager_ids"`
}

// UpdateBuildingRequest changes the provided fields only
type UpdateBuildingRequest struct {
	Address        *AddressRequest `json:"address"`
	NumberOfFloors *int            `json:"number_of_floors" binding:"omitempty,min=1,max=200"`
	Tariff         *TariffRequest  `json:"tariff"`
}

// TariffResponse lists the current rates of a building
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

// BuildingResponse is the API view of a building
type BuildingResponse struct {
	ID             uuid.UUID      `json:"id"`
	City           string         `json:"city"`
	Street         string         `json:"street"`
	Number         string         `json:"number"`
	PostalCode     string         `json:"postal_code"`
	FullAddress    string         `json:"full_address"`
	NumberOfFloors int            `json:"number_of_floors"`
	Tariff         TariffResponse `json:"tariff"`
	ManagerIDs     []uuid.UUID    `json:"manager_ids"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	Version        int            `json:"version"`
}

// ToBuildingResponse converts a domain Building to BuildingResponse
func ToBuildingResponse(b *property.Building) BuildingResponse {
	t := b.Tariff
	return BuildingResponse{
		ID:             b.ID,
		City:           b.Address.City(),
		Street:         b.Address.Street(),
		Number:         b.Address.Number(),
		PostalCode:     b.Address.PostalCode(),
		FullAddress:    b.Address.FullAddress(),
		NumberOfFloors: b.NumberOfFloors,
		Tariff: TariffResponse{
			ElectricityRate:   t.ElectricityRate,
			ColdWaterRate:     t.ColdWaterRate,
			HotWaterRate:      t.HotWaterRate,
			HeatingRate:       t.HeatingRate,
			RentRatePerM2:     t.RentRatePerM2,
			OtherChargesPerM2: t.OtherChargesPerM2,
			ElectricityFlat:   t.ElectricityFlat,
			ColdWaterFlat:     t.ColdWaterFlat,
			HotWaterFlat:      t.HotWaterFlat,
			HeatingFlat:       t.HeatingFlat,
		},
		ManagerIDs: b.ManagerIDs,
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
		Version:    b.Version,
	}
}

// ToBuildingResponses converts a slice of buildings
func ToBuildingResponses(buildings []property.Building) []BuildingResponse {
	responses := make([]BuildingResponse, len(buildings))
	for i := range buildings {
		responses[i] = ToBuildingResponse(&buildings[i])
	}
	return responses
}

// CreateApartmentRequest is the input of ApartmentService.Create
type CreateApartmentRequest struct {
	Number string          `json:"number" binding:"required,max=20"`
	Area   decimal.Decimal `json:"area" binding:"required"`
	Floor  int             `json:"floor" binding:"min=0"`
}

// UpdateApartmentRequest changes the provided fields only
type UpdateApartmentRequest struct {
	Number *string          `json:"number" binding:"omitempty,max=20"`
	Area   *decimal.Decimal `json:"area"`
	Floor  *int             `json:"floor" binding:"omitempty,min=0"`
}

// ApartmentResponse is the API view of an apartment
type ApartmentResponse struct {
	ID         uuid.UUID       `json:"id"`
	BuildingID uuid.UUID       `json:"building_id"`
	Number     string          `json:"number"`
	Area       decimal.Decimal `json:"area"`
	Floor      int             `json:"floor"`
	TenantID   *uuid.UUID      `json:"tenant_id,omitempty"`
	Available  bool            `json:"available"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	Version    int             `json:"version"`
}

// ToApartmentResponse converts a domain Apartment to ApartmentResponse
func ToApartmentResponse(a *property.Apartment) ApartmentResponse {
	return ApartmentResponse{
		ID:         a.ID,
		BuildingID: a.BuildingID,
		Number:     a.Number,
		Area:       a.Area,
		Floor:      a.Floor,
		TenantID:   a.TenantID,
		Available:  a.IsAvailable(),
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
		Version:    a.Version,
	}
}

// ToApartmentResponses converts a slice of apartments
func ToApartmentResponses(apartments []property.Apartment) []ApartmentResponse {
	responses := make([]ApartmentResponse, len(apartments))
	for i := range apartments {
		responses[i] = ToApartmentResponse(&apartments[i])
	}
	return responses
}
