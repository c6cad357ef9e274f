// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer free
// from ORM concerns.
//
// Structure:
//   - base.go: shared columns (BaseModel, AggregateModel)
//   - property.go: buildings, building_managers, apartments
//   - metering.go: readings
//   - billing.go: invoices with the info_* snapshot columns
//   - identity.go: users, national_ids
package models
