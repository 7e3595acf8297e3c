package models

import (
	"github.com/freightdesk/backend/internal/domain/shipment"
	"github.com/google/uuid"
)

// ShipmentModel is the persistence model for shipments in the shipment store
type ShipmentModel struct {
	BaseModel
	Code        string     `gorm:"size:32;not null;uniqueIndex"`
	CustomerID  *uuid.UUID `gorm:"type:uuid;index"`
	Origin      string     `gorm:"size:128"`
	Destination string     `gorm:"size:128"`
	Remarks     string     `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ShipmentModel) TableName() string {
	return "shipments"
}

// ToDomain converts the persistence model to a domain Shipment
func (m *ShipmentModel) ToDomain() *shipment.Shipment {
	return &shipment.Shipment{
		BaseEntity:  m.BaseModel.ToDomain(),
		Code:        m.Code,
		CustomerID:  m.CustomerID,
		Origin:      m.Origin,
		Destination: m.Destination,
		Remarks:     m.Remarks,
	}
}

// ShipmentModelFromDomain creates a persistence model from a domain Shipment
func ShipmentModelFromDomain(s *shipment.Shipment) *ShipmentModel {
	m := &ShipmentModel{
		Code:        s.Code,
		CustomerID:  s.CustomerID,
		Origin:      s.Origin,
		Destination: s.Destination,
		Remarks:     s.Remarks,
	}
	m.BaseModel.FromDomain(s.BaseEntity)
	return m
}
