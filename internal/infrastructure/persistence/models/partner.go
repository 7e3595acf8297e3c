package models

import "github.com/freightdesk/backend/internal/domain/partner"

// PartnerModel holds the columns customers and suppliers share
type PartnerModel struct {
	BaseModel
	Code         string `gorm:"size:7;not null;uniqueIndex"`
	Name         string `gorm:"size:200;not null"`
	ContactName  string `gorm:"size:100"`
	ContactPhone string `gorm:"size:50"`
	Email        string `gorm:"size:200"`
	Address      string `gorm:"type:text"`
}

func (m *PartnerModel) toDomain() partner.Partner {
	return partner.Partner{
		BaseEntity:   m.BaseModel.ToDomain(),
		Code:         m.Code,
		Name:         m.Name,
		ContactName:  m.ContactName,
		ContactPhone: m.ContactPhone,
		Email:        m.Email,
		Address:      m.Address,
	}
}

func partnerModelFromDomain(p partner.Partner) PartnerModel {
	m := PartnerModel{
		Code:         p.Code,
		Name:         p.Name,
		ContactName:  p.ContactName,
		ContactPhone: p.ContactPhone,
		Email:        p.Email,
		Address:      p.Address,
	}
	m.BaseModel.FromDomain(p.BaseEntity)
	return m
}

// CustomerModel is the persistence model for customers in the main store
type CustomerModel struct {
	PartnerModel
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer
func (m *CustomerModel) ToDomain() *partner.Customer {
	return &partner.Customer{Partner: m.PartnerModel.toDomain()}
}

// CustomerModelFromDomain creates a persistence model from a domain Customer
func CustomerModelFromDomain(c *partner.Customer) *CustomerModel {
	return &CustomerModel{PartnerModel: partnerModelFromDomain(c.Partner)}
}

// SupplierModel is the persistence model for suppliers in the main store
type SupplierModel struct {
	PartnerModel
}

// TableName returns the table name for GORM
func (SupplierModel) TableName() string {
	return "suppliers"
}

// ToDomain converts the persistence model to a domain Supplier
func (m *SupplierModel) ToDomain() *partner.Supplier {
	return &partner.Supplier{Partner: m.PartnerModel.toDomain()}
}

// SupplierModelFromDomain creates a persistence model from a domain Supplier
func SupplierModelFromDomain(s *partner.Supplier) *SupplierModel {
	return &SupplierModel{PartnerModel: partnerModelFromDomain(s.Partner)}
}
