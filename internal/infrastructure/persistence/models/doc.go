// Package models contains GORM persistence models. Domain entities carry no
// ORM tags; each model here maps one table and converts to and from its
// domain entity.
//
// Tables are spread over four stores:
//   - main: customers, suppliers
//   - shipment: shipments, sequence_counters (shipment codes)
//   - finance: costs, expense_applications, sequence_counters (application numbers)
//   - attachment: attachments
package models
