package ports

import "go.trai.ch/ripple/internal/core/domain"

// RecordParser decodes the fact record of a single node.
//
//go:generate go run go.uber.org/mock/mockgen -source=record.go -destination=mocks/mock_record.go -package=mocks
type RecordParser interface {
	// Parse decodes data into a record. An empty document yields an empty record.
	// Any malformation is reported as an error and no partial record is returned.
	Parse(data []byte) (*domain.Record, error)
}
