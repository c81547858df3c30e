package address

import (
	"time"

	"github.com/google/uuid"
)

type Address struct {
	ID           uuid.UUID
	UserID       uint
	Title        string
	Recipient    string
	Phone        string
	City         string
	District     string
	Neighborhood string
	Line         string
	PostalCode   string
	IsDefault    bool
	CreatedAt    time.Time
}

type CreateAddressInput struct {
	Title        string
	Recipient    string
	Phone        string
	City         string
	District     string
	Neighborhood string
	Line         string
	PostalCode   string
	IsDefault    bool
}

type UpdateAddressInput struct {
	Title        *string
	Recipient    *string
	Phone        *string
	City         *string
	District     *string
	Neighborhood *string
	Line         *string
	PostalCode   *string
	IsDefault    *bool
}
