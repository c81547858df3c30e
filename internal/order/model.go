package order

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending    Status = "Pending"
	StatusProcessing Status = "Processing"
	StatusShipped    Status = "Shipped"
	StatusDelivered  Status = "Delivered"
	StatusCancelled  Status = "Cancelled"
)

// transitions is the forward-only status graph. Delivered and Cancelled are
// terminal.
var transitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered},
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Item struct {
	ID        int64
	OrderID   int64
	ProductID int64
	Name      string
	Size      string
	Color     string
	Image     string
	Quantity  int
	Price     decimal.Decimal
}

func (i Item) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type ShippingAddress struct {
	Title        string
	Recipient    string
	Phone        string
	City         string
	District     string
	Neighborhood string
	Line         string
	PostalCode   string
}

type Order struct {
	ID              int64
	OrderNumber     string
	UserID          uint
	Items           []Item
	ShippingAddress ShippingAddress
	PaymentMethod   string
	ItemsPrice      decimal.Decimal
	ShippingPrice   decimal.Decimal
	TotalPrice      decimal.Decimal
	Status          Status
	IsPaid          bool
	PaidAt          *time.Time
	IsDelivered     bool
	DeliveredAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type LineInput struct {
	ProductID int64
	Size      string
	Quantity  int
}

// PlaceInput is what a buyer submits. Prices are never taken from the client.
type PlaceInput struct {
	Items           []LineInput
	AddressID       string
	ShippingAddress ShippingAddress
	PaymentMethod   string
}

type ListFilter struct {
	Status Status
	UserID *uint
	Page   int
	Limit  int
}

type ListResult struct {
	Items []*Order
	Total int
	Page  int
	Pages int
}

// ShippingPolicy charges a flat fee unless the items subtotal reaches the
// free-shipping threshold.
type ShippingPolicy struct {
	Fee           decimal.Decimal
	FreeThreshold decimal.Decimal
}

func (p ShippingPolicy) Price(itemsPrice decimal.Decimal) decimal.Decimal {
	if itemsPrice.GreaterThanOrEqual(p.FreeThreshold) {
		return decimal.Zero
	}
	return p.Fee
}
