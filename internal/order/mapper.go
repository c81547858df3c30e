package order

import (
	"time"

	"github.com/shopspring/decimal"
)

type ItemResponse struct {
	Product  int64           `json:"product"`
	Name     string          `json:"name"`
	Size     string          `json:"size"`
	Color    string          `json:"color"`
	Image    string          `json:"image"`
	Quantity int             `json:"qty"`
	Price    decimal.Decimal `json:"price"`
}

type AddressResponse struct {
	Title        string `json:"title"`
	Recipient    string `json:"recipient"`
	Phone        string `json:"phone"`
	City         string `json:"city"`
	District     string `json:"district"`
	Neighborhood string `json:"neighborhood"`
	Line         string `json:"address"`
	PostalCode   string `json:"postalCode"`
}

type Response struct {
	ID              int64           `json:"_id"`
	OrderNumber     string          `json:"orderNumber"`
	User            uint            `json:"user"`
	OrderItems      []ItemResponse  `json:"orderItems"`
	ShippingAddress AddressResponse `json:"shippingAddress"`
	PaymentMethod   string          `json:"paymentMethod"`
	ItemsPrice      decimal.Decimal `json:"itemsPrice"`
	ShippingPrice   decimal.Decimal `json:"shippingPrice"`
	TotalPrice      decimal.Decimal `json:"totalPrice"`
	Status          Status          `json:"status"`
	IsPaid          bool            `json:"isPaid"`
	PaidAt          *time.Time      `json:"paidAt,omitempty"`
	IsDelivered     bool            `json:"isDelivered"`
	DeliveredAt     *time.Time      `json:"deliveredAt,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

type ListResponse struct {
	Orders []Response `json:"orders"`
	Page   int        `json:"page"`
	Pages  int        `json:"pages"`
	Total  int        `json:"total"`
}

func ToResponse(o *Order) Response {
	items := make([]ItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, ItemResponse{
			Product:  it.ProductID,
			Name:     it.Name,
			Size:     it.Size,
			Color:    it.Color,
			Image:    it.Image,
			Quantity: it.Quantity,
			Price:    it.Price,
		})
	}

	sa := o.ShippingAddress
	return Response{
		ID:          o.ID,
		OrderNumber: o.OrderNumber,
		User:        o.UserID,
		OrderItems:  items,
		ShippingAddress: AddressResponse{
			Title:        sa.Title,
			Recipient:    sa.Recipient,
			Phone:        sa.Phone,
			City:         sa.City,
			District:     sa.District,
			Neighborhood: sa.Neighborhood,
			Line:         sa.Line,
			PostalCode:   sa.PostalCode,
		},
		PaymentMethod: o.PaymentMethod,
		ItemsPrice:    o.ItemsPrice,
		ShippingPrice: o.ShippingPrice,
		TotalPrice:    o.TotalPrice,
		Status:        o.Status,
		IsPaid:        o.IsPaid,
		PaidAt:        o.PaidAt,
		IsDelivered:   o.IsDelivered,
		DeliveredAt:   o.DeliveredAt,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

func ToResponseList(orders []*Order) []Response {
	out := make([]Response, 0, len(orders))
	for _, o := range orders {
		out = append(out, ToResponse(o))
	}
	return out
}

func ToListResponse(r *ListResult) ListResponse {
	return ListResponse{
		Orders: ToResponseList(r.Items),
		Page:   r.Page,
		Pages:  r.Pages,
		Total:  r.Total,
	}
}
