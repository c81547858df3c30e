package address

type Response struct {
	ID           string `json:"_id"`
	Title        string `json:"title"`
	Recipient    string `json:"recipient"`
	Phone        string `json:"phone"`
	City         string `json:"city"`
	District     string `json:"district"`
	Neighborhood string `json:"neighborhood"`
	Line         string `json:"address"`
	PostalCode   string `json:"postalCode"`
	IsDefault    bool   `json:"isDefault"`
}

func ToResponse(a *Address) Response {
	return Response{
		ID:           a.ID.String(),
		Title:        a.Title,
		Recipient:    a.Recipient,
		Phone:        a.Phone,
		City:         a.City,
		District:     a.District,
		Neighborhood: a.Neighborhood,
		Line:         a.Line,
		PostalCode:   a.PostalCode,
		IsDefault:    a.IsDefault,
	}
}

func ToResponseList(list []*Address) []Response {
	out := make([]Response, 0, len(list))
	for _, a := range list {
		out = append(out, ToResponse(a))
	}
	return out
}
