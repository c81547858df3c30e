package user

type Response struct {
	ID      uint   `json:"_id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
	Phone   string `json:"phone,omitempty"`
}

func ToResponse(u *User) *Response {
	if u == nil {
		return nil
	}
	return &Response{
		ID:      u.ID,
		Name:    u.Name,
		Email:   u.Email,
		IsAdmin: u.IsAdmin,
		Phone:   u.Phone,
	}
}

func ToResponseList(users []*User) []*Response {
	out := make([]*Response, 0, len(users))
	for _, u := range users {
		out = append(out, ToResponse(u))
	}
	return out
}

type FavoritesResponse struct {
	Favorites []int64 `json:"favorites"`
}
