package api

import (
	"net/http"

	"storefront-be/internal/auth"
	"storefront-be/internal/product"
	"storefront-be/internal/user"
	"storefront-be/internal/utils"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type updateProfileRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Phone    *string `json:"phone"`
	Password *string `json:"password"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	Password string `json:"password" validate:"required"`
}

type userHandler struct {
	users  user.Service
	issuer *auth.Issuer
	secure bool
}

func (h *userHandler) startSession(c echo.Context, u *user.User) error {
	token, err := h.issuer.Issue(u.ID, u.Email, u.IsAdmin)
	if err != nil {
		return errors.Wrap(err, "issue session token")
	}
	c.SetCookie(auth.SessionCookie(token, h.issuer.TTL(), h.secure))
	return nil
}

func (h *userHandler) register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	u, err := h.users.Register(c.Request().Context(), user.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	if err := h.startSession(c, u); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, user.ToResponse(u))
}

func (h *userHandler) login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	u, err := h.users.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return errors.WithStack(err)
	}

	if err := h.startSession(c, u); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user.ToResponse(u))
}

func (h *userHandler) logout(c echo.Context) error {
	c.SetCookie(auth.ClearedCookie(h.secure))
	return c.JSON(http.StatusOK, messageResponse{Message: "Logged out successfully"})
}

func (h *userHandler) forgotPassword(c echo.Context) error {
	var req forgotPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.users.ForgotPassword(c.Request().Context(), req.Email); err != nil {
		return errors.WithStack(err)
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Email sent"})
}

func (h *userHandler) resetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.users.ResetPassword(c.Request().Context(), c.Param("token"), req.Password); err != nil {
		return errors.WithStack(err)
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Password reset successful"})
}

func (h *userHandler) profile(c echo.Context) error {
	u, err := h.users.Profile(c.Request().Context())
	if err != nil {
		return errors.WithStack(err)
	}
	return c.JSON(http.StatusOK, user.ToResponse(u))
}

func (h *userHandler) updateProfile(c echo.Context) error {
	var req updateProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	u, err := h.users.UpdateProfile(c.Request().Context(), user.UpdateProfileInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		return errors.WithStack(err)
	}
	return c.JSON(http.StatusOK, user.ToResponse(u))
}

func (h *userHandler) favorites(c echo.Context) error {
	ids, err := h.users.Favorites(c.Request().Context())
	if err != nil {
		return errors.WithStack(err)
	}
	return c.JSON(http.StatusOK, user.FavoritesResponse{Favorites: ids})
}

func (h *userHandler) toggleFavorite(c echo.Context) error {
	productID, err := utils.ParseInt64(c.Param("id"))
	if err != nil {
		return product.ErrProductNotFound
	}

	ids, err := h.users.ToggleFavorite(c.Request().Context(), productID)
	if err != nil {
		return errors.WithStack(err)
	}
	return c.JSON(http.StatusOK, user.FavoritesResponse{Favorites: ids})
}

func (h *userHandler) list(c echo.Context) error {
	users, err := h.users.List(c.Request().Context())
	if err != nil {
		return errors.WithStack(err)
	}
	return c.JSON(http.StatusOK, user.ToResponseList(users))
}

func (h *userHandler) delete(c echo.Context) error {
	id, err := utils.ToUint(c.Param("id"))
	if err != nil {
		return user.ErrUserNotFound
	}

	if err := h.users.Delete(c.Request().Context(), id); err != nil {
		return errors.WithStack(err)
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "User removed"})
}
