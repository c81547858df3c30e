package api

import (
	"mime/multipart"
	"net/http"
	"strings"

	"storefront-be/internal/apperror"
	"storefront-be/internal/media"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type uploadResponse struct {
	URL string `json:"url"`
}

type uploadsResponse struct {
	URLs []string `json:"urls"`
}

type uploadHandler struct {
	images ImageStore
}

func (h *uploadHandler) store(c echo.Context, fh *multipart.FileHeader) (string, error) {
	if fh.Size > media.MaxFileSize {
		return "", media.ErrFileTooLarge
	}

	f, err := fh.Open()
	if err != nil {
		return "", errors.Wrap(err, "open upload")
	}
	defer f.Close()

	url, err := h.images.Upload(c.Request().Context(), fh.Filename, fh.Header.Get(echo.HeaderContentType), f)
	if err != nil {
		return "", errors.WithStack(err)
	}
	return url, nil
}

func (h *uploadHandler) single(c echo.Context) error {
	fh, err := c.FormFile("image")
	if err != nil {
		return media.ErrNoFile
	}

	url, err := h.store(c, fh)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, uploadResponse{URL: url})
}

func (h *uploadHandler) multiple(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return media.ErrNoFile
	}

	files := form.File["images"]
	if len(files) == 0 {
		return media.ErrNoFile
	}
	if len(files) > media.MaxFiles {
		return apperror.Validation("at most %d images can be uploaded at once", media.MaxFiles)
	}

	urls := make([]string, 0, len(files))
	for _, fh := range files {
		url, err := h.store(c, fh)
		if err != nil {
			return err
		}
		urls = append(urls, url)
	}
	return c.JSON(http.StatusOK, uploadsResponse{URLs: urls})
}

// mediaHandler streams a stored image back. It backs MEDIA_PUBLIC_URL when
// the bucket has no public endpoint of its own.
func mediaHandler(images ImageStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		key := strings.TrimPrefix(c.Param("*"), "/")

		obj, err := images.Get(c.Request().Context(), key)
		if err != nil {
			return errors.WithStack(err)
		}
		defer obj.Close()

		c.Response().Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		return c.Stream(http.StatusOK, obj.ContentType, obj)
	}
}
