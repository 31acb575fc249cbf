package handlers

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"foodgram/internal/repositories"
	"foodgram/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

var (
	slugPattern     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
	usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)
)

// newValidator returns a validator that reports json field names and knows
// the "slug" and "username" tags.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	return v
}

// validateStruct runs v over req and converts failures to a ValidationError.
func validateStruct(v *validator.Validate, req any) error {
	err := v.Struct(req)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}
	verr := &services.ValidationError{}
	for _, e := range validationErrors {
		field := e.Field()
		if ns := e.Namespace(); strings.Count(ns, ".") > 1 {
			field = strings.SplitN(ns, ".", 3)[1]
			if i := strings.IndexByte(field, '['); i >= 0 {
				field = field[:i]
			}
		}
		verr.Add(field, "Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
	}
	return verr
}

// respondError maps service errors to HTTP statuses.
func respondError(c *fiber.Ctx, err error, message string) error {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  verr.Fields,
		})
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": message,
			"error":   err.Error(),
		})
	case errors.Is(err, services.ErrDuplicate), errors.Is(err, services.ErrSelfFollow):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": message,
			"error":   err.Error(),
		})
	case errors.Is(err, services.ErrUnauthorized),
		errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrInvalidToken):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": message,
			"error":   err.Error(),
		})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": message,
			"error":   err.Error(),
		})
	}

	log.Error().Err(err).Str("path", c.Path()).Msg(message)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": message,
		"error":   err.Error(),
	})
}

func badRequest(c *fiber.Ctx, message string, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": message,
		"error":   err.Error(),
	})
}

// paramID parses the :id route parameter.
func paramID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id %q", c.Params("id"))
	}
	return uint(id), nil
}

// pagination reads the page and limit query parameters.
func pagination(c *fiber.Ctx) repositories.Pagination {
	return repositories.Pagination{
		Page:  c.QueryInt("page", 1),
		Limit: c.QueryInt("limit", repositories.DefaultPageSize),
	}.Normalize()
}

// Page is the envelope of every paginated listing.
type Page[T any] struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

func newPage[T any](c *fiber.Ctx, results []T, total int64, page repositories.Pagination) Page[T] {
	p := Page[T]{Count: total, Results: results}
	if p.Results == nil {
		p.Results = []T{}
	}
	if int64(page.Page*page.Limit) < total {
		next := pageURL(c, page.Page+1)
		p.Next = &next
	}
	if page.Page > 1 {
		prev := pageURL(c, page.Page-1)
		p.Previous = &prev
	}
	return p
}

func pageURL(c *fiber.Ctx, page int) string {
	query := url.Values{}
	c.Request().URI().QueryArgs().VisitAll(func(k, v []byte) {
		query.Add(string(k), string(v))
	})
	query.Set("page", strconv.Itoa(page))
	return c.BaseURL() + c.Path() + "?" + query.Encode()
}
