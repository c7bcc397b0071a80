package response

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/skillforest/lms-api/apperr"
)

// FromError maps a domain error to the matching HTTP response. Unrecognized
// errors become 500s with a generic message so internals never leak.
func FromError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return NotFound(c, err.Error())
	case errors.Is(err, apperr.ErrInvalidInput):
		return BadRequest(c, err.Error())
	case errors.Is(err, apperr.ErrForbidden):
		return Forbidden(c, err.Error())
	case errors.Is(err, apperr.ErrConflict):
		return Conflict(c, err.Error())
	case errors.Is(err, apperr.ErrUpstream):
		return BadGateway(c, err.Error())
	default:
		return InternalServerError(c, "")
	}
}
