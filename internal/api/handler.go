package api

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgconn"

	"taskboard/internal/service"
)

type UserHandler struct {
	identityService service.IdentityService
	validate        *validator.Validate
}

func NewUserHandler(identityService service.IdentityService) *UserHandler {
	return &UserHandler{
		identityService: identityService,
		validate:        validator.New(),
	}
}

type SignupRequest struct {
	Email   string `json:"email" validate:"required,email"`
	ClerkID string `json:"clerkId" validate:"required"`
}

func (h *UserHandler) Signup(c *fiber.Ctx) error {
	var request SignupRequest

	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON", "details": err.Error()})
	}

	if err := h.validate.Struct(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input", "details": err.Error()})
	}

	user, err := h.identityService.Signup(c.Context(), request.Email, request.ClerkID)

	if err != nil {
		if errors.Is(err, service.ErrUserExists) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "User already exists"})
		}

		// The users table enforces email uniqueness, so two concurrent
		// signups past the existence check still collapse to one row.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "User already exists"})
		}

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "User created",
		"user":    user,
	})
}

func (h *UserHandler) GetCurrentUser(c *fiber.Ctx) error {
	clerkID, err := GetClerkIDFromClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}

	user, err := h.identityService.CurrentUser(c.Context(), clerkID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not fetch user"})
	}

	return c.Status(fiber.StatusOK).JSON(user)
}

func (h *UserHandler) SignOut(c *fiber.Ctx) error {
	clerkID, err := GetClerkIDFromClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}

	h.identityService.SignOut(clerkID)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Signed out"})
}
