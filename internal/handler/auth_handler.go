package handler

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/mobipent/internal/domain"
	"github.com/mansoorceksport/mobipent/internal/service"
)

// AuthHandler handles /signup and /login
type AuthHandler struct {
	accounts *service.AccountService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(accounts *service.AccountService) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

type credentialsBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// missingFields lists absent fields the way FastAPI validation errors do
func missingFields(body credentialsBody) []fiber.Map {
	var missing []fiber.Map
	if body.Email == "" {
		missing = append(missing, fiber.Map{"loc": []string{"body", "email"}, "msg": "field required"})
	}
	if body.Password == "" {
		missing = append(missing, fiber.Map{"loc": []string{"body", "password"}, "msg": "field required"})
	}
	return missing
}

// Signup handles POST /signup
func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var body credentialsBody
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid JSON body")
	}
	if missing := missingFields(body); len(missing) > 0 {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"detail": missing})
	}

	if err := h.accounts.Register(c.UserContext(), body.Email, body.Password); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"detail": "Email already registered",
			})
		}
		return err
	}

	log.Printf("[DevServer] Registered %s", body.Email)
	return c.JSON(fiber.Map{"message": "User created successfully"})
}

// Login handles POST /login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var body credentialsBody
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid JSON body")
	}
	if missing := missingFields(body); len(missing) > 0 {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"detail": missing})
	}

	token, err := h.accounts.Authenticate(c.UserContext(), body.Email, body.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"detail": "Invalid credentials",
			})
		}
		return err
	}

	return c.JSON(fiber.Map{
		"access_token": token,
		"token_type":   "bearer",
	})
}
