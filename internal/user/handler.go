package user

import (
	"errors"
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/utils"
)

const (
	msgCreated = "User created successfully"
	msgUpdated = "User updated successfully"
	msgDeleted = "User deleted"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the users resource under /api/v1/users. The optional
// middleware (e.g. JWT auth) runs for every users route.
func (h *Handler) RegisterRoutes(app *fiber.App, middleware ...fiber.Handler) {
	users := app.Group("/api/v1/users", middleware...)

	users.Get("", h.getUsers)
	users.Post("", h.createUser)
	users.Get("/:id", h.getUser)
	users.Patch("/:id", h.updateUser)
	users.Delete("/:id", h.deleteUser)
}

func (h *Handler) getUsers(c *fiber.Ctx) error {
	users, err := h.service.List(c.UserContext())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(users)
}

func (h *Handler) getUser(c *fiber.Ctx) error {
	user, err := h.service.GetByID(c.UserContext(), userID(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(user)
}

func (h *Handler) createUser(c *fiber.Ctx) error {
	input := new(User)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid JSON body"})
	}

	created, err := h.service.Create(c.UserContext(), *input)
	if err != nil {
		return h.fail(c, err)
	}

	log.Infof("user %s created", created.ID)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": msgCreated,
		"id":      created.ID,
	})
}

func (h *Handler) updateUser(c *fiber.Ctx) error {
	patch := new(Patch)
	if err := c.BodyParser(patch); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid JSON body"})
	}

	if _, err := h.service.Update(c.UserContext(), userID(c), *patch); err != nil {
		return h.fail(c, err)
	}

	return c.SendString(msgUpdated)
}

func (h *Handler) deleteUser(c *fiber.Ctx) error {
	id := userID(c)
	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return h.fail(c, err)
	}

	log.Infof("user %s deleted", id)
	return c.SendString(msgDeleted)
}

func (h *Handler) fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "User not found"})
	case errors.Is(err, ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	default:
		log.Errorf("%s %s: %v", c.Method(), c.Path(), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "internal server error"})
	}
}

// userID returns the unescaped :id param. Clients escape ids that contain
// reserved characters.
func userID(c *fiber.Ctx) string {
	id := c.Params("id")
	if raw, err := url.PathUnescape(id); err == nil {
		id = raw
	}
	return utils.CopyString(id)
}
