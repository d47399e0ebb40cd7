package auth

import (
	"errors"
	"fmt"

	"bardev-backend/internal/audit"
	"bardev-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type PinLoginRequest struct {
	Role models.UserRole `json:"role"`
	PIN  string          `json:"pin"`
}

type UserResponse struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Role  models.UserRole `json:"role"`
	Email *string         `json:"email,omitempty"`
}

type CreateUserRequest struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Role  models.UserRole `json:"role"`
	Email *string         `json:"email"`
	PIN   string          `json:"pin"`
}

type UpdateUserRequest struct {
	Name  *string          `json:"name"`
	Role  *models.UserRole `json:"role"`
	Email *string          `json:"email"`
	PIN   *string          `json:"pin"`
}

func toUserResponse(u *models.User) UserResponse {
	return UserResponse{ID: u.ID, Name: u.Name, Role: u.Role, Email: u.Email}
}

// POST /api/auth/pin-login
func PinLoginHandler(staff *Staff, secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body PinLoginRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Cuerpo de la petición inválido")
		}

		user, err := staff.PinLogin(c.UserContext(), body.Role, body.PIN)
		if errors.Is(err, ErrInvalidCredentials) {
			return fiber.NewError(fiber.StatusUnauthorized, ErrInvalidCredentials.Error())
		}
		if err != nil {
			return err
		}

		token, err := GenerateToken(secret, user)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo generar el token")
		}

		return c.JSON(fiber.Map{
			"token": token,
			"user":  toUserResponse(user),
		})
	}
}

// GET /api/auth/me
func MeHandler(staff *Staff) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := CurrentActor(c)
		if err != nil {
			return err
		}

		user, err := staff.Get(c.UserContext(), actor.ID)
		if err == nil && user != nil {
			return c.JSON(toUserResponse(user))
		}

		// user was removed after the token was issued
		return c.JSON(UserResponse{ID: actor.ID, Name: actor.Name, Role: actor.Role})
	}
}

// GET /api/users
func ListUsersHandler(staff *Staff) fiber.Handler {
	return func(c *fiber.Ctx) error {
		users, err := staff.List(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron listar los usuarios")
		}
		resp := make([]UserResponse, 0, len(users))
		for i := range users {
			resp = append(resp, toUserResponse(&users[i]))
		}
		return c.JSON(resp)
	}
}

// POST /api/admin/users
func CreateUserHandler(staff *Staff, logs *audit.Writer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateUserRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Cuerpo de la petición inválido")
		}

		user := models.User{ID: body.ID, Name: body.Name, Role: body.Role, Email: body.Email}
		if err := staff.Create(c.UserContext(), &user, body.PIN); err != nil {
			if errors.Is(err, ErrInvalidUser) {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo crear el usuario")
		}

		if actor, err := CurrentActor(c); err == nil {
			logs.Record(audit.LogOptions{
				UserID:      actor.ID,
				UserName:    actor.Name,
				EntityType:  "user",
				EntityID:    user.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Usuario creado: %s (%s)", user.Name, user.Role),
				After:       toUserResponse(&user),
			})
		}

		return c.Status(fiber.StatusCreated).JSON(toUserResponse(&user))
	}
}

// PUT /api/admin/users/:id
func UpdateUserHandler(staff *Staff, logs *audit.Writer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body UpdateUserRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Cuerpo de la petición inválido")
		}

		before, err := staff.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo leer el usuario")
		}
		if before == nil {
			return c.SendStatus(fiber.StatusNoContent)
		}

		user, err := staff.Update(c.UserContext(), before.ID, UserUpdate{
			Name: body.Name, Role: body.Role, Email: body.Email, PIN: body.PIN,
		})
		if err != nil {
			if errors.Is(err, ErrInvalidUser) {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo actualizar el usuario")
		}
		if user == nil {
			return c.SendStatus(fiber.StatusNoContent)
		}

		if actor, err := CurrentActor(c); err == nil {
			logs.Record(audit.LogOptions{
				UserID:      actor.ID,
				UserName:    actor.Name,
				EntityType:  "user",
				EntityID:    user.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Usuario actualizado: %s", user.Name),
				Before:      toUserResponse(before),
				After:       toUserResponse(user),
			})
		}

		return c.JSON(toUserResponse(user))
	}
}

// DELETE /api/admin/users/:id
func DeleteUserHandler(staff *Staff, logs *audit.Writer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if err := staff.Delete(c.UserContext(), id); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo eliminar el usuario")
		}

		if actor, err := CurrentActor(c); err == nil {
			logs.Record(audit.LogOptions{
				UserID:      actor.ID,
				UserName:    actor.Name,
				EntityType:  "user",
				EntityID:    id,
				Action:      models.AuditActionDelete,
				Description: "Usuario eliminado",
			})
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}
