package handlers

import (
	"net/http"

	"github.com/Dosada05/esports-admin/middleware"
	"github.com/Dosada05/esports-admin/models"
	"github.com/Dosada05/esports-admin/permissions"
	"github.com/Dosada05/esports-admin/services"
)

type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

type setPermissionsRequest struct {
	Permissions []models.PermissionRecord `json:"permissions"`
}

// CreateUser godoc
// @Summary Создать пользователя админки
// @Tags users
// @Accept json
// @Produce json
// @Param input body services.CreateUserInput true "Данные пользователя"
// @Success 201 {object} models.User
// @Failure 400 {object} map[string]string "Ошибка валидации"
// @Failure 409 {object} map[string]string "Email уже занят"
// @Security BearerAuth
// @Router /users [post]
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var input services.CreateUserInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	user, err := h.userService.CreateUser(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, user, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetUser godoc
// @Summary Пользователь и его права
// @Tags users
// @Produce json
// @Param userID path int true "User ID"
// @Success 200 {object} models.User
// @Failure 404 {object} map[string]string "Пользователь не найден"
// @Security BearerAuth
// @Router /users/{userID} [get]
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	user, err := h.userService.GetUser(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, user, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SetPermissions godoc
// @Summary Заменить права пользователя
// @Description Записи с одной сущностью объединяются.
// @Tags users
// @Accept json
// @Produce json
// @Param userID path int true "User ID"
// @Param input body setPermissionsRequest true "Новый набор прав"
// @Success 200 {object} map[string]interface{} "Сохранённые права"
// @Failure 400 {object} map[string]string "Неизвестное действие или пустая сущность"
// @Failure 404 {object} map[string]string "Пользователь не найден"
// @Security BearerAuth
// @Router /users/{userID}/permissions [put]
func (h *UserHandler) SetPermissions(w http.ResponseWriter, r *http.Request) {
	userID, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input setPermissionsRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	saved, err := h.userService.SetPermissions(r.Context(), userID, input.Permissions)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"permissions": saved}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// MyPermissions godoc
// @Summary Матрица прав текущего пользователя
// @Description По каждой сущности дашборда: create/read/update/delete.
// @Tags users
// @Produce json
// @Success 200 {object} map[string]interface{} "user_id, is_admin, capabilities"
// @Failure 401 {object} map[string]string "Неавторизован"
// @Security BearerAuth
// @Router /me/permissions [get]
func (h *UserHandler) MyPermissions(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}
	engine := middleware.EngineFromContext(r.Context())

	response := jsonResponse{
		"user_id":      userID,
		"is_admin":     engine.IsAdmin(),
		"capabilities": engine.Capabilities(permissions.Entities...),
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
