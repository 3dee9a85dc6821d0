package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/esports-admin/services"
	"github.com/go-chi/chi/v5"
)

type BracketHandler struct {
	bracketService services.BracketService
}

func NewBracketHandler(bracketService services.BracketService) *BracketHandler {
	return &BracketHandler{bracketService: bracketService}
}

// Estimate godoc
// @Summary Оценить количество матчей
// @Description Считает число матчей и краткое описание для произвольной конфигурации сетки.
// @Tags brackets
// @Accept json
// @Produce json
// @Param input body services.EstimateInput true "Тип сетки, число команд и конфигурация"
// @Success 200 {object} services.EstimateResult
// @Failure 400 {object} map[string]string "Некорректное тело запроса"
// @Failure 401 {object} map[string]string "Неавторизован"
// @Failure 403 {object} map[string]string "Нет прав"
// @Security BearerAuth
// @Router /brackets/estimate [post]
func (h *BracketHandler) Estimate(w http.ResponseWriter, r *http.Request) {
	var input services.EstimateInput
	if err := readJSONLenient(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, h.bracketService.Estimate(input), nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetOverview godoc
// @Summary Сетка турнира
// @Description Конфигурация сетки, оценка числа матчей и текущий прогресс.
// @Tags brackets
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Success 200 {object} services.BracketOverview
// @Failure 400 {object} map[string]string "Некорректный ID"
// @Failure 404 {object} map[string]string "Турнир не найден"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/bracket [get]
func (h *BracketHandler) GetOverview(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	overview, err := h.bracketService.GetOverview(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, overview, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetProgress godoc
// @Summary Прогресс турнира
// @Tags brackets
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Success 200 {object} services.ProgressReport
// @Failure 404 {object} map[string]string "Турнир не найден"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/bracket/progress [get]
func (h *BracketHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	report, err := h.bracketService.GetProgress(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, report, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListProgress godoc
// @Summary Прогресс нескольких турниров
// @Description Неизвестные ID пропускаются.
// @Tags brackets
// @Produce json
// @Param ids query string true "Список ID через запятую, например 1,2,3"
// @Success 200 {array} services.ProgressReport
// @Failure 400 {object} map[string]string "Некорректный список ID"
// @Security BearerAuth
// @Router /tournaments/progress [get]
func (h *BracketHandler) ListProgress(w http.ResponseWriter, r *http.Request) {
	ids, err := parseIDList(r.URL.Query().Get("ids"))
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if len(ids) == 0 {
		badRequestResponse(w, r, errors.New("query parameter ids is required"))
		return
	}

	reports, err := h.bracketService.ListProgress(r.Context(), ids)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, reports, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SaveConfig godoc
// @Summary Сохранить конфигурацию сетки
// @Tags brackets
// @Accept json
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param input body services.EstimateInput true "Тип сетки, число команд и конфигурация"
// @Success 200 {object} services.BracketOverview
// @Failure 400 {object} map[string]string "Ошибка валидации"
// @Failure 404 {object} map[string]string "Турнир не найден"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/bracket/config [put]
func (h *BracketHandler) SaveConfig(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.EstimateInput
	if err := readJSONLenient(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	overview, err := h.bracketService.SaveConfiguration(r.Context(), tournamentID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, overview, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SaveState godoc
// @Summary Сохранить состояние сетки
// @Description Тело запроса - снимок сетки в том виде, в каком его хранит дашборд. Пустое тело сбрасывает состояние.
// @Tags brackets
// @Accept json
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Success 200 {object} services.ProgressReport
// @Failure 400 {object} map[string]string "Некорректный снимок"
// @Failure 404 {object} map[string]string "Турнир не найден"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/bracket/state [put]
func (h *BracketHandler) SaveState(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	raw, err := readRawJSON(w, r, maxSnapshotBytes)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	report, err := h.bracketService.SaveSnapshot(r.Context(), tournamentID, raw)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, report, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Generate godoc
// @Summary Сгенерировать сетку
// @Description Строит начальный снимок для single elimination или round robin по сохранённой конфигурации.
// @Tags brackets
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Success 201 {object} map[string]interface{} "Снимок и прогресс"
// @Failure 404 {object} map[string]string "Турнир не найден"
// @Failure 422 {object} map[string]string "Тип сетки не поддерживает генерацию"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/bracket/generate [post]
func (h *BracketHandler) Generate(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	snapshot, report, err := h.bracketService.GenerateSnapshot(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"snapshot": snapshot, "progress": report}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Export godoc
// @Summary Выгрузить сетку в хранилище
// @Tags brackets
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Success 201 {object} services.ExportResult
// @Failure 404 {object} map[string]string "Турнир не найден"
// @Failure 503 {object} map[string]string "Хранилище не настроено"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/bracket/export [post]
func (h *BracketHandler) Export(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.bracketService.ExportBracket(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeleteExport godoc
// @Summary Удалить выгрузку сетки
// @Tags brackets
// @Param tournamentID path int true "Tournament ID"
// @Param exportID path string true "Export ID (UUID)"
// @Success 204 "Удалено"
// @Failure 400 {object} map[string]string "Некорректный ID выгрузки"
// @Failure 404 {object} map[string]string "Турнир не найден"
// @Failure 503 {object} map[string]string "Хранилище не настроено"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/bracket/exports/{exportID} [delete]
func (h *BracketHandler) DeleteExport(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	err = h.bracketService.DeleteExport(r.Context(), tournamentID, chi.URLParam(r, "exportID"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
