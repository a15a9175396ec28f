package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vipadm/api-mocker/internal/core/domain"
	"github.com/vipadm/api-mocker/internal/core/usecase"
)

type ctxKey string

const (
	userCtxKey      ctxKey = "user"
	maxJSONBodySize        = 1 << 20
)

type Handler struct {
	editService       *usecase.EditService
	definitionService *usecase.DefinitionService
	followService     *usecase.FollowService
	authService       *usecase.AuthService
}

func NewHandler(
	editService *usecase.EditService,
	definitionService *usecase.DefinitionService,
	followService *usecase.FollowService,
	authService *usecase.AuthService,
) *Handler {
	return &Handler{
		editService:       editService,
		definitionService: definitionService,
		followService:     followService,
		authService:       authService,
	}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", h.healthz)

	r.Group(func(pr chi.Router) {
		pr.Use(h.requireUser)
		pr.Get("/v1/apis", h.listAll)
		pr.Get("/v1/manage/apis", h.listManaged)

		pr.Get("/v1/groups/{groupID}/apis", h.listGroup)
		pr.Post("/v1/groups/{groupID}/apis", h.create)
		pr.Post("/v1/groups/{groupID}/apis:import", h.bulkImport)
		pr.Get("/v1/groups/{groupID}/apis/{apiID}", h.get)
		pr.Put("/v1/groups/{groupID}/apis/{apiID}", h.edit)
		pr.Delete("/v1/groups/{groupID}/apis/{apiID}", h.delete)

		pr.Put("/v1/apis/{apiID}/follower", h.follow)
		pr.Delete("/v1/apis/{apiID}/follower", h.unfollow)
	})

	return r
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type createRequest struct {
	Name        string          `json:"name"`
	URL         string          `json:"url"`
	Description string          `json:"description"`
	ProdURL     string          `json:"prod_url"`
	Options     json.RawMessage `json:"options"`
}

type importRequest struct {
	Items []createRequest `json:"items"`
}

// editRequest carries the whitelisted patch fields plus the definition
// modification time the client last saw, used by the notification gate.
// ModifiedAt is decoded leniently: an unparseable value is treated as
// missing, which fails the gate towards notifying.
type editRequest struct {
	Name        *string          `json:"name"`
	URL         *string          `json:"url"`
	Description *string          `json:"description"`
	ProdURL     *string          `json:"prod_url"`
	Options     *json.RawMessage `json:"options"`
	Manager     *string          `json:"manager"`
	ModifiedAt  *string          `json:"modified_at"`
}

type definitionWithHistory struct {
	Definition domain.Definition     `json:"definition"`
	History    []domain.HistoryEntry `json:"history"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupID")
	user := userFromContext(r.Context())

	var req createRequest
	if !decodeBody(w, r, &req) {
		return
	}

	def, err := h.definitionService.Create(r.Context(), groupID, toDraft(req), user.ID)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, def)
}

func (h *Handler) bulkImport(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupID")
	user := userFromContext(r.Context())

	var req importRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, "empty import")
		return
	}

	drafts := make([]usecase.Draft, 0, len(req.Items))
	for _, item := range req.Items {
		drafts = append(drafts, toDraft(item))
	}

	defs, err := h.definitionService.BulkCreate(r.Context(), groupID, drafts, user.ID)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"items": defs})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	apiID := chi.URLParam(r, "apiID")

	def, history, err := h.definitionService.Get(r.Context(), apiID)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, definitionWithHistory{Definition: def, History: history})
}

func (h *Handler) edit(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupID")
	apiID := chi.URLParam(r, "apiID")
	user := userFromContext(r.Context())

	var req editRequest
	if !decodeBody(w, r, &req) {
		return
	}

	patch := domain.Patch{
		Name:        req.Name,
		URL:         req.URL,
		Description: req.Description,
		ProdURL:     req.ProdURL,
		Options:     req.Options,
		Manager:     req.Manager,
	}

	result, err := h.editService.ApplyEdit(r.Context(), groupID, apiID, user.ID, patch, parseClientTime(req.ModifiedAt))
	if err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, definitionWithHistory{
		Definition: result.Definition,
		History:    result.History,
	})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupID")
	apiID := chi.URLParam(r, "apiID")

	if err := h.definitionService.SoftDelete(r.Context(), groupID, apiID); err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (h *Handler) listAll(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "")
}

func (h *Handler) listGroup(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, chi.URLParam(r, "groupID"))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, groupID string) {
	page, ok := parseIntParam(w, r, "page")
	if !ok {
		return
	}
	limit, ok := parseIntParam(w, r, "limit")
	if !ok {
		return
	}

	defs, pageInfo, err := h.definitionService.List(r.Context(), domain.SearchQuery{
		GroupID:         groupID,
		Text:            strings.TrimSpace(r.URL.Query().Get("q")),
		Page:            page,
		Limit:           limit,
		OrderByModified: r.URL.Query().Get("order") == "modified",
	})
	if err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"items": defs, "page_info": pageInfo})
}

func (h *Handler) listManaged(w http.ResponseWriter, r *http.Request) {
	defs, err := h.definitionService.ListManaged(r.Context())
	if err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"items": defs})
}

func (h *Handler) follow(w http.ResponseWriter, r *http.Request) {
	apiID := chi.URLParam(r, "apiID")
	user := userFromContext(r.Context())

	def, err := h.followService.Follow(r.Context(), apiID, user.ID)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, def)
}

func (h *Handler) unfollow(w http.ResponseWriter, r *http.Request) {
	apiID := chi.URLParam(r, "apiID")
	user := userFromContext(r.Context())

	def, err := h.followService.Unfollow(r.Context(), apiID, user.ID)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, def)
}

func (h *Handler) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimSpace(r.Header.Get("X-API-Key"))
		if token == "" {
			auth := strings.TrimSpace(r.Header.Get("Authorization"))
			if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
				token = strings.TrimSpace(auth[7:])
			}
		}

		user, err := h.authService.Authenticate(r.Context(), token)
		if err != nil {
			if errors.Is(err, usecase.ErrUnauthorized) {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		ctx := context.WithValue(r.Context(), userCtxKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func toDraft(req createRequest) usecase.Draft {
	return usecase.Draft{
		Name:        req.Name,
		URL:         req.URL,
		Description: req.Description,
		ProdURL:     req.ProdURL,
		Options:     req.Options,
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodySize)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return false
	}
	if err := ensureEOF(decoder); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return false
	}
	return true
}

// parseClientTime accepts RFC3339 or epoch milliseconds. A missing or
// unparseable value returns nil, which the gate treats as never-seen.
func parseClientTime(raw *string) *time.Time {
	if raw == nil {
		return nil
	}
	s := strings.TrimSpace(*raw)
	if s == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return &t
	}
	if millis, err := strconv.ParseInt(s, 10, 64); err == nil && millis > 0 {
		t := time.UnixMilli(millis).UTC()
		return &t
	}
	return nil
}

func parseIntParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		writeError(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return v, true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		log.Printf("encode json response: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(data, '\n')); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}

func handleDomainError(w http.ResponseWriter, err error) {
	var violation *domain.ErrOptionsViolation
	switch {
	case errors.Is(err, domain.ErrInvalidID), errors.Is(err, domain.ErrInvalidDefinition):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &violation):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "options rejected",
			"causes": violation.Errors,
		})
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrHistoryAppend):
		writeError(w, http.StatusInternalServerError, "edit saved but history append failed")
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func ensureEOF(decoder *json.Decoder) error {
	var extra json.RawMessage
	if err := decoder.Decode(&extra); err != nil {
		if err == io.EOF {
			return nil
		}
		return err
	}
	return errors.New("extra json tokens")
}

func userFromContext(ctx context.Context) domain.User {
	user, _ := ctx.Value(userCtxKey).(domain.User)
	return user
}
