package files

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"sjmc-records/internal/platform/logger"

	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

type RouteOptions struct {
	Logger logger.Logger

	// Middlewares opcionales; nil = passthrough.
	RequireAuth func(http.Handler) http.Handler
	Cache       func(http.Handler) http.Handler
}

func RegisterRoutes(r chi.Router, svc *Service, opts RouteOptions) {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	auth := orPassthrough(opts.RequireAuth)
	cached := orPassthrough(opts.Cache)

	r.With(auth, cached).Get("/stats", statsHandler(svc, log))

	for _, sch := range Schemas() {
		c := sch.Category
		r.Route("/"+string(c), func(fr chi.Router) {
			fr.With(cached).Get("/", listFilesHandler(svc, c, log))
			fr.With(auth).Post("/", createFileHandler(svc, c, log))

			fr.With(cached).Get("/{id}", getFileHandler(svc, c, log))

			// La UI usa PUT; ambos son update parcial.
			fr.With(auth).Put("/{id}", updateFileHandler(svc, c, log))
			fr.With(auth).Patch("/{id}", updateFileHandler(svc, c, log))

			fr.With(auth).Delete("/{id}", deleteFileHandler(svc, c, log))
		})
	}
}

// statsHandler godoc
// @Summary Estadísticas del dashboard
// @Description Por categoría: total, registrados en los últimos 7 días, vencidos y activos (active + expired = total).
// @Tags stats
// @Produce json
// @Security BearerAuth
// @Success 200 {object} DashboardStats
// @Failure 401 {object} errorResponse "Authentication token required"
// @Failure 403 {object} errorResponse "Invalid or expired token"
// @Failure 500 {object} errorResponse "Error fetching stats"
// @Router /api/stats [get]
func statsHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := svc.Stats(r.Context())
		if err != nil {
			log.Error("stats failed", map[string]any{"err": err})
			writeError(w, http.StatusInternalServerError, "Error fetching stats")
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

// listFilesHandler godoc
// @Summary Listar expedientes
// @Description Devuelve todos los expedientes de la categoría ordenados por registrationDate descendente.
// @Tags files
// @Produce json
// @Param category path string true "Categoría" Enums(personal, family, referral, emergency)
// @Success 200 {array} object
// @Failure 500 {object} errorResponse "Error fetching files"
// @Router /api/{category} [get]
func listFilesHandler(svc *Service, c Category, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.List(r.Context(), c)
		if err != nil {
			log.Error("list files failed", map[string]any{"category": c, "err": err})
			writeError(w, http.StatusInternalServerError, "Error fetching files")
			return
		}

		now := time.Now()
		out := make([]map[string]any, 0, len(items))
		for _, f := range items {
			out = append(out, toFileResponse(f, now))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// getFileHandler godoc
// @Summary Obtener un expediente
// @Tags files
// @Produce json
// @Param category path string true "Categoría" Enums(personal, family, referral, emergency)
// @Param id path string true "ID del expediente"
// @Success 200 {object} object
// @Failure 404 {object} errorResponse "File not found"
// @Failure 500 {object} errorResponse "Error fetching file"
// @Router /api/{category}/{id} [get]
func getFileHandler(svc *Service, c Category, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		f, err := svc.Get(r.Context(), c, id)
		if err != nil {
			writeServiceError(w, log, err, "get", c, id)
			return
		}
		writeJSON(w, http.StatusOK, toFileResponse(f, time.Now()))
	}
}

// createFileHandler godoc
// @Summary Crear expediente
// @Description Todos los campos de la categoría son obligatorios. Si no vienen registrationDate/expiryDate se usan hoy y hoy + horizonte (personal/emergency 1 año, family 2, referral 5).
// @Tags files
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param category path string true "Categoría" Enums(personal, family, referral, emergency)
// @Param payload body object true "Campos de la categoría"
// @Success 201 {object} object
// @Failure 400 {object} errorResponse "Missing required fields"
// @Failure 401 {object} errorResponse "Authentication token required"
// @Failure 500 {object} errorResponse "Error creating file"
// @Router /api/{category} [post]
func createFileHandler(svc *Service, c Category, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, ok := decodeInput(w, r, c)
		if !ok {
			return
		}

		f, err := svc.Create(r.Context(), c, in)
		if err != nil {
			writeServiceError(w, log, err, "create", c, "")
			return
		}
		writeJSON(w, http.StatusCreated, toFileResponse(f, time.Now()))
	}
}

// updateFileHandler godoc
// @Summary Actualizar expediente (parcial)
// @Description Sólo se modifican los campos presentes en el body. Body vacío = no-op.
// @Tags files
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param category path string true "Categoría" Enums(personal, family, referral, emergency)
// @Param id path string true "ID del expediente"
// @Param payload body object true "Campos a modificar"
// @Success 200 {object} object
// @Failure 400 {object} errorResponse "invalid input"
// @Failure 404 {object} errorResponse "File not found"
// @Failure 500 {object} errorResponse "Error updating file"
// @Router /api/{category}/{id} [put]
// @Router /api/{category}/{id} [patch]
func updateFileHandler(svc *Service, c Category, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		in, ok := decodeInput(w, r, c)
		if !ok {
			return
		}

		f, err := svc.Update(r.Context(), c, id, in)
		if err != nil {
			writeServiceError(w, log, err, "update", c, id)
			return
		}
		writeJSON(w, http.StatusOK, toFileResponse(f, time.Now()))
	}
}

// deleteFileHandler godoc
// @Summary Borrar expediente
// @Description Borrado definitivo. Responde 204 aunque el id no exista.
// @Tags files
// @Security BearerAuth
// @Param category path string true "Categoría" Enums(personal, family, referral, emergency)
// @Param id path string true "ID del expediente"
// @Success 204
// @Failure 500 {object} errorResponse "Error deleting file"
// @Router /api/{category}/{id} [delete]
func deleteFileHandler(svc *Service, c Category, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		removed, err := svc.Delete(r.Context(), c, id)
		if err != nil {
			writeServiceError(w, log, err, "delete", c, id)
			return
		}
		if !removed {
			log.Debug("delete: nothing to remove", map[string]any{"category": c, "id": id})
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type errorResponse struct {
	Message string `json:"message"`
}

// decodeInput lee el body como map para distinguir ausente de vacío.
func decodeInput(w http.ResponseWriter, r *http.Request, c Category) (Input, bool) {
	sch, ok := SchemaFor(c)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown category")
		return Input{}, false
	}

	var raw map[string]json.RawMessage
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return Input{}, false
	}

	in, err := sch.DecodeInput(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return Input{}, false
	}
	return in, true
}

func writeServiceError(w http.ResponseWriter, log logger.Logger, err error, op string, c Category, id string) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "File not found")
	default:
		log.Error("file operation failed", map[string]any{"op": op, "category": c, "id": id, "err": err})
		switch op {
		case "create":
			writeError(w, http.StatusInternalServerError, "Error creating file")
		case "update":
			writeError(w, http.StatusInternalServerError, "Error updating file")
		case "delete":
			writeError(w, http.StatusInternalServerError, "Error deleting file")
		default:
			writeError(w, http.StatusInternalServerError, "Error fetching file")
		}
	}
}

// toFileResponse aplana Values junto a id/fechas y agrega el status derivado.
func toFileResponse(f File, now time.Time) map[string]any {
	out := make(map[string]any, len(f.Values)+4)
	for k, v := range f.Values {
		out[k] = v
	}
	out["id"] = f.ID
	out[KeyRegistrationDate] = f.RegistrationDate.UTC().Format(time.RFC3339Nano)
	out[KeyExpiryDate] = f.ExpiryDate.UTC().Format(time.RFC3339Nano)
	out["status"] = f.Status(now)
	return out
}

func orPassthrough(mw func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	if mw == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return mw
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
