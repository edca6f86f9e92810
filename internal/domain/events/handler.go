package events

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"geckohub/internal/domain/access"
	"geckohub/internal/domain/animals"
	"geckohub/internal/middleware"
	"geckohub/internal/platform/dates"
	"geckohub/internal/platform/logger"
	"geckohub/internal/platform/optional"
	"geckohub/internal/platform/upload"
	"geckohub/internal/ports/blob"

	"github.com/go-chi/chi/v5"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

type Deps struct {
	Log            logger.Logger
	Blob           blob.Store
	MaxUploadBytes int64
}

func RegisterRoutes(r chi.Router, svc *Service, deps Deps) {
	if deps.Log == nil {
		deps.Log = logger.NewNop()
	}
	h := &handlers{svc: svc, deps: deps}

	r.Route("/events", func(er chi.Router) {
		er.Get("/", h.list())
		er.Post("/", h.create())

		// Vista de incubadora (antes de /{eventID} para que no lo capture).
		er.Get("/incubator", h.incubator())

		er.Get("/{eventID}", h.get())
		er.Put("/{eventID}", h.replace())
		er.Patch("/{eventID}", h.update())
		er.Delete("/{eventID}", h.delete())
		er.Post("/{eventID}/image", h.uploadImage())
	})
}

// HistoryResponder adapta History al formato de respuesta para el detalle
// de animal (logs) y GET /animals/{id}/events.
func HistoryResponder(svc *Service) animals.HistoryFunc {
	return func(ctx context.Context, animalID int64) (any, error) {
		items, err := svc.History(ctx, animalID)
		if err != nil {
			return nil, err
		}
		return toEventResponses(ctx, svc, items)
	}
}

type handlers struct {
	svc  *Service
	deps Deps
}

// eventRequest es el cuerpo de POST/PUT.
type eventRequest struct {
	Subject           int64     `json:"subject"`
	Type              EventType `json:"type" enums:"Feeding,Weight,Shedding,Cleaning,Mating,Laying,Other"`
	Date              string    `json:"date"` // YYYY-MM-DD
	Weight            *float64  `json:"weight"`
	Note              string    `json:"note"`
	Partner           *int64    `json:"partner"`
	PartnerName       string    `json:"partner_name"`
	MatingSuccess     bool      `json:"mating_success"`
	IsFertile         bool      `json:"is_fertile"`
	EggCount          *int      `json:"egg_count"`
	EggCondition      string    `json:"egg_condition"`
	IncubationTemp    *float64  `json:"incubation_temp"`
	ExpectedHatchDate string    `json:"expected_hatch_date"` // YYYY-MM-DD opcional
	ExpectedMorph     string    `json:"expected_morph"`
}

type patchEventRequest struct {
	Subject           *int64                  `json:"subject"`
	Type              *EventType              `json:"type"`
	Date              *string                 `json:"date"`
	Weight            optional.Field[float64] `json:"weight" swaggertype:"number"`
	Note              *string                 `json:"note"`
	Partner           optional.Field[int64]   `json:"partner" swaggertype:"integer"`
	PartnerName       *string                 `json:"partner_name"`
	MatingSuccess     *bool                   `json:"mating_success"`
	IsFertile         *bool                   `json:"is_fertile"`
	EggCount          optional.Field[int]     `json:"egg_count" swaggertype:"integer"`
	EggCondition      *string                 `json:"egg_condition"`
	IncubationTemp    optional.Field[float64] `json:"incubation_temp" swaggertype:"number"`
	ExpectedHatchDate optional.Field[string]  `json:"expected_hatch_date" swaggertype:"string"`
	ExpectedMorph     *string                 `json:"expected_morph"`
}

type eventResponse struct {
	ID                int64            `json:"id"`
	Subject           int64            `json:"subject"`
	SubjectDetail     *animals.Summary `json:"subject_detail"`
	Type              EventType        `json:"type"`
	Date              dates.Date       `json:"date" swaggertype:"string"`
	Weight            *float64         `json:"weight"`
	Note              string           `json:"note"`
	Image             string           `json:"image"`
	Partner           *int64           `json:"partner"`
	PartnerDetail     *animals.Summary `json:"partner_detail"`
	PartnerName       string           `json:"partner_name"`
	MatingSuccess     bool             `json:"mating_success"`
	IsFertile         bool             `json:"is_fertile"`
	EggCount          *int             `json:"egg_count"`
	EggCondition      string           `json:"egg_condition"`
	IncubationTemp    *float64         `json:"incubation_temp"`
	ExpectedHatchDate *dates.Date      `json:"expected_hatch_date" swaggertype:"string"`
	ExpectedMorph     string           `json:"expected_morph"`
	CreatedAt         time.Time        `json:"created_at"`
}

// list godoc
// @Summary Listar eventos
// @Description Eventos de los animales del caller (admin: todos; anónimo: lista vacía). Orden: date DESC, id DESC.
// @Tags events
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param subject query int false "Solo eventos de este animal"
// @Param limit query int false "Máximo de eventos a devolver (1-200). Por defecto 50"
// @Param types query string false "Lista CSV de tipos (ej: Feeding,Laying)"
// @Param from query string false "Fecha mínima (YYYY-MM-DD)"
// @Param to query string false "Fecha máxima (YYYY-MM-DD)"
// @Param q query string false "Texto libre en nota, partner_name y expected_morph"
// @Success 200 {array} eventResponse
// @Failure 400 {object} map[string]string
// @Router /events [get]
func (h *handlers) list() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := parseListFilter(r)
		if err != nil {
			access.WriteError(w, h.deps.Log, err)
			return
		}

		items, err := h.svc.List(r.Context(), middleware.Caller(r), filter)
		if err != nil {
			access.WriteError(w, h.deps.Log, err)
			return
		}
		h.writeEvents(w, r, http.StatusOK, items)
	}
}

// create godoc
// @Summary Registrar evento
// @Description El caller debe ser dueño del animal `subject` (o admin). En puestas (Laying) con incubation_temp de la tabla y sin expected_hatch_date, la fecha estimada se calcula sola.
// @Tags events
// @Accept json
// @Produce json
// @Param payload body eventRequest true "Datos del evento"
// @Success 201 {object} eventResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /events [post]
func (h *handlers) create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := middleware.Caller(r)
		if !caller.Authenticated() {
			access.WriteError(w, h.deps.Log, access.ErrUnauthorized)
			return
		}

		in, err := decodeInput(r)
		if err != nil {
			access.WriteError(w, h.deps.Log, err)
			return
		}

		e, err := h.svc.Create(r.Context(), caller, in)
		if err != nil {
			access.WriteError(w, h.deps.Log, err)
			return
		}
		h.writeEvent(w, r, http.StatusCreated, e)
	}
}

// incubator godoc
// @Summary Vista de incubadora
// @Description Puestas del caller con fecha estimada de eclosión, la más próxima primero.
// @Tags events
// @Produce json
// @Success 200 {array} eventResponse
// @Router /events/incubator [get]
func (h *handlers) incubator() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := h.svc.Incubating(r.Context(), middleware.Caller(r))
		if err != nil {
			access.WriteError(w, h.deps.Log, err)
			return
		}
		h.writeEvents(w, r, http.StatusOK, items)
	}
}

// get godoc
// @Summary Detalle de evento
// @Tags events
// @Produce json
// @Param eventID path int true "ID del evento"
// @Success 200 {object} eventResponse
// @Failure 404 {object} map[string]string
// @Router /events/{eventID} [get]
func (h *handlers) get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r, h.deps.Log)
		if !ok {
			return
		}
		e, err := h.svc.Get(r.Context(), middleware.Caller(r), id)
		if err != nil {
			access.WriteError(w, h.deps.Log, err)
			return
		}
		h.writeEvent(w, r, http.StatusOK, e)
	}
}

// replace godoc
// @Summary Reemplazar evento
// @Tags events
// @Accept json
// @Produce json
// @Param eventID path int true "ID del evento"
// @Param payload body eventRequest true "Datos completos del evento"
// @Success 200 {object} eventResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /events/{eventID} [put]
func (h *handlers) replace() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r, h.deps.Log)
		if !ok {
			return
		}
		in, err := decodeInput(r)
		if err != nil {
			access.WriteError(w, h.deps.Log, err)
			return
		}
		e, err := h.svc.Replace(r.Context(), middleware.Caller(r), id, in)
		if err != nil {
			access.WriteError(w, h.deps.Log, err)
			return
		}
		h.writeEvent(w, r, http.StatusOK, e)
	}
}

// update godoc
// @Summary Actualizar evento (parcial)
// @Description Solo se modifican los campos enviados; null limpia los campos anulables.
// @Tags events
// @Accept json
// @Produce json
// @Param eventID path int true "ID del evento"
// @Param payload body patchEventRequest true "Campos a modificar"
// @Success 200 {object} eventResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /events/{eventID} [patch]
func (h *handlers) update() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r, h.deps.Log)
		if !ok {
			return
		}

		var req patchEventRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			access.WriteError(w, h.deps.Log, access.Invalid("", "invalid json"))
			return
		}
		p, err := req.toPatch()
		if err != nil {
			access.WriteError(w, h.deps.Log, err)
			return
		}

		e, err := h.svc.Update(r.Context(), middleware.Caller(r), id, p)
		if err != nil {
			access.WriteError(w, h.deps.Log, err)
			return
		}
		h.writeEvent(w, r, http.StatusOK, e)
	}
}

// delete godoc
// @Summary Borrar evento
// @Tags events
// @Param eventID path int true "ID del evento"
// @Success 204
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /events/{eventID} [delete]
func (h *handlers) delete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r, h.deps.Log)
		if !ok {
			return
		}
		if err := h.svc.Delete(r.Context(), middleware.Caller(r), id); err != nil {
			access.WriteError(w, h.deps.Log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// uploadImage godoc
// @Summary Adjuntar foto al evento
// @Tags events
// @Accept mpfd
// @Produce json
// @Param eventID path int true "ID del evento"
// @Param image formData file true "Imagen jpeg, png o webp"
// @Success 200 {object} eventResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /events/{eventID}/image [post]
func (h *handlers) uploadImage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r, h.deps.Log)
		if !ok {
			return
		}
		caller := middleware.Caller(r)

		if err := h.svc.CheckMutable(r.Context(), caller, id); err != nil {
			access.WriteError(w, h.deps.Log, err)
			return
		}
		if h.deps.Blob == nil {
			access.WriteError(w, h.deps.Log, access.Invalid("image", "image uploads are disabled"))
			return
		}

		img, err := upload.ReadImage(r, "image", h.deps.MaxUploadBytes)
		if err != nil {
			access.WriteError(w, h.deps.Log, err)
			return
		}
		url, err := upload.Save(r.Context(), h.deps.Blob, "events", img)
		if err != nil {
			access.WriteError(w, h.deps.Log, err)
			return
		}

		e, err := h.svc.SetImage(r.Context(), caller, id, url)
		if err != nil {
			access.WriteError(w, h.deps.Log, err)
			return
		}
		h.writeEvent(w, r, http.StatusOK, e)
	}
}

func (h *handlers) writeEvent(w http.ResponseWriter, r *http.Request, status int, e Event) {
	out, err := toEventResponses(r.Context(), h.svc, []Event{e})
	if err != nil {
		access.WriteError(w, h.deps.Log, err)
		return
	}
	writeJSON(w, status, out[0])
}

func (h *handlers) writeEvents(w http.ResponseWriter, r *http.Request, status int, items []Event) {
	out, err := toEventResponses(r.Context(), h.svc, items)
	if err != nil {
		access.WriteError(w, h.deps.Log, err)
		return
	}
	writeJSON(w, status, out)
}

func decodeInput(r *http.Request) (CreateInput, error) {
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return CreateInput{}, access.Invalid("", "invalid json")
	}

	if strings.TrimSpace(req.Date) == "" {
		return CreateInput{}, access.Invalid("date", "date is required")
	}
	d, err := dates.Parse(req.Date)
	if err != nil {
		return CreateInput{}, access.Invalid("date", "date must be YYYY-MM-DD")
	}
	hatch, err := dates.ParseOptional(req.ExpectedHatchDate)
	if err != nil {
		return CreateInput{}, access.Invalid("expected_hatch_date", "expected_hatch_date must be YYYY-MM-DD")
	}

	return CreateInput{
		SubjectID:         req.Subject,
		Type:              req.Type,
		Date:              d,
		Weight:            req.Weight,
		Note:              req.Note,
		PartnerID:         req.Partner,
		PartnerName:       req.PartnerName,
		MatingSuccess:     req.MatingSuccess,
		IsFertile:         req.IsFertile,
		EggCount:          req.EggCount,
		EggCondition:      req.EggCondition,
		IncubationTemp:    req.IncubationTemp,
		ExpectedHatchDate: hatch,
		ExpectedMorph:     req.ExpectedMorph,
	}, nil
}

func (req patchEventRequest) toPatch() (Patch, error) {
	p := Patch{
		SubjectID:      req.Subject,
		Type:           req.Type,
		Weight:         req.Weight,
		Note:           req.Note,
		PartnerID:      req.Partner,
		PartnerName:    req.PartnerName,
		MatingSuccess:  req.MatingSuccess,
		IsFertile:      req.IsFertile,
		EggCount:       req.EggCount,
		EggCondition:   req.EggCondition,
		IncubationTemp: req.IncubationTemp,
		ExpectedMorph:  req.ExpectedMorph,
	}

	if req.Date != nil {
		d, err := dates.Parse(*req.Date)
		if err != nil {
			return Patch{}, access.Invalid("date", "date must be YYYY-MM-DD")
		}
		p.Date = &d
	}

	if req.ExpectedHatchDate.Set {
		switch {
		case req.ExpectedHatchDate.Value == nil || *req.ExpectedHatchDate.Value == "":
			p.ExpectedHatchDate = optional.Null[time.Time]()
		default:
			d, err := dates.Parse(*req.ExpectedHatchDate.Value)
			if err != nil {
				return Patch{}, access.Invalid("expected_hatch_date", "expected_hatch_date must be YYYY-MM-DD")
			}
			p.ExpectedHatchDate = optional.Some(d)
		}
	}
	return p, nil
}

func parseListFilter(r *http.Request) (ListFilter, error) {
	q := r.URL.Query()

	limit := defaultLimit
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= maxLimit {
			limit = n
		}
	}

	filter := ListFilter{Limit: limit}

	if v := strings.TrimSpace(q.Get("subject")); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return ListFilter{}, access.Invalid("subject", "subject must be a positive integer")
		}
		filter.SubjectID = &id
	}

	// types=Feeding,Laying
	if v := strings.TrimSpace(q.Get("types")); v != "" {
		parts := strings.Split(v, ",")
		out := make([]EventType, 0, len(parts))
		for _, p := range parts {
			if strings.TrimSpace(p) == "" {
				continue
			}
			t, ok := ParseType(p)
			if !ok {
				return ListFilter{}, access.Invalid("types", "unknown event type "+strings.TrimSpace(p))
			}
			out = append(out, t)
		}
		if len(out) > 0 {
			filter.Types = out
		}
	}

	if v := strings.TrimSpace(q.Get("from")); v != "" {
		t, err := dates.Parse(v)
		if err != nil {
			return ListFilter{}, access.Invalid("from", "from must be YYYY-MM-DD")
		}
		filter.From = &t
	}
	if v := strings.TrimSpace(q.Get("to")); v != "" {
		t, err := dates.Parse(v)
		if err != nil {
			return ListFilter{}, access.Invalid("to", "to must be YYYY-MM-DD")
		}
		filter.To = &t
	}

	if v := strings.TrimSpace(q.Get("q")); v != "" {
		filter.Query = v
	}

	return filter, nil
}

func parseID(w http.ResponseWriter, r *http.Request, log logger.Logger) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "eventID"), 10, 64)
	if err != nil || id <= 0 {
		access.WriteError(w, log, access.ErrNotFound)
		return 0, false
	}
	return id, true
}

func toEventResponses(ctx context.Context, svc *Service, items []Event) ([]eventResponse, error) {
	sums, err := svc.Summaries(ctx, items)
	if err != nil {
		return nil, err
	}

	out := make([]eventResponse, 0, len(items))
	for _, e := range items {
		resp := toEventResponse(e)
		if s, ok := sums[e.SubjectID]; ok {
			resp.SubjectDetail = &s
		}
		if e.PartnerID != nil {
			if s, ok := sums[*e.PartnerID]; ok {
				resp.PartnerDetail = &s
			}
		}
		out = append(out, resp)
	}
	return out, nil
}

func toEventResponse(e Event) eventResponse {
	return eventResponse{
		ID:                e.ID,
		Subject:           e.SubjectID,
		Type:              e.Type,
		Date:              dates.Date(e.Date),
		Weight:            e.Weight,
		Note:              e.Note,
		Image:             e.Image,
		Partner:           e.PartnerID,
		PartnerName:       e.PartnerName,
		MatingSuccess:     e.MatingSuccess,
		IsFertile:         e.IsFertile,
		EggCount:          e.EggCount,
		EggCondition:      e.EggCondition,
		IncubationTemp:    e.IncubationTemp,
		ExpectedHatchDate: dates.Ptr(e.ExpectedHatchDate),
		ExpectedMorph:     e.ExpectedMorph,
		CreatedAt:         e.CreatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
