package animals

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"geckohub/internal/domain/access"
	"geckohub/internal/middleware"
	"geckohub/internal/platform/dates"
	"geckohub/internal/platform/logger"
	"geckohub/internal/platform/optional"
	"geckohub/internal/platform/upload"
	"geckohub/internal/ports/blob"

	"github.com/go-chi/chi/v5"
)

// HistoryFunc devuelve el historial (ya serializable) de un animal. Lo provee
// el módulo events para no acoplar paquetes en ambas direcciones.
type HistoryFunc func(ctx context.Context, animalID int64) (any, error)

type Deps struct {
	Log            logger.Logger
	Blob           blob.Store
	MaxUploadBytes int64
	History        HistoryFunc
}

func RegisterRoutes(r chi.Router, svc *Service, deps Deps) {
	if deps.Log == nil {
		deps.Log = logger.NewNop()
	}
	h := &handlers{svc: svc, deps: deps}

	r.Route("/animals", func(ar chi.Router) {
		ar.Get("/", h.list())
		ar.Post("/", h.create())

		ar.Get("/{animalID}", h.get())
		ar.Put("/{animalID}", h.replace())
		ar.Patch("/{animalID}", h.update())
		ar.Delete("/{animalID}", h.delete())

		ar.Get("/{animalID}/events", h.history())
		ar.Get("/{animalID}/children", h.children())
		ar.Post("/{animalID}/image", h.uploadImage())
	})
}

type handlers struct {
	svc  *Service
	deps Deps
}

// animalRequest es el cuerpo de POST/PUT. `owner` se acepta pero se ignora.
type animalRequest struct {
	Owner             *int64          `json:"owner"`
	Name              string          `json:"name"`
	Morph             string          `json:"morph"`
	Description       string          `json:"description"`
	Gender            Gender          `json:"gender" enums:"Male,Female,Unknown"`
	BirthDate         string          `json:"birth_date"`    // YYYY-MM-DD opcional
	AdoptionDate      string          `json:"adoption_date"` // YYYY-MM-DD opcional
	Weight            *float64        `json:"weight"`
	AcquisitionType   AcquisitionType `json:"acquisition_type" enums:"Purchased,Hatched,Rescue"`
	AcquisitionSource string          `json:"acquisition_source"`
	IsOvulating       bool            `json:"is_ovulating"`
	TailLoss          bool            `json:"tail_loss"`
	MBD               bool            `json:"mbd"`
	HasSpots          bool            `json:"has_spots"`
	Sire              *int64          `json:"sire"`
	Dam               *int64          `json:"dam"`
	SireName          string          `json:"sire_name"`
	DamName           string          `json:"dam_name"`
}

// patchAnimalRequest: campo ausente = no tocar; null limpia los anulables.
type patchAnimalRequest struct {
	Name              *string                 `json:"name"`
	Morph             *string                 `json:"morph"`
	Description       *string                 `json:"description"`
	Gender            *Gender                 `json:"gender"`
	BirthDate         optional.Field[string]  `json:"birth_date" swaggertype:"string"`
	AdoptionDate      optional.Field[string]  `json:"adoption_date" swaggertype:"string"`
	Weight            optional.Field[float64] `json:"weight" swaggertype:"number"`
	AcquisitionType   *AcquisitionType        `json:"acquisition_type"`
	AcquisitionSource *string                 `json:"acquisition_source"`
	IsOvulating       *bool                   `json:"is_ovulating"`
	TailLoss          *bool                   `json:"tail_loss"`
	MBD               *bool                   `json:"mbd"`
	HasSpots          *bool                   `json:"has_spots"`
	Sire              optional.Field[int64]   `json:"sire" swaggertype:"integer"`
	Dam               optional.Field[int64]   `json:"dam" swaggertype:"integer"`
	SireName          *string                 `json:"sire_name"`
	DamName           *string                 `json:"dam_name"`
}

type animalResponse struct {
	ID                int64           `json:"id"`
	Owner             *int64          `json:"owner"`
	Name              string          `json:"name"`
	Morph             string          `json:"morph"`
	Description       string          `json:"description"`
	Gender            Gender          `json:"gender"`
	BirthDate         *dates.Date     `json:"birth_date" swaggertype:"string"`
	AdoptionDate      *dates.Date     `json:"adoption_date" swaggertype:"string"`
	Weight            *float64        `json:"weight"`
	AcquisitionType   AcquisitionType `json:"acquisition_type"`
	AcquisitionSource string          `json:"acquisition_source"`
	IsOvulating       bool            `json:"is_ovulating"`
	TailLoss          bool            `json:"tail_loss"`
	MBD               bool            `json:"mbd"`
	HasSpots          bool            `json:"has_spots"`
	ProfileImage      string          `json:"profile_image"`
	Sire              *int64          `json:"sire"`
	Dam               *int64          `json:"dam"`
	SireName          string          `json:"sire_name"`
	DamName           string          `json:"dam_name"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// animalDetailResponse es el detalle: resúmenes de padres + historial.
type animalDetailResponse struct {
	animalResponse
	SireDetail *Summary `json:"sire_detail"`
	DamDetail  *Summary `json:"dam_detail"`
	Logs       any      `json:"logs"`
}

// list godoc
// @Summary Listar animales
// @Description Devuelve los animales del caller (admin: todos). Anónimo recibe una lista vacía. Orden: created_at DESC.
// @Tags animals
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Success 200 {array} animalResponse
// @Failure 500 {object} map[string]string
// @Router /animals [get]
func (h *handlers) list() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := h.svc.List(r.Context(), middleware.Caller(r))
		if err != nil {
			access.WriteError(w, h.deps.Log, err)
			return
		}

		out := make([]animalResponse, 0, len(items))
		for _, a := range items {
			out = append(out, toAnimalResponse(a))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// create godoc
// @Summary Registrar animal
// @Description El dueño es siempre el caller; el campo `owner` del cuerpo se ignora.
// @Tags animals
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param payload body animalRequest true "Datos del animal"
// @Success 201 {object} animalResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /animals [post]
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

		a, err := h.svc.Create(r.Context(), caller, in)
		if err != nil {
			access.WriteError(w, h.deps.Log, err)
			return
		}
		writeJSON(w, http.StatusCreated, toAnimalResponse(a))
	}
}

// get godoc
// @Summary Detalle de animal
// @Description Lectura sin filtro de dueño. Incluye sire_detail, dam_detail y logs (eventos propios y como partner, fecha DESC).
// @Tags animals
// @Produce json
// @Param animalID path int true "ID del animal"
// @Success 200 {object} animalDetailResponse
// @Failure 404 {object} map[string]string
// @Router /animals/{animalID} [get]
func (h *handlers) get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r, h.deps.Log)
		if !ok {
			return
		}

		a, err := h.svc.Get(r.Context(), middleware.Caller(r), id)
		if err != nil {
			access.WriteError(w, h.deps.Log, err)
			return
		}

		resp, err := h.detail(r.Context(), a)
		if err != nil {
			access.WriteError(w, h.deps.Log, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// replace godoc
// @Summary Reemplazar animal
// @Tags animals
// @Accept json
// @Produce json
// @Param animalID path int true "ID del animal"
// @Param payload body animalRequest true "Datos completos del animal"
// @Success 200 {object} animalResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /animals/{animalID} [put]
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

		a, err := h.svc.Replace(r.Context(), middleware.Caller(r), id, in)
		if err != nil {
			access.WriteError(w, h.deps.Log, err)
			return
		}
		writeJSON(w, http.StatusOK, toAnimalResponse(a))
	}
}

// update godoc
// @Summary Actualizar animal (parcial)
// @Description Solo se modifican los campos enviados. Enviar null limpia birth_date, adoption_date, weight, sire o dam.
// @Tags animals
// @Accept json
// @Produce json
// @Param animalID path int true "ID del animal"
// @Param payload body patchAnimalRequest true "Campos a modificar"
// @Success 200 {object} animalResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /animals/{animalID} [patch]
func (h *handlers) update() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r, h.deps.Log)
		if !ok {
			return
		}

		var req patchAnimalRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			access.WriteError(w, h.deps.Log, access.Invalid("", "invalid json"))
			return
		}

		p, err := req.toPatch()
		if err != nil {
			access.WriteError(w, h.deps.Log, err)
			return
		}

		a, err := h.svc.Update(r.Context(), middleware.Caller(r), id, p)
		if err != nil {
			access.WriteError(w, h.deps.Log, err)
			return
		}
		writeJSON(w, http.StatusOK, toAnimalResponse(a))
	}
}

// delete godoc
// @Summary Borrar animal
// @Description Borra también sus eventos; las crías y los eventos donde figura como partner solo pierden la referencia.
// @Tags animals
// @Param animalID path int true "ID del animal"
// @Success 204
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /animals/{animalID} [delete]
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

// history godoc
// @Summary Historial de un animal
// @Description Eventos donde el animal es sujeto o partner, fecha DESC y luego id DESC.
// @Tags animals
// @Produce json
// @Param animalID path int true "ID del animal"
// @Success 200 {array} object
// @Failure 404 {object} map[string]string
// @Router /animals/{animalID}/events [get]
func (h *handlers) history() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r, h.deps.Log)
		if !ok {
			return
		}
		if _, err := h.svc.Get(r.Context(), middleware.Caller(r), id); err != nil {
			access.WriteError(w, h.deps.Log, err)
			return
		}

		logs, err := h.logs(r.Context(), id)
		if err != nil {
			access.WriteError(w, h.deps.Log, err)
			return
		}
		writeJSON(w, http.StatusOK, logs)
	}
}

// children godoc
// @Summary Crías de un animal
// @Tags animals
// @Produce json
// @Param animalID path int true "ID del animal"
// @Success 200 {array} animalResponse
// @Failure 404 {object} map[string]string
// @Router /animals/{animalID}/children [get]
func (h *handlers) children() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r, h.deps.Log)
		if !ok {
			return
		}
		items, err := h.svc.Children(r.Context(), id)
		if err != nil {
			access.WriteError(w, h.deps.Log, err)
			return
		}
		out := make([]animalResponse, 0, len(items))
		for _, a := range items {
			out = append(out, toAnimalResponse(a))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// uploadImage godoc
// @Summary Subir foto de perfil
// @Tags animals
// @Accept mpfd
// @Produce json
// @Param animalID path int true "ID del animal"
// @Param image formData file true "Imagen jpeg, png o webp"
// @Success 200 {object} animalResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /animals/{animalID}/image [post]
func (h *handlers) uploadImage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r, h.deps.Log)
		if !ok {
			return
		}
		caller := middleware.Caller(r)

		// Primero permisos: no subimos blobs que luego no se pueden asociar.
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
		url, err := upload.Save(r.Context(), h.deps.Blob, "animals", img)
		if err != nil {
			access.WriteError(w, h.deps.Log, err)
			return
		}

		a, err := h.svc.SetProfileImage(r.Context(), caller, id, url)
		if err != nil {
			access.WriteError(w, h.deps.Log, err)
			return
		}
		writeJSON(w, http.StatusOK, toAnimalResponse(a))
	}
}

func (h *handlers) detail(ctx context.Context, a Animal) (animalDetailResponse, error) {
	resp := animalDetailResponse{animalResponse: toAnimalResponse(a)}

	var ids []int64
	if a.SireID != nil {
		ids = append(ids, *a.SireID)
	}
	if a.DamID != nil {
		ids = append(ids, *a.DamID)
	}
	sums, err := h.svc.Summaries(ctx, ids)
	if err != nil {
		return animalDetailResponse{}, err
	}
	if a.SireID != nil {
		if s, ok := sums[*a.SireID]; ok {
			resp.SireDetail = &s
		}
	}
	if a.DamID != nil {
		if s, ok := sums[*a.DamID]; ok {
			resp.DamDetail = &s
		}
	}

	logs, err := h.logs(ctx, a.ID)
	if err != nil {
		return animalDetailResponse{}, err
	}
	resp.Logs = logs
	return resp, nil
}

func (h *handlers) logs(ctx context.Context, id int64) (any, error) {
	if h.deps.History == nil {
		return []any{}, nil
	}
	return h.deps.History(ctx, id)
}

func decodeInput(r *http.Request) (Input, error) {
	var req animalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return Input{}, access.Invalid("", "invalid json")
	}

	bd, err := dates.ParseOptional(req.BirthDate)
	if err != nil {
		return Input{}, access.Invalid("birth_date", "birth_date must be YYYY-MM-DD")
	}
	ad, err := dates.ParseOptional(req.AdoptionDate)
	if err != nil {
		return Input{}, access.Invalid("adoption_date", "adoption_date must be YYYY-MM-DD")
	}

	return Input{
		OwnerUserID:       req.Owner,
		Name:              req.Name,
		Morph:             req.Morph,
		Description:       req.Description,
		Gender:            req.Gender,
		BirthDate:         bd,
		AdoptionDate:      ad,
		Weight:            req.Weight,
		AcquisitionType:   req.AcquisitionType,
		AcquisitionSource: req.AcquisitionSource,
		IsOvulating:       req.IsOvulating,
		TailLoss:          req.TailLoss,
		MBD:               req.MBD,
		HasSpots:          req.HasSpots,
		SireID:            req.Sire,
		DamID:             req.Dam,
		SireName:          req.SireName,
		DamName:           req.DamName,
	}, nil
}

func (req patchAnimalRequest) toPatch() (Patch, error) {
	bd, err := parseDateField(req.BirthDate, "birth_date")
	if err != nil {
		return Patch{}, err
	}
	ad, err := parseDateField(req.AdoptionDate, "adoption_date")
	if err != nil {
		return Patch{}, err
	}

	return Patch{
		Name:              req.Name,
		Morph:             req.Morph,
		Description:       req.Description,
		Gender:            req.Gender,
		BirthDate:         bd,
		AdoptionDate:      ad,
		Weight:            req.Weight,
		AcquisitionType:   req.AcquisitionType,
		AcquisitionSource: req.AcquisitionSource,
		IsOvulating:       req.IsOvulating,
		TailLoss:          req.TailLoss,
		MBD:               req.MBD,
		HasSpots:          req.HasSpots,
		SireID:            req.Sire,
		DamID:             req.Dam,
		SireName:          req.SireName,
		DamName:           req.DamName,
	}, nil
}

// parseDateField: null o "" limpian la fecha.
func parseDateField(f optional.Field[string], field string) (optional.Field[time.Time], error) {
	if !f.Set {
		return optional.Field[time.Time]{}, nil
	}
	if f.Value == nil || *f.Value == "" {
		return optional.Null[time.Time](), nil
	}
	t, err := dates.Parse(*f.Value)
	if err != nil {
		return optional.Field[time.Time]{}, access.Invalid(field, field+" must be YYYY-MM-DD")
	}
	return optional.Some(t), nil
}

func parseID(w http.ResponseWriter, r *http.Request, log logger.Logger) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "animalID"), 10, 64)
	if err != nil || id <= 0 {
		access.WriteError(w, log, access.ErrNotFound)
		return 0, false
	}
	return id, true
}

func toAnimalResponse(a Animal) animalResponse {
	return animalResponse{
		ID:                a.ID,
		Owner:             a.OwnerUserID,
		Name:              a.Name,
		Morph:             a.Morph,
		Description:       a.Description,
		Gender:            a.Gender,
		BirthDate:         dates.Ptr(a.BirthDate),
		AdoptionDate:      dates.Ptr(a.AdoptionDate),
		Weight:            a.Weight,
		AcquisitionType:   a.AcquisitionType,
		AcquisitionSource: a.AcquisitionSource,
		IsOvulating:       a.IsOvulating,
		TailLoss:          a.TailLoss,
		MBD:               a.MBD,
		HasSpots:          a.HasSpots,
		ProfileImage:      a.ProfileImage,
		Sire:              a.SireID,
		Dam:               a.DamID,
		SireName:          a.SireName,
		DamName:           a.DamName,
		CreatedAt:         a.CreatedAt,
		UpdatedAt:         a.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
