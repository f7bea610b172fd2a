package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/carroceria-sur/taller/pkg/georef"
)

type errorResponse struct {
	Message string   `json:"message"`
	Errors  []string `json:"errors"`
}

type provincesResponse struct {
	Count     int               `json:"cantidad"`
	Provinces []georef.Province `json:"provincias"`
}

type localitiesResponse struct {
	Count      int               `json:"cantidad"`
	Localities []georef.Locality `json:"localidades"`
}

type addressesResponse struct {
	Count     int              `json:"cantidad"`
	Addresses []georef.Address `json:"direcciones"`
}

func (s *Server) handleProvinces(w http.ResponseWriter, r *http.Request) {
	max, ok := parseMax(w, r, s.limits.Provinces)
	if !ok {
		return
	}
	got, err := s.client.Provinces(r.Context(), r.URL.Query().Get("nombre"), max)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, provincesResponse{Count: len(got), Provinces: got})
}

func (s *Server) handleLocalities(w http.ResponseWriter, r *http.Request) {
	max, ok := parseMax(w, r, s.limits.Localities)
	if !ok {
		return
	}
	got, err := s.client.Localities(r.Context(), chi.URLParam(r, "provinciaID"), r.URL.Query().Get("nombre"), max)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, localitiesResponse{Count: len(got), Localities: got})
}

func (s *Server) handleAllLocalities(w http.ResponseWriter, r *http.Request) {
	got, err := s.client.AllLocalities(r.Context(), chi.URLParam(r, "provinciaID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, localitiesResponse{Count: len(got), Localities: got})
}

func (s *Server) handleSearchLocalities(w http.ResponseWriter, r *http.Request) {
	max, ok := parseMax(w, r, s.limits.Search)
	if !ok {
		return
	}
	q := r.URL.Query()
	got, err := s.client.SearchLocalities(r.Context(), q.Get("q"), q.Get("provincia"), max)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, localitiesResponse{Count: len(got), Localities: got})
}

func (s *Server) handleNormalizeAddress(w http.ResponseWriter, r *http.Request) {
	max, ok := parseMax(w, r, s.limits.Addresses)
	if !ok {
		return
	}
	q := r.URL.Query()
	got, err := s.client.NormalizeAddress(r.Context(), georef.AddressQuery{
		Address:    q.Get("direccion"),
		ProvinceID: q.Get("provincia"),
		LocalityID: q.Get("localidad"),
		Max:        max,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, addressesResponse{Count: len(got), Addresses: got})
}

// parseMax reads the optional max query parameter. Absent means 0 (client
// default); values above limit are clamped to it.
func parseMax(w http.ResponseWriter, r *http.Request, limit int) (int, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get("max"))
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Message: "Parámetros de búsqueda inválidos",
			Errors:  []string{"max debe ser un entero no negativo"},
		})
		return 0, false
	}
	return min(n, limit), true
}

// statusFor maps a client error kind to an HTTP status.
func statusFor(kind georef.ErrorKind) int {
	switch kind {
	case georef.KindValidation, georef.KindBadRequest:
		return http.StatusBadRequest
	case georef.KindRateLimited:
		return http.StatusTooManyRequests
	case georef.KindNetwork:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if ctxErr := r.Context().Err(); ctxErr != nil {
		// Client went away; nobody reads the response.
		zap.L().Debug("request cancelled", zap.String("request_id", RequestID(r.Context())), zap.Error(ctxErr))
		return
	}

	kind := georef.KindOf(err)
	status := statusFor(kind)
	resp := errorResponse{Message: err.Error(), Errors: []string{kind.String()}}

	var ge *georef.Error
	if !errors.As(err, &ge) {
		resp.Message = "Error al consultar el servicio de georreferenciación"
	}

	zap.L().Warn("georef lookup failed",
		zap.String("request_id", RequestID(r.Context())),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.Error(err),
	)
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("write response", zap.Error(err))
	}
}
