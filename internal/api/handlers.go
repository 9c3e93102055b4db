// Package api exposes the control surface over HTTP: REST endpoints for
// fixture and output commands, plus a websocket event stream. Handlers
// never touch engine state directly; every mutation and read runs on the
// controller's tick goroutine via Do.
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/bbernstein/stagelights-go/internal/controller"
	"github.com/bbernstein/stagelights-go/internal/services/dmx"
	"github.com/bbernstein/stagelights-go/internal/services/fixture"
	"github.com/bbernstein/stagelights-go/internal/services/pubsub"
	"github.com/bbernstein/stagelights-go/internal/services/rdm"
)

// Handler serves the control API for one controller instance.
type Handler struct {
	ctrl   *controller.Controller
	events *pubsub.PubSub
}

// NewHandler creates the API handler.
func NewHandler(ctrl *controller.Controller, events *pubsub.PubSub) *Handler {
	return &Handler{ctrl: ctrl, events: events}
}

// Routes mounts all API endpoints on a chi router.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/fixtures", h.listFixtures)
		r.Post("/fixtures", h.registerFixture)
		r.Delete("/fixtures/{id}", h.unregisterFixture)

		r.Post("/fixtures/{id}/intensity", h.setIntensity)
		r.Post("/fixtures/{id}/color", h.setColor)
		r.Post("/fixtures/{id}/channel", h.setChannel)
		r.Post("/fixtures/{id}/fade", h.startFade)

		r.Post("/all-off", h.allOff)

		r.Get("/nodes", h.listNodes)
		r.Get("/rdm/devices", h.listRDMDevices)
	})
	r.Get("/ws", h.serveWS)
}

type errorResponse struct {
	Error string `json:"error"`
}

type universeResponse struct {
	Universe int `json:"universe"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("⚠️ Failed to write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func fixtureID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	return id, err == nil
}

func (h *Handler) listFixtures(w http.ResponseWriter, r *http.Request) {
	var fixtures []*fixture.Fixture
	h.ctrl.Do(func() {
		fixtures = h.ctrl.Fixtures().ListFixtures()
	})
	writeJSON(w, http.StatusOK, fixtures)
}

func (h *Handler) registerFixture(w http.ResponseWriter, r *http.Request) {
	var f fixture.Fixture
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		writeError(w, http.StatusBadRequest, "invalid fixture payload")
		return
	}

	var regErr error
	h.ctrl.Do(func() {
		regErr = h.ctrl.Fixtures().ValidateAndRegister(&f)
	})
	if regErr != nil {
		status := http.StatusBadRequest
		if errors.Is(regErr, fixture.ErrDuplicateID) || errors.Is(regErr, fixture.ErrChannelConflict) {
			status = http.StatusConflict
		}
		writeError(w, status, regErr.Error())
		return
	}
	writeJSON(w, http.StatusCreated, &f)
}

func (h *Handler) unregisterFixture(w http.ResponseWriter, r *http.Request) {
	id, ok := fixtureID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid fixture id")
		return
	}

	var removed bool
	h.ctrl.Do(func() {
		removed = h.ctrl.Fixtures().Unregister(id)
	})
	if !removed {
		writeError(w, http.StatusNotFound, "fixture not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) setIntensity(w http.ResponseWriter, r *http.Request) {
	id, ok := fixtureID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid fixture id")
		return
	}
	var body struct {
		Intensity float64 `json:"intensity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid intensity payload")
		return
	}

	universe := fixture.UniverseNotFound
	h.ctrl.Do(func() {
		universe = h.ctrl.Fixtures().SetIntensityByID(id, body.Intensity)
	})
	if universe == fixture.UniverseNotFound {
		writeError(w, http.StatusNotFound, "fixture not found")
		return
	}
	writeJSON(w, http.StatusOK, universeResponse{Universe: universe})
}

func (h *Handler) setColor(w http.ResponseWriter, r *http.Request) {
	id, ok := fixtureID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid fixture id")
		return
	}
	var body struct {
		R float64 `json:"r"`
		G float64 `json:"g"`
		B float64 `json:"b"`
		W float64 `json:"w"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid color payload")
		return
	}

	universe := fixture.UniverseNotFound
	h.ctrl.Do(func() {
		universe = h.ctrl.Fixtures().SetColorRGBWByID(id, body.R, body.G, body.B, body.W)
	})
	if universe == fixture.UniverseNotFound {
		writeError(w, http.StatusNotFound, "fixture not found or has no color channels")
		return
	}
	writeJSON(w, http.StatusOK, universeResponse{Universe: universe})
}

func (h *Handler) setChannel(w http.ResponseWriter, r *http.Request) {
	id, ok := fixtureID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid fixture id")
		return
	}
	var body struct {
		Offset int  `json:"offset"`
		Value  byte `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid channel payload")
		return
	}

	universe := fixture.UniverseNotFound
	h.ctrl.Do(func() {
		universe = h.ctrl.Fixtures().SetChannelByID(id, body.Offset, body.Value)
	})
	if universe == fixture.UniverseNotFound {
		writeError(w, http.StatusNotFound, "fixture not found or offset out of range")
		return
	}
	writeJSON(w, http.StatusOK, universeResponse{Universe: universe})
}

func (h *Handler) startFade(w http.ResponseWriter, r *http.Request) {
	id, ok := fixtureID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid fixture id")
		return
	}
	var body struct {
		Target   float64 `json:"target"`
		Duration float64 `json:"duration"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid fade payload")
		return
	}

	var started bool
	h.ctrl.Do(func() {
		started = h.ctrl.Fixtures().StartFadeByID(id, body.Target, body.Duration)
	})
	if !started {
		writeError(w, http.StatusNotFound, "fixture not found")
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) allOff(w http.ResponseWriter, r *http.Request) {
	h.ctrl.Do(func() {
		h.ctrl.Fixtures().AllOff()
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listNodes(w http.ResponseWriter, r *http.Request) {
	var nodes []dmx.Node
	h.ctrl.Do(func() {
		nodes = h.ctrl.Nodes()
	})
	if nodes == nil {
		nodes = []dmx.Node{}
	}
	writeJSON(w, http.StatusOK, nodes)
}

func (h *Handler) listRDMDevices(w http.ResponseWriter, r *http.Request) {
	devices := []rdm.DiscoveredFixture{}
	h.ctrl.Do(func() {
		if svc := h.ctrl.RDM(); svc != nil {
			devices = svc.GetAll()
		}
	})
	writeJSON(w, http.StatusOK, devices)
}
