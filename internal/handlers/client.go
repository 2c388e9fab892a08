package handlers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/diewo77/go-freelance/gate"
	"github.com/diewo77/go-freelance/httpx"
	"github.com/diewo77/go-freelance/internal/billing"
	"github.com/diewo77/go-freelance/internal/models"
	"github.com/diewo77/go-freelance/internal/policy"
	"github.com/diewo77/go-freelance/internal/services"
	"github.com/diewo77/go-freelance/internal/store"
	"github.com/diewo77/go-freelance/validation"
)

type ClientHandler struct {
	store    *store.Store
	gate     *gate.Gate[uuid.UUID]
	overview services.Invalidator
}

func NewClientHandler(st *store.Store, g *gate.Gate[uuid.UUID], overview services.Invalidator) *ClientHandler {
	return &ClientHandler{store: st, gate: g, overview: overview}
}

type clientInput struct {
	Name          string `json:"name"`
	ContactPerson string `json:"contact_person"`
	Email         string `json:"email"`
	PhoneNumber   string `json:"phone_number"`
	Address       string `json:"address"`
	City          string `json:"city"`
	Postcode      string `json:"postcode"`
	Country       string `json:"country"`
	Notes         string `json:"notes"`
}

func (in clientInput) validate() error {
	v := validation.Violations{}
	validation.Required("name", in.Name, v)
	validation.Email("email", strings.TrimSpace(in.Email), v)
	return billing.Invalid(v)
}

func (in clientInput) apply(c *models.Client) {
	c.Name = strings.TrimSpace(in.Name)
	c.ContactPerson = strings.TrimSpace(in.ContactPerson)
	c.Email = strings.TrimSpace(in.Email)
	c.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	c.Address = strings.TrimSpace(in.Address)
	c.City = strings.TrimSpace(in.City)
	c.Postcode = strings.TrimSpace(in.Postcode)
	c.Country = strings.TrimSpace(in.Country)
	c.Notes = in.Notes
}

type clientResponse struct {
	*models.Client
	FullAddress string `json:"full_address"`
}

func clientView(c *models.Client) clientResponse {
	return clientResponse{Client: c, FullAddress: c.FullAddress()}
}

func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	if !authorize(w, r, h.gate, gate.ActionList, policy.ResourceClient, nil) {
		return
	}
	page := pageParams(r)
	clients, total, err := h.store.ListClients(r.Context(), currentUser(r), store.ClientQuery{Search: r.URL.Query().Get("q"), Page: page})
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]clientResponse, len(clients))
	for i := range clients {
		out[i] = clientView(&clients[i])
	}
	writeList(w, out, total, page)
}

func (h *ClientHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, ok := h.load(w, r, gate.ActionView)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, clientView(c))
}

func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in clientInput
	if !decode(w, r, &in) {
		return
	}
	if !authorize(w, r, h.gate, gate.ActionCreate, policy.ResourceClient, nil) {
		return
	}
	if err := in.validate(); err != nil {
		writeError(w, r, err)
		return
	}
	c := models.Client{UserID: currentUser(r)}
	in.apply(&c)
	if err := h.store.CreateClient(r.Context(), &c); err != nil {
		writeError(w, r, err)
		return
	}
	h.overview.Invalidate(r.Context(), c.UserID)
	httpx.JSON(w, http.StatusCreated, clientView(&c))
}

func (h *ClientHandler) Update(w http.ResponseWriter, r *http.Request) {
	c, ok := h.load(w, r, gate.ActionUpdate)
	if !ok {
		return
	}
	var in clientInput
	if !decode(w, r, &in) {
		return
	}
	if err := in.validate(); err != nil {
		writeError(w, r, err)
		return
	}
	in.apply(c)
	if err := h.store.UpdateClient(r.Context(), c); err != nil {
		writeError(w, r, err)
		return
	}
	h.overview.Invalidate(r.Context(), c.UserID)
	httpx.JSON(w, http.StatusOK, clientView(c))
}

func (h *ClientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	c, ok := h.load(w, r, gate.ActionDelete)
	if !ok {
		return
	}
	if err := h.store.DeleteClient(r.Context(), c.UserID, c.ID); err != nil {
		writeError(w, r, err)
		return
	}
	h.overview.Invalidate(r.Context(), c.UserID)
	w.WriteHeader(http.StatusNoContent)
}

// Projects lists the projects of one client.
func (h *ClientHandler) Projects(w http.ResponseWriter, r *http.Request) {
	c, ok := h.load(w, r, gate.ActionView)
	if !ok {
		return
	}
	projects, err := h.store.ListProjects(r.Context(), c.UserID, store.ProjectQuery{ClientID: &c.ID})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeList(w, projects, int64(len(projects)), store.Page{Limit: len(projects)})
}

func (h *ClientHandler) load(w http.ResponseWriter, r *http.Request, action gate.Action) (*models.Client, bool) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return nil, false
	}
	c, err := h.store.GetClient(r.Context(), currentUser(r), id)
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}
	if !authorize(w, r, h.gate, action, policy.ResourceClient, c) {
		return nil, false
	}
	return c, true
}
