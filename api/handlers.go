package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/etnz/bookkeeper"
	"github.com/etnz/bookkeeper/renderer"
	"github.com/go-chi/chi/v5"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
)

// maxBody bounds the size of request payloads.
const maxBody = 1 << 20

// decode reads the JSON payload of r into v, reporting a bad request on
// failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

// wantsMarkdown reports whether the client asked for a markdown report
// instead of JSON.
func wantsMarkdown(r *http.Request) bool {
	return r.URL.Query().Get("format") == "markdown"
}

// writeMarkdown writes a markdown report.
func writeMarkdown(w http.ResponseWriter, doc string) {
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(doc))
}

// snapshot reads the books, reporting failures to the client.
func (s *Server) snapshot(w http.ResponseWriter, r *http.Request) (*bookkeeper.Snapshot, bool) {
	snap, err := s.books.Snapshot(r.Context())
	if err != nil {
		fail(w, r, err)
		return nil, false
	}
	return snap, true
}

// listTransactions handles GET /transactions, optionally filtered by kind
// and contact.
func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	kind, contact := r.URL.Query().Get("kind"), r.URL.Query().Get("contact")
	if kind != "" {
		if _, err := bookkeeper.ParseKind(kind); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	txs := []bookkeeper.Transaction{}
	for _, t := range snap.Transactions {
		if kind != "" && string(t.Kind) != kind {
			continue
		}
		if contact != "" && t.ContactID != contact {
			continue
		}
		txs = append(txs, t)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"transactions": txs,
		"count":        len(txs),
	})
}

// getTransaction handles GET /transactions/{id}.
func (s *Server) getTransaction(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	t, found := snap.Transaction(id)
	if !found {
		fail(w, r, bookkeeper.NotFoundError("transaction %s", id))
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// createdResponse is what a create replays for a known Idempotency-Key.
type createdResponse struct {
	status int
	body   any
}

// inFlight marks an Idempotency-Key whose create has not finished yet.
type inFlight struct{}

// createTransaction handles POST /transactions.
func (s *Server) createTransaction(w http.ResponseWriter, r *http.Request) {
	key := r.Header.Get("Idempotency-Key")
	done := false
	if key != "" {
		// Add is atomic: only one request at a time owns a key.
		if err := s.created.Add(key, inFlight{}, cache.DefaultExpiration); err != nil {
			if v, found := s.created.Get(key); found {
				if resp, ok := v.(createdResponse); ok {
					w.Header().Set("Idempotent-Replayed", "true")
					writeJSON(w, resp.status, resp.body)
					return
				}
			}
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusConflict, "a request with this Idempotency-Key is in progress")
			return
		}
		defer func() {
			// only successes are remembered
			if !done {
				s.created.Delete(key)
			}
		}()
	}

	var body transactionBody
	if !decode(w, r, &body) {
		return
	}
	req, err := s.request(body)
	if err != nil {
		fail(w, r, err)
		return
	}
	id, err := s.books.Create(r.Context(), req)
	if err != nil {
		fail(w, r, err)
		return
	}
	zerolog.Ctx(r.Context()).Info().Str("transaction", id).Str("kind", string(req.Kind)).Msg("transaction created")

	var created any = map[string]string{"id": id}
	if snap, err := s.books.Snapshot(r.Context()); err == nil {
		if t, found := snap.Transaction(id); found {
			created = t
		}
	}
	if key != "" {
		s.created.Set(key, createdResponse{status: http.StatusCreated, body: created}, cache.DefaultExpiration)
		done = true
	}
	w.Header().Set("Location", "/transactions/"+id)
	writeJSON(w, http.StatusCreated, created)
}

// editTransaction handles PUT /transactions/{id}.
func (s *Server) editTransaction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body transactionBody
	if !decode(w, r, &body) {
		return
	}
	req, err := s.request(body)
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := s.books.Edit(r.Context(), id, req); err != nil {
		fail(w, r, err)
		return
	}
	s.getTransaction(w, r)
}

// deleteTransaction handles DELETE /transactions/{id}.
func (s *Server) deleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.books.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// listContacts handles GET /contacts, optionally filtered by role.
func (s *Server) listContacts(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	role := bookkeeper.Role(r.URL.Query().Get("role"))
	contacts := []bookkeeper.Contact{}
	for _, c := range snap.Contacts {
		if role == "" || c.Role == role {
			contacts = append(contacts, c)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"contacts": contacts,
		"count":    len(contacts),
	})
}

// addContact handles POST /contacts.
func (s *Server) addContact(w http.ResponseWriter, r *http.Request) {
	var body contactBody
	if !decode(w, r, &body) {
		return
	}
	c, err := s.books.AddContact(r.Context(), body.Role, s.clean(body.Name), s.clean(body.Phone), s.clean(body.Address))
	if err != nil {
		fail(w, r, err)
		return
	}
	w.Header().Set("Location", "/contacts/"+c.ID)
	writeJSON(w, http.StatusCreated, c)
}

// updateContact handles PATCH /contacts/{id}. Absent fields keep their
// value.
func (s *Server) updateContact(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name    *string `json:"name"`
		Phone   *string `json:"phone"`
		Address *string `json:"address"`
	}
	if !decode(w, r, &body) {
		return
	}
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	c, found := snap.Contact(id)
	if !found {
		fail(w, r, bookkeeper.NotFoundError("contact %s", id))
		return
	}
	name, phone, address := c.Name, c.Phone, c.Address
	if body.Name != nil {
		name = s.clean(*body.Name)
	}
	if body.Phone != nil {
		phone = s.clean(*body.Phone)
	}
	if body.Address != nil {
		address = s.clean(*body.Address)
	}
	updated, err := s.books.UpdateContact(r.Context(), id, name, phone, address)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// statement handles GET /contacts/{id}/statement.
func (s *Server) statement(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	c, found := snap.Contact(id)
	if !found {
		fail(w, r, bookkeeper.NotFoundError("contact %s", id))
		return
	}
	st := bookkeeper.NewStatement(snap.Transactions, c)
	if wantsMarkdown(r) {
		writeMarkdown(w, renderer.StatementMarkdown(&st, s.currency))
		return
	}
	if st.Transactions == nil {
		st.Transactions = []bookkeeper.Transaction{}
	}
	writeJSON(w, http.StatusOK, st)
}

// listItems handles GET /items.
func (s *Server) listItems(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	if wantsMarkdown(r) {
		writeMarkdown(w, renderer.ItemsMarkdown(snap.Items, s.currency))
		return
	}
	items := snap.Items
	if items == nil {
		items = []bookkeeper.InventoryItem{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": items,
		"count": len(items),
	})
}

// addItem handles POST /items.
func (s *Server) addItem(w http.ResponseWriter, r *http.Request) {
	var body itemBody
	if !decode(w, r, &body) {
		return
	}
	item, err := s.books.AddItem(r.Context(), s.clean(body.Name), s.clean(body.Unit), body.Price)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// summary handles GET /summary.
func (s *Server) summary(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	sum := bookkeeper.Summarize(snap.Transactions, snap.Contacts)
	if wantsMarkdown(r) {
		writeMarkdown(w, renderer.SummaryMarkdown(&sum, s.currency))
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// audit handles GET /audit.
func (s *Server) audit(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	found := bookkeeper.Audit(snap)
	if wantsMarkdown(r) {
		writeMarkdown(w, renderer.AuditMarkdown(found))
		return
	}
	if found == nil {
		found = []bookkeeper.Discrepancy{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"consistent":    len(found) == 0,
		"discrepancies": found,
	})
}
