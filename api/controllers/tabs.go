package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/tillworks/tillpoint-backend/api/responses"
	"github.com/tillworks/tillpoint-backend/internal/pos"
	"github.com/tillworks/tillpoint-backend/pkg/logger"
)

type tabListResponse struct {
	Tabs        []*pos.Tab `json:"tabs"`
	ActiveTabID uuid.UUID  `json:"active_tab_id"`
}

// ListTabs returns every tab in the context plus the active pointer.
func ListTabs(store *pos.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sc, err := saleContextParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		tabs, activeID, err := store.Tabs(sc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, tabListResponse{Tabs: tabs, ActiveTabID: activeID})
	}
}

// CreateTab opens a fresh tab and makes it active.
func CreateTab(store *pos.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sc, err := saleContextParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		tab, err := store.CreateTab(sc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, tab)
	}
}

// SwitchTab changes the context's active tab.
func SwitchTab(store *pos.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sc, err := saleContextParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		tabID, err := uuidParam(r, "tabID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := store.SwitchTab(sc, tabID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeActiveTab(w, r, store, logg)
	}
}

// DeleteTab removes a tab; the last tab of a context is protected.
func DeleteTab(store *pos.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sc, err := saleContextParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		tabID, err := uuidParam(r, "tabID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := store.DeleteTab(sc, tabID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"deleted": tabID})
	}
}

// ClearTab resets the active tab to an empty composition.
func ClearTab(store *pos.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sc, err := saleContextParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := store.ClearActiveTab(sc); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeActiveTab(w, r, store, logg)
	}
}

// GetActiveTab returns the active tab with derived totals.
func GetActiveTab(store *pos.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeActiveTab(w, r, store, logg)
	}
}

// GetTotals returns just the derived totals for the active tab.
func GetTotals(store *pos.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sc, err := saleContextParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		tab, err := store.ActiveTab(sc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, pos.ComputeTotals(tab))
	}
}

type activeTabResponse struct {
	Tab    *pos.Tab   `json:"tab"`
	Totals pos.Totals `json:"totals"`
}

// writeActiveTab is the shared success body: mutations return the
// whole updated tab so the terminal can re-render without a second
// round trip.
func writeActiveTab(w http.ResponseWriter, r *http.Request, store *pos.Store, logg *logger.Logger) {
	sc, err := saleContextParam(r)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	tab, err := store.ActiveTab(sc)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	responses.WriteSuccess(w, activeTabResponse{Tab: tab, Totals: pos.ComputeTotals(tab)})
}
