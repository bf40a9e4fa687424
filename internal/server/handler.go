package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ahmethakanbesel/currency-api/internal/currency"
	"github.com/ahmethakanbesel/currency-api/internal/history"
	"github.com/ahmethakanbesel/currency-api/internal/job"
	"github.com/ahmethakanbesel/currency-api/internal/savings"
)

const dateFormat = "2006-01-02"

type handler struct {
	currencySvc *currency.Service
	historySvc  *history.Service
	savingsSvc  *savings.Service
	jobSvc      *job.Service
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) listCurrencies(w http.ResponseWriter, r *http.Request) {
	currencies, err := h.currencySvc.ListActive(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, currencies)
}

func (h *handler) getRates(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from")
	if from == "" {
		writeError(w, http.StatusBadRequest, "from query parameter is required")
		return
	}

	resp, err := h.currencySvc.GetRates(r.Context(), from)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) getHistory(w http.ResponseWriter, r *http.Request) {
	rng := history.Range(r.URL.Query().Get("range"))
	if rng == "" {
		writeError(w, http.StatusBadRequest, "range query parameter is required")
		return
	}

	base := strings.ToUpper(r.URL.Query().Get("base"))
	if base == "" {
		base = h.historySvc.BaseCurrency()
	}

	snaps, err := h.historySvc.GetRawSeries(r.Context(), rng, base)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snaps)
}

func (h *handler) getHistorySeries(w http.ResponseWriter, r *http.Request) {
	rng := history.Range(r.URL.Query().Get("range"))
	from := strings.ToUpper(r.URL.Query().Get("from"))
	to := strings.ToUpper(r.URL.Query().Get("to"))

	series, err := h.historySvc.GetSeries(r.Context(), rng, from, to)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, series)
}

func (h *handler) getRateForDate(w http.ResponseWriter, r *http.Request) {
	date, err := time.Parse(dateFormat, r.PathValue("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format, expected YYYY-MM-DD")
		return
	}

	rates, err := h.historySvc.GetRateForDate(r.Context(), date)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rates)
}

func (h *handler) triggerHourly(w http.ResponseWriter, r *http.Request) {
	h.trigger(w, r, job.TypeHourly)
}

func (h *handler) triggerDaily(w http.ResponseWriter, r *http.Request) {
	h.trigger(w, r, job.TypeDaily)
}

func (h *handler) trigger(w http.ResponseWriter, r *http.Request, jobType job.Type) {
	run, err := h.jobSvc.Trigger(r.Context(), job.TriggerRequest{Type: jobType})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, run)
}

func (h *handler) getRun(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid run id")
		return
	}

	run, err := h.jobSvc.Get(r.Context(), job.GetRunRequest{ID: id})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (h *handler) listRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.jobSvc.List(r.Context(), r.URL.Query().Get("type"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

type savingsEntryPayload struct {
	CurrencyCode string  `json:"currencyCode"`
	Amount       float64 `json:"amount"`
	Date         string  `json:"date"`
	Note         string  `json:"note"`
}

func (p savingsEntryPayload) parseDate() (time.Time, bool) {
	date, err := time.Parse(dateFormat, p.Date)
	return date, err == nil
}

func (h *handler) listSavings(w http.ResponseWriter, r *http.Request) {
	entries, err := h.savingsSvc.List(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *handler) createSavings(w http.ResponseWriter, r *http.Request) {
	var payload savingsEntryPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	date, ok := payload.parseDate()
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid date format, expected YYYY-MM-DD")
		return
	}

	entry, err := h.savingsSvc.Create(r.Context(), savings.CreateEntryRequest{
		UserID:       userIDFrom(r.Context()),
		CurrencyCode: payload.CurrencyCode,
		Amount:       payload.Amount,
		Date:         date,
		Note:         payload.Note,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (h *handler) updateSavings(w http.ResponseWriter, r *http.Request) {
	var payload savingsEntryPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	date, ok := payload.parseDate()
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid date format, expected YYYY-MM-DD")
		return
	}

	entry, err := h.savingsSvc.Update(r.Context(), savings.UpdateEntryRequest{
		ID:           r.PathValue("id"),
		UserID:       userIDFrom(r.Context()),
		CurrencyCode: payload.CurrencyCode,
		Amount:       payload.Amount,
		Date:         date,
		Note:         payload.Note,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *handler) deleteSavings(w http.ResponseWriter, r *http.Request) {
	err := h.savingsSvc.Delete(r.Context(), r.PathValue("id"), userIDFrom(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *handler) savingsValuation(w http.ResponseWriter, r *http.Request) {
	valuation, err := h.savingsSvc.Valuation(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, valuation)
}
