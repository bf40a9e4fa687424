package server

import (
	"net/http"

	"github.com/ahmethakanbesel/currency-api/internal/currency"
	"github.com/ahmethakanbesel/currency-api/internal/history"
	"github.com/ahmethakanbesel/currency-api/internal/job"
	"github.com/ahmethakanbesel/currency-api/internal/savings"
)

// NewHandler creates the full HTTP handler with routes and middleware.
// Exported for use in tests (e.g., httptest.NewServer).
func NewHandler(currencySvc *currency.Service, historySvc *history.Service, savingsSvc *savings.Service, jobSvc *job.Service, apiSecret string) http.Handler {
	return newMux(currencySvc, historySvc, savingsSvc, jobSvc, apiSecret)
}

func newMux(currencySvc *currency.Service, historySvc *history.Service, savingsSvc *savings.Service, jobSvc *job.Service, apiSecret string) http.Handler {
	h := &handler{
		currencySvc: currencySvc,
		historySvc:  historySvc,
		savingsSvc:  savingsSvc,
		jobSvc:      jobSvc,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.health)

	mux.HandleFunc("GET /api/v1/currencies", h.listCurrencies)
	mux.HandleFunc("GET /api/v1/rates", h.getRates)

	mux.HandleFunc("GET /api/v1/history", h.getHistory)
	mux.HandleFunc("GET /api/v1/history/series", h.getHistorySeries)
	mux.HandleFunc("GET /api/v1/history/date/{date}", h.getRateForDate)

	mux.HandleFunc("POST /api/v1/history/jobs/trigger-hourly", h.triggerHourly)
	mux.HandleFunc("POST /api/v1/history/jobs/trigger-daily", h.triggerDaily)
	mux.HandleFunc("GET /api/v1/history/jobs", h.listRuns)
	mux.HandleFunc("GET /api/v1/history/jobs/{id}", h.getRun)

	mux.HandleFunc("GET /api/v1/savings", h.listSavings)
	mux.HandleFunc("POST /api/v1/savings", h.createSavings)
	mux.HandleFunc("PUT /api/v1/savings/{id}", h.updateSavings)
	mux.HandleFunc("DELETE /api/v1/savings/{id}", h.deleteSavings)
	mux.HandleFunc("GET /api/v1/savings/valuation", h.savingsValuation)

	// Apply middleware stack: recovery -> requestID -> apiKey -> identity -> logging
	var handler http.Handler = mux
	handler = logging(handler)
	handler = userIdentity(handler)
	handler = apiKey(apiSecret, handler)
	handler = requestID(handler)
	handler = recovery(handler)

	return handler
}
