package http

import (
	"net/http"
	"strings"

	"motoinvest/internal/core"
	"motoinvest/internal/services"
)

func (s *Server) month(r *http.Request) (core.Month, error) {
	return ParseMonthParams(r.URL.Query(), s.app.Today())
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	m, err := s.month(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	view, err := s.app.Summary(sess, m)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(toSummary(view)).Write(w)
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	m, err := s.month(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	cal, err := s.app.Calendar(sess, m)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(cal).Write(w)
}

type closeDayRequest struct {
	Earning amountString `json:"earning"`
	Expense amountString `json:"expense"`
}

type closeDayResponse struct {
	Earning *earningDTO `json:"earning,omitempty"`
	Expense *expenseDTO `json:"expense,omitempty"`
	Chat    *chatDTO    `json:"chat,omitempty"`
}

func (s *Server) handleCloseDay(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req closeDayRequest
	if err := decodeJSON(w, r, maxJSONBody, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.app.CloseDay(r.Context(), sess, string(req.Earning), string(req.Expense))
	if err != nil && res.Earning == nil && res.Expense == nil {
		s.writeError(w, r, err)
		return
	}
	var out closeDayResponse
	if res.Earning != nil {
		out.Earning = &earningDTO{ID: res.Earning.ID, Value: toMoney(res.Earning.Value), Date: res.Earning.Date.String()}
	}
	if res.Expense != nil {
		out.Expense = &expenseDTO{ID: res.Expense.ID, Value: toMoney(res.Expense.Value), Date: res.Expense.Date.String()}
	}
	if res.Chat != nil {
		c := toChat(*res.Chat)
		out.Chat = &c
	}
	status := http.StatusCreated
	if err != nil {
		// the earning was stored but a later step failed
		status, _ = errorStatus(err)
	}
	NewJSONResponse().Status(status).Body(out).Write(w)
}

func (s *Server) handleListBills(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	m, err := s.month(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	bills, err := s.app.Bills(sess, m)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(toBills(bills)).Write(w)
}

type addBillRequest struct {
	Name   string       `json:"name"`
	Amount amountString `json:"amount"`
	Year   int          `json:"year"`
	Month  int          `json:"month"`
	Day    int          `json:"day"`
}

func (s *Server) handleAddBill(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req addBillRequest
	if err := decodeJSON(w, r, maxJSONBody, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	m, err := core.NewMonth(req.Year, req.Month)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	b, err := s.app.AddBill(r.Context(), sess, services.NewBill{
		Name:   sanitizeInput(req.Name),
		Amount: string(req.Amount),
		Month:  m,
		Day:    req.Day,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(toBill(b)).Write(w)
}

func (s *Server) handleToggleBill(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	b, err := s.app.ToggleBill(r.Context(), sess, strings.TrimSpace(r.PathValue("id")))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(toBill(b)).Write(w)
}

func (s *Server) handleDeleteBill(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := s.app.DeleteBill(r.Context(), sess, strings.TrimSpace(r.PathValue("id"))); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
