package http

import (
	"errors"
	"net/http"

	"cashcast/internal/core"
	"cashcast/internal/log"
)

const defaultCashFlowMonths = 12

type (
	refreshRequest struct {
		Month string `json:"month,omitempty"`
	}

	refreshResponse struct {
		UserID int64       `json:"userId"`
		Month  core.Period `json:"month"`
		Queued bool        `json:"queued"`
	}

	keyRateResponse struct {
		KeyRate float64   `json:"keyRate"`
		Date    core.Date `json:"date"`
	}
)

// userID returns the id stored by requireUser. Routes are only mounted
// behind it, so a missing id is a wiring bug.
func userID(r *http.Request) int64 {
	id, ok := UserIDFromContext(r.Context())
	if !ok {
		panic("http: handler mounted without requireUser")
	}
	return id
}

// writeInputError answers malformed input with 400 and anything else with 422.
func writeInputError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrMalformedRequest) {
		BadRequestError(err.Error()).Write(w)
		return
	}
	UnprocessableEntityError(err.Error()).Write(w)
}

func (s *Server) writeFailure(w http.ResponseWriter, r *http.Request, msg, operation string, err error) {
	log.NewStructuredLogger(log.FromContext(r.Context())).
		LogError(r.Context(), msg, err, operation, nil)
	InternalServerError(msg).Write(w)
}

func (s *Server) nextMonth() core.Period {
	return s.engine.CurrentPeriod().AddMonths(1)
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	categoryID, err := ParseIDVar(r, "categoryID")
	if err != nil {
		writeInputError(w, err)
		return
	}
	month, err := ParseMonthParam(r.URL.Query(), "month", s.nextMonth())
	if err != nil {
		writeInputError(w, err)
		return
	}

	var p *core.Prediction
	if ParseBoolParam(r.URL.Query(), "cached") {
		p, _, err = s.predictions.Cached(r.Context(), userID(r), categoryID, month, s.cacheTTL)
	} else {
		p, err = s.predictions.Predict(r.Context(), userID(r), categoryID, month)
	}
	if err != nil {
		s.writeFailure(w, r, "prediction failed", log.OpPredict, err)
		return
	}
	if p == nil {
		NoContent().Write(w)
		return
	}
	OK(p).Write(w)
}

func (s *Server) handlePredictAll(w http.ResponseWriter, r *http.Request) {
	month, err := ParseMonthParam(r.URL.Query(), "month", s.nextMonth())
	if err != nil {
		writeInputError(w, err)
		return
	}

	preds, err := s.engine.PredictAll(r.Context(), userID(r), month)
	if err != nil {
		s.writeFailure(w, r, "prediction failed", log.OpPredict, err)
		return
	}
	if preds == nil {
		preds = []core.Prediction{}
	}
	OK(preds).Write(w)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := DecodeJSON(w, r, &req, true); err != nil {
		writeInputError(w, err)
		return
	}
	month := s.nextMonth()
	if req.Month != "" {
		p, err := core.ParsePeriod(req.Month)
		if err != nil {
			UnprocessableEntityError("month must be YYYY-MM").Write(w)
			return
		}
		month = p
	}

	queued, err := s.predictions.RequestRefresh(r.Context(), userID(r), month)
	if err != nil {
		s.writeFailure(w, r, "prediction refresh failed", log.OpRefresh, err)
		return
	}
	Accepted(refreshResponse{UserID: userID(r), Month: month, Queued: queued}).Write(w)
}

func (s *Server) handleVariability(w http.ResponseWriter, r *http.Request) {
	verdicts, err := s.engine.DetectVariableCategories(r.Context(), userID(r))
	if err != nil {
		s.writeFailure(w, r, "variability detection failed", log.OpClassify, err)
		return
	}
	if verdicts == nil {
		verdicts = []core.VariabilityVerdict{}
	}
	OK(verdicts).Write(w)
}

func (s *Server) handleCashFlow(w http.ResponseWriter, r *http.Request) {
	months, err := ParseIntParam(r.URL.Query(), "months", defaultCashFlowMonths)
	if err != nil {
		writeInputError(w, err)
		return
	}
	if months < 1 {
		UnprocessableEntityError(core.ErrInvalidMonths.Error()).Write(w)
		return
	}
	scenario, err := core.ParseScenario(r.URL.Query().Get("scenario"))
	if err != nil {
		UnprocessableEntityError("scenario must be REALISTIC, OPTIMISTIC or PESSIMISTIC").Write(w)
		return
	}

	res, err := s.engine.ProjectCashFlow(r.Context(), userID(r), months, scenario)
	if err != nil {
		s.writeFailure(w, r, "cash flow projection failed", log.OpProject, err)
		return
	}
	OK(res).Write(w)
}

func (s *Server) handleScenario(w http.ResponseWriter, r *http.Request) {
	var in core.ScenarioInput
	if err := DecodeJSON(w, r, &in, false); err != nil {
		writeInputError(w, err)
		return
	}
	if err := in.Validate(); err != nil {
		writeInputError(w, err)
		return
	}

	res, err := s.engine.SimulateScenario(r.Context(), userID(r), in)
	if err != nil {
		s.writeFailure(w, r, "scenario simulation failed", log.OpSimulate, err)
		return
	}
	OK(res).Write(w)
}

func (s *Server) handleAffordability(w http.ResponseWriter, r *http.Request) {
	var in core.AffordabilityInput
	if err := DecodeJSON(w, r, &in, false); err != nil {
		writeInputError(w, err)
		return
	}
	if err := in.Validate(); err != nil {
		writeInputError(w, err)
		return
	}

	res, err := s.engine.CheckAffordability(r.Context(), userID(r), in)
	if err != nil {
		s.writeFailure(w, r, "affordability check failed", log.OpAfford, err)
		return
	}
	OK(res).Write(w)
}

func (s *Server) handleInflation(w http.ResponseWriter, r *http.Request) {
	var in core.InflationInput
	if err := DecodeJSON(w, r, &in, false); err != nil {
		writeInputError(w, err)
		return
	}
	if err := in.Validate(); err != nil {
		writeInputError(w, err)
		return
	}

	res, err := s.engine.SimulateInflation(r.Context(), userID(r), in)
	if err != nil {
		s.writeFailure(w, r, "inflation simulation failed", log.OpInflation, err)
		return
	}
	OK(res).Write(w)
}

func (s *Server) handleKeyRate(w http.ResponseWriter, r *http.Request) {
	if s.rates == nil {
		ServiceUnavailableError("reference rates are not configured").Write(w)
		return
	}
	kr, err := s.rates.KeyRate(r.Context())
	if err != nil {
		s.writeFailure(w, r, "key rate lookup failed", log.OpRead, err)
		return
	}
	OK(keyRateResponse{KeyRate: kr.Rate, Date: kr.Date}).Write(w)
}
