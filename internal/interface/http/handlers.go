package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/learnify/learnify-hub/internal/application/session"
	"github.com/learnify/learnify-hub/internal/domain/leaderboard"
	"github.com/learnify/learnify-hub/internal/domain/market"
	"github.com/learnify/learnify-hub/internal/domain/shared"
	"github.com/learnify/learnify-hub/internal/domain/streak"
	"github.com/learnify/learnify-hub/internal/domain/wallet"
	"github.com/learnify/learnify-hub/internal/infrastructure/scheduler"
	"github.com/learnify/learnify-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH
// ══════════════════════════════════════════════════════════════════════════════

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.deps.HealthChecker.Check(r.Context())
	if !status.Healthy {
		writeJSON(w, r, http.StatusServiceUnavailable, status)
		return
	}
	writeJSON(w, r, http.StatusOK, status)
}

// handleLive handles GET /live
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// STREAK HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// controller resolves the {user} path value, creating the learner on first
// use. Only mutating routes call it. It writes the error response and
// returns nil when the learner cannot be loaded.
func (s *Server) controller(w http.ResponseWriter, r *http.Request) *session.Controller {
	c, err := s.deps.Sessions.Session(r.Context(), streak.UserID(r.PathValue("user")))
	if err != nil {
		s.writeError(w, r, err)
		return nil
	}
	return c
}

// existing is controller for read routes: unknown learners answer 404 and
// nothing is stored.
func (s *Server) existing(w http.ResponseWriter, r *http.Request) *session.Controller {
	c, err := s.deps.Sessions.Lookup(r.Context(), streak.UserID(r.PathValue("user")))
	if err != nil {
		s.writeError(w, r, err)
		return nil
	}
	return c
}

// writeView answers with the learner's current state.
func (s *Server) writeView(w http.ResponseWriter, r *http.Request, c *session.Controller, status int) {
	view, err := c.View(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, status, view)
}

// handleGetStreak handles GET /api/v1/users/{user}/streak
func (s *Server) handleGetStreak(w http.ResponseWriter, r *http.Request) {
	c := s.existing(w, r)
	if c == nil {
		return
	}
	s.writeView(w, r, c, http.StatusOK)
}

// RecordActivityRequest is the optional body of POST .../activity.
type RecordActivityRequest struct {
	// Date must name today when set (YYYY-MM-DD).
	Date string `json:"date,omitempty"`
}

// handleRecordActivity handles POST /api/v1/users/{user}/activity
func (s *Server) handleRecordActivity(w http.ResponseWriter, r *http.Request) {
	var req RecordActivityRequest
	if !decodeOptionalBody(w, r, &req) {
		return
	}

	c := s.controller(w, r)
	if c == nil {
		return
	}
	if _, err := c.RecordActivity(r.Context(), req.Date); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeView(w, r, c, http.StatusOK)
}

// handleRequestFreeze handles POST /api/v1/users/{user}/freeze
func (s *Server) handleRequestFreeze(w http.ResponseWriter, r *http.Request) {
	c := s.controller(w, r)
	if c == nil {
		return
	}
	if err := c.RequestFreeze(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeView(w, r, c, http.StatusOK)
}

// handleRemoveFreeze handles DELETE /api/v1/users/{user}/freeze
func (s *Server) handleRemoveFreeze(w http.ResponseWriter, r *http.Request) {
	c := s.controller(w, r)
	if c == nil {
		return
	}
	removed, err := c.RemoveFreeze(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !removed {
		writeJSONError(w, r, http.StatusNotFound, "not_found", "no streak freeze is pending")
		return
	}
	s.writeView(w, r, c, http.StatusOK)
}

// handleReset handles POST /api/v1/users/{user}/reset
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	c := s.controller(w, r)
	if c == nil {
		return
	}
	if err := c.Reset(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeView(w, r, c, http.StatusOK)
}

// handleNotices handles GET /api/v1/users/{user}/notices
// Notices are drained: each one is returned once.
func (s *Server) handleNotices(w http.ResponseWriter, r *http.Request) {
	c := s.existing(w, r)
	if c == nil {
		return
	}
	notices := c.Notices()
	if notices == nil {
		notices = []session.Notice{}
	}
	writeJSON(w, r, http.StatusOK, notices)
}

// handleGetRank handles GET /api/v1/users/{user}/rank
func (s *Server) handleGetRank(w http.ResponseWriter, r *http.Request) {
	if s.deps.Board == nil {
		writeJSONError(w, r, http.StatusServiceUnavailable, "service_unavailable", "leaderboard is not configured")
		return
	}
	entry, err := s.deps.Board.RankOf(r.Context(), streak.UserID(r.PathValue("user")))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	entry.Tier = s.deps.Ladder.TierFor(entry.Tokens).Name
	writeJSON(w, r, http.StatusOK, entry)
}

// ══════════════════════════════════════════════════════════════════════════════
// WALLET & STAKING HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleListWallets handles GET /api/v1/users/{user}/wallets
func (s *Server) handleListWallets(w http.ResponseWriter, r *http.Request) {
	c := s.existing(w, r)
	if c == nil {
		return
	}
	conns := c.Wallets()
	if conns == nil {
		conns = []wallet.Connection{}
	}
	writeJSON(w, r, http.StatusOK, conns)
}

// handleConnectWallet handles POST /api/v1/users/{user}/wallets/{kind}
func (s *Server) handleConnectWallet(w http.ResponseWriter, r *http.Request) {
	kind, err := wallet.ParseKind(r.PathValue("kind"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	c := s.controller(w, r)
	if c == nil {
		return
	}
	conn, err := c.ConnectWallet(r.Context(), kind)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, conn)
}

// handleDisconnectWallet handles DELETE /api/v1/users/{user}/wallets/{kind}
func (s *Server) handleDisconnectWallet(w http.ResponseWriter, r *http.Request) {
	kind, err := wallet.ParseKind(r.PathValue("kind"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	c := s.controller(w, r)
	if c == nil {
		return
	}
	if err := c.DisconnectWallet(kind); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"disconnected": string(kind)})
}

// StakeRequest is the body of POST .../stake.
type StakeRequest struct {
	Amount int64   `json:"amount"`
	Rate   float64 `json:"rate"`
}

// handleGetStake handles GET /api/v1/users/{user}/stake
func (s *Server) handleGetStake(w http.ResponseWriter, r *http.Request) {
	c := s.existing(w, r)
	if c == nil {
		return
	}
	writeJSON(w, r, http.StatusOK, c.StakeSummary())
}

// handleStake handles POST /api/v1/users/{user}/stake
func (s *Server) handleStake(w http.ResponseWriter, r *http.Request) {
	var req StakeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, r, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	c := s.controller(w, r)
	if c == nil {
		return
	}
	stake, err := c.Stake(req.Amount, req.Rate)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, stake)
}

// handleUnstake handles DELETE /api/v1/users/{user}/stake
func (s *Server) handleUnstake(w http.ResponseWriter, r *http.Request) {
	c := s.controller(w, r)
	if c == nil {
		return
	}
	payout, err := c.Unstake()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, payout)
}

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleTiers handles GET /api/v1/tiers
func (s *Server) handleTiers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.deps.Ladder.Tiers())
}

// PricesResponse is the body of GET /api/v1/prices.
type PricesResponse struct {
	Quotes    []market.Quote `json:"quotes"`
	UpdatedAt *time.Time     `json:"updated_at,omitempty"`
}

// handlePrices handles GET /api/v1/prices
func (s *Server) handlePrices(w http.ResponseWriter, r *http.Request) {
	if s.deps.Prices == nil {
		writeJSONError(w, r, http.StatusServiceUnavailable, "service_unavailable", "price feed is not configured")
		return
	}

	resp := PricesResponse{Quotes: s.deps.Prices.Quotes()}
	if resp.Quotes == nil {
		resp.Quotes = []market.Quote{}
	}
	if last := s.deps.Prices.LastUpdated(); !last.IsZero() {
		resp.UpdatedAt = &last
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// PriceResponse is the body of GET /api/v1/prices/{symbol}.
type PriceResponse struct {
	Quote   market.Quote    `json:"quote"`
	History []market.Sample `json:"history"`
}

// handlePrice handles GET /api/v1/prices/{symbol}
func (s *Server) handlePrice(w http.ResponseWriter, r *http.Request) {
	if s.deps.Prices == nil {
		writeJSONError(w, r, http.StatusServiceUnavailable, "service_unavailable", "price feed is not configured")
		return
	}

	symbol := r.PathValue("symbol")
	quote, err := s.deps.Prices.Quote(symbol)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, PriceResponse{Quote: quote, History: s.deps.Prices.History(symbol)})
}

// handleLeaderboard handles GET /api/v1/leaderboard?limit=N
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if s.deps.Board == nil {
		writeJSONError(w, r, http.StatusServiceUnavailable, "service_unavailable", "leaderboard is not configured")
		return
	}

	limit := leaderboard.NormalizeLimit(getQueryParamInt(r, "limit", leaderboard.DefaultTopLimit))
	entries, err := s.deps.Board.Top(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	for i := range entries {
		entries[i].Tier = s.deps.Ladder.TierFor(entries[i].Tokens).Name
	}
	if entries == nil {
		entries = []leaderboard.Entry{}
	}
	writeJSON(w, r, http.StatusOK, entries)
}

// ══════════════════════════════════════════════════════════════════════════════
// ADMIN HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// JobsResponse is the body of GET /api/v1/admin/jobs.
type JobsResponse struct {
	SchedulerRunning bool                `json:"scheduler_running"`
	Jobs             []scheduler.JobInfo `json:"jobs"`
}

// handleListJobs handles GET /api/v1/admin/jobs
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs := s.deps.Jobs.ListJobs()
	if jobs == nil {
		jobs = []scheduler.JobInfo{}
	}
	writeJSON(w, r, http.StatusOK, JobsResponse{
		SchedulerRunning: s.deps.Jobs.IsRunning(),
		Jobs:             jobs,
	})
}

// JobRunResponse is the body of POST /api/v1/admin/jobs/{name}/run.
// A failed run is still a 200; Success and Error describe the job itself.
type JobRunResponse struct {
	Job      string `json:"job"`
	Success  bool   `json:"success"`
	Duration string `json:"duration"`
	Error    string `json:"error,omitempty"`
}

// handleRunJob handles POST /api/v1/admin/jobs/{name}/run
func (s *Server) handleRunJob(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	result, err := s.deps.Jobs.RunNow(r.Context(), name)
	if errors.Is(err, scheduler.ErrJobNotFound) {
		writeJSONError(w, r, http.StatusNotFound, "not_found", "unknown job "+name)
		return
	}
	if result == nil {
		s.writeError(w, r, err)
		return
	}

	resp := JobRunResponse{
		Job:      result.JobName,
		Success:  result.Success,
		Duration: result.Duration.String(),
	}
	if result.Error != nil {
		resp.Error = result.Error.Error()
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// BreakerStatus is one entry of GET /api/v1/admin/breakers.
type BreakerStatus struct {
	Name                string `json:"name"`
	State               string `json:"state"`
	Requests            int    `json:"requests"`
	Rejected            int    `json:"rejected"`
	TotalFailures       int    `json:"total_failures"`
	ConsecutiveFailures int    `json:"consecutive_failures"`
}

func breakerStatus(b Breaker) BreakerStatus {
	c := b.Counts()
	return BreakerStatus{
		Name:                b.Name(),
		State:               b.State().String(),
		Requests:            c.Requests,
		Rejected:            c.Rejected,
		TotalFailures:       c.TotalFailures,
		ConsecutiveFailures: c.ConsecutiveFailures,
	}
}

// handleListBreakers handles GET /api/v1/admin/breakers
func (s *Server) handleListBreakers(w http.ResponseWriter, r *http.Request) {
	out := make([]BreakerStatus, 0, len(s.deps.Breakers))
	for _, b := range s.deps.Breakers {
		out = append(out, breakerStatus(b))
	}
	writeJSON(w, r, http.StatusOK, out)
}

// handleResetBreaker handles POST /api/v1/admin/breakers/{name}/reset
func (s *Server) handleResetBreaker(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	for _, b := range s.deps.Breakers {
		if b.Name() != name {
			continue
		}
		b.Reset()
		s.logger.Info("circuit breaker reset", logger.String("breaker", name))
		writeJSON(w, r, http.StatusOK, breakerStatus(b))
		return
	}
	writeJSONError(w, r, http.StatusNotFound, "not_found", "unknown circuit breaker "+name)
}

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS & REQUEST PARSING
// ══════════════════════════════════════════════════════════════════════════════

// errorStatus maps an error kind to an HTTP status and error code.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, shared.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity, "insufficient_balance"
	case shared.IsConflict(err):
		return http.StatusConflict, "conflict"
	case shared.IsNotFound(err):
		return http.StatusNotFound, "not_found"
	case shared.IsValidation(err):
		return http.StatusBadRequest, "invalid_input"
	case shared.IsExternalService(err):
		return http.StatusServiceUnavailable, "service_unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// writeError answers with the status for err. Only domain messages reach
// the client; anything else is logged and reported generically.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := errorStatus(err)

	message := "An unexpected error occurred"
	var de *shared.DomainError
	if errors.As(err, &de) {
		message = de.Message
	}

	if status >= http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error("request failed",
			logger.String("path", r.URL.Path),
			logger.Int("status", status),
			logger.Err(err),
		)
	}
	writeJSONError(w, r, status, code, message)
}

// decodeOptionalBody decodes a JSON body when one is present.
func decodeOptionalBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Body == nil {
		return true
	}
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	writeJSONError(w, r, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
	return false
}
