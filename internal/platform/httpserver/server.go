package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	accountservice "adboost/contexts/ad-delivery/account-service"
	accounterrors "adboost/contexts/ad-delivery/account-service/domain/errors"
	accounthttp "adboost/contexts/ad-delivery/account-service/transport/http"
	taskservice "adboost/contexts/ad-delivery/task-service"
	taskerrors "adboost/contexts/ad-delivery/task-service/domain/errors"
	taskhttp "adboost/contexts/ad-delivery/task-service/transport/http"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "adboost/internal/platform/httpserver/docs"
)

type Server struct {
	mux      *http.ServeMux
	logger   *slog.Logger
	addr     string
	tasks    taskservice.Module
	accounts accountservice.Module
}

func New(
	tasks taskservice.Module,
	accounts accountservice.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:      http.NewServeMux(),
		logger:   logger,
		addr:     addr,
		tasks:    tasks,
		accounts: accounts,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /api/boost/v1/tasks", s.handleCreateTasks)
	s.mux.HandleFunc("GET /api/boost/v1/tasks", s.handleListTasks)
	s.mux.HandleFunc("GET /api/boost/v1/tasks/{task_id}", s.handleGetTask)
	s.mux.HandleFunc("POST /api/boost/v1/tasks/{task_id}/cancel", s.handleCancelTask)
	s.mux.HandleFunc("POST /api/boost/v1/sync", s.handleSyncAllOrders)

	s.mux.HandleFunc("POST /api/boost/v1/accounts", s.handleLinkAccount)
	s.mux.HandleFunc("GET /api/boost/v1/accounts", s.handleListAccounts)
	s.mux.HandleFunc("GET /api/boost/v1/accounts/{account_id}", s.handleGetAccount)
	s.mux.HandleFunc("PUT /api/boost/v1/accounts/{account_id}/daily-limit", s.handleSetDailyLimit)
	s.mux.HandleFunc("PATCH /api/boost/v1/accounts/{account_id}/profile", s.handleUpdateProfile)
	s.mux.HandleFunc("POST /api/boost/v1/accounts/{account_id}/sync", s.handleSyncOrders)
	s.mux.HandleFunc("POST /api/boost/v1/accounts/{account_id}/refresh-token", s.handleRefreshToken)
}

func (s *Server) handleCreateTasks(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req taskhttp.CreateTasksRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeTaskError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.tasks.Handler.CreateTasksHandler(r.Context(), userID, req.Requests)
	if err != nil {
		writeTaskDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	page := parseIntParam(query.Get("page"))
	pageSize := parseIntParam(query.Get("page_size"))

	resp, err := s.tasks.Handler.ListTasksHandler(
		r.Context(),
		userID,
		query.Get("account_id"),
		query.Get("status"),
		page,
		pageSize,
	)
	if err != nil {
		writeTaskDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	resp, err := s.tasks.Handler.GetTaskHandler(r.Context(), userID, r.PathValue("task_id"))
	if err != nil {
		writeTaskDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCancelTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := s.tasks.Handler.CancelTaskHandler(r.Context(), userID, r.PathValue("task_id")); err != nil {
		writeTaskDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSyncOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	resp, err := s.tasks.Handler.SyncOrdersHandler(r.Context(), userID, r.PathValue("account_id"))
	if err != nil {
		writeTaskDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSyncAllOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	resp, err := s.tasks.Handler.SyncAllOrdersHandler(r.Context(), userID)
	if err != nil {
		writeTaskDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLinkAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req accounthttp.LinkAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAccountError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.accounts.Handler.LinkAccountHandler(r.Context(), userID, req)
	if err != nil {
		writeAccountDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	resp, err := s.accounts.Handler.ListAccountsHandler(r.Context(), userID)
	if err != nil {
		writeAccountDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	resp, err := s.accounts.Handler.GetAccountHandler(r.Context(), userID, r.PathValue("account_id"))
	if err != nil {
		writeAccountDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSetDailyLimit(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req accounthttp.SetDailyLimitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAccountError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.accounts.Handler.SetDailyLimitHandler(r.Context(), userID, r.PathValue("account_id"), req)
	if err != nil {
		writeAccountDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req accounthttp.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAccountError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.accounts.Handler.UpdateProfileHandler(r.Context(), userID, r.PathValue("account_id"), req)
	if err != nil {
		writeAccountDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRefreshToken(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	resp, err := s.accounts.Handler.RefreshTokenHandler(r.Context(), userID, r.PathValue("account_id"))
	if err != nil {
		writeAccountDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeTaskError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return "", false
	}
	return userID, true
}

func writeTaskDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, taskerrors.ErrInvalidTaskInput):
		writeTaskError(w, http.StatusBadRequest, "invalid_task_input", err.Error())
	case errors.Is(err, taskerrors.ErrTaskNotFound):
		writeTaskError(w, http.StatusNotFound, "task_not_found", err.Error())
	case errors.Is(err, taskerrors.ErrTaskNotCancellable),
		errors.Is(err, taskerrors.ErrInvalidStateTransition):
		writeTaskError(w, http.StatusConflict, "task_not_cancellable", err.Error())
	case errors.Is(err, taskerrors.ErrConcurrentUpdate):
		writeTaskError(w, http.StatusConflict, "concurrent_update", err.Error())
	case errors.Is(err, taskerrors.ErrBudgetExceedsSingleLimit):
		writeTaskError(w, http.StatusUnprocessableEntity, "budget_exceeds_single_limit", err.Error())
	case errors.Is(err, taskerrors.ErrAccountDailyLimitExceeded):
		writeTaskError(w, http.StatusUnprocessableEntity, "account_daily_limit_exceeded", err.Error())
	case errors.Is(err, taskerrors.ErrUserDailyLimitExceeded):
		writeTaskError(w, http.StatusUnprocessableEntity, "user_daily_limit_exceeded", err.Error())
	case errors.Is(err, taskerrors.ErrInvestPasswordMismatch):
		writeTaskError(w, http.StatusForbidden, "invest_password_mismatch", err.Error())
	case errors.Is(err, taskerrors.ErrAccountNotAuthorized):
		writeTaskError(w, http.StatusForbidden, "account_not_authorized", err.Error())
	case errors.Is(err, taskerrors.ErrMissingActorID):
		writeTaskError(w, http.StatusUnprocessableEntity, "missing_actor_id", err.Error())
	case errors.Is(err, taskerrors.ErrSyncInProgress):
		writeTaskError(w, http.StatusConflict, "sync_in_progress", err.Error())
	case errors.Is(err, taskerrors.ErrCredentialUnavailable):
		writeTaskError(w, http.StatusUnprocessableEntity, "credential_unavailable", err.Error())
	case errors.Is(err, accounterrors.ErrAccountNotFound):
		writeTaskError(w, http.StatusNotFound, "account_not_found", err.Error())
	default:
		writeTaskError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeAccountDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, accounterrors.ErrInvalidAccountInput):
		writeAccountError(w, http.StatusBadRequest, "invalid_account_input", err.Error())
	case errors.Is(err, accounterrors.ErrAccountNotFound):
		writeAccountError(w, http.StatusNotFound, "account_not_found", err.Error())
	case errors.Is(err, accounterrors.ErrAccountDisabled):
		writeAccountError(w, http.StatusForbidden, "account_disabled", err.Error())
	case errors.Is(err, accounterrors.ErrRefreshTokenExpired):
		writeAccountError(w, http.StatusUnauthorized, "refresh_token_expired", err.Error())
	default:
		writeAccountError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeTaskError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, taskhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeAccountError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, accounthttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func parseIntParam(raw string) int {
	if raw == "" {
		return 0
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return value
}
