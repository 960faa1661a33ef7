package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/my-budget-client/internal/credentials"
	"github.com/Veraticus/my-budget-client/internal/model"
	"golang.org/x/oauth2"
)

const testToken = "test-token"

type recordedRequest struct {
	Method        string
	Path          string
	RawQuery      string
	Authorization string
	ContentType   string
	Body          []byte
}

// fakeService is an in-memory budget service.
type fakeService struct {
	categories   map[int]model.Category
	transactions map[int]model.Transaction
	forced       map[string]int
	profile      model.UserProfile
	users        map[string]string
	requests     []recordedRequest
	token        string
	nextID       int
	readDelay    time.Duration
	mu           sync.Mutex
}

func newFakeService() *fakeService {
	return &fakeService{
		categories:   make(map[int]model.Category),
		transactions: make(map[int]model.Transaction),
		forced:       make(map[string]int),
		users:        map[string]string{"alice": "s3cret-pass"},
		profile:      model.UserProfile{Username: "alice", Email: "alice@example.com"},
		token:        testToken,
		nextID:       100,
	}
}

// force makes every request matching "METHOD /path" answer with status.
// A zero status removes the override.
func (s *fakeService) force(route string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.forced, route)
		return
	}
	s.forced[route] = status
}

func (s *fakeService) addCategory(c model.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories[c.ID] = c
}

func (s *fakeService) addTransaction(tx model.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions[tx.TransactionID] = tx
}

func (s *fakeService) category(id int) model.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.categories[id]
}

func (s *fakeService) recorded() []recordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]recordedRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

func (s *fakeService) lastRequest() recordedRequest {
	reqs := s.recorded()
	if len(reqs) == 0 {
		return recordedRequest{}
	}
	return reqs[len(reqs)-1]
}

func (s *fakeService) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /version", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"version": "1.4.2", "commit": "abc123"})
	})

	mux.HandleFunc("POST /v1/auth/login", s.login)
	mux.HandleFunc("POST /v1/auth/refresh-token", s.refresh)
	mux.HandleFunc("POST /v1/auth/register", s.register)
	mux.HandleFunc("POST /v1/auth/change-password", s.changePassword)
	mux.HandleFunc("POST /v1/auth/logout", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully."})
	})

	mux.HandleFunc("GET /v1/categories", s.listCategories)
	mux.HandleFunc("POST /v1/categories", s.createCategory)
	mux.HandleFunc("GET /v1/categories/{id}", s.getCategory)
	mux.HandleFunc("PUT /v1/categories/{id}", s.updateCategory)
	mux.HandleFunc("DELETE /v1/categories/{id}", s.deleteCategory)

	mux.HandleFunc("GET /v1/transactions", s.listTransactions)
	mux.HandleFunc("POST /v1/transactions", s.createTransaction)
	mux.HandleFunc("GET /v1/transactions/recent", s.recentTransactions)
	mux.HandleFunc("GET /v1/transactions/{id}", s.getTransaction)
	mux.HandleFunc("PUT /v1/transactions/{id}", s.updateTransaction)
	mux.HandleFunc("DELETE /v1/transactions/{id}", s.deleteTransaction)

	mux.HandleFunc("GET /v1/user/profile", func(w http.ResponseWriter, _ *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		writeJSON(w, http.StatusOK, s.profile)
	})
	mux.HandleFunc("PATCH /v1/user/profile", s.patchProfile)

	mux.HandleFunc("GET /v1/reports/categories/expenses/{year}/{month}", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, []model.CategoryExpenseReport{
			{ID: 1, CategoryName: "Groceries", TotalAmount: 312.4},
			{ID: 2, CategoryName: "Rent", TotalAmount: 1200},
		})
	})
	mux.HandleFunc("GET /v1/reports/categories/expense-percentages/{year}/{month}", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, []model.CategoryExpensePercentage{
			{ID: 1, CategoryName: "Groceries", Percentage: 10.41},
			{ID: 2, CategoryName: "Rent", Percentage: 40},
		})
	})
	mux.HandleFunc("GET /v1/reports/budgets/{year}/{month}/budget-overview", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, model.BudgetOverviewReport{TotalIncome: 3000, TotalExpenses: 1512.4, Balance: 1487.6})
	})

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = r.Body.Close()
		r.Body = io.NopCloser(strings.NewReader(string(body)))

		s.mu.Lock()
		s.requests = append(s.requests, recordedRequest{
			Method:        r.Method,
			Path:          r.URL.Path,
			RawQuery:      r.URL.RawQuery,
			Authorization: r.Header.Get("Authorization"),
			ContentType:   r.Header.Get("Content-Type"),
			Body:          body,
		})
		status, forced := s.forced[r.Method+" "+r.URL.Path]
		token := s.token
		s.mu.Unlock()

		if forced {
			writeJSON(w, status, map[string]string{"detail": http.StatusText(status)})
			return
		}

		public := r.URL.Path == "/version" ||
			r.URL.Path == "/v1/auth/login" ||
			r.URL.Path == "/v1/auth/register" ||
			r.URL.Path == "/v1/auth/refresh-token"
		if !public && r.Header.Get("Authorization") != "Bearer "+token {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Not authenticated"})
			return
		}

		mux.ServeHTTP(w, r)
	})
}

func (s *fakeService) login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.users[req.Username] != req.Password || req.Password == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Incorrect username or password"})
		return
	}
	writeJSON(w, http.StatusOK, model.Tokens{AccessToken: s.token, RefreshToken: "refresh-1", TokenType: "bearer"})
}

func (s *fakeService) register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.users[req.Username]; taken || req.Email == s.profile.Email {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "The user with this email already exists in the system."})
		return
	}
	s.users[req.Username] = req.Password
	s.nextID++
	writeJSON(w, http.StatusOK, model.RegisteredUser{
		ID:        s.nextID,
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		IsActive:  true,
	})
}

func (s *fakeService) changePassword(w http.ResponseWriter, r *http.Request) {
	var req model.PasswordChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.users[s.profile.Username] != req.OldPassword {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Incorrect password."})
		return
	}
	s.users[s.profile.Username] = req.NewPassword
	writeJSON(w, http.StatusOK, model.MessageResponse{Message: "Password changed successfully."})
}

func (s *fakeService) refresh(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("refresh_token") != "refresh-1" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Invalid or expired refresh token"})
		return
	}

	s.mu.Lock()
	s.token = "refreshed-token"
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, model.Tokens{AccessToken: "refreshed-token", TokenType: "bearer"})
}

func (s *fakeService) listCategories(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	categories := make([]model.Category, 0, len(s.categories))
	for _, c := range s.categories {
		categories = append(categories, c)
	}
	delay := s.readDelay
	s.mu.Unlock()

	sort.Slice(categories, func(i, j int) bool { return categories[i].ID < categories[j].ID })

	// Widens the window between a read and the follow-up write.
	time.Sleep(delay)
	writeJSON(w, http.StatusOK, categories)
}

func (s *fakeService) createCategory(w http.ResponseWriter, r *http.Request) {
	var req model.CategoryCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	c := model.Category{
		ID:             s.nextID,
		Name:           req.Name,
		BudgetedAmount: req.BudgetedAmount,
		BudgetedLimit:  req.BudgetedLimit,
		ColorCode:      req.ColorCode,
		Description:    req.Description,
		Icon:           req.Icon,
		IsActive:       true,
	}
	s.categories[c.ID] = c
	writeJSON(w, http.StatusOK, c)
}

func (s *fakeService) getCategory(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(r.PathValue("id"))

	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Category not found"})
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *fakeService) updateCategory(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(r.PathValue("id"))

	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Category not found"})
		return
	}

	// Decoding onto the existing value applies partial updates.
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": err.Error()})
		return
	}
	c.ID = id
	s.categories[id] = c
	writeJSON(w, http.StatusOK, c)
}

func (s *fakeService) deleteCategory(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(r.PathValue("id"))

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[id]; !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Category not found"})
		return
	}
	delete(s.categories, id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *fakeService) listTransactions(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	transactions := make([]model.Transaction, 0, len(s.transactions))
	for _, tx := range s.transactions {
		transactions = append(transactions, tx)
	}
	sort.Slice(transactions, func(i, j int) bool {
		return transactions[i].TransactionID < transactions[j].TransactionID
	})
	writeJSON(w, http.StatusOK, transactions)
}

func (s *fakeService) getTransaction(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(r.PathValue("id"))

	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.transactions[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Transaction not found"})
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (s *fakeService) recentTransactions(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	transactions := make([]model.Transaction, 0, len(s.transactions))
	for _, tx := range s.transactions {
		transactions = append(transactions, tx)
	}
	if len(transactions) == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "No transactions found"})
		return
	}
	sort.Slice(transactions, func(i, j int) bool { return transactions[i].Date > transactions[j].Date })
	if len(transactions) > limit {
		transactions = transactions[:limit]
	}
	writeJSON(w, http.StatusOK, transactions)
}

func (s *fakeService) createTransaction(w http.ResponseWriter, r *http.Request) {
	var req model.TransactionCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	tx := transactionFromRequest(s.nextID, req)
	s.transactions[tx.TransactionID] = tx
	writeJSON(w, http.StatusOK, tx)
}

func (s *fakeService) updateTransaction(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(r.PathValue("id"))

	var req model.TransactionUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transactions[id]; !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Transaction not found"})
		return
	}
	tx := transactionFromRequest(id, req)
	s.transactions[id] = tx
	writeJSON(w, http.StatusOK, tx)
}

func (s *fakeService) deleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(r.PathValue("id"))

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transactions[id]; !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Transaction not found"})
		return
	}
	delete(s.transactions, id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *fakeService) patchProfile(w http.ResponseWriter, r *http.Request) {
	var update model.UserProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if update.City != nil {
		s.profile.City = *update.City
	}
	if update.FirstName != nil {
		s.profile.FirstName = *update.FirstName
	}
	writeJSON(w, http.StatusOK, s.profile)
}

func transactionFromRequest(id int, req model.TransactionCreateRequest) model.Transaction {
	return model.Transaction{
		TransactionID: id,
		UserID:        1,
		Amount:        req.Amount,
		Date:          req.Date,
		Description:   req.Description,
		Note:          req.Note,
		Location:      req.Location,
		CategoryID:    req.CategoryID,
		IsIncome:      req.IsIncome,
		CreatedAt:     "2024-01-01T00:00:00",
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// newTestClient starts svc and returns a signed-in client pointed at it.
func newTestClient(t *testing.T, svc *fakeService, opts ...Option) (*Client, *credentials.MemoryStore) {
	t.Helper()

	server := httptest.NewServer(svc.handler())
	t.Cleanup(server.Close)

	creds := credentials.NewMemoryStore(credentials.Credentials{
		Token:    oauth2.Token{AccessToken: testToken, RefreshToken: "refresh-1", TokenType: "bearer"},
		Username: "alice",
	})

	opts = append([]Option{
		WithCredentials(creds),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}, opts...)

	client, err := NewClient(server.URL, opts...)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	if err := client.Initialize(); err != nil {
		t.Fatalf("failed to initialize auth: %v", err)
	}
	return client, creds
}

func mustJSON(t *testing.T, data []byte) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("invalid JSON body %q: %v", data, err)
	}
	return out
}
