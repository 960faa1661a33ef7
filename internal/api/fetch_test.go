package api

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/my-budget-client/internal/common"
	"github.com/Veraticus/my-budget-client/internal/credentials"
	"github.com/Veraticus/my-budget-client/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resourceCall is one authenticated client operation and the route it hits.
// ownsNotFound marks operations that give 404 a meaning of their own.
type resourceCall struct {
	call         func(ctx context.Context, c *Client) error
	name         string
	route        string
	ownsNotFound bool
}

func resourceCalls() []resourceCall {
	return []resourceCall{
		{name: "fetch categories", route: "GET /v1/categories", call: func(ctx context.Context, c *Client) error {
			_, err := c.FetchCategories(ctx)
			return err
		}},
		{name: "create category", route: "POST /v1/categories", call: func(ctx context.Context, c *Client) error {
			_, err := c.CreateCategory(ctx, model.CategoryCreateRequest{Name: "Travel"})
			return err
		}},
		{name: "update category", route: "PUT /v1/categories/1", call: func(ctx context.Context, c *Client) error {
			_, err := c.UpdateCategory(ctx, 1, model.CategoryUpdateRequest{Name: model.StringPtr("Trips")})
			return err
		}},
		{name: "fetch category", route: "GET /v1/categories/1", ownsNotFound: true, call: func(ctx context.Context, c *Client) error {
			_, err := c.FetchCategory(ctx, 1)
			return err
		}},
		{name: "delete category", route: "DELETE /v1/categories/1", ownsNotFound: true, call: func(ctx context.Context, c *Client) error {
			_, err := c.DeleteCategory(ctx, 1)
			return err
		}},
		{name: "fetch transactions", route: "GET /v1/transactions", call: func(ctx context.Context, c *Client) error {
			_, err := c.FetchTransactions(ctx)
			return err
		}},
		{name: "fetch transaction", route: "GET /v1/transactions/10", ownsNotFound: true, call: func(ctx context.Context, c *Client) error {
			_, err := c.FetchTransaction(ctx, 10)
			return err
		}},
		{name: "recent transactions", route: "GET /v1/transactions/recent", ownsNotFound: true, call: func(ctx context.Context, c *Client) error {
			_, err := c.FetchRecentTransactions(ctx, 5)
			return err
		}},
		{name: "create transaction", route: "POST /v1/transactions", call: func(ctx context.Context, c *Client) error {
			_, err := c.CreateTransaction(ctx, model.TransactionCreateRequest{Amount: 5, Date: "2024-01-01"})
			return err
		}},
		{name: "update transaction", route: "PUT /v1/transactions/10", call: func(ctx context.Context, c *Client) error {
			_, err := c.UpdateTransaction(ctx, 10, model.TransactionUpdateRequest{Amount: 5, Date: "2024-01-01"})
			return err
		}},
		{name: "delete transaction", route: "DELETE /v1/transactions/10", call: func(ctx context.Context, c *Client) error {
			return c.DeleteTransaction(ctx, 10)
		}},
		{name: "fetch profile", route: "GET /v1/user/profile", call: func(ctx context.Context, c *Client) error {
			_, err := c.FetchUserProfile(ctx)
			return err
		}},
		{name: "change password", route: "POST /v1/auth/change-password", call: func(ctx context.Context, c *Client) error {
			_, err := c.ChangePassword(ctx, "s3cret-pass", "n3w-s3cret-pass")
			return err
		}},
		{name: "expense percentages", route: "GET /v1/reports/categories/expense-percentages/2024/3", call: func(ctx context.Context, c *Client) error {
			_, err := c.FetchExpensePercentages(ctx, 2024, 3)
			return err
		}},
		{name: "category expenses", route: "GET /v1/reports/categories/expenses/2024/3", call: func(ctx context.Context, c *Client) error {
			_, err := c.FetchCategoryExpenses(ctx, 2024, 3)
			return err
		}},
		{name: "budget overview", route: "GET /v1/reports/budgets/2024/3/budget-overview", call: func(ctx context.Context, c *Client) error {
			_, err := c.FetchBudgetOverview(ctx, 2024, 3)
			return err
		}},
	}
}

func seededService() *fakeService {
	svc := newFakeService()
	svc.addCategory(model.Category{ID: 1, Name: "Travel", BudgetedLimit: 100})
	svc.addTransaction(model.Transaction{TransactionID: 10, Amount: 5, Date: "2024-01-01"})
	return svc
}

func TestSecureFetch_SessionEndingStatuses(t *testing.T) {
	statuses := []struct {
		want   error
		name   string
		status int
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, want: common.ErrSessionExpired},
		{name: "rate limited", status: http.StatusTooManyRequests, want: common.ErrRateLimited},
	}

	for _, st := range statuses {
		for _, rc := range resourceCalls() {
			t.Run(st.name+"/"+rc.name, func(t *testing.T) {
				svc := seededService()
				svc.force(rc.route, st.status)
				client, creds := newTestClient(t, svc)

				var falses int
				client.Auth().Authenticated.Subscribe(func(b bool) {
					if !b {
						falses++
					}
				})
				require.True(t, client.Auth().IsAuthenticated())
				falses = 0

				err := rc.call(context.Background(), client)

				require.ErrorIs(t, err, st.want)
				assert.Equal(t, st.status, common.StatusCode(err))
				assert.Equal(t, 1, creds.Clears(), "credentials cleared exactly once")
				assert.Equal(t, 1, falses, "flag flipped to false exactly once")
				assert.False(t, client.Auth().IsAuthenticated())
				assert.True(t, client.Auth().Profile.Get().IsZero())

				stored, loadErr := creds.Load()
				require.NoError(t, loadErr)
				assert.False(t, stored.HasToken())
				assert.Empty(t, stored.RefreshToken)
				assert.Empty(t, stored.Username)
			})
		}
	}
}

func TestSecureFetch_OtherFailuresAreNetworkErrors(t *testing.T) {
	statuses := []int{
		http.StatusBadRequest,
		http.StatusForbidden,
		http.StatusNotFound,
		http.StatusConflict,
		http.StatusUnprocessableEntity,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
	}

	for _, status := range statuses {
		for _, rc := range resourceCalls() {
			if status == http.StatusNotFound && rc.ownsNotFound {
				continue
			}
			t.Run(http.StatusText(status)+"/"+rc.name, func(t *testing.T) {
				svc := seededService()
				svc.force(rc.route, status)
				client, creds := newTestClient(t, svc)

				err := rc.call(context.Background(), client)

				require.ErrorIs(t, err, common.ErrNetwork)
				assert.NotErrorIs(t, err, common.ErrSessionExpired)
				assert.Equal(t, status, common.StatusCode(err))
				assert.Equal(t, 0, creds.Clears())
				assert.True(t, client.Auth().IsAuthenticated())
				assert.Equal(t, "alice", client.Auth().Profile.Get().Username)
			})
		}
	}
}

func TestSecureFetch_SendsBearerAndJSONHeaders(t *testing.T) {
	svc := seededService()
	client, _ := newTestClient(t, svc)
	ctx := context.Background()

	_, err := client.FetchCategories(ctx)
	require.NoError(t, err)
	get := svc.lastRequest()
	assert.Equal(t, "Bearer "+testToken, get.Authorization)
	assert.Empty(t, get.ContentType)
	assert.Empty(t, get.Body)

	_, err = client.CreateCategory(ctx, model.CategoryCreateRequest{Name: "Books", BudgetedAmount: 40})
	require.NoError(t, err)
	post := svc.lastRequest()
	assert.Equal(t, "Bearer "+testToken, post.Authorization)
	assert.Equal(t, "application/json", post.ContentType)
	assert.Equal(t, "Books", mustJSON(t, post.Body)["name"])
}

func TestSecureFetch_WithoutTokenSendsNothing(t *testing.T) {
	svc := seededService()
	client, _ := newTestClient(t, svc, WithCredentials(credentials.NewMemoryStore(credentials.Credentials{})))

	_, err := client.FetchTransactions(context.Background())

	require.ErrorIs(t, err, common.ErrNotAuthenticated)
	assert.Empty(t, svc.recorded())
}

func TestSecureFetch_TransportFailureLeavesAuthAlone(t *testing.T) {
	svc := seededService()
	client, creds := newTestClient(t, svc)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.FetchCategories(ctx)

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, common.StatusCode(err))
	assert.Equal(t, 0, creds.Clears())
	assert.True(t, client.Auth().IsAuthenticated())
}

func TestNewClient_RejectsBadBaseURL(t *testing.T) {
	_, err := NewClient("budget.example.com")
	assert.Error(t, err)

	_, err = NewClient("://nope")
	assert.Error(t, err)

	client, err := NewClient("https://budget.example.com/")
	require.NoError(t, err)
	assert.Equal(t, "https://budget.example.com", client.BaseURL())
}

func TestNewClient_WithTimeoutCopiesHTTPClient(t *testing.T) {
	shared := &http.Client{Timeout: 5 * time.Second}

	client, err := NewClient("https://budget.example.com",
		WithHTTPClient(shared),
		WithTimeout(250*time.Millisecond),
	)
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, shared.Timeout)
	assert.Equal(t, 250*time.Millisecond, client.httpClient.Timeout)
	assert.NotSame(t, shared, client.httpClient)
}

func TestKeyedMutex(t *testing.T) {
	tests := []struct {
		name    string
		keys    []int
		workers int
	}{
		{name: "single key", keys: []int{1}, workers: 20},
		{name: "several keys", keys: []int{1, 2, 3, 4}, workers: 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := newKeyedMutex()
			inside := make(map[int]int)
			var (
				mu       sync.Mutex
				overlaps int
				wg       sync.WaitGroup
			)

			for i := 0; i < tt.workers; i++ {
				key := tt.keys[i%len(tt.keys)]
				wg.Add(1)
				go func() {
					defer wg.Done()
					unlock := k.lock(key)
					defer unlock()

					mu.Lock()
					inside[key]++
					if inside[key] > 1 {
						overlaps++
					}
					mu.Unlock()

					time.Sleep(time.Millisecond)

					mu.Lock()
					inside[key]--
					mu.Unlock()
				}()
			}
			wg.Wait()

			assert.Zero(t, overlaps)
			k.mu.Lock()
			assert.Empty(t, k.locks)
			k.mu.Unlock()
		})
	}
}

func TestKeyedMutex_UnlockTwice(t *testing.T) {
	k := newKeyedMutex()
	unlock := k.lock(7)
	unlock()
	assert.NotPanics(t, unlock)

	k.mu.Lock()
	assert.Empty(t, k.locks)
	k.mu.Unlock()
}
