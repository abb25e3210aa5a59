package store

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shopfront/client/internal/domain/session"
	"github.com/shopfront/client/internal/domain/shop"
	"github.com/shopfront/client/internal/infrastructure/api"
	"github.com/shopfront/client/internal/infrastructure/sessionstore"
)

// fakeShop is an in-memory stand-in for the storefront backend. State is
// keyed by bearer token so tests can exercise per-account isolation.
type fakeShop struct {
	mu          sync.Mutex
	nextLineID  int64
	nextOrderID int64
	carts       map[string][]shop.CartLine
	wishlists   map[string][]shop.WishlistEntry
	orders      map[string][]shop.Order
	products    []shop.Product

	cartWrites     int
	wishlistWrites int
	cartFetches    int
	rejectWrites   bool
}

func newFakeShop() *fakeShop {
	return &fakeShop{
		nextLineID:  1,
		nextOrderID: 1,
		carts:       map[string][]shop.CartLine{},
		wishlists:   map[string][]shop.WishlistEntry{},
		orders:      map[string][]shop.Order{},
		products: []shop.Product{
			{ID: 1, Name: "Plain Tee", Price: decimal.NewFromInt(20), Sizes: []string{"S", "M", "L"}, Stock: 10, Category: "men"},
			{ID: 2, Name: "Hoodie", Price: decimal.NewFromInt(45), Sizes: []string{"M", "L"}, Stock: 5, Category: "women"},
		},
	}
}

func (f *fakeShop) key(r *http.Request) string {
	return r.Header.Get("Authorization")
}

func (f *fakeShop) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /cart/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.cartFetches++
		writeJSON(w, f.carts[f.key(r)])
	})
	mux.HandleFunc("POST /cart/add/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.rejectWrites {
			w.WriteHeader(http.StatusUnprocessableEntity)
			writeJSON(w, map[string]string{"detail": "out of stock"})
			return
		}
		var in shop.AddToCartInput
		json.NewDecoder(r.Body).Decode(&in)
		f.cartWrites++
		key := f.key(r)
		for i, line := range f.carts[key] {
			if line.ProductID == in.ProductID && line.Size == in.Size {
				f.carts[key][i].Quantity += in.Quantity
				w.WriteHeader(http.StatusCreated)
				return
			}
		}
		var price decimal.Decimal
		name := "unknown"
		for _, p := range f.products {
			if p.ID == in.ProductID {
				price, name = p.Price, p.Name
			}
		}
		f.carts[key] = append(f.carts[key], shop.CartLine{
			ID: f.nextLineID, ProductID: in.ProductID, ProductName: name,
			Size: in.Size, Quantity: in.Quantity, UnitPrice: price,
		})
		f.nextLineID++
		w.WriteHeader(http.StatusCreated)
	})
	mux.HandleFunc("PUT /cart/update/{id}/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.rejectWrites {
			w.WriteHeader(http.StatusUnprocessableEntity)
			writeJSON(w, map[string]string{"detail": "out of stock"})
			return
		}
		id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
		var in shop.UpdateQuantityInput
		json.NewDecoder(r.Body).Decode(&in)
		key := f.key(r)
		for i, line := range f.carts[key] {
			if line.ID == id {
				f.carts[key][i].Quantity = in.Quantity
				f.cartWrites++
				w.WriteHeader(http.StatusOK)
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
		writeJSON(w, map[string]string{"detail": "no such line"})
	})
	mux.HandleFunc("DELETE /cart/delete/{id}/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
		key := f.key(r)
		for i, line := range f.carts[key] {
			if line.ID == id {
				f.carts[key] = append(f.carts[key][:i], f.carts[key][i+1:]...)
				f.cartWrites++
				w.WriteHeader(http.StatusOK)
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
		writeJSON(w, map[string]string{"detail": "no such line"})
	})

	mux.HandleFunc("GET /wishlist/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		writeJSON(w, f.wishlists[f.key(r)])
	})
	mux.HandleFunc("POST /wishlist/add/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		var in struct {
			ProductID int64 `json:"product_id"`
		}
		json.NewDecoder(r.Body).Decode(&in)
		f.wishlistWrites++
		key := f.key(r)
		for _, e := range f.wishlists[key] {
			if e.ProductID == in.ProductID {
				w.WriteHeader(http.StatusConflict)
				writeJSON(w, map[string]string{"detail": "already on wishlist"})
				return
			}
		}
		f.wishlists[key] = append(f.wishlists[key], shop.WishlistEntry{ProductID: in.ProductID})
		w.WriteHeader(http.StatusCreated)
	})
	mux.HandleFunc("DELETE /wishlist/delete/{id}/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
		f.wishlistWrites++
		key := f.key(r)
		for i, e := range f.wishlists[key] {
			if e.ProductID == id {
				f.wishlists[key] = append(f.wishlists[key][:i], f.wishlists[key][i+1:]...)
				w.WriteHeader(http.StatusOK)
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
		writeJSON(w, map[string]string{"detail": "not on wishlist"})
	})

	mux.HandleFunc("GET /order/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		writeJSON(w, f.orders[f.key(r)])
	})
	mux.HandleFunc("POST /order/checkout/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		key := f.key(r)
		if len(f.carts[key]) == 0 {
			w.WriteHeader(http.StatusUnprocessableEntity)
			writeJSON(w, map[string]string{"detail": "cart is empty"})
			return
		}
		var in shop.CheckoutInput
		json.NewDecoder(r.Body).Decode(&in)
		order := shop.Order{
			ID:        f.nextOrderID,
			Status:    shop.OrderStatusPending,
			Address:   in.Address,
			CreatedAt: time.Now().UTC(),
		}
		f.nextOrderID++
		total := decimal.Zero
		for _, line := range f.carts[key] {
			order.Items = append(order.Items, shop.OrderItem{
				ProductID: line.ProductID, ProductName: line.ProductName,
				Size: line.Size, Quantity: line.Quantity, UnitPrice: line.UnitPrice,
			})
			total = total.Add(line.LineTotal())
		}
		order.TotalAmount = total
		f.orders[key] = append(f.orders[key], order)
		f.carts[key] = nil // checkout consumes the cart
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, order)
	})

	mux.HandleFunc("GET /products/{id}/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
		for _, p := range f.products {
			if p.ID == id {
				writeJSON(w, p)
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
		writeJSON(w, map[string]string{"detail": "no such product"})
	})
	mux.HandleFunc("GET /products/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		category := r.URL.Query().Get("category")
		results := make([]shop.Product, 0, len(f.products))
		for _, p := range f.products {
			if category != "" && p.Category != category {
				continue
			}
			results = append(results, p)
		}
		writeJSON(w, map[string]any{
			"results": results, "count": len(results), "total_pages": 1,
		})
	})

	return mux
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func signTestToken(t *testing.T, userID int64, role session.Role) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &session.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		UserID: userID,
		Role:   role,
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

// fixture wires a fake backend, a real file-backed session store and an API
// client the way the command wiring does.
type fixture struct {
	backend  *fakeShop
	sessions *sessionstore.Store
	client   *api.Client
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	backend := newFakeShop()
	server := httptest.NewServer(backend.handler())
	t.Cleanup(server.Close)

	sessions := sessionstore.New(filepath.Join(t.TempDir(), "session.json"), zap.NewNop())
	client := api.NewClient(server.URL, 5*time.Second, sessions, zap.NewNop())
	return &fixture{backend: backend, sessions: sessions, client: client}
}

func (f *fixture) signIn(t *testing.T, userID int64) *session.Session {
	t.Helper()
	sess, err := session.FromToken(signTestToken(t, userID, session.RoleUser))
	require.NoError(t, err)
	require.NoError(t, f.sessions.Establish(sess))
	return sess
}
