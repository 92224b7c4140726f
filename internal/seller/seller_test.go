package seller

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/backend"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/session"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// --- Mock Backend ---

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) FetchSellerProducts(ctx context.Context, token string) ([]domain.Product, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *mockBackend) FetchSellerOrders(ctx context.Context, token string) ([]domain.Order, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *mockBackend) CreateProduct(ctx context.Context, token string, in backend.ProductInput) (string, error) {
	args := m.Called(ctx, token, in)
	return args.String(0), args.Error(1)
}

func (m *mockBackend) UpdateProduct(ctx context.Context, token, productID string, in backend.ProductInput) error {
	return m.Called(ctx, token, productID, in).Error(0)
}

func (m *mockBackend) DeleteProduct(ctx context.Context, token, productID string) error {
	return m.Called(ctx, token, productID).Error(0)
}

func (m *mockBackend) CompleteOrder(ctx context.Context, token, orderID string) error {
	return m.Called(ctx, token, orderID).Error(0)
}

func (m *mockBackend) RegisterSeller(ctx context.Context, token string, profile domain.SellerProfile) (*backend.Registration, error) {
	args := m.Called(ctx, token, profile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*backend.Registration), args.Error(1)
}

// --- Fakes ---

type fakeCatalog struct {
	invalidated []string
	err         error
}

func (f *fakeCatalog) Invalidate(_ context.Context, productID string) error {
	f.invalidated = append(f.invalidated, productID)
	return f.err
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestService() (*Service, *mockBackend, *fakeCatalog) {
	b := &mockBackend{}
	c := &fakeCatalog{}
	return NewService(b, c, newTestLogger()), b, c
}

func product(id string, active bool, stock int) domain.Product {
	return domain.Product{
		ID:                id,
		Name:              "Product " + id,
		Price:             decimal.RequireFromString("9.99"),
		QuantityAvailable: stock,
		IsActive:          active,
	}
}

func order(id, buyer string, status domain.OrderStatus, total string) domain.Order {
	return domain.Order{
		ID:        id,
		Buyer:     buyer,
		Status:    status,
		Total:     decimal.RequireFromString(total),
		CreatedAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}
}

func dataURL(mime string, size int) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(make([]byte, size))
}

// --- Tests ---

func TestDashboard(t *testing.T) {
	svc, b, _ := newTestService()
	b.On("FetchSellerProducts", mock.Anything, "tok").Return([]domain.Product{
		product("p1", true, 3),
		product("p2", false, 3),
		product("p3", true, 0),
		product("p4", true, 1),
	}, nil).Once()
	b.On("FetchSellerOrders", mock.Anything, "tok").Return([]domain.Order{
		order("o1", "ann", domain.OrderPending, "10.10"),
		order("o2", "bob", domain.OrderCompleted, "20.20"),
		order("o3", "cat", domain.OrderShipped, "0.05"),
		order("o4", "dan", domain.OrderProcessing, "69.65"),
	}, nil).Once()

	d, err := svc.Dashboard(context.Background(), "tok")
	require.NoError(t, err)

	assert.Equal(t, "100.00", d.Revenue)
	assert.Equal(t, 4, d.OrderCount)
	assert.Equal(t, 4, d.ProductCount)
	assert.Equal(t, 2, d.ActiveProducts)
	require.Len(t, d.RecentOrders, 3)
	assert.Equal(t, "o1", d.RecentOrders[0].ID)
	assert.Equal(t, "10.10", d.RecentOrders[0].Total)
	require.Len(t, d.RecentProducts, 3)
	assert.Equal(t, "draft", d.RecentProducts[1].Status)
	assert.Equal(t, "out_of_stock", d.RecentProducts[2].Status)
}

func TestDashboard_Empty(t *testing.T) {
	svc, b, _ := newTestService()
	b.On("FetchSellerProducts", mock.Anything, "tok").Return([]domain.Product{}, nil).Once()
	b.On("FetchSellerOrders", mock.Anything, "tok").Return([]domain.Order{}, nil).Once()

	d, err := svc.Dashboard(context.Background(), "tok")
	require.NoError(t, err)

	assert.Equal(t, "0.00", d.Revenue)
	assert.NotNil(t, d.RecentOrders)
	assert.Empty(t, d.RecentOrders)
}

func TestDashboard_PartialFailure(t *testing.T) {
	svc, b, _ := newTestService()
	b.On("FetchSellerProducts", mock.Anything, "tok").Return([]domain.Product{}, nil).Once()
	b.On("FetchSellerOrders", mock.Anything, "tok").Return(nil, apperrors.Forbidden("not a seller")).Once()

	_, err := svc.Dashboard(context.Background(), "tok")
	assert.True(t, errors.Is(err, apperrors.ErrForbidden))
}

func TestListProducts_Query(t *testing.T) {
	svc, b, _ := newTestService()
	b.On("FetchSellerProducts", mock.Anything, "tok").Return([]domain.Product{
		product("mug", true, 1), product("coat", true, 1),
	}, nil).Once()

	out, err := svc.ListProducts(context.Background(), "tok", "MUG")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "mug", out[0].ID)
}

func TestGetProduct(t *testing.T) {
	svc, b, _ := newTestService()
	b.On("FetchSellerProducts", mock.Anything, "tok").Return([]domain.Product{product("p1", false, 1)}, nil).Twice()

	view, err := svc.GetProduct(context.Background(), "tok", "p1")
	require.NoError(t, err)
	assert.Equal(t, "draft", view.Status)

	_, err = svc.GetProduct(context.Background(), "tok", "other")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestListOrders_Filters(t *testing.T) {
	orders := []domain.Order{
		order("ord-1", "ann", domain.OrderCompleted, "1"),
		order("ord-2", "bob", domain.OrderProcessing, "1"),
		order("ord-3", "annette", domain.OrderProcessing, "1"),
	}

	tests := []struct {
		name   string
		query  string
		status string
		want   []string
	}{
		{"all", "", "all", []string{"ord-1", "ord-2", "ord-3"}},
		{"status", "", "processing", []string{"ord-2", "ord-3"}},
		{"buyer query", "ann", "", []string{"ord-1", "ord-3"}},
		{"id query and status", "ord-3", "Processing", []string{"ord-3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, b, _ := newTestService()
			b.On("FetchSellerOrders", mock.Anything, "tok").Return(orders, nil).Once()

			out, err := svc.ListOrders(context.Background(), "tok", tt.query, tt.status)
			require.NoError(t, err)
			var got []string
			for _, o := range out {
				got = append(got, o.ID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCreateProduct(t *testing.T) {
	svc, b, c := newTestService()
	form := ProductForm{
		Name:   "  Mug  ",
		Price:  decimal.RequireFromString("12.00"),
		Stock:  5,
		Status: domain.ProductActive,
		Images: []backend.ImageFile{{Name: "mug.png", Data: dataURL("image/png", 1024)}},
	}
	b.On("CreateProduct", mock.Anything, "tok", mock.MatchedBy(func(in backend.ProductInput) bool {
		return in.Name == "Mug" && in.IsActive && in.QuantityAvailable == 5 && len(in.ImageFiles) == 1
	})).Return("new-id", nil).Once()

	id, err := svc.CreateProduct(context.Background(), "tok", form)
	require.NoError(t, err)
	assert.Equal(t, "new-id", id)
	assert.Equal(t, []string{"new-id"}, c.invalidated)
}

func TestProductForm_StatusMapping(t *testing.T) {
	tests := []struct {
		status domain.ProductStatus
		active bool
		stock  int
	}{
		{domain.ProductActive, true, 4},
		{domain.ProductDraft, false, 4},
		{domain.ProductOutOfStock, true, 0},
	}
	for _, tt := range tests {
		in, err := ProductForm{Name: "x", Stock: 4, Status: tt.status}.input()
		require.NoError(t, err)
		assert.Equal(t, tt.active, in.IsActive, tt.status)
		assert.Equal(t, tt.stock, in.QuantityAvailable, tt.status)
	}
}

func TestProductForm_Validation(t *testing.T) {
	valid := func() ProductForm {
		return ProductForm{Name: "Mug", Price: decimal.RequireFromString("1"), Stock: 1}
	}

	tests := []struct {
		name   string
		mutate func(*ProductForm)
		msg    string
	}{
		{"blank name", func(f *ProductForm) { f.Name = " " }, "name"},
		{"negative price", func(f *ProductForm) { f.Price = decimal.RequireFromString("-1") }, "price"},
		{"negative stock", func(f *ProductForm) { f.Stock = -1 }, "stock"},
		{"unknown status", func(f *ProductForm) { f.Status = "archived" }, "status"},
		{"too many images", func(f *ProductForm) {
			for range 4 {
				f.Images = append(f.Images, backend.ImageFile{Data: dataURL("image/png", 1)})
			}
		}, "at most 3"},
		{"not a data url", func(f *ProductForm) {
			f.Images = []backend.ImageFile{{Name: "a", Data: "https://x/y.png"}}
		}, "data URL"},
		{"unsupported type", func(f *ProductForm) {
			f.Images = []backend.ImageFile{{Name: "a", Data: dataURL("application/pdf", 10)}}
		}, "unsupported"},
		{"too large", func(f *ProductForm) {
			f.Images = []backend.ImageFile{{Name: "big", Data: dataURL("image/jpeg", MaxImageBytes+1)}}
		}, "exceeds 5 MiB"},
		{"bad base64", func(f *ProductForm) {
			f.Images = []backend.ImageFile{{Name: "a", Data: "data:image/png;base64,!!!"}}
		}, "base64"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := valid()
			tt.mutate(&f)
			_, err := f.input()
			require.Error(t, err)
			assert.True(t, apperrors.IsValidation(err))
			assert.True(t, strings.Contains(err.Error(), tt.msg), err.Error())
		})
	}
}

func TestImages_ExactLimitAccepted(t *testing.T) {
	err := validateImages([]backend.ImageFile{{Name: "max", Data: dataURL("image/webp", MaxImageBytes)}})
	assert.NoError(t, err)
}

func TestUpdateAndDeleteInvalidate(t *testing.T) {
	svc, b, c := newTestService()
	b.On("UpdateProduct", mock.Anything, "tok", "p1", mock.Anything).Return(nil).Once()
	b.On("DeleteProduct", mock.Anything, "tok", "p2").Return(nil).Once()

	require.NoError(t, svc.UpdateProduct(context.Background(), "tok", "p1", ProductForm{Name: "x"}))
	require.NoError(t, svc.DeleteProduct(context.Background(), "tok", "p2"))

	assert.Equal(t, []string{"p1", "p2"}, c.invalidated)
}

func TestUpdateProduct_InvalidFormSkipsBackend(t *testing.T) {
	svc, b, c := newTestService()

	err := svc.UpdateProduct(context.Background(), "tok", "p1", ProductForm{})
	assert.True(t, apperrors.IsValidation(err))
	b.AssertNotCalled(t, "UpdateProduct", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, c.invalidated)
}

func TestDeleteProduct_FailureKeepsCache(t *testing.T) {
	svc, b, c := newTestService()
	b.On("DeleteProduct", mock.Anything, "tok", "p1").Return(apperrors.Forbidden("not your product")).Once()

	err := svc.DeleteProduct(context.Background(), "tok", "p1")
	assert.True(t, errors.Is(err, apperrors.ErrForbidden))
	assert.Empty(t, c.invalidated)
}

func TestCompleteOrder(t *testing.T) {
	svc, b, _ := newTestService()
	b.On("CompleteOrder", mock.Anything, "tok", "o1").Return(nil).Once()

	require.NoError(t, svc.CompleteOrder(context.Background(), "tok", "o1"))
	b.AssertExpectations(t)
}

func TestRegister(t *testing.T) {
	profile := domain.SellerProfile{StoreName: "Ada's", Bio: "Mugs", PhoneNumber: "+15550100"}

	t.Run("buyer is promoted", func(t *testing.T) {
		svc, b, _ := newTestService()
		b.On("RegisterSeller", mock.Anything, "tok", profile).
			Return(&backend.Registration{Role: "seller", Promoted: true}, nil).Once()

		reg, err := svc.Register(context.Background(), &session.Session{UserID: "u1", Role: "buyer", Token: "tok"}, profile)
		require.NoError(t, err)
		assert.True(t, reg.Promoted)
	})

	t.Run("seller is not promoted again", func(t *testing.T) {
		svc, b, _ := newTestService()

		reg, err := svc.Register(context.Background(), &session.Session{UserID: "u1", Role: "seller", Token: "tok"}, profile)
		require.NoError(t, err)
		assert.Equal(t, "seller", reg.Role)
		assert.False(t, reg.Promoted)
		b.AssertNotCalled(t, "RegisterSeller", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("validation", func(t *testing.T) {
		svc, _, _ := newTestService()

		_, err := svc.Register(context.Background(), nil, profile)
		assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))

		_, err = svc.Register(context.Background(), &session.Session{UserID: "u1"}, domain.SellerProfile{})
		assert.True(t, apperrors.IsValidation(err))
	})
}
