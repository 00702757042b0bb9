package sales

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func TestListSalesPaginationEnvelope(t *testing.T) {
	repo := newMemoryRepo()
	repo.addVariant(1, 2, "Playera", "M", 10)
	svc := newTestService(repo)

	req := CreateRequest{
		Items:           []ItemRequest{{ProductID: 1, SizeID: 2, ProductName: "Playera", UnitPrice: 50, Quantity: 1}},
		PaymentMethodID: 1,
	}
	for i := 0; i < 3; i++ {
		_, err := svc.RecordSale(context.Background(), seller(), req)
		require.NoError(t, err)
	}

	handler := NewHandler(svc.logger, svc)
	router := chi.NewRouter()
	router.Route("/api/sales", handler.MountRoutes)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sales?page=1&per_page=2", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body listResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 3, body.Pagination.Total)
	require.Equal(t, 2, body.Pagination.PerPage)
	require.Equal(t, 2, body.Pagination.TotalPages)
	require.NotEmpty(t, body.Data)
}
