package services_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"shopledger/internal/domain"
	"shopledger/internal/repos"
	"shopledger/internal/services"
)

func TestAnalyticsRollups(t *testing.T) {
	e := newSaleEnv(t)
	analytics := services.NewAnalyticsService(repos.NewAnalyticsRepo(e.db))

	a := e.product(t, "alpha", "10", 50)
	b := e.product(t, "beta", "25", 50)
	c := e.customer(t, "Ada")

	_, err := e.sales.Create(services.SaleInput{
		Items: []services.SaleLineInput{
			{ProductID: a.ID, Quantity: 4},
			{ProductID: b.ID, Quantity: 1},
		},
		PaymentMethod: domain.PayCash,
		PaymentStatus: domain.StatusPaid,
	})
	require.NoError(t, err)
	_, err = e.sales.Create(services.SaleInput{
		CustomerID:    &c.ID,
		Items:         []services.SaleLineInput{{ProductID: a.ID, Quantity: 2}},
		PaymentMethod: domain.PayCredit,
		PaymentStatus: domain.StatusPending,
	})
	require.NoError(t, err)

	sum, err := analytics.Summary()
	require.NoError(t, err)
	require.Equal(t, 2, sum.SaleCount)
	require.True(t, sum.TotalRevenue.Equal(dec("85")), "revenue = %s", sum.TotalRevenue)
	require.True(t, sum.OutstandingTotal.Equal(dec("20")))

	days, err := analytics.RevenueByDay(7)
	require.NoError(t, err)
	require.Len(t, days, 1) // both sales dated today
	require.True(t, days[0].Revenue.Equal(dec("85")))
	require.Equal(t, 2, days[0].Sales)

	top, err := analytics.TopProducts(10)
	require.NoError(t, err)
	require.NotEmpty(t, top)
	require.Equal(t, a.ID, top[0].ProductID)
	require.Equal(t, 6, top[0].UnitsSold)
	require.True(t, top[0].Revenue.Equal(dec("60")))
}

func TestAnalyticsLowStock(t *testing.T) {
	e := newSaleEnv(t)
	analytics := services.NewAnalyticsService(repos.NewAnalyticsRepo(e.db))

	before, err := analytics.Summary()
	require.NoError(t, err)

	e.product(t, "scarce", "10", 2)

	after, err := analytics.Summary()
	require.NoError(t, err)
	require.Equal(t, before.LowStockCount+1, after.LowStockCount)
}
