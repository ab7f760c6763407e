package services_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"shopledger/internal/domain"
	"shopledger/internal/services"
)

func TestBackupRoundTrip(t *testing.T) {
	e := newSaleEnv(t)
	backup := services.NewBackupService(e.db, "correct horse battery")

	p := e.product(t, "widget", "100", 10)
	c := e.customer(t, "Ada")
	agg, err := e.sales.Create(services.SaleInput{
		CustomerID:    &c.ID,
		Items:         []services.SaleLineInput{{ProductID: p.ID, Quantity: 2}},
		PaymentMethod: domain.PayCredit,
		PaymentStatus: domain.StatusPending,
	})
	require.NoError(t, err)

	data, name, err := backup.Export()
	require.NoError(t, err)
	require.NotEmpty(t, data)
	require.Contains(t, name, "shopledger-")
	// ciphertext, not the JSON dump
	require.NotContains(t, string(data), "widget")

	// wreck the live data, then restore
	require.NoError(t, e.sales.Delete(agg.ID))
	require.NoError(t, e.prods.Delete(p.ID))

	require.NoError(t, backup.Import(data))

	got, err := e.sales.Get(agg.ID)
	require.NoError(t, err)
	require.True(t, got.TotalAmount.Equal(dec("200")))
	require.Len(t, got.Items, 1)
	require.Equal(t, 8, e.stock(t, p.ID))
	require.True(t, e.balance(t, c.ID).Equal(dec("200")))
}

func TestBackupWrongPassphrase(t *testing.T) {
	e := newSaleEnv(t)
	p := e.product(t, "widget", "100", 10)

	good := services.NewBackupService(e.db, "right key")
	data, _, err := good.Export()
	require.NoError(t, err)

	bad := services.NewBackupService(e.db, "wrong key")
	err = bad.Import(data)
	require.ErrorIs(t, err, domain.ErrBackupDecrypt)

	// a failed import never touches the data
	require.Equal(t, 10, e.stock(t, p.ID))
}

func TestBackupCorruptPayload(t *testing.T) {
	e := newSaleEnv(t)
	backup := services.NewBackupService(e.db, "key")

	require.ErrorIs(t, backup.Import([]byte("short")), domain.ErrBackupDecrypt)

	data, _, err := backup.Export()
	require.NoError(t, err)
	data[len(data)-1] ^= 0xFF
	require.ErrorIs(t, backup.Import(data), domain.ErrBackupDecrypt)
}
