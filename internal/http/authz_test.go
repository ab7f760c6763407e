package handlers_test

import (
	"net/http"
	"testing"
)

func TestProtectedRoutesNeedToken(t *testing.T) {
	app, _ := newAPIApp(t)

	for _, tc := range []struct{ method, path string }{
		{"GET", "/api/v1/customers"},
		{"POST", "/api/v1/sales"},
		{"POST", "/api/v1/payments"},
		{"GET", "/api/v1/analytics/summary"},
	} {
		resp, err := app.Test(jsonReq(tc.method, tc.path, nil))
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401, got %d", tc.method, tc.path, resp.StatusCode)
		}
	}
}

func TestProductReadIsPublic(t *testing.T) {
	app, _ := newAPIApp(t)

	resp, err := app.Test(jsonReq("GET", "/api/v1/products", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 without token, got %d", resp.StatusCode)
	}
}

func TestAdminRoutesRejectClerk(t *testing.T) {
	app, _ := newAPIApp(t)
	clerk := login(t, app, "clerk@shopledger.test")

	for _, tc := range []struct{ method, path string }{
		{"DELETE", "/api/v1/products/1"},
		{"DELETE", "/api/v1/sales/1"},
		{"GET", "/api/v1/backup"},
	} {
		resp, err := app.Test(authedReq(tc.method, tc.path, clerk, nil))
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != http.StatusForbidden {
			t.Fatalf("%s %s as clerk: expected 403, got %d", tc.method, tc.path, resp.StatusCode)
		}
	}
}

func TestAdminCanDeleteProduct(t *testing.T) {
	app, _ := newAPIApp(t)
	owner := login(t, app, "owner@shopledger.test")

	// seeded product id 1 exists
	resp, err := app.Test(authedReq("DELETE", "/api/v1/products/1", owner, nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}

	resp, err = app.Test(jsonReq("GET", "/api/v1/products/1", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", resp.StatusCode)
	}
}

func TestBackupExportIsAttachment(t *testing.T) {
	app, _ := newAPIApp(t)
	owner := login(t, app, "owner@shopledger.test")

	resp, err := app.Test(authedReq("GET", "/api/v1/backup", owner, nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if cd := resp.Header.Get("Content-Disposition"); cd == "" {
		t.Fatal("missing Content-Disposition header")
	}
}
