//go:build integration

package integration

import (
	"fmt"
	"net/http"
	"testing"
	"time"
)

func TestRegisterAndMe(t *testing.T) {
	sess := registerCustomer(t, "register")

	if sess.Token == "" {
		t.Fatal("register returned an empty token")
	}
	if sess.Customer.Role != "customer" {
		t.Errorf("role: got %q, want %q", sess.Customer.Role, "customer")
	}

	resp := doGetAuth(t, "/api/auth/me", sess.Token)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	me := decodeJSON[customerResponse](t, resp)
	if me.ID != sess.Customer.ID {
		t.Errorf("customer id: got %q, want %q", me.ID, sess.Customer.ID)
	}
	if me.Email != sess.Customer.Email {
		t.Errorf("email: got %q, want %q", me.Email, sess.Customer.Email)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	email := fmt.Sprintf("dupe-%d@dhobighat.test", time.Now().UnixNano())
	body := registerRequest{
		Name:     "First",
		Email:    email,
		Phone:    "+91-9800000001",
		Password: "washday-secret",
	}

	resp := doPost(t, "/api/auth/register", body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("first register: expected 201, got %d", resp.StatusCode)
	}

	resp = doPost(t, "/api/auth/register", body)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("second register: expected 400, got %d", resp.StatusCode)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	sess := registerCustomer(t, "badlogin")

	resp := doPost(t, "/api/auth/login", loginRequest{
		Email:    sess.Customer.Email,
		Password: "not-the-password",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestLogout_RevokesSession(t *testing.T) {
	sess := registerCustomer(t, "logout")

	resp := doPostAuth(t, "/api/auth/logout", struct{}{}, sess.Token)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", resp.StatusCode)
	}

	resp = doGetAuth(t, "/api/auth/me", sess.Token)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("me after logout: expected 401, got %d", resp.StatusCode)
	}
}

func TestAddAddress(t *testing.T) {
	sess := registerCustomer(t, "address")

	resp := doPostAuth(t, "/api/auth/addresses", addressRequest{
		Label:      "office",
		Street:     "88 Residency Road",
		City:       "Bengaluru",
		State:      "Karnataka",
		PostalCode: "560025",
		Default:    true,
	}, sess.Token)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	addr := decodeJSON[addressResponse](t, resp)
	if addr.ID == "" {
		t.Error("address id is empty")
	}
	if !addr.Default {
		t.Error("address should be default")
	}
}

func TestAuthRequired(t *testing.T) {
	paths := []string{"/api/auth/me", "/api/orders"}

	for _, path := range paths {
		resp := doGet(t, path)
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", path, resp.StatusCode)
		}
	}
}

func TestAdminRequired(t *testing.T) {
	sess := registerCustomer(t, "notadmin")

	resp := doGetAuth(t, "/api/admin/coupons", sess.Token)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}
