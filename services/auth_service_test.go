package services_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/oyolcinar/dus-backend-sub003/handlers"
	"github.com/oyolcinar/dus-backend-sub003/services"
	"github.com/oyolcinar/dus-backend-sub003/testhelpers"
)

func newAuthApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()
	db := testhelpers.SetupTestDB(t)
	app := fiber.New()
	handlers.SetupAuthRoutes(app, services.NewAuthService(db))
	return app, db
}

func postJSON(t *testing.T, app *fiber.App, path string, body interface{}, headers map[string]string) (*http.Response, map[string]interface{}) {
	t.Helper()

	raw, _ := json.Marshal(body)
	req := httptest.NewRequest("POST", path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	var decoded map[string]interface{}
	out, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(out, &decoded)
	return resp, decoded
}

func TestRegisterLoginMe(t *testing.T) {
	app, _ := newAuthApp(t)

	creds := map[string]interface{}{
		"email":    "ash@example.com",
		"username": "ash",
		"password": "correcthorse",
	}

	resp, registered := postJSON(t, app, "/api/auth/register", creds, nil)
	if resp.StatusCode != 201 {
		t.Fatalf("register failed: %d %v", resp.StatusCode, registered)
	}
	if registered["token"] == nil {
		t.Fatalf("register should return a token")
	}
	user := registered["user"].(map[string]interface{})
	if user["role"] != "student" {
		t.Fatalf("new accounts are students, got %v", user["role"])
	}
	if _, leaked := user["passwordHash"]; leaked {
		t.Fatalf("password hash must never leave the server")
	}

	t.Run("duplicate email", func(t *testing.T) {
		resp, _ := postJSON(t, app, "/api/auth/register", creds, nil)
		if resp.StatusCode != 400 {
			t.Fatalf("expected 400 for duplicate email, got %d", resp.StatusCode)
		}
	})

	t.Run("short password", func(t *testing.T) {
		resp, _ := postJSON(t, app, "/api/auth/register", map[string]interface{}{
			"email": "x@example.com", "username": "x", "password": "short",
		}, nil)
		if resp.StatusCode != 400 {
			t.Fatalf("expected 400 for short password, got %d", resp.StatusCode)
		}
	})

	login := func(password string) (*http.Response, map[string]interface{}) {
		return postJSON(t, app, "/api/auth/login", map[string]interface{}{
			"email":    "ash@example.com",
			"password": password,
		}, nil)
	}

	t.Run("wrong password", func(t *testing.T) {
		resp, _ := login("wrongpassword")
		if resp.StatusCode != 401 {
			t.Fatalf("expected 401, got %d", resp.StatusCode)
		}
	})

	resp, loggedIn := login("correcthorse")
	if resp.StatusCode != 200 {
		t.Fatalf("login failed: %d %v", resp.StatusCode, loggedIn)
	}
	token := loggedIn["token"].(string)

	t.Run("me with token", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/auth/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req, 5000)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if resp.StatusCode != 200 {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		var me map[string]interface{}
		raw, _ := io.ReadAll(resp.Body)
		_ = json.Unmarshal(raw, &me)
		if me["username"] != "ash" {
			t.Fatalf("expected own profile, got %v", me["username"])
		}
	})

	t.Run("me without token", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/auth/me", nil)
		resp, err := app.Test(req, 5000)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if resp.StatusCode != 401 {
			t.Fatalf("expected 401, got %d", resp.StatusCode)
		}
	})
}
