package integration

import (
	"net/http"
	"testing"
)

func TestAuthFlow_RegisterLoginProfile(t *testing.T) {
	app := setupApp(t)

	// Step 1: Register
	token, userID := app.registerUser(t, "alice", "password123")
	if token == "" {
		t.Fatal("expected non-empty token from registration")
	}
	if userID == 0 {
		t.Fatal("expected non-zero user ID")
	}

	// Step 2: Login with same credentials
	loginToken := app.loginUser(t, "alice", "password123")
	if loginToken == "" {
		t.Fatal("expected non-empty token from login")
	}

	// Step 3: Access profile; registration set up a personal group and book
	rec := app.request("GET", "/api/v1/profile", "", loginToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	user := result["user"].(map[string]interface{})
	if user["username"] != "alice" {
		t.Errorf("expected username alice, got %v", user["username"])
	}
	group := result["group"].(map[string]interface{})
	if group["id"].(float64) == 0 {
		t.Error("expected a default group from registration")
	}
	book := result["book"].(map[string]interface{})
	if book["id"].(float64) == 0 {
		t.Error("expected a default book from registration")
	}
}

func TestAuthFlow_RegisterDuplicateUsername(t *testing.T) {
	app := setupApp(t)

	app.registerUser(t, "bob", "password123")

	rec := app.request("POST", "/api/v1/auth/register",
		`{"username":"bob","password":"password123"}`, "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate username, got %d: %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	errObj := result["error"].(map[string]interface{})
	if errObj["code"] != "DUPLICATE_USERNAME" {
		t.Errorf("expected DUPLICATE_USERNAME, got %v", errObj["code"])
	}
}

func TestAuthFlow_LoginWrongPassword(t *testing.T) {
	app := setupApp(t)

	app.registerUser(t, "carol", "password123")

	rec := app.request("POST", "/api/v1/auth/login",
		`{"username":"carol","password":"wrong-password"}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong password, got %d: %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	errObj := result["error"].(map[string]interface{})
	if errObj["code"] != "INVALID_CREDENTIALS" {
		t.Errorf("expected INVALID_CREDENTIALS, got %v", errObj["code"])
	}
}

func TestAuthFlow_ProtectedRouteWithoutToken(t *testing.T) {
	app := setupApp(t)

	rec := app.request("GET", "/api/v1/profile", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAuthFlow_ChangePassword(t *testing.T) {
	app := setupApp(t)

	token, _ := app.registerUser(t, "dave", "password123")

	rec := app.request("PUT", "/api/v1/password",
		`{"old_password":"password123","new_password":"new-password-1"}`, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("password change failed: %d %s", rec.Code, rec.Body.String())
	}

	// Old password stops working, the new one logs in.
	rec = app.request("POST", "/api/v1/auth/login",
		`{"username":"dave","password":"password123"}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with old password, got %d", rec.Code)
	}
	app.loginUser(t, "dave", "new-password-1")
}
