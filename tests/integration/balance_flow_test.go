package integration

import (
	"fmt"
	"net/http"
	"testing"
)

// createAccount creates an account over HTTP and returns its ID.
func (app *testApp) createAccount(t *testing.T, token, name string, balance float64) float64 {
	t.Helper()
	body := fmt.Sprintf(`{"name":%q,"type":"checking","currency_code":"CNY","initial_balance":%f,"include":true,"can_expense":true,"can_income":true,"can_transfer_from":true,"can_transfer_to":true}`, name, balance)
	rec := app.request("POST", "/api/v1/accounts", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("account creation failed: %d %s", rec.Code, rec.Body.String())
	}
	return parseJSON(t, rec)["account"].(map[string]interface{})["id"].(float64)
}

// createCategory creates a category over HTTP and returns its ID.
func (app *testApp) createCategory(t *testing.T, token, name, categoryType string) float64 {
	t.Helper()
	body := fmt.Sprintf(`{"name":%q,"type":%q}`, name, categoryType)
	rec := app.request("POST", "/api/v1/categories", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("category creation failed: %d %s", rec.Code, rec.Body.String())
	}
	return parseJSON(t, rec)["category"].(map[string]interface{})["id"].(float64)
}

// accountBalance reads an account's balance over HTTP.
func (app *testApp) accountBalance(t *testing.T, token string, accountID float64) float64 {
	t.Helper()
	rec := app.request("GET", fmt.Sprintf("/api/v1/accounts/%.0f", accountID), "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("account lookup failed: %d %s", rec.Code, rec.Body.String())
	}
	return parseJSON(t, rec)["account"].(map[string]interface{})["balance"].(float64)
}

func TestBalanceFlow_ExpenseLifecycle(t *testing.T) {
	app := setupApp(t)

	token, _ := app.registerUser(t, "spender", "password123")
	accountID := app.createAccount(t, token, "Wallet", 1000)
	categoryID := app.createCategory(t, token, "Food", "expense")

	// Step 1: Record a confirmed expense
	body := fmt.Sprintf(`{"type":"expense","title":"dinner","account_id":%.0f,"confirm":true,"include":true,"categories":[{"category_id":%.0f,"amount":80}]}`, accountID, categoryID)
	rec := app.request("POST", "/api/v1/balance-flows", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("flow creation failed: %d %s", rec.Code, rec.Body.String())
	}
	flowID := parseJSON(t, rec)["flow"].(map[string]interface{})["id"].(float64)

	if got := app.accountBalance(t, token, accountID); got != 920 {
		t.Errorf("expected balance 920 after expense, got %f", got)
	}

	// Step 2: The flow shows up in the list
	rec = app.request("GET", "/api/v1/balance-flows", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("flow listing failed: %d %s", rec.Code, rec.Body.String())
	}
	flows := parseJSON(t, rec)["data"].([]interface{})
	if len(flows) != 1 {
		t.Fatalf("expected 1 flow, got %d", len(flows))
	}

	// Step 3: Deleting the flow restores the balance
	rec = app.request("DELETE", fmt.Sprintf("/api/v1/balance-flows/%.0f", flowID), "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("flow deletion failed: %d %s", rec.Code, rec.Body.String())
	}
	if got := app.accountBalance(t, token, accountID); got != 1000 {
		t.Errorf("expected balance restored to 1000, got %f", got)
	}
}

func TestBalanceFlow_TransferAndConfirm(t *testing.T) {
	app := setupApp(t)

	token, _ := app.registerUser(t, "mover", "password123")
	fromID := app.createAccount(t, token, "Checking", 500)
	toID := app.createAccount(t, token, "Savings", 0)

	// Step 1: Record an unconfirmed transfer; balances stay put
	body := fmt.Sprintf(`{"type":"transfer","account_id":%.0f,"to_account_id":%.0f,"amount":200}`, fromID, toID)
	rec := app.request("POST", "/api/v1/balance-flows", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("transfer creation failed: %d %s", rec.Code, rec.Body.String())
	}
	flowID := parseJSON(t, rec)["flow"].(map[string]interface{})["id"].(float64)

	if got := app.accountBalance(t, token, fromID); got != 500 {
		t.Errorf("unconfirmed transfer must not move balances, got %f", got)
	}

	// Step 2: Confirming applies both sides
	rec = app.request("POST", fmt.Sprintf("/api/v1/balance-flows/%.0f/confirm", flowID), "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("confirm failed: %d %s", rec.Code, rec.Body.String())
	}
	if got := app.accountBalance(t, token, fromID); got != 300 {
		t.Errorf("expected source balance 300, got %f", got)
	}
	if got := app.accountBalance(t, token, toID); got != 200 {
		t.Errorf("expected target balance 200, got %f", got)
	}

	// Step 3: Confirming twice is rejected
	rec = app.request("POST", fmt.Sprintf("/api/v1/balance-flows/%.0f/confirm", flowID), "", token)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 on double confirm, got %d: %s", rec.Code, rec.Body.String())
	}
	errObj := parseJSON(t, rec)["error"].(map[string]interface{})
	if errObj["code"] != "FLOW_ALREADY_CONFIRMED" {
		t.Errorf("expected FLOW_ALREADY_CONFIRMED, got %v", errObj["code"])
	}
}

func TestBalanceFlow_AdjustBalance(t *testing.T) {
	app := setupApp(t)

	token, _ := app.registerUser(t, "auditor", "password123")
	accountID := app.createAccount(t, token, "Cash", 100)

	rec := app.request("POST", fmt.Sprintf("/api/v1/accounts/%.0f/adjust", accountID),
		`{"balance":250,"title":"reconcile"}`, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("adjust failed: %d %s", rec.Code, rec.Body.String())
	}
	flow := parseJSON(t, rec)["flow"].(map[string]interface{})
	if flow["type"] != "adjust" {
		t.Errorf("expected an adjust flow, got %v", flow["type"])
	}
	if got := app.accountBalance(t, token, accountID); got != 250 {
		t.Errorf("expected balance 250 after adjust, got %f", got)
	}
}
