package integration

import (
	"fmt"
	"net/http"
	"testing"
)

func (app *testApp) createExpense(t *testing.T, token, categoryID, amount, date string) {
	t.Helper()
	body := fmt.Sprintf(`{"category_id":%q,"type":"expense","amount":%q,"date":%q}`,
		categoryID, amount, date)
	rec := app.request("POST", "/api/v1/transactions", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create transaction failed: %d %s", rec.Code, rec.Body.String())
	}
}

func TestBudgetFlow_ThresholdAlerts(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "budget@test.com", "password123")
	categoryID := app.createCategory(t, token, "Groceries", "expense")

	body := fmt.Sprintf(`{
		"category_id": %q,
		"amount": "1000.00",
		"month": 6,
		"year": 2099,
		"notification_rules": [
			{"kind": "critical", "threshold_percent": 100, "active": true},
			{"kind": "alert", "threshold_percent": 80, "active": true}
		]
	}`, categoryID)
	rec := app.request("POST", "/api/v1/budgets", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create budget failed: %d %s", rec.Code, rec.Body.String())
	}
	budgetID := parseJSON(t, rec)["id"].(string)

	// No spending yet: nothing triggered.
	rec = app.request("GET", "/api/v1/budgets/"+budgetID+"/alerts", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("alerts failed: %d %s", rec.Code, rec.Body.String())
	}
	alert := parseJSON(t, rec)
	if alert["spent"] != "0" {
		t.Errorf("expected zero spent, got %v", alert["spent"])
	}
	if alert["triggered"] != nil {
		t.Errorf("expected no triggered rules, got %v", alert["triggered"])
	}

	// Spend 80% of the budget: the alert rule fires.
	app.createExpense(t, token, categoryID, "800.00", "2099-06-10T00:00:00Z")

	rec = app.request("GET", "/api/v1/budgets/"+budgetID+"/alerts", "", token)
	alert = parseJSON(t, rec)
	if alert["percent"] != "80" {
		t.Errorf("expected 80 percent, got %v", alert["percent"])
	}
	triggered := alert["triggered"].([]interface{})
	if len(triggered) != 1 {
		t.Fatalf("expected 1 triggered rule, got %d", len(triggered))
	}
	if triggered[0].(map[string]interface{})["kind"] != "alert" {
		t.Errorf("expected alert rule, got %v", triggered[0])
	}

	// Cross 100%: both rules fire, highest threshold first.
	app.createExpense(t, token, categoryID, "250.00", "2099-06-20T00:00:00Z")

	rec = app.request("GET", "/api/v1/budgets/"+budgetID+"/alerts", "", token)
	alert = parseJSON(t, rec)
	if alert["spent"] != "1050" {
		t.Errorf("expected spent 1050, got %v", alert["spent"])
	}
	triggered = alert["triggered"].([]interface{})
	if len(triggered) != 2 {
		t.Fatalf("expected 2 triggered rules, got %d", len(triggered))
	}
	if triggered[0].(map[string]interface{})["kind"] != "critical" ||
		triggered[1].(map[string]interface{})["kind"] != "alert" {
		t.Errorf("expected [critical alert] ordering, got %v", triggered)
	}
}

func TestBudgetFlow_SpendingOutsidePeriodIgnored(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "period@test.com", "password123")
	categoryID := app.createCategory(t, token, "Dining", "expense")

	body := fmt.Sprintf(`{"category_id":%q,"amount":"500.00","month":6,"year":2099,
		"notification_rules":[{"kind":"alert","threshold_percent":80,"active":true}]}`, categoryID)
	rec := app.request("POST", "/api/v1/budgets", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create budget failed: %d %s", rec.Code, rec.Body.String())
	}
	budgetID := parseJSON(t, rec)["id"].(string)

	// Transactions in other months do not count toward June.
	app.createExpense(t, token, categoryID, "400.00", "2099-05-31T00:00:00Z")
	app.createExpense(t, token, categoryID, "400.00", "2099-07-01T00:00:00Z")
	app.createExpense(t, token, categoryID, "100.00", "2099-06-15T00:00:00Z")

	rec = app.request("GET", "/api/v1/budgets/"+budgetID+"/alerts", "", token)
	alert := parseJSON(t, rec)
	if alert["spent"] != "100" {
		t.Errorf("expected spent 100, got %v", alert["spent"])
	}
	if alert["triggered"] != nil {
		t.Errorf("expected no triggered rules, got %v", alert["triggered"])
	}
}

func TestBudgetFlow_DuplicatePeriodRejected(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "dup@test.com", "password123")
	categoryID := app.createCategory(t, token, "Rent", "expense")

	body := fmt.Sprintf(`{"category_id":%q,"amount":"500.00","month":6,"year":2099}`, categoryID)
	rec := app.request("POST", "/api/v1/budgets", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create budget failed: %d %s", rec.Code, rec.Body.String())
	}

	rec = app.request("POST", "/api/v1/budgets", body, token)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate budget, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestBudgetFlow_UpdateRules(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "update@test.com", "password123")
	categoryID := app.createCategory(t, token, "Travel", "expense")

	body := fmt.Sprintf(`{"category_id":%q,"amount":"1000.00","month":6,"year":2099,
		"notification_rules":[{"kind":"alert","threshold_percent":90,"active":true}]}`, categoryID)
	rec := app.request("POST", "/api/v1/budgets", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create budget failed: %d %s", rec.Code, rec.Body.String())
	}
	budgetID := parseJSON(t, rec)["id"].(string)

	app.createExpense(t, token, categoryID, "500.00", "2099-06-10T00:00:00Z")

	// Lower the threshold so existing spending now trips it.
	rec = app.request("PUT", "/api/v1/budgets/"+budgetID,
		`{"notification_rules":[{"kind":"alert","threshold_percent":50,"active":true}]}`, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("update budget failed: %d %s", rec.Code, rec.Body.String())
	}

	rec = app.request("GET", "/api/v1/budgets/"+budgetID+"/alerts", "", token)
	alert := parseJSON(t, rec)
	triggered, ok := alert["triggered"].([]interface{})
	if !ok || len(triggered) != 1 {
		t.Fatalf("expected 1 triggered rule after update, got %v", alert["triggered"])
	}
}
