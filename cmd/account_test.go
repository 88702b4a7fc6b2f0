package cmd

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/chris-regnier/dailyctl/internal/storage"
)

const importSrc = `---
account: "main"
game: "Galaxy"
start_date: "2025-06-01"
start_time: "09:30"
---

POST /session HTTP/1.1
Host: api.example.com

{"token":"{event_token}"}
`

func TestAccountCreate(t *testing.T) {
	setupTestEnv(t)
	g := mustGame(t, "Galaxy")

	accountGameID, accountName, accountStartDate, accountStartTime = "1", "main", "14-Dec", "09:00"
	accountTemplateFile = "-"
	t.Cleanup(func() {
		accountGameID, accountName, accountStartDate, accountStartTime, accountTemplateFile = "", "", "", "", ""
	})

	var buf bytes.Buffer
	if err := accountCreateRun(&buf, strings.NewReader("GET /{event_token}")); err != nil {
		t.Fatalf("create: %v", err)
	}
	a, err := store.GetAccountByName(g.ID, "main")
	if err != nil {
		t.Fatalf("GetAccountByName: %v", err)
	}
	if a.RequestTemplate != "GET /{event_token}" || a.StartDate != "14-Dec" {
		t.Errorf("account = %+v", a)
	}

	accountStartDate = "2025-02-30"
	accountName = "other"
	if err := accountCreateRun(&buf, strings.NewReader("")); !errors.Is(err, storage.ErrValidation) {
		t.Errorf("bad start date err = %v, want ErrValidation", err)
	}
}

func TestAccountImportCreatesThenUpdates(t *testing.T) {
	setupTestEnv(t)
	var buf bytes.Buffer

	if err := accountImportRun(&buf, "-", strings.NewReader(importSrc)); err != nil {
		t.Fatalf("import: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "Created account") {
		t.Errorf("first import output = %q", buf.String())
	}
	g, err := store.GetGameByName("Galaxy")
	if err != nil {
		t.Fatalf("game not created: %v", err)
	}

	updated := strings.Replace(importSrc, `start_date: "2025-06-01"`+"\n", "", 1)
	updated = strings.Replace(updated, "/session", "/v2/session", 1)
	buf.Reset()
	if err := accountImportRun(&buf, "-", strings.NewReader(updated)); err != nil {
		t.Fatalf("re-import: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "Updated account") {
		t.Errorf("second import output = %q", buf.String())
	}

	a, err := store.GetAccountByName(g.ID, "main")
	if err != nil {
		t.Fatalf("GetAccountByName: %v", err)
	}
	if a.StartDate != "2025-06-01" {
		t.Errorf("start date = %q, want it kept", a.StartDate)
	}
	if !strings.HasPrefix(a.RequestTemplate, "POST /v2/session") {
		t.Errorf("template = %q", a.RequestTemplate)
	}
	accounts, _ := store.ListAccounts(0)
	if len(accounts) != 1 {
		t.Errorf("accounts = %d, want 1", len(accounts))
	}
}

func TestAccountImportRejectsBadFile(t *testing.T) {
	setupTestEnv(t)
	var buf bytes.Buffer
	err := accountImportRun(&buf, "-", strings.NewReader("---\ngame: \"Galaxy\"\n---\nGET /\n"))
	if !errors.Is(err, errUsage) {
		t.Errorf("err = %v, want errUsage", err)
	}
}

func TestAccountExport(t *testing.T) {
	setupTestEnv(t)
	var buf bytes.Buffer
	if err := accountImportRun(&buf, "-", strings.NewReader(importSrc)); err != nil {
		t.Fatalf("import: %v", err)
	}

	buf.Reset()
	if err := accountExportRun(&buf, "2"); err != nil {
		t.Fatalf("export: %v", err)
	}
	out := buf.String()
	for _, want := range []string{`account: "main"`, `game: "Galaxy"`, `start_time: "09:30"`, `{"token":"{event_token}"}`} {
		if !strings.Contains(out, want) {
			t.Errorf("export missing %q:\n%s", want, out)
		}
	}

	if err := accountExportRun(&buf, "99"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("missing account err = %v", err)
	}
}

func TestAccountUpdateAndShow(t *testing.T) {
	setupTestEnv(t)
	g := mustGame(t, "Galaxy")
	a := mustAccount(t, g.ID, "main", "2025-06-01")

	tmpl := "GET /{event_token}?x={mystery}"
	var buf bytes.Buffer
	if err := accountUpdateRun(&buf, "2", storage.AccountUpdate{RequestTemplate: &tmpl}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if got := buf.String(); got != "Updated account 2\n" {
		t.Errorf("update output = %q", got)
	}

	buf.Reset()
	if err := accountShowRun(&buf, "2"); err != nil {
		t.Fatalf("show: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Account: "+a.Name) || !strings.Contains(out, "{mystery}") {
		t.Errorf("show output = %q", out)
	}
}
