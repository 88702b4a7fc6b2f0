package logging

import (
	"bytes"
	"strings"
	"testing"

	log "github.com/sirupsen/logrus"
)

func TestConfigureJSON(t *testing.T) {
	var buf bytes.Buffer
	l := log.New()
	if err := configure(l, &buf, "debug", "json"); err != nil {
		t.Fatalf("configure: %v", err)
	}
	l.WithField("account_id", 3).Debug("computed")
	out := buf.String()
	if !strings.Contains(out, `"account_id":3`) || !strings.Contains(out, `"msg":"computed"`) {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestConfigureLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l := log.New()
	if err := configure(l, &buf, "", "text"); err != nil {
		t.Fatalf("configure: %v", err)
	}
	l.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("info logged at default warn level: %s", buf.String())
	}
	l.Warn("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("warning missing: %s", buf.String())
	}
}

func TestConfigureRejectsBadInput(t *testing.T) {
	l := log.New()
	if err := configure(l, &bytes.Buffer{}, "loud", "text"); err == nil {
		t.Error("expected error for bad level")
	}
	if err := configure(l, &bytes.Buffer{}, "info", "xml"); err == nil {
		t.Error("expected error for bad format")
	}
}
