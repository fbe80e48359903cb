package misc

import (
	"strings"
	"testing"
)

func TestGetAppName(t *testing.T) {
	if got := GetAppName(); got != "stylec" {
		t.Errorf("GetAppName() = %q, want %q", got, "stylec")
	}
}

// TestIsDevelopment tests that development detection tracks the reported
// version, stamped or not.
func TestIsDevelopment(t *testing.T) {
	if got, want := IsDevelopment(), strings.EqualFold(GetVersion(), "development"); got != want {
		t.Errorf("IsDevelopment() = %v with version %q, want %v", got, GetVersion(), want)
	}

	saved := appVersion
	defer func() { appVersion = saved }()

	appVersion = "1.2.3"
	if IsDevelopment() {
		t.Error("IsDevelopment() = true for a stamped version")
	}

	appVersion = ""
	// without a stamp and without module build info the version falls back
	// to "development"
	if GetVersion() == "development" && !IsDevelopment() {
		t.Error("IsDevelopment() = false for an unstamped build")
	}
}
