package consent

import (
	"io"
	"log/slog"
	"testing"
	"time"
)

func TestNewDismisser_Defaults(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	d := NewDismisser(logger, nil, 0)
	if d.Timeout() != DefaultTimeout {
		t.Errorf("Timeout() = %v, want %v", d.Timeout(), DefaultTimeout)
	}
	if len(d.xpaths) != len(DefaultXPaths) {
		t.Errorf("len(xpaths) = %d, want %d", len(d.xpaths), len(DefaultXPaths))
	}

	custom := NewDismisser(logger, []string{"//button[@id='ok']"}, 500*time.Millisecond)
	if custom.Timeout() != 500*time.Millisecond {
		t.Errorf("Timeout() = %v, want 500ms", custom.Timeout())
	}
	if len(custom.xpaths) != 1 || custom.xpaths[0] != "//button[@id='ok']" {
		t.Errorf("xpaths = %v, want configured list", custom.xpaths)
	}
}
