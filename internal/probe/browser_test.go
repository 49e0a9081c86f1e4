package probe

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const counterPage = `<!DOCTYPE html>
<html>
<body>
<p>Visitors: <span id="visitor-counter-value"></span></p>
<script>
fetch('/api/increase-visitor-counter', {method: 'POST'})
	.then(r => r.json())
	.then(j => { document.getElementById('visitor-counter-value').textContent = j['visitor-counter'] })
</script>
</body>
</html>`

func requireChrome(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	for _, name := range []string{"headless-shell", "chromium", "chromium-browser", "google-chrome", "google-chrome-stable"} {
		if _, err := exec.LookPath(name); err == nil {
			return
		}
	}
	t.Skip("no Chrome binary on PATH")
}

func TestChromeBrowser_VerifyIncrease(t *testing.T) {
	requireChrome(t)

	var count atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, counterPage)
	})
	mux.HandleFunc("/api/increase-visitor-counter", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"visitor-counter": `+strconv.FormatInt(count.Add(1), 10)+`}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	browser := NewChromeBrowser(ctx, "VisitorCounter/test", chromedp.NoSandbox)
	defer browser.Close()

	p := New(Config{
		PageURL:    srv.URL + "/",
		ElementID:  "visitor-counter-value",
		UserAgent:  "VisitorCounter/test",
		SettleWait: 500 * time.Millisecond,
	}, browser, srv.Client(), nil)

	first, second, err := p.VerifyIncrease(ctx)
	require.NoError(t, err)
	assert.Greater(t, int64(second.Count), int64(first.Count))
}
