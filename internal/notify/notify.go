// Package notify sends broadcast notifications for routine lifecycle
// events to Shoutrrr URLs (ntfy, Discord, Telegram, etc.) configured in
// app settings or the environment.
package notify

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/containrrr/shoutrrr"

	"gymai/internal/models"
)

// Send dispatches a message to every configured broadcast URL. Delivery
// runs in the background and errors are logged but never propagate; a
// dead ntfy server must not block routine creation.
func Send(db *sql.DB, title, message string) {
	urls := configuredURLs(db)
	if len(urls) == 0 {
		return
	}

	body := title
	if message != "" {
		body = fmt.Sprintf("%s\n%s", title, message)
	}

	go func() {
		for _, u := range urls {
			if err := shoutrrr.Send(u, body); err != nil {
				log.Printf("notify: send failed for url %q: %v", maskURL(u), err)
			}
		}
	}()
}

// TestConnection sends a test message through every configured URL and
// reports what failed. Used by operators to verify their setup.
func TestConnection(db *sql.DB) error {
	urls := configuredURLs(db)
	if len(urls) == 0 {
		return fmt.Errorf("no notification URLs configured (set notify.urls or GYMAI_NOTIFY_URLS)")
	}

	var errs []string
	for _, u := range urls {
		if err := shoutrrr.Send(u, "GymAI: las notificaciones funcionan correctamente."); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", maskURL(u), err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// configuredURLs reads broadcast URLs from the notify.urls setting, with
// the GYMAI_NOTIFY_URLS environment variable as fallback. Comma or
// newline separated.
func configuredURLs(db *sql.DB) []string {
	raw := models.GetSetting(db, "notify.urls")
	if raw == "" {
		raw = os.Getenv("GYMAI_NOTIFY_URLS")
	}
	if raw == "" {
		return nil
	}

	raw = strings.ReplaceAll(raw, "\n", ",")
	var urls []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			urls = append(urls, p)
		}
	}
	return urls
}

// maskURL masks credentials in a Shoutrrr URL for safe logging.
func maskURL(u string) string {
	if len(u) <= 15 {
		return u[:min(5, len(u))] + "••••"
	}
	return u[:15] + "••••"
}
