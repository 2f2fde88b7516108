package shared_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"pension_site/internal/shared"
)

func TestLoad_EnvAndDotenv(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("CONTENT_API_KEY=from-dotenv\nHTTP_ADDR=:9999\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	wd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	t.Setenv("HTTP_ADDR", ":7000") // real env wins over .env
	t.Setenv("PROPERTY_IDS", "7, 12,,x,-3,40")
	t.Setenv("PAGE_CACHE_TTL_SECONDS", "60")
	t.Setenv("CONTENT_API_RPS", "fast")

	c := shared.Load()
	t.Cleanup(func() { os.Unsetenv("CONTENT_API_KEY") })

	if c.ContentKey != "from-dotenv" {
		t.Fatalf("dotenv key: %q", c.ContentKey)
	}
	if c.HTTPAddr != ":7000" {
		t.Fatalf("http addr: %q", c.HTTPAddr)
	}
	if len(c.PropertyIDs) != 3 || c.PropertyIDs[0] != 7 || c.PropertyIDs[2] != 40 {
		t.Fatalf("property ids: %v", c.PropertyIDs)
	}
	if c.PageCacheTTL != time.Minute {
		t.Fatalf("page ttl: %v", c.PageCacheTTL)
	}
	if c.ContentRPS != 5 {
		t.Fatalf("bad number should fall back: %d", c.ContentRPS)
	}
}
