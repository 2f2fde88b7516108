//go:build integration

package mysql_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"pension_site/internal/domain"
	mysqlrepo "pension_site/internal/storage/mysql"
)

func pstr(s string) *string { return &s }

func migrationsDir(t *testing.T) string {
	t.Helper()
	if dir := os.Getenv("MIGRATIONS_DIR"); dir != "" {
		return dir
	}
	return filepath.Join("..", "..", "..", "migrations")
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := migrationsDir(t)
	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir %s: %v", dir, err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)

	for _, f := range files {
		b, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(b)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

func startMySQL(t *testing.T) *sql.DB {
	t.Helper()
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}
	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env:        []string{"MYSQL_ROOT_PASSWORD=root", "MYSQL_DATABASE=pension"},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	dsn := fmt.Sprintf("root:root@tcp(127.0.0.1:%s)/pension?parseTime=true&multiStatements=true&charset=utf8mb4&loc=UTC",
		resource.GetPort("3306/tcp"))

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	applyMigrations(t, db)
	return db
}

func TestRepo_MySQL_ContentRoundTrip(t *testing.T) {
	db := startMySQL(t)
	repo := mysqlrepo.New(db)
	ctx := context.Background()

	if _, err := repo.GetContent(ctx, 1); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound before ingest, got %v", err)
	}

	fetched := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	for _, id := range []int64{3, 1, 2} {
		rec := domain.ContentRecord{
			PropertyID: id,
			Name:       pstr(fmt.Sprintf("펜션 %d", id)),
			RawJSON:    []byte(fmt.Sprintf(`{"property":{"name":"펜션 %d"}}`, id)),
			FetchedAt:  fetched,
		}
		if err := repo.UpsertContent(ctx, rec); err != nil {
			t.Fatalf("UpsertContent(%d): %v", id, err)
		}
	}

	// second upsert replaces the document
	if err := repo.UpsertContent(ctx, domain.ContentRecord{
		PropertyID: 1, Name: pstr("솔숲"), RawJSON: []byte(`{"property":{"name":"솔숲"}}`), FetchedAt: fetched.Add(time.Hour),
	}); err != nil {
		t.Fatalf("re-upsert: %v", err)
	}

	got, err := repo.GetContent(ctx, 1)
	if err != nil {
		t.Fatalf("GetContent: %v", err)
	}
	doc, err := domain.ParseDocument(got.RawJSON)
	if err != nil {
		t.Fatalf("stored document does not parse: %v", err)
	}
	if doc.Property.Name != "솔숲" || got.Name == nil || *got.Name != "솔숲" {
		t.Fatalf("unexpected record: %+v", got)
	}
	if !got.FetchedAt.Equal(fetched.Add(time.Hour)) {
		t.Fatalf("fetched_at: %v", got.FetchedAt)
	}

	page, err := repo.ListProperties(ctx, domain.PropertiesQuery{Limit: 2})
	if err != nil {
		t.Fatalf("ListProperties: %v", err)
	}
	if len(page.Items) != 2 || page.Items[0].ID != 1 || page.NextCursor == nil || *page.NextCursor != 2 {
		t.Fatalf("unexpected first page: %+v", page)
	}
	page, err = repo.ListProperties(ctx, domain.PropertiesQuery{Limit: 2, Cursor: page.NextCursor})
	if err != nil {
		t.Fatalf("ListProperties page 2: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].ID != 3 || page.NextCursor != nil {
		t.Fatalf("unexpected second page: %+v", page)
	}

	if err := repo.LogMiss(ctx, 99, 404, "not found"); err != nil {
		t.Fatalf("LogMiss: %v", err)
	}
	if err := repo.LogMiss(ctx, 99, 403, "inactive"); err != nil {
		t.Fatalf("LogMiss again: %v", err)
	}
	var status int
	if err := db.QueryRowContext(ctx, "SELECT http_status FROM ingest_misses WHERE id = ?", 99).Scan(&status); err != nil || status != 403 {
		t.Fatalf("miss row: status=%d err=%v", status, err)
	}
}
