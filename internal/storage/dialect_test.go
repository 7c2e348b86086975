package storage

import (
	"strings"
	"testing"

	"proposals/internal/config"
)

func TestRebind(t *testing.T) {
	q := `UPDATE proposals SET name = ?, client = ? WHERE id = ?`
	if got := sqliteDialect.rebind(q); got != q {
		t.Errorf("sqlite rebind changed query: %s", got)
	}
	want := `UPDATE proposals SET name = $1, client = $2 WHERE id = $3`
	if got := postgresDialect.rebind(q); got != want {
		t.Errorf("postgres rebind = %s", got)
	}
}

func TestBuildDSNs(t *testing.T) {
	sc := config.StoreConfig{Host: "db", Username: "u", Password: "pw", Database: "sales"}

	if got := buildPostgresDSN(sc); got != "host=db port=5432 user=u password=pw dbname=sales sslmode=disable" {
		t.Errorf("postgres dsn = %s", got)
	}
	if got := buildMySQLDSN(sc); got != "u:pw@tcp(db:3306)/sales?parseTime=true&charset=utf8mb4" {
		t.Errorf("mysql dsn = %s", got)
	}
	sc.URI = "postgres://x"
	if got := buildPostgresDSN(sc); got != "postgres://x" {
		t.Errorf("uri should win, got %s", got)
	}
}

func TestBuildMongoURI(t *testing.T) {
	uri, db := buildMongoURI(config.StoreConfig{Host: "mongo", Username: "u", Password: "pw"})
	if uri != "mongodb://u:pw@mongo:27017" || db != "proposals" {
		t.Errorf("got %s %s", uri, db)
	}

	uri, db = buildMongoURI(config.StoreConfig{URI: "mongodb+srv://u:<password>@cluster.example.net/sales?retryWrites=true", Password: "pw"})
	if !strings.Contains(uri, "u:pw@") || db != "sales" {
		t.Errorf("got %s %s", uri, db)
	}
}
