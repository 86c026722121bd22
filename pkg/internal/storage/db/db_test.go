package db_test

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"

	"github.com/yeisme/employeeman/pkg/configs"
	"github.com/yeisme/employeeman/pkg/internal/storage/db"
)

func TestRegisteredDBTypes(t *testing.T) {
	types := db.GetRegisteredDBTypes()

	want := map[configs.DBType]bool{configs.PostgreSQL: false, configs.MySQL: false, configs.SQLite: false}
	for _, tp := range types {
		if _, ok := want[tp]; ok {
			want[tp] = true
		}
	}

	for tp, found := range want {
		if !found {
			t.Errorf("expected %s dialector to be registered", tp)
		}
	}
}

func TestOpenMigratesSchema(t *testing.T) {
	cfg := configs.DBConfig{Type: configs.SQLite, Database: ":memory:", MaxOpenConns: 1, MaxIdleConns: 1, AutoMigrate: true}

	client, err := db.Open(context.Background(), sqlite.Open("file:db_test_open?mode=memory&cache=shared"), cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer client.Close()

	for _, table := range []string{"employees", "media"} {
		if !client.Migrator().HasTable(table) {
			t.Errorf("expected table %s to exist", table)
		}
	}

	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck: %v", err)
	}
}

func TestNewRejectsUnknownType(t *testing.T) {
	_, err := db.New(context.Background(), configs.DBConfig{Type: "duckdb", Database: "x"}, false)
	if err == nil {
		t.Fatal("expected error for unsupported type")
	}
}
