package main

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"torrentfront/internal/auth"
	"torrentfront/pkg/database"
)

func TestImportUsers(t *testing.T) {
	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "users.db")})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	repo := auth.NewRepo(db)
	ctx := context.Background()

	in := "Username,Password,Is_Admin\nalice,secret1,true\nbob,hunter22,\n,nopass,\n"
	n, err := importUsers(ctx, repo, strings.NewReader(in))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 users, got %d", n)
	}

	alice, err := repo.GetByUsername(ctx, "alice")
	if err != nil || alice == nil {
		t.Fatalf("alice missing: %v", err)
	}
	if !alice.IsAdmin {
		t.Fatal("alice should be admin")
	}
	if bcrypt.CompareHashAndPassword([]byte(alice.PasswordHash), []byte("secret1")) != nil {
		t.Fatal("password hash does not match")
	}

	// re-import keeps the id and updates the flag
	if _, err := importUsers(ctx, repo, strings.NewReader("username,password,is_admin\nalice,changed,false\n")); err != nil {
		t.Fatalf("re-import: %v", err)
	}
	again, _ := repo.GetByUsername(ctx, "alice")
	if again.ID != alice.ID || again.IsAdmin {
		t.Fatalf("unexpected user after re-import %+v", again)
	}
	if count, _ := repo.CountUsers(ctx); count != 2 {
		t.Fatalf("expected 2 users, got %d", count)
	}
}

func TestImportUsers_BadInput(t *testing.T) {
	if _, err := importUsers(context.Background(), nil, strings.NewReader("name,pw\n")); err == nil {
		t.Fatal("expected missing column error")
	}
	if _, err := importUsers(context.Background(), nil, strings.NewReader("username,password,is_admin\na,b,maybe\n")); err == nil {
		t.Fatal("expected is_admin parse error")
	}
}
