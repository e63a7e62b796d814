package site

import (
	"path/filepath"
	"testing"

	"github.com/evcraddock/comment-utils/internal/db"
)

func TestGetDefaultSite(t *testing.T) {
	repo := testRepo(t)

	s, err := repo.Get(1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if s.Domain != "example.com" {
		t.Errorf("domain = %q, want %q", s.Domain, "example.com")
	}
}

func TestGetNotFound(t *testing.T) {
	repo := testRepo(t)

	if _, err := repo.Get(42); err == nil {
		t.Fatal("expected error for missing site")
	}
}

func TestSaveInsertAndUpdate(t *testing.T) {
	repo := testRepo(t)

	if err := repo.Save(&Site{ID: 2, Domain: "blog.example.org", Name: "Blog"}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := repo.Save(&Site{ID: 2, Domain: "blog.example.org", Name: "The Blog"}); err != nil {
		t.Fatalf("update: %v", err)
	}

	s, err := repo.Get(2)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if s.Name != "The Blog" {
		t.Errorf("name = %q, want %q", s.Name, "The Blog")
	}
}

func TestSaveValidation(t *testing.T) {
	repo := testRepo(t)

	tests := []struct {
		name string
		site Site
	}{
		{"missing id", Site{Domain: "example.org"}},
		{"missing domain", Site{ID: 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := repo.Save(&tt.site); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestString(t *testing.T) {
	if got := (&Site{Domain: "example.org"}).String(); got != "example.org" {
		t.Errorf("String() = %q, want %q", got, "example.org")
	}
	if got := (&Site{Domain: "example.org", Name: "Example"}).String(); got != "Example" {
		t.Errorf("String() = %q, want %q", got, "Example")
	}
}

func testRepo(t *testing.T) *Repository {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("close db: %v", err)
		}
	})
	return NewRepository(d)
}
