package comment

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/evcraddock/comment-utils/internal/db"
)

func TestSaveAndGet(t *testing.T) {
	repo, _ := testSetup(t)

	c := &Comment{
		ContentType: "weblog.entry",
		ObjectID:    "1",
		Free:        true,
		PersonName:  "alice",
		Text:        "Nice post",
		IPAddress:   "127.0.0.1",
		IsPublic:    true,
	}
	if err := repo.Save(c); err != nil {
		t.Fatalf("save: %v", err)
	}
	if c.ID == 0 {
		t.Error("expected non-zero ID")
	}
	if c.SiteID != 1 {
		t.Errorf("site_id = %d, want 1", c.SiteID)
	}
	if c.SubmitDate.IsZero() {
		t.Error("expected submit date to be set")
	}

	got, err := repo.Get(c.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Text != "Nice post" || got.PersonName != "alice" || !got.IsPublic || !got.Free {
		t.Errorf("got %+v", got)
	}
	if got.UserID != nil {
		t.Errorf("user_id = %v, want nil", *got.UserID)
	}
}

func TestSaveValidation(t *testing.T) {
	repo, _ := testSetup(t)

	tests := []struct {
		name    string
		comment Comment
	}{
		{"empty text", Comment{ContentType: "weblog.entry", ObjectID: "1"}},
		{"missing content type", Comment{ObjectID: "1", Text: "hi"}},
		{"missing object", Comment{ContentType: "weblog.entry", Text: "hi"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := repo.Save(&tt.comment); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestSaveUpdate(t *testing.T) {
	repo, _ := testSetup(t)

	c := addComment(t, repo, "weblog.entry", "1", true, time.Time{})
	c.IsPublic = false
	if err := repo.Save(c); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := repo.Get(c.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.IsPublic {
		t.Error("expected comment to be non-public after update")
	}
}

func TestSaveUpdateNotFound(t *testing.T) {
	repo, _ := testSetup(t)

	c := &Comment{ID: 9999, ContentType: "weblog.entry", ObjectID: "1", Text: "ghost"}
	if err := repo.Save(c); err == nil {
		t.Fatal("expected error for missing comment")
	}
}

func TestUserIDStored(t *testing.T) {
	repo, _ := testSetup(t)

	uid := int64(7)
	c := &Comment{ContentType: "weblog.entry", ObjectID: "1", UserID: &uid, PersonName: "bob", Text: "hi", IsPublic: true}
	if err := repo.Save(c); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := repo.Get(c.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.UserID == nil || *got.UserID != 7 {
		t.Errorf("user_id = %v, want 7", got.UserID)
	}
	if got.Free {
		t.Error("expected registered comment")
	}
}

type recordingHook struct {
	pre     []string
	post    []bool
	preErr  error
	postErr error
	mutate  func(c *Comment)
}

func (h *recordingHook) PreSave(c *Comment) error {
	h.pre = append(h.pre, c.Text)
	if h.mutate != nil {
		h.mutate(c)
	}
	return h.preErr
}

func (h *recordingHook) PostSave(c *Comment, created bool) error {
	h.post = append(h.post, created)
	return h.postErr
}

func TestHooksRunAroundSave(t *testing.T) {
	repo, _ := testSetup(t)
	hook := &recordingHook{mutate: func(c *Comment) { c.IsPublic = false }}
	repo.AddHook(hook)

	c := &Comment{ContentType: "weblog.entry", ObjectID: "1", Text: "first", IsPublic: true}
	if err := repo.Save(c); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.Save(c); err != nil {
		t.Fatalf("resave: %v", err)
	}

	if len(hook.pre) != 2 {
		t.Errorf("pre-save calls = %d, want 2", len(hook.pre))
	}
	if len(hook.post) != 2 || !hook.post[0] || hook.post[1] {
		t.Errorf("post-save created flags = %v, want [true false]", hook.post)
	}

	got, err := repo.Get(c.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.IsPublic {
		t.Error("pre-save mutation was not persisted")
	}
}

func TestPreSaveErrorAbortsInsert(t *testing.T) {
	repo, _ := testSetup(t)
	rejected := errors.New("rejected")
	hook := &recordingHook{preErr: rejected}
	repo.AddHook(hook)

	c := &Comment{ContentType: "weblog.entry", ObjectID: "1", Text: "spam", IsPublic: true}
	err := repo.Save(c)
	if !errors.Is(err, rejected) {
		t.Fatalf("err = %v, want wrapped rejected", err)
	}
	if c.ID != 0 {
		t.Errorf("id = %d, want 0", c.ID)
	}
	if len(hook.post) != 0 {
		t.Error("post-save should not run after a rejected pre-save")
	}

	n, err := repo.Count(Filter{})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("count = %d, want 0", n)
	}
}

func TestPostSaveErrorReturned(t *testing.T) {
	repo, _ := testSetup(t)
	boom := errors.New("boom")
	repo.AddHook(&recordingHook{postErr: boom})

	c := &Comment{ContentType: "weblog.entry", ObjectID: "1", Text: "hi", IsPublic: true}
	if err := repo.Save(c); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped boom", err)
	}
	if c.ID == 0 {
		t.Error("comment should be saved before post-save runs")
	}
}

func TestListFilters(t *testing.T) {
	repo, _ := testSetup(t)
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	addComment(t, repo, "weblog.entry", "1", true, base)
	addComment(t, repo, "weblog.entry", "1", false, base.Add(time.Hour))
	addComment(t, repo, "weblog.entry", "1", true, base.Add(2*time.Hour))
	addComment(t, repo, "weblog.entry", "2", true, base.Add(3*time.Hour))
	addComment(t, repo, "photos.photo", "1", true, base.Add(4*time.Hour))

	public := true
	private := false

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"all", Filter{}, 5},
		{"by content type", Filter{ContentType: "weblog.entry"}, 4},
		{"by object", Filter{ContentType: "weblog.entry", ObjectID: "1"}, 3},
		{"public only", Filter{ContentType: "weblog.entry", ObjectID: "1", Public: &public}, 2},
		{"non-public only", Filter{Public: &private}, 1},
		{"before", Filter{SubmittedBefore: base.Add(90 * time.Minute)}, 2},
		{"limit", Filter{Limit: 2}, 2},
		{"other site", Filter{SiteID: 2}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			comments, err := repo.List(tt.filter)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(comments) != tt.want {
				t.Errorf("list got %d comments, want %d", len(comments), tt.want)
			}

			n, err := repo.Count(tt.filter)
			if err != nil {
				t.Fatalf("count: %v", err)
			}
			want := int64(tt.want)
			if tt.filter.Limit > 0 {
				want = 5
			}
			if n != want {
				t.Errorf("count = %d, want %d", n, want)
			}
		})
	}
}

func TestListOrdering(t *testing.T) {
	repo, _ := testSetup(t)
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	// Inserted out of date order
	texts := map[string]time.Time{
		"second": base.Add(time.Hour),
		"first":  base,
		"third":  base.Add(2 * time.Hour),
	}
	for text, at := range texts {
		c := &Comment{ContentType: "weblog.entry", ObjectID: "1", Text: text, SubmitDate: at, IsPublic: true}
		if err := repo.Save(c); err != nil {
			t.Fatalf("save %q: %v", text, err)
		}
	}

	comments, err := repo.List(Filter{ObjectID: "1"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if comments[0].Text != "first" || comments[2].Text != "third" {
		t.Errorf("ascending order = %s, %s, %s", comments[0].Text, comments[1].Text, comments[2].Text)
	}

	comments, err = repo.List(Filter{ObjectID: "1", Reverse: true})
	if err != nil {
		t.Fatalf("list reversed: %v", err)
	}
	if comments[0].Text != "third" || comments[2].Text != "first" {
		t.Errorf("descending order = %s, %s, %s", comments[0].Text, comments[1].Text, comments[2].Text)
	}
}

func TestListEmpty(t *testing.T) {
	repo, _ := testSetup(t)

	comments, err := repo.List(Filter{ObjectID: "9999"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(comments) != 0 {
		t.Errorf("got %d comments, want 0", len(comments))
	}
}

func TestDelete(t *testing.T) {
	repo, _ := testSetup(t)

	c := addComment(t, repo, "weblog.entry", "1", true, time.Time{})
	if err := repo.Delete(c.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := repo.Get(c.ID); err == nil {
		t.Error("expected error getting deleted comment")
	}
}

func TestDeleteNotFound(t *testing.T) {
	repo, _ := testSetup(t)

	if err := repo.Delete(9999); err == nil {
		t.Fatal("expected error for missing comment")
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		name string
		c    Comment
		want string
	}{
		{"named", Comment{PersonName: "alice", Text: "hello"}, "alice: hello"},
		{"anonymous", Comment{Text: "hello"}, "anonymous: hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.c.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		max      int
		expected string
	}{
		{"short", "hello", 10, "hello"},
		{"exact", "hello", 5, "hello"},
		{"long", "hello world!", 8, "hello..."},
		{"multibyte", "héllo wörld", 8, "héllo..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := truncate(tt.input, tt.max)
			if result != tt.expected {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.max, result, tt.expected)
			}
		})
	}
}

// addComment saves a free comment with the given visibility and date.
func addComment(t *testing.T, repo *Repository, contentType, objectID string, public bool, at time.Time) *Comment {
	t.Helper()
	c := &Comment{
		ContentType: contentType,
		ObjectID:    objectID,
		Free:        true,
		PersonName:  "tester",
		Text:        "comment on " + objectID,
		SubmitDate:  at,
		IsPublic:    public,
	}
	if err := repo.Save(c); err != nil {
		t.Fatalf("save comment: %v", err)
	}
	return c
}

// testSetup creates a test DB and returns a comment repo and the database.
func testSetup(t *testing.T) (*Repository, *db.DB) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	d, err := db.Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("close db: %v", err)
		}
	})

	return NewRepository(d), d
}
