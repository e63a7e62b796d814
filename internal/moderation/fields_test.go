package moderation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestField(t *testing.T) {
	e := &entry{Title: "Hello", EnableComments: true}

	tests := []struct {
		name    string
		obj     any
		field   string
		wantErr bool
	}{
		{"go name", e, "EnableComments", false},
		{"json tag", e, "enable_comments", false},
		{"struct value", *e, "Title", false},
		{"unexported", e, "secret", true},
		{"missing", e, "nope", true},
		{"not a struct", 42, "Title", true},
		{"nil pointer", (*entry)(nil), "Title", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := field(tt.obj, tt.field)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrFieldNotFound)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestBoolField(t *testing.T) {
	e := &entry{EnableComments: true}

	got, err := boolField(e, "enable_comments")
	require.NoError(t, err)
	assert.True(t, got)

	_, err = boolField(e, "Title")
	assert.Error(t, err)
}

func TestTimeField(t *testing.T) {
	pub := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	e := &entry{PubDate: pub}

	got, ok, err := timeField(e, "pub_date")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, pub, got)

	_, ok, err = timeField(e, "Updated")
	require.NoError(t, err)
	assert.False(t, ok, "nil pointer is unset")

	updated := pub.Add(time.Hour)
	e.Updated = &updated
	got, ok, err = timeField(e, "Updated")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, updated, got)

	_, _, err = timeField(e, "Title")
	assert.Error(t, err)
}

func TestDaysSince(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		then    time.Time
		want    int
		wantErr bool
	}{
		{"same instant", now, 0, false},
		{"23 hours ago", now.Add(-23 * time.Hour), 0, false},
		{"three days and an hour", now.Add(-73 * time.Hour), 3, false},
		{"date today", time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), 0, false},
		{"date ten days ago", time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC), 10, false},
		{"datetime in future", now.Add(time.Minute), 0, true},
		{"date tomorrow", time.Date(2024, 6, 16, 0, 0, 0, 0, time.UTC), 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := daysSince(now, tt.then)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrFutureDate)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDaysSinceDateInLocation(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*60*60)
	// 2024-06-15 02:00 in UTC+9, still the 14th in UTC.
	now := time.Date(2024, 6, 14, 17, 0, 0, 0, time.UTC)
	then := time.Date(2024, 6, 14, 0, 0, 0, 0, loc)

	got, err := daysSince(now, then)
	require.NoError(t, err)
	assert.Equal(t, 1, got)
}
