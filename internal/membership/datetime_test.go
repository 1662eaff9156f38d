package membership

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestToDate(t *testing.T) {
	assert.Equal(t, "2021-01-01", ToDate(time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2021-01-01", ToDate(time.Date(2021, 1, 1, 23, 59, 59, 0, time.UTC)))

	// Calendar days are taken in UTC.
	sydney := time.FixedZone("AEST", 10*60*60)
	assert.Equal(t, "2020-12-31", ToDate(time.Date(2021, 1, 1, 8, 0, 0, 0, sydney)))
}

func TestEarlierDateTime(t *testing.T) {
	early := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	late := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)

	t.Run("both present", func(t *testing.T) {
		got := EarlierDateTime(&late, &early)
		require.NotNil(t, got)
		assert.True(t, got.Equal(early))
	})

	t.Run("first only", func(t *testing.T) {
		got := EarlierDateTime(&late, nil)
		require.NotNil(t, got)
		assert.True(t, got.Equal(late))
	})

	t.Run("second only", func(t *testing.T) {
		got := EarlierDateTime(nil, &early)
		require.NotNil(t, got)
		assert.True(t, got.Equal(early))
	})

	t.Run("both absent", func(t *testing.T) {
		assert.Nil(t, EarlierDateTime(nil, nil))
	})
}

func TestEarlierDateTimeSymmetric(t *testing.T) {
	optTime := func(t *rapid.T, label string) *time.Time {
		if !rapid.Bool().Draw(t, label+"Present") {
			return nil
		}
		secs := rapid.Int64Range(0, 4_000_000_000).Draw(t, label)
		v := time.Unix(secs, 0).UTC()
		return &v
	}

	rapid.Check(t, func(t *rapid.T) {
		a := optTime(t, "a")
		b := optTime(t, "b")

		ab := EarlierDateTime(a, b)
		ba := EarlierDateTime(b, a)

		if (ab == nil) != (ba == nil) {
			t.Fatalf("presence differs: %v vs %v", ab, ba)
		}
		if ab == nil {
			if a != nil || b != nil {
				t.Fatalf("absent result with a present argument")
			}
			return
		}
		if !ab.Equal(*ba) {
			t.Fatalf("not symmetric: %v vs %v", ab, ba)
		}
		if a != nil && ab.After(*a) || b != nil && ab.After(*b) {
			t.Fatalf("%v is not the minimum of %v and %v", ab, a, b)
		}
	})
}
