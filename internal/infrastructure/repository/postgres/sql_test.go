package postgres

import (
	"database/sql"
	"fmt"
	"testing"
	"time"
)

func TestIsNotFound(t *testing.T) {
	if !isNotFound(fmt.Errorf("get match: %w", sql.ErrNoRows)) {
		t.Fatalf("expected wrapped ErrNoRows to be not found")
	}
	if isNotFound(fmt.Errorf("pq: relation matches does not exist")) {
		t.Fatalf("expected unrelated error to be false")
	}
}

func TestNullTimeRoundTrip(t *testing.T) {
	t.Run("null stays nil", func(t *testing.T) {
		if got := nullTimeToTimePtr(timePtrToNullTime(nil)); got != nil {
			t.Fatalf("expected nil, got %v", got)
		}
	})

	t.Run("converts to utc", func(t *testing.T) {
		at := time.Date(2026, 3, 10, 21, 0, 0, 0, time.FixedZone("WIB", 7*3600))
		got := nullTimeToTimePtr(timePtrToNullTime(&at))
		if got == nil || !got.Equal(at) || got.Location() != time.UTC {
			t.Fatalf("unexpected time: %v", got)
		}
	})
}

func TestJSONColumn(t *testing.T) {
	encoded, err := jsonColumn(map[int]int{4: 9})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	var decoded map[int]int
	if err := decodeJSONColumn([]byte(encoded), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded[4] != 9 {
		t.Fatalf("unexpected decoded value: %v", decoded)
	}

	var untouched []string
	if err := decodeJSONColumn([]byte("null"), &untouched); err != nil || untouched != nil {
		t.Fatalf("null column must leave target empty: %v %v", untouched, err)
	}
}

func TestNullInt64ToIntPtr(t *testing.T) {
	if got := nullInt64ToIntPtr(sql.NullInt64{}); got != nil {
		t.Fatalf("expected nil for null")
	}
	v := 12
	got := nullInt64ToIntPtr(intPtrToNullInt64(&v))
	if got == nil || *got != 12 {
		t.Fatalf("unexpected value: %v", got)
	}
}
