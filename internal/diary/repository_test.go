package diary

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestInsertAssignsMonotonicIdentity(t *testing.T) {
	repository := mustRepository(t, newTestDatabase(t))
	ctx := context.Background()

	firstID, err := repository.Insert(ctx, &Record{Username: "Alice", Diaries: "one"})
	if err != nil {
		t.Fatalf("unexpected insert error: %v", err)
	}
	secondID, err := repository.Insert(ctx, &Record{Username: "Alice", Diaries: "two"})
	if err != nil {
		t.Fatalf("unexpected insert error: %v", err)
	}
	if secondID <= firstID {
		t.Fatalf("expected increasing identities, got %d then %d", firstID, secondID)
	}
}

func TestSentimentScoresRoundTripThroughListing(t *testing.T) {
	repository := mustRepository(t, newTestDatabase(t))
	ctx := context.Background()

	if _, err := repository.Insert(ctx, &Record{
		Username:    "Alice",
		Diaries:     "今日は良い一日だった。",
		ImageName:   "abc.png",
		AnaResult:   "positive",
		AnaPositive: 0.81,
		AnaNeutral:  0.12,
		AnaNegative: 0.07,
	}); err != nil {
		t.Fatalf("unexpected insert error: %v", err)
	}

	records, err := repository.ListPage(ctx, 1)
	if err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected one record, got %d", len(records))
	}
	record := records[0]
	if record.AnaPositive != 0.81 || record.AnaNeutral != 0.12 || record.AnaNegative != 0.07 {
		t.Fatalf("scores did not round-trip: %+v", record)
	}
	if record.CreatedAt.IsZero() {
		t.Fatalf("expected server-assigned creation timestamp")
	}
}

func TestListPagePaginatesNewestFirst(t *testing.T) {
	repository := mustRepository(t, newTestDatabase(t))
	ctx := context.Background()

	for i := 1; i <= 25; i++ {
		if _, err := repository.Insert(ctx, &Record{Username: fmt.Sprintf("user-%d", i)}); err != nil {
			t.Fatalf("unexpected insert error: %v", err)
		}
	}

	firstPage, err := repository.ListPage(ctx, 1)
	if err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}
	if len(firstPage) != PageSize {
		t.Fatalf("expected %d records on page 1, got %d", PageSize, len(firstPage))
	}
	if firstPage[0].Username != "user-25" {
		t.Fatalf("expected the newest record first, got %q", firstPage[0].Username)
	}
	for i := 1; i < len(firstPage); i++ {
		if firstPage[i].ID >= firstPage[i-1].ID {
			t.Fatalf("expected descending identities, got %d before %d", firstPage[i-1].ID, firstPage[i].ID)
		}
	}

	thirdPage, err := repository.ListPage(ctx, 3)
	if err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}
	if len(thirdPage) != 5 {
		t.Fatalf("expected 5 records on page 3, got %d", len(thirdPage))
	}

	if _, err := repository.ListPage(ctx, 4); !errors.Is(err, ErrPageOutOfRange) {
		t.Fatalf("expected page 4 to be out of range, got %v", err)
	}
}

func TestListPageRejectsNonPositivePages(t *testing.T) {
	repository := mustRepository(t, newTestDatabase(t))

	if _, err := repository.ListPage(context.Background(), 0); !errors.Is(err, ErrPageOutOfRange) {
		t.Fatalf("expected ErrPageOutOfRange for page 0, got %v", err)
	}
	if _, err := repository.ListPage(context.Background(), -3); !errors.Is(err, ErrPageOutOfRange) {
		t.Fatalf("expected ErrPageOutOfRange for negative page, got %v", err)
	}
}

func TestListPageFirstPageOfEmptyTableIsEmpty(t *testing.T) {
	repository := mustRepository(t, newTestDatabase(t))

	records, err := repository.ListPage(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected empty first page, got %d records", len(records))
	}
}

func TestListBlogsReturnsAllEntries(t *testing.T) {
	db := newTestDatabase(t)
	repository := mustRepository(t, db)

	entries := []Blog{
		{Name: "tech", URL: "https://example.com/tech", ImageName: "tech.png", Description: "tech posts"},
		{Name: "life", URL: "https://example.com/life", ImageName: "life.png", Description: "life posts"},
	}
	for i := range entries {
		if err := db.Create(&entries[i]).Error; err != nil {
			t.Fatalf("unexpected seed error: %v", err)
		}
	}

	blogs, err := repository.ListBlogs(context.Background())
	if err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}
	if len(blogs) != 2 {
		t.Fatalf("expected 2 blog entries, got %d", len(blogs))
	}
}
