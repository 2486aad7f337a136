package models

import "testing"

func TestParseMediaType(t *testing.T) {
	t.Run("Accepts Loose Spellings", func(t *testing.T) {
		cases := map[string]MediaType{
			"movie":   TypeMovie,
			"Movie":   TypeMovie,
			"tvshow":  TypeTVShow,
			"tv show": TypeTVShow,
			"TV Show": TypeTVShow,
			"BOOK":    TypeBook,
			"music":   TypeMusic,
		}

		for input, want := range cases {
			got, err := ParseMediaType(input)
			if err != nil {
				t.Errorf("ParseMediaType(%q) returned error: %v", input, err)
				continue
			}
			if got != want {
				t.Errorf("ParseMediaType(%q) = %q, want %q", input, got, want)
			}
		}
	})

	t.Run("Rejects Unknown", func(t *testing.T) {
		for _, input := range []string{"podcast", "", "all"} {
			if _, err := ParseMediaType(input); err == nil {
				t.Errorf("ParseMediaType(%q) should fail", input)
			}
		}
	})
}

func TestMediaTypeValid(t *testing.T) {
	for _, mediaType := range MediaTypes() {
		if !mediaType.Valid() {
			t.Errorf("%q should be valid", mediaType)
		}
	}
	if TypeAll.Valid() {
		t.Error("the All filter must not be a valid record type")
	}
	if MediaType("Podcast").Valid() {
		t.Error("unknown types must not be valid")
	}
}

func TestMediaRecordValidate(t *testing.T) {
	valid := MediaRecord{OwnerID: "user-1", Title: "Dune", Type: TypeBook, Rating: 3}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid record rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*MediaRecord)
	}{
		{"Blank Title", func(r *MediaRecord) { r.Title = "   " }},
		{"Invalid Type", func(r *MediaRecord) { r.Type = "Podcast" }},
		{"Filter Pseudo-Type", func(r *MediaRecord) { r.Type = TypeAll }},
		{"Rating Too High", func(r *MediaRecord) { r.Rating = 6 }},
		{"Rating Negative", func(r *MediaRecord) { r.Rating = -1 }},
		{"Missing Owner", func(r *MediaRecord) { r.OwnerID = "" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			record := valid
			tc.mutate(&record)
			if err := record.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestViewQueryMatches(t *testing.T) {
	record := MediaRecord{Title: "The Godfather", Type: TypeMovie}

	cases := []struct {
		name  string
		query ViewQuery
		want  bool
	}{
		{"Zero Query", ViewQuery{}, true},
		{"All Filter", ViewQuery{TypeFilter: TypeAll}, true},
		{"Matching Type", ViewQuery{TypeFilter: TypeMovie}, true},
		{"Other Type", ViewQuery{TypeFilter: TypeBook}, false},
		{"Case-Insensitive Search", ViewQuery{TypeFilter: TypeAll, SearchText: "gODFA"}, true},
		{"Substring Miss", ViewQuery{TypeFilter: TypeAll, SearchText: "goodfellas"}, false},
		{"Type And Search", ViewQuery{TypeFilter: TypeMovie, SearchText: "god"}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.query.Matches(&record); got != tc.want {
				t.Errorf("Matches = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestParseSortKey(t *testing.T) {
	cases := map[string]SortKey{
		"":              SortNone,
		"none":          SortNone,
		"newest":        SortNewest,
		"Oldest":        SortOldest,
		"highest":       SortHighestRated,
		"highest-rated": SortHighestRated,
		"rating":        SortHighestRated,
	}

	for input, want := range cases {
		got, err := ParseSortKey(input)
		if err != nil {
			t.Errorf("ParseSortKey(%q) returned error: %v", input, err)
			continue
		}
		if got != want {
			t.Errorf("ParseSortKey(%q) = %v, want %v", input, got, want)
		}
	}

	if _, err := ParseSortKey("sideways"); err == nil {
		t.Error("expected error for unknown sort key")
	}
}
