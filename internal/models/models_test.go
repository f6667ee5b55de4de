package models

import "testing"

func TestParseMediaKind(t *testing.T) {
	tc := []struct {
		input   string
		want    MediaKind
		wantErr bool
	}{
		{"movie", KindMovie, false},
		{"Movie", KindMovie, false},
		{"tv", KindSeries, false},
		{" series ", KindSeries, false},
		{"person", "", true},
		{"", "", true},
	}

	for _, tt := range tc {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMediaKind(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMediaKind(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseMediaKind(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTitle(t *testing.T) {
	t.Run("Year", func(t *testing.T) {
		if got := (Title{ReleaseDate: "1999-03-31"}).Year(); got != "1999" {
			t.Errorf("Year() = %q, want 1999", got)
		}
		if got := (Title{}).Year(); got != "" {
			t.Errorf("Year() = %q, want empty", got)
		}
	})

	t.Run("Ref", func(t *testing.T) {
		if got := (Title{ID: 603, Kind: KindMovie}).Ref(); got != "movie:603" {
			t.Errorf("Ref() = %q", got)
		}
		if got := (Title{ID: 1399, Kind: KindSeries}).Ref(); got != "tv:1399" {
			t.Errorf("Ref() = %q", got)
		}
	})
}

func TestPageHasMore(t *testing.T) {
	if !(Page{Page: 1, TotalPages: 3}).HasMore() {
		t.Error("expected more pages")
	}
	if (Page{Page: 3, TotalPages: 3}).HasMore() {
		t.Error("expected last page")
	}
}

func TestUserFullName(t *testing.T) {
	if got := (User{FirstName: "Ada", LastName: "Lovelace"}).FullName(); got != "Ada Lovelace" {
		t.Errorf("FullName() = %q", got)
	}
	if got := (User{FirstName: "Ada"}).FullName(); got != "Ada" {
		t.Errorf("FullName() = %q", got)
	}
}
