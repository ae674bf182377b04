package tags

import (
	"reflect"
	"strings"
	"testing"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		context string
		want    Tags
	}{
		{
			name:  "nike dunk retro",
			title: "Nike Dunk Low Retro",
			want: Tags{
				Brands: []string{"nike"},
				Models: []string{"dunk"},
				Types:  []string{"retro"},
				Colors: []string{},
			},
		},
		{
			name:  "air jordan with color",
			title: "Air Jordan 4 White Thunder",
			want: Tags{
				Brands: []string{"jordan"},
				Models: []string{"jordan4"},
				Types:  []string{},
				Colors: []string{"white"},
			},
		},
		{
			name:    "triple black composite color",
			title:   "Adidas Ultraboost Triple Black",
			context: "",
			want: Tags{
				Brands: []string{"adidas"},
				Models: []string{"ultraboost"},
				Types:  []string{},
				Colors: []string{"black"},
			},
		},
		{
			name:  "no matches",
			title: "Completely unrelated headline",
			want: Tags{
				Brands: []string{},
				Models: []string{},
				Types:  []string{},
				Colors: []string{},
			},
		},
		{
			name:  "word boundary does not match substrings",
			title: "Юбилейный марафон",
			want: Tags{
				Brands: []string{},
				Models: []string{},
				Types:  []string{},
				Colors: []string{},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.title, tt.context)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Extract(%q) = %+v, want %+v", tt.title, got, tt.want)
			}
		})
	}
}

func TestExtract_Idempotent(t *testing.T) {
	title := "Nike Air Max 90 x Off-White Triple White Collab"
	context := "Limited release in white and black colorways"

	first := Extract(title, context)
	second := Extract(title, context)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Extract is not idempotent: %+v vs %+v", first, second)
	}
}

func TestExtract_NoDuplicates(t *testing.T) {
	// "air max" встречается и в заголовке, и в контексте
	got := Extract("Nike Air Max 90", "New Air Max colorway, nike at its best")

	seen := map[string]struct{}{}
	for _, b := range got.Brands {
		if _, ok := seen[b]; ok {
			t.Errorf("duplicate brand %q in %v", b, got.Brands)
		}
		seen[b] = struct{}{}
	}
}

func TestHashtags(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		category string
		contains string
	}{
		{"nike sneakers", "Nike Dunk Low", "sneakers", "#nike"},
		{"jordan sneakers", "Air Jordan 1 High", "sneakers", "#jordan"},
		{"unknown brand falls back", "Some New Runner", "sneakers", "#sneakers"},
		{"off-white fashion", "Off-White Varsity Jacket", "fashion", "#offwhite"},
		{"fashion default", "New Season Lookbook", "fashion", "#fashion"},
		{"unknown category", "Anything", "thoughts", "#streetwear"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Hashtags(tt.title, tt.category)
			if !strings.Contains(got, tt.contains) {
				t.Errorf("Hashtags(%q, %q) = %q, want contains %q", tt.title, tt.category, got, tt.contains)
			}
		})
	}
}

func TestFormatForDisplay(t *testing.T) {
	tagMap := Extract("Nike Dunk Low Retro Triple Black", "").ToMap()

	got := FormatForDisplay(tagMap)
	for _, want := range []string{"🏷 Бренд: Nike", "👟 Модель: DUNK", "📌 Тип: Ретро", "🎨 Цвет: Черный"} {
		if !strings.Contains(got, want) {
			t.Errorf("FormatForDisplay() = %q, want contains %q", got, want)
		}
	}

	if got := FormatForDisplay(map[string][]string{}); got != "" {
		t.Errorf("FormatForDisplay(empty) = %q, want empty", got)
	}
}
