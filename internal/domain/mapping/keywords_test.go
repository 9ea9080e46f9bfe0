package mapping

import (
	"reflect"
	"testing"
)

func TestExtractKeywords(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{}},
		{"   ", []string{}},
		{"Vataja Jwara", []string{"vataja", "jwara"}},
		{"Fever due to Vata imbalance - characterized by irregular fever patterns",
			[]string{"fever", "vata", "imbalance", "irregular", "patterns"}},
		{"Skin diseases including eczema, psoriasis and dermatitis",
			[]string{"skin", "eczema", "psoriasis", "dermatitis"}},
		{"heart/lung_disorder.of-the.body", []string{"heart", "lung", "body"}},
		{"Ａｓｔｈｍａ", []string{"asthma"}},
	}
	for _, tt := range tests {
		got := ExtractKeywords(tt.in)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ExtractKeywords(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestExtractKeywords_Deterministic(t *testing.T) {
	in := "Rheumatoid arthritis - joint inflammation due to ama and vata"
	first := ExtractKeywords(in)
	for i := 0; i < 10; i++ {
		if got := ExtractKeywords(in); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d: %v != %v", i, got, first)
		}
	}
}
