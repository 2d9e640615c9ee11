package sparse

import (
	"reflect"
	"testing"
)

func TestTokenize_PreservesHyphenatedCodes(t *testing.T) {
	got := Tokenize("Error E-4012, retry!")
	want := []string{"error", "e-4012", "retry"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize() = %v, want %v", got, want)
	}
}

func TestTokenize_Lowercases(t *testing.T) {
	got := Tokenize("HTTP Timeout")
	want := []string{"http", "timeout"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize() = %v, want %v", got, want)
	}
}

func TestTokenize_StripsLeadingTrailingHyphens(t *testing.T) {
	got := Tokenize("-edge- case-")
	want := []string{"edge", "case"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize() = %v, want %v", got, want)
	}
}

func TestTokenize_EmptyAndPunctuationOnly(t *testing.T) {
	if got := Tokenize(""); len(got) != 0 {
		t.Errorf("Tokenize(\"\") = %v, want empty", got)
	}
	if got := Tokenize("!!! ... ---"); len(got) != 0 {
		t.Errorf("Tokenize(punctuation) = %v, want empty", got)
	}
}

func TestTokenize_Deterministic(t *testing.T) {
	input := "Billing invoice E-2001 failed E-2001"
	first := Tokenize(input)
	for i := 0; i < 10; i++ {
		if got := Tokenize(input); !reflect.DeepEqual(got, first) {
			t.Fatalf("Tokenize() not deterministic: %v vs %v", got, first)
		}
	}
}
