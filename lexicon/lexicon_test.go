// Cat-Corner/lexicon/lexicon_test.go
package lexicon

import (
	"os"
	"path/filepath"
	"testing"
)

func TestScanWholeWord(t *testing.T) {
	lex := New([]string{"cat", "hairball"})

	testCases := []struct {
		name      string
		text      string
		wantHits  int
		wantFirst string
	}{
		{"exact word", "my cat sleeps", 1, "cat"},
		{"substring does not match", "concatenate the strings", 0, ""},
		{"leading substring", "cats everywhere", 0, ""},
		{"punctuation boundary", "look, a cat!", 1, "cat"},
		{"start of text", "cat nap", 1, "cat"},
		{"end of text", "a very good cat", 1, "cat"},
		{"case insensitive", "CAT and HairBall", 2, "cat"},
		{"digit boundary blocks", "cat5 cable", 0, ""},
		{"both terms", "the cat coughed a hairball", 2, "cat"},
		{"repeated term counts once", "cat cat cat", 1, "cat"},
		{"empty text", "", 0, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			hits, first := lex.Scan(tc.text)
			if hits != tc.wantHits || first != tc.wantFirst {
				t.Errorf("Scan(%q) = (%d, %q), want (%d, %q)",
					tc.text, hits, first, tc.wantHits, tc.wantFirst)
			}
		})
	}
}

func TestScanUnicodeBoundaries(t *testing.T) {
	lex := New([]string{"chat", "miau"})

	// Letters outside ASCII still count as word runes.
	if hits, _ := lex.Scan("léchat ronronne"); hits != 0 {
		t.Errorf("expected no hit inside accented word, got %d", hits)
	}
	if hits, first := lex.Scan("le chat — miau!"); hits != 2 || first != "chat" {
		t.Errorf("got (%d, %q), want (2, %q)", hits, first, "chat")
	}
}

func TestScanFirstFollowsListOrder(t *testing.T) {
	lex := New([]string{"zebra", "apple"})
	// "apple" appears first in the text but "zebra" is first in the list.
	_, first := lex.Scan("apple pie for the zebra")
	if first != "zebra" {
		t.Errorf("first = %q, want list-order first %q", first, "zebra")
	}
}

func TestNewNormalizes(t *testing.T) {
	lex := New([]string{"  Cat ", "cat", "", "DOG"})
	if lex.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", lex.Len())
	}
	if hits, first := lex.Scan("dog and cat"); hits != 2 || first != "cat" {
		t.Errorf("got (%d, %q), want (2, cat)", hits, first)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "terms.txt")
	content := "# comment line\n\ncat\nHairball\ncat\n  \n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	lex, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if lex.Len() != 2 {
		t.Errorf("Len() = %d, want 2", lex.Len())
	}
	if hits, _ := lex.Scan("a hairball appeared"); hits != 1 {
		t.Errorf("expected hit on lower-cased loaded term, got %d", hits)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestScanEmptyLexicon(t *testing.T) {
	lex := New(nil)
	if hits, first := lex.Scan("anything at all"); hits != 0 || first != "" {
		t.Errorf("empty lexicon should never match, got (%d, %q)", hits, first)
	}
}
