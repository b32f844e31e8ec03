package utils

import (
	"regexp"
	"strings"
	"testing"
	"time"
)

func TestGenerateBookingReferenceFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^JTS-\d{6}-[A-HJ-NP-Z2-9]{4}$`)

	for i := 0; i < 50; i++ {
		ref := GenerateBookingReference()
		if !pattern.MatchString(ref) {
			t.Fatalf("reference %q does not match expected format", ref)
		}
		if !strings.Contains(ref, time.Now().Format("060102")) {
			t.Errorf("reference %q missing today's date segment", ref)
		}
	}
}

func TestGenerateBookingReferenceAvoidsAmbiguousChars(t *testing.T) {
	for i := 0; i < 100; i++ {
		ref := GenerateBookingReference()
		suffix := ref[strings.LastIndex(ref, "-")+1:]
		for _, c := range suffix {
			switch c {
			case 'I', 'O', '0', '1':
				t.Fatalf("reference %q contains ambiguous character %q", ref, c)
			}
		}
	}
}
