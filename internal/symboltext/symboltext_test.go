package symboltext

import "testing"

func TestLineCharsAndCursorClampsAColumnPastEndOfLine(t *testing.T) {
	lines := []string{"light.color"}
	chars, cursor, ok := LineCharsAndCursor(lines, 0, 999)
	if !ok {
		t.Fatalf("LineCharsAndCursor() ok = false, want true")
	}
	if cursor != len(chars)-1 {
		t.Fatalf("LineCharsAndCursor() cursor = %d, want the clamped last index %d", cursor, len(chars)-1)
	}
}

func TestLineCharsAndCursorReportsFalseForAnOutOfRangeLine(t *testing.T) {
	if _, _, ok := LineCharsAndCursor([]string{"a"}, 5, 0); ok {
		t.Fatalf("LineCharsAndCursor() ok = true for an out-of-range line")
	}
}

func TestLineCharsAndCursorReportsFalseForAnEmptyLine(t *testing.T) {
	if _, _, ok := LineCharsAndCursor([]string{""}, 0, 0); ok {
		t.Fatalf("LineCharsAndCursor() ok = true for an empty line")
	}
}

func TestExtractMemberReceiverIdentifierFindsTheDotReceiver(t *testing.T) {
	line := "light.color"
	chars, cursor, ok := LineCharsAndCursor([]string{line}, 0, len("light."))
	if !ok {
		t.Fatalf("LineCharsAndCursor() ok = false")
	}
	got, ok := ExtractMemberReceiverIdentifier(chars, cursor, "color")
	if !ok || got != "light" {
		t.Fatalf("ExtractMemberReceiverIdentifier() = %q, %v, want \"light\", true", got, ok)
	}
}

func TestExtractMemberReceiverIdentifierFindsTheArrowReceiver(t *testing.T) {
	line := "ptr->color"
	chars, cursor, ok := LineCharsAndCursor([]string{line}, 0, len("ptr->"))
	if !ok {
		t.Fatalf("LineCharsAndCursor() ok = false")
	}
	got, ok := ExtractMemberReceiverIdentifier(chars, cursor, "color")
	if !ok || got != "ptr" {
		t.Fatalf("ExtractMemberReceiverIdentifier() = %q, %v, want \"ptr\", true", got, ok)
	}
}

func TestExtractMemberReceiverIdentifierFailsWhenTheWordDoesNotMatch(t *testing.T) {
	line := "light.color"
	chars, cursor, _ := LineCharsAndCursor([]string{line}, 0, len("light."))
	if _, ok := ExtractMemberReceiverIdentifier(chars, cursor, "wrongword"); ok {
		t.Fatalf("ExtractMemberReceiverIdentifier() ok = true for a mismatched word")
	}
}

func TestExtractMemberReceiverIdentifierFailsWithoutAReceiverOperator(t *testing.T) {
	line := "color"
	chars, cursor, _ := LineCharsAndCursor([]string{line}, 0, 0)
	if _, ok := ExtractMemberReceiverIdentifier(chars, cursor, "color"); ok {
		t.Fatalf("ExtractMemberReceiverIdentifier() ok = true with no preceding . or ->")
	}
}

func TestExtractNamespaceQualifierBeforeWordFindsTheQualifier(t *testing.T) {
	line := "metal::compute"
	chars, cursor, _ := LineCharsAndCursor([]string{line}, 0, len("metal::"))
	got, ok := ExtractNamespaceQualifierBeforeWord(chars, cursor, "compute")
	if !ok || got != "metal" {
		t.Fatalf("ExtractNamespaceQualifierBeforeWord() = %q, %v, want \"metal\", true", got, ok)
	}
}

func TestExtractNamespaceQualifierBeforeWordFailsWithASingleColon(t *testing.T) {
	line := "metal:compute"
	chars, cursor, _ := LineCharsAndCursor([]string{line}, 0, len("metal:"))
	if _, ok := ExtractNamespaceQualifierBeforeWord(chars, cursor, "compute"); ok {
		t.Fatalf("ExtractNamespaceQualifierBeforeWord() ok = true for a single colon")
	}
}

func TestExtractCallArgumentCountCountsCommasAtTopLevel(t *testing.T) {
	line := "compute(a, b, c)"
	chars, cursor, _ := LineCharsAndCursor([]string{line}, 0, 0)
	got, ok := ExtractCallArgumentCount(chars, cursor, "compute")
	if !ok || got != 3 {
		t.Fatalf("ExtractCallArgumentCount() = %d, %v, want 3, true", got, ok)
	}
}

func TestExtractCallArgumentCountReturnsZeroForAnEmptyArgList(t *testing.T) {
	line := "compute()"
	chars, cursor, _ := LineCharsAndCursor([]string{line}, 0, 0)
	got, ok := ExtractCallArgumentCount(chars, cursor, "compute")
	if !ok || got != 0 {
		t.Fatalf("ExtractCallArgumentCount() = %d, %v, want 0, true", got, ok)
	}
}

func TestExtractCallArgumentCountIgnoresCommasInsideNestedParens(t *testing.T) {
	line := "compute(a, f(b, c))"
	chars, cursor, _ := LineCharsAndCursor([]string{line}, 0, 0)
	got, ok := ExtractCallArgumentCount(chars, cursor, "compute")
	if !ok || got != 2 {
		t.Fatalf("ExtractCallArgumentCount() = %d, %v, want 2 top-level args, true", got, ok)
	}
}

func TestExtractCallArgumentCountFailsWithoutAnOpeningParen(t *testing.T) {
	line := "compute"
	chars, cursor, _ := LineCharsAndCursor([]string{line}, 0, 0)
	if _, ok := ExtractCallArgumentCount(chars, cursor, "compute"); ok {
		t.Fatalf("ExtractCallArgumentCount() ok = true without a following (")
	}
}

func TestExtractCallArgumentCountFailsOnUnbalancedParens(t *testing.T) {
	line := "compute(a, b"
	chars, cursor, _ := LineCharsAndCursor([]string{line}, 0, 0)
	if _, ok := ExtractCallArgumentCount(chars, cursor, "compute"); ok {
		t.Fatalf("ExtractCallArgumentCount() ok = true for an unterminated call")
	}
}
