package noisestrip

import (
	"strings"
	"testing"
)

func lines(content string) []string {
	return strings.Split(strings.TrimSuffix(content, "\n"), "\n")
}

func TestConsecutiveBlanksCollapsed(t *testing.T) {
	content := "fn foo() {\n    let x = 1;\n\n\n\n    let y = 2;\n}\n"
	skip := Skip(lines(content), "test.rs", 1, 6)

	if _, ok := skip[3]; ok {
		t.Error("line 3 (first blank) should be kept")
	}

	if _, ok := skip[4]; !ok {
		t.Error("line 4 should be skipped")
	}

	if _, ok := skip[5]; !ok {
		t.Error("line 5 should be skipped")
	}
}

func TestRustDebugLogStripped(t *testing.T) {
	content := "fn foo() {\n    debug!(\"hi\");\n    dbg!(x);\n    error!(\"bad\");\n}\n"
	skip := Skip(lines(content), "test.rs", 1, 5)

	if _, ok := skip[2]; !ok {
		t.Error("debug! should be stripped")
	}

	if _, ok := skip[3]; !ok {
		t.Error("dbg! should be stripped")
	}

	if _, ok := skip[4]; ok {
		t.Error("error! should be kept")
	}
}

func TestJSConsoleLogStripped(t *testing.T) {
	content := "function foo() {\n  console.log('hi');\n  console.error('bad');\n}\n"
	skip := Skip(lines(content), "test.ts", 1, 4)

	if _, ok := skip[2]; !ok {
		t.Error("console.log should be stripped")
	}

	if _, ok := skip[3]; ok {
		t.Error("console.error should be kept")
	}
}

func TestPythonPrintStripped(t *testing.T) {
	content := "def foo():\n    print(x)\n    logger.error('bad')\n"
	skip := Skip(lines(content), "test.py", 1, 3)

	if _, ok := skip[2]; !ok {
		t.Error("print should be stripped")
	}

	if _, ok := skip[3]; ok {
		t.Error("logger.error should be kept")
	}
}

func TestGoFmtPrintlnStripped(t *testing.T) {
	content := "func foo() {\n\tfmt.Println(\"debug\")\n\tlog.Fatalf(\"fatal\")\n}\n"
	skip := Skip(lines(content), "test.go", 1, 4)

	if _, ok := skip[2]; !ok {
		t.Error("fmt.Println should be stripped")
	}

	if _, ok := skip[3]; ok {
		t.Error("log.Fatalf should be kept")
	}
}

func TestCommentStrippedUnlessMarker(t *testing.T) {
	content := "fn foo() {\n    // just a comment\n    // TODO: fix this\n    /// doc comment\n}\n"
	skip := Skip(lines(content), "test.rs", 1, 5)

	if _, ok := skip[2]; !ok {
		t.Error("plain comment should be stripped")
	}

	if _, ok := skip[3]; ok {
		t.Error("TODO comment should be kept")
	}

	if _, ok := skip[4]; ok {
		t.Error("doc comment should be kept")
	}
}

func TestNoRangeReturnsEmpty(t *testing.T) {
	content := "fn foo() {}\n"
	skip := Skip(lines(content), "test.rs", 1, 0)

	if len(skip) != 0 {
		t.Error("empty range should return empty set")
	}
}

func TestUnsupportedLangReturnsEmpty(t *testing.T) {
	content := "fn foo() {}\n"
	skip := Skip(lines(content), "test.txt", 1, 1)

	if len(skip) != 0 {
		t.Error("unsupported extension should return empty set")
	}
}

func TestRubyNotSupported(t *testing.T) {
	content := "def foo\n  puts 'hi'\nend\n"
	skip := Skip(lines(content), "test.rb", 1, 3)

	if len(skip) != 0 {
		t.Error("ruby is not a supported stripping language")
	}
}

func TestJSDocContinuationPreserved(t *testing.T) {
	content := "function f() {\n  /**\n   * JSDoc line\n   */\n  // plain comment\n}\n"
	skip := Skip(lines(content), "test.js", 1, 6)

	if _, ok := skip[2]; ok {
		t.Error("/** should be kept")
	}

	if _, ok := skip[3]; ok {
		t.Error("JSDoc continuation should be kept")
	}

	if _, ok := skip[4]; ok {
		t.Error("*/ should be kept")
	}

	if _, ok := skip[5]; !ok {
		t.Error("plain comment should be stripped")
	}
}
