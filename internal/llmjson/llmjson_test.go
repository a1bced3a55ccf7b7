package llmjson

import (
	"encoding/json"
	"testing"
)

func TestCleanFences_RemovesJSONFence(t *testing.T) {
	in := "```json\n{\"role\":\"Frontend Developer\"}\n```"
	got := CleanFences(in)
	want := `{"role":"Frontend Developer"}`
	if got != want {
		t.Fatalf("CleanFences = %q, want %q", got, want)
	}
}

func TestCleanFences_FencedEqualsUnfenced(t *testing.T) {
	plain := `{"role":"Backend Developer","amount":5}`
	fenced := "```json\n" + plain + "\n```"

	var a, b map[string]any
	if err := json.Unmarshal([]byte(CleanFences(plain)), &a); err != nil {
		t.Fatalf("unmarshal plain: %v", err)
	}
	if err := json.Unmarshal([]byte(CleanFences(fenced)), &b); err != nil {
		t.Fatalf("unmarshal fenced: %v", err)
	}
	if a["role"] != b["role"] || a["amount"] != b["amount"] {
		t.Fatalf("fenced parse %v differs from plain parse %v", b, a)
	}
}

func TestCleanFences_PreservesInlineCodeSpans(t *testing.T) {
	in := "[\"Explain the difference between `let` and `const`.\", \"What does `json.Marshal` return?\"]"
	if got := CleanFences(in); got != in {
		t.Fatalf("CleanFences mutated unfenced content:\ngot  %q\nwant %q", got, in)
	}
}

func TestCleanFences_FencedArrayKeepsInlineCode(t *testing.T) {
	in := "```json\n[\"Explain the difference between `let` and `const` in JavaScript.\"]\n```"
	got := ExtractArray(CleanFences(in))

	var questions []string
	if err := json.Unmarshal([]byte(got), &questions); err != nil {
		t.Fatalf("extracted array does not parse: %v", err)
	}
	if len(questions) != 1 {
		t.Fatalf("len = %d, want 1", len(questions))
	}
	if want := "Explain the difference between `let` and `const` in JavaScript."; questions[0] != want {
		t.Fatalf("question = %q, want %q", questions[0], want)
	}
}

func TestCleanFences_UnterminatedFence(t *testing.T) {
	in := "```json\n{\"level\":\"Junior\"}"
	got := CleanFences(in)
	if got != `{"level":"Junior"}` {
		t.Fatalf("CleanFences = %q", got)
	}
}

func TestExtractObject_SurroundingProse(t *testing.T) {
	in := `Sure! Here is the JSON you asked for: {"type":"Technical","amount":3} Hope that helps.`
	got := ExtractObject(in)
	want := `{"type":"Technical","amount":3}`
	if got != want {
		t.Fatalf("ExtractObject = %q, want %q", got, want)
	}
}

func TestExtractObject_BracesInsideStrings(t *testing.T) {
	in := `{"question":"What does {} mean in Go?","hint":"escaped \" quote"}`
	got := ExtractObject(in)
	if got != in {
		t.Fatalf("ExtractObject = %q, want full input", got)
	}
	var obj map[string]string
	if err := json.Unmarshal([]byte(got), &obj); err != nil {
		t.Fatalf("extracted object does not parse: %v", err)
	}
}

func TestExtractObject_Nested(t *testing.T) {
	in := `noise {"outer":{"inner":1}} trailing {"second":2}`
	got := ExtractObject(in)
	want := `{"outer":{"inner":1}}`
	if got != want {
		t.Fatalf("ExtractObject = %q, want %q", got, want)
	}
}

func TestExtractObject_Truncated(t *testing.T) {
	in := `{"role":"Frontend Developer","type":`
	if got := ExtractObject(in); got != "" {
		t.Fatalf("ExtractObject on truncated input = %q, want empty", got)
	}
}

func TestExtractObject_NoObject(t *testing.T) {
	if got := ExtractObject("plain prose, no JSON here"); got != "" {
		t.Fatalf("ExtractObject = %q, want empty", got)
	}
}

func TestExtractArray_Basic(t *testing.T) {
	in := "Here are the questions:\n[\"q1\", \"q2\", \"q3\"]"
	got := ExtractArray(in)
	want := `["q1", "q2", "q3"]`
	if got != want {
		t.Fatalf("ExtractArray = %q, want %q", got, want)
	}
}

func TestExtractArray_BracketsInsideStrings(t *testing.T) {
	in := `["What is arr[0]?", "Explain [] vs {} literals"]`
	got := ExtractArray(in)
	if got != in {
		t.Fatalf("ExtractArray = %q, want full input", got)
	}
	var arr []string
	if err := json.Unmarshal([]byte(got), &arr); err != nil {
		t.Fatalf("extracted array does not parse: %v", err)
	}
	if len(arr) != 2 {
		t.Fatalf("len = %d, want 2", len(arr))
	}
}

func TestExtractArray_Truncated(t *testing.T) {
	in := `["one", "two"`
	if got := ExtractArray(in); got != "" {
		t.Fatalf("ExtractArray on truncated input = %q, want empty", got)
	}
}
