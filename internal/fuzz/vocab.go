package fuzz

// supplements is the fixed vocabulary of syntactic fragments injected by
// the reparse fuzzer: brackets, keywords, literals, whitespace and control
// fragments chosen to stress token boundaries and nesting.
var supplements = [...]string{
	"[",
	"]",
	"{",
	"}",
	"(",
	")",
	"#rect()",
	"a word",
	", a: 1",
	"10.0",
	":",
	"if i == 0 {true}",
	"for",
	"* hello *",
	"//",
	"/*",
	"\\u{12e4}",
	"```vellum",
	" ",
	"trees",
	"\\",
	"$ a $",
	"2.",
	"-",
	"5",
}
