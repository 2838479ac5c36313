package derivre_test

import (
	"fmt"
	"strings"

	"github.com/coregx/derivre"
	"github.com/coregx/derivre/syntax"
)

// ExampleCompile demonstrates basic pattern compilation and matching.
func ExampleCompile() {
	re, err := derivre.Compile(`\d+`)
	if err != nil {
		panic(err)
	}

	fmt.Println(re.MatchString("hello 123"))
	// Output: true
}

// ExampleMustCompile demonstrates panic-on-error compilation.
func ExampleMustCompile() {
	re := derivre.MustCompile(`hello`)
	fmt.Println(re.MatchString("hello world"))
	// Output: true
}

// ExampleRegex_FindString shows that the longest match wins among those
// starting at the leftmost position.
func ExampleRegex_FindString() {
	re := derivre.MustCompile(`a|ab|abc`)
	fmt.Println(re.FindString("xxabcd"))
	// Output: abc
}

// ExampleRegex_FindStringSubmatch demonstrates capture groups. A group
// inside a repetition reports its last iteration.
func ExampleRegex_FindStringSubmatch() {
	re := derivre.MustCompile(`a(b|c)*d`)
	fmt.Printf("%q\n", re.FindStringSubmatch("xabcbcdY"))
	// Output: ["abcbcd" "c"]
}

// ExampleRegex_FindAllString demonstrates finding all matches.
func ExampleRegex_FindAllString() {
	re := derivre.MustCompile(`\d`)
	fmt.Println(re.FindAllString("a1b2c3", -1))
	// Output: [1 2 3]
}

// ExampleRegex_ReplaceAllString demonstrates numbered and named groups in
// the replacement template.
func ExampleRegex_ReplaceAllString() {
	re := derivre.MustCompile(`(?P<first>\w+) (?P<last>\w+)`)
	fmt.Println(re.ReplaceAllString("Ada Lovelace", "${last}, $1"))
	// Output: Lovelace, Ada
}

// ExampleRegex_ReplaceAllStringFunc demonstrates function replacement.
func ExampleRegex_ReplaceAllStringFunc() {
	re := derivre.MustCompile(`[aeiou]`)
	fmt.Println(re.ReplaceAllStringFunc("banana", strings.ToUpper))
	// Output: bAnAnA
}

// ExampleRegex_Split demonstrates splitting around matches.
func ExampleRegex_Split() {
	re := derivre.MustCompile(`\s*,\s*`)
	fmt.Printf("%q\n", re.Split("a , b,c ,d", -1))
	// Output: ["a" "b" "c" "d"]
}

// ExampleRegex_SubexpNames demonstrates named capture groups.
func ExampleRegex_SubexpNames() {
	re := derivre.MustCompile(`(?P<year>\d{4})-(?P<month>\d{2})`)
	m := re.FindStringSubmatch("released 2024-06")
	for i, name := range re.SubexpNames() {
		if name != "" {
			fmt.Printf("%s=%s\n", name, m[i])
		}
	}
	// Output:
	// year=2024
	// month=06
}

// ExampleRegex_FindMatch iterates over matches with Next.
func ExampleRegex_FindMatch() {
	re := derivre.MustCompile(`(\w)(\d)`)
	for m := re.FindMatch("a1 b2 c3", 0); m.Success(); m = m.Next() {
		fmt.Println(m.Start(), m.Value(), m.GroupString(2))
	}
	// Output:
	// 0 a1 1
	// 3 b2 2
	// 6 c3 3
}

// ExampleCompileWithFlags demonstrates intersection and complement.
func ExampleCompileWithFlags() {
	// Words that do not contain "cat".
	re, err := derivre.CompileWithFlags(`\b[a-z]+\b&~(?:.*cat.*)`, syntax.BooleanOps)
	if err != nil {
		panic(err)
	}
	fmt.Println(re.FindAllString("concat dog scatter bird", -1))
	// Output: [dog bird]
}

// ExampleQuoteMeta demonstrates escaping metacharacters.
func ExampleQuoteMeta() {
	fmt.Println(derivre.QuoteMeta(`1+1=2?`))
	// Output: 1\+1=2\?
}

// ExampleMatchString demonstrates the package-level helper.
func ExampleMatchString() {
	matched, err := derivre.MatchString(`p([a-z]+)ch`, "peach")
	fmt.Println(matched, err)
	// Output: true <nil>
}
