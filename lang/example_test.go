package lang_test

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ardnew/pebble/lang"
)

func Example() {
	src := `
fnc fact(n):
    out 1
    if n bigger 1:
        out n * fact(n - 1)

go i in {1, 2, 3, 4}:
    say i, fact(i)
`

	in := lang.New(lang.WithOutput(os.Stdout))
	if _, err := in.Run(context.Background(), src); err != nil {
		fmt.Println(err)
	}

	// Output:
	// 1 1
	// 2 2
	// 3 6
	// 4 24
}

func Example_input() {
	in := lang.New(
		lang.WithInput(strings.NewReader("Ada\n")),
		lang.WithOutput(os.Stdout),
	)

	_, err := in.Run(context.Background(), `inp name is "name? "
say "hello", name`)
	if err != nil {
		fmt.Println(err)
	}

	// Output:
	// name? hello Ada
}

func Example_result() {
	in := lang.New()

	v, err := in.Run(context.Background(), `out [ "k": {1,2} ]`)
	if err != nil {
		fmt.Println(err)
	}

	fmt.Println(v.Kind(), v)

	// Output:
	// map ["k": {1, 2}]
}

func Example_error() {
	in := lang.New()

	_, err := in.Run(context.Background(), "x is 1\nfnc f(a):\n    out a\nf(x, x)")
	fmt.Println(err)

	// Output:
	// argument count mismatch (function=f expected=1 received=2 line=4)
}

func ExampleTree() {
	stmts := lang.Tree("until done:\n    done is true")

	fmt.Println(stmts[0].Header, "->", stmts[0].Body[0].Header)

	// Output:
	// until done: -> done is true
}
