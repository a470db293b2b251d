// Package lang implements the Pebble interpreter.
//
// Pebble is a line language scoped by indentation. A program is a sequence
// of headers; a header ending in ':' owns the following lines indented one
// step (4 columns) deeper as its body. Bodies are segmented only when they
// run, never flattened ahead of time.
//
// # Statements
//
//	say a, b            write values on one line
//	x is expr           bind x
//	inp x is prompt     read one line of input into x
//	inp[prompt]         read one line of input and discard it
//	fnc name(a, b):     define a function
//	out expr            set the block result
//	if cond:            run the body once if cond holds
//	until cond:         run the body while cond does not hold
//	go x in seq:        run the body for each element of seq
//	name(args)          call a function for its effect
//
// Conditions accept the words bigger, smaller and equal for >, < and ==.
//
// # Expressions
//
// Expression text is resolved by the first matching form: empty (null),
// quoted text, integer, real number, true/false, {list}, [key: value map],
// variable, inp[prompt], base[index], name(args), and finally an operator
// expression over + - * / ^ == != < > <= >= and or not with parentheses.
//
// # Example
//
//	fnc fact(n):
//	    out 1
//	    if n bigger 1:
//	        out n * fact(n - 1)
//
//	go i in {1, 2, 3}:
//	    say i, fact(i)
//
// # Scoping
//
// A call runs in a full copy of the caller's variables with the parameters
// bound on top. Nothing the callee assigns is visible to the caller; the
// only way out is the returned value. The function registry is shared by
// the whole program and the last definition of a name wins.
package lang
