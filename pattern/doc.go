// Package pattern compiles and evaluates the path pattern language used to
// select input resources and to scope delete rules.
//
// A pattern is a "/"-separated sequence of segments. A segment is either the
// traversal marker "**", which matches any number of path segments including
// zero, or a sequence of elements:
//
//	name      literal text; meta characters are escaped with "\"
//	${name}   variable, substituted from batch arguments by Resolve
//	{a|b/c}   alternation; an option may span several segments
//	*         any run of characters within one segment (one per segment)
//
// For example "logs/${date}/**/*.csv" or "{in|archive/in}/part-*".
package pattern
