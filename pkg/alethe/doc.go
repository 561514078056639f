// Package alethe implements a checker and elaborator for Alethe-style SMT
// proof certificates.
//
// It reads a problem (declarations, definitions, sorts) plus a proof (a
// sequence of assumptions, derivation steps, and nested subproofs) written
// in an S-expression surface syntax, builds a maximally shared term graph
// through a hash-consing pool, and can rewrite a proof into a more
// primitive form: an n-ary transitivity step into a chain of binary ones,
// an n-ary resolution into binary resolutions, or a resolution chain into
// one with explicit intermediate contractions ("uncrowding").
//
// The package does not perform SMT solving, model construction, or SAT
// search, and it does not attempt to repair or complete a proof — it only
// performs the rewrites it is asked to perform.
package alethe
