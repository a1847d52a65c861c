// Package diff turns the text printed by `git show` into per-file, per-hunk
// structure.
//
// [ExtractBody] cuts the patch out of the commit output and [Parse] reads it.
// Parsing never fails: lines it cannot place are reported through
// [ParseReport] as anomalies and otherwise skipped. Hunk extent follows the
// counts declared in each "@@" header, so content such as "--- x" inside a
// hunk is never mistaken for a file header.
package diff
