// Package git wraps the git executable for the tuture diff pipeline.
//
// Every operation shells out through a [Runner], which spawns exactly one
// git process per call and hands back its untouched standard output. A
// non-zero exit becomes an [*ExecutionError] whose message is git's stderr.
//
//	client := git.NewClient(git.NewExecRunner("git", repoDir), logger)
//	commits := client.Logs(ctx)           // newest first, empty on a fresh repo
//	patch, err := client.Show(ctx, id)    // raw `git show <id>` text
//	files, err := client.ChangedFiles(ctx, id, rules)
//
// Parsing of the raw patch lives in the diff package; this package only
// knows how to ask git for text and how to cut the file-name block out of
// `git show --name-only`.
package git
