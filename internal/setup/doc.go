// Package setup installs the repository plumbing tuture relies on: the
// post-commit hook that regenerates the artifact, the .gitignore rule for the
// tuture directory, and a starter tuture.yml.
//
// The diff pipeline never calls into this package. Command-layer adapters in
// cmd/tuture handle flags and output and delegate the file work here.
//
//	status := setup.CheckHookStatus(hookPath)
//	action, err := setup.InstallHook(hookPath, setup.InstallOptions{Chain: true})
//	removal, err := setup.RemoveHook(hookPath)
//	added, err := setup.AppendGitignore(repoRoot, ".tuture")
package setup
