package main

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/odvcencio/grit/pkg/object"
	"github.com/odvcencio/grit/pkg/pathspec"
	"github.com/odvcencio/grit/pkg/repo"
	"github.com/spf13/cobra"
)

func newResetCmd() *cobra.Command {
	var (
		mixed       bool
		soft        bool
		hard        bool
		merge       bool
		keep        bool
		quiet       bool
		noQuiet     bool
		intentToAdd bool
		patch       bool
		pathspecZ   bool
		fromStdin   bool
		recurseSub  string
	)

	cmd := &cobra.Command{
		Use:   "reset [<mode>] [<revision>] [--] [paths...]",
		Short: "Reset HEAD, index, and working tree",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			mode, explicit, err := pickResetMode(mixed, soft, hard, merge, keep)
			if err != nil {
				return err
			}

			if patch {
				if explicit {
					return fmt.Errorf("--patch is incompatible with --%s", mode)
				}
				if fromStdin {
					return fmt.Errorf("--stdin is incompatible with --patch")
				}
				return fmt.Errorf("interactive patch selection is not available in this build")
			}
			if pathspecZ && !fromStdin {
				return fmt.Errorf("-z only makes sense with --stdin")
			}
			if err := validateRecurseSubmodules(recurseSub); err != nil {
				return err
			}

			rev, paths, err := splitRevisionFromPaths(cmd, r, args)
			if err != nil {
				return err
			}

			if fromStdin {
				if len(paths) > 0 {
					return fmt.Errorf("--stdin is incompatible with path arguments")
				}
				paths, err = readPathsFromStdin(cmd, pathspecZ)
				if err != nil {
					return err
				}
			}

			cfg, err := r.ReadConfig()
			if err != nil {
				return err
			}
			effectiveQuiet := cfg.Reset.Quiet
			if quiet {
				effectiveQuiet = true
			}
			if noQuiet {
				effectiveQuiet = false
			}

			var ps *pathspec.PathSpec
			if len(paths) > 0 {
				popts := []pathspec.Option{}
				if fromStdin {
					// Stdin paths are literal file names, never globs.
					popts = append(popts, pathspec.Literal())
				}
				ps = pathspec.New(paths, popts...)
			}

			return r.ResetWorkspace(repo.ResetOptions{
				Mode:        mode,
				Revision:    rev,
				Paths:       ps,
				Quiet:       effectiveQuiet,
				IntentToAdd: intentToAdd,
				Output:      cmd.OutOrStdout(),
			})
		},
	}

	f := cmd.Flags()
	f.BoolVar(&mixed, "mixed", false, "reset HEAD and index (default)")
	f.BoolVar(&soft, "soft", false, "reset only HEAD")
	f.BoolVar(&hard, "hard", false, "reset HEAD, index, and working tree")
	f.BoolVar(&merge, "merge", false, "reset HEAD, index, and working tree, keeping unstaged changes")
	f.BoolVar(&keep, "keep", false, "reset HEAD but keep local changes; abort if a changed file differs between commits")
	f.BoolVarP(&quiet, "quiet", "q", false, "suppress progress reports")
	f.BoolVar(&noQuiet, "no-quiet", false, "report progress even if reset.quiet is set")
	f.BoolVarP(&intentToAdd, "intent-to-add", "N", false, "record removed paths as intent-to-add entries")
	f.BoolVarP(&patch, "patch", "p", false, "interactively select hunks to reset")
	f.BoolVarP(&pathspecZ, "null", "z", false, "paths on stdin are separated by NUL")
	f.BoolVar(&fromStdin, "stdin", false, "read paths from standard input")
	f.StringVar(&recurseSub, "recurse-submodules", "", "control recursive resetting of submodules")
	f.Lookup("recurse-submodules").NoOptDefVal = "on"

	return cmd
}

// pickResetMode folds the mutually exclusive mode flags into a single mode.
// The bool result reports whether any mode flag was given explicitly.
func pickResetMode(mixed, soft, hard, merge, keep bool) (repo.ResetMode, bool, error) {
	mode := repo.ResetNone
	count := 0
	for _, m := range []struct {
		set  bool
		mode repo.ResetMode
	}{
		{mixed, repo.ResetMixed},
		{soft, repo.ResetSoft},
		{hard, repo.ResetHard},
		{merge, repo.ResetMerge},
		{keep, repo.ResetKeep},
	} {
		if m.set {
			mode = m.mode
			count++
		}
	}
	if count > 1 {
		return repo.ResetNone, false, fmt.Errorf("only one of --mixed, --soft, --hard, --merge, --keep may be given")
	}
	return mode, count == 1, nil
}

// splitRevisionFromPaths decides which arguments name a revision and which
// name paths. A "--" separator makes the split explicit: everything before
// it (at most one argument) is the revision. Without one, a lone argument
// that resolves to a revision is taken as the revision, and a leading
// argument that resolves is a revision followed by paths. Anything else is
// all paths.
func splitRevisionFromPaths(cmd *cobra.Command, r *repo.Repo, args []string) (string, []string, error) {
	dash := cmd.ArgsLenAtDash()
	if dash >= 0 {
		switch dash {
		case 0:
			return "", args, nil
		case 1:
			return args[0], args[1:], nil
		default:
			return "", nil, fmt.Errorf("only one revision may be given before --")
		}
	}

	if len(args) == 0 {
		return "", nil, nil
	}
	if resolvesToRevision(r, args[0]) {
		return args[0], args[1:], nil
	}
	if looksLikeRevision(args[0]) && len(args) == 1 {
		return "", nil, fmt.Errorf("unknown revision %q", args[0])
	}
	return "", args, nil
}

// looksLikeRevision reports whether an argument is plausibly a revision
// rather than a path. Used only to produce a clearer error for a lone
// unresolvable argument that cannot be a file either.
func looksLikeRevision(arg string) bool {
	if len(arg) != 64 {
		return false
	}
	for _, c := range arg {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

func resolvesToRevision(r *repo.Repo, arg string) bool {
	if _, err := r.ResolveRef(arg); err == nil {
		return true
	}
	return r.Store.Has(object.Hash(arg))
}

// readPathsFromStdin reads one path per line, or NUL-separated paths when
// nulSep is set. In line mode a path wrapped in double quotes is C-style
// unquoted, so names with spaces or escapes survive the trip through tools
// that quote their output. Paths are literal, not patterns.
func readPathsFromStdin(cmd *cobra.Command, nulSep bool) ([]string, error) {
	scanner := bufio.NewScanner(cmd.InOrStdin())
	if nulSep {
		scanner.Split(scanNulSeparated)
	}

	var paths []string
	for scanner.Scan() {
		p := scanner.Text()
		if !nulSep {
			p = strings.TrimRight(p, "\r")
			if strings.HasPrefix(p, `"`) {
				unquoted, err := strconv.Unquote(p)
				if err != nil {
					return nil, fmt.Errorf("badly quoted path %s", p)
				}
				p = unquoted
			}
		}
		if p == "" {
			continue
		}
		paths = append(paths, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read paths from stdin: %w", err)
	}
	return paths, nil
}

func scanNulSeparated(data []byte, atEOF bool) (int, []byte, error) {
	for i, b := range data {
		if b == 0 {
			return i + 1, data[:i], nil
		}
	}
	if atEOF && len(data) > 0 {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// validateRecurseSubmodules accepts the flag for command line compatibility.
// Submodules are not tracked, so every accepted value is a no-op.
func validateRecurseSubmodules(v string) error {
	switch v {
	case "", "on", "no", "yes":
		return nil
	default:
		return fmt.Errorf("invalid --recurse-submodules value %q", v)
	}
}
