package git

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// ExportStatus describes how git sees an exported file
type ExportStatus struct {
	Path    string
	IsRepo  bool
	Tracked bool // file is in the index (bad)
	Ignored bool // file matches a .gitignore rule (good)
}

// Exposed reports whether the export could end up in a commit
func (s *ExportStatus) Exposed() bool {
	return s.IsRepo && (s.Tracked || !s.Ignored)
}

// IsGitRepo checks if the working directory is inside a git repository
func IsGitRepo(workDir string) bool {
	cmd := exec.Command("git", "rev-parse", "--is-inside-work-tree")
	cmd.Dir = workDir
	err := cmd.Run()
	return err == nil
}

// IsTracked checks if a file is tracked by git
func IsTracked(workDir, path string) bool {
	cmd := exec.Command("git", "ls-files", "--", path)
	cmd.Dir = workDir
	output, err := cmd.Output()

	if err != nil {
		return false
	}

	return len(strings.TrimSpace(string(output))) > 0
}

// IsIgnored checks if a file is ignored by git (handles all .gitignore files)
func IsIgnored(workDir, path string) bool {
	cmd := exec.Command("git", "check-ignore", "-q", "--", path)
	cmd.Dir = workDir
	err := cmd.Run()

	// git check-ignore returns exit code 0 if file is ignored
	return err == nil
}

// CheckExport inspects the git status of the file at path
func CheckExport(path string) (*ExportStatus, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	status := &ExportStatus{Path: path}
	workDir, name := filepath.Dir(abs), filepath.Base(abs)

	if !IsGitRepo(workDir) {
		return status, nil
	}
	status.IsRepo = true
	status.Tracked = IsTracked(workDir, name)
	status.Ignored = IsIgnored(workDir, name)

	return status, nil
}

// FormatWarning returns the warning to print for status, or "" when the
// export is not exposed.
func FormatWarning(status *ExportStatus) string {
	if status == nil || !status.Exposed() {
		return ""
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("warning: %s contains unencrypted secrets and is inside a git repository\n", status.Path))
	if status.Tracked {
		result.WriteString(fmt.Sprintf("   error: file is tracked by git (run: git rm --cached %s)\n", status.Path))
	}
	if !status.Ignored {
		result.WriteString(fmt.Sprintf("   warning: %s not in .gitignore (add to .gitignore)\n", filepath.Base(status.Path)))
	}
	return result.String()
}
