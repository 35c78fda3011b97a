package feature

import (
	"fmt"
	"os/exec"
	"regexp"
	"strings"
)

// branchChars is the character set allowed in generated branch names.
var branchChars = regexp.MustCompile(`^[A-Za-z0-9._/-]+$`)

// CurrentBranch returns the checked-out git branch for repoDir, or an empty
// string when the directory is not a git work tree. Git being absent is not
// an error here; branch detection is only a hint for Resolve.
func CurrentBranch(repoDir string) string {
	cmd := exec.Command("git", "rev-parse", "--abbrev-ref", "HEAD")
	cmd.Dir = repoDir
	out, err := cmd.Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

// BranchName renders the configured branch pattern for a feature.
func BranchName(pattern, featureID, featureName string) string {
	r := strings.NewReplacer(
		"{{id}}", featureID,
		"{{name}}", featureName,
	)
	return r.Replace(pattern)
}

// ValidateBranchName rejects names git itself would refuse or that would
// escape the specs directory when used as a folder name.
func ValidateBranchName(name string) error {
	if name == "" {
		return fmt.Errorf("feature: branch name is required")
	}
	if !branchChars.MatchString(name) {
		return fmt.Errorf("feature: branch name %q contains invalid characters", name)
	}
	if strings.Contains(name, "..") || strings.HasPrefix(name, "/") || strings.HasSuffix(name, "/") {
		return fmt.Errorf("feature: branch name %q is not a valid ref", name)
	}
	return nil
}
