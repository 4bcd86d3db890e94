package provider

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
)

// =============================================================================
// Resource Naming Functions
// =============================================================================

// ImageTag derives the local tag for an image reference. The tag is the
// suffix after the last colon when one is present; a colon that belongs to
// a registry port does not count. Untagged references map to "latest".
//
// The derivation is deterministic so repeated deploys of the same image
// re-tag to the same name and the step is a no-op.
//
// Example:
//
//	ImageTag("registry.example.com:5000/team/api")        // returns "latest"
//	ImageTag("registry.example.com:5000/team/api:v1.2")   // returns "v1.2"
func ImageTag(image string) string {
	idx := strings.LastIndex(image, ":")
	if idx < 0 || strings.Contains(image[idx+1:], "/") {
		return "latest"
	}
	return image[idx+1:]
}

// RouteName generates the backend route name for an extra domain.
// Pattern: {deployName}-{first 6 hex chars of md5(domain)}. The hash suffix
// keeps names unique when one app exposes several domains.
//
// Example:
//
//	RouteName("billing-api", "pay.example.com") // returns "billing-api-" + hash
func RouteName(deployName, domain string) string {
	sum := md5.Sum([]byte(domain))
	return fmt.Sprintf("%s-%s", deployName, hex.EncodeToString(sum[:])[:6])
}

// SplitRepositoryBranch separates a repository reference from its branch
// suffix. The branch is the part after the last "@" when present, "master"
// otherwise.
//
// Example:
//
//	SplitRepositoryBranch("git@host.com:team/app.git@develop")
//	// returns ("git@host.com:team/app.git", "develop")
//
//	SplitRepositoryBranch("/home/me/app")
//	// returns ("/home/me/app", "master")
func SplitRepositoryBranch(repository string) (repo, branch string) {
	idx := strings.LastIndex(repository, "@")
	if idx <= 0 {
		return repository, "master"
	}
	candidate := repository[idx+1:]
	// git@host.com:app has an "@" that is part of the ssh address, not a
	// branch suffix.
	if strings.ContainsAny(candidate, ":/") || candidate == "" {
		return repository, "master"
	}
	return repository[:idx], candidate
}
