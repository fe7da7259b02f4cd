package secrets

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Layer identifies which secret class a path belongs to.
type Layer int

const (
	// LayerNone marks paths that are not secrets.
	LayerNone Layer = iota

	// LayerEval (Layer A) holds values needed at or before configuration
	// evaluation and build. Plaintext in the working copy, ciphertext in
	// committed history via the content filter.
	LayerEval

	// LayerActivation (Layer B) holds values needed only at activation.
	// Ciphertext everywhere, decrypted into the runtime store.
	LayerActivation
)

func (l Layer) String() string {
	switch l {
	case LayerEval:
		return "eval"
	case LayerActivation:
		return "activation"
	default:
		return "none"
	}
}

// Classifier maps repository-relative paths to secret layers.
type Classifier struct {
	EvalGlob       string
	ActivationGlob string
}

// ClassifyPath returns the layer a repository-relative path belongs to.
// Pure pattern match; a path matching neither glob is LayerNone. Paths
// are normalised to forward slashes before matching.
func (c Classifier) ClassifyPath(path string) Layer {
	normalised := filepath.ToSlash(path)

	if ok, _ := doublestar.Match(c.EvalGlob, normalised); ok {
		return LayerEval
	}
	if ok, _ := doublestar.Match(c.ActivationGlob, normalised); ok {
		return LayerActivation
	}
	return LayerNone
}

// SecretsSubtree returns the top-level directory shared by both layer
// globs, used by the bootstrap sequencer to exclude secrets from the
// anchor commit. Falls back to "secrets" when the globs have no common
// fixed prefix.
func (c Classifier) SecretsSubtree() string {
	evalBase := globBase(c.EvalGlob)
	activationBase := globBase(c.ActivationGlob)

	common := commonPrefixDir(evalBase, activationBase)
	if common == "" || common == "." {
		return "secrets"
	}
	return common
}

// globBase returns the fixed directory prefix of a glob pattern.
func globBase(pattern string) string {
	parts := []string{}
	for _, segment := range strings.Split(pattern, "/") {
		if containsGlobMeta(segment) {
			break
		}
		parts = append(parts, segment)
	}
	return strings.Join(parts, "/")
}

func commonPrefixDir(a, b string) string {
	as, bs := strings.Split(a, "/"), strings.Split(b, "/")
	common := []string{}
	for i := 0; i < len(as) && i < len(bs); i++ {
		if as[i] != bs[i] {
			break
		}
		common = append(common, as[i])
	}
	return strings.Join(common, "/")
}

func containsGlobMeta(s string) bool {
	return strings.ContainsAny(s, "*?[{")
}
