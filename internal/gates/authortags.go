package gates

import (
	"context"
	"os"
	"regexp"

	"github.com/patchgate/patchgate/internal/workspace"
)

// GateAuthorTags is the name of the author-tag scan gate.
const GateAuthorTags = "author-tags"

// authorTagRe matches @author tags on lines the patch adds. Project policy
// forbids per-file authorship markers; attribution belongs in the VCS.
var authorTagRe = regexp.MustCompile(`(?m)^\+.*@author`)

// NewAuthorTagGate scans the patch text for disallowed authorship markers.
// Fail, not Fatal: the rest of the pipeline still produces useful signal.
func NewAuthorTagGate() Gate {
	return Gate{
		Name: GateAuthorTags,
		Run: func(ctx context.Context, ws *workspace.State) Result {
			data, err := os.ReadFile(ws.PatchPath)
			if err != nil {
				return fatal(GateAuthorTags, "read patch: %v", err)
			}

			matches := authorTagRe.FindAll(data, -1)
			if len(matches) > 0 {
				return fail(GateAuthorTags, "the patch adds %d line(s) with @author tags", len(matches))
			}
			return pass(GateAuthorTags, "the patch does not introduce any @author tags")
		},
	}
}
