package gates

import (
	"context"
	"os"
	"regexp"

	"github.com/patchgate/patchgate/internal/workspace"
)

// GateTestPresence is the name of the test-presence scan gate.
const GateTestPresence = "test-presence"

// testFileRe matches diff headers whose path looks like a test source file.
var testFileRe = regexp.MustCompile(`(?m)^(diff --git|\+\+\+).*(/test/|/tests/|Test[A-Za-z0-9_]*\.\w+|_test\.\w+)`)

// NewTestPresenceGate fails patches that touch no test files, unless the
// tracker flagged the issue as documentation-only.
func NewTestPresenceGate() Gate {
	return Gate{
		Name: GateTestPresence,
		Run: func(ctx context.Context, ws *workspace.State) Result {
			if ws.DocumentationOnly {
				return pass(GateTestPresence, "documentation-only patch, no tests required")
			}

			data, err := os.ReadFile(ws.PatchPath)
			if err != nil {
				return fatal(GateTestPresence, "read patch: %v", err)
			}

			n := len(testFileRe.FindAll(data, -1))
			if n == 0 {
				return fail(GateTestPresence, "the patch does not appear to include any new or modified tests")
			}
			return pass(GateTestPresence, "the patch touches %d test file reference(s)", n)
		},
	}
}
