package thaplmagic

import (
	"os"
	"strings"
)

// texInputsVar is the LaTeX search path variable.
const texInputsVar = "TEXINPUTS"

// texInputs prepends callerDir to an existing search path. Without one, it
// searches the workspace, then callerDir, then the standard tree (the
// trailing empty entry expands to the default search path).
func texInputs(callerDir, existing string, set bool) string {
	sep := string(os.PathListSeparator)
	if set {
		return callerDir + sep + existing
	}
	return "." + sep + callerDir + sep + sep
}

// engineEnv returns a copy of base with TEXINPUTS extended for callerDir.
// base is not modified.
func engineEnv(base []string, callerDir string) []string {
	env := make([]string, 0, len(base)+1)
	existing, set := "", false
	for _, kv := range base {
		if v, ok := strings.CutPrefix(kv, texInputsVar+"="); ok {
			existing, set = v, true
			continue
		}
		env = append(env, kv)
	}
	return append(env, texInputsVar+"="+texInputs(callerDir, existing, set))
}
