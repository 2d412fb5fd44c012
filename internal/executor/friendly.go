package executor

import "strings"

// friendlyError rewrites a raw Python error reported by the runner script into
// a learner-facing explanation. Categories are checked in order and only the
// first match applies; anything unrecognized gets the generic wrap.
func friendlyError(raw string) string {
	switch {
	case strings.Contains(raw, "ImportError"), strings.Contains(raw, "ModuleNotFoundError"):
		return "🚫 Import blocked: " + raw + "\nOnly `import cv2` and `import numpy as np` are allowed."
	case strings.Contains(raw, "SyntaxError"):
		return "✏️ Syntax error in your code: " + raw
	case strings.Contains(raw, "NameError"):
		return "❓ Name not found: " + raw + "\nDid you define this variable?"
	case strings.Contains(raw, "TypeError"):
		return "🔧 Type error: " + raw
	case strings.Contains(raw, "AttributeError"):
		return "🔍 Attribute error: " + raw + "\nCheck the OpenCV function name."
	default:
		return "❌ Error: " + raw
	}
}
