package executor

import "strings"

// Line-tag protocol emitted by the runner script. Stdout carries IMAGE and
// INFO lines plus arbitrary prints; stderr carries EXEC_ERROR plus diagnostic
// noise that is folded into the logs rather than treated as fatal.
const (
	imagePrefix = "IMAGE:"
	infoPrefix  = "INFO:"
	errorPrefix = "EXEC_ERROR:"
)

// parseOutput turns the captured streams of a finished run into a Result.
// If multiple IMAGE lines appear, the last one wins.
func parseOutput(stdout, stderr string) Result {
	var res Result
	var logs []string

	for _, line := range splitLines(strings.TrimSpace(stdout)) {
		switch {
		case strings.HasPrefix(line, imagePrefix):
			res.ImageB64 = line[len(imagePrefix):]
		case strings.HasPrefix(line, infoPrefix):
			logs = append(logs, line[len(infoPrefix):])
		default:
			logs = append(logs, line)
		}
	}

	for _, line := range splitLines(strings.TrimSpace(stderr)) {
		if strings.HasPrefix(line, errorPrefix) {
			res.Error = friendlyError(line[len(errorPrefix):])
		} else {
			logs = append(logs, line)
		}
	}

	res.Logs = strings.Join(logs, "\n")
	return res
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
