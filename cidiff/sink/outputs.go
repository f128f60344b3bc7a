package sink

import (
	"fmt"
	"os"
	"strings"
)

// Output is one GitHub Actions step output.
type Output struct {
	Name  string
	Value string
}

// outputDelimiter frames multi-line values.
const outputDelimiter = "CI_DIFF_EOF"

// AppendOutputs appends outputs to the step output file at
// path, creating it if needed.
func AppendOutputs(path string, outputs ...Output) (retErr error) {
	const errCtx = "appending step outputs"

	var sb strings.Builder

	for _, o := range outputs {
		if strings.Contains(o.Value, "\n") {
			fmt.Fprintf(&sb, "%s<<%s\n%s\n%s\n", o.Name, outputDelimiter, o.Value, outputDelimiter)

			continue
		}

		fmt.Fprintf(&sb, "%s=%s\n", o.Name, o.Value)
	}

	//nolint:gosec // path is provided by the CI runner
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	defer func() {
		if closeErr := f.Close(); closeErr != nil && retErr == nil {
			retErr = fmt.Errorf("%s: %w", errCtx, closeErr)
		}
	}()

	if _, err := f.WriteString(sb.String()); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}
