package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/AI2HU/taskcollab-setup/internal/logger"
	"github.com/AI2HU/taskcollab-setup/internal/provision"
)

// reportError prints a failure with guidance matching its kind
func reportError(out io.Writer, err error) {
	var pe *provision.Error
	if !errors.As(err, &pe) {
		// cobra usage errors: unknown flags, unexpected arguments
		fmt.Fprintf(out, "\n%s %v\n", FormatError("❌ Error:"), err)
		return
	}

	switch pe.Kind {
	case provision.KindPrerequisite:
		fmt.Fprintf(out, "\n%s %v\n", FormatError("❌ Error:"), pe.Err)
	case provision.KindConnectivity:
		fmt.Fprintf(out, "\n%s %v\n", FormatError("❌ Connection Error:"), pe.Err)
		fmt.Fprintln(out, "\n💡 Troubleshooting:")
		fmt.Fprintln(out, "   • Ensure the database server is running")
		fmt.Fprintln(out, "   • Check username/password in .env file")
		fmt.Fprintln(out, "   • Verify host and port settings")
	case provision.KindStatement:
		fmt.Fprintf(out, "\n%s %v\n", FormatError("❌ Database Error:"), pe.Err)
	default:
		fmt.Fprintf(out, "\n%s %v\n", FormatError("❌ Unexpected Error:"), pe.Err)
	}

	if pe.Hint != "" {
		fmt.Fprintf(out, "\n💡 %s\n", pe.Hint)
	}
	if logger.IsDebugEnabled() {
		fmt.Fprintln(out, FormatDim(fmt.Sprintf("   %s failure during %q (%T)", pe.Kind, pe.Op, pe.Err)))
	}
}
