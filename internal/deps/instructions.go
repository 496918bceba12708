package deps

import (
	"fmt"
	"io"
)

// ShowInstallInstructions writes installation guidance for one dependency.
func ShowInstallInstructions(w io.Writer, dep Dependency) {
	fmt.Fprintf(w, "\n📦 %s is required\n", dep.DisplayName)
	fmt.Fprintf(w, "   %s\n\n", dep.Description)

	fmt.Fprintf(w, "To install %s:\n", dep.DisplayName)
	if dep.InstallHint != "" {
		fmt.Fprintf(w, "  Package manager: %s\n", dep.InstallHint)
	}
	if dep.InstallURL != "" {
		fmt.Fprintf(w, "  Manual: %s\n", dep.InstallURL)
	}
	fmt.Fprintln(w)
}

// ShowMissingSummary lists every missing dependency with an install pointer.
func ShowMissingSummary(w io.Writer, missing []Dependency) {
	if len(missing) == 0 {
		return
	}

	fmt.Fprintf(w, "\n⚠️  The following tools are missing:\n\n")

	for _, dep := range missing {
		fmt.Fprintf(w, "  • %s - %s\n", dep.DisplayName, dep.Description)
		if dep.InstallHint != "" {
			fmt.Fprintf(w, "    Install: %s\n", dep.InstallHint)
		} else if dep.InstallURL != "" {
			fmt.Fprintf(w, "    Install: %s\n", dep.InstallURL)
		}
	}

	fmt.Fprintln(w)
}
