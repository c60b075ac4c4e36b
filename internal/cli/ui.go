package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/atlaspack/pkg/atlas"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - commands
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleHighlight for emphasized values.
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleNumber for numeric values.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)
	styleKey      = lipgloss.NewStyle().Foreground(colorGray).Width(12)

	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"
)

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(format string, args ...any) {
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	fmt.Println(styleIconError.Render(iconError) + " " + fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + fmt.Sprintf(format, args...))
}

// printDetail prints an indented, dimmed line.
func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a written output file.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

func printKeyValue(key, value string) {
	fmt.Println(styleKey.Render(key) + " " + StyleValue.Render(value))
}

// =============================================================================
// Stats Display
// =============================================================================

// statsLine formats layout statistics on one line:
// "12 frames · 256x128 · 87.5% used · cached".
func statsLine(s atlas.Stats, cached bool) string {
	parts := []string{
		fmt.Sprintf("%d frames", s.Frames),
		fmt.Sprintf("%dx%d", s.Width, s.Height),
		fmt.Sprintf("%.1f%% used", 100*s.Usage),
	}

	status, statusStyle := iconFresh, styleComputed
	if cached {
		status, statusStyle = iconCached, styleCached
	}

	rendered := make([]string, len(parts))
	for i, p := range parts {
		rendered[i] = StyleDim.Render(p)
	}
	return "  " + strings.Join(append(rendered, statusStyle.Render(status)), StyleDim.Render(" · "))
}

func printStats(s atlas.Stats, cached bool) {
	fmt.Println(statsLine(s, cached))
}

// printUsage prints the full area report for a sheet.
func printUsage(s atlas.Stats) {
	printKeyValue("used area", StyleNumber.Render(fmt.Sprintf("%d px", s.UsedArea)))
	printKeyValue("size", fmt.Sprintf("%dx%d", s.Width, s.Height))
	printKeyValue("area", fmt.Sprintf("%d px", s.Area))
	printKeyValue("usage", StyleNumber.Render(fmt.Sprintf("%.1f%%", 100*s.Usage)))
	printKeyValue("pow2 size", fmt.Sprintf("%dx%d", s.Pow2Width, s.Pow2Height))
	printKeyValue("pow2 area", fmt.Sprintf("%d px", s.Pow2Area))
	printKeyValue("pow2 usage", StyleNumber.Render(fmt.Sprintf("%.1f%%", 100*s.Pow2Usage)))
}

// =============================================================================
// Commands & Next Steps
// =============================================================================

// printNextStep prints a suggested next command.
func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

func printNewline() {
	fmt.Println()
}
