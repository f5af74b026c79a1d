package cli

import (
	"fmt"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
)

var (
	helpTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginBottom(1)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F6AE2D")).
			Italic(true)

	helpSectionStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#F6AE2D")).
				MarginTop(1)

	helpFlagStyle = lipgloss.NewStyle().
			Foreground(okColor).
			Bold(true)

	helpArgStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00AAAA")).
			Bold(true)

	helpDefaultStyle = lipgloss.NewStyle().
				Foreground(mutedColor).
				Italic(true)
)

// StyledHelpPrinter returns a kong help printer that renders the selected
// command's arguments, flags and subcommands with lipgloss.
func StyledHelpPrinter() kong.HelpPrinter {
	return func(_ kong.HelpOptions, ctx *kong.Context) error {
		node := ctx.Selected()
		if node == nil {
			node = ctx.Model.Node
		}

		var sb strings.Builder

		sb.WriteString(helpTitleStyle.Render(ctx.Model.Name))
		sb.WriteString("\n")

		if help := node.Help; help != "" {
			sb.WriteString(helpDescStyle.Render(help))
			sb.WriteString("\n")
		}

		sb.WriteString(helpSectionStyle.Render("Usage:"))
		sb.WriteString("\n  ")
		sb.WriteString(usageLine(ctx.Model.Name, node.Summary()))
		sb.WriteString("\n")

		if cmds := commands(node); len(cmds) > 0 {
			sb.WriteString(helpSectionStyle.Render("Commands:"))
			sb.WriteString("\n")

			for _, c := range cmds {
				fmt.Fprintf(&sb, "  %s  %s\n", helpArgStyle.Render(c.name), c.help)
			}
		}

		if args := arguments(node); len(args) > 0 {
			sb.WriteString(helpSectionStyle.Render("Arguments:"))
			sb.WriteString("\n")

			for _, a := range args {
				fmt.Fprintf(&sb, "  %s  %s\n", helpArgStyle.Render(a.name), a.help)
			}
		}

		sb.WriteString(helpSectionStyle.Render("Flags:"))
		sb.WriteString("\n")

		for _, f := range flags(node) {
			sb.WriteString("  ")
			sb.WriteString(helpFlagStyle.Render(f.flags))

			if f.help != "" {
				sb.WriteString("  ")
				sb.WriteString(f.help)
			}

			if f.defaultVal != "" {
				sb.WriteString(" ")
				sb.WriteString(helpDefaultStyle.Render("(default: " + f.defaultVal + ")"))
			}

			sb.WriteString("\n")
		}

		fmt.Fprint(ctx.Stdout, sb.String())

		return nil
	}
}

// usageLine prefixes summary with the program name unless kong already
// included it.
func usageLine(program, summary string) string {
	summary = strings.TrimSpace(summary)
	if summary == program || strings.HasPrefix(summary, program+" ") {
		return summary
	}

	if summary == "" {
		return program
	}

	return program + " " + summary
}

type helpEntry struct {
	name string
	help string
}

type helpFlag struct {
	flags      string
	help       string
	defaultVal string
}

func commands(node *kong.Node) []helpEntry {
	var out []helpEntry

	for _, child := range node.Children {
		if child.Hidden {
			continue
		}

		out = append(out, helpEntry{name: child.Name, help: child.Help})
	}

	return out
}

func arguments(node *kong.Node) []helpEntry {
	var out []helpEntry

	for _, arg := range node.Positional {
		out = append(out, helpEntry{name: arg.Summary(), help: arg.Help})
	}

	return out
}

func flags(node *kong.Node) []helpFlag {
	out := []helpFlag{{flags: "-h, --help", help: "Show context-sensitive help."}}

	for _, group := range node.AllFlags(true) {
		for _, f := range group {
			if f.Name == "help" {
				continue
			}

			name := "--" + f.Name
			if f.Short != 0 {
				name = fmt.Sprintf("-%c, --%s", f.Short, f.Name)
			}

			if !f.IsBool() {
				name += "=" + strings.ToUpper(f.FormatPlaceHolder())
			}

			out = append(out, helpFlag{flags: name, help: f.Help, defaultVal: f.Default})
		}
	}

	return out
}
