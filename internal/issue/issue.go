package issue

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"sealscan/internal/program"
	"sealscan/internal/util"
)

type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

type Issue struct {
	Category    string        `yaml:"category" json:"category"`
	Title       string        `yaml:"title" json:"title"`
	Severity    Severity      `yaml:"severity" json:"severity"`
	Message     string        `yaml:"message" json:"message"`
	Function    string        `yaml:"function,omitempty" json:"function,omitempty"`
	Pos         program.Pos   `yaml:"pos" json:"pos"`
	Secondary   []program.Pos `yaml:"secondary,omitempty" json:"secondary,omitempty"`
	Help        string        `yaml:"help,omitempty" json:"help,omitempty"`
	Fingerprint string        `yaml:"fingerprint" json:"fingerprint"`

	// Expr tells apart issues of one function that share a fallback
	// position. It is zero when the issue has a position of its own.
	Expr program.ExprID `yaml:"-" json:"-"`
}

// Seal computes the fingerprint from the fields that identify the issue.
func (is *Issue) Seal() *Issue {
	is.Fingerprint = util.Fingerprint(is.Category, is.Message, is.Function, is.Pos.File,
		strconv.Itoa(is.Pos.Line), strconv.Itoa(is.Pos.Col), strconv.Itoa(int(is.Expr)))
	return is
}

func (is *Issue) String() string {
	header := fmt.Sprintf("%s[%s]: %s\n", is.Severity, is.Category, is.Message)
	header = Colour(31, header)

	location := fmt.Sprintf("  --> %s", is.Pos)
	if is.Function != "" {
		location += fmt.Sprintf(" (in %s)", is.Function)
	}
	location += "\n"
	for _, pos := range is.Secondary {
		location += fmt.Sprintf("  ... %s\n", pos)
	}
	location = Colour(33, location)

	if is.Help != "" {
		location += fmt.Sprintf("  = help: %s\n", is.Help)
	}
	return header + location
}

func Colour(color int, str string) string {
	return fmt.Sprintf("\033[%dm%s\033[0m", color, str)
}

func less(a, b *Issue) bool {
	if a.Pos != b.Pos {
		return a.Pos.Before(b.Pos)
	}
	if a.Category != b.Category {
		return a.Category < b.Category
	}
	if a.Message != b.Message {
		return a.Message < b.Message
	}
	if a.Function != b.Function {
		return a.Function < b.Function
	}
	return a.Expr < b.Expr
}

// Normalize orders issues by position, category, message and function and drops
// issues whose fingerprint was already seen.
func Normalize(issues []*Issue) []*Issue {
	sorted := make([]*Issue, 0, len(issues))
	for _, is := range issues {
		if is.Fingerprint == "" {
			is.Seal()
		}
		sorted = append(sorted, is)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return less(sorted[i], sorted[j])
	})
	seen := util.NewSet[string]()
	out := sorted[:0]
	for _, is := range sorted {
		if seen.Add(is.Fingerprint) {
			out = append(out, is)
		}
	}
	return out
}

// WriteTable renders one row per issue followed by a per-category count.
func WriteTable(w io.Writer, issues []*Issue) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Location", "Category", "Severity", "Message"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetBorder(false)
	counts := make(map[string]int)
	for _, is := range issues {
		counts[is.Category]++
		table.Append([]string{is.Pos.String(), is.Category, string(is.Severity), is.Message})
	}
	categories := make([]string, 0, len(counts))
	for c := range counts {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	summary := make([]string, 0, len(categories))
	for _, c := range categories {
		summary = append(summary, fmt.Sprintf("%s=%d", c, counts[c]))
	}
	table.SetFooter([]string{"", "", "total " + strconv.Itoa(len(issues)), strings.Join(summary, " ")})
	table.Render()
}
