package scanner

import "fmt"

// Tab selects which part of an AnalysisResult is displayed.
type Tab string

const (
	TabPros        Tab = "pros"
	TabCons        Tab = "cons"
	TabEnvironment Tab = "environment"
)

// Tabs lists all tabs in display order.
var Tabs = []Tab{TabPros, TabCons, TabEnvironment}

const (
	NoProsMessage = "No pros detected"
	NoConsMessage = "No cons detected"
)

// ParseTab converts a tab name to a Tab.
func ParseTab(s string) (Tab, error) {
	switch t := Tab(s); t {
	case TabPros, TabCons, TabEnvironment:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTab, s)
}

// Title is the label shown on the tab button.
func (t Tab) Title() string {
	switch t {
	case TabPros:
		return "Pros"
	case TabCons:
		return "Cons"
	case TabEnvironment:
		return "Environment"
	}
	return string(t)
}

// TabContent is what a surface renders for the active tab. Empty is set when
// a list tab has no entries; Items then holds only the empty-state message.
type TabContent struct {
	Tab   Tab
	Items []string
	Empty bool
}

// Content returns the content of tab t for the result. The environment tab
// always carries the impact text, which may itself be a fallback message.
func (a AnalysisResult) Content(t Tab) TabContent {
	switch t {
	case TabPros:
		return listContent(t, a.Pros, NoProsMessage)
	case TabCons:
		return listContent(t, a.Cons, NoConsMessage)
	default:
		return TabContent{Tab: TabEnvironment, Items: []string{a.EnvironmentalImpact}}
	}
}

func listContent(t Tab, items []string, emptyMsg string) TabContent {
	if len(items) == 0 {
		return TabContent{Tab: t, Items: []string{emptyMsg}, Empty: true}
	}
	return TabContent{Tab: t, Items: items}
}
