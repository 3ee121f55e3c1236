package epubtidy

// MergeGroup is a run of consecutive non-empty blocks whose text is joined
// into the first one.
type MergeGroup struct {
	// Target is the index of the block that receives Text. It is always
	// Members[0].
	Target int

	// Members lists the indices of all blocks in the group, in order.
	Members []int

	// Text is the members' text joined with single spaces.
	Text string
}

// Removed returns the members folded into the target.
func (g MergeGroup) Removed() []int {
	return g.Members[1:]
}

type mergeState int

const (
	noTarget mergeState = iota
	buffering
)

// mergeBuffer accumulates the current group during a merge pass.
type mergeBuffer struct {
	state mergeState
	group MergeGroup
}

func (m *mergeBuffer) start(i int, text string) {
	m.state = buffering
	m.group = MergeGroup{Target: i, Members: []int{i}, Text: text}
}

func (m *mergeBuffer) add(i int, text string) {
	m.group.Members = append(m.group.Members, i)
	m.group.Text += " " + text
}

func (m *mergeBuffer) flush() MergeGroup {
	g := m.group
	m.state = noTarget
	m.group = MergeGroup{}
	return g
}

// MergeBlocks groups block texts into paragraphs. Empty texts are skipped
// and never start or end a group. A block is folded into the group before
// it while the group's text does not end a sentence (see EndsSentence).
func MergeBlocks(texts []string) []MergeGroup {
	var (
		groups []MergeGroup
		buf    mergeBuffer
	)
	for i, text := range texts {
		if text == "" {
			continue
		}
		switch {
		case buf.state == noTarget:
			buf.start(i, text)
		case !EndsSentence(buf.group.Text):
			buf.add(i, text)
		default:
			groups = append(groups, buf.flush())
			buf.start(i, text)
		}
	}
	if buf.state == buffering {
		groups = append(groups, buf.flush())
	}
	return groups
}
