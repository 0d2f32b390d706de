package generator

import "strings"

// Tags appended to synthesized names.
const (
	tagStruct   = "s"
	tagUnion    = "u"
	tagEnum     = "e"
	tagFuncType = "ft"
)

// naming tracks the names of the nodes currently being walked, outermost
// first. Every visited node pushes one entry, named or not.
type naming struct {
	stack []string
}

func (nc *naming) push(name string) { nc.stack = append(nc.stack, name) }

func (nc *naming) pop() { nc.stack = nc.stack[:len(nc.stack)-1] }

// path joins the names of every ancestor above the current node's parent.
// With a tag the result becomes "_<path>_<tag>".
func (nc *naming) path(tag string) string {
	var names []string
	if n := len(nc.stack) - 2; n > 0 {
		for _, name := range nc.stack[:n] {
			if name != "" {
				names = append(names, name)
			}
		}
	}
	joined := strings.Join(names, "_")
	if tag == "" {
		return joined
	}
	return "_" + joined + "_" + tag
}
