// Package vault persists the knowledge forest as one markdown artifact
// per node and reads external edits back in. Artifacts are plain files
// a human can open, edit and link in any markdown editor.
package vault

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/arborhq/arbor/pkg/tree"
)

const linksRule = "-----------------"

var parentLinkRe = regexp.MustCompile(`(?m)^- ([A-Za-z0-9_]+) \[\[([^\]]+)\]\]`)

// frontmatter is the YAML header of every artifact. Timestamps are
// pointers so a hand-created file without them still parses; the
// loader then falls back to the file's own mtime.
type frontmatter struct {
	NodeID     uint64     `yaml:"node_id"`
	CreatedAt  *time.Time `yaml:"created_at,omitempty"`
	ModifiedAt *time.Time `yaml:"modified_at,omitempty"`
	Tags       []string   `yaml:"tags,omitempty"`
	Color      string     `yaml:"color,omitempty"`
}

// Artifact is one parsed markdown file. The parent reference stays a
// filename until the second load pass resolves it to a node id.
type Artifact struct {
	Node           tree.Node
	ParentFilename string
	ParentRel      string
}

// Render serializes a node to its markdown artifact. parentFilename is
// empty for roots.
func Render(node tree.Node, parentFilename string) ([]byte, error) {
	created := node.CreatedAt
	modified := node.ModifiedAt
	fm := frontmatter{
		NodeID:     node.ID,
		CreatedAt:  &created,
		ModifiedAt: &modified,
		Tags:       node.Tags,
		Color:      node.Color,
	}
	head, err := yaml.Marshal(&fm)
	if err != nil {
		return nil, fmt.Errorf("marshaling frontmatter for node %d: %w", node.ID, err)
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(head)
	buf.WriteString("---\n\n")
	fmt.Fprintf(&buf, "# %s\n\n", node.Title)
	fmt.Fprintf(&buf, "### Summary\n%s\n\n", node.Summary)
	if node.Content != "" {
		buf.WriteString(node.Content)
		buf.WriteString("\n\n")
	}
	buf.WriteString(linksRule + "\n_Links:_\n")
	if parentFilename != "" {
		rel := node.Relationships[derefOrZero(node.ParentID)]
		fmt.Fprintf(&buf, "\nParent:\n- %s [[%s]]\n", relToSnake(rel), parentFilename)
	}
	return buf.Bytes(), nil
}

// Parse reads an artifact back into a node. mtime backfills missing
// frontmatter timestamps so reloading an untouched vault twice yields
// identical nodes.
func Parse(data []byte, mtime time.Time) (Artifact, error) {
	text := string(data)

	head, body, err := splitFrontmatter(text)
	if err != nil {
		return Artifact{}, err
	}

	var fm frontmatter
	if err := yaml.Unmarshal([]byte(head), &fm); err != nil {
		return Artifact{}, fmt.Errorf("parsing frontmatter: %w", err)
	}
	if fm.NodeID == 0 {
		return Artifact{}, fmt.Errorf("artifact missing node_id")
	}

	node := tree.Node{
		ID:    fm.NodeID,
		Tags:  fm.Tags,
		Color: fm.Color,
	}
	if fm.CreatedAt != nil {
		node.CreatedAt = *fm.CreatedAt
	} else {
		node.CreatedAt = mtime
	}
	if fm.ModifiedAt != nil {
		node.ModifiedAt = *fm.ModifiedAt
	} else {
		node.ModifiedAt = mtime
	}

	body, links := splitLinks(body)
	node.Title, node.Summary, node.Content = parseBody(body)

	art := Artifact{Node: node}
	if m := parentLinkRe.FindStringSubmatch(links); m != nil {
		art.ParentRel = snakeToRel(m[1])
		art.ParentFilename = strings.TrimSuffix(m[2], ".md") + ".md"
	}
	return art, nil
}

func splitFrontmatter(text string) (head, body string, err error) {
	if !strings.HasPrefix(text, "---\n") {
		return "", "", fmt.Errorf("artifact missing frontmatter")
	}
	rest := text[len("---\n"):]
	idx := strings.Index(rest, "\n---\n")
	if idx < 0 {
		return "", "", fmt.Errorf("artifact frontmatter not terminated")
	}
	return rest[:idx+1], rest[idx+len("\n---\n"):], nil
}

// splitLinks severs the trailing links section. The search runs from
// the end so content containing a horizontal rule stays intact.
func splitLinks(body string) (content, links string) {
	marker := "\n" + linksRule + "\n_Links:_"
	idx := strings.LastIndex(body, marker)
	if idx < 0 {
		return body, ""
	}
	return body[:idx], body[idx+len(marker):]
}

func parseBody(body string) (title, summary, content string) {
	lines := strings.Split(body, "\n")
	i := 0

	for ; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		if after, ok := strings.CutPrefix(line, "# "); ok {
			title = strings.TrimSpace(after)
			i++
		}
		break
	}

	for ; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		if line == "### Summary" {
			i++
			var sum []string
			for ; i < len(lines); i++ {
				if strings.TrimSpace(lines[i]) == "" {
					i++
					break
				}
				sum = append(sum, lines[i])
			}
			summary = strings.TrimSpace(strings.Join(sum, "\n"))
		}
		break
	}

	content = strings.TrimSpace(strings.Join(lines[i:], "\n"))
	return title, summary, content
}

func relToSnake(rel string) string {
	rel = strings.TrimSpace(strings.ToLower(rel))
	if rel == "" {
		return "child_of"
	}
	return strings.ReplaceAll(rel, " ", "_")
}

func snakeToRel(snake string) string {
	return strings.ReplaceAll(strings.ToLower(snake), "_", " ")
}

func derefOrZero(p *uint64) uint64 {
	if p == nil {
		return 0
	}
	return *p
}
