package threadview

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/fragmede/chatter/internal/api"
	"github.com/fragmede/chatter/internal/render"
	"github.com/fragmede/chatter/internal/session"
	"github.com/fragmede/chatter/internal/thread"
)

const (
	likedIcon   = "♥"
	unlikedIcon = "♡"
	maxAvatar   = 40
)

var (
	depthColors = []lipgloss.Color{
		"#E8505B", "#828282", "#00BFFF", "#32CD32", "#FFD700", "#FF69B4", "#9370DB", "#20B2AA",
	}

	authorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	avatarStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#555555"))
	metaStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#828282"))
	likedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#E8505B")).Bold(true)
	likeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#828282"))
)

// renderComment draws one comment as lines: a header with author, avatar,
// date and like control, then the wrapped text. The like label is the
// comment's stored count; only the icon follows the viewer's toggle.
func renderComment(fc thread.FlatComment, authors api.Authors, liked bool, locale string, width int, selected bool) ([]string, error) {
	author, err := session.LookupAuthor(authors, fc.Node.Comment)
	if err != nil {
		return nil, err
	}

	indent := indentFor(fc.Depth)
	indentStr := strings.Repeat(" ", indent)
	barColor := depthColors[fc.Depth%len(depthColors)]
	if selected {
		barColor = selectedBarColor
	}
	bar := lipgloss.NewStyle().Foreground(barColor).Render("│")

	header := authorStyle.Render(author.Name)
	if author.Avatar != "" {
		header += " " + avatarStyle.Render("("+render.Truncate(author.Avatar, maxAvatar)+")")
	}
	if date := render.LongDate(fc.Node.Created, locale); date != "" {
		header += " " + metaStyle.Render(date)
	}
	header += " " + likeControl(liked, fc.Node.Likes)
	if fc.IsCollapsed {
		header += " " + metaStyle.Render(fmt.Sprintf("[+%d]", fc.ChildCount))
	}
	if fc.Depth > 15 {
		header += " " + metaStyle.Render(fmt.Sprintf("[d:%d]", fc.Depth))
	}

	lines := []string{indentStr + bar + " " + header}
	if fc.IsCollapsed {
		return lines, nil
	}

	bodyWidth := width - indent - 2
	if bodyWidth < 20 {
		bodyWidth = 20
	}
	for _, line := range strings.Split(render.CommentText(fc.Node.Text, bodyWidth), "\n") {
		lines = append(lines, indentStr+bar+" "+line)
	}
	return lines, nil
}

func likeControl(liked bool, count int) string {
	if liked {
		return likedStyle.Render(fmt.Sprintf("%s %d", likedIcon, count))
	}
	return likeStyle.Render(fmt.Sprintf("%s %d", unlikedIcon, count))
}

// Render draws the whole forest, fully expanded, as plain text blocks
// separated by blank lines. It fails on the first comment whose author
// cannot be resolved.
func Render(forest []*thread.Node, authors api.Authors, liked func(id int) bool, locale string, width int) (string, error) {
	var sb strings.Builder
	for _, fc := range thread.Flatten(forest, nil) {
		lines, err := renderComment(fc, authors, liked(fc.Node.ID), locale, width, false)
		if err != nil {
			return "", err
		}
		sb.WriteString(strings.Join(lines, "\n"))
		sb.WriteString("\n\n")
	}
	return sb.String(), nil
}
