package domain

// Section is one header-delimited block of a chapter's markdown source.
type Section struct {
	Title    string
	HeaderID string
	Level    int
	Body     string
}

// Chapter is one textbook source file with its extracted sections. The
// chapter id is the source file's base name (e.g. chapter-03-gazebo) and is
// what citations and doc URLs reference.
type Chapter struct {
	ID       string
	Path     string
	Sections []Section
}

// ChapterTitle maps a chapter id to its human-readable title for citations.
// Unknown ids fall back to a title-cased form of the id.
func ChapterTitle(chapterID string) string {
	if title, ok := chapterTitles[chapterID]; ok {
		return title
	}
	return titleCaseID(chapterID)
}

var chapterTitles = map[string]string{
	"intro":                  "Introduction",
	"chapter-01-foundations": "Physical AI Foundations",
	"chapter-02-ros2":        "ROS 2",
	"chapter-03-gazebo":      "Gazebo & Digital Twins",
	"chapter-04-isaac":       "NVIDIA Isaac",
	"chapter-05-vla":         "Vision-Language-Action Models",
	"chapter-06-capstone":    "Capstone Project",
}

func titleCaseID(id string) string {
	out := []rune{}
	upper := true
	for _, r := range id {
		if r == '-' {
			out = append(out, ' ')
			upper = true
			continue
		}
		if upper && r >= 'a' && r <= 'z' {
			r = r - 'a' + 'A'
		}
		upper = false
		out = append(out, r)
	}
	return string(out)
}
