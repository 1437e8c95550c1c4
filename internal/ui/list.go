package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/coursefinder/internal/models"
)

var _ list.Item = courseItem{}

// courseItem wraps [models.Course] to implement [list.Item].
type courseItem struct {
	course   models.Course
	favorite bool
}

func (i courseItem) FilterValue() string { return i.course.Title }
func (i courseItem) Title() string {
	if i.favorite {
		return "★ " + i.course.Title
	}
	return i.course.Title
}
func (i courseItem) Description() string {
	return fmt.Sprintf("%s • %s", i.course.PrimaryAuthor(), i.course.Year())
}

func courseItems(courses []models.Course, isFavorite func(string) bool) []list.Item {
	items := make([]list.Item, len(courses))
	for i, c := range courses {
		items[i] = courseItem{course: c, favorite: isFavorite(c.Key)}
	}
	return items
}

func newCourseList(title string, p *Palette, filter bool) list.Model {
	l := list.New(nil, p.delegate(), 0, 0)
	l.Title = title
	l.Styles.Title = p.accent
	l.SetShowHelp(false)
	l.SetFilteringEnabled(filter)
	return l
}

func selectedCourse(l list.Model) (models.Course, bool) {
	item, ok := l.SelectedItem().(courseItem)
	if !ok {
		return models.Course{}, false
	}
	return item.course, true
}
