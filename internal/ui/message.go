package ui

import (
	"github.com/desertthunder/coursefinder/internal/models"
	"github.com/desertthunder/coursefinder/internal/preferences"
	"github.com/desertthunder/coursefinder/internal/session"
)

// sessionChangedMsg carries a state published by the gate.
type sessionChangedMsg struct {
	state session.State
}

// authResultMsg reports the outcome of a login or registration attempt.
type authResultMsg struct {
	err error
}

type logoutMsg struct {
	err error
}

type searchResultMsg struct {
	query   string
	courses []models.Course
	err     error
}

type detailsMsg struct {
	key     string
	details *models.CourseDetails
	err     error
}

type profileMsg struct {
	profile *models.Profile
	err     error
}

type favoriteToggledMsg struct {
	course models.Course
	added  bool
}

// favoritesLoadedMsg is sent once the favorites store finishes its startup load.
type favoritesLoadedMsg struct{}

type themeChangedMsg struct {
	theme preferences.Theme
}
