// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The screens are split into two navigation domains chosen by the [session.Gate]:
//   - unauthenticated: [LoginView] and [RegisterView]
//   - authenticated: the [CoursesView], [FavoritesView] and [ProfileView] tabs, plus [DetailsView]
//
// The model never switches domain itself. Logging in or out only writes or clears the credential key;
// the gate observes that and the model follows the state it receives on [session.Gate.Changes].
// While the gate is still resolving the model renders nothing.
//
// Favorites and theme toggles run as commands because both wait for their store's startup load.
// Colors come from the current [preferences.Theme].
//
// Keyboard navigation uses tab/shift+tab between fields and tabs, enter to submit or open, esc to go back,
// with contextual help displayed via charmbracelet/bubbles/help.
package ui
