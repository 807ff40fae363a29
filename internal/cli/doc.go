// Package cli provides the terminal user interface components for gerritconn.
//
// The package uses [Bubbletea] for interactive forms and [Lipgloss] for
// styling. Components follow the Bubbletea Model-View-Update architecture.
//
// # Components
//
//   - Credentials: form editing the Gerrit URL, username and masked password
//
// [Bubbletea]: https://github.com/charmbracelet/bubbletea
// [Lipgloss]: https://github.com/charmbracelet/lipgloss
package cli
