package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which compact mode is used.
	LayoutCompactWidth = 100

	// LayoutSidebarWidth is the minimum width to show the wine list beside
	// the pagella instead of above it.
	LayoutSidebarWidth = 120

	// SidebarWidth is the width of the wine list column.
	SidebarWidth = 38
)

// Timing constants.
const (
	// DefaultUIInterval is the default UI refresh interval.
	DefaultUIInterval = time.Second

	// NoticeLifetime is how long a notice stays in the status line.
	NoticeLifetime = 8 * time.Second

	// DisconnectTimeout bounds the admin force-disconnect request.
	DisconnectTimeout = 5 * time.Second
)
