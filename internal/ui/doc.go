// Package ui implements the interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI has three infinite-scroll tabs, each backed by its own [pager.Controller]:
//  1. Festivals : browse festivals, open details (recorded as a recent view), like
//  2. Jobs : urgent job postings
//  3. Reviews : every review, like
//
// Moving the cursor within the configured margin of the end of a list loads the next page. Pressing r resets
// the list and reloads page 1.
//
// Actions that need an account, and session expiry reported by [SessionExpiredMsg], switch to a login prompt.
// A successful login returns to the tab the user was on.
//
// Session changes arrive through [session.Manager.Subscribe] and are reflected in the header.
package ui
