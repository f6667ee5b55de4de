// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI is a tabbed tracker over the catalog and the personal collections:
//  1. [BrowseView] : Trending, top-rated, and upcoming catalog pages
//  2. [SearchView] : Multi-search issued on every query change
//  3. [WatchlistView] : Titles queued to watch
//  4. [LibraryView] : Watched titles with their notes
//  5. [NoteView] : Edit the personal note of a library entry
//  6. [StatsView] : Aggregate figures over the library
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Catalog fetches run as commands and their results come back as messages applied on the update loop.
// Local toggles and note edits mutate the collection store directly from Update.
//
// Search responses carry the sequence number of the query that produced them; a response for anything but the
// latest query is dropped. Notifications are re-checked on a short tick and hidden once expired;
// nothing but an explicit esc dismisses them from the store.
package ui
