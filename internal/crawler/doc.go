// Package crawler holds the domain model shared by the genre crawler: the
// Dump/Game/Genre records, the SiteParser and Store contracts, title
// matching, genre cleanup, and the retry and pacing policy used by workers.
package crawler
