// Package state holds the conversion service health shared between the
// background checker and the UI.
//
// The checker calls Store.Update after every probe; the UI reads
// Store.Snapshot when it renders. Snapshots are copies, so readers never
// observe a half-written update. Two consecutive failures mark the service
// offline; one success clears the count.
package state
