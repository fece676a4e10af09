// Package fileutil holds filesystem helpers shared by the storage modes.
package fileutil
