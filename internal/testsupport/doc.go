// Package testsupport holds helpers shared by package tests: temp-dir
// configurations, fixture files, and an opened document store.
package testsupport
