// Package types defines the Backend interface, the Item and Cursor entity
// types, and the standard errors for the pantry inventory system.
package types
