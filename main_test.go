package main

import (
	"testing"
)

// TestMain_Imports verifies that the main package compiles and its imports
// resolve. main() itself exits through cmd.Execute, so the commands are
// tested in the cmd package.
func TestMain_Imports(t *testing.T) {
}
