// Package services implements the driving port interfaces.
// Services orchestrate calls to driven ports (view loader, favorite and
// state stores, config) around the control panel core.
//
// Services are pure Go with no CGO or external dependencies.
package services
