// Package core provides shared types for the grid subsystem.
// This package breaks import cycles between the draw loop, the cell
// renderers and the drawing surfaces.
package core
