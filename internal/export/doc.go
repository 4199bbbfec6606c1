// Package export serialises label templates.
//
// JSON documents carry the full template with centers in a caller-selected
// coordinate space and can be read back with ReadJSON. CSV files carry only
// the centers, one x,y,coord_space row per label in row-major order.
package export
