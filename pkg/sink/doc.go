// Package sink renders a packed [atlas.Layout] into output artifacts.
//
// Every renderer returns the artifact as bytes so callers can write it to a
// file, cache it or serve it over HTTP:
//
//   - [RenderPNG]: the sprite sheet itself
//   - [RenderJSON], [RenderBSON]: the layout as a document
//   - [RenderHeader]: a C header with an enum of image ids and a table of
//     rectangles
//   - [RenderText]: one "name x y w h" line per frame
//   - [RenderDOT], [RenderTreeSVG]: the packer's binary tree, for debugging
//     placement decisions
//
// Renderers that take settings use functional options:
//
//	png, err := sink.RenderPNG(layout, images, sink.WithBackground("#202020"))
//
// [atlas.Layout]: github.com/matzehuels/atlaspack/pkg/atlas.Layout
package sink
