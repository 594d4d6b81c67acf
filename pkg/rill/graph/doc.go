// Package graph holds the generic node/edge structure a pipeline's
// composition is translated into for drawing. The structure is a closed
// tree of leaf nodes and nested networks, rebuilt fresh per draw call and
// walked through a minimal Renderer surface (add node, add edge, declare a
// named labelled sub-graph), so the drawing backend stays external.
package graph
