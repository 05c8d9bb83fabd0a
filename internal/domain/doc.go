// Package domain contains the core types of the export pipeline:
// repositories, items (issues and pull requests), comments, merged
// timelines, and asset references. Types here are constructed once per
// export run and treated as immutable afterwards.
package domain
