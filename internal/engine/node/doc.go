// Package node provides the document model for the folio editing engine.
//
// A Document owns a single tree of Nodes. Every Node carries a stable Key,
// a Type tag, and the payload fields that belong to its type:
//
//   - Text: string content, Format flags and a Style map
//   - Paragraph, Heading (levels 1-3), Quote, Code: block metadata (Align, Indent)
//   - List (ordered or bullet) holding ListItems
//   - Link: target URL, holds Text
//   - Image, Video, Rule: atomic leaves that never hold children
//
// Node is a closed variant. Code that needs per-type behavior switches on
// Node.Type; the interchange codec keeps the only exhaustive switches.
//
// Tree Ownership:
//
// A Document is owned by one engine. Nodes get their keys when they are
// attached to a Document; a detached node (a fresh node or a Clone) is
// exempt from key checks until it is attached. Document.Clone produces an
// independent copy with identical keys, which is how history snapshots are
// taken.
//
// Normalization:
//
// After every mutation batch the owner calls Normalize, which removes empty
// text nodes, merges adjacent text nodes with identical formatting, drops
// empty links and lists, and guarantees the root holds at least one block.
// Callers that track positions pass a RemapFunc to follow merged and removed
// nodes.
package node
