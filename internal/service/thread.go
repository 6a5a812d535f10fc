package service

import (
	"quorum/internal/models"
)

// BuildThread nests a flat, creation-ordered comment list into a reply tree.
// It is a pure transform: no re-sorting, no storage access, no failure modes.
//
// A comment whose parent is absent from the input (the parent was soft-deleted
// and excluded from the fetch) is promoted to a root rather than dropped.
// Clients depend on that behavior to keep orphaned replies visible.
func BuildThread(comments []*models.Comment) []*models.CommentNode {
	nodes := make(map[uint]*models.CommentNode, len(comments))
	for _, c := range comments {
		nodes[c.ID] = &models.CommentNode{Comment: c, Replies: []*models.CommentNode{}}
	}

	roots := make([]*models.CommentNode, 0, len(comments))
	for _, c := range comments {
		node := nodes[c.ID]
		if c.ParentID != nil {
			if parent, ok := nodes[*c.ParentID]; ok {
				parent.Replies = append(parent.Replies, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	return roots
}

// FlattenThread walks a reply tree depth-first and returns the comments in
// visit order. It is the inverse of BuildThread up to ordering of orphans.
func FlattenThread(nodes []*models.CommentNode) []*models.Comment {
	var out []*models.Comment
	var walk func([]*models.CommentNode)
	walk = func(ns []*models.CommentNode) {
		for _, n := range ns {
			out = append(out, n.Comment)
			walk(n.Replies)
		}
	}
	walk(nodes)
	return out
}
