// Package filetree converts a flat list of relative file paths into a folder hierarchy.
package filetree

import (
	"sort"
	"strings"
)

const pathSeparator = "/"

// FolderNode is one directory level: its direct files in discovery order and its named subfolders.
type FolderNode struct {
	Files      []string
	Subfolders map[string]*FolderNode
}

// FileTree pairs the folder hierarchy with the authoritative file order.
type FileTree struct {
	Root         *FolderNode
	OrderedPaths []string
}

func newFolderNode() *FolderNode {
	return &FolderNode{Subfolders: map[string]*FolderNode{}}
}

// Build groups slash-separated relativePaths by directory. Every input path is
// kept: OrderedPaths matches relativePaths element for element, duplicates
// included, and joining the folder names and file name of each leaf with "/"
// yields its path. An empty path becomes a root file with an empty name.
func Build(relativePaths []string) FileTree {
	tree := FileTree{Root: newFolderNode(), OrderedPaths: make([]string, 0, len(relativePaths))}
	for _, relativePath := range relativePaths {
		components := strings.Split(relativePath, pathSeparator)
		currentNode := tree.Root
		for _, folderName := range components[:len(components)-1] {
			childNode, exists := currentNode.Subfolders[folderName]
			if !exists {
				childNode = newFolderNode()
				currentNode.Subfolders[folderName] = childNode
			}
			currentNode = childNode
		}
		currentNode.Files = append(currentNode.Files, components[len(components)-1])
		tree.OrderedPaths = append(tree.OrderedPaths, relativePath)
	}
	return tree
}

// SortedSubfolderNames returns the subfolder names of node in lexical order.
func (node *FolderNode) SortedSubfolderNames() []string {
	names := make([]string, 0, len(node.Subfolders))
	for name := range node.Subfolders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FileCount returns the number of files stored in node and all of its descendants.
func (node *FolderNode) FileCount() int {
	if node == nil {
		return 0
	}
	total := len(node.Files)
	for _, child := range node.Subfolders {
		total += child.FileCount()
	}
	return total
}

// Lookup returns the folder reached by following folderNames from node, or nil.
func (node *FolderNode) Lookup(folderNames ...string) *FolderNode {
	currentNode := node
	for _, folderName := range folderNames {
		if currentNode == nil {
			return nil
		}
		currentNode = currentNode.Subfolders[folderName]
	}
	return currentNode
}
