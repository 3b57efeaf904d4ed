package models

import "bookcatalog/internal/taxonomy"

// Genre is a node of the book genre taxonomy. CompleteName and ParentPath
// are derived by the taxonomy tree and must never be written from input.
type Genre struct {
	Base
	Name         string `gorm:"not null;index" json:"name"`
	CompleteName string `gorm:"not null;index" json:"complete_name"`
	ParentID     *uint  `gorm:"index" json:"parent_id,omitempty"`
	ParentPath   string `gorm:"not null;index" json:"parent_path"`
	Notes        string `json:"notes"`
	Color        int    `gorm:"not null;default:0" json:"color"`
}

// Node converts the stored genre into a taxonomy record.
func (g *Genre) Node() taxonomy.Node {
	return taxonomy.Node{ID: g.ID, Name: g.Name, ParentID: g.ParentID}
}

// ApplyNode copies the tree-derived fields onto the genre.
func (g *Genre) ApplyNode(n taxonomy.Node) {
	g.ID = n.ID
	g.Name = n.Name
	g.ParentID = n.ParentID
	g.CompleteName = n.CompleteName
	g.ParentPath = taxonomy.FormatPath(n.Path)
}
