package services

import (
	"errors"
	"fmt"
	"sync"

	"gorm.io/gorm"

	apperrors "bookcatalog/internal/errors"
	"bookcatalog/internal/logger"
	"bookcatalog/internal/models"
	"bookcatalog/internal/pagination"
	"bookcatalog/internal/taxonomy"
)

// genreService keeps the genre hierarchy in memory and mirrors every change
// into the genres table. Writers work on a clone of the tree and swap it in
// only after the database transaction commits, so a failed write leaves both
// the table and the tree untouched.
type genreService struct {
	db *gorm.DB

	writeMu sync.Mutex
	mu      sync.RWMutex
	tree    *taxonomy.Tree
}

// NewGenreService loads the genre hierarchy from the database and returns a
// GenreServicer backed by it. Stored complete names and paths that drifted
// from the hierarchy are rewritten.
func NewGenreService(db *gorm.DB) (GenreServicer, error) {
	var genres []models.Genre
	if err := db.Order("id").Find(&genres).Error; err != nil {
		return nil, fmt.Errorf("load genres: %w", err)
	}

	records := make([]taxonomy.Node, len(genres))
	for i := range genres {
		records[i] = genres[i].Node()
	}
	tree, err := taxonomy.Load(records)
	if err != nil {
		return nil, fmt.Errorf("build genre tree: %w", err)
	}

	s := &genreService{db: db, tree: tree}
	if err := s.reconcile(genres); err != nil {
		return nil, err
	}
	logger.Named("genres").Infow("Loaded genre tree", "genres", tree.Len(), "top_level", len(tree.Roots()))
	return s, nil
}

func (s *genreService) reconcile(stored []models.Genre) error {
	var stale []taxonomy.Node
	for i := range stored {
		n, err := s.tree.Get(stored[i].ID)
		if err != nil {
			return fmt.Errorf("reconcile genre %d: %w", stored[i].ID, err)
		}
		if n.CompleteName != stored[i].CompleteName || taxonomy.FormatPath(n.Path) != stored[i].ParentPath {
			stale = append(stale, n)
		}
	}
	if len(stale) == 0 {
		return nil
	}

	logger.Named("genres").Infow("Rewriting stale genre paths", "count", len(stale))
	return s.db.Transaction(func(tx *gorm.DB) error {
		return saveNodes(tx, stale)
	})
}

func (s *genreService) current() *taxonomy.Tree {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree
}

func (s *genreService) swap(next *taxonomy.Tree) {
	s.mu.Lock()
	s.tree = next
	s.mu.Unlock()
}

// CreateGenre adds a genre under parentID, or at the top level when parentID is nil.
func (s *genreService) CreateGenre(name string, parentID *uint, notes string, color int) (*models.Genre, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	next := s.current().Clone()
	if parentID != nil {
		if _, err := next.Get(*parentID); err != nil {
			return nil, apperrors.ErrParentGenreNotFound
		}
	}

	genre := &models.Genre{Name: name, ParentID: parentID, Notes: notes, Color: color}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(genre).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := next.Insert(genre.ID, name, parentID); err != nil {
			return treeError(err)
		}
		n, err := next.Get(genre.ID)
		if err != nil {
			return treeError(err)
		}
		genre.ApplyNode(n)
		return saveNodes(tx, []taxonomy.Node{n})
	})
	if err != nil {
		return nil, asAppError(err)
	}

	s.swap(next)
	return genre, nil
}

// GetGenre retrieves a genre by ID.
func (s *genreService) GetGenre(id uint) (*models.Genre, error) {
	var genre models.Genre
	if err := s.db.First(&genre, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrGenreNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &genre, nil
}

// ListGenres retrieves a paginated list of genres ordered by complete name.
func (s *genreService) ListGenres(page pagination.PageRequest) (*pagination.PageResponse[models.Genre], error) {
	page.Defaults()

	var totalItems int64
	base := s.db.Model(&models.Genre{}).Session(&gorm.Session{})
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var genres []models.Genre
	if err := base.Order("complete_name, id").Scopes(pagination.Paginate(page)).Find(&genres).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(genres, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetRootGenres returns the top-level genres in display order.
func (s *genreService) GetRootGenres() ([]models.Genre, error) {
	return s.findOrdered(s.current().Roots())
}

// GetChildren returns the direct subgenres of a genre in display order.
func (s *genreService) GetChildren(id uint) ([]models.Genre, error) {
	ids, err := s.current().ChildrenOf(id)
	if err != nil {
		return nil, treeError(err)
	}
	return s.findOrdered(ids)
}

// GetAncestors returns the ancestors of a genre from the top level down.
func (s *genreService) GetAncestors(id uint) ([]models.Genre, error) {
	ids, err := s.current().AncestorsOf(id)
	if err != nil {
		return nil, treeError(err)
	}
	return s.findOrdered(ids)
}

// UpdateGenre renames and/or moves a genre and edits its plain fields.
// Renames and moves rewrite the derived fields of the whole subtree.
func (s *genreService) UpdateGenre(id uint, update GenreUpdate) (*models.Genre, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	next := s.current().Clone()
	if _, err := next.Get(id); err != nil {
		return nil, treeError(err)
	}

	changed := make(map[uint]taxonomy.Node)
	var order []uint
	record := func(nodes []taxonomy.Node) {
		for _, n := range nodes {
			if _, seen := changed[n.ID]; !seen {
				order = append(order, n.ID)
			}
			changed[n.ID] = n
		}
	}

	if update.Name != nil {
		nodes, err := next.Rename(id, *update.Name)
		if err != nil {
			return nil, treeError(err)
		}
		record(nodes)
	}
	if update.ClearParent || update.ParentID != nil {
		parentID := update.ParentID
		if update.ClearParent {
			parentID = nil
		}
		nodes, err := next.Reparent(id, parentID)
		if err != nil {
			return nil, treeError(err)
		}
		record(nodes)
	}

	fields := map[string]any{}
	if update.Notes != nil {
		fields["notes"] = *update.Notes
	}
	if update.Color != nil {
		fields["color"] = *update.Color
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		nodes := make([]taxonomy.Node, 0, len(order))
		for _, nid := range order {
			nodes = append(nodes, changed[nid])
		}
		if err := saveNodes(tx, nodes); err != nil {
			return err
		}
		if len(fields) > 0 {
			if err := tx.Model(&models.Genre{}).Where("id = ?", id).Updates(fields).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, asAppError(err)
	}

	s.swap(next)
	return s.GetGenre(id)
}

// DeleteGenre removes a genre with its entire subtree and detaches the
// removed genres from every product. It returns the removed ids.
func (s *genreService) DeleteGenre(id uint) ([]uint, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	next := s.current().Clone()
	removed, err := next.Delete(id)
	if err != nil {
		return nil, treeError(err)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM product_genres WHERE genre_id IN ?", removed).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", removed).Delete(&models.Genre{}).Error
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.swap(next)
	logger.Named("genres").Infow("Deleted genre subtree", "genre_id", id, "removed", len(removed))
	return removed, nil
}

// GetGenreProducts lists the products tagged with a genre, optionally
// including every subgenre.
func (s *genreService) GetGenreProducts(id uint, includeSubgenres bool, page pagination.PageRequest) (*pagination.PageResponse[models.Product], error) {
	tree := s.current()
	if _, err := tree.Get(id); err != nil {
		return nil, treeError(err)
	}

	ids := []uint{id}
	if includeSubgenres {
		below, err := tree.DescendantsOf(id)
		if err != nil {
			return nil, treeError(err)
		}
		ids = append(ids, below...)
	}

	genreIDs := s.db.Table("product_genres").Select("product_id").Where("genre_id IN ?", ids)
	return paginateProducts(s.db.Model(&models.Product{}).Where("id IN (?)", genreIDs), page)
}

// findOrdered loads genres by id and returns them in the order of ids.
func (s *genreService) findOrdered(ids []uint) ([]models.Genre, error) {
	if len(ids) == 0 {
		return []models.Genre{}, nil
	}

	var genres []models.Genre
	if err := s.db.Where("id IN ?", ids).Find(&genres).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	byID := make(map[uint]models.Genre, len(genres))
	for _, g := range genres {
		byID[g.ID] = g
	}
	out := make([]models.Genre, 0, len(ids))
	for _, id := range ids {
		if g, ok := byID[id]; ok {
			out = append(out, g)
		}
	}
	return out, nil
}

// saveNodes writes the tree-derived columns of each node.
func saveNodes(tx *gorm.DB, nodes []taxonomy.Node) error {
	for _, n := range nodes {
		err := tx.Model(&models.Genre{}).Where("id = ?", n.ID).Updates(map[string]any{
			"name":          n.Name,
			"parent_id":     n.ParentID,
			"complete_name": n.CompleteName,
			"parent_path":   taxonomy.FormatPath(n.Path),
		}).Error
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return nil
}

// treeError maps taxonomy failures onto API errors.
func treeError(err error) error {
	switch {
	case errors.Is(err, taxonomy.ErrUnknownNode):
		return apperrors.ErrGenreNotFound
	case errors.Is(err, taxonomy.ErrUnknownParent):
		return apperrors.ErrParentGenreNotFound
	case errors.Is(err, taxonomy.ErrInvalidName):
		return apperrors.ErrInvalidGenreName
	case errors.Is(err, taxonomy.ErrCycleDetected):
		return apperrors.ErrGenreCycle
	default:
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
}

// asAppError passes AppErrors through and wraps anything else.
func asAppError(err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperrors.Wrap(apperrors.ErrInternalServer, err)
}
