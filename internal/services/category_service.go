package services

import (
	"errors"
	"fmt"
	"log/slog"

	"finance-tracker/internal/dto"
	"finance-tracker/internal/models"
	"finance-tracker/internal/repositories"

	"github.com/google/uuid"
)

const uncategorized = models.UncategorizedName

var (
	ErrCategoryNotFound       = errors.New("category not found")
	ErrParentNotFound         = errors.New("parent category not found")
	ErrCategoryCycle          = errors.New("category cannot be its own ancestor")
	ErrCategoryHasChildren    = errors.New("category has subcategories")
	ErrCategoryHasTransaction = errors.New("category is used by transactions")
)

type categoryService struct {
	categoryRepo    repositories.CategoryRepositoryInterface
	transactionRepo repositories.TransactionRepositoryInterface
	cache           CategoryCacheInterface
	logger          *slog.Logger
}

// NewCategoryService creates a new CategoryServiceInterface instance. Every write invalidates cache.
func NewCategoryService(
	categoryRepo repositories.CategoryRepositoryInterface,
	transactionRepo repositories.TransactionRepositoryInterface,
	cache CategoryCacheInterface,
	logger *slog.Logger,
) CategoryServiceInterface {
	return &categoryService{
		categoryRepo:    categoryRepo,
		transactionRepo: transactionRepo,
		cache:           cache,
		logger:          logger,
	}
}

func (s *categoryService) List() ([]models.Category, error) {
	return s.cache.All()
}

// Tree returns top-level categories with their children attached
func (s *categoryService) Tree() ([]models.Category, error) {
	top, err := s.cache.TopLevel()
	if err != nil {
		return nil, err
	}
	for i := range top {
		children, err := s.cache.Children(top[i].ID)
		if err != nil {
			return nil, err
		}
		top[i].Children = children
	}
	return top, nil
}

func (s *categoryService) Get(id uuid.UUID) (*models.Category, error) {
	category, err := s.categoryRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrCategoryNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return category, nil
}

func (s *categoryService) Create(req *dto.CategoryRequest) (*models.Category, error) {
	if req.ParentID != nil {
		if err := s.checkParent(uuid.Nil, *req.ParentID); err != nil {
			return nil, err
		}
	}

	category := &models.Category{}
	applyCategoryRequest(category, req)

	if err := s.categoryRepo.Create(category); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	s.cache.Invalidate()

	s.logger.Info("category created", "category_id", category.ID, "name", category.Name)
	return category, nil
}

func (s *categoryService) Update(id uuid.UUID, req *dto.CategoryRequest) (*models.Category, error) {
	category, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if req.ParentID != nil {
		if err := s.checkParent(id, *req.ParentID); err != nil {
			return nil, err
		}
	}

	applyCategoryRequest(category, req)
	if err := category.Validate(); err != nil {
		return nil, err
	}

	if err := s.categoryRepo.Update(category); err != nil {
		if errors.Is(err, repositories.ErrCategoryNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to update category: %w", err)
	}
	s.cache.Invalidate()

	return category, nil
}

// Delete refuses categories that still have children or transactions
func (s *categoryService) Delete(id uuid.UUID) error {
	if _, err := s.Get(id); err != nil {
		return err
	}

	children, err := s.categoryRepo.CountChildren(id)
	if err != nil {
		return fmt.Errorf("failed to count subcategories: %w", err)
	}
	if children > 0 {
		return ErrCategoryHasChildren
	}

	used, err := s.transactionRepo.CountByCategory(id)
	if err != nil {
		return fmt.Errorf("failed to count transactions: %w", err)
	}
	if used > 0 {
		return ErrCategoryHasTransaction
	}

	if err := s.categoryRepo.Delete(id); err != nil {
		if errors.Is(err, repositories.ErrCategoryNotFound) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("failed to delete category: %w", err)
	}
	s.cache.Invalidate()

	s.logger.Info("category deleted", "category_id", id)
	return nil
}

// checkParent walks up from parentID; reaching id means the new parent is a descendant
func (s *categoryService) checkParent(id, parentID uuid.UUID) error {
	if id != uuid.Nil && parentID == id {
		return ErrCategoryCycle
	}

	all, err := s.cache.All()
	if err != nil {
		return err
	}
	byID := make(map[uuid.UUID]models.Category, len(all))
	for _, c := range all {
		byID[c.ID] = c
	}

	current, ok := byID[parentID]
	if !ok {
		return ErrParentNotFound
	}
	for steps := 0; current.ParentID != nil && steps <= len(all); steps++ {
		if id != uuid.Nil && *current.ParentID == id {
			return ErrCategoryCycle
		}
		next, ok := byID[*current.ParentID]
		if !ok {
			break
		}
		current = next
	}
	return nil
}

func applyCategoryRequest(category *models.Category, req *dto.CategoryRequest) {
	category.Name = req.Name
	category.NameDE = req.NameDE
	category.ParentID = req.ParentID
	category.IsIncome = req.IsIncome
	category.Icon = req.Icon
	category.Color = req.Color
	category.SortOrder = req.SortOrder
}
